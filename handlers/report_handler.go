package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/services"
	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: rs,
	}
}

// PlayersReport godoc
// @Summary Отчет по всем игрокам (только PREZES)
// @Tags reports
// @Produce json
// @Produce text/csv
// @Param format query string false "json или csv"
// @Param sezon query string false "Сезон статистики"
// @Success 200 {object} services.PlayerReport
// @Failure 400,403 {object} map[string]string
// @Security BearerAuth
// @Router /reports/players [get]
func (h *ReportHandler) PlayersReport(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, services.ReportQuery{})
}

func (h *ReportHandler) CategoryReport(w http.ResponseWriter, r *http.Request) {
	category := models.Category(chi.URLParam(r, "category"))
	h.report(w, r, services.ReportQuery{Category: &category})
}

func (h *ReportHandler) PositionReport(w http.ResponseWriter, r *http.Request) {
	position := models.Position(chi.URLParam(r, "position"))
	h.report(w, r, services.ReportQuery{Position: &position})
}

func (h *ReportHandler) report(w http.ResponseWriter, r *http.Request, query services.ReportQuery) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	query.Format = r.URL.Query().Get("format")
	query.Season = queryString(r, "sezon")

	report, err := h.reportService.Players(r.Context(), principal, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if report.Format != models.ReportCSV {
		respond(w, r, http.StatusOK, report)
		return
	}

	// CSV собираем в буфер: при ошибке еще можно ответить 500.
	var buf bytes.Buffer
	if err := h.reportService.WriteCSV(&buf, report); err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to render CSV report: %w", err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.WarnContext(r.Context(), "failed to stream CSV report", slog.Any("error", err))
	}
}
