package handlers

import (
	"net/http"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/services"
)

type StatisticHandler struct {
	statService services.StatisticService
}

func NewStatisticHandler(ss services.StatisticService) *StatisticHandler {
	return &StatisticHandler{
		statService: ss,
	}
}

// UpsertStatistic godoc
// @Summary Создать или обновить статистику игрока за сезон
// @Description Ключ записи - (игрок, сезон). Переданные счетчики перезаписываются, остальные остаются.
// @Tags statistics
// @Accept json
// @Produce json
// @Param id path int true "ID игрока"
// @Param input body models.StatisticPatch true "Счетчики"
// @Success 200 {object} models.Statistic
// @Failure 400,403,404 {object} map[string]string
// @Security BearerAuth
// @Router /statystyki/{id} [post]
func (h *StatisticHandler) UpsertStatistic(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var patch models.StatisticPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stat, err := h.statService.Upsert(r.Context(), principal, playerID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stat)
}

// GetPlayerStatistic отдает {} если статистики за сезон еще нет.
func (h *StatisticHandler) GetPlayerStatistic(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	playerID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stat, err := h.statService.GetForPlayer(r.Context(), principal, playerID, queryString(r, "sezon"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if stat == nil {
		respond(w, r, http.StatusOK, jsonResponse{})
		return
	}
	respond(w, r, http.StatusOK, stat)
}

func (h *StatisticHandler) ListStatistics(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	query := services.StatisticListQuery{Season: queryString(r, "sezon")}
	var err error
	if query.Category, err = queryCategory(r, "kategoria"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.Position, err = queryPosition(r, "pozycja"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := queryInt(r, "zawodnikId")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if playerID > 0 {
		query.PlayerID = &playerID
	}
	if query.Page, err = queryInt(r, "page"); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if query.Limit, err = queryInt(r, "limit"); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	page, err := h.statService.List(r.Context(), principal, query)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, page)
}

func (h *StatisticHandler) PatchStatistic(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var patch models.StatisticPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stat, err := h.statService.Patch(r.Context(), principal, id, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, stat)
}

func (h *StatisticHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	principal, ok := currentPrincipal(w, r)
	if !ok {
		return
	}

	opts, err := h.statService.FilterOptions(r.Context(), principal)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, opts)
}
