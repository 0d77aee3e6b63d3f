package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/club-system/access"
	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
	"github.com/gosimple/slug"
)

const allSeasonsLabel = "wszystkie sezony"

var reportCSVHeader = []string{
	"ID",
	"Email",
	"Imię",
	"Nazwisko",
	"Telefon",
	"Narodowość",
	"Pozycja",
	"Kategoria",
	"Kontrakt od",
	"Kontrakt do",
	"Żółte kartki",
	"Czerwone kartki",
	"Rozegrane minuty",
	"Strzelone bramki",
	"Odbyte treningi",
	"Czyste konta",
}

type ReportService interface {
	Players(ctx context.Context, principal models.Principal, query ReportQuery) (*PlayerReport, error)
	WriteCSV(w io.Writer, report *PlayerReport) error
}

// ReportQuery: Category и Position взаимоисключающие, пустые - отчет по всем игрокам.
type ReportQuery struct {
	Format   string
	Season   *string
	Category *models.Category
	Position *models.Position
}

type PlayerReport struct {
	Format      models.ReportFormat      `json:"format"`
	GeneratedAt time.Time                `json:"generatedAt"`
	Category    *models.Category         `json:"category,omitempty"`
	Position    *models.Position         `json:"position,omitempty"`
	Season      string                   `json:"sezon"`
	Total       int                      `json:"total"`
	Data        []models.PlayerReportRow `json:"data"`
}

// Filename - имя файла для Content-Disposition.
func (r *PlayerReport) Filename() string {
	label := "zawodnikow"
	switch {
	case r.Category != nil:
		label = string(*r.Category)
	case r.Position != nil:
		label = string(*r.Position)
	}
	return fmt.Sprintf("raport_%s_%s.csv", slug.Make(label), r.GeneratedAt.Format("2006-01-02"))
}

type reportService struct {
	userRepo repositories.UserRepository
	statRepo repositories.StatisticRepository
	now      func() time.Time
}

func NewReportService(userRepo repositories.UserRepository, statRepo repositories.StatisticRepository) ReportService {
	return &reportService{
		userRepo: userRepo,
		statRepo: statRepo,
		now:      time.Now,
	}
}

func parseReportFormat(format string) (models.ReportFormat, error) {
	switch models.ReportFormat(strings.ToLower(strings.TrimSpace(format))) {
	case "", models.ReportJSON:
		return models.ReportJSON, nil
	case models.ReportCSV:
		return models.ReportCSV, nil
	}
	return "", ErrInvalidReportFormat
}

func (s *reportService) Players(ctx context.Context, principal models.Principal, query ReportQuery) (*PlayerReport, error) {
	if !access.CanGenerateReports(principal) {
		return nil, ErrForbiddenOperation
	}
	format, err := parseReportFormat(query.Format)
	if err != nil {
		return nil, err
	}
	if query.Category != nil && !query.Category.Valid() {
		return nil, validationError("nieprawidłowa kategoria")
	}
	if query.Position != nil && !query.Position.Valid() {
		return nil, validationError("nieprawidłowa pozycja")
	}
	season := trimSeason(query.Season)

	role := models.RolePlayer
	players, _, err := s.userRepo.List(ctx, models.UserFilter{
		Role:     &role,
		Category: query.Category,
		Position: query.Position,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	ids := make([]int, len(players))
	for i := range players {
		ids[i] = players[i].ID
	}
	stats, err := s.statRepo.ListForPlayers(ctx, ids, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	rows := make([]models.PlayerReportRow, 0, len(players))
	for _, p := range players {
		rows = append(rows, models.PlayerReportRow{
			UserID:        p.ID,
			Email:         p.Email,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			Phone:         p.Phone,
			Nationality:   p.Nationality,
			Position:      p.Position,
			Category:      p.Category,
			ContractStart: p.ContractStart,
			ContractEnd:   p.ContractEnd,
			Stats:         models.NewReportStats(stats[p.ID]),
		})
	}

	seasonLabel := allSeasonsLabel
	if season != nil {
		seasonLabel = *season
	}
	return &PlayerReport{
		Format:      format,
		GeneratedAt: s.now().UTC(),
		Category:    query.Category,
		Position:    query.Position,
		Season:      seasonLabel,
		Total:       len(rows),
		Data:        rows,
	}, nil
}

// WriteCSV пишет заголовок и по строке на игрока. Без игроков остается только заголовок.
func (s *reportService) WriteCSV(w io.Writer, report *PlayerReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportCSVHeader); err != nil {
		return err
	}
	for _, row := range report.Data {
		if err := cw.Write(reportCSVRecord(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func reportCSVRecord(row models.PlayerReportRow) []string {
	date := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("02.01.2006")
	}
	position := ""
	if row.Position != nil {
		position = string(*row.Position)
	}
	stats := row.Stats
	if stats == nil {
		stats = &models.ReportStats{}
	}
	return []string{
		strconv.Itoa(row.UserID),
		row.Email,
		row.FirstName,
		row.LastName,
		derefString(row.Phone),
		derefString(row.Nationality),
		position,
		string(row.Category),
		date(row.ContractStart),
		date(row.ContractEnd),
		strconv.Itoa(stats.YellowCards),
		strconv.Itoa(stats.RedCards),
		strconv.Itoa(stats.MinutesPlayed),
		strconv.Itoa(stats.GoalsScored),
		strconv.Itoa(stats.TrainingsAttended),
		strconv.Itoa(stats.CleanSheets),
	}
}
