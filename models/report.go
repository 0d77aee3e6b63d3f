package models

import "time"

type ReportFormat string

const (
	ReportJSON ReportFormat = "json"
	ReportCSV  ReportFormat = "csv"
)

// PlayerReportRow - строка отчета по игроку вместе со статистикой за выбранный сезон.
type PlayerReportRow struct {
	UserID        int          `json:"userId"`
	Email         string       `json:"email"`
	FirstName     string       `json:"imie"`
	LastName      string       `json:"nazwisko"`
	Phone         *string      `json:"telefon,omitempty"`
	Nationality   *string      `json:"narodowosc,omitempty"`
	Position      *Position    `json:"pozycja"`
	Category      Category     `json:"kategoria"`
	ContractStart *time.Time   `json:"contractStart,omitempty"`
	ContractEnd   *time.Time   `json:"contractEnd,omitempty"`
	Stats         *ReportStats `json:"statystyki"`
}

type ReportStats struct {
	Season            *string `json:"sezon,omitempty"`
	YellowCards       int     `json:"zolteKartki"`
	RedCards          int     `json:"czerwoneKartki"`
	MinutesPlayed     int     `json:"rozegraneMinuty"`
	GoalsScored       int     `json:"strzeloneBramki"`
	TrainingsAttended int     `json:"odbytychTreningow"`
	CleanSheets       int     `json:"czysteKonta"`
}

func NewReportStats(s *Statistic) *ReportStats {
	if s == nil {
		return nil
	}
	return &ReportStats{
		Season:            s.Season,
		YellowCards:       s.YellowCards,
		RedCards:          s.RedCards,
		MinutesPlayed:     s.MinutesPlayed,
		GoalsScored:       s.GoalsScored,
		TrainingsAttended: s.TrainingsAttended,
		CleanSheets:       s.CleanSheets,
	}
}
