package models

import (
	"errors"
	"time"
)

type Statistic struct {
	ID                int          `json:"_id"`
	PlayerID          int          `json:"zawodnikId"`
	Season            *string      `json:"sezon,omitempty"`
	YellowCards       int          `json:"zolteKartki"`
	RedCards          int          `json:"czerwoneKartki"`
	MinutesPlayed     int          `json:"rozegraneMinuty"`
	GoalsScored       int          `json:"strzeloneBramki"`
	TrainingsAttended int          `json:"odbytychTreningow"`
	CleanSheets       int          `json:"czysteKonta"`
	Player            *UserSummary `json:"zawodnik,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

var ErrNegativeCounter = errors.New("liczniki statystyk nie mogą być ujemne")

// StatisticPatch - частичное обновление статистики: nil означает "поле не передано".
type StatisticPatch struct {
	Season            *string `json:"sezon"`
	YellowCards       *int    `json:"zolteKartki"`
	RedCards          *int    `json:"czerwoneKartki"`
	MinutesPlayed     *int    `json:"rozegraneMinuty"`
	GoalsScored       *int    `json:"strzeloneBramki"`
	TrainingsAttended *int    `json:"odbytychTreningow"`
	CleanSheets       *int    `json:"czysteKonta"`
}

func (p StatisticPatch) Validate() error {
	for _, v := range p.counters() {
		if v != nil && *v < 0 {
			return ErrNegativeCounter
		}
	}
	return nil
}

// Apply переносит переданные счетчики на s, остальные поля не трогает.
// Сезон не меняется: он часть ключа (игрок, сезон).
func (p StatisticPatch) Apply(s *Statistic) {
	if p.YellowCards != nil {
		s.YellowCards = *p.YellowCards
	}
	if p.RedCards != nil {
		s.RedCards = *p.RedCards
	}
	if p.MinutesPlayed != nil {
		s.MinutesPlayed = *p.MinutesPlayed
	}
	if p.GoalsScored != nil {
		s.GoalsScored = *p.GoalsScored
	}
	if p.TrainingsAttended != nil {
		s.TrainingsAttended = *p.TrainingsAttended
	}
	if p.CleanSheets != nil {
		s.CleanSheets = *p.CleanSheets
	}
}

func (p StatisticPatch) counters() []*int {
	return []*int{p.YellowCards, p.RedCards, p.MinutesPlayed, p.GoalsScored, p.TrainingsAttended, p.CleanSheets}
}

// NormalizedSeason возвращает сезон или nil, если он пустой.
func NormalizedSeason(season *string) *string {
	if season == nil || *season == "" {
		return nil
	}
	return season
}

type StatisticFilter struct {
	Season   *string
	Category *Category
	Position *Position
	PlayerID *int
	Limit    int
	Offset   int
}

// FilterOptions - значения, доступные для фильтров в интерфейсе статистики.
type FilterOptions struct {
	Categories []Category `json:"kategorie"`
	Positions  []Position `json:"pozycje"`
	Seasons    []string   `json:"sezony"`
}
