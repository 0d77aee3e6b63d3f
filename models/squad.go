package models

import "time"

const (
	SquadTitleMinLen     = 3
	SquadTitleMaxLen     = 100
	SquadMaxStartingSize = 11
	SquadMaxBenchSize    = 7
)

type Squad struct {
	ID             int       `json:"_id"`
	Title          string    `json:"title"`
	StartingEleven []int     `json:"-"`
	Bench          []int     `json:"-"`
	Category       Category  `json:"kategoria"`
	CreatedBy      *int      `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	StartingPlayers []*UserSummary `json:"startingEleven"`
	BenchPlayers    []*UserSummary `json:"bench"`
	Creator         *UserSummary   `json:"createdBy,omitempty"`
}

// PlayerIDs возвращает всех игроков состава: сначала основной состав, потом запасные.
func (s *Squad) PlayerIDs() []int {
	ids := make([]int, 0, len(s.StartingEleven)+len(s.Bench))
	ids = append(ids, s.StartingEleven...)
	return append(ids, s.Bench...)
}
