package models

import "time"

type EventType string

const (
	EventLeagueMatch EventType = "MECZ_LIGOWY"
	EventCupMatch    EventType = "MECZ_PUCHAROWY"
	EventFriendly    EventType = "SPARING"
	EventTraining    EventType = "TRENING"
	EventGathering   EventType = "ZBIORKA"
)

func (t EventType) Valid() bool {
	switch t {
	case EventLeagueMatch, EventCupMatch, EventFriendly, EventTraining, EventGathering:
		return true
	}
	return false
}

// AttendanceStatus - ответ игрока на приглашение на тренировку.
type AttendanceStatus string

const (
	AttendanceYes       AttendanceStatus = "TAK"
	AttendanceNo        AttendanceStatus = "NIE"
	AttendanceUndecided AttendanceStatus = "NIEOKRESLONY"
)

func AttendanceFromBool(attending bool) AttendanceStatus {
	if attending {
		return AttendanceYes
	}
	return AttendanceNo
}

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceYes, AttendanceNo, AttendanceUndecided:
		return true
	}
	return false
}

type Event struct {
	ID           int           `json:"_id"`
	Title        string        `json:"tytul"`
	Description  *string       `json:"opis,omitempty"`
	Type         EventType     `json:"typ"`
	StartsAt     time.Time     `json:"data"`
	EndsAt       *time.Time    `json:"dataKonca,omitempty"`
	Location     *string       `json:"lokalizacja,omitempty"`
	Category     Category      `json:"kategoria"`
	CreatedBy    *int          `json:"utworzyl"`
	ReminderSent bool          `json:"reminderSent"`
	Participants []Participant `json:"uczestnicy,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// IsClubWide - событие без категории видно всем.
func (e *Event) IsClubWide() bool {
	return e.Category == CategoryNone || e.Category == ""
}

// Participant - запись (event_id, player_id) -> status.
type Participant struct {
	EventID   int              `json:"-"`
	PlayerID  int              `json:"-"`
	Player    *UserSummary     `json:"zawodnik"`
	Status    AttendanceStatus `json:"status"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// EventFilter - параметры выборки списка событий.
type EventFilter struct {
	Categories []Category
	Type       *EventType
	From       *time.Time
	To         *time.Time
}
