package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestStatisticPatchApplyOverwritesOnlySuppliedCounters(t *testing.T) {
	season := "2024/25"
	s := &Statistic{Season: &season, YellowCards: 2, RedCards: 1, GoalsScored: 5, MinutesPlayed: 900}

	StatisticPatch{GoalsScored: intPtr(7), CleanSheets: intPtr(0)}.Apply(s)

	assert.Equal(t, 7, s.GoalsScored)
	assert.Equal(t, 2, s.YellowCards)
	assert.Equal(t, 1, s.RedCards)
	assert.Equal(t, 900, s.MinutesPlayed)
	assert.Equal(t, 0, s.CleanSheets)
	assert.Equal(t, "2024/25", *s.Season)
}

func TestStatisticPatchValidate(t *testing.T) {
	assert.NoError(t, StatisticPatch{}.Validate())
	assert.NoError(t, StatisticPatch{YellowCards: intPtr(0)}.Validate())
	assert.ErrorIs(t, StatisticPatch{RedCards: intPtr(-1)}.Validate(), ErrNegativeCounter)
}

func TestNormalizedSeason(t *testing.T) {
	empty := ""
	s := "2023/24"
	assert.Nil(t, NormalizedSeason(nil))
	assert.Nil(t, NormalizedSeason(&empty))
	assert.Equal(t, &s, NormalizedSeason(&s))
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, RoleCoach.Valid())
	assert.False(t, UserRole("ADMIN").Valid())
	assert.True(t, CategoryU15.Valid())
	assert.False(t, Category("U21").Valid())
	assert.True(t, PositionForward.Valid())
	assert.False(t, Position("LIBERO").Valid())
	assert.True(t, EventTraining.Valid())
	assert.False(t, EventType("TURNIEJ").Valid())
	assert.Equal(t, AttendanceYes, AttendanceFromBool(true))
	assert.Equal(t, AttendanceNo, AttendanceFromBool(false))
}

func TestUserFullName(t *testing.T) {
	assert.Equal(t, "Jan Kowalski", (&User{FirstName: "Jan", LastName: "Kowalski"}).FullName())
	assert.Equal(t, "a@b.com", (&User{Email: "a@b.com"}).FullName())
}
