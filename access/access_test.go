package access

import (
	"testing"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	president = models.Principal{ID: 1, Role: models.RolePresident, Category: models.CategoryNone}
	coachU15  = models.Principal{ID: 2, Role: models.RoleCoach, Category: models.CategoryU15}
	coachU17  = models.Principal{ID: 3, Role: models.RoleCoach, Category: models.CategoryU17}
	playerU15 = models.Principal{ID: 4, Role: models.RolePlayer, Category: models.CategoryU15}
	stranger  = models.Principal{ID: 5, Role: models.UserRole("KIBIC"), Category: models.CategoryU15}
)

func user(id int, role models.UserRole, cat models.Category) *models.User {
	return &models.User{ID: id, Role: role, Category: cat}
}

func TestUserListScope(t *testing.T) {
	scope, ok := UserListScope(president)
	require.True(t, ok)
	assert.Nil(t, scope)

	scope, ok = UserListScope(coachU15)
	require.True(t, ok)
	require.Len(t, scope, 3)
	assert.Equal(t, models.RolePlayer, scope[0].Role)
	require.NotNil(t, scope[0].Category)
	assert.Equal(t, models.CategoryU15, *scope[0].Category)
	assert.Nil(t, scope[1].Category)
	assert.Nil(t, scope[2].Category)

	scope, ok = UserListScope(playerU15)
	require.True(t, ok)
	require.Len(t, scope, 2)
	assert.Equal(t, models.RoleCoach, scope[0].Role)
	assert.Equal(t, models.RolePresident, scope[1].Role)

	_, ok = UserListScope(stranger)
	assert.False(t, ok)
}

func TestCanViewUser(t *testing.T) {
	p15 := user(10, models.RolePlayer, models.CategoryU15)
	c17 := user(3, models.RoleCoach, models.CategoryU17)

	tests := []struct {
		name   string
		who    models.Principal
		target *models.User
		want   bool
	}{
		{"president sees everyone", president, p15, true},
		{"coach sees own category player", coachU15, p15, true},
		{"coach does not see other category player", coachU17, p15, false},
		{"coach sees other coaches", coachU15, c17, true},
		{"player sees self", playerU15, user(4, models.RolePlayer, models.CategoryU15), true},
		{"player does not see teammate", playerU15, p15, false},
		{"unknown role denied", stranger, p15, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewUser(tt.who, tt.target))
		})
	}
}

func TestRedactHidesContractFromCoach(t *testing.T) {
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	newTarget := func() *models.User {
		u := user(10, models.RolePlayer, models.CategoryU15)
		u.ContractStart, u.ContractEnd = &start, &start
		return u
	}

	u := newTarget()
	Redact(coachU15, u)
	assert.Nil(t, u.ContractStart)
	assert.Nil(t, u.ContractEnd)

	u = newTarget()
	Redact(president, u)
	assert.NotNil(t, u.ContractStart)

	u = newTarget()
	Redact(models.Principal{ID: 10, Role: models.RolePlayer, Category: models.CategoryU15}, u)
	assert.NotNil(t, u.ContractEnd)
}

func TestEventVisibility(t *testing.T) {
	creator := 2
	u15 := &models.Event{Category: models.CategoryU15, CreatedBy: &creator}
	u17 := &models.Event{Category: models.CategoryU17}
	club := &models.Event{Category: models.CategoryNone}

	assert.True(t, CanViewEvent(playerU15, u15))
	assert.True(t, CanViewEvent(playerU15, club))
	assert.False(t, CanViewEvent(playerU15, u17))
	assert.True(t, CanViewEvent(president, u17))
	assert.False(t, CanViewEvent(stranger, club))

	assert.True(t, CanModifyEvent(coachU15, u15))
	assert.False(t, CanModifyEvent(coachU17, u15))
	assert.False(t, CanModifyEvent(playerU15, u15))
	assert.True(t, CanModifyEvent(president, u15))

	assert.True(t, CanRespond(playerU15, u15))
	assert.False(t, CanRespond(coachU15, u15))
	assert.False(t, CanRespond(playerU15, u17))

	assert.True(t, CanViewParticipants(coachU15, u15))
	assert.False(t, CanViewParticipants(playerU15, u15))

	cats, ok := EventCategories(coachU15)
	require.True(t, ok)
	assert.ElementsMatch(t, []models.Category{models.CategoryU15, models.CategoryNone}, cats)
	cats, ok = EventCategories(president)
	require.True(t, ok)
	assert.Nil(t, cats)
}

func TestSquadRules(t *testing.T) {
	creator := 2
	s := &models.Squad{Category: models.CategoryU15, CreatedBy: &creator}

	assert.True(t, CanViewSquad(playerU15, s))
	assert.False(t, CanViewSquad(coachU17, s))
	assert.True(t, CanModifySquad(coachU15, s))
	assert.False(t, CanModifySquad(coachU17, s))
	assert.True(t, CanModifySquad(president, s))

	assert.True(t, CanSelectPlayer(coachU15, user(10, models.RolePlayer, models.CategoryU15)))
	assert.False(t, CanSelectPlayer(coachU15, user(11, models.RolePlayer, models.CategoryU17)))
	assert.False(t, CanSelectPlayer(president, user(3, models.RoleCoach, models.CategoryU17)))
	assert.True(t, CanSelectPlayer(president, user(11, models.RolePlayer, models.CategoryU17)))
}

func TestStatisticsRules(t *testing.T) {
	p15 := user(10, models.RolePlayer, models.CategoryU15)

	assert.True(t, CanWriteStatistics(coachU15, p15))
	assert.False(t, CanWriteStatistics(coachU17, p15))
	assert.False(t, CanWriteStatistics(playerU15, p15))

	assert.True(t, CanViewStatistics(models.Principal{ID: 10, Role: models.RolePlayer}, p15))
	assert.False(t, CanViewStatistics(playerU15, p15))

	_, ok := StatisticsCategory(playerU15)
	assert.False(t, ok)
	cat, ok := StatisticsCategory(coachU17)
	require.True(t, ok)
	assert.Equal(t, models.CategoryU17, *cat)
}

func TestMessagingRules(t *testing.T) {
	p15 := user(10, models.RolePlayer, models.CategoryU15)
	c15 := user(2, models.RoleCoach, models.CategoryU15)
	c17 := user(3, models.RoleCoach, models.CategoryU17)
	pres := user(1, models.RolePresident, models.CategoryNone)

	assert.True(t, CanMessage(playerU15, c15))
	assert.True(t, CanMessage(playerU15, pres))
	assert.False(t, CanMessage(playerU15, c17))
	assert.False(t, CanMessage(playerU15, p15), "players never message players")

	assert.True(t, CanMessage(coachU15, p15))
	assert.False(t, CanMessage(coachU17, p15))
	assert.True(t, CanMessage(coachU17, c15))
	assert.True(t, CanMessage(coachU17, pres))
	assert.False(t, CanMessage(stranger, pres))

	assert.True(t, CanMessageCategory(coachU15, models.CategoryU15))
	assert.False(t, CanMessageCategory(coachU15, models.CategoryU17))
	assert.True(t, CanMessageCategory(president, models.CategoryU17))
	assert.False(t, CanMessageCategory(playerU15, models.CategoryU15))
}

func TestAdministration(t *testing.T) {
	assert.True(t, CanManageUsers(president))
	assert.False(t, CanManageUsers(coachU15))
	assert.True(t, CanChangeAvatar(playerU15, 4))
	assert.False(t, CanChangeAvatar(playerU15, 10))
	assert.True(t, CanChangeAvatar(president, 10))
	assert.True(t, CanGenerateReports(president))
	assert.False(t, CanGenerateReports(coachU15))
}
