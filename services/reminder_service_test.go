package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reminderNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func reminderEvent(id int, cat models.Category, in time.Duration) *models.Event {
	e := testEvent(id, models.EventTraining, cat, coachU15User.ID)
	e.StartsAt = reminderNow.Add(in)
	return e
}

func newTestReminderService(t *testing.T, events *fakeEventRepo, users *fakeUserRepo, mailer Mailer) ReminderService {
	t.Helper()
	svc := NewReminderService(events, users, mailer, newTestComposer(t))
	svc.(*reminderService).now = func() time.Time { return reminderNow }
	return svc
}

func TestReminderRecipients(t *testing.T) {
	users := seededUsers()
	// Тот же адрес, что у президента, в другом регистре.
	users.users[7] = testUser(7, models.RolePlayer, models.CategoryU15, "Prezes@Klub.pl")

	due := reminderEvent(50, models.CategoryU15, 24*time.Hour)
	clubWide := reminderEvent(51, models.CategoryNone, 10*time.Hour)
	later := reminderEvent(52, models.CategoryU15, 72*time.Hour)
	done := reminderEvent(53, models.CategoryU15, 5*time.Hour)
	done.ReminderSent = true

	events := newFakeEventRepo(users, due, clubWide, later, done)
	ctx := context.Background()
	_, err := events.UpsertParticipant(ctx, 50, playerU15User.ID, models.AttendanceYes)
	require.NoError(t, err)
	_, err = events.UpsertParticipant(ctx, 50, player2U15.ID, models.AttendanceNo)
	require.NoError(t, err)
	_, err = events.UpsertParticipant(ctx, 50, 7, models.AttendanceYes)
	require.NoError(t, err)

	mailer := &fakeMailer{}
	stats, err := newTestReminderService(t, events, users, mailer).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReminderStats{Events: 2, Sent: 2}, stats)
	assert.ElementsMatch(t, []int{50, 51}, events.marked)

	require.Len(t, mailer.sent, 2)
	byEvent := map[string][]string{}
	for _, m := range mailer.sent {
		byEvent[m.Subject] = m.To
	}

	var dueTo, clubTo []string
	for subject, to := range byEvent {
		switch {
		case strings.Contains(subject, reminderNow.Add(24*time.Hour).In(time.Local).Format("02.01.2006 15:04")):
			dueTo = to
		default:
			clubTo = to
		}
	}
	require.Len(t, dueTo, 3)
	lower := make([]string, len(dueTo))
	for i, e := range dueTo {
		lower[i] = strings.ToLower(e)
	}
	assert.ElementsMatch(t, []string{playerU15User.Email, coachU15User.Email, presidentUser.Email}, lower)
	assert.ElementsMatch(t, []string{coachU15User.Email, coachU17User.Email, presidentUser.Email}, clubTo)

	// Повторный запуск ничего не отправляет.
	stats, err = newTestReminderService(t, events, users, mailer).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Events)
	assert.Len(t, mailer.sent, 2)
}

func TestReminderFailureLeavesFlag(t *testing.T) {
	users := seededUsers()
	events := newFakeEventRepo(users, reminderEvent(60, models.CategoryU15, time.Hour))

	stats, err := newTestReminderService(t, events, users, &fakeMailer{err: errMailDown}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderStats{Events: 1, Failed: 1}, stats)
	assert.Empty(t, events.marked)

	e, err := events.GetByID(context.Background(), 60)
	require.NoError(t, err)
	assert.False(t, e.ReminderSent)
}

func TestReminderWithoutRecipientsMarksEvent(t *testing.T) {
	users := newFakeUserRepo(playerU15User)
	events := newFakeEventRepo(users, reminderEvent(70, models.CategoryU15, time.Hour))
	mailer := &fakeMailer{}

	stats, err := newTestReminderService(t, events, users, mailer).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReminderStats{Events: 1, Skipped: 1}, stats)
	assert.Equal(t, []int{70}, events.marked)
	assert.Empty(t, mailer.sent)
}

func TestReminderIgnoresRosterOfNonTrainingEvent(t *testing.T) {
	users := seededUsers()
	match := reminderEvent(60, models.CategoryU15, 12*time.Hour)
	match.Type = models.EventLeagueMatch
	events := newFakeEventRepo(users, match)
	ctx := context.Background()
	// Запись, оставшаяся от старых данных.
	_, err := events.UpsertParticipant(ctx, 60, playerU15User.ID, models.AttendanceYes)
	require.NoError(t, err)

	mailer := &fakeMailer{}
	_, err = newTestReminderService(t, events, users, mailer).Run(ctx)
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.ElementsMatch(t, []string{coachU15User.Email, presidentUser.Email}, mailer.sent[0].To)
}
