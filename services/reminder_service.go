package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/club-system/models"
	"github.com/Dosada05/club-system/repositories"
)

const reminderWindow = 48 * time.Hour

// ReminderService рассылает напоминания о событиях, которые начнутся в ближайшие 48 часов.
type ReminderService interface {
	Run(ctx context.Context) (ReminderStats, error)
}

type ReminderStats struct {
	Events  int
	Sent    int
	Skipped int
	Failed  int
}

type reminderService struct {
	eventRepo repositories.EventRepository
	userRepo  repositories.UserRepository
	mailer    Mailer
	composer  *MailComposer
	now       func() time.Time
}

func NewReminderService(
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	composer *MailComposer,
) ReminderService {
	return &reminderService{
		eventRepo: eventRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		composer:  composer,
		now:       time.Now,
	}
}

// Run обрабатывает все подходящие события. Ошибка отправки по одному событию не прерывает цикл,
// флаг такого события остается false и оно попадет в следующий запуск.
func (s *reminderService) Run(ctx context.Context) (ReminderStats, error) {
	var stats ReminderStats
	now := s.now()
	events, err := s.eventRepo.ListDueForReminder(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return stats, fmt.Errorf("failed to list events for reminder: %w", err)
	}
	stats.Events = len(events)

	for i := range events {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		event := &events[i]
		log := slog.With(slog.Int("event_id", event.ID), slog.String("title", event.Title))

		recipients, err := s.recipients(ctx, event)
		if err != nil {
			stats.Failed++
			log.ErrorContext(ctx, "reminder: failed to collect recipients", slog.Any("error", err))
			continue
		}

		if len(recipients) > 0 {
			subject, body, err := s.composer.eventReminder(
				event.Title,
				string(event.Type),
				event.StartsAt.In(time.Local).Format("02.01.2006 15:04"),
				derefString(event.Location),
				derefString(event.Description),
			)
			if err == nil {
				err = s.mailer.SendEmail(recipients, subject, body)
			}
			if err != nil {
				stats.Failed++
				log.ErrorContext(ctx, "reminder: email not sent", slog.Any("error", err))
				continue
			}
			stats.Sent++
		} else {
			stats.Skipped++
		}

		if err := s.eventRepo.MarkReminderSent(ctx, event.ID); err != nil {
			log.ErrorContext(ctx, "reminder: failed to mark event", slog.Any("error", err))
		}
	}
	return stats, nil
}

// recipients: игроки с ответом TAK, тренеры категории события (все тренеры для общеклубных)
// и все президенты; адреса без повторов.
func (s *reminderService) recipients(ctx context.Context, event *models.Event) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(email string) {
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, email)
	}

	if event.Type == models.EventTraining {
		participants, err := s.eventRepo.ListParticipants(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range participants {
			if p.Status == models.AttendanceYes && p.Player != nil {
				add(p.Player.Email)
			}
		}
	}

	coachScope := models.RoleScope{Role: models.RoleCoach}
	if !event.IsClubWide() {
		cat := event.Category
		coachScope.Category = &cat
	}
	staff, _, err := s.userRepo.List(ctx, models.UserFilter{
		Scope: []models.RoleScope{coachScope, {Role: models.RolePresident}},
	})
	if err != nil {
		return nil, err
	}
	for _, u := range staff {
		add(u.Email)
	}
	return out, nil
}
