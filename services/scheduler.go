package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ReminderScheduler периодически запускает ReminderService.
type ReminderScheduler struct {
	sched    gocron.Scheduler
	reminder ReminderService
	interval time.Duration
}

func NewReminderScheduler(reminder ReminderService, interval time.Duration) (*ReminderScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &ReminderScheduler{sched: sched, reminder: reminder, interval: interval}, nil
}

// Start регистрирует задачу и запускает планировщик. ctx передается в каждый запуск.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() {
			started := time.Now()
			stats, err := s.reminder.Run(ctx)
			if err != nil {
				slog.Error("[Scheduler] reminder run failed", slog.Any("error", err))
				return
			}
			slog.Info("[Scheduler] reminder run finished",
				slog.Int("events", stats.Events),
				slog.Int("sent", stats.Sent),
				slog.Int("skipped", stats.Skipped),
				slog.Int("failed", stats.Failed),
				slog.Duration("took", time.Since(started)),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register reminder job: %w", err)
	}
	s.sched.Start()
	slog.Info("[Scheduler] reminder job started", slog.Duration("interval", s.interval))
	return nil
}

func (s *ReminderScheduler) Shutdown() error {
	return s.sched.Shutdown()
}
