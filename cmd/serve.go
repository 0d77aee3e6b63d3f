package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/club-system/handlers"
	"github.com/Dosada05/club-system/live"
	"github.com/Dosada05/club-system/middleware"
	"github.com/Dosada05/club-system/repositories"
	api "github.com/Dosada05/club-system/routes"
	"github.com/Dosada05/club-system/services"
	"github.com/Dosada05/club-system/storage"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 15 * time.Second

// dependencies - репозитории и сервисы, общие для serve и remind.
type dependencies struct {
	userRepo  repositories.UserRepository
	eventRepo repositories.EventRepository
	squadRepo repositories.SquadRepository
	statRepo  repositories.StatisticRepository

	mailer   services.Mailer
	composer *services.MailComposer
	uploader storage.FileUploader

	reminder services.ReminderService
}

func newDependencies(ctx context.Context, conn *sql.DB) (*dependencies, error) {
	composer, err := services.NewMailComposer(cfg.FrontendURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	// Без настроек R2 загрузка аватаров отвечает 503, остальное работает.
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewR2Uploader(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize R2 uploader: %w", err)
		}
		logger.Info("R2 uploader initialized", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Warn("R2 storage is not configured, avatar uploads are disabled")
	}

	d := &dependencies{
		userRepo:  repositories.NewPostgresUserRepository(conn),
		eventRepo: repositories.NewPostgresEventRepository(conn),
		squadRepo: repositories.NewPostgresSquadRepository(conn),
		statRepo:  repositories.NewPostgresStatisticRepository(conn),
		mailer:    services.NewEmailService(cfg),
		composer:  composer,
		uploader:  uploader,
	}
	d.reminder = services.NewReminderService(d.eventRepo, d.userRepo, d.mailer, d.composer)
	return d, nil
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer closeDB(conn)

	deps, err := newDependencies(ctx, conn)
	if err != nil {
		return err
	}

	hub := live.NewHub()
	go hub.Run(ctx)
	logger.Info("WebSocket hub started")

	authService := services.NewAuthService(deps.userRepo, deps.mailer, deps.composer, deps.uploader)
	userService := services.NewUserService(deps.userRepo, deps.mailer, deps.composer, deps.uploader)
	eventService := services.NewEventService(deps.eventRepo, hub)
	squadService := services.NewSquadService(deps.squadRepo, deps.userRepo)
	statService := services.NewStatisticService(deps.statRepo, deps.userRepo)
	mailService := services.NewMailService(deps.userRepo, deps.mailer)
	reportService := services.NewReportService(deps.userRepo, deps.statRepo)
	logger.Info("services initialized")

	scheduler, err := services.NewReminderScheduler(deps.reminder, cfg.ReminderInterval)
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	handlers.SetExposeErrorDetails(cfg.IsDevelopment())
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		middleware.NewAuthenticator(cfg.JWTSecretKey, deps.userRepo),
		cfg.CORSAllowedOrigins,
		api.Handlers{
			Auth:      handlers.NewAuthHandler(authService, cfg.JWTSecretKey, cfg.JWTExpires),
			User:      handlers.NewUserHandler(userService),
			Event:     handlers.NewEventHandler(eventService),
			Squad:     handlers.NewSquadHandler(squadService),
			Statistic: handlers.NewStatisticHandler(statService),
			Mail:      handlers.NewMailHandler(mailService),
			Report:    handlers.NewReportHandler(reportService),
			WebSocket: handlers.NewWebSocketHandler(hub, eventService, cfg.CORSAllowedOrigins),
		},
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	return nil
}
