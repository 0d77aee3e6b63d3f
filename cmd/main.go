// @title Club System API
// @version 1.0
// @description API klubu piłkarskiego: użytkownicy, wydarzenia, kadry meczowe, statystyki, raporty.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/club-system/config"
	"github.com/Dosada05/club-system/db"
	"github.com/spf13/cobra"
)

const dbConnectTimeout = 5 * time.Second

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "club-system",
	Short:         "Backend klubu piłkarskiego",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := slog.LevelInfo
		if cfg.IsDevelopment() {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("env", cfg.AppEnv))
		return nil
	},
	// Без подкоманды запускается сервер.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Uruchamia serwer HTTP, hub WebSocket i harmonogram przypomnień",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Stosuje migracje bazy danych",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(conn)

		applied, err := db.Migrate(cmd.Context(), conn)
		if err != nil {
			return err
		}
		logger.Info("migrations finished", slog.Int("applied", applied))
		return nil
	},
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Jednorazowo wysyła przypomnienia o wydarzeniach w ciągu 48 godzin",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB(conn)

		deps, err := newDependencies(cmd.Context(), conn)
		if err != nil {
			return err
		}
		stats, err := deps.reminder.Run(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("reminder run finished",
			slog.Int("events", stats.Events),
			slog.Int("sent", stats.Sent),
			slog.Int("skipped", stats.Skipped),
			slog.Int("failed", stats.Failed),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, remindCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error("command failed", slog.Any("error", err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func openDB(ctx context.Context) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	conn, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultPool)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established")
	return conn, nil
}

func closeDB(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}

