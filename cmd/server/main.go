package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"viora-backend/internal/agent"
	"viora-backend/internal/config"
	"viora-backend/internal/nurse"
	"viora-backend/internal/platform/logger"
	"viora-backend/internal/platform/telegram"
	"viora-backend/internal/report"
)

const serviceName = "viora-backend"

func main() {
	rootCmd := &cobra.Command{
		Use:   "viora",
		Short: "Viora patient companion API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(func(m *migrate.Migrate) error { return m.Up() })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(func(m *migrate.Migrate) error { return m.Steps(-1) })
		},
	})
	return cmd
}

func runMigrations(step func(m *migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(serviceName, cfg.Env)

	if !cfg.HasDatabase() {
		return errors.New("DATABASE_URL is required for migrations")
	}

	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration init failed: %w", err)
	}
	defer m.Close()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Msg("migrations applied")
	return nil
}

func runServe() error {
	// 1. Configuration (fatal on error)
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(serviceName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	// 2. Infrastructure
	db := connectDB(cfg)
	if db != nil {
		defer db.Close()
	}

	var repo nurse.Repository
	var health HealthChecker
	if db != nil {
		repo = nurse.NewRepository(db)
		health = db
	} else {
		log.Warn().Msg("no database, interaction log is kept in memory")
		repo = nurse.NewMemoryRepository()
	}

	// 3. Pipeline stages, resolved once
	limiter := agent.NewLimiter(cfg.LLMRateLimitRPM, cfg.LLMRateLimitBurst)

	reasoning, err := agent.NewReasoningProvider(cfg, limiter)
	if err != nil {
		return fmt.Errorf("reasoning provider: %w", err)
	}
	tone, err := agent.NewToneAdapter(cfg, limiter)
	if err != nil {
		return fmt.Errorf("tone adapter: %w", err)
	}
	safety, err := nurse.NewSafetyEnforcer(cfg.SafetyMode)
	if err != nil {
		return err
	}
	if cfg.ToneAdapter == config.ToneLLM && cfg.ToneAPIKey == "" {
		log.Warn().Msg("TONE_AI_API_KEY is not set, tone rewrites will use the fallback message")
	}

	var notifier nurse.EscalationNotifier
	if cfg.HasDoctorChannel() {
		notifier = report.NewService(telegram.NewClient(cfg.TelegramBotToken), cfg.DoctorChatID)
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID not set, escalation reports are disabled")
	}

	// 4. Services
	pipeline := nurse.NewPipeline(reasoning, tone, safety)
	svc := nurse.NewService(pipeline, repo, notifier)
	handler := nurse.NewHandler(svc)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(handler, health),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Central (10s) plus two LLM calls (20s each) must fit
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("reasoning_provider", cfg.ReasoningProvider).
		Str("tone_adapter", cfg.ToneAdapter).
		Str("safety_mode", cfg.SafetyMode).
		Msg("server listening")

	waitForShutdown(server)
	svc.Wait()
	return nil
}

// connectDB opens Postgres and applies migrations. It returns nil when the
// database is not configured or unreachable; the server keeps running.
func connectDB(cfg *config.Config) *sql.DB {
	if !cfg.HasDatabase() {
		return nil
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = db.PingContext(ctx)
			cancel()
		}
		if err == nil {
			break
		}
		if db != nil {
			db.Close()
		}
		log.Info().Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(time.Second)
	}
	if err != nil {
		log.Error().Err(err).Msg("could not connect to database, continuing without it")
		return nil
	}
	log.Info().Msg("connected to database")

	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("migration init failed")
		return db
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error().Err(err).Msg("migration up failed")
	} else {
		log.Info().Msg("migrations applied")
	}
	return db
}

func waitForShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
