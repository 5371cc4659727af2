package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobtrack_server/config"
	"jobtrack_server/internal/bootstrap"
	"jobtrack_server/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	shutdownTimeout = 30 * time.Second // Maximum time to wait for graceful shutdown
)

func main() {
	// Initialize logger early
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "jobtrack",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "api", "Run mode: api, process")
	user := flag.String("user", "", "User id for process mode")
	daysBack := flag.Int("days", 0, "Days of mail to process (process mode)")
	limit := flag.Int("limit", 0, "Max emails to process (process mode)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	switch *mode {
	case "api":
		runAPI(cfg)
	case "process":
		runProcess(cfg, *user, *daysBack, *limit)
	default:
		logger.Fatal("Unknown mode: %s", *mode)
	}
}

func runAPI(cfg *config.Config) {
	app, cleanup, err := bootstrap.NewAPI(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize API: %v", err)
	}
	defer cleanup()

	// Graceful shutdown with timeout
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- app.Shutdown()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Error("Error shutting down: %v", err)
			} else {
				logger.Info("API server shut down gracefully")
			}
		case <-ctx.Done():
			logger.Warn("API shutdown timed out, forcing exit")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}

// runProcess performs one synchronous processing run and exits. Intended for
// cron jobs and manual backfills.
func runProcess(cfg *config.Config, user string, daysBack, limit int) {
	if user == "" {
		user = os.Getenv("DEFAULT_USER_ID")
	}
	userID, err := uuid.Parse(user)
	if err != nil {
		logger.Fatal("process mode requires a valid -user uuid: %v", err)
	}
	if daysBack <= 0 {
		daysBack = cfg.ProcessDaysBack
	}
	if limit <= 0 {
		limit = cfg.ProcessLimit
	}

	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := deps.IngestService.Run(ctx, userID, daysBack, limit)
	if err != nil {
		logger.Fatal("Processing run failed: %v", err)
	}

	logger.Info("Run finished: fetched=%d processed=%d succeeded=%d job_related=%d jobs_stored=%d tokens=%d",
		report.Fetched, report.Processed, report.Succeeded,
		report.JobRelated, report.JobsStored, report.TotalTokens)
}
