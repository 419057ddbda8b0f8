package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Xuzii/ai-vision-assistant/internal/ai"
	"github.com/Xuzii/ai-vision-assistant/internal/api"
	"github.com/Xuzii/ai-vision-assistant/internal/capture"
	"github.com/Xuzii/ai-vision-assistant/internal/config"
	"github.com/Xuzii/ai-vision-assistant/internal/cost"
	"github.com/Xuzii/ai-vision-assistant/internal/database"
	"github.com/Xuzii/ai-vision-assistant/internal/logger"
	"github.com/Xuzii/ai-vision-assistant/internal/storage"
	"github.com/Xuzii/ai-vision-assistant/internal/timeline"
	"github.com/Xuzii/ai-vision-assistant/internal/vision"
)

func main() {
	var (
		configPath = flag.String("config", "./config.yaml", "Path to configuration file")
		dev        = flag.Bool("dev", false, "Development logging")
	)
	flag.Parse()

	log, err := logger.New(*dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	dbConfig := database.Config{
		Type:       cfg.Database.Type,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Name:       cfg.Database.Name,
		SQLitePath: cfg.Database.Path,
	}

	db, err := database.NewDB(dbConfig)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.Type == "postgres" {
		migrationsPath := os.Getenv("MIGRATIONS_PATH")
		if migrationsPath == "" {
			migrationsPath = "./migrations"
		}
		if err := db.RunMigrations(migrationsPath); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	frames, err := storage.NewLocalStorage(cfg.Storage.FramesDir)
	if err != nil {
		log.Fatal("failed to initialize frame storage", zap.Error(err))
	}

	activityRepo := database.NewActivityRepo(db)
	settingsRepo := database.NewSettingsRepo(db)
	streakRepo := database.NewStreakRepo(db)

	governor := cost.NewGovernor(activityRepo, settingsRepo)
	timelineSvc := timeline.NewService(activityRepo, streakRepo, log)
	statuses := capture.NewStatusRegistry()

	gate := vision.NewGate(vision.GateConfig{
		PersonConfidence:     cfg.Detection.PersonConfidence,
		MovementThresholdPx:  cfg.Detection.MovementThresholdPx,
		FrameDiffThreshold:   cfg.Detection.FrameDiffThreshold,
		ForceAnalyzeInterval: cfg.Detection.ForceAnalyzeInterval.Std(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scheduler *capture.Scheduler
	if len(cfg.Cameras) > 0 {
		if cfg.OpenAI.APIKey == "" {
			log.Fatal("OPENAI_API_KEY is required when cameras are configured")
		}
		if cfg.Detector.Endpoint == "" {
			log.Fatal("detector endpoint is required when cameras are configured")
		}

		analyzer := ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.TrackingModel, cfg.OpenAI.Timeout.Std())
		detector := vision.NewYOLOClient(cfg.Detector.Endpoint, cfg.Detector.Timeout.Std())
		source := capture.NewHTTPFrameSource(cfg.Detector.Timeout.Std())

		pipeline := capture.NewPipeline(
			source, detector, gate, governor, analyzer,
			activityRepo, frames, statuses, log,
		)
		scheduler = capture.NewScheduler(pipeline, cfg.Cameras, log)
		if err := scheduler.Start(ctx); err != nil {
			log.Fatal("failed to start capture scheduler", zap.Error(err))
		}
	} else {
		log.Warn("no cameras configured, capture scheduling disabled")
	}

	app := &api.App{
		Activities: activityRepo,
		Settings:   settingsRepo,
		Streaks:    streakRepo,
		Timeline:   timelineSvc,
		Governor:   governor,
		Statuses:   statuses,
		Frames:     frames,
		Cameras:    cfg.Cameras,
		Log:        log,
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(app),
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.Database.Type),
			zap.Int("cameras", len(cfg.Cameras)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
}
