package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platelens/backend/config"
	httpDelivery "github.com/platelens/backend/internal/delivery/http"
	"github.com/platelens/backend/internal/domain"
	"github.com/platelens/backend/internal/infrastructure/gemini"
	"github.com/platelens/backend/internal/infrastructure/storage"
	"github.com/platelens/backend/internal/logger"
	"github.com/platelens/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.Initialize(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	log.WithFields(map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"model":       cfg.Gemini.Model,
		"storage":     cfg.Storage.Driver,
	}).Info("Starting PlateLens Backend v1.0.0")

	ctx := context.Background()

	// Initialize infrastructure dependencies
	modelClient := gemini.NewClient(gemini.Options{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		Timeout:        cfg.Gemini.Timeout,
		RequestsPerMin: cfg.RateLimit.ModelPerMinute,
	})

	mealRepo, err := newMealLogRepository(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize meal log storage")
	}

	// Initialize usecase layer
	analysisService := usecase.NewAnalysisService(modelClient)
	mealLogService := usecase.NewMealLogService(mealRepo, usecase.MealLogServiceConfig{
		HistoryLimit: cfg.Storage.HistoryLimit,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(analysisService, mealLogService, usecase.NewHealthScorer())
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

// newMealLogRepository opens the configured meal log backend
func newMealLogRepository(ctx context.Context, cfg config.StorageConfig) (domain.MealLogRepository, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite", "":
		store, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
