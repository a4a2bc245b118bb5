package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/review-analyzer/internal/api"
	"github.com/azure/review-analyzer/internal/config"
	"github.com/azure/review-analyzer/internal/metrics"
	"github.com/azure/review-analyzer/internal/notifications"
	"github.com/azure/review-analyzer/internal/reviews"
	"github.com/azure/review-analyzer/internal/scheduler"
	"github.com/azure/review-analyzer/internal/sentiment"
	"github.com/azure/review-analyzer/internal/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Review Analyzer")

	storageClient, err := storage.New(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	store := reviews.NewStore()
	if err := loadSeed(cfg, store, storageClient); err != nil {
		logrus.Fatalf("Failed to load reviews: %v", err)
	}

	var notificationService notifications.NotificationInterface
	if cfg.HasNotifications() {
		notificationService = notifications.NewService(cfg)
	}

	registry := metrics.NewRegistry()
	reviewService := reviews.NewService(cfg, store, sentiment.NewVaderScorer(), notificationService, registry)

	schedulerService := scheduler.NewService(cfg, reviewService, storageClient, notificationService, registry)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      api.NewRouter(reviewService, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Listening on port %s...", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	reviewService.Wait()

	logrus.Info("Server exited")
}

// loadSeed fills the store from SEED_BLOB when set, otherwise from DATA_FILE.
// A missing local file starts the service with no reviews.
func loadSeed(cfg *config.Config, store *reviews.Store, storageClient storage.StorageInterface) error {
	if cfg.SeedBlob != "" {
		data, err := storageClient.Retrieve(cfg.SeedBlob)
		if err != nil {
			return err
		}
		n, err := store.Load(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("parse %s: %w", cfg.SeedBlob, err)
		}
		logrus.Infof("Loaded %d reviews from blob %s", n, cfg.SeedBlob)
		return nil
	}

	n, err := store.LoadFile(cfg.DataFile)
	if errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("Seed file %s not found, starting with no reviews", cfg.DataFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", cfg.DataFile, err)
	}

	logrus.Infof("Loaded %d reviews from %s", n, cfg.DataFile)
	return nil
}
