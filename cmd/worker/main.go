// Package main provides the upload worker entry point for the drive uploader service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/drive-uploader/internal/config"
	"github.com/drive-uploader/internal/drive"
	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/pdf"
	"github.com/drive-uploader/internal/service"
	"github.com/drive-uploader/internal/storage"
	"github.com/drive-uploader/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetGlobalLogger().WithError(err).Fatal("Failed to load configuration")
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.Info("Upload worker starting")

	// Initialize database connections
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Initialize repositories
	queueRepo := storage.NewUploadQueueRepository(postgres)
	logRepo := storage.NewUploadLogRepository(postgres)
	recordRepo := storage.NewRecordRepository(postgres)
	integrationRepo := storage.NewTenantIntegrationRepository(postgres)
	integrations := storage.NewCachedIntegrationStore(integrationRepo, redis, cfg.Database.Redis.IntegrationTTL)

	// Build the upload pipeline
	driveClient := drive.NewClient(&cfg.Drive)
	renderer := pdf.NewSummaryRenderer()
	uploadService := service.NewUploadService(recordRepo, integrations, renderer, driveClient, logRepo)

	uploadWorker, err := worker.NewUploadWorker(&worker.UploadWorkerConfig{
		Store:        queueRepo,
		Pipeline:     uploadService,
		PollInterval: cfg.Worker.PollInterval,
		BatchSize:    cfg.Worker.BatchSize,
		StaleAfter:   cfg.Worker.StaleAfter,
		ErrorPause:   cfg.Worker.ErrorPause,
		MaxAttempts:  cfg.Worker.MaxAttempts,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create upload worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := uploadWorker.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start upload worker")
	}

	logger.Info("Upload worker started successfully")

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down upload worker...")

	if err := uploadWorker.Stop(context.Background()); err != nil {
		logger.WithError(err).Error("Upload worker did not stop cleanly")
	}

	logger.Info("Upload worker exited")
}
