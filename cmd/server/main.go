// Package main provides the API server entry point for the drive uploader service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/drive-uploader/internal/api"
	"github.com/drive-uploader/internal/config"
	"github.com/drive-uploader/internal/drive"
	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/pdf"
	"github.com/drive-uploader/internal/queue"
	"github.com/drive-uploader/internal/service"
	"github.com/drive-uploader/internal/storage"
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
	logger.Info("API server starting")

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

	// Initialize repositories and services
	queueRepo := storage.NewUploadQueueRepository(postgres)
	logRepo := storage.NewUploadLogRepository(postgres)
	recordRepo := storage.NewRecordRepository(postgres)
	integrationRepo := storage.NewTenantIntegrationRepository(postgres)
	integrations := storage.NewCachedIntegrationStore(integrationRepo, redis, cfg.Database.Redis.IntegrationTTL)

	enqueueService := queue.NewEnqueueService(queueRepo)

	driveClient := drive.NewClient(&cfg.Drive)
	renderer := pdf.NewSummaryRenderer()
	uploadService := service.NewUploadService(recordRepo, integrations, renderer, driveClient, logRepo)

	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	server := api.NewServer(serverConfig, enqueueService, uploadService, queueRepo, logRepo)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
