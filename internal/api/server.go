// Package api provides the HTTP surface of the upload pipeline: enqueueing,
// job inspection, cancellation and the synchronous upload path.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/drive-uploader/internal/logging"
	"github.com/drive-uploader/internal/models"
)

// Service interfaces for dependency injection and testing

// EnqueueServiceInterface defines the interface for enqueue operations
type EnqueueServiceInterface interface {
	EnqueueOrRequeue(ctx context.Context, tenantID, recordID, provider, reason string) (string, error)
}

// UploadServiceInterface defines the interface for the synchronous upload path
type UploadServiceInterface interface {
	UploadNow(ctx context.Context, tenantID, recordID, provider string) (models.UploadOutcome, error)
}

// QueueReaderInterface defines the queue lookups and the cancel operation
type QueueReaderInterface interface {
	GetByID(ctx context.Context, id string) (*models.UploadQueueItem, error)
	Cancel(ctx context.Context, id, message string) (bool, error)
}

// LogReaderInterface defines the audit log lookups
type LogReaderInterface interface {
	ListByRecord(ctx context.Context, tenantID, recordID string, limit int) ([]*models.UploadLog, error)
}

// Server represents the HTTP API server.
type Server struct {
	router         *mux.Router
	httpServer     *http.Server
	enqueueService EnqueueServiceInterface
	uploadService  UploadServiceInterface
	queueRepo      QueueReaderInterface
	logRepo        LogReaderInterface
	config         *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	enqueueService EnqueueServiceInterface,
	uploadService UploadServiceInterface,
	queueRepo QueueReaderInterface,
	logRepo LogReaderInterface,
) *Server {
	s := &Server{
		router:         mux.NewRouter(),
		enqueueService: enqueueService,
		uploadService:  uploadService,
		queueRepo:      queueRepo,
		logRepo:        logRepo,
		config:         config,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Middleware order matters: logging sees the final status, recovery
	// shields everything below it.
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Upload queue endpoints
	api.HandleFunc("/uploads", s.handleEnqueueUpload).Methods("POST")
	api.HandleFunc("/uploads/now", s.handleUploadNow).Methods("POST")
	api.HandleFunc("/uploads/{id}", s.handleGetUpload).Methods("GET")
	api.HandleFunc("/uploads/{id}/cancel", s.handleCancelUpload).Methods("POST")

	// Audit log endpoints
	api.HandleFunc("/records/{recordId}/uploads", s.handleListUploadLogs).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "drive-uploader",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.GetGlobalLogger().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.GetGlobalLogger().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
