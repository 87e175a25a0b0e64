// api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"deco-planner/internal/config"
	"deco-planner/internal/messaging"
	"deco-planner/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	maxBodySize   = 1 << 20
	maxUploadSize = 4 << 20
	version       = "1.0.0"
)

type Server struct {
	router     *mux.Router
	repo       repository.TaskRepository
	resultRepo repository.ResultRepository
	msgClient  messaging.MessageClient
	config     *config.Config
	logger     *zap.Logger
	validator  *validator.Validate
	server     *http.Server
}

func NewServer(repo repository.TaskRepository, resultRepo repository.ResultRepository,
	msgClient messaging.MessageClient, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		router:     mux.NewRouter(),
		repo:       repo,
		resultRepo: resultRepo,
		msgClient:  msgClient,
		config:     cfg,
		logger:     logger,
		validator:  validator.New(),
	}

	s.setupRoutes()
	s.setupMiddleware()

	return s
}

func (s *Server) setupRoutes() {
	// API v1
	apiRouter := s.router.PathPrefix("/api/v1").Subrouter()

	// Plans endpoints
	apiRouter.HandleFunc("/plans", s.createPlan).Methods(http.MethodPost)
	apiRouter.HandleFunc("/plans/upload", s.uploadPlan).Methods(http.MethodPost)

	// Tasks endpoints
	apiRouter.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	apiRouter.HandleFunc("/tasks/{id}", s.renameTask).Methods(http.MethodPut)
	apiRouter.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/tasks/{id}/result", s.getTaskResult).Methods(http.MethodGet)

	// Синхронные калькуляторы
	apiRouter.HandleFunc("/nitrox/{calculation}", s.nitrox).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	s.router.HandleFunc("/docs", s.apiDocs).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.notFoundHandler)
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
}

// Handler маршрутизатор с middleware, для тестов и встраивания.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		// Пропускаем health checks из логов
		if r.URL.Path != "/health" {
			s.logger.Info("Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
				zap.Duration("duration", time.Since(start)))
		}
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic recovered", zap.Any("panic", err), zap.String("path", r.URL.Path))
				s.respondWithError(w, r, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":    "healthy",
		"service":   "deco-planner-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	}

	if err := s.msgClient.HealthCheck(r.Context()); err != nil {
		response["status"] = "degraded"
		response["error"] = err.Error()
		s.respondWithJSON(w, r, http.StatusServiceUnavailable, response)
		return
	}

	s.respondWithJSON(w, r, http.StatusOK, response)
}

func (s *Server) apiDocs(w http.ResponseWriter, r *http.Request) {
	docs := map[string]any{
		"title":       "Deco Planner API",
		"description": "Asynchronous decompression dive planning",
		"version":     version,
		"endpoints": map[string]any{
			"POST /api/v1/plans":                "Submit a plan (JSON body)",
			"POST /api/v1/plans/upload":         "Submit a plan file (multipart: plan, json_data)",
			"GET /api/v1/tasks":                 "List tasks",
			"GET /api/v1/tasks/{id}":            "Get task by ID",
			"PUT /api/v1/tasks/{id}":            "Rename task",
			"DELETE /api/v1/tasks/{id}":         "Delete task",
			"GET /api/v1/tasks/{id}/result":     "Get calculated dive",
			"GET /api/v1/nitrox/{calculation}":  "mod, ead, best-mix, partial-pressure",
			"GET /health":                       "Health check",
			"any endpoint with ?format=msgpack": "MessagePack response",
		},
		"status_codes": []string{
			"pending",
			"processing",
			"success",
			"error",
			"deleted",
		},
	}

	s.respondWithJSON(w, r, http.StatusOK, docs)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithError(w, r, http.StatusNotFound, "Endpoint not found")
}

// Server lifecycle
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.config.ServerPort,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting REST API server", zap.String("addr", s.config.ServerPort))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("Shutting down API server")
		return s.server.Shutdown(ctx)
	}
	return nil
}
