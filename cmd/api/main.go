// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deco-planner/internal/api"
	"deco-planner/internal/config"
	"deco-planner/internal/logger"
	"deco-planner/internal/messaging"
	"deco-planner/internal/repository"

	"go.uber.org/zap"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

const connectRetries = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.LogLevel, cfg.LogDevelopment)
	defer log.Sync()

	log.Info("=== Starting REST API Server ===")
	logConfig(log, cfg)

	rethinkSession, err := repository.Connect(cfg.RethinkDBURL, cfg.DBName, connectRetries, log)
	if err != nil {
		log.Fatal("Failed to connect to RethinkDB", zap.Error(err))
	}
	defer rethinkSession.Close()

	if err := repository.SetupDatabase(rethinkSession, cfg.DBName, cfg.TaskTableName, cfg.ResultTableName, log); err != nil {
		log.Fatal("Failed to setup database", zap.Error(err))
	}
	log.Info("✓ Database setup completed")

	redisClient, err := messaging.Connect(messaging.RedisConfig{
		Addr:          cfg.RedisURL,
		Password:      cfg.RedisPassword,
		DB:            cfg.RedisDB,
		StreamName:    cfg.StreamName,
		ConsumerGroup: cfg.ConsumerGroup,
		Logger:        log,
	}, connectRetries)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	repo := repository.NewTaskRepository(rethinkSession, cfg.TaskTableName)
	resultRepo := repository.NewResultRepository(rethinkSession, cfg.ResultTableName)

	apiServer := api.NewServer(repo, resultRepo, redisClient, cfg, log)
	healthServer := startHealthServer(cfg.HealthPort, redisClient, rethinkSession, log)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- apiServer.Start()
	}()

	waitForShutdown(log, apiServer, healthServer, serverErrors)

	log.Info("=== API Server Stopped Gracefully ===")
}

func logConfig(log *zap.Logger, cfg *config.Config) {
	log.Info("Configuration",
		zap.String("redis", cfg.RedisURL),
		zap.String("stream", cfg.StreamName),
		zap.String("group", cfg.ConsumerGroup),
		zap.String("rethinkdb", cfg.RethinkDBURL),
		zap.String("db", cfg.DBName),
		zap.String("tasks", cfg.TaskTableName),
		zap.String("results", cfg.ResultTableName),
		zap.String("server_port", cfg.ServerPort),
		zap.String("health_port", cfg.HealthPort),
		zap.Float64("gf_low", cfg.Planner.GfLow),
		zap.Float64("gf_high", cfg.Planner.GfHigh))
}

func startHealthServer(port string, msgClient messaging.MessageClient, session r.QueryExecutor, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, rr *http.Request) {
		if err := msgClient.HealthCheck(rr.Context()); err != nil {
			http.Error(w, fmt.Sprintf("Redis: %v", err), http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(rr.Context(), 3*time.Second)
		defer cancel()

		if err := repository.Ping(ctx, session); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","service":"api","timestamp":"%s"}`,
			time.Now().UTC().Format(time.RFC3339))
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	server := &http.Server{
		Addr:         port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Health server listening", zap.String("addr", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health server error", zap.Error(err))
		}
	}()

	return server
}

func waitForShutdown(log *zap.Logger, apiServer *api.Server, healthServer *http.Server, serverErrors chan error) {
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-osSignals:
		log.Info("Received signal, starting graceful shutdown", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("API server shutdown error", zap.Error(err))
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Health server shutdown error", zap.Error(err))
	}
}
