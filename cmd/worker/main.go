// cmd/worker/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"deco-planner/internal/config"
	"deco-planner/internal/logger"
	"deco-planner/internal/messaging"
	"deco-planner/internal/repository"
	"deco-planner/internal/worker"
	"deco-planner/pkg/scuba"

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

	log.Info("=== Starting Plan Worker (Redis) ===")
	log.Info("Configuration",
		zap.String("redis", cfg.RedisURL),
		zap.String("stream", cfg.StreamName),
		zap.String("group", cfg.ConsumerGroup),
		zap.String("rethinkdb", cfg.RethinkDBURL),
		zap.String("db", cfg.DBName),
		zap.Int("workers", cfg.WorkerCount),
		zap.Duration("task_timeout", cfg.TaskTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.String("health_port", cfg.HealthPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rethinkSession, err := repository.Connect(cfg.RethinkDBURL, cfg.DBName, connectRetries, log)
	if err != nil {
		log.Fatal("Failed to connect to RethinkDB", zap.Error(err))
	}
	defer rethinkSession.Close()

	// Таблицы создает API, но воркер может стартовать первым
	if err := repository.SetupDatabase(rethinkSession, cfg.DBName, cfg.TaskTableName, cfg.ResultTableName, log); err != nil {
		log.Fatal("Failed to setup database", zap.Error(err))
	}

	repo := repository.NewTaskRepository(rethinkSession, cfg.TaskTableName)
	resultRepo := repository.NewResultRepository(rethinkSession, cfg.ResultTableName)

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

	planner := scuba.NewPlanner(scuba.PlannerConfig{Logger: log})

	workers := createWorkers(cfg, repo, resultRepo, redisClient, planner, log)
	running := startWorkers(ctx, workers, log)
	log.Info("✓ Workers started", zap.Int("count", len(workers)))

	healthServer := startHealthServer(cfg.HealthPort, redisClient, rethinkSession, workers, log)

	waitForShutdown(cancel, workers, running, healthServer, log)

	log.Info("=== Worker stopped gracefully ===")
}

func createWorkers(cfg *config.Config, repo repository.TaskRepository, resultRepo repository.ResultRepository,
	msgClient messaging.MessageClient, calculator worker.Calculator, log *zap.Logger) []*worker.Worker {

	workers := make([]*worker.Worker, cfg.WorkerCount)
	hostname, _ := os.Hostname()

	for i := range workers {
		workerID := fmt.Sprintf("%s-%d-%d", hostname, os.Getpid(), i+1)
		workers[i] = worker.NewWorker(workerID, repo, resultRepo, msgClient, calculator, cfg, log)
		log.Debug("Created worker", zap.String("id", workerID))
	}

	return workers
}

func startWorkers(ctx context.Context, workers []*worker.Worker, log *zap.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		go func(idx int, w *worker.Worker) {
			defer wg.Done()
			if err := w.Start(ctx); err != nil {
				log.Error("Worker stopped with error", zap.Int("worker", idx+1), zap.Error(err))
			}
		}(i, w)
	}
	return &wg
}

func startHealthServer(port string, msgClient messaging.MessageClient, session r.QueryExecutor,
	workers []*worker.Worker, log *zap.Logger) *http.Server {
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
		fmt.Fprintf(w, `{"status":"healthy","service":"worker","timestamp":"%s"}`,
			time.Now().UTC().Format(time.RFC3339))
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		stats := make([]worker.Stats, 0, len(workers))
		for _, wk := range workers {
			stats = append(stats, wk.GetStats())
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		for _, wk := range workers {
			if !wk.IsRunning() {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
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

func waitForShutdown(cancel context.CancelFunc, workers []*worker.Worker, running *sync.WaitGroup, healthServer *http.Server, log *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Received signal, initiating graceful shutdown", zap.String("signal", sig.String()))

	cancel()

	for _, w := range workers {
		w.Stop()
	}

	// Start возвращается после завершения текущих задач
	done := make(chan struct{})
	go func() {
		running.Wait()
		close(done)
	}()

	select {
	case <-done:
	case sig := <-sigChan:
		log.Warn("Received second signal, forcing shutdown", zap.String("signal", sig.String()))
	case <-time.After(30 * time.Second):
		log.Warn("Shutdown timeout")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Health server shutdown error", zap.Error(err))
	}
}
