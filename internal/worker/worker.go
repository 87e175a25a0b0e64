// worker/worker.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"deco-planner/internal/config"
	"deco-planner/internal/domain"
	"deco-planner/internal/messaging"
	"deco-planner/internal/repository"
	"deco-planner/pkg/scuba"

	"go.uber.org/zap"
)

// errPermanent ошибки задачи, которые не исправит повтор.
var errPermanent = errors.New("permanent task error")

// Calculator расчет погружения, реализуется scuba.Planner.
type Calculator interface {
	Calculate(ctx context.Context, request scuba.PlanRequest) (*scuba.DiveResult, error)
}

type Worker struct {
	id         string
	repo       repository.TaskRepository
	resultRepo repository.ResultRepository
	msgClient  messaging.MessageClient
	calculator Calculator
	cfg        *config.Config
	logger     *zap.Logger
	retryDelay time.Duration
	stopChan   chan struct{}
	wg         sync.WaitGroup
	isRunning  atomic.Bool
	processed  atomic.Int64
	failed     atomic.Int64
	processing atomic.Int32 // Количество задач в обработке
}

// Stats счетчики воркера.
type Stats struct {
	ID         string `json:"id"`
	Running    bool   `json:"running"`
	Processed  int64  `json:"processed"`
	Failed     int64  `json:"failed"`
	Processing int32  `json:"processing"`
}

func NewWorker(id string, repo repository.TaskRepository, resultRepo repository.ResultRepository,
	msgClient messaging.MessageClient, calculator Calculator, cfg *config.Config, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Worker{
		id:         id,
		repo:       repo,
		resultRepo: resultRepo,
		msgClient:  msgClient,
		calculator: calculator,
		cfg:        cfg,
		logger:     logger.With(zap.String("worker", id)),
		retryDelay: time.Second,
		stopChan:   make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.isRunning.Store(true)
	w.logger.Info("Worker starting")

	if err := w.msgClient.SubscribeToTasks(ctx, w.handleTask); err != nil {
		w.isRunning.Store(false)
		return fmt.Errorf("failed to subscribe to tasks: %w", err)
	}

	go w.runMonitor(ctx)

	select {
	case <-w.stopChan:
	case <-ctx.Done():
		w.Stop()
	}

	// Ждем завершения всех задач
	w.wg.Wait()

	stats := w.GetStats()
	w.logger.Info("Worker stopped", zap.Int64("processed", stats.Processed), zap.Int64("failed", stats.Failed))
	return nil
}

func (w *Worker) runMonitor(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := w.GetStats()
			w.logger.Info("Worker stats",
				zap.Int64("processed", stats.Processed),
				zap.Int64("failed", stats.Failed),
				zap.Int32("processing", stats.Processing))
		case <-w.stopChan:
			return
		}
	}
}

func (w *Worker) handleTask(ctx context.Context, taskID string) {
	w.wg.Add(1)
	w.processing.Add(1)

	defer func() {
		w.processing.Add(-1)
		w.wg.Done()
	}()

	start := time.Now()

	// начатая задача дорабатывает при остановке воркера
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.TaskTimeout)
	defer cancel()

	err := w.processTaskWithRetry(ctx, taskID)

	duration := time.Since(start)
	if err != nil {
		w.logger.Error("Task failed", zap.String("task_id", taskID), zap.Duration("duration", duration), zap.Error(err))
		w.failed.Add(1)
	} else {
		w.logger.Info("Task completed", zap.String("task_id", taskID), zap.Duration("duration", duration))
		w.processed.Add(1)
	}
}

func (w *Worker) processTaskWithRetry(ctx context.Context, taskID string) error {
	maxRetries := max(w.cfg.MaxRetries, 1)

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}

		err = w.processSingleTask(ctx, taskID, attempt)
		if err == nil {
			return nil
		}
		if errors.Is(err, errPermanent) {
			break
		}

		if attempt < maxRetries {
			w.logger.Warn("Retrying task",
				zap.String("task_id", taskID),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Error(err))
			time.Sleep(time.Duration(attempt) * w.retryDelay)
		}
	}

	w.updateTaskError(ctx, taskID, err)
	return err
}

func (w *Worker) processSingleTask(ctx context.Context, taskID string, attempt int) error {
	task, err := w.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		return fmt.Errorf("failed to get task: %w", err)
	}

	if task.Status == domain.TaskStatusDeleted {
		w.logger.Info("Skipping deleted task", zap.String("task_id", taskID))
		return nil
	}

	updateData := map[string]any{
		"status":    domain.TaskStatusProcessing,
		"worker_id": w.id,
		"attempt":   attempt,
	}
	if err := w.repo.UpdateTask(ctx, taskID, updateData); err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	dive, err := w.executeTask(ctx, task)
	if err != nil {
		return fmt.Errorf("task execution failed: %w", err)
	}

	result := &domain.Result{TaskID: taskID, Dive: dive}
	if err := w.resultRepo.CreateResult(ctx, result); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	return w.updateTaskSuccess(ctx, taskID, result.ID)
}

func (w *Worker) executeTask(ctx context.Context, task *domain.Task) (*scuba.DiveResult, error) {
	if task.Request == nil {
		return nil, fmt.Errorf("%w: task has no plan", errPermanent)
	}
	if err := task.Request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errPermanent, err)
	}

	dive, err := w.calculator.Calculate(ctx, *task.Request)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("Dive calculated",
		zap.String("task_id", task.ID),
		zap.Bool("failed", dive.CalculationFailed),
		zap.Int("tts", dive.TimeToSurface))
	return dive, nil
}

func (w *Worker) updateTaskError(ctx context.Context, taskID string, taskErr error) {
	errorData := map[string]any{
		"status":    domain.TaskStatusError,
		"error":     taskErr.Error(),
		"worker_id": w.id,
	}

	// контекст задачи мог истечь, статус ошибки все равно нужно записать
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := w.repo.UpdateTask(updateCtx, taskID, errorData); err != nil {
		w.logger.Error("Failed to update error status", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (w *Worker) updateTaskSuccess(ctx context.Context, taskID, resultID string) error {
	successData := map[string]any{
		"status":       domain.TaskStatusSuccess,
		"result_id":    resultID,
		"completed_at": time.Now().UTC(),
		"worker_id":    w.id,
		"error":        "",
	}

	if err := w.repo.UpdateTask(ctx, taskID, successData); err != nil {
		return fmt.Errorf("failed to update success status: %w", err)
	}

	return nil
}

func (w *Worker) Stop() {
	if w.isRunning.CompareAndSwap(true, false) {
		w.logger.Info("Stopping worker")
		close(w.stopChan)
	}
}

func (w *Worker) GetStats() Stats {
	return Stats{
		ID:         w.id,
		Running:    w.isRunning.Load(),
		Processed:  w.processed.Load(),
		Failed:     w.failed.Load(),
		Processing: w.processing.Load(),
	}
}

func (w *Worker) IsRunning() bool {
	return w.isRunning.Load()
}
