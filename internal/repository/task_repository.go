package repository

import (
	"context"
	"fmt"
	"time"

	"deco-planner/internal/domain"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// Документы движка расчета размечены только json тегами.
func init() {
	r.SetTags("rethinkdb", "json")
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, updates map[string]any) error
	ListTasks(ctx context.Context, limit int) ([]domain.Task, error)
}

type taskRepository struct {
	session r.QueryExecutor
	table   string
}

// NewTaskRepository session это *r.Session или r.Mock в тестах.
func NewTaskRepository(session r.QueryExecutor, table string) TaskRepository {
	return &taskRepository{
		session: session,
		table:   table,
	}
}

func (repo *taskRepository) CreateTask(ctx context.Context, task *domain.Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	result, err := r.Table(repo.table).Insert(task).RunWrite(repo.session, r.RunOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if len(result.GeneratedKeys) > 0 {
		task.ID = result.GeneratedKeys[0]
	}

	return nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	cursor, err := r.Table(repo.table).Get(id).Run(repo.session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	defer cursor.Close()

	if cursor.IsNil() {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	var task domain.Task
	if err := cursor.One(&task); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}

	return &task, nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, id string, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()

	result, err := r.Table(repo.table).Get(id).Update(updates).RunWrite(repo.session, r.RunOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.Skipped > 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListTasks последние задачи без удаленных. Запрос плана не загружается.
func (repo *taskRepository) ListTasks(ctx context.Context, limit int) ([]domain.Task, error) {
	cursor, err := r.Table(repo.table).
		OrderBy(r.Desc("created_at")).
		Filter(r.Row.Field("status").Ne(string(domain.TaskStatusDeleted))).
		Limit(limit).
		Without("request").
		Run(repo.session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close()

	tasks := []domain.Task{}
	if err := cursor.All(&tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	return tasks, nil
}
