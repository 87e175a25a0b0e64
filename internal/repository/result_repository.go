package repository

import (
	"context"
	"fmt"
	"time"

	"deco-planner/internal/domain"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// TaskIDIndex вторичный индекс таблицы результатов.
const TaskIDIndex = "task_id"

type ResultRepository interface {
	CreateResult(ctx context.Context, result *domain.Result) error
	GetResult(ctx context.Context, id string) (*domain.Result, error)
	GetResultByTask(ctx context.Context, taskID string) (*domain.Result, error)
}

type resultRepository struct {
	session r.QueryExecutor
	table   string
}

func NewResultRepository(session r.QueryExecutor, table string) ResultRepository {
	return &resultRepository{
		session: session,
		table:   table,
	}
}

func (repo *resultRepository) CreateResult(ctx context.Context, res *domain.Result) error {
	now := time.Now().UTC()
	res.CreatedAt = now
	res.UpdatedAt = now

	result, err := r.Table(repo.table).Insert(res).RunWrite(repo.session, r.RunOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("failed to create result: %w", err)
	}

	if len(result.GeneratedKeys) > 0 {
		res.ID = result.GeneratedKeys[0]
	}

	return nil
}

func (repo *resultRepository) GetResult(ctx context.Context, id string) (*domain.Result, error) {
	return repo.one(ctx, r.Table(repo.table).Get(id), id)
}

// GetResultByTask последний результат задачи.
func (repo *resultRepository) GetResultByTask(ctx context.Context, taskID string) (*domain.Result, error) {
	query := r.Table(repo.table).
		GetAllByIndex(TaskIDIndex, taskID).
		OrderBy(r.Desc("created_at")).
		Nth(0).
		Default(nil)
	return repo.one(ctx, query, "task "+taskID)
}

func (repo *resultRepository) one(ctx context.Context, query r.Term, key string) (*domain.Result, error) {
	cursor, err := query.Run(repo.session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer cursor.Close()

	if cursor.IsNil() {
		return nil, fmt.Errorf("result of %s: %w", key, domain.ErrNotFound)
	}

	var result domain.Result
	if err := cursor.One(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	return &result, nil
}
