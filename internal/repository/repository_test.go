package repository

import (
	"context"
	"errors"
	"testing"

	"deco-planner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

func TestCreateTaskSetsGeneratedID(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("tasks").Insert(r.MockAnything())).Return(map[string]any{
		"inserted":       1,
		"generated_keys": []string{"task-1"},
	}, nil)

	repo := NewTaskRepository(mock, "tasks")
	task := &domain.Task{Name: "reef", Status: domain.TaskStatusPending}

	require.NoError(t, repo.CreateTask(context.Background(), task))
	assert.Equal(t, "task-1", task.ID)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	mock.AssertExpectations(t)
}

func TestCreateTaskError(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("tasks").Insert(r.MockAnything())).Return(nil, errors.New("connection refused"))

	repo := NewTaskRepository(mock, "tasks")
	err := repo.CreateTask(context.Background(), &domain.Task{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create task")
}

func TestGetTask(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("tasks").Get("task-1")).Return(map[string]any{
		"id":     "task-1",
		"name":   "reef",
		"status": "success",
	}, nil)

	repo := NewTaskRepository(mock, "tasks")
	task, err := repo.GetTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "reef", task.Name)
	assert.Equal(t, domain.TaskStatusSuccess, task.Status)
}

func TestGetTaskNotFound(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("tasks").Get("missing")).Return(nil, nil)

	repo := NewTaskRepository(mock, "tasks")
	_, err := repo.GetTask(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateTask(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("tasks").Get("task-1").Update(r.MockAnything())).Return(map[string]any{"replaced": 1}, nil)
	mock.On(r.Table("tasks").Get("missing").Update(r.MockAnything())).Return(map[string]any{"skipped": 1}, nil)

	repo := NewTaskRepository(mock, "tasks")
	updates := map[string]any{"status": domain.TaskStatusProcessing}
	require.NoError(t, repo.UpdateTask(context.Background(), "task-1", updates))
	assert.Contains(t, updates, "updated_at")

	err := repo.UpdateTask(context.Background(), "missing", map[string]any{"status": domain.TaskStatusDeleted})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTasks(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("tasks").
		OrderBy(r.Desc("created_at")).
		Filter(r.Row.Field("status").Ne("deleted")).
		Limit(2).
		Without("request")).Return([]any{
		map[string]any{"id": "b", "status": "pending"},
		map[string]any{"id": "a", "status": "success"},
	}, nil)

	repo := NewTaskRepository(mock, "tasks")
	tasks, err := repo.ListTasks(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "b", tasks[0].ID)
	assert.Equal(t, domain.TaskStatusSuccess, tasks[1].Status)
	mock.AssertExpectations(t)
}

func TestCreateAndGetResult(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Table("results").Insert(r.MockAnything())).Return(map[string]any{
		"inserted":       1,
		"generated_keys": []string{"result-1"},
	}, nil)
	mock.On(r.Table("results").Get("result-1")).Return(map[string]any{
		"id":      "result-1",
		"task_id": "task-1",
		"dive": map[string]any{
			"no_deco":         12,
			"time_to_surface": 8,
			"max_bottom_time": 18,
		},
	}, nil)

	repo := NewResultRepository(mock, "results")
	result := &domain.Result{TaskID: "task-1"}
	require.NoError(t, repo.CreateResult(context.Background(), result))
	assert.Equal(t, "result-1", result.ID)

	stored, err := repo.GetResult(context.Background(), "result-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", stored.TaskID)
	require.NotNil(t, stored.Dive)
	assert.Equal(t, 8, stored.Dive.TimeToSurface)
	assert.Equal(t, 18, stored.Dive.MaxBottomTime)
}

func TestGetResultByTask(t *testing.T) {
	byTask := func(taskID string) r.Term {
		return r.Table("results").
			GetAllByIndex(TaskIDIndex, taskID).
			OrderBy(r.Desc("created_at")).
			Nth(0).
			Default(nil)
	}

	mock := r.NewMock()
	mock.On(byTask("task-1")).Return(map[string]any{"id": "result-1", "task_id": "task-1"}, nil)
	mock.On(byTask("task-2")).Return(nil, nil)

	repo := NewResultRepository(mock, "results")
	result, err := repo.GetResultByTask(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "result-1", result.ID)

	_, err = repo.GetResultByTask(context.Background(), "task-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
