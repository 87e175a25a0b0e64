package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

func TestEnsureTableCreatesMissingTable(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.TableList()).Return([]any{"results"}, nil)
	create := mock.On(r.TableCreate("tasks")).Return(map[string]any{"tables_created": 1}, nil)
	mock.On(r.Table("tasks").IndexCreate("status")).Return(map[string]any{"created": 1}, nil)
	mock.On(r.Table("tasks").IndexCreate("created_at")).Return(nil, errors.New("Index `created_at` already exists"))
	mock.On(r.Table("tasks").IndexCreate("updated_at")).Return(map[string]any{"created": 1}, nil)
	mock.On(r.Table("tasks").IndexWait()).Return([]any{map[string]any{"index": "status", "ready": true}}, nil)

	err := ensureTable(context.Background(), mock, "tasks", TaskIndexes, zap.NewNop())
	require.NoError(t, err)
	mock.AssertExecuted(t, create)
}

func TestEnsureTableKeepsExistingTable(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.TableList()).Return([]any{"tasks", "results"}, nil)
	create := mock.On(r.TableCreate("results")).Return(map[string]any{"tables_created": 1}, nil)
	mock.On(r.Table("results").IndexCreate(r.MockAnything())).Return(map[string]any{"created": 1}, nil)
	mock.On(r.Table("results").IndexWait()).Return([]any{map[string]any{"index": "status", "ready": true}}, nil)

	err := ensureTable(context.Background(), mock, "results", ResultIndexes, zap.NewNop())
	require.NoError(t, err)
	mock.AssertNotExecuted(t, create)
}

func TestEnsureTableListError(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.TableList()).Return(nil, errors.New("connection closed"))

	err := ensureTable(context.Background(), mock, "tasks", TaskIndexes, zap.NewNop())
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.Expr(1)).Return(1, nil)
	assert.NoError(t, Ping(context.Background(), mock))

	failing := r.NewMock()
	failing.On(r.Expr(1)).Return(nil, errors.New("timeout"))
	assert.Error(t, Ping(context.Background(), failing))
}
