package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"deco-planner/internal/domain"
)

func TestEncodeDecodeMessage(t *testing.T) {
	now := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)

	values, err := encodeMessage("task-1", now)
	require.NoError(t, err)
	assert.Equal(t, "task-1", values["task_id"])
	assert.Equal(t, now.UnixNano(), values["created"])

	message, err := decodeMessage(values)
	require.NoError(t, err)
	assert.Equal(t, "task-1", message.TaskID)
	assert.True(t, now.Equal(message.Timestamp))
}

func TestDecodeMessageFallsBackToTaskID(t *testing.T) {
	message, err := decodeMessage(map[string]any{"task_id": "task-2"})
	require.NoError(t, err)
	assert.Equal(t, "task-2", message.TaskID)
}

func TestDecodeMessagePrefersPayload(t *testing.T) {
	data, err := msgpack.Marshal(domain.TaskMessage{TaskID: "from-data"})
	require.NoError(t, err)

	message, err := decodeMessage(map[string]any{"task_id": "from-field", "data": string(data)})
	require.NoError(t, err)
	assert.Equal(t, "from-data", message.TaskID)
}

func TestDecodeMessageErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"empty", map[string]any{}},
		{"task id of wrong type", map[string]any{"task_id": 42}},
		{"broken payload", map[string]any{"data": "\xc1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMessage(tt.values)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestConnectFailsWhenRedisUnavailable(t *testing.T) {
	client, err := Connect(RedisConfig{Addr: "127.0.0.1:1"}, 1)
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "after 1 attempts")
}

func TestAckContextOutlivesSubscription(t *testing.T) {
	ctx, stop := context.WithCancel(context.Background())
	stop()

	ackCtx, cancel := ackContext(ctx)
	defer cancel()

	require.NoError(t, ackCtx.Err())
	deadline, ok := ackCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(ackTimeout), deadline, time.Second)
}
