// messaging/redis_client.go
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deco-planner/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	DefaultStreamName    = "plans-stream"
	DefaultConsumerGroup = "plan-workers"

	ackTimeout = 5 * time.Second
)

var ErrInvalidMessage = errors.New("invalid stream message")

// TaskHandler обрабатывает задачу из очереди.
type TaskHandler func(ctx context.Context, taskID string)

type MessageClient interface {
	PublishTask(ctx context.Context, taskID string) error
	SubscribeToTasks(ctx context.Context, handler TaskHandler) error
	HealthCheck(ctx context.Context) error
	Close() error
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	StreamName    string
	ConsumerGroup string
	Logger        *zap.Logger
}

type redisClient struct {
	client        *redis.Client
	streamName    string
	consumerGroup string
	consumerName  string
	logger        *zap.Logger
}

func NewRedisClient(cfg RedisConfig) (MessageClient, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.StreamName == "" {
		cfg.StreamName = DefaultStreamName
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = DefaultConsumerGroup
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := createConsumerGroup(ctx, client, cfg.StreamName, cfg.ConsumerGroup, cfg.Logger); err != nil {
		client.Close()
		return nil, err
	}

	consumer := "consumer-" + uuid.NewString()
	cfg.Logger.Info("Redis client initialized",
		zap.String("stream", cfg.StreamName),
		zap.String("group", cfg.ConsumerGroup),
		zap.String("consumer", consumer))

	return &redisClient{
		client:        client,
		streamName:    cfg.StreamName,
		consumerGroup: cfg.ConsumerGroup,
		consumerName:  consumer,
		logger:        cfg.Logger,
	}, nil
}

func createConsumerGroup(ctx context.Context, client *redis.Client, streamName, consumerGroup string, logger *zap.Logger) error {
	err := client.XGroupCreateMkStream(ctx, streamName, consumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	if err == nil {
		logger.Info("Created consumer group", zap.String("group", consumerGroup), zap.String("stream", streamName))
	} else {
		logger.Debug("Consumer group already exists", zap.String("group", consumerGroup))
	}

	return nil
}

// encodeMessage поля записи потока: task_id, data (msgpack TaskMessage), created.
func encodeMessage(taskID string, now time.Time) (map[string]any, error) {
	data, err := msgpack.Marshal(domain.TaskMessage{TaskID: taskID, Timestamp: now})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return map[string]any{
		"task_id": taskID,
		"data":    string(data),
		"created": now.UnixNano(),
	}, nil
}

// decodeMessage достает задачу из записи потока. Поле data приоритетнее task_id.
func decodeMessage(values map[string]any) (domain.TaskMessage, error) {
	if data, ok := values["data"].(string); ok && data != "" {
		var message domain.TaskMessage
		if err := msgpack.Unmarshal([]byte(data), &message); err != nil {
			return domain.TaskMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		if message.TaskID != "" {
			return message, nil
		}
	}

	taskID, ok := values["task_id"].(string)
	if !ok || taskID == "" {
		return domain.TaskMessage{}, fmt.Errorf("%w: no task id", ErrInvalidMessage)
	}
	return domain.TaskMessage{TaskID: taskID}, nil
}

func (c *redisClient) PublishTask(ctx context.Context, taskID string) error {
	values, err := encodeMessage(taskID, time.Now().UTC())
	if err != nil {
		return err
	}

	id, err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.streamName,
		Values: values,
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis Stream: %w", err)
	}

	c.logger.Debug("Task published", zap.String("task_id", taskID), zap.String("message_id", id))
	return nil
}

func (c *redisClient) SubscribeToTasks(ctx context.Context, handler TaskHandler) error {
	c.logger.Info("Consumer started listening for tasks", zap.String("consumer", c.consumerName))

	go c.processMessages(ctx, handler)

	return nil
}

func (c *redisClient) processMessages(ctx context.Context, handler TaskHandler) {
	blockTime := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopped", zap.String("consumer", c.consumerName))
			return
		default:
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.consumerGroup,
			Consumer: c.consumerName,
			Streams:  []string{c.streamName, ">"},
			Count:    1,
			Block:    blockTime,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			c.logger.Error("Error reading from Redis Stream", zap.Error(err))
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.processMessage(ctx, message, handler)
			}
		}
	}
}

func (c *redisClient) processMessage(ctx context.Context, message redis.XMessage, handler TaskHandler) {
	task, err := decodeMessage(message.Values)
	if err != nil {
		c.logger.Warn("Dropping message", zap.String("message_id", message.ID), zap.Error(err))
	} else {
		c.logger.Debug("Processing task",
			zap.String("consumer", c.consumerName),
			zap.String("task_id", task.TaskID),
			zap.String("message_id", message.ID))
		handler(ctx, task.TaskID)
	}

	// Подтверждаем обработку (ACK), повтор внутри воркера
	ackCtx, cancel := ackContext(ctx)
	defer cancel()
	if err := c.client.XAck(ackCtx, c.streamName, c.consumerGroup, message.ID).Err(); err != nil {
		c.logger.Error("Failed to ACK message", zap.String("message_id", message.ID), zap.Error(err))
	}
}

// ackContext переживает остановку подписки: обработанное сообщение
// подтверждается даже при завершении воркера.
func ackContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
}

func (c *redisClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	_, err := c.client.XInfoStream(ctx, c.streamName).Result()
	if err != nil && !strings.Contains(err.Error(), "no such key") {
		return fmt.Errorf("Redis stream check failed: %w", err)
	}

	return nil
}

func (c *redisClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Connect создает клиента с повторами, пока Redis не станет доступен.
func Connect(cfg RedisConfig, maxRetries int) (MessageClient, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var err error
	for i := 1; i <= maxRetries; i++ {
		cfg.Logger.Info("Connecting to Redis", zap.Int("attempt", i), zap.Int("max", maxRetries))

		var client MessageClient
		client, err = NewRedisClient(cfg)
		if err == nil {
			return client, nil
		}

		if i < maxRetries {
			waitTime := time.Duration(i) * 2 * time.Second
			cfg.Logger.Warn("Connection failed, retrying", zap.Error(err), zap.Duration("wait", waitTime))
			time.Sleep(waitTime)
		}
	}

	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
}
