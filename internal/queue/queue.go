package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskPushDispatch        = "push:dispatch"
	TaskNotificationCleanup = "notifications:cleanup"
)

// PushDispatchPayload carries one push request from the API server to the
// worker.
type PushDispatchPayload struct {
	UserID  uint              `json:"user_id"`
	Type    string            `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

var client *asynq.Client

func redisOpt() asynq.RedisClientOpt {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	return asynq.RedisClientOpt{Addr: redisAddr}
}

// InitQueue initializes the Redis connection for Asynq
func InitQueue() error {
	client = asynq.NewClient(redisOpt())

	// Test connection
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	// Recreate client after test
	client = asynq.NewClient(redisOpt())

	slog.Info("Successfully initialized task queue")
	return nil
}

// EnqueuePushDispatch queues one push delivery. No retries: push is
// best-effort, the durable notification row is the source of truth.
func EnqueuePushDispatch(payload PushDispatchPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %v", err)
	}

	task := asynq.NewTask(TaskPushDispatch, payloadBytes)
	info, err := client.Enqueue(task,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %v", err)
	}
	return info.ID, nil
}

// EnqueueNotificationCleanup queues a global retention sweep.
func EnqueueNotificationCleanup() (string, error) {
	task := asynq.NewTask(TaskNotificationCleanup, nil)
	info, err := client.Enqueue(task,
		asynq.MaxRetry(2),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %v", err)
	}
	return info.ID, nil
}

// Close shuts down the queue client
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
