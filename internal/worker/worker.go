package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/ecobin-app/backend/internal/apperr"
	"github.com/ecobin-app/backend/internal/models"
	"github.com/ecobin-app/backend/internal/push"
	"github.com/ecobin-app/backend/internal/queue"
	"github.com/ecobin-app/backend/internal/repositories"
)

// Worker consumes queued push-dispatch and cleanup tasks.
type Worker struct {
	server        *asynq.Server
	scheduler     *asynq.Scheduler
	dispatcher    *push.Dispatcher
	notifications repositories.NotificationRepository
}

func NewWorker(dispatcher *push.Dispatcher, notifications repositories.NotificationRepository) *Worker {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
		},
	)

	scheduler := asynq.NewScheduler(redisOpt, nil)

	return &Worker{
		server:        server,
		scheduler:     scheduler,
		dispatcher:    dispatcher,
		notifications: notifications,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskPushDispatch, w.handlePushDispatch)
	mux.HandleFunc(queue.TaskNotificationCleanup, w.handleNotificationCleanup)

	// Nightly retention sweep, the scheduled counterpart of the
	// /notifications/cleanup endpoint.
	if _, err := w.scheduler.Register("0 3 * * *", asynq.NewTask(queue.TaskNotificationCleanup, nil)); err != nil {
		return fmt.Errorf("failed to register cleanup schedule: %v", err)
	}

	slog.Info("Starting worker",
		"tasks", []string{queue.TaskPushDispatch, queue.TaskNotificationCleanup},
		"concurrency", 10)

	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %v", err)
	}

	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start worker server: %v", err)
	}

	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop shuts down the worker gracefully
func (w *Worker) Stop() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

// handlePushDispatch delivers one queued push. Delivery failures are
// logged and swallowed; the task is never retried.
func (w *Worker) handlePushDispatch(ctx context.Context, t *asynq.Task) error {
	var payload queue.PushDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal push payload: %v", err)
	}

	err := w.dispatcher.Dispatch(ctx, payload.UserID, models.NotificationType(payload.Type),
		payload.Title, payload.Message, payload.Data)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodePushDelivery {
			slog.Warn("Push delivery failed", "user_id", payload.UserID, "error", err)
			return nil
		}
		return err
	}

	return nil
}

func (w *Worker) handleNotificationCleanup(ctx context.Context, t *asynq.Task) error {
	removed, err := w.notifications.SweepAll(ctx)
	if err != nil {
		return fmt.Errorf("retention sweep failed: %v", err)
	}
	slog.Info("Retention sweep completed", "removed", removed)
	return nil
}
