package worker

import (
	"context"
	"fmt"
	"time"

	"pos-order-api/internal/broker"
	"pos-order-api/internal/models"
	"pos-order-api/internal/util"

	"go.uber.org/zap"
)

// GroupAssigner grants POS groups to internal users
type GroupAssigner interface {
	AutoAssign(ctx context.Context) (int, error)
}

// PermissionRestorer re-grants POS groups on a schedule
type PermissionRestorer interface {
	Restore(ctx context.Context) (int, error)
}

// UserWorker assigns POS groups whenever a user is created
type UserWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	assigner     GroupAssigner
}

// NewUserWorker creates a new user worker
func NewUserWorker(consumer *broker.Consumer, assigner GroupAssigner) *UserWorker {
	w := &UserWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		assigner:     assigner,
	}
	w.eventHandler.OnUserCreated(w.HandleUserCreated)
	return w
}

// HandleUserCreated runs the auto-assignment. Failures are logged and the
// message is still committed, since the next run catches up.
func (w *UserWorker) HandleUserCreated(ctx context.Context, event *models.UserCreatedEvent) error {
	logger := util.GetLogger()

	granted, err := w.assigner.AutoAssign(ctx)
	if err != nil {
		logger.Warn("Auto-assignment for new user failed",
			zap.Int64("user_id", event.UserID), zap.Error(err))
		return nil
	}

	logger.Info("Processed new user",
		zap.Int64("user_id", event.UserID),
		zap.String("login", event.Login),
		zap.Int("granted", granted))
	return nil
}

// Start starts the worker
func (w *UserWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting user worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *UserWorker) Stop() error {
	util.GetLogger().Info("Stopping user worker")
	return w.consumer.Close()
}

// PermissionWorker runs the permission restorer on a fixed interval
type PermissionWorker struct {
	restorer PermissionRestorer
	interval time.Duration
}

// NewPermissionWorker creates a new permission worker
func NewPermissionWorker(restorer PermissionRestorer, interval time.Duration) *PermissionWorker {
	return &PermissionWorker{restorer: restorer, interval: interval}
}

// Start blocks until ctx is cancelled. A non-positive interval is rejected.
func (w *PermissionWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("invalid permission restore interval %s", w.interval)
	}

	logger := util.GetLogger()
	logger.Info("Starting permission worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping permission worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.restorer.Restore(ctx); err != nil {
				logger.Error("Scheduled permission restore failed", zap.Error(err))
			}
		}
	}
}
