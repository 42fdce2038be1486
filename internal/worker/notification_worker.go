package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Drainer waits for in-flight event handlers.
type Drainer interface {
	Close(ctx context.Context) error
}

// NotificationWorker owns the lifetime of the email notification handlers.
type NotificationWorker struct {
	notifications *service.NotificationService
	drainer       Drainer
	logger        *zap.Logger
}

// StartNotificationWorker registers notification handlers. drainer is the
// dispatcher running them and may be nil for synchronous dispatch.
func StartNotificationWorker(notifications *service.NotificationService, drainer Drainer, logger *zap.Logger) *NotificationWorker {
	w := &NotificationWorker{notifications: notifications, drainer: drainer, logger: logger}
	if notifications == nil {
		return w
	}
	notifications.RegisterHandlers()
	logger.Info("notification worker started")
	return w
}

// Stop waits up to timeout for pending notifications.
func (w *NotificationWorker) Stop(timeout time.Duration) {
	if w == nil || w.drainer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := w.drainer.Close(ctx); err != nil {
		w.logger.Warn("notifications still pending at shutdown", zap.Error(err))
		return
	}
	w.logger.Info("notification worker stopped")
}
