package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// translateRepoError turns repository sentinels into domain errors for resource.
func translateRepoError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	default:
		return apperrors.MapError(err)
	}
}

// validID reports whether id could name a stored record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mergeField returns the trimmed update when it is non-empty, else current.
func mergeField(current, update string) string {
	if v := strings.TrimSpace(update); v != "" {
		return v
	}
	return current
}

// publish hands the event to the dispatcher. Failures are logged and dropped.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err),
		)
	}
}
