package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/notify"
)

// NotificationRecorder counts delivery outcomes.
type NotificationRecorder interface {
	RecordNotification(event, outcome string)
}

// NotificationService turns domain events into emails.
type NotificationService struct {
	dispatcher      events.Dispatcher
	mailer          notify.Mailer
	composer        *notify.Composer
	recorder        NotificationRecorder
	logger          *zap.Logger
	confirmationTTL time.Duration
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher      events.Dispatcher
	Mailer          notify.Mailer
	Composer        *notify.Composer
	Recorder        NotificationRecorder
	Logger          *zap.Logger
	ConfirmationTTL time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:      deps.Dispatcher,
		mailer:          deps.Mailer,
		composer:        deps.Composer,
		recorder:        deps.Recorder,
		logger:          logger,
		confirmationTTL: deps.ConfirmationTTL,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountConfirmation, n.handleAccountConfirmation)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketInProcess, n.handleTicketEvent)
	n.dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketEvent)
}

func (n *NotificationService) handleAccountConfirmation(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AccountConfirmationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return n.deliver(ctx, event, func(r events.Recipient) (notify.Message, error) {
		return n.composer.ConfirmAccount(r.Email, r.Name, payload.Code, n.confirmationTTL)
	})
}

func (n *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info(string(event.Type),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Int("recipients", len(event.Recipients)),
	)

	return n.deliver(ctx, event, func(r events.Recipient) (notify.Message, error) {
		switch event.Type {
		case events.EventTicketCreated:
			return n.composer.TicketCreated(r.Email, r.Name, event.Actor.Name, event.TicketID, payload.Title, payload.Description)
		case events.EventTicketAssigned:
			return n.composer.TicketAssigned(r.Email, r.Name, event.Actor.Name, event.TicketID, payload.Title)
		case events.EventTicketInProcess:
			return n.composer.TicketInProcess(r.Email, r.Name, event.Actor.Name, event.TicketID, payload.Title, payload.DueDate)
		case events.EventTicketClosed:
			return n.composer.TicketClosed(r.Email, r.Name, payload.AssigneeName, event.TicketID, payload.Title)
		default:
			return notify.Message{}, fmt.Errorf("no email for event %s", event.Type)
		}
	})
}

// deliver sends one message per recipient. A failed recipient does not stop the others.
func (n *NotificationService) deliver(ctx context.Context, event events.Event, compose func(events.Recipient) (notify.Message, error)) error {
	var errs []error
	for _, recipient := range event.Recipients {
		msg, err := compose(recipient)
		if err == nil {
			err = n.mailer.Send(ctx, msg)
		}

		switch {
		case err == nil:
			n.record(event.Type, "sent")
		case errors.Is(err, notify.ErrSkipped):
			n.record(event.Type, "skipped")
		default:
			n.record(event.Type, "failed")
			errs = append(errs, fmt.Errorf("notify %s: %w", recipient.Email, err))
		}
	}
	return errors.Join(errs...)
}

func (n *NotificationService) record(eventType events.EventType, outcome string) {
	if n.recorder != nil {
		n.recorder.RecordNotification(string(eventType), outcome)
	}
}
