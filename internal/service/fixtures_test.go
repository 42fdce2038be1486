package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
)

const testSecret = "test-secret"

// recorder captures every published event in order.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecordingDispatcher() (events.Dispatcher, *recorder) {
	d := events.NewInMemoryDispatcher()
	r := &recorder{}
	for _, t := range []events.EventType{
		events.EventAccountConfirmation,
		events.EventTicketCreated,
		events.EventTicketAssigned,
		events.EventTicketInProcess,
		events.EventTicketClosed,
	} {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
	return d, r
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func (r *recorder) last(t *testing.T) events.Event {
	t.Helper()
	all := r.all()
	require.NotEmpty(t, all)
	return all[len(all)-1]
}

func (r *recorder) codes() []string {
	var out []string
	for _, e := range r.all() {
		if p, ok := e.Payload.(events.AccountConfirmationPayload); ok {
			out = append(out, p.Code)
		}
	}
	return out
}

type harness struct {
	store         *memory.Store
	confirmations *memory.ConfirmationTokens
	events        *recorder
	auth          *AuthService
	tickets       *TicketService
	users         *UserService
	now           time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: memory.NewStore(),
		now:   time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	h.confirmations = memory.NewConfirmationTokensWithClock(10*time.Minute, func() time.Time { return h.now })

	dispatcher, rec := newRecordingDispatcher()
	h.events = rec

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:                   testSecret,
		SessionTokenTTLHours:        30 * 24,
		ConfirmationTokenTTLMinutes: 10,
		BcryptCost:                  4,
	}}
	h.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:         h.store.Users(),
		ConfirmationRepo: h.confirmations,
		Dispatcher:       dispatcher,
	})
	h.tickets = NewTicketService(TicketDependencies{
		TicketRepo: h.store.Tickets(),
		UserRepo:   h.store.Users(),
		Dispatcher: dispatcher,
	})
	h.users = NewUserService(UserDependencies{UserRepo: h.store.Users()})
	return h
}

// user registers and confirms an account holding caps.
func (h *harness) user(t *testing.T, email string, caps ...domain.Capability) *domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := h.auth.Register(ctx, RegisterInput{Name: "Test", LastName: email, Email: email, Password: "secret1"})
	require.NoError(t, err)

	codes := h.events.codes()
	require.NoError(t, h.auth.ConfirmAccount(ctx, codes[len(codes)-1]))

	stored, err := h.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	if len(caps) > 0 {
		stored.Permissions = append(stored.Permissions, caps...)
		require.NoError(t, h.store.Users().Update(ctx, stored))
	}
	return stored
}

func (h *harness) support(t *testing.T, email string) *domain.User {
	return h.user(t, email, domain.CapabilitySupport)
}

func (h *harness) ticket(t *testing.T, actor *domain.User) *domain.Ticket {
	t.Helper()
	ticket, err := h.tickets.Create(context.Background(), actor, TicketInput{
		Title:            "Printer jammed",
		ShortDescription: "Second floor printer",
		Description:      "Paper stuck in tray 2",
		Category:         "hardware",
	})
	require.NoError(t, err)
	return ticket
}

func parseSession(t *testing.T, token string) *auth.Claims {
	t.Helper()
	claims, err := auth.NewTokenManager(testSecret, 0).ParseToken(token)
	require.NoError(t, err)
	return claims
}
