package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func seedUser(t *testing.T, s *Store, email string, caps ...domain.Capability) *domain.User {
	t.Helper()
	if len(caps) == 0 {
		caps = []domain.Capability{domain.CapabilityDefault}
	}
	u := &domain.User{Name: "Ana", LastName: "Diaz", Email: email, PasswordHash: "hash", Permissions: caps, IsActive: true}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUserEmailUniqueIgnoringCase(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "ana@example.com")

	err := s.Users().Create(context.Background(), &domain.User{Email: "ANA@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := s.Users().GetByEmail(context.Background(), "Ana@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestTicketReadsPopulateProjections(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	creator := seedUser(t, s, "creator@example.com")
	agent := seedUser(t, s, "agent@example.com", domain.CapabilityDefault, domain.CapabilitySupport)

	ticket := &domain.Ticket{Title: "Printer", Status: domain.TicketStatusPending, CreatedByID: creator.ID}
	require.NoError(t, s.Tickets().Create(ctx, ticket))

	ticket.AssignedToID = &agent.ID
	require.NoError(t, s.Tickets().Update(ctx, ticket))

	got, err := s.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CreatedBy)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, creator.Email, got.CreatedBy.Email)
	assert.Equal(t, agent.ID, got.AssignedTo.ID)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestTicketUpdateKeepsCreator(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	creator := seedUser(t, s, "creator@example.com")
	other := seedUser(t, s, "other@example.com")

	ticket := &domain.Ticket{Title: "VPN", Status: domain.TicketStatusPending, CreatedByID: creator.ID}
	require.NoError(t, s.Tickets().Create(ctx, ticket))

	ticket.CreatedByID = other.ID
	require.NoError(t, s.Tickets().Update(ctx, ticket))

	got, err := s.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, creator.ID, got.CreatedByID)
}

func TestTicketListNewestFirstAndFiltered(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := seedUser(t, s, "a@example.com")
	b := seedUser(t, s, "b@example.com")

	for _, owner := range []*domain.User{a, b, a} {
		require.NoError(t, s.Tickets().Create(ctx, &domain.Ticket{Title: owner.Email, Status: domain.TicketStatusPending, CreatedByID: owner.ID}))
	}

	all, err := s.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt))
	}

	mine, err := s.Tickets().List(ctx, repository.TicketFilter{CreatedByID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	counts, err := s.Tickets().CountByStatus(ctx, repository.TicketFilter{CreatedByID: &b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.TicketStatusPending])
}

func TestUserDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	creator := seedUser(t, s, "creator@example.com")
	agent := seedUser(t, s, "agent@example.com", domain.CapabilitySupport)

	own := &domain.Ticket{Title: "mine", Status: domain.TicketStatusPending, CreatedByID: agent.ID}
	assigned := &domain.Ticket{Title: "theirs", Status: domain.TicketStatusPending, CreatedByID: creator.ID, AssignedToID: &agent.ID}
	require.NoError(t, s.Tickets().Create(ctx, own))
	require.NoError(t, s.Tickets().Create(ctx, assigned))

	require.NoError(t, s.Users().Delete(ctx, agent.ID))

	_, err := s.Tickets().GetByID(ctx, own.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := s.Tickets().GetByID(ctx, assigned.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssignedToID)
	assert.Nil(t, got.AssignedTo)
}

func TestListByCapability(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "user@example.com")
	agent := seedUser(t, s, "agent@example.com", domain.CapabilityDefault, domain.CapabilitySupport)

	got, err := s.Users().ListByCapability(context.Background(), domain.CapabilitySupport)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, agent.ID, got[0].ID)
}

func TestConfirmationTokensSingleUseAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewConfirmationTokensWithClock(10*time.Minute, func() time.Time { return now })

	require.NoError(t, store.Create(ctx, &domain.ConfirmationToken{Token: "123456", UserID: "u1"}))
	assert.ErrorIs(t, store.Create(ctx, &domain.ConfirmationToken{Token: "123456", UserID: "u2"}), repository.ErrDuplicate)

	got, err := store.Consume(ctx, "123456")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = store.Consume(ctx, "123456")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, store.Create(ctx, &domain.ConfirmationToken{Token: "222222", UserID: "u3"}))
	now = now.Add(10 * time.Minute)
	_, err = store.Consume(ctx, "222222")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
