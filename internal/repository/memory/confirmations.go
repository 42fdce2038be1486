package memory

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// ConfirmationTokens keeps confirmation codes in process memory. Expired
// entries are dropped lazily when they are looked at.
type ConfirmationTokens struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]domain.ConfirmationToken
	now    func() time.Time
}

// NewConfirmationTokens creates a store whose codes live for ttl.
func NewConfirmationTokens(ttl time.Duration) *ConfirmationTokens {
	return NewConfirmationTokensWithClock(ttl, func() time.Time { return time.Now().UTC() })
}

// NewConfirmationTokensWithClock is NewConfirmationTokens reading time from now.
func NewConfirmationTokensWithClock(ttl time.Duration, now func() time.Time) *ConfirmationTokens {
	return &ConfirmationTokens{
		ttl:    ttl,
		tokens: make(map[string]domain.ConfirmationToken),
		now:    now,
	}
}

var _ repository.ConfirmationTokenRepository = (*ConfirmationTokens)(nil)

func (c *ConfirmationTokens) Create(_ context.Context, token *domain.ConfirmationToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.tokens[token.Token]; ok && !c.expired(existing) {
		return repository.ErrDuplicate
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = c.now()
	}
	c.tokens[token.Token] = *token
	return nil
}

func (c *ConfirmationTokens) Consume(_ context.Context, code string) (*domain.ConfirmationToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, ok := c.tokens[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(c.tokens, code)
	if c.expired(token) {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (c *ConfirmationTokens) expired(token domain.ConfirmationToken) bool {
	return !c.now().Before(token.CreatedAt.Add(c.ttl))
}
