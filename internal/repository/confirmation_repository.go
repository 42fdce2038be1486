package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ConfirmationTokenRepository stores one-time account confirmation codes.
// Expiry is enforced by the store itself; an expired code is indistinguishable
// from one that never existed.
type ConfirmationTokenRepository interface {
	// Create stores the token. It returns ErrDuplicate if the code is live already.
	Create(ctx context.Context, token *domain.ConfirmationToken) error
	// Consume atomically fetches and deletes the token, returning ErrNotFound if absent or expired.
	Consume(ctx context.Context, code string) (*domain.ConfirmationToken, error)
}

type redisConfirmationRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type confirmationRecord struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewConfirmationTokenRepository returns a Redis-backed implementation using key TTLs.
func NewConfirmationTokenRepository(client *redis.Client, prefix string, ttl time.Duration) ConfirmationTokenRepository {
	return &redisConfirmationRepository{client: client, prefix: prefix + "confirm:", ttl: ttl}
}

func (r *redisConfirmationRepository) Create(ctx context.Context, token *domain.ConfirmationToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(confirmationRecord{UserID: token.UserID, CreatedAt: token.CreatedAt})
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.prefix+token.Token, payload, r.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *redisConfirmationRepository) Consume(ctx context.Context, code string) (*domain.ConfirmationToken, error) {
	raw, err := r.client.GetDel(ctx, r.prefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec confirmationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &domain.ConfirmationToken{Token: code, UserID: rec.UserID, CreatedAt: rec.CreatedAt}, nil
}
