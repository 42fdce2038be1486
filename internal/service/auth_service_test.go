package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func TestRegisterHashesPasswordAndRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, err := h.auth.Register(ctx, RegisterInput{Name: " Ana ", LastName: "Diaz", Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.False(t, u.IsConfirmed)
	assert.True(t, u.IsActive)
	assert.Equal(t, []domain.Capability{domain.CapabilityDefault}, u.Permissions)

	stored, err := h.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "secret1"))

	_, err = h.auth.Register(ctx, RegisterInput{Name: "Ana", LastName: "Diaz", Email: "ANA@example.com", Password: "secret1"})
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"missing name":   {LastName: "Diaz", Email: "a@example.com", Password: "secret1"},
		"blank lastName": {Name: "Ana", LastName: "   ", Email: "a@example.com", Password: "secret1"},
		"bad email":      {Name: "Ana", LastName: "Diaz", Email: "not-an-email", Password: "secret1"},
		"short password": {Name: "Ana", LastName: "Diaz", Email: "a@example.com", Password: "12345"},
		"long password":  {Name: "Ana", LastName: "Diaz", Email: "a@example.com", Password: strings.Repeat("x", 73)},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.auth.Register(ctx, input)
			assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "got %v", err)
		})
	}
}

func TestRegisterAcceptsLongestHashablePassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.auth.Register(context.Background(), RegisterInput{
		Name: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: strings.Repeat("x", 72),
	})
	assert.NoError(t, err)
}

func TestRegisterChecksExistingEmailBeforeFormat(t *testing.T) {
	h := newHarness(t)
	h.user(t, "ana@example.com")

	_, err := h.auth.Register(context.Background(), RegisterInput{Name: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: "123"})
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestRegisterSendsConfirmationCode(t *testing.T) {
	h := newHarness(t)

	u, err := h.auth.Register(context.Background(), RegisterInput{Name: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	event := h.events.last(t)
	assert.Equal(t, events.EventAccountConfirmation, event.Type)
	assert.Equal(t, []events.Recipient{{Name: "Ana Diaz", Email: "ana@example.com"}}, event.Recipients)
	assert.Equal(t, u.ID, event.Actor.UserID)

	code := event.Payload.(events.AccountConfirmationPayload).Code
	assert.Len(t, code, 6)
	assert.GreaterOrEqual(t, code, "100000")
	assert.LessOrEqual(t, code, "999999")
}

func TestConfirmAccountIsSingleUse(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u, err := h.auth.Register(ctx, RegisterInput{Name: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	code := h.events.codes()[0]

	require.NoError(t, h.auth.ConfirmAccount(ctx, code))
	stored, err := h.store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsConfirmed)

	err = h.auth.ConfirmAccount(ctx, code)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestConfirmAccountRejectsEmptyAndUnknown(t *testing.T) {
	h := newHarness(t)

	assert.True(t, apperrors.IsCode(h.auth.ConfirmAccount(context.Background(), "  "), "VALIDATION_FAILED"))
	assert.True(t, apperrors.IsCode(h.auth.ConfirmAccount(context.Background(), "000000"), "NOT_FOUND"))
}

func TestConfirmAccountRejectsExpiredCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.auth.Register(ctx, RegisterInput{Name: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	h.now = h.now.Add(10*time.Minute + time.Second)

	err = h.auth.ConfirmAccount(ctx, h.events.codes()[0])
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestLoginIssuesThirtyDayToken(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana@example.com")

	user, token, exp, err := h.auth.Login(context.Background(), "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)

	claims := parseSession(t, token)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, 30*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.True(t, exp.Equal(claims.ExpiresAt.Time))
}

func TestLoginUnconfirmedSendsNewCode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.auth.Register(ctx, RegisterInput{Name: "Ana", LastName: "Diaz", Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)
	first := h.events.codes()[0]

	user, token, _, err := h.auth.Login(ctx, "ana@example.com", "secret1")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	assert.Nil(t, user)
	assert.Empty(t, token)

	codes := h.events.codes()
	require.Len(t, codes, 2)
	assert.NotEqual(t, first, codes[1])

	require.NoError(t, h.auth.ConfirmAccount(ctx, codes[1]))
	_, token, _, err = h.auth.Login(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "ana@example.com")

	_, _, _, err := h.auth.Login(ctx, "", "secret1")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, _, _, err = h.auth.Login(ctx, "nobody@example.com", "secret1")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	_, _, _, err = h.auth.Login(ctx, "ana@example.com", "wrong-password")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	u.IsActive = false
	require.NoError(t, h.store.Users().Update(ctx, u))
	_, _, _, err = h.auth.Login(ctx, "ana@example.com", "secret1")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestMintConfirmationRetriesOnCollision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "ana@example.com")

	require.NoError(t, h.confirmations.Create(ctx, &domain.ConfirmationToken{Token: "111111", UserID: "someone-else"}))
	queue := []string{"111111", "111111", "222222"}
	h.auth.newCode = func() (string, error) {
		code := queue[0]
		queue = queue[1:]
		return code, nil
	}

	code, err := h.auth.mintConfirmation(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "222222", code)

	h.auth.newCode = func() (string, error) { return "111111", nil }
	_, err = h.auth.mintConfirmation(ctx, u.ID)
	assert.Error(t, err)

	h.auth.newCode = func() (string, error) { return "", errors.New("entropy exhausted") }
	_, err = h.auth.mintConfirmation(ctx, u.ID)
	assert.EqualError(t, err, "entropy exhausted")
}

func TestGenerateConfirmationCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateConfirmationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestSessionUser(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "ana@example.com")

	got, err := h.auth.SessionUser(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	_, err = h.auth.SessionUser(context.Background(), nil)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}
