package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type usersByID map[string]*domain.User

func (u usersByID) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func newProtectedApp(tm *TokenManager, users UserLoader) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(err.Error())
		},
	})
	mw := NewAuthMiddleware(tm, users)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		actor, err := RequireActor(c)
		if err != nil {
			return err
		}
		if actor.PasswordHash != "" {
			return errors.New("password hash leaked into context")
		}
		return c.SendString(actor.ID)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	users := usersByID{"u-1": {ID: "u-1", PasswordHash: "hash"}}
	app := newProtectedApp(tm, users)

	valid, _, err := tm.GenerateToken("u-1")
	require.NoError(t, err)
	orphan, _, err := tm.GenerateToken("u-404")
	require.NoError(t, err)

	expiredMgr := NewTokenManager("secret", time.Hour)
	expiredMgr.now = fixedClock(time.Now().Add(-2 * time.Hour))
	expired, _, err := expiredMgr.GenerateToken("u-1")
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		status int
	}{
		"valid":        {"Bearer " + valid, http.StatusOK},
		"lowercase":    {"bearer " + valid, http.StatusOK},
		"missing":      {"", http.StatusUnauthorized},
		"wrong scheme": {"Basic " + valid, http.StatusUnauthorized},
		"empty token":  {"Bearer   ", http.StatusUnauthorized},
		"garbage":      {"Bearer abc.def.ghi", http.StatusUnauthorized},
		"expired":      {"Bearer " + expired, http.StatusUnauthorized},
		"deleted user": {"Bearer " + orphan, http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireActorWithoutMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := RequireActor(c)
		return c.SendString(apperrors.ToDomainError(err).Code)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "UNAUTHORIZED", string(body[:n]))
}
