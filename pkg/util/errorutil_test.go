package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain passthrough", NewForbidden("nope"), "FORBIDDEN", http.StatusForbidden},
		{"wrapped domain", fmt.Errorf("ctx: %w", NewConflict("dup", nil)), "CONFLICT", http.StatusConflict},
		{"no rows", pgx.ErrNoRows, "NOT_FOUND", http.StatusNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, "CONFLICT", http.StatusConflict},
		{"fiber error", fiber.NewError(http.StatusBadRequest, "bad body"), "VALIDATION_FAILED", http.StatusBadRequest},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	got := ToDomainError(errors.New("password=hunter2 leaked"))
	assert.Equal(t, "internal server error", got.Message)
	assert.ErrorContains(t, got, "hunter2", "cause stays available for server-side logs")
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewUnauthorized("x"), "UNAUTHORIZED"))
	assert.False(t, IsCode(errors.New("x"), "UNAUTHORIZED"))
	assert.Nil(t, MapError(nil))
}
