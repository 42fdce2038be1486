package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), apperrors.IsForeignKeyViolation(err):
		return ErrNotFound
	case apperrors.IsUniqueViolation(err):
		return ErrDuplicate
	default:
		return err
	}
}
