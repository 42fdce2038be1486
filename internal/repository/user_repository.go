package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByCapability(ctx context.Context, capability domain.Capability) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, last_name, email, password_hash, permissions, is_active, is_confirmed,
        avatar_url, avatar_public_id, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, last_name, email, password_hash, permissions, is_active, is_confirmed)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.LastName,
		user.Email,
		user.PasswordHash,
		capabilitiesToStrings(user.Permissions),
		user.IsActive,
		user.IsConfirmed,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, last_name=$2, email=$3, password_hash=$4, permissions=$5,
            is_active=$6, is_confirmed=$7, avatar_url=$8, avatar_public_id=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.LastName,
		user.Email,
		user.PasswordHash,
		capabilitiesToStrings(user.Permissions),
		user.IsActive,
		user.IsConfirmed,
		user.Avatar.URL,
		user.Avatar.PublicID,
		user.ID,
	).Scan(&user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email)=LOWER($1)`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListByCapability(ctx context.Context, capability domain.Capability) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE $1 = ANY(permissions) AND is_active ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, string(capability))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		permissions []string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&permissions,
		&user.IsActive,
		&user.IsConfirmed,
		&user.Avatar.URL,
		&user.Avatar.PublicID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Permissions = stringsToCapabilities(permissions)
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func capabilitiesToStrings(caps []domain.Capability) []string {
	out := make([]string, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

func stringsToCapabilities(values []string) []domain.Capability {
	out := make([]domain.Capability, 0, len(values))
	for _, v := range values {
		out = append(out, domain.Capability(v))
	}
	return out
}
