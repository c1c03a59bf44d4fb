package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dairydesk/milk-orders/internal/domain/auth"
)

const (
	findUserByEmailSQL = `SELECT id, email, password_hash, created_at
		FROM admin_users WHERE email = $1`

	createSessionSQL = `INSERT INTO admin_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	findSessionSQL = `SELECT token_hash, user_id, expires_at, created_at
		FROM admin_sessions WHERE token_hash = $1`

	deleteSessionSQL = `DELETE FROM admin_sessions WHERE token_hash = $1`
)

var _ auth.Repository = (*AuthRepository)(nil)

// AuthRepository implements auth.Repository backed by PostgreSQL.
type AuthRepository struct {
	pool *pgxpool.Pool
}

// NewAuthRepository returns an AuthRepository that uses the given pool.
func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

// FindUserByEmail looks up an admin account by email.
func (r *AuthRepository) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, findUserByEmailSQL, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", email, pgx.ErrNoRows)
		}
		return nil, fmt.Errorf("finding user %q: %w", email, err)
	}
	return &u, nil
}

// CreateSession persists a new session row.
func (r *AuthRepository) CreateSession(ctx context.Context, s *auth.Session) error {
	err := r.pool.QueryRow(ctx, createSessionSQL, s.TokenHash, s.UserID, s.ExpiresAt).
		Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

// FindSessionByTokenHash looks up a session by its token hash.
func (r *AuthRepository) FindSessionByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	var s auth.Session
	err := r.pool.QueryRow(ctx, findSessionSQL, hash).Scan(
		&s.TokenHash, &s.UserID, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session row. Deleting an absent session is a no-op.
func (r *AuthRepository) DeleteSession(ctx context.Context, hash string) error {
	if _, err := r.pool.Exec(ctx, deleteSessionSQL, hash); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
