package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts the identity, converging on the existing row when the
// email is already taken. The upsert makes concurrent creation idempotent:
// the second caller is handed the winner's row instead of an error or a
// duplicate. The returned bool reports whether this call created the row.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	insertQuery := `
		INSERT INTO users (id, email, password_hash, status, created_at, last_login_at)
		VALUES ($1, $2, $3, 'active', NOW(), NOW())
		ON CONFLICT (email)
		DO UPDATE SET email = EXCLUDED.email
		RETURNING id, email, password_hash, status, created_at, last_login_at
	`

	var saved domain.User
	err := r.db.QueryRow(
		ctx, insertQuery,
		user.ID,
		user.Email,
		nullOrNilPtr(user.PasswordHash),
	).Scan(
		&saved.ID, &saved.Email, &saved.PasswordHash,
		&saved.Status, &saved.CreatedAt, &saved.LastLoginAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	return &saved, saved.ID == user.ID, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	const q = `
		SELECT id, email, password_hash, status, created_at, last_login_at
		FROM users
		WHERE id = $1 AND status != 'deleted'
		LIMIT 1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, q, userID).Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.Status, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail looks up by the case-folded email. Callers normalize
// before calling.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `
		SELECT id, email, password_hash, status, created_at, last_login_at
		FROM users
		WHERE email = $1 AND status != 'deleted'
		LIMIT 1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, q, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.Status, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByPhone resolves through the secondary profile record, where the
// normalized phone lives.
func (r *UserRepository) GetUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	const q = `
		SELECT u.id, u.email, u.password_hash, u.status, u.created_at, u.last_login_at
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE p.phone = $1 AND u.status != 'deleted'
		LIMIT 1
	`

	var user domain.User
	err := r.db.QueryRow(ctx, q, phone).Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&user.Status, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE users SET last_login_at = NOW()
		WHERE id = $1 AND status != 'deleted'
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

// SetPassword claims a passwordless account or rotates a credential.
func (r *UserRepository) SetPassword(ctx context.Context, userID, hash string) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $1
		WHERE id = $2 AND status != 'deleted'
	`, hash, userID)
	if err != nil {
		return fmt.Errorf("failed to set password for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrUserNotFound
	}
	return nil
}

func nullOrNilPtr(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
