package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

type ProfileRepository struct {
	db DB
}

func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert writes the profile row, merging per field: an absent (nil) field
// never overwrites a stored value.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, first_name, last_name, phone, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET
			first_name = COALESCE(EXCLUDED.first_name, user_profiles.first_name),
			last_name  = COALESCE(EXCLUDED.last_name,  user_profiles.last_name),
			phone      = COALESCE(EXCLUDED.phone,      user_profiles.phone),
			updated_at = NOW()
	`, p.UserID, nullOrNilPtr(p.FirstName), nullOrNilPtr(p.LastName), nullOrNilPtr(p.Phone))
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == pgUniqueViolation {
			return fmt.Errorf("%w: %s", xerrors.ErrPhoneAlreadyInUse, deref(p.Phone))
		}
		return fmt.Errorf("failed to upsert profile for user %s: %w", p.UserID, err)
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx, `
		SELECT user_id, first_name, last_name, phone, updated_at
		FROM user_profiles
		WHERE user_id = $1
		LIMIT 1
	`, userID).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update merges the caller's changed fields into the stored row. Nil fields
// keep their stored values.
func (r *ProfileRepository) Update(ctx context.Context, userID string, upd domain.ProfileUpdate) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE user_profiles
		SET first_name = COALESCE($2, first_name),
		    last_name  = COALESCE($3, last_name),
		    phone      = COALESCE($4, phone),
		    updated_at = NOW()
		WHERE user_id = $1
	`, userID, nullOrNilPtr(upd.FirstName), nullOrNilPtr(upd.LastName), nullOrNilPtr(upd.Phone))
	if err != nil {
		if xerrors.ParsePGErrorCode(err) == pgUniqueViolation {
			return fmt.Errorf("%w: %s", xerrors.ErrPhoneAlreadyInUse, deref(upd.Phone))
		}
		return fmt.Errorf("failed to update profile for user %s: %w", userID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
