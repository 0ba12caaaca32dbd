package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

type OTPRepository struct {
	db DB
}

func NewOTPRepository(db DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create appends a new record. Prior records for the same identity are left
// untouched; they are superseded because lookups only ever read the latest.
func (r *OTPRepository) Create(ctx context.Context, o *domain.OTP) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_otps (id, identity, channel, code, created_at, expires_at, used, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, o.ID, o.Identity, string(o.Channel), o.Code, o.CreatedAt, o.ExpiresAt, o.Used, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store otp for %s: %w", o.Identity, err)
	}
	return nil
}

// LatestByIdentity returns the most recently created record for the
// identity regardless of used or expired state. Ties on created_at break by
// id, which is time-ordered.
func (r *OTPRepository) LatestByIdentity(ctx context.Context, identity string) (*domain.OTP, error) {
	var o domain.OTP
	var channel string
	err := r.db.QueryRow(ctx, `
		SELECT id, identity, channel, code, created_at, expires_at, used, updated_at
		FROM user_otps
		WHERE identity = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, identity).Scan(&o.ID, &o.Identity, &channel, &o.Code, &o.CreatedAt, &o.ExpiresAt, &o.Used, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrOtpNotFound
		}
		return nil, err
	}
	o.Channel = domain.Channel(channel)
	return &o, nil
}

// MarkUsed flips used from false to true and reports whether this call did
// the flip. Marking an already-used record is not an error; it returns
// false so a verifier can tell it lost a concurrent race.
func (r *OTPRepository) MarkUsed(ctx context.Context, id string) (bool, error) {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE user_otps SET used = TRUE, updated_at = NOW()
		WHERE id = $1 AND used = FALSE
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark otp %s used: %w", id, err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
