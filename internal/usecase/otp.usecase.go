package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/internal/service/phone"
	"github.com/algobasket/hissabbook-api-system/pkg/utils"
	"github.com/algobasket/hissabbook-api-system/pkg/utils/id"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

// ChannelSender delivers one code to one destination and reports the
// provider message id. Senders never retry.
type ChannelSender interface {
	Send(ctx context.Context, destination, code string, ttl time.Duration) (string, error)
}

// OTPStore is the persistence the code lifecycle needs.
type OTPStore interface {
	Create(ctx context.Context, o *domain.OTP) error
	LatestByIdentity(ctx context.Context, identity string) (*domain.OTP, error)
	MarkUsed(ctx context.Context, id string) (bool, error)
}

// RequestLimiter throttles issuance per identity.
type RequestLimiter interface {
	CanRequest(ctx context.Context, identity string) error
}

type OTPUseCase struct {
	store       OTPStore
	limiter     RequestLimiter
	sf          *id.Snowflake
	normalizer  *phone.Normalizer
	smsSender   ChannelSender
	emailSender ChannelSender
	ttl         time.Duration
	digits      int
	logger      *zap.Logger
}

func NewOTPUseCase(
	store OTPStore,
	limiter RequestLimiter,
	sf *id.Snowflake,
	normalizer *phone.Normalizer,
	smsSender ChannelSender,
	emailSender ChannelSender,
	ttl time.Duration,
	digits int,
	logger *zap.Logger,
) *OTPUseCase {
	return &OTPUseCase{
		store:       store,
		limiter:     limiter,
		sf:          sf,
		normalizer:  normalizer,
		smsSender:   smsSender,
		emailSender: emailSender,
		ttl:         ttl,
		digits:      digits,
		logger:      logger,
	}
}

// RequestPhoneOTP issues a code over SMS. The record is persisted only
// after the provider accepts the send, so a stored code has always actually
// left the building.
func (uc *OTPUseCase) RequestPhoneOTP(ctx context.Context, rawPhone string) (string, time.Time, error) {
	identity, err := uc.normalizer.Normalize(rawPhone)
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt, err := uc.issue(ctx, domain.ChannelSMS, identity, uc.smsSender)
	return identity, expiresAt, err
}

// RequestEmailOTP issues a code over email, keyed by the case-folded
// address.
func (uc *OTPUseCase) RequestEmailOTP(ctx context.Context, rawEmail string) (string, time.Time, error) {
	if !utils.ValidateEmail(rawEmail) {
		return "", time.Time{}, xerrors.ErrInvalidEmailFormat
	}
	identity := utils.NormalizeEmail(rawEmail)
	expiresAt, err := uc.issue(ctx, domain.ChannelEmail, identity, uc.emailSender)
	return identity, expiresAt, err
}

func (uc *OTPUseCase) issue(ctx context.Context, channel domain.Channel, identity string, sender ChannelSender) (time.Time, error) {
	if err := uc.limiter.CanRequest(ctx, identity); err != nil {
		return time.Time{}, err
	}

	code, err := utils.RandomCode(uc.digits)
	if err != nil {
		return time.Time{}, err
	}

	providerID, err := sender.Send(ctx, identity, code, uc.ttl)
	if err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	otp := &domain.OTP{
		ID:        uc.sf.Generate(),
		Identity:  identity,
		Channel:   channel,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
		Used:      false,
		UpdatedAt: now,
	}
	if err := uc.store.Create(ctx, otp); err != nil {
		// The destination already received a code we cannot verify. Log
		// the window; the caller sees a failure and can re-request.
		uc.logger.Error("failed to persist otp after successful send",
			zap.String("identity", utils.MaskIdentity(identity)),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return time.Time{}, fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
	}

	uc.logger.Info("otp issued",
		zap.String("identity", utils.MaskIdentity(identity)),
		zap.String("channel", string(channel)),
		zap.String("provider_id", providerID),
		zap.Time("expires_at", otp.ExpiresAt))

	return otp.ExpiresAt, nil
}

// VerifyPhoneOTP checks a code presented for a phone identity.
func (uc *OTPUseCase) VerifyPhoneOTP(ctx context.Context, rawPhone, code string) (string, error) {
	identity, err := uc.normalizer.Normalize(rawPhone)
	if err != nil {
		return "", err
	}
	return identity, uc.verify(ctx, identity, code)
}

// VerifyEmailOTP checks a code presented for an email identity.
func (uc *OTPUseCase) VerifyEmailOTP(ctx context.Context, rawEmail, code string) (string, error) {
	if !utils.ValidateEmail(rawEmail) {
		return "", xerrors.ErrInvalidEmailFormat
	}
	identity := utils.NormalizeEmail(rawEmail)
	return identity, uc.verify(ctx, identity, code)
}

// verify walks the state machine against the latest record. The check
// order is load-bearing: used wins over expired, expired wins over
// mismatch. The final conditional mark makes the whole sequence atomic;
// of N concurrent correct submissions exactly one passes.
func (uc *OTPUseCase) verify(ctx context.Context, identity, code string) error {
	rec, err := uc.store.LatestByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, xerrors.ErrOtpNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
	}

	if rec.Used {
		return xerrors.ErrOtpAlreadyUsed
	}
	if rec.Expired(time.Now()) {
		return xerrors.ErrOtpExpired
	}
	if rec.Code != code {
		return xerrors.ErrOtpMismatch
	}

	flipped, err := uc.store.MarkUsed(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", xerrors.ErrStoreUnavailable, err)
	}
	if !flipped {
		// Someone else spent this code between our read and our write.
		return xerrors.ErrOtpAlreadyUsed
	}

	uc.logger.Info("otp verified", zap.String("identity", utils.MaskIdentity(identity)))
	return nil
}
