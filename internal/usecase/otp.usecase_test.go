package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/domain"
	"github.com/algobasket/hissabbook-api-system/internal/service/phone"
	"github.com/algobasket/hissabbook-api-system/pkg/utils/id"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

// fakeOTPStore keeps records in memory in insertion order, which is also
// creation order, so the last element is the latest.
type fakeOTPStore struct {
	records   []*domain.OTP
	createErr error
	latestErr error
	markErr   error
}

func (s *fakeOTPStore) Create(ctx context.Context, o *domain.OTP) error {
	if s.createErr != nil {
		return s.createErr
	}
	cp := *o
	s.records = append(s.records, &cp)
	return nil
}

func (s *fakeOTPStore) LatestByIdentity(ctx context.Context, identity string) (*domain.OTP, error) {
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Identity == identity {
			cp := *s.records[i]
			return &cp, nil
		}
	}
	return nil, xerrors.ErrOtpNotFound
}

func (s *fakeOTPStore) MarkUsed(ctx context.Context, otpID string) (bool, error) {
	if s.markErr != nil {
		return false, s.markErr
	}
	for _, rec := range s.records {
		if rec.ID == otpID {
			if rec.Used {
				return false, nil
			}
			rec.Used = true
			return true, nil
		}
	}
	return false, nil
}

type fakeSender struct {
	calls    int
	lastDest string
	lastCode string
	err      error
}

func (f *fakeSender) Send(ctx context.Context, destination, code string, ttl time.Duration) (string, error) {
	f.calls++
	f.lastDest = destination
	f.lastCode = code
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakeLimiter struct {
	err   error
	calls int
}

func (f *fakeLimiter) CanRequest(ctx context.Context, identity string) error {
	f.calls++
	return f.err
}

// raceStore serves reads normally but always loses the conditional flip,
// as when a concurrent submission wins between the read and the write.
type raceStore struct {
	fakeOTPStore
}

func (s *raceStore) MarkUsed(ctx context.Context, otpID string) (bool, error) {
	return false, nil
}

func newTestOTPUseCase(t *testing.T, store OTPStore, limiter *fakeLimiter, smsSender, emailSender *fakeSender) *OTPUseCase {
	t.Helper()
	sf, err := id.NewSnowflake(1)
	require.NoError(t, err)
	return NewOTPUseCase(
		store, limiter, sf,
		phone.NewNormalizer("91"),
		smsSender, emailSender,
		5*time.Minute, 6,
		zap.NewNop(),
	)
}

func TestRequestPhoneOTPStoresAfterSend(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	identity, expiresAt, err := uc.RequestPhoneOTP(context.Background(), "09876543210")
	require.NoError(t, err)

	assert.Equal(t, "919876543210", identity)
	assert.Equal(t, 1, smsSender.calls)
	assert.Len(t, smsSender.lastCode, 6)
	require.Len(t, store.records, 1)

	rec := store.records[0]
	assert.Equal(t, "919876543210", rec.Identity)
	assert.Equal(t, domain.ChannelSMS, rec.Channel)
	assert.Equal(t, smsSender.lastCode, rec.Code)
	assert.False(t, rec.Used)
	assert.WithinDuration(t, expiresAt, rec.ExpiresAt, time.Second)
}

func TestRequestPhoneOTPRejectsBadNumber(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "98765")
	assert.ErrorIs(t, err, xerrors.ErrInvalidPhone)
	assert.Zero(t, smsSender.calls)
	assert.Empty(t, store.records)
}

func TestRequestOTPSendFailureStoresNothing(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{err: xerrors.ErrChannelSend}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, xerrors.ErrChannelSend)
	assert.Empty(t, store.records)

	// Nothing was stored, so a verify for this identity finds no code at all.
	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", "123456")
	assert.ErrorIs(t, err, xerrors.ErrOtpNotFound)
}

func TestRequestOTPLimiterBlocksBeforeSend(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	limiter := &fakeLimiter{err: xerrors.ErrTooManyOTPRequests}
	uc := newTestOTPUseCase(t, store, limiter, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, xerrors.ErrTooManyOTPRequests)
	assert.Zero(t, smsSender.calls)
	assert.Empty(t, store.records)
}

func TestRequestEmailOTPNormalizesIdentity(t *testing.T) {
	store := &fakeOTPStore{}
	emailSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, &fakeSender{}, emailSender)

	identity, _, err := uc.RequestEmailOTP(context.Background(), "  User@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", identity)
	assert.Equal(t, "user@example.com", emailSender.lastDest)

	_, _, err = uc.RequestEmailOTP(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, xerrors.ErrInvalidEmailFormat)
}

func TestVerifyOTPRoundTrip(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)

	// Different spelling of the same number reaches the same record.
	identity, err := uc.VerifyPhoneOTP(context.Background(), "+91 98765 43210", smsSender.lastCode)
	require.NoError(t, err)
	assert.Equal(t, "919876543210", identity)

	// A code is spent by its first successful verification.
	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", smsSender.lastCode)
	assert.ErrorIs(t, err, xerrors.ErrOtpAlreadyUsed)
}

func TestVerifyOTPMismatchDoesNotConsume(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == smsSender.lastCode {
		wrong = "000001"
	}
	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", wrong)
	assert.ErrorIs(t, err, xerrors.ErrOtpMismatch)

	// The right code still works afterwards.
	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", smsSender.lastCode)
	assert.NoError(t, err)
}

func TestVerifyOTPExpired(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	store.records[0].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", smsSender.lastCode)
	assert.ErrorIs(t, err, xerrors.ErrOtpExpired)
}

func TestVerifyOTPUsedWinsOverExpired(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	store.records[0].Used = true
	store.records[0].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", smsSender.lastCode)
	assert.ErrorIs(t, err, xerrors.ErrOtpAlreadyUsed)
}

func TestVerifyOTPExpiredWinsOverMismatch(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	store.records[0].ExpiresAt = time.Now().Add(-time.Minute)

	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", "999999")
	assert.ErrorIs(t, err, xerrors.ErrOtpExpired)
}

func TestVerifyOTPOnlyLatestCounts(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	firstCode := smsSender.lastCode

	_, _, err = uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	secondCode := smsSender.lastCode
	if firstCode == secondCode {
		t.Skip("random codes collided")
	}

	// The superseded code no longer verifies even though its record exists.
	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", firstCode)
	assert.ErrorIs(t, err, xerrors.ErrOtpMismatch)

	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", secondCode)
	assert.NoError(t, err)
}

func TestVerifyOTPIdentityScopes(t *testing.T) {
	store := &fakeOTPStore{}
	smsSender := &fakeSender{}
	emailSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, emailSender)

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	phoneCode := smsSender.lastCode

	_, _, err = uc.RequestEmailOTP(context.Background(), "user@example.com")
	require.NoError(t, err)
	if phoneCode == emailSender.lastCode {
		t.Skip("random codes collided")
	}

	// A phone code never verifies against an email identity.
	_, err = uc.VerifyEmailOTP(context.Background(), "user@example.com", phoneCode)
	assert.ErrorIs(t, err, xerrors.ErrOtpMismatch)

	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", phoneCode)
	assert.NoError(t, err)
}

func TestVerifyOTPLostRace(t *testing.T) {
	store := &raceStore{}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	require.NoError(t, err)

	// The read sees an unused record, the conditional write then finds it
	// already taken. The caller is told the code was spent.
	_, err = uc.VerifyPhoneOTP(context.Background(), "9876543210", smsSender.lastCode)
	assert.ErrorIs(t, err, xerrors.ErrOtpAlreadyUsed)
}

func TestVerifyOTPStoreErrorIsWrapped(t *testing.T) {
	store := &fakeOTPStore{latestErr: errors.New("connection refused")}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, &fakeSender{}, &fakeSender{})

	_, err := uc.VerifyPhoneOTP(context.Background(), "9876543210", "123456")
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)
}

func TestRequestOTPPersistFailureSurfaces(t *testing.T) {
	store := &fakeOTPStore{createErr: errors.New("connection refused")}
	smsSender := &fakeSender{}
	uc := newTestOTPUseCase(t, store, &fakeLimiter{}, smsSender, &fakeSender{})

	_, _, err := uc.RequestPhoneOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, xerrors.ErrStoreUnavailable)
	// The send already happened; only persistence failed.
	assert.Equal(t, 1, smsSender.calls)
}
