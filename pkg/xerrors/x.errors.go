package xerrors

import "errors"
import "github.com/jackc/pgx/v5/pgconn"

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")

	// Database connectivity, surfaced to callers as a generic failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Registration / Login
var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrPhoneAlreadyInUse  = errors.New("phone already in use")
	ErrPasswordAlreadySet = errors.New("password already set")
	ErrPasswordNotSet     = errors.New("password not set")

	ErrIdentifierRequired = errors.New("identifier required")
	ErrEmailRequired      = errors.New("email required")
	ErrPasswordRequired   = errors.New("password required")

	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// Phone normalization
var (
	ErrInvalidPhone = errors.New("invalid phone number")
)

// OTP lifecycle. NotFound, AlreadyUsed, Expired and Mismatch map to
// distinct user-facing messages and are never conflated.
var (
	ErrOtpNotFound        = errors.New("no otp issued for this identity")
	ErrOtpAlreadyUsed     = errors.New("otp already used")
	ErrOtpExpired         = errors.New("otp expired")
	ErrOtpMismatch        = errors.New("incorrect otp")
	ErrTooManyOTPRequests = errors.New("too many otp requests")
	ErrOTPBlocked         = errors.New("otp temporarily blocked")
	ErrInvalidChannel     = errors.New("invalid channel")
)

// Channel delivery
var (
	ErrChannelSend = errors.New("delivery channel failure")
)

// Account state
var (
	ErrAccountDeleted   = errors.New("account deleted")
	ErrAccountSuspended = errors.New("account suspended")
	ErrAccountBanned    = errors.New("account banned")
)

// Password rules
var (
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidOldPassword  = errors.New("invalid old password")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must not exceed 100 characters")
	ErrPasswordUppercase   = errors.New("password must include at least one uppercase letter")
	ErrPasswordLowercase   = errors.New("password must include at least one lowercase letter")
	ErrPasswordDigit       = errors.New("password must include at least one digit")
	ErrPasswordSpecialChar = errors.New("password must include at least one special character")
)

// Token
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)
