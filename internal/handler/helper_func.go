package handler

import (
	"errors"
	"net/http"

	"github.com/algobasket/hissabbook-api-system/pkg/response"
	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

// writeError maps a usecase error onto an HTTP status. Verification
// failures stay distinguishable in the message so clients can tell a wrong
// code from a spent or stale one.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrInvalidPhone),
		errors.Is(err, xerrors.ErrInvalidEmailFormat),
		errors.Is(err, xerrors.ErrInvalidChannel),
		errors.Is(err, xerrors.ErrIdentifierRequired),
		errors.Is(err, xerrors.ErrEmailRequired),
		errors.Is(err, xerrors.ErrPasswordRequired),
		errors.Is(err, xerrors.ErrPasswordTooShort),
		errors.Is(err, xerrors.ErrPasswordTooLong),
		errors.Is(err, xerrors.ErrPasswordUppercase),
		errors.Is(err, xerrors.ErrPasswordLowercase),
		errors.Is(err, xerrors.ErrPasswordDigit),
		errors.Is(err, xerrors.ErrPasswordSpecialChar),
		errors.Is(err, xerrors.ErrInvalidRequest):
		response.Error(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, xerrors.ErrOtpNotFound),
		errors.Is(err, xerrors.ErrOtpAlreadyUsed),
		errors.Is(err, xerrors.ErrOtpExpired),
		errors.Is(err, xerrors.ErrOtpMismatch):
		response.Error(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, xerrors.ErrOTPBlocked),
		errors.Is(err, xerrors.ErrTooManyOTPRequests):
		response.Error(w, http.StatusTooManyRequests, err.Error())

	case errors.Is(err, xerrors.ErrChannelSend):
		response.Error(w, http.StatusBadGateway, "Failed to send OTP")

	case errors.Is(err, xerrors.ErrStoreUnavailable):
		response.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable")

	case errors.Is(err, xerrors.ErrEmailAlreadyInUse),
		errors.Is(err, xerrors.ErrPhoneAlreadyInUse),
		errors.Is(err, xerrors.ErrUserAlreadyExists):
		response.Error(w, http.StatusConflict, err.Error())

	case errors.Is(err, xerrors.ErrInvalidCredentials),
		errors.Is(err, xerrors.ErrPasswordNotSet):
		response.Error(w, http.StatusUnauthorized, "Invalid credentials")

	case errors.Is(err, xerrors.ErrUnauthorized),
		errors.Is(err, xerrors.ErrInvalidToken),
		errors.Is(err, xerrors.ErrExpiredToken):
		response.Error(w, http.StatusUnauthorized, "Unauthorized")

	case errors.Is(err, xerrors.ErrAccountSuspended),
		errors.Is(err, xerrors.ErrAccountBanned),
		errors.Is(err, xerrors.ErrAccountDeleted):
		response.Error(w, http.StatusForbidden, err.Error())

	case errors.Is(err, xerrors.ErrUserNotFound),
		errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())

	default:
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
