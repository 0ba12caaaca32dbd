package utils

import (
	"regexp"
	"strings"

	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#\$%\^&\*\(\)_\+\-=\[\]\{\}\\|;:'",.<>\/?]`)
)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// NormalizeEmail case-folds and trims an email for use as an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return xerrors.ErrPasswordTooShort
	}
	if len(password) > 100 {
		return xerrors.ErrPasswordTooLong
	}
	if !upperRegex.MatchString(password) {
		return xerrors.ErrPasswordUppercase
	}
	if !lowerRegex.MatchString(password) {
		return xerrors.ErrPasswordLowercase
	}
	if !digitRegex.MatchString(password) {
		return xerrors.ErrPasswordDigit
	}
	if !specialRegex.MatchString(password) {
		return xerrors.ErrPasswordSpecialChar
	}
	return nil
}
