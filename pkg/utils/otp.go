package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RandomCode returns a numeric code of the given length drawn uniformly
// from [10^(digits-1), 10^digits - 1], so the first digit is never zero.
// Collisions across outstanding codes are accepted as negligible.
func RandomCode(digits int) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("otp length must be positive, got %d", digits)
	}
	min := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	span := new(big.Int).Mul(min, big.NewInt(9)) // 9 * 10^(digits-1) values
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("random code: %w", err)
	}
	return n.Add(n, min).String(), nil
}

// FormatPurpose turns "login_verification" into "Login Verification" for
// message bodies.
func FormatPurpose(purpose string) string {
	p := strings.ReplaceAll(purpose, "_", " ")
	return cases.Title(language.English).String(p)
}
