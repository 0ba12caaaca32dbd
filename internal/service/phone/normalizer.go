package phone

import (
	"fmt"
	"strings"

	"github.com/algobasket/hissabbook-api-system/pkg/xerrors"
)

// Normalizer maps raw user-entered phone strings to a canonical digit
// string for a single country calling-code scheme. It is best-effort for
// foreign numbers: anything that does not match the local patterns passes
// through to a plain length check.
type Normalizer struct {
	prefix string // country calling code, digits only
}

func NewNormalizer(countryPrefix string) *Normalizer {
	return &Normalizer{prefix: countryPrefix}
}

// Normalize strips non-digits and applies, in order: an 11-digit number
// with a leading zero has the zero replaced by the country prefix; a
// 10-digit number gets the prefix prepended; a 12-digit number already
// starting with the prefix is accepted unchanged; anything longer than 15
// digits is rejected. The result must land on 10 to 15 digits.
func (n *Normalizer) Normalize(raw string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	cleaned := b.String()

	if len(cleaned) < 10 {
		return "", invalid(raw, len(cleaned))
	}

	switch {
	case len(cleaned) == 11 && cleaned[0] == '0':
		cleaned = n.prefix + cleaned[1:]
	case len(cleaned) == 10:
		cleaned = n.prefix + cleaned
	case strings.HasPrefix(cleaned, n.prefix) && len(cleaned) == 12:
		// already canonical
	case len(cleaned) > 15:
		return "", invalid(raw, len(cleaned))
	}

	if len(cleaned) < 10 || len(cleaned) > 15 {
		return "", invalid(raw, len(cleaned))
	}
	return cleaned, nil
}

func invalid(raw string, digits int) error {
	return fmt.Errorf("%w: %q has %d digits", xerrors.ErrInvalidPhone, raw, digits)
}
