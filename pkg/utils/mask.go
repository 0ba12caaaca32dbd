package utils

import (
	"fmt"
	"strings"
)

// MaskIdentity hides most of a phone or email for log and response use.
// Emails keep the first and last local characters, phones the last 4
// digits.
func MaskIdentity(identity string) string {
	if strings.Contains(identity, "@") {
		parts := strings.Split(identity, "@")
		if len(parts) != 2 {
			return identity
		}
		local, domain := parts[0], parts[1]
		if len(local) <= 2 {
			return "***@" + domain
		}
		return fmt.Sprintf("%c*****%c@%s", local[0], local[len(local)-1], domain)
	}

	// Phone: show only last 4 digits
	if len(identity) > 4 {
		return "****" + identity[len(identity)-4:]
	}
	return "****"
}
