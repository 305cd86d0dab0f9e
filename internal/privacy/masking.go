package privacy

import (
	"strings"

	"wagate/internal/constants"
)

// MaskPhoneNumber keeps the trailing digits and replaces the rest with
// asterisks, so logs stay correlatable without exposing the full number.
func MaskPhoneNumber(phone string) string {
	if phone == "" {
		return ""
	}

	keep := constants.DefaultPhoneMaskLength
	if len(phone) <= keep {
		return strings.Repeat("*", len(phone))
	}

	return strings.Repeat("*", len(phone)-keep) + phone[len(phone)-keep:]
}
