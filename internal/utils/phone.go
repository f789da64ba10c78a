package utils

import (
	"strings"
)

// NormalizePhone converts a locally formatted phone number to E.164 by
// stripping spaces and leading zeros and prefixing the country code.
// Numbers that already carry a "+" prefix are returned unchanged. The same
// normalization is applied at OTP issuance and at delivery so the student
// always sees the number the SMS actually went to.
func NormalizePhone(raw, countryCode string) string {
	phone := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if phone == "" {
		return phone
	}
	if strings.HasPrefix(phone, "+") {
		return phone
	}

	phone = strings.TrimLeft(phone, "0")
	return countryCode + phone
}
