package utils

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizePhone strips a leading +91 country code and every non-digit character
func NormalizePhone(phone string) string {
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+91")
	return nonDigits.ReplaceAllString(phone, "")
}

// IsValidPhone reports whether phone normalizes to exactly 10 digits
func IsValidPhone(phone string) bool {
	return len(NormalizePhone(phone)) == 10
}
