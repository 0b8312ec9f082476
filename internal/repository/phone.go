package repository

import "strings"

// NormalizePhone reduces a phone number to its digits: first the usual
// formatting characters (+, spaces, hyphens, parens), then anything else
// that is not a digit. Empty input yields empty output; callers treat empty
// as invalid. The result is stable under repeated normalization.
func NormalizePhone(phone string) string {
	if phone == "" {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '+', ' ', '\t', '-', '(', ')':
			return -1
		}
		return r
	}, phone)

	var b strings.Builder
	for _, r := range cleaned {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SenderDigits extracts a sender identity from a raw sender field: digits
// only, leading zeros stripped, accepted only in the 7-15 digit range
// (E.164 without the plus). Returns "" when the value does not qualify.
func SenderDigits(raw string) string {
	digits := NormalizePhone(raw)
	digits = strings.TrimLeft(digits, "0")
	if len(digits) < 7 || len(digits) > 15 {
		return ""
	}
	return digits
}
