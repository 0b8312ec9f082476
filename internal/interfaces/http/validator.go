package http

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input validation constants
const (
	MaxDeviceAliasLength = 64
	MaxMessageLength     = 4096
	MaxPayloadBytes      = 64 * 1024
)

var reDeviceAlias = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidDeviceAlias checks if a device alias is safe (alphanumeric +
// underscore + hyphen)
func ValidDeviceAlias(s string) bool {
	if s == "" || len(s) > MaxDeviceAliasLength {
		return false
	}
	return reDeviceAlias.MatchString(s)
}

// SanitizeString removes null bytes and invalid UTF-8
func SanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")

	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return s
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// ValidateLength checks if string is within bounds
func ValidateLength(s string, min, max int) bool {
	l := len(s)
	return l >= min && l <= max
}
