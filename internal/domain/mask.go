package domain

import "strings"

// MaskSensitive hides the middle of a sensitive value, keeping at most the
// first and last visible runes. Values too short to keep anything are fully
// starred so their length leaks nothing beyond magnitude.
func MaskSensitive(value string, visible int) string {
	if value == "" {
		return "***"
	}

	runes := []rune(value)
	if len(runes) <= visible*2 {
		return strings.Repeat("*", len(runes))
	}

	return string(runes[:visible]) + strings.Repeat("*", len(runes)-visible*2) + string(runes[len(runes)-visible:])
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
