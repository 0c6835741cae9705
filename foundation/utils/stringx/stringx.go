// File: stringx.go
// Title: String Utility Functions
// Description: Provides small string helpers used across the forma codebase
//              for blank checks, truncation, and case-insensitive matching.
// Version: v0.1.0
// Created: 2025-07-12
// Modified: 2025-07-12
//
// Change History:
// - 2025-07-12 v0.1.0: Initial string helpers

package stringx

import (
	"strings"
	"unicode/utf8"
)

// IsEmpty returns true if the string has zero length
func IsEmpty(s string) bool {
	return len(s) == 0
}

// IsBlank returns true if the string is empty or contains only whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FirstNonBlank returns the first string that is not blank
func FirstNonBlank(values ...string) string {
	for _, v := range values {
		if !IsBlank(v) {
			return v
		}
	}
	return ""
}

// Truncate shortens a string to maxLen runes, appending "..." when cut
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// ContainsIgnoreCase reports whether substr is within s, ignoring case
func ContainsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// EqualsIgnoreCase reports whether two strings are equal, ignoring case
func EqualsIgnoreCase(a, b string) bool {
	return strings.EqualFold(a, b)
}
