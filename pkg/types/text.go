package types

import "strings"

// OptionalText trims value and returns nil when nothing is left.
func OptionalText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// TextOrEmpty dereferences value, treating nil as empty.
func TextOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
