package security

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jdziat/sync-schedules/pkg/core"
)

// Limits applied to schedules and stored runs.
const (
	// MaxLabelLength is the maximum length in runes for schedule labels.
	MaxLabelLength = 255

	// MaxIntervalDays is the largest accepted recurrence interval, ten years.
	MaxIntervalDays = 3660

	// MaxErrorMessageLength is the maximum length for stored error messages.
	MaxErrorMessageLength = 4096

	// MaxListLimit caps the number of runs returned by a single query.
	MaxListLimit = 1000

	// DefaultListLimit is used when a caller passes a non-positive limit.
	DefaultListLimit = 50
)

// ValidateLabel validates a schedule label. The empty label is accepted;
// callers fill in a default.
func ValidateLabel(label string) error {
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return core.ErrLabelTooLong
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return core.ErrInvalidLabel
		}
	}
	return nil
}

// ValidateInterval validates a recurrence interval in days.
func ValidateInterval(days int) error {
	if days < 1 || days > MaxIntervalDays {
		return core.ErrInvalidInterval
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage.
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Drop null bytes and control characters other than newlines.
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampListLimit maps a requested row count onto [1, MaxListLimit].
func ClampListLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}
