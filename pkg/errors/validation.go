package errors

import (
	"regexp"
	"slices"
	"strings"
)

// maxIDLength bounds node identifiers read from scenario and tree files.
const maxIDLength = 128

// nodeIDRegex matches identifiers usable as scenario and JSON node ids.
var nodeIDRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.:-]*$`)

// ValidateNodeID validates a node identifier from a scenario or tree file.
//
// The rules keep ids printable in DOT output and in terminal tables:
//   - No empty ids
//   - Maximum length of 128 characters
//   - Letters, digits, '_', '.', ':' and '-' only, not starting with punctuation
//     other than '_'
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "node id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "node id too long (max %d characters)", maxIDLength)
	}
	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid node id: %q", id)
	}
	return nil
}

// ValidateFormat checks that format is one of allowed (case-insensitive).
// It returns the normalized lower-case format.
func ValidateFormat(format string, allowed ...string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if slices.Contains(allowed, f) {
		return f, nil
	}
	return "", New(ErrCodeInvalidFormat, "unsupported format %q (want one of %s)", format, strings.Join(allowed, ", "))
}

// ValidateLabels checks display labels for the perm command: every label must
// be non-empty and unique.
func ValidateLabels(labels []string) error {
	seen := make(map[string]bool, len(labels))
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return New(ErrCodeInvalidInput, "label %d is empty", i)
		}
		if seen[l] {
			return New(ErrCodeInvalidInput, "duplicate label %q", l)
		}
		seen[l] = true
	}
	return nil
}
