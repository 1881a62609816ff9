package receiptformat

import (
	"errors"
	"strings"
)

// ErrEmptyDocument is returned when a document has nothing to print
var ErrEmptyDocument = errors.New("receipt has no printable blocks")

// Validate checks that a document has at least one printable block. Malformed
// sections are tolerated here; they render as nothing.
func Validate(d *Document) error {
	if d == nil || len(d.Blocks) == 0 {
		return ErrEmptyDocument
	}

	for _, b := range d.Blocks {
		if strings.TrimSpace(b.Type) == "" {
			continue
		}
		if b.Known() && b.Kind() != KindSetting {
			return nil
		}
	}

	return ErrEmptyDocument
}

// Align normalizes a footer alignment, defaulting to center
func Align(s string) string {
	switch a := strings.ToLower(strings.TrimSpace(s)); a {
	case "left", "right", "center":
		return a
	default:
		return "center"
	}
}
