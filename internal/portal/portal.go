// Package portal collects configuration fields from the user through a
// time-bounded interactive form.
package portal

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"
)

// ErrTimeout is returned when the user does not submit the form in time.
var ErrTimeout = errors.New("portal timed out")

// Field is one form input.
type Field struct {
	ID      string
	Label   string
	Default string
	MaxLen  int
}

// Portal presents fields to the user and returns the submitted text per
// field ID. A field the user left blank maps to "".
type Portal interface {
	Collect(ctx context.Context, fields []Field, timeout time.Duration) (map[string]string, error)
}

// truncate limits v to max bytes without splitting a UTF-8 sequence;
// max <= 0 means unlimited.
func truncate(v string, max int) string {
	if max <= 0 || len(v) <= max {
		return v
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(v[cut]) {
		cut--
	}
	return v[:cut]
}
