package portal

import (
	"context"
	"time"
)

// FakePortal returns scripted form values for tests.
type FakePortal struct {
	// Values is returned by Collect (truncated per field MaxLen).
	Values map[string]string

	// Err, if set, is returned by Collect instead of Values.
	Err error

	// Calls counts Collect calls.
	Calls int

	// Fields and Timeout record the last Collect arguments.
	Fields  []Field
	Timeout time.Duration
}

// Collect records its arguments and returns Values or Err.
func (f *FakePortal) Collect(_ context.Context, fields []Field, timeout time.Duration) (map[string]string, error) {
	f.Calls++
	f.Fields = fields
	f.Timeout = timeout
	if f.Err != nil {
		return nil, f.Err
	}

	out := make(map[string]string, len(fields))
	for _, field := range fields {
		out[field.ID] = truncate(f.Values[field.ID], field.MaxLen)
	}
	return out, nil
}
