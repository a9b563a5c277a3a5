package logic

import "time"

// ButtonSignal is the debounce state of a single button line.
type ButtonSignal struct {
	// Last raw level observed
	Raw bool
	// Current stable (debounced) level
	Stable bool
	// Time the raw level last changed
	LastRawChange time.Time
}

// Debouncer turns a bouncy active-high button line into press events.
type Debouncer struct {
	interval time.Duration
	signal   ButtonSignal
}

// NewDebouncer creates a Debouncer that requires the raw level to hold for
// interval before the stable level follows it.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Poll feeds one raw sample and reports whether a press was recognised.
// A press is the stable level going from low to high. Releases are silent.
func (d *Debouncer) Poll(raw bool, now time.Time) bool {
	if raw != d.signal.Raw {
		// Any edge restarts the stabilisation window
		d.signal.Raw = raw
		d.signal.LastRawChange = now
		return false
	}

	if raw == d.signal.Stable {
		return false
	}

	if now.Sub(d.signal.LastRawChange) < d.interval {
		return false
	}

	d.signal.Stable = raw
	return raw
}

// Signal returns a copy of the current debounce state.
func (d *Debouncer) Signal() ButtonSignal {
	return d.signal
}
