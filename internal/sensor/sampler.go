package sensor

import (
	"time"

	"github.com/sweeney/boil-monitor/internal/logic"
)

// DefaultInterval is the minimum time between two probe reads.
const DefaultInterval = time.Second

// Sampler reads the probe at most once per interval and caches the result.
// Sensor failures never cross this boundary; they become invalid readings.
type Sampler struct {
	reader   Reader
	interval time.Duration

	last    logic.Reading
	lastAt  time.Time
	lastErr error
	sampled bool
}

// NewSampler creates a sampler for reader.
func NewSampler(reader Reader, interval time.Duration) *Sampler {
	return &Sampler{reader: reader, interval: interval}
}

// Due reports whether Sample(now) would read the probe.
func (s *Sampler) Due(now time.Time) bool {
	return !s.sampled || now.Sub(s.lastAt) >= s.interval
}

// Sample returns a fresh reading if the interval has elapsed since the last
// read, otherwise the cached one.
func (s *Sampler) Sample(now time.Time) logic.Reading {
	if !s.Due(now) {
		return s.last
	}

	c, err := s.reader.ReadCelsius()
	s.sampled = true
	s.lastAt = now
	s.lastErr = err

	switch {
	case err != nil:
		s.last = logic.Reading{Valid: false}
	case c <= DisconnectedC:
		s.lastErr = ErrDisconnected
		s.last = logic.Reading{Valid: false}
	default:
		s.last = logic.Reading{ValueC: c, Valid: true}
	}
	return s.last
}

// Last returns the cached reading without touching the probe.
func (s *Sampler) Last() logic.Reading {
	return s.last
}

// Err returns the error from the most recent probe read, if any.
func (s *Sampler) Err() error {
	return s.lastErr
}
