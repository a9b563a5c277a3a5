package logic

import "time"

type boilState int

const (
	stateIdle boilState = iota
	stateAboveThreshold
	stateBoiling
)

// BoilDetector is a hysteresis state machine that turns a stream of
// readings into boiling/not-boiling transitions.
//
// A reading at or above the threshold has to persist for the stable time
// before EnteredBoiling fires, and it fires once per episode. Any reading
// below the threshold (including an invalid one) ends the episode and re-arms
// the detector.
type BoilDetector struct {
	stableTime time.Duration
	state      boilState
	since      time.Time
	counts     EpisodeCounts
}

// NewBoilDetector creates a detector in the idle state.
func NewBoilDetector(stableTime time.Duration) *BoilDetector {
	return &BoilDetector{stableTime: stableTime}
}

// Update feeds one reading and returns the resulting transition.
func (d *BoilDetector) Update(r Reading, thresholdC float64, now time.Time) Transition {
	above := r.Valid && r.ValueC >= thresholdC

	switch d.state {
	case stateIdle:
		if above {
			d.state = stateAboveThreshold
			d.since = now
		}
		return None

	case stateAboveThreshold:
		if !above {
			// Transient spike, no episode fired
			d.state = stateIdle
			d.since = time.Time{}
			return None
		}
		if now.Sub(d.since) >= d.stableTime {
			d.state = stateBoiling
			d.counts.Boiling++
			return EnteredBoiling
		}
		return None

	case stateBoiling:
		if !above {
			d.state = stateIdle
			d.since = time.Time{}
			d.counts.Reset++
			return Reset
		}
		return None
	}

	return None
}

// Phase returns the current detector phase.
func (d *BoilDetector) Phase() Phase {
	switch d.state {
	case stateAboveThreshold:
		return PhaseHeating
	case stateBoiling:
		return PhaseBoiling
	}
	return PhaseIdle
}

// Since returns when the current episode started, or the zero time when idle.
func (d *BoilDetector) Since() time.Time {
	return d.since
}

// Counts returns a copy of the transition counts.
func (d *BoilDetector) Counts() EpisodeCounts {
	return d.counts
}
