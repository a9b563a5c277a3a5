// Package logic contains the pure control logic of the boil monitor: button
// debouncing and boil detection.
// This package has NO external dependencies (no GPIO, sensor, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Default timings.
const (
	DefaultDebounce   = 100 * time.Millisecond
	DefaultStableTime = 8 * time.Second
)

// Reading is a single temperature sample.
// An invalid reading means the sensor was disconnected or faulted.
type Reading struct {
	ValueC float64
	Valid  bool
}

// Transition is the result of feeding one reading to a BoilDetector.
type Transition int

const (
	None Transition = iota
	EnteredBoiling
	Reset
)

func (t Transition) String() string {
	switch t {
	case None:
		return "NONE"
	case EnteredBoiling:
		return "ENTERED_BOILING"
	case Reset:
		return "RESET"
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

// Phase is the externally visible detector state.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseHeating Phase = "HEATING" // at or above threshold, not yet stable
	PhaseBoiling Phase = "BOILING"
)

// EventType names a boil event published to external consumers.
type EventType string

const (
	EventBoiling EventType = "BOILING"
	EventReset   EventType = "RESET"
)

// Event represents a boil transition to be published.
type Event struct {
	Timestamp    time.Time
	Type         EventType
	TemperatureC float64
	// ReadingValid is false when the reading that caused the event was a
	// sensor fault; TemperatureC is meaningless then.
	ReadingValid bool
	ThresholdC   float64
	// EpisodeID correlates the BOILING and RESET events of one episode.
	// Assigned by the caller; empty if unknown.
	EpisodeID string
}

// EpisodeCounts tracks boil transitions since startup.
type EpisodeCounts struct {
	Boiling int
	Reset   int
}
