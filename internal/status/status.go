// Package status provides a thread-safe status tracker for the boil-monitor daemon.
// The control loop writes it; the web server and the heartbeat job read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/boil-monitor/internal/logic"
)

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs     int64
	SampleMs   int64
	DebounceMs int64
	StableMs   int64
	Heartbeat  string
	Broker     string
	HTTPPort   string
}

// NotificationCounts tallies dispatch outcomes for one channel.
type NotificationCounts struct {
	Sent    int
	Skipped int
	Failed  int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	// Sampled is false until the first temperature sample.
	Sampled      bool
	TemperatureC float64
	ReadingValid bool
	ThresholdC   float64

	Phase      logic.Phase
	PhaseSince time.Time
	Counts     logic.EpisodeCounts
	LastBoil   time.Time

	SensorFaults       int
	Notifications      map[string]NotificationCounts
	PushoverConfigured bool

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Phase:         logic.PhaseIdle,
			Notifications: make(map[string]NotificationCounts),
			StartTime:     startTime,
			Config:        cfg,
		},
	}
}

// UpdateReading records the latest sample. A faulted sample keeps the
// last good temperature for display and bumps the fault count.
func (t *Tracker) UpdateReading(r logic.Reading) {
	t.mu.Lock()
	t.snap.Sampled = true
	t.snap.ReadingValid = r.Valid
	if r.Valid {
		t.snap.TemperatureC = r.ValueC
	} else {
		t.snap.SensorFaults++
	}
	t.mu.Unlock()
}

// UpdateDetector records the detector phase and episode counts.
func (t *Tracker) UpdateDetector(phase logic.Phase, since time.Time, counts logic.EpisodeCounts) {
	t.mu.Lock()
	t.snap.Phase = phase
	t.snap.PhaseSince = since
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordBoil notes when the last boil was detected.
func (t *Tracker) RecordBoil(at time.Time) {
	t.mu.Lock()
	t.snap.LastBoil = at
	t.mu.Unlock()
}

// SetConfiguration records the user-facing settings that are shown on
// the status page.
func (t *Tracker) SetConfiguration(thresholdC float64, pushoverConfigured bool) {
	t.mu.Lock()
	t.snap.ThresholdC = thresholdC
	t.snap.PushoverConfigured = pushoverConfigured
	t.mu.Unlock()
}

// RecordNotification counts one dispatch outcome ("sent", "skipped", "failed").
func (t *Tracker) RecordNotification(channel, outcome string) {
	t.mu.Lock()
	c := t.snap.Notifications[channel]
	switch outcome {
	case "sent":
		c.Sent++
	case "skipped":
		c.Skipped++
	default:
		c.Failed++
	}
	t.snap.Notifications[channel] = c
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Notifications = make(map[string]NotificationCounts, len(t.snap.Notifications))
	for k, v := range t.snap.Notifications {
		s.Notifications[k] = v
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
