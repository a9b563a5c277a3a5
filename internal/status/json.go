package status

import (
	"encoding/json"
	"sort"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event              string                      `json:"event,omitempty"`
	Reason             string                      `json:"reason,omitempty"`
	TemperatureC       *float64                    `json:"temperature_c"`
	ReadingValid       bool                        `json:"reading_valid"`
	ThresholdC         float64                     `json:"threshold_c"`
	Phase              string                      `json:"phase"`
	PhaseSince         string                      `json:"phase_since,omitempty"`
	LastBoil           string                      `json:"last_boil,omitempty"`
	PushoverConfigured bool                        `json:"pushover_configured"`
	UptimeSeconds      int64                       `json:"uptime_seconds"`
	StartTime          string                      `json:"start_time"`
	Timestamp          string                      `json:"timestamp"`
	MQTT               MQTTStatus                  `json:"mqtt"`
	Counts             CountsJSON                  `json:"episode_counts"`
	Notifications      map[string]NotificationJSON `json:"notifications"`
	Network            *NetworkJSON                `json:"network,omitempty"`
	Config             ConfigJSON                  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of episode counts.
type CountsJSON struct {
	Boiling      int `json:"boiling"`
	Reset        int `json:"reset"`
	SensorFaults int `json:"sensor_faults"`
}

// NotificationJSON is the JSON representation of one channel's outcomes.
type NotificationJSON struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs     int64  `json:"poll_ms"`
	SampleMs   int64  `json:"sample_ms"`
	DebounceMs int64  `json:"debounce_ms"`
	StableMs   int64  `json:"stable_ms"`
	Heartbeat  string `json:"heartbeat"`
	Broker     string `json:"broker"`
	HTTPPort   string `json:"http_port"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	phase := string(snap.Phase)
	if phase == "" {
		phase = "UNKNOWN"
	}

	inner := StatusInner{
		ReadingValid:       snap.ReadingValid,
		ThresholdC:         snap.ThresholdC,
		Phase:              phase,
		PhaseSince:         formatTime(snap.PhaseSince),
		LastBoil:           formatTime(snap.LastBoil),
		PushoverConfigured: snap.PushoverConfigured,
		UptimeSeconds:      int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:          snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:          snap.Now.UTC().Format(time.RFC3339),
		MQTT:               MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Boiling:      snap.Counts.Boiling,
			Reset:        snap.Counts.Reset,
			SensorFaults: snap.SensorFaults,
		},
		Notifications: make(map[string]NotificationJSON, len(snap.Notifications)),
		Config: ConfigJSON{
			PollMs:     snap.Config.PollMs,
			SampleMs:   snap.Config.SampleMs,
			DebounceMs: snap.Config.DebounceMs,
			StableMs:   snap.Config.StableMs,
			Heartbeat:  snap.Config.Heartbeat,
			Broker:     snap.Config.Broker,
			HTTPPort:   snap.Config.HTTPPort,
		},
	}
	if snap.Sampled && snap.ReadingValid {
		t := snap.TemperatureC
		inner.TemperatureC = &t
	}
	for ch, c := range snap.Notifications {
		inner.Notifications[ch] = NotificationJSON{Sent: c.Sent, Skipped: c.Skipped, Failed: c.Failed}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// Channels returns the channel names with recorded outcomes, sorted.
func (s Snapshot) Channels() []string {
	names := make([]string, 0, len(s.Notifications))
	for ch := range s.Notifications {
		names = append(names, ch)
	}
	sort.Strings(names)
	return names
}
