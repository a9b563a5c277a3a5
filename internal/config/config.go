// Package config defines the daemon's process configuration: timings,
// hardware wiring, endpoints and deploy-time credentials. It is separate
// from the user-facing appliance configuration kept in the settings store.
package config

import (
	"fmt"
	"time"

	"github.com/sweeney/boil-monitor/internal/gpio"
	"github.com/sweeney/boil-monitor/internal/logic"
	"github.com/sweeney/boil-monitor/internal/notify"
	"github.com/sweeney/boil-monitor/internal/sensor"
	"github.com/sweeney/boil-monitor/internal/session"
)

// VoiceMonkey credentials baked in at build time:
//
//	go build -ldflags "-X github.com/sweeney/boil-monitor/internal/config.BuildVoiceToken=... \
//	  -X github.com/sweeney/boil-monitor/internal/config.BuildVoiceDevice=..."
var (
	BuildVoiceToken  string
	BuildVoiceDevice string
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// PollInterval is the control loop tick (button polling rate).
	PollInterval time.Duration `koanf:"poll_interval"`
	// SampleInterval is the minimum time between temperature reads.
	SampleInterval time.Duration `koanf:"sample_interval"`
	// Debounce is how long the button must hold a level.
	Debounce time.Duration `koanf:"debounce"`
	// StableTime is how long the temperature must stay at or above the
	// threshold before a boil is reported.
	StableTime time.Duration `koanf:"stable_time"`

	ButtonChip string `koanf:"button_chip"`
	ButtonPin  int    `koanf:"button_pin"`
	// SensorPath is a glob for the 1-Wire probe directory.
	SensorPath string `koanf:"sensor_path"`
	// DBPath is the settings database file.
	DBPath string `koanf:"db_path"`

	// HTTPAddr serves the status page and metrics; empty disables.
	HTTPAddr string `koanf:"http_addr"`
	// Broker is the MQTT broker URL; empty disables MQTT.
	Broker string `koanf:"broker"`
	// Heartbeat is a cron spec for MQTT heartbeats; empty disables.
	Heartbeat string `koanf:"heartbeat"`

	PortalAddr    string        `koanf:"portal_addr"`
	PortalTimeout time.Duration `koanf:"portal_timeout"`

	NotifyTimeout time.Duration `koanf:"notify_timeout"`
	PushoverURL   string        `koanf:"pushover_url"`
	VoiceURL      string        `koanf:"voice_url"`
	VoiceToken    string        `koanf:"voice_token"`
	VoiceDevice   string        `koanf:"voice_device"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		PollInterval:   20 * time.Millisecond,
		SampleInterval: sensor.DefaultInterval,
		Debounce:       logic.DefaultDebounce,
		StableTime:     logic.DefaultStableTime,
		ButtonChip:     gpio.DefaultChip,
		ButtonPin:      gpio.DefaultPinButton,
		SensorPath:     sensor.DefaultDevicePattern,
		DBPath:         "/var/lib/boil-monitor/settings.db",
		HTTPAddr:       ":80",
		Broker:         "tcp://192.168.1.200:1883",
		Heartbeat:      "@every 15m",
		PortalAddr:     ":8080",
		PortalTimeout:  session.DefaultTimeout,
		NotifyTimeout:  10 * time.Second,
		PushoverURL:    notify.DefaultPushoverURL,
		VoiceURL:       notify.DefaultVoiceURL,
		VoiceToken:     BuildVoiceToken,
		VoiceDevice:    BuildVoiceDevice,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"poll_interval", c.PollInterval},
		{"sample_interval", c.SampleInterval},
		{"portal_timeout", c.PortalTimeout},
		{"notify_timeout", c.NotifyTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, d.name, d.d)
		}
	}
	if c.Debounce < 0 || c.StableTime < 0 {
		return fmt.Errorf("%w: debounce and stable_time must not be negative", ErrInvalidConfig)
	}
	if c.ButtonPin < 0 {
		return fmt.Errorf("%w: button_pin must not be negative", ErrInvalidConfig)
	}
	if c.SensorPath == "" || c.DBPath == "" {
		return fmt.Errorf("%w: sensor_path and db_path must be set", ErrInvalidConfig)
	}
	if c.PortalAddr == "" {
		return fmt.Errorf("%w: portal_addr must be set", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// MarshalYAML renders durations as strings and masks the voice token.
func (c Config) MarshalYAML() (interface{}, error) {
	token := ""
	if c.VoiceToken != "" {
		token = "****"
	}
	return map[string]interface{}{
		"log_level":       c.LogLevel,
		"log_format":      c.LogFormat,
		"poll_interval":   c.PollInterval.String(),
		"sample_interval": c.SampleInterval.String(),
		"debounce":        c.Debounce.String(),
		"stable_time":     c.StableTime.String(),
		"button_chip":     c.ButtonChip,
		"button_pin":      c.ButtonPin,
		"sensor_path":     c.SensorPath,
		"db_path":         c.DBPath,
		"http_addr":       c.HTTPAddr,
		"broker":          c.Broker,
		"heartbeat":       c.Heartbeat,
		"portal_addr":     c.PortalAddr,
		"portal_timeout":  c.PortalTimeout.String(),
		"notify_timeout":  c.NotifyTimeout.String(),
		"pushover_url":    c.PushoverURL,
		"voice_url":       c.VoiceURL,
		"voice_token":     token,
		"voice_device":    c.VoiceDevice,
	}, nil
}
