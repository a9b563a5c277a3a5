// Package session runs the guided configuration flow started by the button.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/boil-monitor/internal/notify"
	"github.com/sweeney/boil-monitor/internal/portal"
	"github.com/sweeney/boil-monitor/internal/settings"
)

// DefaultTimeout bounds how long the portal stays open.
const DefaultTimeout = 3 * time.Minute

// ErrPortalTimeout is returned when the user did not complete the form in time.
// Nothing is persisted in that case.
var ErrPortalTimeout = errors.New("configuration portal timed out")

// Form field limits.
const (
	maxKeyLen       = 32
	maxThresholdLen = 6
)

// Announcer sends a message to every notification channel. Configure is
// called with the saved configuration first so new credentials apply.
type Announcer interface {
	Configure(cfg settings.Configuration)
	SendAll(ctx context.Context, title, message string) []notify.Result
}

// Session collects, validates and persists a new Configuration.
type Session struct {
	portal    portal.Portal
	store     settings.Store
	announcer Announcer
	timeout   time.Duration
	log       logrus.FieldLogger
}

// New creates a Session.
func New(p portal.Portal, store settings.Store, announcer Announcer, timeout time.Duration, log logrus.FieldLogger) *Session {
	return &Session{portal: p, store: store, announcer: announcer, timeout: timeout, log: log}
}

// Fields returns the portal form fields.
func Fields() []portal.Field {
	return []portal.Field{
		{ID: settings.KeyPushoverUser, Label: "Pushover User Key", MaxLen: maxKeyLen},
		{ID: settings.KeyPushoverAPI, Label: "Pushover API Key", MaxLen: maxKeyLen},
		{ID: settings.KeyBoilingTemp, Label: "Boiling Temp (°C)", Default: "100.0", MaxLen: maxThresholdLen},
	}
}

// Run opens the portal and merges the submitted fields into current.
// On success the merged configuration has been persisted and is returned.
// On failure current is returned unchanged with the error.
func (s *Session) Run(ctx context.Context, current settings.Configuration) (settings.Configuration, error) {
	s.log.Info("starting configuration session")

	values, err := s.portal.Collect(ctx, Fields(), s.timeout)
	if errors.Is(err, portal.ErrTimeout) {
		return current, fmt.Errorf("%w after %v", ErrPortalTimeout, s.timeout)
	}
	if err != nil {
		return current, fmt.Errorf("collect configuration: %w", err)
	}

	next := Merge(current, values, s.log)
	if err := settings.SaveConfiguration(s.store, next); err != nil {
		return current, fmt.Errorf("persist configuration: %w", err)
	}
	s.log.WithField("config", next.String()).Info("configuration saved")

	// Best effort; the dispatcher logs each outcome.
	if s.announcer != nil {
		s.announcer.Configure(next)
		s.announcer.SendAll(ctx, "Boil Monitor", "Configuration saved")
	}
	return next, nil
}

// Merge applies the non-empty values onto current. An unparsable threshold
// is ignored and the current one kept.
func Merge(current settings.Configuration, values map[string]string, log logrus.FieldLogger) settings.Configuration {
	next := current

	if v := values[settings.KeyPushoverUser]; v != "" {
		next.PushoverUserKey = settings.NewCredential(v)
	}
	if v := values[settings.KeyPushoverAPI]; v != "" {
		next.PushoverAPIKey = settings.NewCredential(v)
	}
	if v := values[settings.KeyBoilingTemp]; v != "" {
		if c, ok := ParseThreshold(v); ok {
			next.BoilingThresholdC = c
		} else {
			log.WithField("value", v).Warn("ignoring invalid boiling threshold")
		}
	}
	return next
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)`)

// ParseThreshold parses a temperature permissively: surrounding whitespace
// and trailing text ("98.5C") are ignored and a comma may be used as the
// decimal separator. It reports false when no number leads the text.
func ParseThreshold(text string) (float64, bool) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	m := leadingNumber.FindString(text)
	if m == "" {
		return 0, false
	}
	c, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(c, 0) || math.IsNaN(c) {
		return 0, false
	}
	return c, true
}
