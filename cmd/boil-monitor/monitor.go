package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/boil-monitor/internal/gpio"
	"github.com/sweeney/boil-monitor/internal/logic"
	"github.com/sweeney/boil-monitor/internal/metrics"
	"github.com/sweeney/boil-monitor/internal/mqtt"
	"github.com/sweeney/boil-monitor/internal/notify"
	"github.com/sweeney/boil-monitor/internal/sensor"
	"github.com/sweeney/boil-monitor/internal/session"
	"github.com/sweeney/boil-monitor/internal/settings"
	"github.com/sweeney/boil-monitor/internal/status"
)

// ErrRestartRequired makes the process exit non-zero so the supervisor
// starts it again with a clean slate.
var ErrRestartRequired = errors.New("restart required")

// Boil notification text.
const (
	alertTitle   = "Boil Monitor"
	alertMessage = "The water is boiling"
)

// configurator runs one configuration session.
type configurator interface {
	Run(ctx context.Context, current settings.Configuration) (settings.Configuration, error)
}

// alerter delivers notifications on every channel.
type alerter interface {
	Configure(cfg settings.Configuration)
	SendAll(ctx context.Context, title, message string) []notify.Result
}

// monitor owns all loop state. Only runLoop's goroutine touches it.
type monitor struct {
	button     gpio.Button
	sampler    *sensor.Sampler
	debouncer  *logic.Debouncer
	detector   *logic.BoilDetector
	session    configurator
	alerts     alerter
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Manager
	log        logrus.FieldLogger
	now        func() time.Time
	newID      func() string

	cfg       settings.Configuration
	episodeID string
	faulted   bool
	buttonErr bool
}

// setConfiguration makes cfg current and mirrors it to the displays.
func (m *monitor) setConfiguration(cfg settings.Configuration) {
	m.cfg = cfg
	m.tracker.SetConfiguration(cfg.BoilingThresholdC, cfg.PushoverConfigured())
	m.metrics.SetThreshold(cfg.BoilingThresholdC)
}

// runLoop polls the button and samples the probe on every tick until a
// signal arrives or a configuration session times out.
func (m *monitor) runLoop(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			m.shutdown(s)
			return nil

		case <-tick:
			t := m.now()

			pressed, err := m.pollButton(ctx, t)
			if err != nil {
				return err
			}
			if pressed {
				// The session blocked for a while; sample on the next tick.
				continue
			}

			if m.sampler.Due(t) {
				m.sample(ctx, t)
			}

			if m.mqttStatus != nil {
				connected := m.mqttStatus.IsConnected()
				m.tracker.SetMQTTConnected(connected)
				m.metrics.SetMQTTConnected(connected)
			}
		}
	}
}

// pollButton debounces the button and runs a configuration session on a
// press. It reports whether a session ran.
func (m *monitor) pollButton(ctx context.Context, t time.Time) (bool, error) {
	raw, err := m.button.Read()
	if err != nil {
		if !m.buttonErr {
			m.log.WithError(err).Warn("button read failed")
			m.buttonErr = true
		}
		return false, nil
	}
	if m.buttonErr {
		m.log.Info("button readable again")
		m.buttonErr = false
	}

	if !m.debouncer.Poll(raw, t) {
		return false, nil
	}
	return true, m.configure(ctx)
}

func (m *monitor) configure(ctx context.Context) error {
	m.log.Info("button pressed, opening configuration portal")

	next, err := m.session.Run(ctx, m.cfg)
	switch {
	case errors.Is(err, session.ErrPortalTimeout):
		m.metrics.RecordConfigSession("timeout")
		m.log.WithError(err).Warn("configuration not completed")
		return fmt.Errorf("%w: %v", ErrRestartRequired, err)
	case err != nil:
		m.metrics.RecordConfigSession("error")
		m.log.WithError(err).Error("configuration session failed")
		return nil
	}

	m.metrics.RecordConfigSession("saved")
	m.setConfiguration(next)
	m.publishStatus(mqtt.EventConfigured, "")
	return nil
}

func (m *monitor) sample(ctx context.Context, t time.Time) {
	r := m.sampler.Sample(t)
	m.tracker.UpdateReading(r)
	m.metrics.ObserveReading(r.ValueC, r.Valid)

	switch {
	case !r.Valid && !m.faulted:
		m.faulted = true
		m.log.WithError(m.sampler.Err()).Warn("temperature sensor fault")
	case r.Valid && m.faulted:
		m.faulted = false
		m.log.WithField("temperature", r.ValueC).Info("temperature sensor recovered")
	}

	switch m.detector.Update(r, m.cfg.BoilingThresholdC, t) {
	case logic.EnteredBoiling:
		m.boiled(ctx, r, t)
	case logic.Reset:
		m.reset(r, t)
	}

	phase := m.detector.Phase()
	m.tracker.UpdateDetector(phase, m.detector.Since(), m.detector.Counts())
	m.metrics.SetPhase(string(phase))
}

func (m *monitor) boiled(ctx context.Context, r logic.Reading, t time.Time) {
	m.episodeID = m.newID()
	m.tracker.RecordBoil(t)
	m.metrics.IncBoil()
	m.log.WithFields(logrus.Fields{
		"temperature": r.ValueC,
		"threshold":   m.cfg.BoilingThresholdC,
		"episode":     m.episodeID,
	}).Info("water is boiling")

	m.publish(logic.EventBoiling, r, t)
	m.alerts.SendAll(ctx, alertTitle, alertMessage)
}

func (m *monitor) reset(r logic.Reading, t time.Time) {
	m.metrics.IncReset()
	m.log.WithFields(logrus.Fields{
		"temperature": r.ValueC,
		"valid":       r.Valid,
		"episode":     m.episodeID,
	}).Info("boil episode ended")

	m.publish(logic.EventReset, r, t)
	m.episodeID = ""
}

func (m *monitor) publish(typ logic.EventType, r logic.Reading, t time.Time) {
	event := logic.Event{
		Timestamp:    t,
		Type:         typ,
		TemperatureC: r.ValueC,
		ReadingValid: r.Valid,
		ThresholdC:   m.cfg.BoilingThresholdC,
		EpisodeID:    m.episodeID,
	}
	if err := m.publisher.Publish(event); err != nil {
		// Don't crash on publish failure
		m.log.WithError(err).WithField("event", typ).Warn("publish error")
	}
}

// publishStatus sends a retained system event carrying a full status snapshot.
func (m *monitor) publishStatus(name, reason string) {
	if m.mqttStatus != nil {
		m.tracker.SetMQTTConnected(m.mqttStatus.IsConnected())
	}
	snap := m.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  m.now(),
		Event:      name,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, name, reason),
	}
	if err := m.publisher.PublishSystem(event); err != nil {
		m.log.WithError(err).Warnf("failed to publish %s event", name)
		return
	}
	m.log.Debugf("published %s event", name)
}

func (m *monitor) shutdown(s os.Signal) {
	m.log.WithField("signal", s).Info("shutting down")
	m.publishStatus(mqtt.EventShutdown, signalName(s))
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
