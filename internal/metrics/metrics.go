// Package metrics exposes boil-monitor state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds the collectors for one monitor process.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	temperature    prometheus.Gauge
	readingValid   prometheus.Gauge
	threshold      prometheus.Gauge
	phase          *prometheus.GaugeVec
	boils          prometheus.Counter
	resets         prometheus.Counter
	sensorFaults   prometheus.Counter
	notifications  *prometheus.CounterVec
	configSessions *prometheus.CounterVec
	mqttConnected  prometheus.Gauge
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers the collectors on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// phases are the label values of the phase gauge.
var phases = []string{"IDLE", "HEATING", "BOILING"}

// NewManager creates the collectors on a private registry, so the
// scrape output holds only monitor metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{namespace: "boil_monitor"}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	auto := promauto.With(m.registry)
	m.temperature = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "temperature_celsius",
		Help:      "Last temperature sample in degrees Celsius",
	})
	m.readingValid = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "reading_valid",
		Help:      "1 if the last sample was valid, 0 on sensor fault",
	})
	m.threshold = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "threshold_celsius",
		Help:      "Configured boiling threshold in degrees Celsius",
	})
	m.phase = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "phase",
		Help:      "1 for the current detector phase, 0 otherwise",
	}, []string{"phase"})
	m.boils = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "boils_total",
		Help:      "Boil episodes detected",
	})
	m.resets = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "resets_total",
		Help:      "Boil episodes ended by the temperature dropping",
	})
	m.sensorFaults = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "sensor_faults_total",
		Help:      "Samples that came back invalid",
	})
	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "notifications_total",
		Help:      "Notification attempts by channel and outcome",
	}, []string{"channel", "outcome"})
	m.configSessions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "config_sessions_total",
		Help:      "Configuration portal sessions by result",
	}, []string{"result"})
	m.mqttConnected = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "mqtt_connected",
		Help:      "1 while the MQTT client is connected",
	})

	for _, p := range phases {
		m.phase.WithLabelValues(p).Set(0)
	}
	return m
}

// Registry returns the registry holding the collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveReading records a sample. Invalid samples leave the last
// temperature in place and count as a sensor fault.
func (m *Manager) ObserveReading(valueC float64, valid bool) {
	if !valid {
		m.readingValid.Set(0)
		m.sensorFaults.Inc()
		return
	}
	m.readingValid.Set(1)
	m.temperature.Set(valueC)
}

// SetThreshold records the configured boiling threshold.
func (m *Manager) SetThreshold(c float64) {
	m.threshold.Set(c)
}

// SetPhase marks phase as current.
func (m *Manager) SetPhase(phase string) {
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.phase.WithLabelValues(p).Set(v)
	}
}

// IncBoil counts a detected boil.
func (m *Manager) IncBoil() { m.boils.Inc() }

// IncReset counts an episode reset.
func (m *Manager) IncReset() { m.resets.Inc() }

// RecordNotification counts one notification attempt.
func (m *Manager) RecordNotification(channel, outcome string) {
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// RecordConfigSession counts a configuration session by result
// ("saved", "timeout", "error").
func (m *Manager) RecordConfigSession(result string) {
	m.configSessions.WithLabelValues(result).Inc()
}

// SetMQTTConnected records broker connectivity.
func (m *Manager) SetMQTTConnected(connected bool) {
	if connected {
		m.mqttConnected.Set(1)
		return
	}
	m.mqttConnected.Set(0)
}
