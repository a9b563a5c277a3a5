package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/boil-monitor/internal/logic"
	"github.com/sweeney/boil-monitor/internal/metrics"
	"github.com/sweeney/boil-monitor/internal/status"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *metrics.Manager) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:     20,
		SampleMs:   1000,
		DebounceMs: 100,
		StableMs:   8000,
		Heartbeat:  "@every 15m",
		Broker:     "tcp://192.168.1.200:1883",
		HTTPPort:   ":80",
	}
	tr := status.NewTracker(start, cfg)
	m := metrics.NewManager()
	srv := New(":0", tr, m.Handler(), quietLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, tr, m
}

func getJSON(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.UpdateReading(logic.Reading{ValueC: 99.2, Valid: true})
	tr.SetConfiguration(99, true)
	tr.UpdateDetector(logic.PhaseBoiling, time.Now(), logic.EpisodeCounts{Boiling: 3, Reset: 2})
	tr.RecordNotification("voice", "sent")
	tr.SetMQTTConnected(true)

	sj := getJSON(t, ts.URL+"/index.json")

	if sj.Status.TemperatureC == nil || *sj.Status.TemperatureC != 99.2 {
		t.Errorf("temperature: %v", sj.Status.TemperatureC)
	}
	if sj.Status.ThresholdC != 99 || !sj.Status.PushoverConfigured {
		t.Errorf("configuration: %v %v", sj.Status.ThresholdC, sj.Status.PushoverConfigured)
	}
	if sj.Status.Phase != "BOILING" {
		t.Errorf("phase: got %q", sj.Status.Phase)
	}
	if sj.Status.Counts.Boiling != 3 || sj.Status.Counts.Reset != 2 {
		t.Errorf("counts: %+v", sj.Status.Counts)
	}
	if sj.Status.Notifications["voice"].Sent != 1 {
		t.Errorf("notifications: %+v", sj.Status.Notifications)
	}
	if !sj.Status.MQTT.Connected || sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("mqtt: %+v", sj.Status.MQTT)
	}
	if sj.Status.Config.SampleMs != 1000 {
		t.Errorf("Config.SampleMs: got %d", sj.Status.Config.SampleMs)
	}
}

func TestJSONBeforeFirstSample(t *testing.T) {
	ts, _, _ := newTestServer(t)

	sj := getJSON(t, ts.URL+"/index.json")
	if sj.Status.TemperatureC != nil {
		t.Errorf("expected null temperature before first sample, got %v", *sj.Status.TemperatureC)
	}
	if sj.Status.Phase != "IDLE" {
		t.Errorf("phase: got %q, want IDLE", sj.Status.Phase)
	}
}

func TestHTMLEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.UpdateReading(logic.Reading{ValueC: 87.26, Valid: true})
	tr.SetConfiguration(100, false)
	tr.UpdateDetector(logic.PhaseHeating, time.Now(), logic.EpisodeCounts{})
	tr.RecordNotification("pushover", "skipped")
	tr.SetNetwork(&status.NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "Kitchen"})

	for _, path := range []string{"/", "/index.html"} {
		code, body := getBody(t, ts.URL+path)
		if code != http.StatusOK {
			t.Errorf("%s: status %d", path, code)
		}
		for _, want := range []string{
			"Boil Monitor",
			"87.3 °C",
			"100.0 °C",
			`class="heating">HEATING`,
			"not configured",
			"0 sent, 1 skipped, 0 failed",
			"192.168.1.42",
			"@every 15m",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("%s: body missing %q", path, want)
			}
		}
	}
}

func TestHTMLSensorFault(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.UpdateReading(logic.Reading{ValueC: -127})

	_, body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "sensor fault") {
		t.Error("expected sensor fault on page")
	}
}

func TestHTMLBeforeFirstSample(t *testing.T) {
	ts, _, _ := newTestServer(t)

	_, body := getBody(t, ts.URL+"/")
	if !strings.Contains(body, "waiting") {
		t.Error("expected waiting before first sample")
	}
	if !strings.Contains(body, "never") {
		t.Error("expected last boil never")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, m := newTestServer(t)
	m.ObserveReading(64, true)

	code, body := getBody(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if !strings.Contains(body, "boil_monitor_temperature_celsius 64") {
		t.Errorf("metrics missing temperature:\n%s", body)
	}
}

func TestMetricsDisabled(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	srv := New(":0", tr, nil, quietLogger())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	code, _ := getBody(t, ts.URL+"/metrics")
	if code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	code, _ := getBody(t, ts.URL+"/nonexistent")
	if code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", code)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	if sj := getJSON(t, ts.URL+"/index.json"); sj.Status.MQTT.Connected {
		t.Error("expected MQTT disconnected initially")
	}

	tr.SetMQTTConnected(true)
	tr.UpdateDetector(logic.PhaseIdle, time.Time{}, logic.EpisodeCounts{Boiling: 1, Reset: 1})

	sj := getJSON(t, ts.URL+"/index.json")
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
	if sj.Status.Counts.Reset != 1 {
		t.Errorf("Counts.Reset: got %d, want 1", sj.Status.Counts.Reset)
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{1500 * time.Millisecond, "1s"},
		{61 * time.Second, "1m 1s"},
		{time.Hour, "1h 0m 0s"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
	}
	for _, tt := range tests {
		if got := humanDuration(tt.in); got != tt.want {
			t.Errorf("humanDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
