package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/sweeney/boil-monitor/internal/settings"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type capturedRequest struct {
	Method      string
	ContentType string
	Form        url.Values
	RawQuery    string
}

type recorder struct {
	mu   sync.Mutex
	reqs []capturedRequest
}

func (r *recorder) requests() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.reqs...)
}

// recordingServer answers every request with status and records it.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		rec.mu.Lock()
		rec.reqs = append(rec.reqs, capturedRequest{
			Method:      r.Method,
			ContentType: r.Header.Get("Content-Type"),
			Form:        r.PostForm,
			RawQuery:    r.URL.RawQuery,
		})
		rec.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, rec
}

func configured() settings.Configuration {
	return settings.Configuration{
		PushoverUserKey:   settings.NewCredential("user123"),
		PushoverAPIKey:    settings.NewCredential("token456"),
		BoilingThresholdC: 100,
	}
}

func TestPushover(t *testing.T) {
	convey.Convey("Given a Pushover channel", t, func() {
		ctx := context.Background()

		convey.Convey("With no keys it reports NotConfigured without a network call", func() {
			ts, reqs := recordingServer(t, 200, `{"status":1}`)
			p := NewPushover(ts.URL, ts.Client())

			err := p.Send(ctx, "Boil Monitor", "The water is boiling")
			convey.So(errors.Is(err, ErrNotConfigured), convey.ShouldBeTrue)
			convey.So(reqs.requests(), convey.ShouldBeEmpty)
		})

		convey.Convey("With only the user key it is still not configured", func() {
			ts, reqs := recordingServer(t, 200, `{"status":1}`)
			p := NewPushover(ts.URL, ts.Client())
			p.Configure(settings.Configuration{PushoverUserKey: settings.NewCredential("u")})

			err := p.Send(ctx, "", "hi")
			convey.So(errors.Is(err, ErrNotConfigured), convey.ShouldBeTrue)
			convey.So(reqs.requests(), convey.ShouldBeEmpty)
		})

		convey.Convey("With both keys it posts the form", func() {
			ts, reqs := recordingServer(t, 200, `{"status":1}`)
			p := NewPushover(ts.URL, ts.Client())
			p.Configure(configured())

			err := p.Send(ctx, "Boil Monitor", "The water is boiling & hot")
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(reqs.requests()), convey.ShouldEqual, 1)

			req := reqs.requests()[0]
			convey.So(req.Method, convey.ShouldEqual, http.MethodPost)
			convey.So(req.ContentType, convey.ShouldEqual, "application/x-www-form-urlencoded")
			convey.So(req.Form.Get("token"), convey.ShouldEqual, "token456")
			convey.So(req.Form.Get("user"), convey.ShouldEqual, "user123")
			convey.So(req.Form.Get("title"), convey.ShouldEqual, "Boil Monitor")
			convey.So(req.Form.Get("message"), convey.ShouldEqual, "The water is boiling & hot")
		})

		convey.Convey("An empty title is omitted", func() {
			ts, reqs := recordingServer(t, 200, "")
			p := NewPushover(ts.URL, ts.Client())
			p.Configure(configured())

			convey.So(p.Send(ctx, "", "msg"), convey.ShouldBeNil)
			_, hasTitle := reqs.requests()[0].Form["title"]
			convey.So(hasTitle, convey.ShouldBeFalse)
		})

		convey.Convey("A non-2xx answer is a TransportFailure carrying the code", func() {
			ts, _ := recordingServer(t, 400, `{"user":"invalid","errors":["user identifier is invalid"],"status":0}`)
			p := NewPushover(ts.URL, ts.Client())
			p.Configure(configured())

			err := p.Send(ctx, "t", "m")
			var te *TransportError
			convey.So(errors.As(err, &te), convey.ShouldBeTrue)
			convey.So(te.StatusCode, convey.ShouldEqual, 400)
			convey.So(te.Channel, convey.ShouldEqual, ChannelPushover)
			convey.So(te.Reason, convey.ShouldContainSubstring, "user identifier is invalid")
		})

		convey.Convey("An unreachable endpoint is a TransportFailure with a reason", func() {
			ts, _ := recordingServer(t, 200, "")
			ts.Close()
			p := NewPushover(ts.URL, &http.Client{Timeout: time.Second})
			p.Configure(configured())

			err := p.Send(ctx, "t", "m")
			var te *TransportError
			convey.So(errors.As(err, &te), convey.ShouldBeTrue)
			convey.So(te.StatusCode, convey.ShouldEqual, 0)
			convey.So(te.Reason, convey.ShouldNotBeEmpty)
		})
	})
}

func TestVoice(t *testing.T) {
	convey.Convey("Given a VoiceMonkey channel", t, func() {
		ctx := context.Background()

		convey.Convey("Missing build-time credentials are NotConfigured", func() {
			ts, reqs := recordingServer(t, 200, "")
			v := NewVoice(ts.URL, ts.Client(), "", "kitchen")

			convey.So(errors.Is(v.Send(ctx, "", "hello"), ErrNotConfigured), convey.ShouldBeTrue)
			convey.So(reqs.requests(), convey.ShouldBeEmpty)
		})

		convey.Convey("It issues a GET with percent-encoded text", func() {
			ts, reqs := recordingServer(t, 200, `{"success":true}`)
			v := NewVoice(ts.URL, ts.Client(), "tok", "kitchen-echo")

			convey.So(v.Send(ctx, "ignored", "the water is boiling"), convey.ShouldBeNil)
			convey.So(len(reqs.requests()), convey.ShouldEqual, 1)
			req := reqs.requests()[0]
			convey.So(req.Method, convey.ShouldEqual, http.MethodGet)
			convey.So(req.RawQuery, convey.ShouldEqual, "token=tok&device=kitchen%2Decho&text=the%20water%20is%20boiling")
		})

		convey.Convey("A server error is a TransportFailure", func() {
			ts, _ := recordingServer(t, 503, "")
			v := NewVoice(ts.URL, ts.Client(), "tok", "dev")

			err := v.Send(ctx, "", "x")
			var te *TransportError
			convey.So(errors.As(err, &te), convey.ShouldBeTrue)
			convey.So(te.StatusCode, convey.ShouldEqual, 503)
			convey.So(te.Reason, convey.ShouldEqual, "Service Unavailable")
		})
	})
}

func TestURLEncode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abcXYZ019", "abcXYZ019"},
		{"the water is boiling", "the%20water%20is%20boiling"},
		{"a-b.c_d~e", "a%2Db%2Ec%5Fd%7Ee"},
		{"100°C", "100%C2%B0C"},
		{"&=?/", "%26%3D%3F%2F"},
		{"%", "%25"},
		{"\x00\xff", "%00%FF"},
	}
	for _, tt := range tests {
		if got := URLEncode(tt.in); got != tt.want {
			t.Errorf("URLEncode(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURLEncodeIdempotentOnAlphanumerics(t *testing.T) {
	s := "Boiling123"
	if once := URLEncode(s); once != s || URLEncode(once) != s {
		t.Errorf("expected alphanumeric text unchanged, got %q", once)
	}
}

func TestURLEncodeRoundTrip(t *testing.T) {
	inputs := []string{
		"the water is boiling",
		"Wasser kocht! 100°C",
		"水が沸騰しています",
		"tabs\tand\nnewlines",
		string([]byte{0x00, 0x7f, 0x80, 0xfe, 0xff}),
	}
	for i := 0; i < 256; i++ {
		inputs = append(inputs, string([]byte{byte(i)}))
	}

	for _, in := range inputs {
		enc := URLEncode(in)
		if strings.ContainsAny(enc, " +") {
			t.Errorf("URLEncode(%q) = %q contains unencoded characters", in, enc)
		}
		dec, err := url.PathUnescape(enc)
		if err != nil {
			t.Fatalf("PathUnescape(%q): %v", enc, err)
		}
		if dec != in {
			t.Errorf("round trip: got %q, want %q", dec, in)
		}
	}
}
