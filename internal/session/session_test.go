package session

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smartystreets/goconvey/convey"

	"github.com/sweeney/boil-monitor/internal/notify"
	"github.com/sweeney/boil-monitor/internal/portal"
	"github.com/sweeney/boil-monitor/internal/settings"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type harness struct {
	portal *portal.FakePortal
	store  *settings.FakeStore
	push   *notify.FakeChannel
	voice  *notify.FakeChannel
	sess   *Session
}

func newHarness() *harness {
	h := &harness{
		portal: &portal.FakePortal{},
		store:  settings.NewFakeStore(),
		push:   notify.NewFakeChannel(notify.ChannelPushover),
		voice:  notify.NewFakeChannel(notify.ChannelVoice),
	}
	d := notify.NewDispatcher(quietLogger(), h.push, h.voice)
	h.sess = New(h.portal, h.store, d, 2*time.Minute, quietLogger())
	return h
}

func previous() settings.Configuration {
	return settings.Configuration{
		PushoverUserKey:   settings.NewCredential("old-user"),
		PushoverAPIKey:    settings.NewCredential("old-api"),
		BoilingThresholdC: 97.5,
	}
}

func TestSessionRun(t *testing.T) {
	convey.Convey("Given a configuration session", t, func() {
		h := newHarness()
		ctx := context.Background()

		convey.Convey("The portal is opened with the three fields and the timeout", func() {
			h.sess.Run(ctx, previous())
			convey.So(h.portal.Calls, convey.ShouldEqual, 1)
			convey.So(h.portal.Timeout, convey.ShouldEqual, 2*time.Minute)
			convey.So(len(h.portal.Fields), convey.ShouldEqual, 3)
			convey.So(h.portal.Fields[2].Default, convey.ShouldEqual, "100.0")
			convey.So(h.portal.Fields[2].MaxLen, convey.ShouldEqual, 6)
			convey.So(h.portal.Fields[0].MaxLen, convey.ShouldEqual, 32)
		})

		convey.Convey("When every field is filled in", func() {
			h.portal.Values = map[string]string{
				settings.KeyPushoverUser: "new-user",
				settings.KeyPushoverAPI:  "new-api",
				settings.KeyBoilingTemp:  "98.5",
			}
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then the merged configuration is returned and persisted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.BoilingThresholdC, convey.ShouldEqual, 98.5)
				convey.So(got.PushoverUserKey, convey.ShouldResemble, settings.NewCredential("new-user"))
				convey.So(settings.LoadConfiguration(h.store), convey.ShouldResemble, got)
			})

			convey.Convey("Then each channel is told once", func() {
				convey.So(len(h.push.Sent), convey.ShouldEqual, 1)
				convey.So(len(h.voice.Sent), convey.ShouldEqual, 1)
				convey.So(h.push.Sent[0].Message, convey.ShouldEqual, "Configuration saved")
			})
		})

		convey.Convey("When the threshold is left blank", func() {
			h.portal.Values = map[string]string{settings.KeyPushoverUser: "new-user"}
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then the previous threshold is preserved", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.BoilingThresholdC, convey.ShouldEqual, 97.5)
				convey.So(h.store.Floats[settings.KeyBoilingTemp], convey.ShouldEqual, 97.5)
				convey.So(got.PushoverAPIKey, convey.ShouldResemble, settings.NewCredential("old-api"))
			})
		})

		convey.Convey("When the threshold is not a number", func() {
			h.portal.Values = map[string]string{settings.KeyBoilingTemp: "hot"}
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then it is treated as not provided", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.BoilingThresholdC, convey.ShouldEqual, 97.5)
			})
		})

		convey.Convey("When the portal times out", func() {
			h.portal.Err = portal.ErrTimeout
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then a timeout is reported and nothing is persisted or sent", func() {
				convey.So(errors.Is(err, ErrPortalTimeout), convey.ShouldBeTrue)
				convey.So(got, convey.ShouldResemble, previous())
				convey.So(h.store.Puts, convey.ShouldEqual, 0)
				convey.So(h.push.Sent, convey.ShouldBeEmpty)
				convey.So(h.voice.Sent, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the portal cannot start", func() {
			h.portal.Err = errors.New("address in use")
			_, err := h.sess.Run(ctx, previous())

			convey.Convey("Then the error is not a timeout", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, ErrPortalTimeout), convey.ShouldBeFalse)
				convey.So(h.store.Puts, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When persisting fails", func() {
			h.portal.Values = map[string]string{settings.KeyBoilingTemp: "99"}
			h.store.PutError = errors.New("disk full")
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then the previous configuration is kept and no announcement is sent", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(got, convey.ShouldResemble, previous())
				convey.So(h.push.Sent, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the last of the three writes fails", func() {
			convey.So(settings.SaveConfiguration(h.store, previous()), convey.ShouldBeNil)
			h.store.FailAfter = 3
			h.portal.Values = map[string]string{
				settings.KeyPushoverUser: "new-user",
				settings.KeyPushoverAPI:  "new-api",
				settings.KeyBoilingTemp:  "95",
			}
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then the stored configuration is still the previous one", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(got, convey.ShouldResemble, previous())
				convey.So(settings.LoadConfiguration(h.store), convey.ShouldResemble, previous())
				convey.So(h.push.Sent, convey.ShouldBeEmpty)
				convey.So(h.voice.Sent, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When announcements fail", func() {
			h.portal.Values = map[string]string{settings.KeyBoilingTemp: "99"}
			h.push.Err = notify.ErrNotConfigured
			h.voice.Err = &notify.TransportError{Channel: notify.ChannelVoice, StatusCode: 500}
			got, err := h.sess.Run(ctx, previous())

			convey.Convey("Then the session still succeeds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.BoilingThresholdC, convey.ShouldEqual, 99)
			})
		})
	})
}

func TestSessionFirstConfiguration(t *testing.T) {
	convey.Convey("Given an unconfigured device", t, func() {
		h := newHarness()
		current := settings.LoadConfiguration(h.store)

		convey.Convey("Blank submission keeps keys unset and stores the default threshold", func() {
			got, err := h.sess.Run(context.Background(), current)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.PushoverUserKey.IsSet(), convey.ShouldBeFalse)
			convey.So(got.BoilingThresholdC, convey.ShouldEqual, settings.DefaultThresholdC)
			convey.So(h.store.Strings, convey.ShouldBeEmpty)
		})
	})
}

// orderedAnnouncer records the configuration in force at announcement time.
type orderedAnnouncer struct {
	cfg       settings.Configuration
	announced []settings.Configuration
}

func (a *orderedAnnouncer) Configure(cfg settings.Configuration) { a.cfg = cfg }

func (a *orderedAnnouncer) SendAll(_ context.Context, _, _ string) []notify.Result {
	a.announced = append(a.announced, a.cfg)
	return nil
}

func TestSessionAnnouncesWithNewKeys(t *testing.T) {
	convey.Convey("Given an announcer that tracks its configuration", t, func() {
		fp := &portal.FakePortal{Values: map[string]string{
			settings.KeyPushoverUser: "new-user",
			settings.KeyPushoverAPI:  "new-api",
		}}
		a := &orderedAnnouncer{}
		sess := New(fp, settings.NewFakeStore(), a, time.Minute, quietLogger())

		_, err := sess.Run(context.Background(), previous())

		convey.Convey("The announcement goes out with the saved keys", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(a.announced, convey.ShouldHaveLength, 1)
			user, _ := a.announced[0].PushoverUserKey.Value()
			convey.So(user, convey.ShouldEqual, "new-user")
		})
	})
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"100.0", 100, true},
		{"98.5", 98.5, true},
		{" 99 ", 99, true},
		{"98,5", 98.5, true},
		{"97.5C", 97.5, true},
		{".5", 0.5, true},
		{"-3", -3, true},
		{"+96", 96, true},
		{"100.", 100, true},
		{"", 0, false},
		{"abc", 0, false},
		{"C100", 0, false},
		{".", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseThreshold(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseThreshold(%q): got (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
