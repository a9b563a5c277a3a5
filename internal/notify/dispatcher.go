package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/boil-monitor/internal/settings"
)

// Outcome classifies the result of one send.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped" // channel not configured
	OutcomeFailed  Outcome = "failed"
)

// Result is the outcome of sending to one channel.
type Result struct {
	Channel ChannelID
	Err     error
}

// Outcome classifies r.Err.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err == nil:
		return OutcomeSent
	case errors.Is(r.Err, ErrNotConfigured):
		return OutcomeSkipped
	}
	return OutcomeFailed
}

// configurable is implemented by channels whose credentials come from the
// persisted configuration.
type configurable interface {
	Configure(cfg settings.Configuration)
}

// Dispatcher routes messages to registered channels.
// Sends are synchronous and never retried.
type Dispatcher struct {
	channels map[ChannelID]Channel
	order    []ChannelID
	log      logrus.FieldLogger
	observe  func(Result)
}

// NewDispatcher creates a Dispatcher over channels. SendAll visits them in
// the order given.
func NewDispatcher(log logrus.FieldLogger, channels ...Channel) *Dispatcher {
	d := &Dispatcher{
		channels: make(map[ChannelID]Channel, len(channels)),
		log:      log,
	}
	for _, ch := range channels {
		d.channels[ch.ID()] = ch
		d.order = append(d.order, ch.ID())
	}
	return d
}

// OnResult registers fn to be called after every send.
func (d *Dispatcher) OnResult(fn func(Result)) {
	d.observe = fn
}

// Configure passes cfg to every channel that takes user credentials.
func (d *Dispatcher) Configure(cfg settings.Configuration) {
	for _, id := range d.order {
		if c, ok := d.channels[id].(configurable); ok {
			c.Configure(cfg)
		}
	}
}

// Send delivers one message to channel id.
func (d *Dispatcher) Send(ctx context.Context, id ChannelID, title, message string) error {
	ch, ok := d.channels[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChannel, id)
	}

	res := Result{Channel: id, Err: ch.Send(ctx, title, message)}
	d.record(res, message)
	return res.Err
}

// SendAll attempts every channel regardless of earlier failures and returns
// one result per channel.
func (d *Dispatcher) SendAll(ctx context.Context, title, message string) []Result {
	results := make([]Result, 0, len(d.order))
	for _, id := range d.order {
		res := Result{Channel: id, Err: d.channels[id].Send(ctx, title, message)}
		d.record(res, message)
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) record(res Result, message string) {
	entry := d.log.WithFields(logrus.Fields{"channel": res.Channel, "message": message})
	switch res.Outcome() {
	case OutcomeSent:
		entry.Info("notification sent")
	case OutcomeSkipped:
		entry.Info("notification skipped, channel not configured")
	default:
		var te *TransportError
		if errors.As(res.Err, &te) && te.StatusCode != 0 {
			entry = entry.WithField("status", te.StatusCode)
		}
		entry.WithError(res.Err).Error("notification failed")
	}

	if d.observe != nil {
		d.observe(res)
	}
}
