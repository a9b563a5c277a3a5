// Package notify sends human-readable alerts to the Pushover and VoiceMonkey
// services. Each channel is independent and individually fallible.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ChannelID identifies a notification channel.
type ChannelID string

const (
	ChannelPushover ChannelID = "pushover"
	ChannelVoice    ChannelID = "voice"
)

// ErrNotConfigured is returned when a channel lacks the credentials it needs.
// No network call is made.
var ErrNotConfigured = errors.New("channel not configured")

// ErrUnknownChannel is returned by Dispatcher.Send for an unregistered channel.
var ErrUnknownChannel = errors.New("unknown channel")

// TransportError reports a failed HTTP call: either the request could not be
// completed (Reason set, StatusCode 0) or the service answered non-2xx.
type TransportError struct {
	Channel    ChannelID
	StatusCode int
	Reason     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Channel, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Channel, e.Reason)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Channel is a single notification service.
type Channel interface {
	ID() ChannelID
	// Send delivers one message. The title may be empty.
	Send(ctx context.Context, title, message string) error
}

// maxReasonBytes bounds how much of an error response body is kept.
const maxReasonBytes = 256

// do performs req and converts anything but a 2xx answer into a *TransportError.
func do(client *http.Client, id ChannelID, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return &TransportError{Channel: id, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReasonBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &TransportError{Channel: id, StatusCode: resp.StatusCode, Reason: reason}
	}
	return nil
}
