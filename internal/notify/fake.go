package notify

import "context"

// Message is one message recorded by FakeChannel.
type Message struct {
	Title   string
	Message string
}

// FakeChannel records sends for test assertions.
type FakeChannel struct {
	Channel ChannelID

	// Sent contains every message passed to Send, including failed ones.
	Sent []Message

	// Err, if set, is returned by Send.
	Err error
}

// NewFakeChannel creates a FakeChannel with the given id.
func NewFakeChannel(id ChannelID) *FakeChannel {
	return &FakeChannel{Channel: id}
}

// ID returns the configured channel id.
func (f *FakeChannel) ID() ChannelID {
	return f.Channel
}

// Send records the message and returns Err.
func (f *FakeChannel) Send(_ context.Context, title, message string) error {
	f.Sent = append(f.Sent, Message{Title: title, Message: message})
	return f.Err
}
