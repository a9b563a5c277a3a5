package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// DefaultVoiceURL is the VoiceMonkey announcement endpoint.
const DefaultVoiceURL = "https://api-v2.voicemonkey.io/announcement"

// Voice triggers a spoken announcement on an Alexa device through VoiceMonkey.
// Its credentials are fixed at build or deploy time.
type Voice struct {
	endpoint string
	client   *http.Client
	token    string
	device   string
}

// NewVoice creates a VoiceMonkey channel.
func NewVoice(endpoint string, client *http.Client, token, device string) *Voice {
	return &Voice{endpoint: endpoint, client: client, token: token, device: device}
}

// ID returns ChannelVoice.
func (v *Voice) ID() ChannelID {
	return ChannelVoice
}

// Send announces message. Announcements have no title; it is ignored.
func (v *Voice) Send(ctx context.Context, _, message string) error {
	if v.token == "" || v.device == "" {
		return fmt.Errorf("voice: %w", ErrNotConfigured)
	}

	u := v.endpoint + "?token=" + URLEncode(v.token) +
		"&device=" + URLEncode(v.device) +
		"&text=" + URLEncode(message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Channel: ChannelVoice, Reason: err.Error(), Err: err}
	}
	return do(v.client, ChannelVoice, req)
}

// URLEncode percent-encodes s byte by byte. ASCII letters and digits are kept,
// a space becomes %20 and every other byte becomes %XX in uppercase hex.
func URLEncode(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0F])
		}
	}
	return b.String()
}
