package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sweeney/boil-monitor/internal/settings"
)

// DefaultPushoverURL is the Pushover message endpoint.
const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Pushover sends push notifications through the Pushover API.
type Pushover struct {
	endpoint string
	client   *http.Client
	userKey  settings.Credential
	apiKey   settings.Credential
}

// NewPushover creates a Pushover channel with no keys configured.
func NewPushover(endpoint string, client *http.Client) *Pushover {
	return &Pushover{endpoint: endpoint, client: client}
}

// ID returns ChannelPushover.
func (p *Pushover) ID() ChannelID {
	return ChannelPushover
}

// Configure takes the user and API keys from cfg.
func (p *Pushover) Configure(cfg settings.Configuration) {
	p.userKey = cfg.PushoverUserKey
	p.apiKey = cfg.PushoverAPIKey
}

// Send posts the message as a form-encoded request.
func (p *Pushover) Send(ctx context.Context, title, message string) error {
	user, userOK := p.userKey.Value()
	token, tokenOK := p.apiKey.Value()
	if !userOK || !tokenOK {
		return fmt.Errorf("pushover: %w", ErrNotConfigured)
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("user", user)
	if title != "" {
		form.Set("title", title)
	}
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Channel: ChannelPushover, Reason: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(p.client, ChannelPushover, req)
}
