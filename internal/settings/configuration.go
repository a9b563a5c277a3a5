package settings

import "fmt"

// DefaultThresholdC is the boiling threshold used until one is configured.
const DefaultThresholdC = 100.0

// notConfigured is the default passed to GetString so a missing key can be
// told apart from a key stored as "".
const notConfigured = "\x00not-configured"

// Credential is an optional secret string. The zero value is unset, which
// is different from a credential explicitly set to "".
type Credential struct {
	value string
	set   bool
}

// NewCredential returns a set credential.
func NewCredential(v string) Credential {
	return Credential{value: v, set: true}
}

// Value returns the credential and whether it is set.
func (c Credential) Value() (string, bool) {
	return c.value, c.set
}

// IsSet reports whether the credential has been configured.
func (c Credential) IsSet() bool {
	return c.set
}

// String masks the credential for logs.
func (c Credential) String() string {
	if !c.set {
		return "<not configured>"
	}
	if len(c.value) <= 4 {
		return "****"
	}
	return c.value[:4] + "****"
}

// Configuration is the user-configurable appliance state.
type Configuration struct {
	PushoverUserKey   Credential
	PushoverAPIKey    Credential
	BoilingThresholdC float64
}

// PushoverConfigured reports whether both Pushover keys are set.
func (c Configuration) PushoverConfigured() bool {
	return c.PushoverUserKey.IsSet() && c.PushoverAPIKey.IsSet()
}

func (c Configuration) String() string {
	return fmt.Sprintf("pushover_user=%s pushover_api=%s boiling_temp=%.1f",
		c.PushoverUserKey, c.PushoverAPIKey, c.BoilingThresholdC)
}

// LoadConfiguration reads the configuration from store, applying defaults
// for missing keys.
func LoadConfiguration(store Store) Configuration {
	return Configuration{
		PushoverUserKey:   loadCredential(store, KeyPushoverUser),
		PushoverAPIKey:    loadCredential(store, KeyPushoverAPI),
		BoilingThresholdC: store.GetFloat(KeyBoilingTemp, DefaultThresholdC),
	}
}

func loadCredential(store Store, key string) Credential {
	v := store.GetString(key, notConfigured)
	if v == notConfigured {
		return Credential{}
	}
	return NewCredential(v)
}

// SaveConfiguration writes cfg to store in one batch, so a failure leaves the
// previously saved configuration intact. Unset credentials are left untouched.
func SaveConfiguration(store Store, cfg Configuration) error {
	b := Batch{
		Strings: make(map[string]string, 2),
		Floats:  map[string]float64{KeyBoilingTemp: cfg.BoilingThresholdC},
	}
	if v, ok := cfg.PushoverUserKey.Value(); ok {
		b.Strings[KeyPushoverUser] = v
	}
	if v, ok := cfg.PushoverAPIKey.Value(); ok {
		b.Strings[KeyPushoverAPI] = v
	}
	if err := store.Apply(b); err != nil {
		return fmt.Errorf("save configuration: %w", err)
	}
	return nil
}
