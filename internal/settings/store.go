// Package settings persists the appliance configuration across power cycles.
package settings

// Persisted keys.
const (
	KeyPushoverUser = "pushover"
	KeyPushoverAPI  = "pushover_api"
	KeyBoilingTemp  = "boiling_temp"
)

// Store is a durable key/value mapping of strings and floats.
//
// Writes are synchronous: once Put returns nil the value survives power loss.
// A missing key returns the supplied default. Stores are single-owner and
// not safe for concurrent use.
type Store interface {
	GetString(key, def string) string
	GetFloat(key string, def float64) float64
	PutString(key, value string) error
	PutFloat(key string, value float64) error

	// Apply writes every entry of b or, on error, none of them.
	Apply(b Batch) error
}

// Batch is a group of writes that must land together.
type Batch struct {
	Strings map[string]string
	Floats  map[string]float64
}

// Len returns the number of entries in b.
func (b Batch) Len() int {
	return len(b.Strings) + len(b.Floats)
}
