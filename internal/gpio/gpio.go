// Package gpio provides the configuration button input with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Button reads the raw level of the configuration button.
type Button interface {
	// Read returns the raw line level. The button is wired active-high:
	// true = pressed (line high), false = released.
	// Bounce is not filtered here.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults (BCM numbering)
const (
	DefaultChip      = "gpiochip0"
	DefaultPinButton = 17
)
