// Package sensor reads the temperature probe and rate-limits sampling.
package sensor

import "errors"

// DisconnectedC is the value 1-Wire temperature drivers report for a
// missing or unresponsive probe.
const DisconnectedC = -127.0

// ErrDisconnected is returned when no probe answers on the bus.
var ErrDisconnected = errors.New("sensor disconnected")

// Reader reads the temperature probe.
type Reader interface {
	// ReadCelsius returns the current temperature in degrees Celsius.
	// A missing probe yields ErrDisconnected (possibly wrapped).
	ReadCelsius() (float64, error)

	// Close releases sensor resources.
	Close() error
}
