package sensor

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultDevicePattern matches DS18B20 probes exposed by the w1-therm kernel driver.
const DefaultDevicePattern = "/sys/bus/w1/devices/28-*"

// W1Reader reads a DS18B20 probe through the Linux 1-Wire sysfs interface.
type W1Reader struct {
	pattern string
}

// NewW1Reader creates a reader for the first device directory matching
// pattern. The pattern is resolved on every read so a probe plugged in
// after startup is picked up.
func NewW1Reader(pattern string) *W1Reader {
	return &W1Reader{pattern: pattern}
}

// ReadCelsius reads the probe's w1_slave file.
func (r *W1Reader) ReadCelsius() (float64, error) {
	matches, err := filepath.Glob(r.pattern)
	if err != nil {
		return DisconnectedC, fmt.Errorf("resolve %s: %w", r.pattern, err)
	}
	if len(matches) == 0 {
		return DisconnectedC, fmt.Errorf("no device matches %s: %w", r.pattern, ErrDisconnected)
	}

	data, err := os.ReadFile(filepath.Join(matches[0], "w1_slave"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DisconnectedC, fmt.Errorf("read %s: %w", matches[0], ErrDisconnected)
		}
		return DisconnectedC, fmt.Errorf("read %s: %w", matches[0], err)
	}
	return parseW1Slave(data)
}

// Close is a no-op; sysfs files are opened per read.
func (r *W1Reader) Close() error {
	return nil
}

// parseW1Slave parses w1_slave contents:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseW1Slave(data []byte) (float64, error) {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) < 2 {
		return DisconnectedC, fmt.Errorf("short w1_slave output: %w", ErrDisconnected)
	}
	if !bytes.HasSuffix(bytes.TrimSpace(lines[0]), []byte("YES")) {
		return DisconnectedC, fmt.Errorf("crc check failed: %w", ErrDisconnected)
	}

	i := bytes.Index(lines[1], []byte("t="))
	if i < 0 {
		return DisconnectedC, fmt.Errorf("missing temperature field: %w", ErrDisconnected)
	}
	milli, err := strconv.ParseInt(string(bytes.TrimSpace(lines[1][i+2:])), 10, 64)
	if err != nil {
		return DisconnectedC, fmt.Errorf("parse temperature: %w", err)
	}
	return float64(milli) / 1000, nil
}
