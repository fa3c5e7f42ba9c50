// Package serial opens UART links to a device.
package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// ErrNoDevice indicates no device path is configured.
var ErrNoDevice = errors.New("no serial device")

// Config configures a serial port.
type Config struct {
	Device      string        `yaml:"device"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DefaultConfig returns the default configuration for device.
func DefaultConfig(device string) Config {
	return Config{Device: device, Baud: 115200, ReadTimeout: 100 * time.Millisecond}
}

// Port is an open serial port. A read timeout is reported as a zero
// length read rather than an error.
type Port struct {
	rwc io.ReadWriteCloser
}

// Open opens the serial port.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, ErrNoDevice
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	return &Port{rwc: port}, nil
}

// Read implements io.Reader.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.rwc.Read(b)
	if err == io.EOF {
		// timeout with nothing received
		return n, nil
	}
	return n, err
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	return p.rwc.Write(b)
}

// Close implements io.Closer.
func (p *Port) Close() error {
	return p.rwc.Close()
}
