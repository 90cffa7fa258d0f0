// Package serial opens a UART bridge as a ps2.Transport.
package serial

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/robotalks/termkbd/pkg/ps2/link"
)

// Config defines the port settings.
type Config struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
}

// Defaults
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 50 * time.Millisecond
)

// Open opens the port and wraps it with a Link.
func Open(conf Config) (*link.Link, error) {
	baud := conf.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(conf.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Port, err)
	}
	timeout := conf.ReadTimeout
	if timeout == 0 {
		timeout = DefaultReadTimeout
	}
	// Read must return periodically so the reader can be stopped.
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", conf.Port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset %s: %w", conf.Port, err)
	}
	return link.New(port), nil
}

// Ports lists the serial ports available.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
