package keyboard

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/robotalks/termkbd/pkg/ps2"
	"github.com/robotalks/termkbd/pkg/ps2/link"
	"github.com/robotalks/termkbd/pkg/ps2/link/serial"
	"github.com/robotalks/termkbd/pkg/ps2/link/websocket"
	"github.com/robotalks/termkbd/pkg/ps2/sim"
)

// Device is an opened transport.
type Device struct {
	ps2.Transport
	URL string
	// Sim is set when the transport is a simulated keyboard.
	Sim *sim.Keyboard
}

// Close closes the underlying link.
func (d *Device) Close() error {
	if closer, ok := d.Transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// OpenDevice opens the transport by URL.
func (c *Config) OpenDevice() (*Device, error) {
	u, err := url.Parse(c.Transport)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %w", err)
	}
	dev := &Device{URL: c.Transport}
	var lnk *link.Link
	switch u.Scheme {
	case "sim":
		dev.Sim = sim.New()
		dev.Transport = dev.Sim
		return dev, nil
	case "serial":
		conf := serial.Config{Port: u.Path}
		if conf.Port == "" {
			conf.Port = u.Opaque
		}
		if val := u.Query().Get("baud"); val != "" {
			if conf.BaudRate, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid baud rate %q: %w", val, err)
			}
		}
		if lnk, err = serial.Open(conf); err != nil {
			return nil, err
		}
	case "ws", "wss":
		if lnk, err = websocket.Dial(c.Transport, u.Query().Get("origin")); err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.Transport, err)
		}
	default:
		return nil, fmt.Errorf("unknown transport scheme: %q", u.Scheme)
	}
	if c.ReplyTimeout > 0 {
		lnk.ReplyTimeout = c.ReplyTimeout
	}
	dev.Transport = lnk
	return dev, nil
}
