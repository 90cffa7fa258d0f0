package ps2

// Transport moves single bytes over the clock/data link.
// It does no framing and no retries.
type Transport interface {
	// Init establishes the physical link.
	Init() error
	// Send writes one byte and returns the immediate reply of the device.
	// An error means the reply is not available.
	Send(b byte) (byte, error)
	// Receive returns a pending byte, or CodeNone if nothing is pending.
	Receive() (byte, error)
}

// Pins assigns the link to GPIO pins. The bit-banging state machine
// on the host requires the clock pin to directly follow the data pin.
type Pins struct {
	Data  int `yaml:"data" json:"data"`
	Clock int `yaml:"clock" json:"clock"`
}

// DefaultPins uses GP0 for data and GP1 for clock.
var DefaultPins = Pins{Data: 0, Clock: 1}

// Validate checks the clock pin is adjacent to the data pin.
func (p Pins) Validate() error {
	if p.Data < 0 || p.Clock != p.Data+1 {
		return &PinError{Data: p.Data, Clock: p.Clock}
	}
	return nil
}
