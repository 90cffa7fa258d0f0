package ps2

import (
	"errors"
	"fmt"
)

var (
	// ErrRowOutOfRange indicates a matrix row outside [0, MatrixRows).
	ErrRowOutOfRange = errors.New("matrix row out of range")
	// ErrNoReply indicates the device didn't reply to a command.
	ErrNoReply = errors.New("no reply")
	// ErrInvalidCode indicates a scan code outside the matrix.
	ErrInvalidCode = errors.New("invalid scan code")
)

// PinError reports an invalid data/clock pin assignment.
type PinError struct {
	Data  int
	Clock int
}

// Error implements error.
func (e *PinError) Error() string {
	return fmt.Sprintf("clock pin %d must be data pin %d + 1", e.Clock, e.Data)
}
