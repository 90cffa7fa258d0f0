// Package sim simulates a scan code set 3 terminal keyboard.
package sim

import (
	"errors"
	"sync"

	"github.com/robotalks/termkbd/pkg/ps2"
)

// DefaultID is the ID reported after reset.
var DefaultID = [2]byte{0xab, 0x85}

// Fault injections
var (
	// ErrUnplugged indicates no device replies.
	ErrUnplugged = errors.New("keyboard unplugged")
)

const (
	respResend         byte = 0xfe
	respSelfTestFailed byte = 0xfc
)

// Keyboard implements ps2.Transport with a simulated device.
// It's safe for concurrent use, keys can be pressed from any goroutine.
type Keyboard struct {
	ID [2]byte

	lock         sync.Mutex
	pending      []byte
	sent         []byte
	configured   bool
	unplugged    bool
	failSelfTest bool
}

// New creates a Keyboard.
func New() *Keyboard {
	return &Keyboard{ID: DefaultID}
}

// Init implements ps2.Transport.
func (k *Keyboard) Init() error {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.pending = nil
	return nil
}

// Send implements ps2.Transport.
func (k *Keyboard) Send(b byte) (byte, error) {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.sent = append(k.sent, b)
	if k.unplugged {
		return 0, ErrUnplugged
	}
	switch b {
	case ps2.CmdReset:
		k.configured = false
		if k.failSelfTest {
			k.pending = []byte{respSelfTestFailed}
		} else {
			k.pending = []byte{ps2.RespSelfTestPassed, k.ID[0], k.ID[1]}
		}
	case ps2.CmdSetAllMakeBreak:
		k.configured = true
	default:
		return respResend, nil
	}
	return ps2.RespAck, nil
}

// Receive implements ps2.Transport.
func (k *Keyboard) Receive() (byte, error) {
	k.lock.Lock()
	defer k.lock.Unlock()
	if len(k.pending) == 0 {
		return ps2.CodeNone, nil
	}
	b := k.pending[0]
	k.pending = k.pending[1:]
	return b, nil
}

// Press queues the make code. Ignored before configuration.
func (k *Keyboard) Press(code byte) {
	k.Inject(code)
}

// Release queues the break sequence. Ignored before configuration.
func (k *Keyboard) Release(code byte) {
	k.Inject(ps2.CodeBreak, code)
}

// Inject queues raw bytes. Ignored before configuration.
func (k *Keyboard) Inject(bs ...byte) {
	k.lock.Lock()
	defer k.lock.Unlock()
	if k.configured && !k.unplugged {
		k.pending = append(k.pending, bs...)
	}
}

// Configured indicates the host finished the handshake.
func (k *Keyboard) Configured() bool {
	k.lock.Lock()
	defer k.lock.Unlock()
	return k.configured
}

// Unplug simulates disconnecting the keyboard.
func (k *Keyboard) Unplug() {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.unplugged, k.configured, k.pending = true, false, nil
}

// Plug simulates connecting the keyboard.
func (k *Keyboard) Plug() {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.unplugged = false
}

// FailSelfTest makes the next resets fail.
func (k *Keyboard) FailSelfTest(fail bool) {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.failSelfTest = fail
}

// Sent returns and clears the commands received from the host.
func (k *Keyboard) Sent() []byte {
	k.lock.Lock()
	defer k.lock.Unlock()
	sent := k.sent
	k.sent = nil
	return sent
}
