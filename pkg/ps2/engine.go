package ps2

import (
	"github.com/golang/glog"
)

// StateNotifier is called when the protocol state changed.
type StateNotifier interface {
	StateChanged(from, to State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(from, to State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(from, to State) {
	f(from, to)
}

// InitHook is called at the end of Engine.Init.
type InitHook interface {
	EngineInit(*Engine)
}

// InitHookFunc is func type of InitHook.
type InitHookFunc func(*Engine)

// EngineInit implements InitHook.
func (f InitHookFunc) EngineInit(e *Engine) {
	f(e)
}

// ScanResult is the result of one Scan.
type ScanResult struct {
	ParseResult
	// Changed indicates the matrix was mutated.
	Changed bool
}

// Engine runs the protocol over a Transport and owns the key matrix.
// It must be driven from a single goroutine.
type Engine struct {
	Transport Transport
	Notifier  StateNotifier
	InitHook  InitHook

	parser  Parser
	matrix  Matrix
	retries int
}

// NewEngine creates an Engine.
func NewEngine(t Transport) *Engine {
	return &Engine{Transport: t}
}

// Init clears the matrix, initializes the transport and restarts
// the handshake.
func (e *Engine) Init() error {
	e.matrix.clear()
	if err := e.Transport.Init(); err != nil {
		return err
	}
	e.setState(StateReset)
	if h := e.InitHook; h != nil {
		h.EngineInit(e)
	}
	return nil
}

// Reset restarts the handshake and releases all keys without
// touching the transport.
func (e *Engine) Reset() {
	e.matrix.clear()
	e.setState(StateReset)
}

// State gets the protocol state.
func (e *Engine) State() State {
	return e.parser.State()
}

// Retries is the number of unacknowledged commands sent in the
// current state.
func (e *Engine) Retries() int {
	return e.retries
}

// Scan receives at most one byte and processes it. It must be called
// on every poll cycle.
func (e *Engine) Scan() (res ScanResult) {
	code, err := e.Transport.Receive()
	if err != nil {
		glog.Warningf("receive error: %v", err)
		code = CodeNone
	}
	if code != CodeNone {
		glog.V(3).Infof("r%02X", code)
	}

	from := e.parser.State()
	res.ParseResult = e.parser.Parse(code)
	if cmd := res.Command; cmd != 0 {
		glog.V(3).Infof("w%02X", cmd)
		reply, err := e.Transport.Send(cmd)
		if err != nil {
			glog.V(2).Infof("send %02X error: %v", cmd, err)
		}
		if res.State = e.parser.Acknowledge(reply); res.State == from {
			e.retries++
		}
	}

	switch res.Action {
	case ActionMake:
		res.Changed = e.matrix.press(res.Code)
	case ActionBreak:
		res.Changed = e.matrix.release(res.Code)
	case ActionInvalid:
		glog.Warningf("unexpected scan code at %s: %02X", from, res.Code)
	}

	if res.State != from {
		e.stateChanged(from, res.State)
	}
	return
}

// Row returns the bits of a matrix row.
func (e *Engine) Row(row int) (uint8, error) {
	return e.matrix.Row(row)
}

// IsOn indicates the key at row, col is pressed.
func (e *Engine) IsOn(row, col int) bool {
	return e.matrix.IsOn(row, col)
}

// Snapshot returns a copy of the matrix.
func (e *Engine) Snapshot() Matrix {
	return e.matrix
}

// Dump renders the matrix for debugging.
func (e *Engine) Dump() string {
	return e.matrix.String()
}

func (e *Engine) setState(state State) {
	from := e.parser.State()
	e.parser.state = state
	if from != state {
		e.stateChanged(from, state)
	}
}

func (e *Engine) stateChanged(from, to State) {
	e.retries = 0
	glog.V(2).Infof("%s -> %s", from, to)
	if n := e.Notifier; n != nil {
		n.StateChanged(from, to)
	}
}
