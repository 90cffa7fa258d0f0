package ps2

// State is the state of the protocol state machine.
type State int

const (
	StateReset         State = iota // send reset, waiting for ack
	StateResetResponse              // waiting for self test result
	StateKbdID0                     // waiting for first ID byte
	StateKbdID1                     // waiting for second ID byte
	StateConfig                     // send set all make/break, waiting for ack
	StateReady                      // receiving scan codes
	StateBreak                      // break prefix received, waiting for the code
)

var stateNames = [...]string{
	StateReset:         "RESET",
	StateResetResponse: "RESET_RESPONSE",
	StateKbdID0:        "KBD_ID0",
	StateKbdID1:        "KBD_ID1",
	StateConfig:        "CONFIG",
	StateReady:         "READY",
	StateBreak:         "F0_BREAK",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// IsReady indicates the handshake is done and scan codes are accepted.
func (s State) IsReady() bool {
	return s == StateReady || s == StateBreak
}

// Action is the matrix mutation requested by one parsing step.
type Action int

const (
	// ActionNone leaves the matrix untouched.
	ActionNone Action = iota
	// ActionMake marks the key of Code pressed.
	ActionMake
	// ActionBreak marks the key of Code released.
	ActionBreak
	// ActionInvalid reports Code was discarded.
	ActionInvalid
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionMake:
		return "make"
	case ActionBreak:
		return "break"
	case ActionInvalid:
		return "invalid"
	}
	return "none"
}

// ParseResult is the outcome of one parsing step.
type ParseResult struct {
	State State
	// Command is the byte to send to the device, 0 for nothing.
	Command byte
	Action  Action
	Code    byte
}

// Step computes the transition for a received byte. code is CodeNone
// when nothing was received. States requesting a Command don't advance
// until the reply is passed to Acknowledge.
func Step(state State, code byte) (pr ParseResult) {
	pr.State, pr.Code = state, code
	switch state {
	case StateReset:
		pr.Command = CmdReset
	case StateResetResponse:
		if code == RespSelfTestPassed {
			pr.State = StateKbdID0
		} else if code != CodeNone {
			pr.State = StateReset
		}
	case StateKbdID0:
		if code != CodeNone {
			pr.State = StateKbdID1
		}
	case StateKbdID1:
		if code != CodeNone {
			pr.State = StateConfig
		}
	case StateConfig:
		pr.Command = CmdSetAllMakeBreak
	case StateReady:
		switch {
		case code == CodeNone:
		case code == CodeBreak:
			pr.State = StateBreak
		case IsValidCode(code):
			pr.Action = ActionMake
		default:
			pr.Action = ActionInvalid
		}
	case StateBreak:
		if code == CodeNone {
			break
		}
		if IsValidCode(code) {
			pr.Action = ActionBreak
		} else {
			pr.Action = ActionInvalid
		}
		pr.State = StateReady
	default:
		pr.State = StateReset
	}
	return
}

// Acknowledge computes the state after the device replied to the
// command requested in state.
func Acknowledge(state State, reply byte) State {
	if reply != RespAck {
		return state
	}
	switch state {
	case StateReset:
		return StateResetResponse
	case StateConfig:
		return StateReady
	}
	return state
}

// Parser keeps the protocol state across polls.
type Parser struct {
	state State
}

// State gets the current state.
func (p *Parser) State() State {
	return p.state
}

// Reset restarts the handshake.
func (p *Parser) Reset() {
	p.state = StateReset
}

// Parse consumes one received byte, CodeNone if nothing was received.
func (p *Parser) Parse(code byte) ParseResult {
	pr := Step(p.state, code)
	p.state = pr.State
	return pr
}

// Acknowledge consumes the reply to the pending Command.
func (p *Parser) Acknowledge(reply byte) State {
	p.state = Acknowledge(p.state, reply)
	return p.state
}
