package ps2

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestStep struct {
	in     byte
	reply  byte
	expect ParseResult
	final  State
}

type parserTestBuilder struct {
	steps []parserTestStep
	state State
}

func parserTestSteps() *parserTestBuilder {
	return &parserTestBuilder{}
}

func (b *parserTestBuilder) add(s parserTestStep) *parserTestBuilder {
	b.steps = append(b.steps, s)
	b.state = s.final
	return b
}

func (b *parserTestBuilder) recv(in byte, state State) *parserTestBuilder {
	return b.add(parserTestStep{in: in, expect: ParseResult{State: state, Code: in}, final: state})
}

func (b *parserTestBuilder) idle() *parserTestBuilder {
	return b.recv(CodeNone, b.state)
}

func (b *parserTestBuilder) cmd(cmd, reply byte, state State) *parserTestBuilder {
	return b.add(parserTestStep{
		reply:  reply,
		expect: ParseResult{State: b.state, Command: cmd},
		final:  state,
	})
}

func (b *parserTestBuilder) handshake() *parserTestBuilder {
	return b.cmd(CmdReset, RespAck, StateResetResponse).
		recv(RespSelfTestPassed, StateKbdID0).
		recv(0xab, StateKbdID1).
		recv(0x85, StateConfig).
		cmd(CmdSetAllMakeBreak, RespAck, StateReady)
}

func (b *parserTestBuilder) act(in byte, action Action, state State) *parserTestBuilder {
	return b.add(parserTestStep{in: in, expect: ParseResult{State: state, Action: action, Code: in}, final: state})
}

func (b *parserTestBuilder) press(code byte) *parserTestBuilder {
	return b.act(code, ActionMake, StateReady)
}

func (b *parserTestBuilder) release(code byte) *parserTestBuilder {
	return b.recv(CodeBreak, StateBreak).act(code, ActionBreak, StateReady)
}

func (b *parserTestBuilder) build() []parserTestStep {
	return b.steps
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		steps []parserTestStep
	}{
		{
			name:  "handshake",
			steps: parserTestSteps().handshake().build(),
		},
		{
			name: "retry reset without ack",
			steps: parserTestSteps().
				cmd(CmdReset, 0, StateReset).
				cmd(CmdReset, 0xfe, StateReset).
				cmd(CmdReset, RespAck, StateResetResponse).
				build(),
		},
		{
			name: "ignore received byte in reset",
			steps: parserTestSteps().
				add(parserTestStep{in: 0x1c, reply: RespAck, expect: ParseResult{State: StateReset, Command: CmdReset, Code: 0x1c}, final: StateResetResponse}).
				build(),
		},
		{
			name: "wait for self test",
			steps: parserTestSteps().
				cmd(CmdReset, RespAck, StateResetResponse).
				idle().idle().
				recv(RespSelfTestPassed, StateKbdID0).
				build(),
		},
		{
			name: "self test failure",
			steps: parserTestSteps().
				cmd(CmdReset, RespAck, StateResetResponse).
				recv(0xfc, StateReset).
				cmd(CmdReset, RespAck, StateResetResponse).
				recv(RespSelfTestPassed, StateKbdID0).
				build(),
		},
		{
			name: "any id bytes",
			steps: parserTestSteps().
				cmd(CmdReset, RespAck, StateResetResponse).
				recv(RespSelfTestPassed, StateKbdID0).
				idle().
				recv(0xff, StateKbdID1).
				idle().
				recv(CodeBreak, StateConfig).
				build(),
		},
		{
			name: "retry config without ack",
			steps: parserTestSteps().
				cmd(CmdReset, RespAck, StateResetResponse).
				recv(RespSelfTestPassed, StateKbdID0).
				recv(0x41, StateKbdID1).
				recv(0x41, StateConfig).
				cmd(CmdSetAllMakeBreak, 0, StateConfig).
				cmd(CmdSetAllMakeBreak, RespAck, StateReady).
				build(),
		},
		{
			name: "make and break",
			steps: parserTestSteps().handshake().
				press(0x1c).
				press(0x1c).
				release(0x1c).
				build(),
		},
		{
			name: "break across idle polls",
			steps: parserTestSteps().handshake().
				press(0x07).
				recv(CodeBreak, StateBreak).
				idle().idle().idle().
				act(0x07, ActionBreak, StateReady).
				build(),
		},
		{
			name: "invalid codes",
			steps: parserTestSteps().handshake().
				act(CodeLimit, ActionInvalid, StateReady).
				act(0xfa, ActionInvalid, StateReady).
				recv(CodeBreak, StateBreak).
				act(0xff, ActionInvalid, StateReady).
				recv(CodeBreak, StateBreak).
				act(CodeBreak, ActionInvalid, StateReady).
				press(0x87).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, s := range tc.steps {
				pr := parser.Parse(s.in)
				require.Equalf(t, s.expect, pr, "step[%d] result mismatch", n)
				state := pr.State
				if pr.Command != 0 {
					state = parser.Acknowledge(s.reply)
				}
				require.Equalf(t, s.final, state, "step[%d] final mismatch", n)
				require.Equalf(t, s.final, parser.State(), "step[%d] parser state mismatch", n)
			}
		})
	}
}

func TestStepReady(t *testing.T) {
	for code := 0; code < 0x100; code++ {
		b := byte(code)
		t.Run(fmt.Sprintf("%02X", b), func(t *testing.T) {
			pr := Step(StateReady, b)
			switch {
			case b == CodeNone:
				require.Equal(t, ParseResult{State: StateReady}, pr)
			case b == CodeBreak:
				require.Equal(t, ParseResult{State: StateBreak, Code: b}, pr)
			case b < CodeLimit:
				require.Equal(t, ParseResult{State: StateReady, Action: ActionMake, Code: b}, pr)
			default:
				require.Equal(t, ParseResult{State: StateReady, Action: ActionInvalid, Code: b}, pr)
			}

			pr = Step(StateBreak, b)
			switch {
			case b == CodeNone:
				require.Equal(t, ParseResult{State: StateBreak}, pr)
			case b < CodeLimit:
				require.Equal(t, ParseResult{State: StateReady, Action: ActionBreak, Code: b}, pr)
			default:
				require.Equal(t, ParseResult{State: StateReady, Action: ActionInvalid, Code: b}, pr)
			}
		})
	}
}

func TestAcknowledge(t *testing.T) {
	testCases := []struct {
		state  State
		reply  byte
		expect State
	}{
		{StateReset, RespAck, StateResetResponse},
		{StateReset, 0, StateReset},
		{StateReset, 0xfe, StateReset},
		{StateConfig, RespAck, StateReady},
		{StateConfig, 0xfc, StateConfig},
		{StateReady, RespAck, StateReady},
		{StateKbdID0, RespAck, StateKbdID0},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s %02X", tc.state, tc.reply), func(t *testing.T) {
			require.Equal(t, tc.expect, Acknowledge(tc.state, tc.reply))
		})
	}
}

func TestStateString(t *testing.T) {
	require.Equal(t, "RESET", StateReset.String())
	require.Equal(t, "F0_BREAK", StateBreak.String())
	require.Equal(t, "UNKNOWN", State(42).String())
	require.False(t, StateConfig.IsReady())
	require.True(t, StateReady.IsReady())
	require.True(t, StateBreak.IsReady())
}
