package ps2

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptTransport struct {
	rx      []byte
	replies []byte
	sent    []byte
	inits   int
	initErr error
	recvErr error
}

func (s *scriptTransport) Init() error {
	s.inits++
	return s.initErr
}

func (s *scriptTransport) Send(b byte) (byte, error) {
	s.sent = append(s.sent, b)
	if len(s.replies) == 0 {
		return 0, ErrNoReply
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptTransport) Receive() (byte, error) {
	if err := s.recvErr; err != nil {
		s.recvErr = nil
		return 0, err
	}
	if len(s.rx) == 0 {
		return CodeNone, nil
	}
	b := s.rx[0]
	s.rx = s.rx[1:]
	return b, nil
}

func (s *scriptTransport) inject(bs ...byte) {
	s.rx = append(s.rx, bs...)
}

type engineTestEnv struct {
	t         *testing.T
	transport *scriptTransport
	engine    *Engine
	changes   []State
}

func newEngineTestEnv(t *testing.T) *engineTestEnv {
	env := &engineTestEnv{t: t, transport: &scriptTransport{}}
	env.engine = NewEngine(env.transport)
	env.engine.Notifier = StateChangedFunc(func(from, to State) {
		env.changes = append(env.changes, to)
	})
	require.NoError(t, env.engine.Init())
	return env
}

// scanAll scans until all injected bytes are consumed.
func (e *engineTestEnv) scanAll() {
	for len(e.transport.rx) > 0 {
		e.engine.Scan()
	}
}

func (e *engineTestEnv) ready() *engineTestEnv {
	e.transport.replies = []byte{RespAck, RespAck}
	e.engine.Scan()
	e.transport.inject(RespSelfTestPassed, 0x41, 0x41)
	e.scanAll()
	e.engine.Scan()
	require.Equal(e.t, StateReady, e.engine.State())
	e.transport.sent, e.changes = nil, nil
	return e
}

func TestEngineHandshake(t *testing.T) {
	env := newEngineTestEnv(t)
	env.transport.replies = []byte{RespAck, RespAck}
	env.transport.inject(CodeNone, RespSelfTestPassed, 0x41, 0x41, CodeNone)
	var results []ScanResult
	for i := 0; i < 5; i++ {
		results = append(results, env.engine.Scan())
	}
	require.Equal(t, StateReady, env.engine.State())
	require.Equal(t, []byte{CmdReset, CmdSetAllMakeBreak}, env.transport.sent)
	require.Equal(t, []State{StateResetResponse, StateKbdID0, StateKbdID1, StateConfig, StateReady}, env.changes)
	require.Equal(t, CmdReset, results[0].Command)
	require.Equal(t, StateResetResponse, results[0].State)
	require.Equal(t, CmdSetAllMakeBreak, results[4].Command)
	require.Equal(t, StateReady, results[4].State)
	for n, res := range results {
		require.Falsef(t, res.Changed, "scan[%d] changed", n)
	}
	require.Equal(t, Matrix{}, env.engine.Snapshot())
}

func TestEngineHandshakeRetry(t *testing.T) {
	env := newEngineTestEnv(t)
	env.engine.Scan()
	env.engine.Scan()
	require.Equal(t, StateReset, env.engine.State())
	require.Equal(t, 2, env.engine.Retries())
	require.Equal(t, []byte{CmdReset, CmdReset}, env.transport.sent)
	require.Empty(t, env.changes)

	env.transport.replies = []byte{RespAck}
	env.engine.Scan()
	require.Equal(t, StateResetResponse, env.engine.State())
	require.Zero(t, env.engine.Retries())

	env.transport.inject(0x41)
	env.engine.Scan()
	require.Equal(t, StateReset, env.engine.State())
	require.Equal(t, []State{StateResetResponse, StateReset}, env.changes)

	env.transport.replies = []byte{RespAck}
	env.engine.Scan()
	require.Equal(t, []byte{CmdReset, CmdReset, CmdReset, CmdReset}, env.transport.sent)
	require.Equal(t, StateResetResponse, env.engine.State())
}

func TestEngineMakeBreak(t *testing.T) {
	env := newEngineTestEnv(t).ready()

	env.transport.inject(0x1c)
	res := env.engine.Scan()
	require.True(t, res.Changed)
	require.Equal(t, ActionMake, res.Action)
	require.True(t, env.engine.IsOn(3, 4))
	bits, err := env.engine.Row(3)
	require.NoError(t, err)
	require.Equal(t, uint8(0x10), bits)

	env.transport.inject(0x1c)
	res = env.engine.Scan()
	require.False(t, res.Changed)
	require.Equal(t, ActionMake, res.Action)

	env.transport.inject(CodeBreak)
	res = env.engine.Scan()
	require.Equal(t, StateBreak, res.State)
	require.False(t, res.Changed)
	for i := 0; i < 3; i++ {
		res = env.engine.Scan()
		require.Equal(t, StateBreak, res.State)
	}
	env.transport.inject(0x1c)
	res = env.engine.Scan()
	require.True(t, res.Changed)
	require.Equal(t, ActionBreak, res.Action)
	require.Equal(t, StateReady, res.State)
	require.Equal(t, Matrix{}, env.engine.Snapshot())
	require.Empty(t, env.transport.sent)
}

func TestEngineEveryCode(t *testing.T) {
	env := newEngineTestEnv(t).ready()
	for code := byte(0x01); code < CodeLimit; code++ {
		before := env.engine.Snapshot()
		env.transport.inject(code)
		env.scanAll()
		after := env.engine.Snapshot()
		require.True(t, env.engine.IsOn(RowOf(code), ColOf(code)))
		require.Equalf(t, []KeyChange{{Code: code, Pressed: true}}, after.Diff(&before), "make %02X", code)

		env.transport.inject(CodeBreak, code)
		env.scanAll()
		released := env.engine.Snapshot()
		require.Equalf(t, before, released, "break %02X", code)
	}
}

func TestEngineInvalidCodes(t *testing.T) {
	env := newEngineTestEnv(t).ready()
	env.transport.inject(0x05, 0x66)
	env.scanAll()
	expect := env.engine.Snapshot()
	for code := int(CodeLimit); code < 0x100; code++ {
		if byte(code) == CodeBreak {
			continue
		}
		env.transport.inject(byte(code))
		res := env.engine.Scan()
		require.Equal(t, ActionInvalid, res.Action)
		require.Equal(t, StateReady, res.State)
		require.False(t, res.Changed)

		env.transport.inject(CodeBreak, byte(code))
		env.scanAll()
		require.Equal(t, StateReady, env.engine.State())
	}
	require.Equal(t, expect, env.engine.Snapshot())
	require.Equal(t, []byte{0x05, 0x66}, expect.Keys())
}

func TestEngineReceiveError(t *testing.T) {
	env := newEngineTestEnv(t).ready()
	env.transport.recvErr = errors.New("bus error")
	res := env.engine.Scan()
	require.Equal(t, ScanResult{ParseResult: ParseResult{State: StateReady}}, res)
}

func TestEngineInit(t *testing.T) {
	env := newEngineTestEnv(t).ready()
	env.transport.inject(0x10)
	env.scanAll()
	require.NotEqual(t, Matrix{}, env.engine.Snapshot())

	var hooked *Engine
	env.engine.InitHook = InitHookFunc(func(e *Engine) {
		hooked = e
		require.Equal(t, StateReset, e.State())
		require.Equal(t, Matrix{}, e.Snapshot())
	})
	require.NoError(t, env.engine.Init())
	require.Equal(t, env.engine, hooked)
	require.Equal(t, 2, env.transport.inits)
	require.Equal(t, []State{StateReset}, env.changes)

	env.transport.initErr = errors.New("no link")
	require.EqualError(t, env.engine.Init(), "no link")
}

func TestEngineReset(t *testing.T) {
	env := newEngineTestEnv(t).ready()
	env.transport.inject(0x10, 0x11)
	env.scanAll()
	env.engine.Reset()
	require.Equal(t, StateReset, env.engine.State())
	require.Equal(t, Matrix{}, env.engine.Snapshot())
	require.Equal(t, 1, env.transport.inits)
	require.Equal(t, []State{StateReset}, env.changes)
}

func TestEngineDump(t *testing.T) {
	env := newEngineTestEnv(t).ready()
	env.transport.inject(0x1c)
	env.scanAll()
	snapshot := env.engine.Snapshot()
	require.Equal(t, snapshot.String(), env.engine.Dump())
	require.Contains(t, env.engine.Dump(), "03: 00001000\n")
}
