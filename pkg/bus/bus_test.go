package bus

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

const (
	echoTypeID   = msgs.GroupCustom | 0x7f00
	rejectTypeID = msgs.GroupCustom | 0x7f01
	noticeTypeID = msgs.TypeIDKindEvent | msgs.GroupCustom | 0x7f00
)

type echoCmd struct {
	Text string `protobuf:"bytes,1,opt,name=text,proto3" json:"text,omitempty"`
}

func (m *echoCmd) NewMessage() fx.Message      { return &echoCmd{} }
func (m *echoCmd) TypeID() uint32              { return echoTypeID }
func (m *echoCmd) Serializable() proto.Message { return m }
func (m *echoCmd) Reset()                      { *m = echoCmd{} }
func (m *echoCmd) String() string              { return proto.CompactTextString(m) }
func (*echoCmd) ProtoMessage()                 {}

type rejectCmd struct {
	echoCmd
}

func (m *rejectCmd) NewMessage() fx.Message      { return &rejectCmd{} }
func (m *rejectCmd) TypeID() uint32              { return rejectTypeID }
func (m *rejectCmd) Serializable() proto.Message { return &m.echoCmd }

type notice struct {
	echoCmd
}

func (m *notice) NewMessage() fx.Message      { return &notice{} }
func (m *notice) TypeID() uint32              { return noticeTypeID }
func (m *notice) Serializable() proto.Message { return &m.echoCmd }

func init() {
	msgs.Register(&echoCmd{}, &rejectCmd{}, &notice{})
}

type packetPipe struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once sync.Once
}

func newPacketPipes() (*packetPipe, *packetPipe) {
	a, b := make(chan []byte, 16), make(chan []byte, 16)
	return &packetPipe{in: a, out: b, done: make(chan struct{})},
		&packetPipe{in: b, out: a, done: make(chan struct{})}
}

func (p *packetPipe) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.in:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

func (p *packetPipe) WritePacket(pkt []byte) error {
	p.out <- pkt
	return nil
}

func (p *packetPipe) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *packetPipe) Run(ctx context.Context) error {
	<-ctx.Done()
	return p.Close()
}

type busTestEnv struct {
	t      *testing.T
	loop   *fx.Loop
	node   Registrar
	client ClientConn
	events chan fx.Message
	cancel func()
	done   chan error
}

func newBusTestEnv(t *testing.T) *busTestEnv {
	e := &busTestEnv{t: t, loop: fx.NewLoop(), events: make(chan fx.Message, 4), done: make(chan error, 1)}
	e.loop.Interval = 10 * time.Millisecond
	nodeRW, clientRW := newPacketPipes()
	e.node.Init(nodeRW)
	e.client.Init(clientRW)
	e.loop.Add(&e.node, &e.client, &UnsupportedCommands{})
	e.loop.AddController(fx.PrLvControl, fx.ControlFunc(e.serve))
	var ctx context.Context
	ctx, e.cancel = context.WithCancel(context.Background())
	go func() { e.done <- e.loop.Run(ctx) }()
	return e
}

func (e *busTestEnv) serve(cc fx.ControlContext) error {
	cc.Messages().Consume(func(m fx.Message) bool {
		switch msg := m.(type) {
		case *CommandMsg:
			if echo, ok := msg.Command.Msg().(*echoCmd); ok {
				msg.Command.Done(&echoCmd{Text: echo.Text})
				return true
			}
		case *notice:
			e.events <- msg
			return true
		}
		return false
	})
	return nil
}

func (e *busTestEnv) wait(f Future) Result {
	select {
	case res := <-f.ResultChan():
		return res
	case <-time.After(time.Second):
		e.t.Fatal("command timeout")
	}
	return Result{}
}

func (e *busTestEnv) stop() {
	e.cancel()
	assert.Equal(e.t, context.Canceled, <-e.done)
}

func TestCommandReply(t *testing.T) {
	env := newBusTestEnv(t)
	defer env.stop()
	res := env.wait(env.client.DoCommand(&echoCmd{Text: "hello"}))
	require.NoError(t, res.Err)
	reply, ok := res.Msg.(*echoCmd)
	require.True(t, ok)
	assert.Equal(t, "hello", reply.Text)
}

func TestUnsupportedCommand(t *testing.T) {
	env := newBusTestEnv(t)
	defer env.stop()
	res := env.wait(env.client.DoCommand(&rejectCmd{}))
	require.Error(t, res.Err)
	assert.Equal(t, msgs.ErrUnsupportedCommand.Error(), res.Err.Error())
}

func TestEventDelivery(t *testing.T) {
	env := newBusTestEnv(t)
	defer env.stop()
	require.NoError(t, env.node.SendEvent(context.Background(), &notice{echoCmd{Text: "up"}}))
	select {
	case msg := <-env.events:
		assert.Equal(t, "up", msg.(*notice).Text)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSendKindMismatch(t *testing.T) {
	env := newBusTestEnv(t)
	defer env.stop()
	assert.Error(t, env.node.SendEvent(context.Background(), &echoCmd{}))
	res := env.wait(env.client.DoCommand(&notice{}))
	assert.Error(t, res.Err)
}

type failingPublisher struct{}

func (failingPublisher) SendEvent(context.Context, fx.Message) error {
	return errors.New("offline")
}

func TestPublisherMux(t *testing.T) {
	var mux PublisherMux
	var count int
	mux.Add(failingPublisher{}, publishFunc(func() { count++ }))
	err := mux.SendEvent(context.Background(), &notice{})
	require.Error(t, err)
	assert.Equal(t, "offline", err.Error())
	assert.Equal(t, 1, count)
}

type publishFunc func()

func (f publishFunc) SendEvent(context.Context, fx.Message) error {
	f()
	return nil
}

func TestNodeRef(t *testing.T) {
	ref := NodeRef{Type: "kbd", ID: "1"}
	assert.True(t, ref.IsValid())
	assert.Equal(t, "kbd/1", ref.Name())
	assert.False(t, NodeRef{Type: "kbd"}.IsValid())
}
