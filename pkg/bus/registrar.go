package bus

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

// Registrar is the node side of a Pipe. Received commands are posted
// to the loop as CommandMsg.
type Registrar struct {
	pipe Pipe
}

// Init initializes the Registrar.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(r.handleTypedMsg)
}

// SendEvent implements Publisher.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEvent(msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

func (r *Registrar) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if !typed.IsCommand() || typed.IsReply() {
		glog.V(2).Infof("ignore message %x", typed.TypeID)
		return nil
	}
	loopCtl := fx.LoopCtlFrom(ctx)
	loopCtl.PostMessage(&CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}})
	loopCtl.TriggerNext()
	return nil
}

type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(reply fx.Message) error {
	return c.pipe.SendCommand(reply, c.seq)
}

// PublisherMux fans events out to multiple Publishers.
type PublisherMux struct {
	Publishers []Publisher
}

// SendEvent implements Publisher.
func (m *PublisherMux) SendEvent(ctx context.Context, msg fx.Message) error {
	var errs fx.AggregatedError
	for _, p := range m.Publishers {
		errs.Add(p.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// Add adds more publishers.
func (m *PublisherMux) Add(pubs ...Publisher) *PublisherMux {
	m.Publishers = append(m.Publishers, pubs...)
	return m
}

// AddToLoop implements LoopAdder.
func (m *PublisherMux) AddToLoop(loop *fx.Loop) {
	for _, p := range m.Publishers {
		if adder, ok := p.(fx.LoopAdder); ok {
			loop.Add(adder)
		}
	}
}

// UnsupportedCommands replies commands no controller took.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().Consume(func(msg fx.Message) bool {
		cmdMsg, ok := msg.(*CommandMsg)
		if !ok {
			return false
		}
		if err := cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)); err != nil {
			glog.Warningf("reply error: %v", err)
		}
		return true
	})
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
