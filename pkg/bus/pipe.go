package bus

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

// Pipe carries Typed envelopes both ways over a PacketReadWriter.
// Decoded messages are passed to Handler; writes are serialized.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler

	writeLock sync.Mutex
}

// SendCommand writes a command, or the reply to one, tagged with seq.
func (p *Pipe) SendCommand(msg fx.Message, seq uint32) error {
	return p.send(msg, seq, true)
}

// SendEvent writes an event.
func (p *Pipe) SendEvent(msg fx.Message) error {
	return p.send(msg, 0, false)
}

func (p *Pipe) send(msg fx.Message, seq uint32, command bool) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if typed.IsCommand() != command {
		return fmt.Errorf("type %x sent on the wrong channel", typed.TypeID)
	}
	typed.Sequence = seq
	return p.write(typed)
}

func (p *Pipe) write(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable. It returns when ReadWriter fails; io.EOF
// counts as a clean stop.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.Close()
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err == io.EOF {
			return ctx.Err()
		}
		if err != nil {
			return err
		}
		if err = p.dispatch(ctx, pkt); err != nil {
			return err
		}
	}
}

func (p *Pipe) dispatch(ctx context.Context, pkt []byte) error {
	typed, err := msgs.DecodeTyped(pkt)
	if err != nil {
		glog.V(2).Infof("dropped malformed packet: %v", err)
		return nil
	}
	msg, err := typed.Decode()
	switch {
	case err == nil:
	case typed.IsCommand() && !typed.IsReply():
		// the sender is waiting for a reply.
		return p.SendCommand(msgs.NewCommandErr(err), typed.Sequence)
	default:
		return nil
	}
	if p.Handler == nil {
		return nil
	}
	return p.Handler.HandleTypedMsg(ctx, msg, typed)
}

// Close closes ReadWriter when it's an io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(p)
}
