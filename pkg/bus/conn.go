package bus

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

// DefaultCommandExpiration is the default time waiting for a reply.
const DefaultCommandExpiration = time.Second

// ClientConn implements Conn over a Pipe. Events from the node are
// posted to the loop.
type ClientConn struct {
	Expiration time.Duration

	pipe    Pipe
	seq     uint32
	pending list.List
	seqMap  map[uint32]*future
	lock    sync.Mutex
}

// Init initializes ClientConn.
func (c *ClientConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.seqMap = make(map[uint32]*future)
}

// DoCommand implements Conn.
func (c *ClientConn) DoCommand(msg fx.Message) Future {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f := &future{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan Result, 1),
	}
	if err := c.pipe.SendCommand(msg, f.seq); err != nil {
		f.result <- Result{Err: err}
		close(f.result)
		return f
	}
	f.elem = c.pending.PushBack(f)
	c.seqMap[f.seq] = f
	return f
}

// AddToLoop implements LoopAdder.
func (c *ClientConn) AddToLoop(loop *fx.Loop) {
	loop.Add(&c.pipe)
	loop.AddController(fx.PrLvIdle, fx.ControlFunc(c.purgeExpired))
}

func (c *ClientConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.seqMap[typed.Sequence]
	if f == nil {
		return nil
	}
	c.complete(f, Result{Msg: msg})
	return nil
}

func (c *ClientConn) purgeExpired(cc fx.ControlContext) error {
	now := cc.Time()
	c.lock.Lock()
	defer c.lock.Unlock()
	for c.pending.Len() > 0 {
		f := c.pending.Front().Value.(*future)
		if f.expireAt.After(now) {
			break
		}
		c.complete(f, Result{Err: context.DeadlineExceeded})
	}
	return nil
}

func (c *ClientConn) complete(f *future, res Result) {
	c.pending.Remove(f.elem)
	delete(c.seqMap, f.seq)
	if cmdErr, ok := res.Msg.(*msgs.CommandErr); ok {
		res.Err = cmdErr
	}
	f.result <- res
	close(f.result)
}

type future struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan Result
}

func (f *future) ResultChan() <-chan Result {
	return f.result
}
