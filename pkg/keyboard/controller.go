// Package keyboard runs a scan code set 3 keyboard as a node on the bus.
package keyboard

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/bus"
	busmsgs "github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
	"github.com/robotalks/termkbd/pkg/keyboard/msgs"
	"github.com/robotalks/termkbd/pkg/ps2"
)

// ErrNotSimulated indicates keys can't be injected into real hardware.
var ErrNotSimulated = errors.New("transport is not simulated")

// Controller scans the keyboard on every loop iteration and publishes
// the changes.
type Controller struct {
	Engine       *ps2.Engine
	Device       *Device
	Publisher    bus.Publisher
	Pins         ps2.Pins
	ScansPerPoll int
	Verbose      bool

	initialized   bool
	prev          ps2.Matrix
	events        []fx.Message
	statusChanged bool
}

// NewController creates a Controller.
func NewController(dev *Device, pub bus.Publisher) *Controller {
	c := &Controller{
		Engine:        ps2.NewEngine(dev),
		Device:        dev,
		Publisher:     pub,
		Pins:          defaultConfig.Pins,
		ScansPerPoll:  defaultConfig.ScansPerPoll,
		Verbose:       defaultConfig.Verbose,
		statusChanged: true,
	}
	c.Engine.Notifier = ps2.StateChangedFunc(c.stateChanged)
	return c
}

// NewController creates a controller using the config.
func (c *Config) NewController(dev *Device, pub bus.Publisher) (*Controller, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	ctl := NewController(dev, pub)
	ctl.Pins = c.Pins
	ctl.ScansPerPoll = c.ScansPerPoll
	ctl.Verbose = c.Verbose
	return ctl, nil
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.scan))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.publish))
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	<-ctx.Done()
	if err := c.Device.Close(); err != nil {
		glog.Warningf("close %s: %v", c.Device.URL, err)
	}
	return ctx.Err()
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().Consume(func(msg fx.Message) bool {
		cmdMsg, ok := msg.(*bus.CommandMsg)
		if !ok {
			return false
		}
		var reply fx.Message
		switch m := cmdMsg.Command.Msg().(type) {
		case *msgs.StatusQuery:
			reply = &msgs.StatusReply{Status: c.Status()}
		case *msgs.MatrixQuery:
			matrix := c.Engine.Snapshot()
			reply = &msgs.MatrixReply{Rows: matrix.Bytes(), Keys: matrix.Keys(), Dump: matrix.String()}
		case *msgs.ResetKeyboard:
			glog.Info("reset requested")
			// the transport is re-initialized on the next scan.
			c.Engine.Reset()
			c.initialized = false
			reply = busmsgs.NewCommandOK()
		case *msgs.InjectKey:
			reply = c.inject(m)
		default:
			return false
		}
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("reply error: %v", err)
		}
		return true
	})
	return nil
}

// Status reports the protocol status.
func (c *Controller) Status() *msgs.KeyboardStatus {
	state, matrix := c.Engine.State(), c.Engine.Snapshot()
	return &msgs.KeyboardStatus{
		State:       state.String(),
		Ready:       state.IsReady(),
		Retries:     uint32(c.Engine.Retries()),
		Transport:   c.Device.URL,
		DataPin:     uint32(c.Pins.Data),
		ClockPin:    uint32(c.Pins.Clock),
		PressedKeys: uint32(len(matrix.Keys())),
	}
}

func (c *Controller) scan(cc fx.ControlContext) error {
	if !c.initialized {
		if err := c.Pins.Validate(); err != nil {
			return err
		}
		if err := c.Engine.Init(); err != nil {
			return err
		}
		c.initialized = true
	}
	for i := 0; i < c.ScansPerPoll; i++ {
		if res := c.Engine.Scan(); res.Code == ps2.CodeNone {
			break
		}
	}
	matrix := c.Engine.Snapshot()
	changes := matrix.Diff(&c.prev)
	if len(changes) == 0 {
		return nil
	}
	for _, change := range changes {
		if c.Verbose {
			glog.Infof("key %02X %s", change.Code, pressedStr(change.Pressed))
		}
		c.events = append(c.events, &msgs.KeyEvent{
			Code:    uint32(change.Code),
			Row:     uint32(ps2.RowOf(change.Code)),
			Col:     uint32(ps2.ColOf(change.Code)),
			Pressed: change.Pressed,
		})
	}
	c.events = append(c.events, &msgs.MatrixState{Rows: matrix.Bytes(), Keys: matrix.Keys()})
	c.prev = matrix
	return nil
}

func (c *Controller) publish(cc fx.ControlContext) error {
	events := c.events
	c.events = nil
	if c.statusChanged {
		c.statusChanged = false
		events = append(events, c.Status())
	}
	if c.Publisher == nil {
		return nil
	}
	var errs fx.AggregatedError
	for _, ev := range events {
		errs.Add(c.Publisher.SendEvent(cc.Context(), ev))
	}
	return errs.Aggregate()
}

func (c *Controller) stateChanged(from, to ps2.State) {
	if to.IsReady() != from.IsReady() || !to.IsReady() {
		c.statusChanged = true
	}
	if to == ps2.StateReady && from != ps2.StateBreak {
		glog.Infof("keyboard ready")
	}
}

func (c *Controller) inject(m *msgs.InjectKey) fx.Message {
	kbd := c.Device.Sim
	if kbd == nil {
		return busmsgs.NewCommandErr(ErrNotSimulated)
	}
	code := byte(m.Code)
	if uint32(code) != m.Code || code == ps2.CodeNone || !ps2.IsValidCode(code) {
		return busmsgs.NewCommandErr(ps2.ErrInvalidCode)
	}
	if m.Pressed {
		kbd.Press(code)
	} else {
		kbd.Release(code)
	}
	return busmsgs.NewCommandOK()
}

func pressedStr(pressed bool) string {
	if pressed {
		return "pressed"
	}
	return "released"
}
