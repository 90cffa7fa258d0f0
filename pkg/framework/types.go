package framework

import (
	"context"
	"time"
)

// Runnable is a background task started with the loop.
type Runnable interface {
	Run(context.Context) error
}

// Message is posted to the loop and consumed by controllers in the
// next iteration.
type Message interface {
	NewMessage() Message
}

// Controller is invoked once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc adapts a func to Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// LoopAdder registers its own controllers and runnables.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// ControlContext is what a controller sees of the current iteration.
type ControlContext interface {
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// Messages holds the messages posted before the iteration started
	// and not yet consumed by a controller with higher priority.
	Messages() MessageStore

	LoopControl
}

// LoopControl is safe to use from any goroutine.
type LoopControl interface {
	// PostMessage queues msg for the next iteration.
	PostMessage(msg Message)
	// TriggerNext starts the next iteration without waiting for the tick.
	TriggerNext()
}

// MessageFilter returns true when it consumed msg.
type MessageFilter func(msg Message) bool

// MessageStore lets controllers consume pending messages.
type MessageStore interface {
	// Consume calls filter with every pending message in posting order
	// and removes the ones it consumed.
	Consume(filter MessageFilter)
}

// PriorityLevels is the number of controller slots, lower runs first.
const PriorityLevels = 16

// Priority levels used by the keyboard components.
const (
	// PrLvSense polls hardware.
	PrLvSense = 4
	// PrLvControl handles commands.
	PrLvControl = 8
	// PrLvPostProc publishes what the iteration produced.
	PrLvPostProc = 14
	// PrLvIdle picks up leftovers.
	PrLvIdle = PriorityLevels - 1
)
