package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default interval between iterations.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers periodically, ordered by priority level.
// All controllers run on the goroutine calling Run.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	messages []Message
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

type loopCtl struct {
	*Loop
}

type loopIteration struct {
	loopCtl
	ctx      context.Context
	time     time.Time
	messages []Message
}

type loopCtxKey struct{}

// LoopCtlFrom gets LoopControl from the context passed to
// Runnables started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{
		Interval: DefaultInterval,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at the priority level.
// Controllers implementing Runnable are also started by Run.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnables started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	ctx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey{}, &loopCtl{l}))
	runner.Go(l.runners...)
	defer func() {
		cancel()
		runner.Wait()
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunIteration(ctx)
		case <-l.wakeUpCh:
			l.RunIteration(ctx)
		case err := <-runner.Failed():
			return err
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	runner := NewRunner().HandleSignals()
	if err := l.Run(runner.Context); err != nil && err != context.Canceled {
		glog.Fatalln(err)
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages = append(l.messages, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// RunIteration runs all controllers once.
func (l *Loop) RunIteration(ctx context.Context) {
	iter := &loopIteration{loopCtl: loopCtl{l}, time: time.Now()}
	l.lock.Lock()
	iter.messages, l.messages = l.messages, nil
	l.lock.Unlock()
	iter.ctx = context.WithValue(ctx, loopCtxKey{}, iter)
	for _, ctls := range l.controllers {
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
	// messages nobody took are dropped.
	if n := len(iter.messages); n > 0 {
		glog.V(4).Infof("%d messages not processed", n)
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

// Consume implements MessageStore.
func (t *loopIteration) Consume(filter MessageFilter) {
	kept := 0
	for _, msg := range t.messages {
		if !filter(msg) {
			t.messages[kept] = msg
			kept++
		}
	}
	for i := kept; i < len(t.messages); i++ {
		t.messages[i] = nil
	}
	t.messages = t.messages[:kept]
}
