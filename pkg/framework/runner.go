package framework

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait after a second stop signal.
var ErrForcedExit = errors.New("forced exit")

// Runner starts Runnables in their own goroutines and gathers the
// errors they stop with.
type Runner struct {
	Context context.Context

	started int
	doneCh  chan error
	failCh  chan error
	abortCh chan struct{}
}

// NewRunner creates a Runner on context.Background.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a Runner on ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		doneCh:  make(chan error, 1),
		failCh:  make(chan error, 1),
		abortCh: make(chan struct{}),
	}
}

// HandleSignals cancels Context on the first SIGINT or SIGTERM and
// makes Wait give up on the second.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.abortCh)
	}()
	return r
}

// Go starts runnables with Context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		id := r.started
		r.started++
		glog.V(4).Infof("runner %d started", id)
		go r.run(id, runnable)
	}
	return r
}

func (r *Runner) run(id int, runnable Runnable) {
	err := runnable.Run(r.Context)
	glog.V(4).Infof("runner %d stopped: %v", id, err)
	if err != nil && err != context.Canceled {
		select {
		case r.failCh <- err:
		default:
		}
	}
	r.doneCh <- err
}

// Failed delivers the first error a runnable stopped with, other than
// context.Canceled.
func (r *Runner) Failed() <-chan error {
	return r.failCh
}

// Wait blocks until every started runnable has stopped.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for n := 0; n < r.started; n++ {
		select {
		case err := <-r.doneCh:
			if err != context.Canceled {
				errs.Add(err)
			}
		case <-r.abortCh:
			return ErrForcedExit
		}
	}
	return errs.Aggregate()
}
