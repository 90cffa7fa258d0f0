// Package link implements ps2.Transport over a byte stream to a bridge
// which does the bit-level clocking on the wires.
package link

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/termkbd/pkg/ps2"
)

// DefaultReplyTimeout is the default time waiting for a command reply.
const DefaultReplyTimeout = 20 * time.Millisecond

var (
	// ErrNotInitialized indicates Init wasn't called.
	ErrNotInitialized = errors.New("link not initialized")
)

// Link pumps bytes from ReadWriter in the background so that Receive
// never blocks. A reader stopped by a read error is restarted by the
// next Send or Receive.
type Link struct {
	ReadWriter   io.ReadWriter
	ReplyTimeout time.Duration

	byteCh chan byte
	errCh  chan error
	cancel func()
	open   bool
	lock   sync.Mutex
}

// New creates a Link.
func New(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter:   rw,
		ReplyTimeout: DefaultReplyTimeout,
		byteCh:       make(chan byte, 64),
		errCh:        make(chan error, 1),
	}
}

// Init implements ps2.Transport. Pending bytes are dropped.
func (l *Link) Init() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.open = true
	l.drain()
	l.startReader()
	return nil
}

// startReader must be called with lock held.
func (l *Link) startReader() {
	if l.cancel != nil || !l.open {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.readLoop(ctx)
}

// ensureReader restarts the reader if it stopped on an error.
func (l *Link) ensureReader() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.open {
		return ErrNotInitialized
	}
	l.startReader()
	return nil
}

func (l *Link) readerStopped(ctx context.Context) {
	l.lock.Lock()
	if ctx.Err() == nil {
		l.cancel()
		l.cancel = nil
	}
	l.lock.Unlock()
}

// Send implements ps2.Transport. Bytes received before the command
// are dropped so they aren't taken as the reply.
func (l *Link) Send(b byte) (byte, error) {
	if err := l.ensureReader(); err != nil {
		return 0, err
	}
	l.drain()
	if _, err := l.ReadWriter.Write([]byte{b}); err != nil {
		return 0, err
	}
	timeout := l.ReplyTimeout
	if timeout == 0 {
		timeout = DefaultReplyTimeout
	}
	select {
	case reply := <-l.byteCh:
		return reply, nil
	case err := <-l.errCh:
		return 0, err
	case <-time.After(timeout):
		return 0, ps2.ErrNoReply
	}
}

// Receive implements ps2.Transport.
func (l *Link) Receive() (byte, error) {
	select {
	case b := <-l.byteCh:
		return b, nil
	case err := <-l.errCh:
		return ps2.CodeNone, err
	default:
	}
	return ps2.CodeNone, l.ensureReader()
}

// Close stops the reader and closes ReadWriter if it's an io.Closer.
func (l *Link) Close() error {
	l.lock.Lock()
	l.open = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.lock.Unlock()
	if closer, ok := l.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (l *Link) drain() {
	for {
		select {
		case <-l.byteCh:
		default:
			return
		}
	}
}

func (l *Link) readLoop(ctx context.Context) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := l.ReadWriter.Read(buf)
		if err != nil {
			glog.V(1).Infof("link read error: %v", err)
			// the next Send or Receive restarts the reader.
			l.readerStopped(ctx)
			select {
			case l.errCh <- err:
			default:
			}
			return
		}
		// read timeout of the underlying port.
		if n == 0 {
			continue
		}
		select {
		case l.byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}
