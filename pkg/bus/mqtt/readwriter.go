package mqtt

import (
	"context"
	"io"

	"github.com/robotalks/termkbd/pkg/bus"
)

// Topic suffixes under a node name.
const (
	TopicMeta = "meta"
	TopicMsg  = "msg"
	TopicCmd  = "cmd"
)

// ReadWriter implements bus.PacketReadWriter on a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
}

// NewReadWriter creates the ReadWriter.
func NewReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, packetCh: make(chan []byte, 16)}
}

// ForClient subscribes node events and publishes to node commands.
func (p *ReadWriter) ForClient(ref bus.NodeRef) *ReadWriter {
	p.SubTopic, p.PubTopic = ref.Name()+"/"+TopicMsg, ref.Name()+"/"+TopicCmd
	return p
}

// ForNode subscribes commands and publishes events.
func (p *ReadWriter) ForNode(ref bus.NodeRef) *ReadWriter {
	p.SubTopic, p.PubTopic = ref.Name()+"/"+TopicCmd, ref.Name()+"/"+TopicMsg
	return p
}

// ReadPacket implements PacketReadWriter.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	pkt, ok := <-p.packetCh
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

// WritePacket implements PacketReadWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer close(p.packetCh)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	p.packetCh <- payload
}
