// Package bus connects keyboard nodes and their clients over a
// message broker.
package bus

import (
	"context"

	fx "github.com/robotalks/termkbd/pkg/framework"
)

// Publisher sends events from a node to its clients.
type Publisher interface {
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command to be replied.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a Message posted to the loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// NodeRef references a node on the bus.
type NodeRef struct {
	Type string
	ID   string
}

// Name is the unique name used as topic prefix.
func (r NodeRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates both Type and ID are set.
func (r NodeRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// NodeMeta is published by a node when it's online.
type NodeMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// NodeInfo describes a discovered node.
type NodeInfo struct {
	Ref  NodeRef
	Meta NodeMeta
}

// Connector is used by clients to find and connect nodes.
type Connector interface {
	Discover(context.Context) ([]NodeInfo, error)
	Connect(context.Context, NodeRef) (Conn, error)
}

// Conn is a client connection to a node.
type Conn interface {
	DoCommand(fx.Message) Future
}

// Result is the reply of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// Future delivers the Result of a command.
type Future interface {
	ResultChan() <-chan Result
}

// PacketReadWriter reads/writes encoded messages.
type PacketReadWriter interface {
	ReadPacket() ([]byte, error)
	WritePacket([]byte) error
}
