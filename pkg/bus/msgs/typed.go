// Package msgs defines the envelope and generic messages on the bus.
package msgs

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/termkbd/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000
)

// Message Kinds
const (
	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

// Typed wraps a message with type information.
type Typed struct {
	TypeID   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Sequence uint32 `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Message  []byte `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
}

// Reset implements proto.Message.
func (m *Typed) Reset() { *m = Typed{} }

// String implements proto.Message.
func (m *Typed) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Typed) ProtoMessage() {}

// TypedMsgHandler handles a decoded message with its envelope.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

var (
	// ErrNotSerializable indicates the message is not serializable.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand indicates the command is unsupported.
	ErrUnsupportedCommand = errors.New("unsupported command")
)

// SerializableMessage can be serialized over the wire.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

// MessageTypes maps type ID to messages. Packages defining messages
// register them in init.
var MessageTypes = map[uint32]SerializableMessage{
	CommandOKTypeID:  (*CommandOK)(nil),
	CommandErrTypeID: (*CommandErr)(nil),
}

// Register adds message types.
func Register(types ...SerializableMessage) {
	for _, t := range types {
		if _, exist := MessageTypes[t.TypeID()]; exist {
			panic(fmt.Sprintf("duplicated type: %x", t.TypeID()))
		}
		MessageTypes[t.TypeID()] = t
	}
}

// TypedFrom creates a Typed from a serializable message.
func TypedFrom(msg fx.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{TypeID: s.TypeID(), Message: data}, nil
}

// Decode decodes the envelope into actual message.
func (m *Typed) Decode() (fx.Message, error) {
	msgType, ok := MessageTypes[m.TypeID]
	if !ok {
		return nil, &ErrUnknownType{TypeID: m.TypeID}
	}
	msg := msgType.NewMessage()
	if err := proto.Unmarshal(m.Message, msg.(SerializableMessage).Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode encodes the Typed to bytes.
func (m *Typed) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Kind gets message kind from type ID.
func (m *Typed) Kind() uint32 {
	return m.TypeID & TypeIDMaskKind
}

// IsCommand determines if the message is a command or a reply.
func (m *Typed) IsCommand() bool {
	return m.Kind() == TypeIDKindCommand
}

// IsReply determines if the message replies a command.
func (m *Typed) IsReply() bool {
	return m.IsCommand() && (m.TypeID&TypeIDMaskReply) != 0
}

// IsEvent determines if the message is an event.
func (m *Typed) IsEvent() bool {
	return m.Kind() == TypeIDKindEvent
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

// Describe renders a message as its type name and text form.
func Describe(msg fx.Message) string {
	name := reflect.Indirect(reflect.ValueOf(msg)).Type().Name()
	if s, ok := msg.(SerializableMessage); ok {
		return name + " " + s.Serializable().String()
	}
	return name
}
