// Package msgs defines the keyboard messages on the bus.
package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/termkbd/pkg/bus/msgs"
	fx "github.com/robotalks/termkbd/pkg/framework"
)

// KeyEvent is an Event message for a key pressed or released.
type KeyEvent struct {
	Code    uint32 `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Row     uint32 `protobuf:"varint,2,opt,name=row,proto3" json:"row,omitempty"`
	Col     uint32 `protobuf:"varint,3,opt,name=col,proto3" json:"col,omitempty"`
	Pressed bool   `protobuf:"varint,4,opt,name=pressed,proto3" json:"pressed,omitempty"`
}

// NewMessage implements Message.
func (m *KeyEvent) NewMessage() fx.Message { return &KeyEvent{} }

// TypeID implements SerializableMessage.
func (m *KeyEvent) TypeID() uint32 { return KeyEventTypeID }

// Serializable implements SerializableMessage.
func (m *KeyEvent) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *KeyEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *KeyEvent) Reset() { *m = KeyEvent{} }

// String implements proto.Message.
func (m *KeyEvent) String() string { return proto.CompactTextString(m) }

// MatrixState is an Event message carrying the full matrix after changes.
type MatrixState struct {
	Rows []byte `protobuf:"bytes,1,opt,name=rows,proto3" json:"rows,omitempty"`
	Keys []byte `protobuf:"bytes,2,opt,name=keys,proto3" json:"keys,omitempty"`
}

// NewMessage implements Message.
func (m *MatrixState) NewMessage() fx.Message { return &MatrixState{} }

// TypeID implements SerializableMessage.
func (m *MatrixState) TypeID() uint32 { return MatrixStateTypeID }

// Serializable implements SerializableMessage.
func (m *MatrixState) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MatrixState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MatrixState) Reset() { *m = MatrixState{} }

// String implements proto.Message.
func (m *MatrixState) String() string { return proto.CompactTextString(m) }

// KeyboardStatus is an Event message reflecting the protocol status.
type KeyboardStatus struct {
	State       string `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
	Ready       bool   `protobuf:"varint,2,opt,name=ready,proto3" json:"ready,omitempty"`
	Retries     uint32 `protobuf:"varint,3,opt,name=retries,proto3" json:"retries,omitempty"`
	Transport   string `protobuf:"bytes,4,opt,name=transport,proto3" json:"transport,omitempty"`
	DataPin     uint32 `protobuf:"varint,5,opt,name=data_pin,json=dataPin,proto3" json:"data_pin,omitempty"`
	ClockPin    uint32 `protobuf:"varint,6,opt,name=clock_pin,json=clockPin,proto3" json:"clock_pin,omitempty"`
	PressedKeys uint32 `protobuf:"varint,7,opt,name=pressed_keys,json=pressedKeys,proto3" json:"pressed_keys,omitempty"`
}

// NewMessage implements Message.
func (m *KeyboardStatus) NewMessage() fx.Message { return &KeyboardStatus{} }

// TypeID implements SerializableMessage.
func (m *KeyboardStatus) TypeID() uint32 { return KeyboardStatusTypeID }

// Serializable implements SerializableMessage.
func (m *KeyboardStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *KeyboardStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *KeyboardStatus) Reset() { *m = KeyboardStatus{} }

// String implements proto.Message.
func (m *KeyboardStatus) String() string { return proto.CompactTextString(m) }

// StatusQuery queries the status.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply is the response for StatusQuery.
type StatusReply struct {
	Status *KeyboardStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// MatrixQuery queries the matrix.
type MatrixQuery struct {
}

// NewMessage implements Message.
func (m *MatrixQuery) NewMessage() fx.Message { return &MatrixQuery{} }

// TypeID implements SerializableMessage.
func (m *MatrixQuery) TypeID() uint32 { return MatrixQueryTypeID }

// Serializable implements SerializableMessage.
func (m *MatrixQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MatrixQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MatrixQuery) Reset() { *m = MatrixQuery{} }

// String implements proto.Message.
func (m *MatrixQuery) String() string { return proto.CompactTextString(m) }

// MatrixReply is the response for MatrixQuery.
type MatrixReply struct {
	Rows []byte `protobuf:"bytes,1,opt,name=rows,proto3" json:"rows,omitempty"`
	Keys []byte `protobuf:"bytes,2,opt,name=keys,proto3" json:"keys,omitempty"`
	Dump string `protobuf:"bytes,3,opt,name=dump,proto3" json:"dump,omitempty"`
}

// NewMessage implements Message.
func (m *MatrixReply) NewMessage() fx.Message { return &MatrixReply{} }

// TypeID implements SerializableMessage.
func (m *MatrixReply) TypeID() uint32 { return MatrixReplyTypeID }

// Serializable implements SerializableMessage.
func (m *MatrixReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MatrixReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MatrixReply) Reset() { *m = MatrixReply{} }

// String implements proto.Message.
func (m *MatrixReply) String() string { return proto.CompactTextString(m) }

// ResetKeyboard restarts the handshake with the keyboard.
type ResetKeyboard struct {
}

// NewMessage implements Message.
func (m *ResetKeyboard) NewMessage() fx.Message { return &ResetKeyboard{} }

// TypeID implements SerializableMessage.
func (m *ResetKeyboard) TypeID() uint32 { return ResetKeyboardTypeID }

// Serializable implements SerializableMessage.
func (m *ResetKeyboard) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ResetKeyboard) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ResetKeyboard) Reset() { *m = ResetKeyboard{} }

// String implements proto.Message.
func (m *ResetKeyboard) String() string { return proto.CompactTextString(m) }

// InjectKey makes a simulated keyboard send a make or break code.
type InjectKey struct {
	Code    uint32 `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Pressed bool   `protobuf:"varint,2,opt,name=pressed,proto3" json:"pressed,omitempty"`
}

// NewMessage implements Message.
func (m *InjectKey) NewMessage() fx.Message { return &InjectKey{} }

// TypeID implements SerializableMessage.
func (m *InjectKey) TypeID() uint32 { return InjectKeyTypeID }

// Serializable implements SerializableMessage.
func (m *InjectKey) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *InjectKey) ProtoMessage() {}

// Reset implements proto.Message.
func (m *InjectKey) Reset() { *m = InjectKey{} }

// String implements proto.Message.
func (m *InjectKey) String() string { return proto.CompactTextString(m) }

// GroupKeyboard defines the custom group.
const GroupKeyboard = msgs.GroupCustom

// TypeIDs
const (
	KeyEventTypeID       uint32 = GroupKeyboard | msgs.TypeIDKindEvent | 0x0000
	MatrixStateTypeID    uint32 = GroupKeyboard | msgs.TypeIDKindEvent | 0x0001
	KeyboardStatusTypeID uint32 = GroupKeyboard | msgs.TypeIDKindEvent | 0x0002
	StatusQueryTypeID    uint32 = GroupKeyboard | 0x0000
	StatusReplyTypeID    uint32 = StatusQueryTypeID | msgs.TypeIDMaskReply
	MatrixQueryTypeID    uint32 = GroupKeyboard | 0x0001
	MatrixReplyTypeID    uint32 = MatrixQueryTypeID | msgs.TypeIDMaskReply
	ResetKeyboardTypeID  uint32 = GroupKeyboard | 0x0002
	InjectKeyTypeID      uint32 = GroupKeyboard | 0x0003
)

func init() {
	msgs.Register(
		(*KeyEvent)(nil),
		(*MatrixState)(nil),
		(*KeyboardStatus)(nil),
		(*StatusQuery)(nil),
		(*StatusReply)(nil),
		(*MatrixQuery)(nil),
		(*MatrixReply)(nil),
		(*ResetKeyboard)(nil),
		(*InjectKey)(nil),
	)
}
