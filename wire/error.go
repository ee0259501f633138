package wire

import (
	"fmt"
)

// UnknownOpError is returned by Object.Dispatch if it is given a
// message with an invalid opcode.
type UnknownOpError struct {
	Interface string
	Type      string
	Op        uint16
}

func (err UnknownOpError) Error() string {
	return fmt.Sprintf("unknown %v opcode for %v: %v", err.Type, err.Interface, err.Op)
}

// MessageSizeError is returned when a message header declares a size
// that can not possibly be valid.
type MessageSizeError struct {
	Sender uint32
	Size   uint16
}

func (err MessageSizeError) Error() string {
	return fmt.Sprintf("invalid message size from object %v: %v", err.Sender, err.Size)
}

// UnknownSenderIDError is returned by an attempt to dispatch an
// incoming message that indicates a method call on an object that the
// receiver doesn't know about.
type UnknownSenderIDError struct {
	Sender uint32
	Op     uint16
}

func (err UnknownSenderIDError) Error() string {
	return fmt.Sprintf("unknown sender object ID: %v (opcode %v)", err.Sender, err.Op)
}
