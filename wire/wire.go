// Package wire defines types helpful for dealing with the Wayland
// wire protocol. It is primarly intended for usage by the protocol
// object packages.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"unsafe"
)

// byteOrder is the host byte order.
var byteOrder binary.ByteOrder = binary.LittleEndian

func init() {
	n := uint32(1)
	b := (*[4]byte)(unsafe.Pointer(&n))
	if b[0] == 0 {
		byteOrder = binary.BigEndian
	}
}

// headerSize is the size of a message header: the sender's object ID
// followed by the size and opcode packed into a single word.
const headerSize = 8

func read[T ~int32 | ~uint32](r io.Reader) (T, error) {
	var data [4]byte
	_, err := io.ReadFull(r, data[:])
	if err != nil {
		return 0, err
	}

	v := byteOrder.Uint32(data[:])
	return T(v), nil
}

func write[T ~int32 | ~uint32](w io.Writer, v T) error {
	var data [4]byte
	byteOrder.PutUint32(data[:], uint32(v))
	n, err := w.Write(data[:])
	if (err == nil) && (n < len(data)) {
		return io.ErrShortWrite
	}
	return err
}

func padding(length uint32) uint32 {
	return (4 - (length % 4)) % 4
}

// Object represents a Wayland protocol object.
type Object interface {
	// ID returns the object's ID. An ID of zero means that the object
	// has not been assigned one yet.
	ID() uint32

	// SetID sets the object's ID.
	SetID(id uint32)

	// Interface returns the protocol name of the object's interface,
	// such as "wl_surface".
	Interface() string

	// Dispatch pertforms the operation requested by the message in the
	// buffer.
	Dispatch(msg *MessageBuffer) error

	// MethodName returns the name of the event or request with the
	// given opcode. It is used for debugging.
	MethodName(op uint16) string

	// Delete is called when the object's ID is no longer valid.
	Delete()
}

// NewID is the argument of an untyped new_id, such as the one sent by
// wl_registry.bind.
type NewID struct {
	Interface string
	Version   uint32
	ID        uint32
}

// Name returns a debugging representation of obj, such as
// "wl_surface#3".
func Name(obj Object) string {
	if isNil(obj) {
		return "nil"
	}
	return fmt.Sprintf("%v#%v", obj.Interface(), obj.ID())
}

func isNil(v any) bool {
	return (v == nil) || ((*[2]uintptr)(unsafe.Pointer(&v))[1] == 0)
}

// Base implements the ID bookkeeping parts of Object. It is meant to be
// embedded by protocol object implementations.
type Base struct {
	id      uint32
	deleted bool
}

func (b *Base) ID() uint32 {
	return b.id
}

func (b *Base) SetID(id uint32) {
	b.id = id
	b.deleted = false
}

// Delete marks the object as deleted. Implementations that need to do
// more when their ID is retired should still call it.
func (b *Base) Delete() {
	b.deleted = true
}

// Deleted reports whether the peer has retired the object's ID.
func (b *Base) Deleted() bool {
	return b.deleted
}

// EventName returns names[op] or a placeholder if op is out of range.
func EventName(names []string, op uint16) string {
	if int(op) >= len(names) {
		return fmt.Sprintf("unknown_%v", op)
	}
	return names[op]
}
