package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MessageBuffer holds message data that has been read from the socket
// but not yet decoded.
type MessageBuffer struct {
	sender uint32
	op     uint16
	size   uint16
	data   bytes.Reader
	conn   *Conn
	err    error
	args   []any
}

// ReadMessage reads message data from the socket into a buffer.
func ReadMessage(c *Conn) (*MessageBuffer, error) {
	err := c.fill(headerSize)
	if err != nil {
		return nil, fmt.Errorf("read message header: %w", err)
	}

	mr := MessageBuffer{conn: c}
	mr.sender = byteOrder.Uint32(c.rbuf[0:4])
	so := byteOrder.Uint32(c.rbuf[4:8])
	mr.size = uint16(so >> 16)
	mr.op = uint16(so & 0xFFFF)
	if (mr.size < headerSize) || (mr.size%4 != 0) {
		return nil, MessageSizeError{Sender: mr.sender, Size: mr.size}
	}

	err = c.fill(int(mr.size))
	if err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}

	data := make([]byte, int(mr.size)-headerSize)
	copy(data, c.rbuf[headerSize:mr.size])
	c.rbuf = append(c.rbuf[:0], c.rbuf[mr.size:]...)
	mr.data.Reset(data)

	return &mr, nil
}

// Sender is the object ID of the sender of the message.
func (r *MessageBuffer) Sender() uint32 {
	return r.sender
}

// Op is the opcode of the message.
func (r *MessageBuffer) Op() uint16 {
	return r.op
}

// Size is the total size of the message, including the 8 byte header.
func (r *MessageBuffer) Size() uint16 {
	return r.size
}

// Err returns the first error encountered while decoding arguments.
func (r *MessageBuffer) Err() error {
	if errors.Is(r.err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return r.err
}

func (r *MessageBuffer) ReadInt() (v int32) {
	if r.err != nil {
		return
	}

	v, r.err = read[int32](&r.data)
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadUint() (v uint32) {
	if r.err != nil {
		return
	}

	v, r.err = read[uint32](&r.data)
	r.args = append(r.args, v)
	return v
}

// ReadObject reads an object ID. It is identical to ReadUint, but
// exists to make decoding code easier to follow.
func (r *MessageBuffer) ReadObject() uint32 {
	return r.ReadUint()
}

func (r *MessageBuffer) ReadNewID() NewID {
	return NewID{
		Interface: r.ReadString(),
		Version:   r.ReadUint(),
		ID:        r.ReadUint(),
	}
}

func (r *MessageBuffer) ReadFixed() (v Fixed) {
	if r.err != nil {
		return
	}

	v, r.err = read[Fixed](&r.data)
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadString() string {
	if r.err != nil {
		return ""
	}

	length, err := read[uint32](&r.data)
	if err != nil {
		r.err = err
		return ""
	}
	if length == 0 {
		r.args = append(r.args, "")
		return ""
	}

	buf := make([]byte, length+padding(length))
	_, r.err = io.ReadFull(&r.data, buf)
	if r.err != nil {
		return ""
	}
	if buf[length-1] != 0 {
		r.err = errors.New("string is not null-terminated")
		return ""
	}

	v := string(buf[:length-1])
	r.args = append(r.args, v)
	return v
}

func (r *MessageBuffer) ReadArray() []byte {
	if r.err != nil {
		return nil
	}

	length, err := read[uint32](&r.data)
	if err != nil {
		r.err = err
		return nil
	}

	buf := make([]byte, length+padding(length))
	_, r.err = io.ReadFull(&r.data, buf)
	if r.err != nil {
		return nil
	}

	r.args = append(r.args, buf[:length])
	return buf[:length]
}

// ReadUintArray reads an array argument and interprets it as a list of
// host-order uint32 values, such as the states of an
// xdg_toplevel.configure event.
func (r *MessageBuffer) ReadUintArray() []uint32 {
	data := r.ReadArray()
	if r.err != nil {
		return nil
	}

	v := make([]uint32, 0, len(data)/4)
	for len(data) >= 4 {
		v = append(v, byteOrder.Uint32(data))
		data = data[4:]
	}
	return v
}

func (r *MessageBuffer) ReadFile() *os.File {
	if r.err != nil {
		return nil
	}

	fd, ok := r.conn.popFD()
	if !ok {
		r.err = errors.New("no more file descriptors")
		return nil
	}

	f := os.NewFile(uintptr(fd), "")
	r.args = append(r.args, f)
	return f
}

// Debug returns a human-readable representation of the message as
// it was decoded so far, such as
//
//	wl_output#5.mode(1, 1920, 1080, 60000)
func (r *MessageBuffer) Debug(sender Object) string {
	args := make([]string, 0, len(r.args))
	for _, arg := range r.args {
		args = append(args, debugArg(arg))
	}

	method := sender.MethodName(r.op)
	return fmt.Sprintf("%v.%v(%v)", Name(sender), method, strings.Join(args, ", "))
}

func debugArg(arg any) string {
	switch arg := arg.(type) {
	case string:
		return strconv.Quote(arg)
	case *os.File:
		return fmt.Sprintf("fd %v", arg.Fd())
	case []byte:
		return fmt.Sprintf("array[%v]", len(arg))
	default:
		return fmt.Sprint(arg)
	}
}
