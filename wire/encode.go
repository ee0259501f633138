package wire

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// MessageBuilder is a message that is under construction.
type MessageBuilder struct {
	// Method is the name of the method being called. It is included
	// purely for debugging purposes.
	Method string

	sender Object
	op     uint16
	data   bytes.Buffer
	fds    []int
	args   []any
	err    error
}

func NewMessage(sender Object, op uint16) *MessageBuilder {
	return &MessageBuilder{
		sender: sender,
		op:     op,
	}
}

func (mb *MessageBuilder) Sender() Object {
	return mb.sender
}

func (mb *MessageBuilder) Op() uint16 {
	return mb.op
}

func (mb *MessageBuilder) WriteInt(v int32) {
	if mb.err != nil {
		return
	}

	write(&mb.data, v)
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteUint(v uint32) {
	if mb.err != nil {
		return
	}

	write(&mb.data, v)
	mb.args = append(mb.args, v)
}

// WriteObject writes the ID of v, or 0 if v is nil.
func (mb *MessageBuilder) WriteObject(v Object) {
	var id uint32
	if !isNil(v) {
		id = v.ID()
	}
	mb.WriteUint(id)
}

func (mb *MessageBuilder) WriteNewID(v NewID) {
	if mb.err != nil {
		return
	}

	mb.WriteString(v.Interface)
	mb.WriteUint(v.Version)
	mb.WriteUint(v.ID)
}

func (mb *MessageBuilder) WriteFixed(v Fixed) {
	if mb.err != nil {
		return
	}

	write(&mb.data, v)
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteString(v string) {
	if mb.err != nil {
		return
	}

	length := uint32(len(v) + 1)
	write(&mb.data, length)
	mb.data.WriteString(v)
	mb.data.WriteByte(0)
	mb.data.Write(make([]byte, padding(length)))
	mb.args = append(mb.args, v)
}

func (mb *MessageBuilder) WriteArray(v []byte) {
	if mb.err != nil {
		return
	}

	length := uint32(len(v))
	write(&mb.data, length)
	mb.data.Write(v)
	mb.data.Write(make([]byte, padding(length)))
	mb.args = append(mb.args, v)
}

// WriteUintArray writes v as an array of host-order uint32 values.
func (mb *MessageBuilder) WriteUintArray(v []uint32) {
	data := make([]byte, 4*len(v))
	for i, u := range v {
		byteOrder.PutUint32(data[4*i:], u)
	}
	mb.WriteArray(data)
}

// WriteFile duplicates the file descriptor of v so that it can be sent
// along with the message. The caller may close v as soon as this
// returns.
func (mb *MessageBuilder) WriteFile(v *os.File) {
	if mb.err != nil {
		return
	}

	fd, err := unix.Dup(int(v.Fd()))
	if err != nil {
		mb.err = fmt.Errorf("dup fd: %w", err)
		return
	}

	mb.fds = append(mb.fds, fd)
	mb.args = append(mb.args, v)
}

// Build builds the message and sends it to c. The MessageBuilder
// should not be used again after this method is called.
func (mb *MessageBuilder) Build(c *Conn) error {
	defer mb.close()

	if mb.err != nil {
		return mb.err
	}

	length := uint32(headerSize + mb.data.Len())
	msg := bytes.NewBuffer(make([]byte, 0, length))
	write(msg, mb.sender.ID())
	write(msg, (length<<16)|uint32(mb.op))
	msg.Write(mb.data.Bytes())

	var oob []byte
	if len(mb.fds) > 0 {
		oob = unix.UnixRights(mb.fds...)
	}

	return c.writeMsg(msg.Bytes(), oob)
}

func (mb *MessageBuilder) close() {
	errs := make([]error, 0, len(mb.fds))
	for _, fd := range mb.fds {
		errs = append(errs, unix.Close(fd))
	}
	if mb.err == nil {
		mb.err = errors.Join(errs...)
	}
	mb.fds = nil
}

func (mb *MessageBuilder) String() string {
	args := make([]string, 0, len(mb.args))
	for _, arg := range mb.args {
		args = append(args, debugArg(arg))
	}

	return fmt.Sprintf("%v.%v(%v)", Name(mb.sender), mb.Method, strings.Join(args, ", "))
}
