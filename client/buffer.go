package wl

import "deedles.dev/wlds/wire"

const (
	bufferInterface = "wl_buffer"
)

var bufferEvents = []string{"release"}

type Buffer struct {
	wire.Base

	// Release is called when the compositor no longer reads from the
	// buffer.
	Release func()

	display *Display
}

func (buf *Buffer) Destroy() {
	buf.Release = nil
	buf.display.Enqueue(newRequest(buf, 0, "destroy"))
}

func (buf *Buffer) Interface() string {
	return bufferInterface
}

func (buf *Buffer) MethodName(op uint16) string {
	return wire.EventName(bufferEvents, op)
}

func (buf *Buffer) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		if buf.Release != nil {
			buf.Release()
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: bufferInterface, Type: "event", Op: msg.Op()}
	}
}
