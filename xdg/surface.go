package xdg

import (
	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/wire"
)

const (
	surfaceInterface = "xdg_surface"
)

var surfaceEvents = []string{"configure"}

type Surface struct {
	wire.Base

	// Configure is called at the end of every configuration sequence.
	// The configuration must be acknowledged with AckConfigure before
	// the next commit.
	Configure func(serial uint32)

	display *wl.Display
	version uint32
}

func (s *Surface) GetToplevel() *Toplevel {
	t := Toplevel{display: s.display, version: s.version}
	s.display.AddObject(&t)

	msg := newRequest(s, 1, "get_toplevel")
	msg.WriteObject(&t)
	s.display.Enqueue(msg)

	return &t
}

func (s *Surface) SetWindowGeometry(x, y, width, height int32) {
	msg := newRequest(s, 3, "set_window_geometry")
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.display.Enqueue(msg)
}

func (s *Surface) AckConfigure(serial uint32) {
	msg := newRequest(s, 4, "ack_configure")
	msg.WriteUint(serial)
	s.display.Enqueue(msg)
}

func (s *Surface) Destroy() {
	s.Configure = nil
	s.display.Enqueue(newRequest(s, 0, "destroy"))
}

func (s *Surface) Interface() string {
	return surfaceInterface
}

func (s *Surface) MethodName(op uint16) string {
	return wire.EventName(surfaceEvents, op)
}

func (s *Surface) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if s.Configure != nil {
			s.Configure(serial)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: surfaceInterface, Type: "event", Op: msg.Op()}
	}
}
