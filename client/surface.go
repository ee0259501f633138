package wl

import "deedles.dev/wlds/wire"

const (
	surfaceInterface = "wl_surface"
)

var surfaceEvents = []string{"enter", "leave", "preferred_buffer_scale", "preferred_buffer_transform"}

type Surface struct {
	wire.Base

	// Enter and Leave are called when the surface starts or stops
	// being displayed on an output. Outputs that are unknown to the
	// client are reported as nil.
	Enter func(*Output)
	Leave func(*Output)

	display   *Display
	version   uint32
	destroyed bool
}

func (s *Surface) Attach(buf *Buffer, x, y int32) {
	msg := newRequest(s, 1, "attach")
	msg.WriteObject(buf)
	msg.WriteInt(x)
	msg.WriteInt(y)
	s.display.Enqueue(msg)
}

func (s *Surface) Damage(x, y, width, height int32) {
	msg := newRequest(s, 2, "damage")
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.display.Enqueue(msg)
}

// DamageBuffer is like Damage but in buffer coordinates. It falls back
// to Damage if the surface is too old to support it.
func (s *Surface) DamageBuffer(x, y, width, height int32) {
	if s.version < 4 {
		s.Damage(x, y, width, height)
		return
	}

	msg := newRequest(s, 9, "damage_buffer")
	msg.WriteInt(x)
	msg.WriteInt(y)
	msg.WriteInt(width)
	msg.WriteInt(height)
	s.display.Enqueue(msg)
}

func (s *Surface) SetBufferScale(scale int32) {
	if s.version < 3 {
		return
	}

	msg := newRequest(s, 8, "set_buffer_scale")
	msg.WriteInt(scale)
	s.display.Enqueue(msg)
}

func (s *Surface) Commit() {
	s.display.Enqueue(newRequest(s, 6, "commit"))
}

func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.Enter = nil
	s.Leave = nil
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
	case 0, 1:
		id := msg.ReadObject()
		if err := msg.Err(); err != nil {
			return err
		}

		out, _ := s.display.GetObject(id).(*Output)
		handler := s.Enter
		if msg.Op() == 1 {
			handler = s.Leave
		}
		if handler != nil {
			handler(out)
		}
		return nil

	case 2, 3:
		msg.ReadUint()
		return msg.Err()

	default:
		return wire.UnknownOpError{Interface: surfaceInterface, Type: "event", Op: msg.Op()}
	}
}
