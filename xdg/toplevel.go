package xdg

import (
	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/wire"
)

const (
	toplevelInterface = "xdg_toplevel"
)

var toplevelEvents = []string{"configure", "close", "configure_bounds", "wm_capabilities"}

type ToplevelState uint32

const (
	ToplevelStateMaximized ToplevelState = 1 + iota
	ToplevelStateFullscreen
	ToplevelStateResizing
	ToplevelStateActivated
	ToplevelStateTiledLeft
	ToplevelStateTiledRight
	ToplevelStateTiledTop
	ToplevelStateTiledBottom
	ToplevelStateSuspended
)

type Toplevel struct {
	wire.Base

	// Configure suggests a size and reports the window's state. A
	// width or height of zero means that the client should decide.
	Configure func(width, height int32, states []ToplevelState)

	// Close is called when the user asks for the window to be closed.
	Close func()

	// ConfigureBounds reports the largest size that the window can
	// usefully be.
	ConfigureBounds func(width, height int32)

	display *wl.Display
	version uint32
}

func (t *Toplevel) SetTitle(title string) {
	msg := newRequest(t, 2, "set_title")
	msg.WriteString(title)
	t.display.Enqueue(msg)
}

func (t *Toplevel) SetAppID(id string) {
	msg := newRequest(t, 3, "set_app_id")
	msg.WriteString(id)
	t.display.Enqueue(msg)
}

func (t *Toplevel) SetMaxSize(width, height int32) {
	msg := newRequest(t, 7, "set_max_size")
	msg.WriteInt(width)
	msg.WriteInt(height)
	t.display.Enqueue(msg)
}

func (t *Toplevel) SetMinSize(width, height int32) {
	msg := newRequest(t, 8, "set_min_size")
	msg.WriteInt(width)
	msg.WriteInt(height)
	t.display.Enqueue(msg)
}

func (t *Toplevel) SetMaximized() {
	t.display.Enqueue(newRequest(t, 9, "set_maximized"))
}

func (t *Toplevel) UnsetMaximized() {
	t.display.Enqueue(newRequest(t, 10, "unset_maximized"))
}

// SetFullscreen asks for the window to be made fullscreen on output,
// or on an output of the compositor's choosing if output is nil.
func (t *Toplevel) SetFullscreen(output *wl.Output) {
	msg := newRequest(t, 11, "set_fullscreen")
	msg.WriteObject(output)
	t.display.Enqueue(msg)
}

func (t *Toplevel) UnsetFullscreen() {
	t.display.Enqueue(newRequest(t, 12, "unset_fullscreen"))
}

func (t *Toplevel) SetMinimized() {
	t.display.Enqueue(newRequest(t, 13, "set_minimized"))
}

func (t *Toplevel) Destroy() {
	t.Configure = nil
	t.Close = nil
	t.ConfigureBounds = nil
	t.display.Enqueue(newRequest(t, 0, "destroy"))
}

func (t *Toplevel) Interface() string {
	return toplevelInterface
}

func (t *Toplevel) MethodName(op uint16) string {
	return wire.EventName(toplevelEvents, op)
}

func (t *Toplevel) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		width := msg.ReadInt()
		height := msg.ReadInt()
		raw := msg.ReadUintArray()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.Configure != nil {
			states := make([]ToplevelState, 0, len(raw))
			for _, s := range raw {
				states = append(states, ToplevelState(s))
			}
			t.Configure(width, height, states)
		}
		return nil

	case 1:
		if t.Close != nil {
			t.Close()
		}
		return nil

	case 2:
		width := msg.ReadInt()
		height := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if t.ConfigureBounds != nil {
			t.ConfigureBounds(width, height)
		}
		return nil

	case 3:
		msg.ReadArray()
		return msg.Err()

	default:
		return wire.UnknownOpError{Interface: toplevelInterface, Type: "event", Op: msg.Op()}
	}
}
