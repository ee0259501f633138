// Package xdg implements the client side of the xdg-shell and
// xdg-output-unstable-v1 protocols.
package xdg

import (
	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/wire"
)

const (
	WmBaseInterface = "xdg_wm_base"
	WmBaseVersion   = 4
)

var wmBaseEvents = []string{"ping"}

// WmBase is the global that turns wl_surfaces into windows.
type WmBase struct {
	wire.Base

	// Ping is called when the compositor checks that the client is
	// alive. If it is nil, the ping is answered immediately.
	Ping func(serial uint32)

	display *wl.Display
	version uint32
}

func IsWmBase(i wl.Interface) bool {
	return i.Is(WmBaseInterface)
}

func BindWmBase(display *wl.Display, name, version uint32) *WmBase {
	wm := WmBase{display: display, version: wl.BindVersion(version, WmBaseVersion)}
	display.GetRegistry().Bind(name, &wm, wm.version)
	return &wm
}

func (wm *WmBase) Version() uint32 {
	return wm.version
}

// GetXdgSurface assigns the xdg_surface role to s.
func (wm *WmBase) GetXdgSurface(s *wl.Surface) *Surface {
	xs := Surface{display: wm.display, version: wm.version}
	wm.display.AddObject(&xs)

	msg := newRequest(wm, 2, "get_xdg_surface")
	msg.WriteObject(&xs)
	msg.WriteObject(s)
	wm.display.Enqueue(msg)

	return &xs
}

func (wm *WmBase) Pong(serial uint32) {
	msg := newRequest(wm, 3, "pong")
	msg.WriteUint(serial)
	wm.display.Enqueue(msg)
}

func (wm *WmBase) Destroy() {
	wm.Ping = nil
	wm.display.Enqueue(newRequest(wm, 0, "destroy"))
}

func (wm *WmBase) Interface() string {
	return WmBaseInterface
}

func (wm *WmBase) MethodName(op uint16) string {
	return wire.EventName(wmBaseEvents, op)
}

func (wm *WmBase) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		serial := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		if wm.Ping != nil {
			wm.Ping(serial)
			return nil
		}
		wm.Pong(serial)
		return nil

	default:
		return wire.UnknownOpError{Interface: WmBaseInterface, Type: "event", Op: msg.Op()}
	}
}

func newRequest(sender wire.Object, op uint16, method string) *wire.MessageBuilder {
	msg := wire.NewMessage(sender, op)
	msg.Method = method
	return msg
}
