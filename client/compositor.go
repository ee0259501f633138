package wl

import "deedles.dev/wlds/wire"

const (
	CompositorInterface = "wl_compositor"
	CompositorVersion   = 4
)

type Compositor struct {
	wire.Base

	display *Display
	version uint32
}

func IsCompositor(i Interface) bool {
	return i.Is(CompositorInterface)
}

// BindCompositor binds the wl_compositor global with the given name.
func BindCompositor(display *Display, name, version uint32) *Compositor {
	compositor := Compositor{display: display, version: BindVersion(version, CompositorVersion)}
	display.GetRegistry().Bind(name, &compositor, compositor.version)
	return &compositor
}

func (c *Compositor) Version() uint32 {
	return c.version
}

func (c *Compositor) CreateSurface() *Surface {
	s := Surface{display: c.display, version: c.version}
	c.display.AddObject(&s)

	msg := newRequest(c, 0, "create_surface")
	msg.WriteObject(&s)
	c.display.Enqueue(msg)

	return &s
}

func (c *Compositor) Interface() string {
	return CompositorInterface
}

func (c *Compositor) MethodName(op uint16) string {
	return wire.EventName(nil, op)
}

func (c *Compositor) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: CompositorInterface, Type: "event", Op: msg.Op()}
}
