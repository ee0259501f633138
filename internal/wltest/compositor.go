// Package wltest provides a scripted, in-process compositor that
// speaks the real wire protocol over a socketpair. It implements just
// enough of the core, xdg-shell and xdg-output protocols to drive a
// client through startup and window management.
package wltest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"deedles.dev/wlds/internal/debug"
	"deedles.dev/wlds/internal/objstore"
	"deedles.dev/wlds/wire"
)

// Global names. Outputs are numbered from OutputName.
const (
	CompositorName    = 1
	ShmName           = 2
	WmBaseName        = 3
	OutputManagerName = 4
	OutputName        = 10
)

// Output describes an output that the compositor advertises.
type Output struct {
	X, Y                          int32
	PhysicalWidth, PhysicalHeight int32
	Width, Height                 int32
	Refresh                       int32
	Scale                         int32
	Make, Model                   string
	Name, Description             string

	LogicalX, LogicalY          int32
	LogicalWidth, LogicalHeight int32
}

// Options configures a Compositor.
type Options struct {
	// NoCompositor and NoWmBase hide the corresponding globals.
	NoCompositor bool
	NoWmBase     bool

	// NoOutputManager hides zxdg_output_manager_v1 until it is added
	// with AddOutputManager.
	NoOutputManager bool

	// Silent stops the compositor from configuring new windows.
	Silent bool

	// InitialWidth and InitialHeight are sent with the first configure
	// of every window. Zero lets the client choose.
	InitialWidth, InitialHeight int32

	ShmFormats []uint32
	Outputs    []Output
}

// Request is a request that the compositor received.
type Request struct {
	Interface string
	Method    string
	Object    uint32
	Args      []any
}

type global struct {
	name    uint32
	inter   string
	version uint32
	output  int
}

// Compositor is the server end of a connection.
type Compositor struct {
	opts Options
	conn *wire.Conn
	done chan struct{}

	m         sync.Mutex
	objects   *objstore.Store
	registry  *object
	wmBase    *object
	globals   []global
	outputs   []Output
	wlOutputs map[int][]*object
	toplevels []*toplevel
	requests  []Request
	serial    uint32
	err       error
}

type toplevel struct {
	surface    *object
	xdgSurface *object
	toplevel   *object
	configured bool
	destroyed  bool
}

// New starts a compositor and returns it along with the client end of
// the connection.
func New(opts Options) (*Compositor, *wire.Conn, error) {
	client, server, err := wire.Pair()
	if err != nil {
		return nil, nil, err
	}

	if opts.ShmFormats == nil {
		opts.ShmFormats = []uint32{0, 1}
	}

	c := Compositor{
		opts:      opts,
		conn:      server,
		done:      make(chan struct{}),
		objects:   objstore.New(0xFF000000),
		outputs:   append([]Output(nil), opts.Outputs...),
		wlOutputs: make(map[int][]*object),
	}
	c.objects.Set(1, &object{c: &c, inter: "wl_display", version: 1})

	if !opts.NoCompositor {
		c.globals = append(c.globals, global{name: CompositorName, inter: "wl_compositor", version: 5, output: -1})
	}
	c.globals = append(c.globals, global{name: ShmName, inter: "wl_shm", version: 1, output: -1})
	if !opts.NoWmBase {
		c.globals = append(c.globals, global{name: WmBaseName, inter: "xdg_wm_base", version: 5, output: -1})
	}
	if !opts.NoOutputManager {
		c.globals = append(c.globals, global{name: OutputManagerName, inter: "zxdg_output_manager_v1", version: 3, output: -1})
	}
	for i := range c.outputs {
		c.globals = append(c.globals, global{name: OutputName + uint32(i), inter: "wl_output", version: 4, output: i})
	}

	go c.listen()

	return &c, client, nil
}

func (c *Compositor) listen() {
	defer close(c.done)

	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, net.ErrClosed) {
				c.setErr(err)
			}
			return
		}

		c.m.Lock()
		obj, err := c.objects.Dispatch(msg)
		if obj != nil {
			debug.Printf("server <- %v", msg.Debug(obj))
		}
		c.m.Unlock()
		if err != nil {
			c.setErr(err)
		}
	}
}

func (c *Compositor) setErr(err error) {
	c.m.Lock()
	defer c.m.Unlock()
	c.err = errors.Join(c.err, err)
}

// Err returns every error encountered while handling requests.
func (c *Compositor) Err() error {
	c.m.Lock()
	defer c.m.Unlock()
	return c.err
}

// Close disconnects the client.
func (c *Compositor) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// Requests returns a copy of every request received so far.
func (c *Compositor) Requests() []Request {
	c.m.Lock()
	defer c.m.Unlock()
	return append([]Request(nil), c.requests...)
}

// Find returns the received requests with the given method name, in
// order.
func (c *Compositor) Find(method string) []Request {
	var found []Request
	for _, req := range c.Requests() {
		if req.Method == method {
			found = append(found, req)
		}
	}
	return found
}

// Toplevels returns the number of windows that have been created.
func (c *Compositor) Toplevels() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.toplevels)
}

func (c *Compositor) nextSerial() uint32 {
	c.serial++
	return c.serial
}

func (c *Compositor) send(obj *object, op uint16, method string, args ...any) {
	msg := wire.NewMessage(obj, op)
	msg.Method = method
	for _, arg := range args {
		switch arg := arg.(type) {
		case int32:
			msg.WriteInt(arg)
		case uint32:
			msg.WriteUint(arg)
		case string:
			msg.WriteString(arg)
		case []uint32:
			msg.WriteUintArray(arg)
		case *object:
			msg.WriteObject(arg)
		default:
			panic(fmt.Errorf("unsupported argument type %T", arg))
		}
	}

	debug.Printf("server -> %v", msg)
	err := msg.Build(c.conn)
	if err != nil {
		c.err = errors.Join(c.err, err)
	}
}

func (c *Compositor) record(obj *object, method string, args ...any) {
	c.requests = append(c.requests, Request{
		Interface: obj.inter,
		Method:    method,
		Object:    obj.ID(),
		Args:      args,
	})
}

// destroy removes a client-created object and tells the client that
// its ID is free.
func (c *Compositor) destroy(obj *object) {
	c.objects.Delete(obj.ID())
	c.send(c.display(), 1, "delete_id", obj.ID())
}

func (c *Compositor) display() *object {
	return c.objects.Get(1).(*object)
}

func (c *Compositor) advertise(g global) {
	if c.registry == nil {
		return
	}
	c.send(c.registry, 0, "global", g.name, g.inter, g.version)
}

func (c *Compositor) findToplevel(xdgSurface *object) *toplevel {
	for _, t := range c.toplevels {
		if t.xdgSurface == xdgSurface {
			return t
		}
	}
	return nil
}

func (c *Compositor) sendOutput(out *object, cfg Output) {
	c.send(out, 0, "geometry", cfg.X, cfg.Y, cfg.PhysicalWidth, cfg.PhysicalHeight, int32(0), cfg.Make, cfg.Model, int32(0))
	c.send(out, 1, "mode", uint32(3), cfg.Width, cfg.Height, cfg.Refresh)
	if out.version >= 2 {
		c.send(out, 3, "scale", max(cfg.Scale, 1))
	}
	if out.version >= 4 {
		c.send(out, 4, "name", cfg.Name)
		c.send(out, 5, "description", cfg.Description)
	}
	if out.version >= 2 {
		c.send(out, 2, "done")
	}
}

func (c *Compositor) sendXdgOutput(out *object, cfg Output) {
	c.send(out, 0, "logical_position", cfg.LogicalX, cfg.LogicalY)
	c.send(out, 1, "logical_size", cfg.LogicalWidth, cfg.LogicalHeight)
	if out.version >= 2 {
		c.send(out, 3, "name", cfg.Name)
	}
	c.send(out, 2, "done")
}

func (c *Compositor) configure(t *toplevel, width, height int32, states []uint32) {
	if states == nil {
		states = []uint32{}
	}
	c.send(t.toplevel, 0, "configure", width, height, states)
	c.send(t.xdgSurface, 0, "configure", c.nextSerial())
}
