// Package wlds is a display server backend for Wayland. It connects to
// a compositor, creates and manages xdg-shell toplevel windows, tracks
// the compositor's outputs and presents frames through a graphics
// platform.
package wlds

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/gfx"
	"deedles.dev/wlds/gfx/soft"
	"deedles.dev/wlds/internal/slot"
	"deedles.dev/wlds/wire"
	"deedles.dev/wlds/xdg"
)

// Backend is a connection to a compositor along with the windows and
// outputs that it manages. All methods are safe for concurrent use.
//
// Callbacks registered with the Backend are called without its lock
// held, so they may call back into it.
type Backend struct {
	m      sync.Mutex
	opts   Options
	logger *log.Logger

	display       *wl.Display
	registry      *wl.Registry
	compositor    *wl.Compositor
	shm           *wl.Shm
	wmBase        *xdg.WmBase
	outputManager *xdg.OutputManager

	outputs []*output
	windows slot.Arena[*window]
	gfx     *gfx.Manager

	warned    map[string]struct{}
	callbacks []func()
	errs      []error
	closed    bool
}

// New connects to the compositor named by the environment and creates
// the main window.
func New(ctx context.Context, opts Options) (*Backend, error) {
	display, err := wl.Dial()
	if err != nil {
		return nil, newError(CodeUnavailable, "connect", err)
	}
	return start(ctx, display, opts)
}

// Connect is like New but uses an existing connection.
func Connect(ctx context.Context, conn *wire.Conn, opts Options) (*Backend, error) {
	return start(ctx, wl.Connect(conn), opts)
}

func start(ctx context.Context, display *wl.Display, opts Options) (_ *Backend, err error) {
	opts = opts.withDefaults()
	b := &Backend{
		opts:    opts,
		logger:  opts.Logger,
		display: display,
		warned:  make(map[string]struct{}),
	}
	defer func() {
		if err != nil {
			b.logger.Error("startup failed", "err", err)
			b.close()
		}
	}()

	display.Error = b.handleDisplayError
	b.registry = display.GetRegistry()
	b.registry.Global = b.handleGlobal
	b.registry.GlobalRemove = b.handleGlobalRemove

	err = b.display.RoundTrip(ctx)
	if err != nil {
		return nil, newError(CodeUnavailable, "discover globals", err)
	}
	if b.compositor == nil {
		return nil, newError(CodeUnavailable, "discover globals", errors.New("compositor has no wl_compositor"))
	}
	if b.wmBase == nil {
		return nil, newError(CodeUnavailable, "discover globals", errors.New("compositor has no xdg_wm_base"))
	}

	err = b.initGraphics()
	if err != nil {
		return nil, err
	}

	err = b.display.RoundTrip(ctx)
	if err != nil {
		return nil, newError(CodeUnavailable, "round trip", err)
	}

	b.logger.Debug("creating main window")
	id, err := b.createWindow(ctx, opts.mainWindow())
	if err != nil {
		return nil, err
	}
	if id != MainWindowID {
		return nil, newError(CodeFailed, "create main window", fmt.Errorf("main window got ID %v", id))
	}

	return b, nil
}

func (b *Backend) initGraphics() error {
	platform := b.opts.Platform
	if platform == nil {
		switch b.opts.RenderingDriver {
		case DriverNone:
			b.logger.Debug("graphics disabled")
			return nil
		case soft.Name:
			platform = soft.New(b.shm)
		default:
			return newError(CodeInvalidParameter, "init graphics", fmt.Errorf("unknown rendering driver %q", b.opts.RenderingDriver))
		}
	}

	m := gfx.NewManager(platform, b.logger)
	err := m.Init(b.display, gfx.APISoftware, b.opts.Layered)
	if err != nil {
		code := CodeFailed
		switch {
		case errors.Is(err, gfx.ErrBadDisplay):
			code = CodeInvalidParameter
		case errors.Is(err, gfx.ErrDisplayUnavailable):
			code = CodeUnavailable
		}
		return newError(code, "init graphics", err)
	}
	b.gfx = m

	b.logger.Debug("graphics initialized", "platform", platform.Name(), "layered", b.opts.Layered)
	return nil
}

// lock locks the backend. It must be paired with unlock, which runs any
// callbacks that were queued while the lock was held.
func (b *Backend) lock() {
	b.m.Lock()
}

func (b *Backend) unlock() {
	callbacks := b.callbacks
	b.callbacks = nil
	b.m.Unlock()

	for _, f := range callbacks {
		f()
	}
}

// queueCallback queues f to run once the lock is released.
func (b *Backend) queueCallback(f func()) {
	b.callbacks = append(b.callbacks, f)
}

// fail records an error encountered while handling an event. Such
// errors are returned by the next ProcessEvents.
func (b *Backend) fail(err error) {
	b.errs = append(b.errs, err)
}

func (b *Backend) takeErrs() error {
	err := errors.Join(b.errs...)
	b.errs = nil
	return err
}

// ProcessEvents handles events from the compositor and sends queued
// requests. It doesn't block if there is nothing to do.
func (b *Backend) ProcessEvents() error {
	b.lock()
	defer b.unlock()

	if b.closed {
		return ErrClosed
	}

	ev, ok := b.display.Poll()
	if !ok {
		return b.takeErrs()
	}

	err := ev.Flush()
	if errors.Is(err, wl.ErrDisconnected) {
		b.fail(newError(CodeUnavailable, "process events", err))
		err = nil
	}
	return errors.Join(err, b.takeErrs())
}

// SwapBuffers presents the most recently made current window.
func (b *Backend) SwapBuffers() error {
	b.lock()
	defer b.unlock()

	if (b.gfx == nil) || b.closed {
		return nil
	}
	return b.gfx.SwapBuffers()
}

// Close destroys every window and disconnects from the compositor.
func (b *Backend) Close() error {
	b.lock()
	defer b.unlock()

	if b.closed {
		return nil
	}
	return b.close()
}

func (b *Backend) close() error {
	b.closed = true

	for _, id := range b.windows.Handles() {
		w, _ := b.windows.Remove(id)
		b.destroyWindow(w)
	}

	var errs []error
	if b.gfx != nil {
		errs = append(errs, b.gfx.Close())
		b.gfx = nil
	}

	for _, out := range b.outputs {
		out.destroy()
	}
	b.outputs = nil

	if b.outputManager != nil {
		b.outputManager.Destroy()
	}
	if b.wmBase != nil {
		b.wmBase.Destroy()
	}

	errs = append(errs, b.display.Flush())
	errs = append(errs, b.display.Close())
	return errors.Join(errs...)
}

func (b *Backend) handleDisplayError(objectID, code uint32, message string) {
	obj := wire.Name(b.display.GetObject(objectID))
	b.logger.Error("protocol error", "object", obj, "code", code, "message", message)
	b.fail(newError(CodeFailed, "protocol", fmt.Errorf("error on %v: code %v: %v", obj, code, message)))
}

func (b *Backend) handleGlobal(name uint32, inter string, version uint32) {
	switch inter {
	case wl.CompositorInterface:
		if b.compositor != nil {
			break
		}
		b.compositor = wl.BindCompositor(b.display, name, version)
		b.logger.Debug("bound global", "interface", inter, "version", b.compositor.Version())
		return

	case wl.ShmInterface:
		if b.shm != nil {
			break
		}
		b.shm = wl.BindShm(b.display, name, version)
		b.logger.Debug("bound global", "interface", inter)
		return

	case xdg.WmBaseInterface:
		if b.wmBase != nil {
			break
		}
		b.wmBase = xdg.BindWmBase(b.display, name, version)
		b.wmBase.Ping = b.handlePing
		b.logger.Debug("bound global", "interface", inter, "version", b.wmBase.Version())
		return

	case xdg.OutputManagerInterface:
		if b.outputManager != nil {
			break
		}
		b.outputManager = xdg.BindOutputManager(b.display, name, version)
		b.logger.Debug("bound global", "interface", inter)
		for _, out := range b.outputs {
			if out.xdg == nil {
				b.bindXdgOutput(out)
			}
		}
		return

	case wl.OutputInterface:
		b.addOutput(name, version)
		return
	}

	b.logger.Debug("global not used", "interface", inter, "name", name, "version", version)
}

func (b *Backend) handleGlobalRemove(name uint32) {
	if b.removeOutput(name) {
		return
	}
	b.logger.Debug("ignoring removal of global", "name", name)
}

func (b *Backend) handlePing(serial uint32) {
	b.wmBase.Pong(serial)
	b.logger.Debug("pong", "serial", serial)
}
