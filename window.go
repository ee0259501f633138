package wlds

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/exp/slices"

	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/xdg"
)

type window struct {
	id WindowID

	surface    *wl.Surface
	xdgSurface *xdg.Surface
	toplevel   *xdg.Toplevel

	mode    WindowMode
	vsync   VSyncMode
	flags   WindowFlags
	size    image.Point
	minSize image.Point
	maxSize image.Point
	bounds  image.Point

	pendingConfig  bool
	closeRequested bool
	hasSurface     bool

	// outputs are the outputs that the window is on, in the order
	// that it entered them.
	outputs []*wl.Output

	rectChanged func(image.Rectangle)
	windowEvent func(WindowEvent)
	instanceID  uint64
}

func clampSize(size, min, max image.Point) image.Point {
	return image.Pt(
		clamp(size.X, min.X, max.X),
		clamp(size.Y, min.Y, max.Y),
	)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// limit converts a size limit to the value sent to the compositor,
// where zero means no limit.
func limit(v int) int32 {
	if v >= math.MaxInt32 {
		return 0
	}
	return int32(v)
}

// createWindow runs the window creation handshake. It must be called
// with the lock held. Everything created before a failure is
// destroyed again in reverse order.
func (b *Backend) createWindow(ctx context.Context, opts WindowOptions) (id WindowID, err error) {
	if b.closed {
		return InvalidWindowID, ErrClosed
	}
	if (opts.Size.X <= 0) || (opts.Size.Y <= 0) {
		return InvalidWindowID, newError(CodeInvalidParameter, "create window", fmt.Errorf("invalid size %v", opts.Size))
	}
	if opts.Title == "" {
		opts.Title = b.opts.Title
	}

	id = WindowID(b.windows.Reserve())
	w := window{
		id:      id,
		mode:    WindowModeWindowed,
		vsync:   opts.VSync,
		flags:   opts.Flags,
		minSize: image.Pt(1, 1),
		maxSize: unbounded,
	}
	w.size = clampSize(opts.Size, w.minSize, w.maxSize)
	defer func() {
		if err != nil {
			b.destroyWindow(&w)
			b.windows.Release(int(id))
			id = InvalidWindowID
		}
	}()

	w.surface = b.compositor.CreateSurface()
	w.surface.Enter = func(out *wl.Output) { b.handleEnter(&w, out) }
	w.surface.Leave = func(out *wl.Output) { b.handleLeave(&w, out) }

	w.xdgSurface = b.wmBase.GetXdgSurface(w.surface)
	w.xdgSurface.Configure = func(serial uint32) { b.handleConfigure(&w, serial) }

	w.toplevel = w.xdgSurface.GetToplevel()
	w.toplevel.Configure = func(width, height int32, states []xdg.ToplevelState) {
		b.handleToplevelConfigure(&w, width, height, states)
	}
	w.toplevel.Close = func() { b.handleClose(&w) }
	w.toplevel.ConfigureBounds = func(width, height int32) {
		w.bounds = image.Pt(int(width), int(height))
	}

	w.toplevel.SetTitle(opts.Title)
	if b.opts.AppID != "" {
		w.toplevel.SetAppID(b.opts.AppID)
	}
	w.pendingConfig = true
	w.surface.Commit()

	err = b.waitForConfigure(ctx, &w)
	if err != nil {
		return id, err
	}

	if b.gfx != nil {
		err = b.gfx.CreateWindow(int(id), w.surface, w.size.X, w.size.Y)
		if err != nil {
			return id, newError(CodeFailed, "create window surface", err)
		}
		w.hasSurface = true

		if b.opts.Rasterizer != nil {
			b.opts.Rasterizer.MakeCurrent()
		}
	}

	b.windows.Set(int(id), &w)
	b.logger.Debug("created window", "id", id, "size", w.size)

	err = b.setMode(&w, opts.Mode)
	if err != nil {
		b.logger.Warn("set initial window mode", "id", id, "mode", opts.Mode, "err", err)
		err = nil
	}

	return id, nil
}

// waitForConfigure dispatches events until the compositor has sent
// the window's first configuration, giving up after the configured
// timeout.
func (b *Backend) waitForConfigure(ctx context.Context, w *window) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.ConfigureTimeout)
	defer cancel()

	for w.pendingConfig {
		err := b.display.DispatchEvents(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return newError(CodeTimeout, "wait for configure", ctx.Err())
		case errors.Is(err, wl.ErrDisconnected):
			return newError(CodeUnavailable, "wait for configure", err)
		default:
			b.logger.Warn("dispatch events", "err", err)
		}
	}

	return nil
}

func (b *Backend) destroyWindow(w *window) {
	if b.gfx != nil {
		b.gfx.DestroyWindow(int(w.id))
	}
	w.hasSurface = false

	if w.toplevel != nil {
		w.toplevel.Destroy()
		w.toplevel = nil
	}
	if w.xdgSurface != nil {
		w.xdgSurface.Destroy()
		w.xdgSurface = nil
	}
	if w.surface != nil {
		w.surface.Destroy()
		w.surface = nil
	}
}

func (b *Backend) handleConfigure(w *window, serial uint32) {
	w.xdgSurface.AckConfigure(serial)
	w.pendingConfig = false
}

func (b *Backend) handleToplevelConfigure(w *window, width, height int32, states []xdg.ToplevelState) {
	w.mode = WindowModeWindowed
	for _, state := range states {
		switch state {
		case xdg.ToplevelStateMaximized:
			w.mode = WindowModeMaximized
		case xdg.ToplevelStateFullscreen:
			w.mode = WindowModeFullscreen
		}
	}

	if (width <= 0) || (height <= 0) {
		return
	}
	b.resize(w, image.Pt(int(width), int(height)))
}

func (b *Backend) handleClose(w *window) {
	w.closeRequested = true
	b.logger.Debug("window close requested", "id", w.id)

	if cb := w.windowEvent; cb != nil {
		b.queueCallback(func() { cb(WindowEventCloseRequest) })
	}
}

func (b *Backend) handleEnter(w *window, out *wl.Output) {
	if (out == nil) || slices.Contains(w.outputs, out) {
		return
	}
	w.outputs = append(w.outputs, out)
}

func (b *Backend) handleLeave(w *window, out *wl.Output) {
	if out == nil {
		return
	}
	w.outputs = slices.DeleteFunc(w.outputs, func(o *wl.Output) bool { return o == out })
}

// resize clamps size to the window's limits and applies it if it is
// different from the current size.
func (b *Backend) resize(w *window, size image.Point) {
	size = clampSize(size, w.minSize, w.maxSize)
	if size == w.size {
		return
	}
	w.size = size

	w.xdgSurface.SetWindowGeometry(0, 0, int32(size.X), int32(size.Y))

	if w.hasSurface {
		err := b.gfx.ResizeWindow(int(w.id), size.X, size.Y)
		if err != nil {
			b.logger.Warn("resize window surface", "id", w.id, "err", err)
		}
	}

	if cb := w.rectChanged; cb != nil {
		rect := image.Rectangle{Max: size}
		b.queueCallback(func() { cb(rect) })
	}
}

func (b *Backend) setMinSize(w *window, size image.Point) {
	if (size.X < 1) || (size.Y < 1) {
		b.logger.Debug("rejecting non-positive minimum size", "id", w.id, "min", size)
		return
	}
	if (size.X > w.maxSize.X) || (size.Y > w.maxSize.Y) {
		b.logger.Debug("rejecting minimum size larger than maximum", "id", w.id, "min", size, "max", w.maxSize)
		return
	}

	w.minSize = size
	w.toplevel.SetMinSize(limit(size.X), limit(size.Y))
	b.resize(w, w.size)
}

func (b *Backend) setMaxSize(w *window, size image.Point) {
	if (size.X < 1) || (size.Y < 1) {
		b.logger.Debug("rejecting non-positive maximum size", "id", w.id, "max", size)
		return
	}
	if (size.X < w.minSize.X) || (size.Y < w.minSize.Y) {
		b.logger.Debug("rejecting maximum size smaller than minimum", "id", w.id, "max", size, "min", w.minSize)
		return
	}

	w.maxSize = size
	w.toplevel.SetMaxSize(limit(size.X), limit(size.Y))
	b.resize(w, w.size)
}

// setMode asks the compositor to put the window into the given mode.
func (b *Backend) setMode(w *window, mode WindowMode) error {
	if mode == WindowModeExclusiveFullscreen {
		mode = WindowModeFullscreen
	}
	if mode == w.mode {
		return nil
	}

	switch mode {
	case WindowModeMinimized:
		w.toplevel.SetMinimized()

	case WindowModeWindowed, WindowModeMaximized, WindowModeFullscreen:
		switch w.mode {
		case WindowModeMaximized:
			w.toplevel.UnsetMaximized()
		case WindowModeFullscreen:
			w.toplevel.UnsetFullscreen()
		}

		switch mode {
		case WindowModeMaximized:
			w.toplevel.SetMaximized()
		case WindowModeFullscreen:
			w.toplevel.SetFullscreen(nil)
		}

	default:
		return newError(CodeUnsupported, "set window mode", fmt.Errorf("mode %v", mode))
	}

	w.mode = mode
	return nil
}

// currentScreen returns the index of the first output that the window
// entered that is still known.
func (b *Backend) currentScreen(id WindowID) int {
	w, ok := b.windows.Get(int(id))
	if !ok {
		return InvalidScreen
	}

	for _, o := range w.outputs {
		if i := b.outputIndex(o); i >= 0 {
			return i
		}
	}
	return InvalidScreen
}

func (b *Backend) window(id WindowID) (*window, bool) {
	if b.closed {
		return nil, false
	}
	return b.windows.Get(int(id))
}
