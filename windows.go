package wlds

import (
	"context"
	"errors"
	"fmt"
	"image"

	"deedles.dev/wlds/gfx"
)

// WindowList returns the IDs of every window in ascending order.
func (b *Backend) WindowList() []WindowID {
	b.lock()
	defer b.unlock()

	handles := b.windows.Handles()
	ids := make([]WindowID, 0, len(handles))
	for _, h := range handles {
		ids = append(ids, WindowID(h))
	}
	return ids
}

// CreateWindow creates a new toplevel window and waits for the
// compositor to configure it. The window takes the lowest free ID.
func (b *Backend) CreateWindow(ctx context.Context, opts WindowOptions) (WindowID, error) {
	b.lock()
	defer b.unlock()

	return b.createWindow(ctx, opts)
}

// DestroyWindow destroys a window and frees its ID. The main window
// may be destroyed, after which MainWindowID refers to no window until
// another window takes its ID.
func (b *Backend) DestroyWindow(id WindowID) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	b.windows.Release(int(id))
	b.destroyWindow(w)
	b.logger.Debug("destroyed window", "id", id)
}

func (b *Backend) WindowGetSize(id WindowID) image.Point {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return image.Point{}
	}
	return w.size
}

// WindowGetSizeWithDecorations returns the size of the window. The
// compositor draws any decorations, so they are not included.
func (b *Backend) WindowGetSizeWithDecorations(id WindowID) image.Point {
	return b.WindowGetSize(id)
}

// WindowSetSize resizes the window, clamped to its size limits.
func (b *Backend) WindowSetSize(id WindowID, size image.Point) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	b.resize(w, size)
}

func (b *Backend) WindowGetMinSize(id WindowID) image.Point {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return image.Point{}
	}
	return w.minSize
}

// WindowSetMinSize sets the window's minimum size. It is ignored if
// it is larger than the maximum size on either axis.
func (b *Backend) WindowSetMinSize(id WindowID, size image.Point) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	b.setMinSize(w, size)
}

func (b *Backend) WindowGetMaxSize(id WindowID) image.Point {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return image.Point{}
	}
	return w.maxSize
}

// WindowSetMaxSize sets the window's maximum size. It is ignored if
// it is smaller than the minimum size on either axis.
func (b *Backend) WindowSetMaxSize(id WindowID, size image.Point) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	b.setMaxSize(w, size)
}

func (b *Backend) WindowGetMode(id WindowID) WindowMode {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return WindowModeWindowed
	}
	return w.mode
}

// WindowSetMode asks the compositor to change the window's mode.
// Exclusive fullscreen is treated as fullscreen.
func (b *Backend) WindowSetMode(id WindowID, mode WindowMode) error {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return newError(CodeInvalidParameter, "set window mode", errNoWindow(id))
	}
	return b.setMode(w, mode)
}

// WindowGetCurrentScreen returns the first screen that the window
// entered that still exists, or InvalidScreen.
func (b *Backend) WindowGetCurrentScreen(id WindowID) int {
	b.lock()
	defer b.unlock()

	return b.currentScreen(id)
}

// WindowSetRectChangedCallback sets a function to be called whenever
// the window is resized. The rectangle's origin is always (0, 0).
func (b *Backend) WindowSetRectChangedCallback(id WindowID, f func(image.Rectangle)) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	w.rectChanged = f
}

// WindowSetWindowEventCallback sets a function to be called with the
// window's events. Only WindowEventCloseRequest is reported.
func (b *Backend) WindowSetWindowEventCallback(id WindowID, f func(WindowEvent)) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	w.windowEvent = f
}

func (b *Backend) WindowSetTitle(id WindowID, title string) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	w.toplevel.SetTitle(title)
}

func (b *Backend) WindowAttachInstanceID(id WindowID, instance uint64) {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return
	}
	w.instanceID = instance
}

func (b *Backend) WindowGetAttachedInstanceID(id WindowID) uint64 {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return 0
	}
	return w.instanceID
}

// WindowCanDraw reports whether the window exists and is not
// minimized.
func (b *Backend) WindowCanDraw(id WindowID) bool {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	return ok && (w.mode != WindowModeMinimized)
}

func (b *Backend) CanAnyWindowDraw() bool {
	b.lock()
	defer b.unlock()

	for _, h := range b.windows.Handles() {
		w, _ := b.windows.Get(h)
		if w.mode != WindowModeMinimized {
			return true
		}
	}
	return false
}

// WindowGetBounds returns the largest size that the compositor
// recommends for the window, or the zero size if it hasn't said.
func (b *Backend) WindowGetBounds(id WindowID) image.Point {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return image.Point{}
	}
	return w.bounds
}

// WindowCloseRequested reports whether the compositor has asked for
// the window to be closed.
func (b *Backend) WindowCloseRequested(id WindowID) bool {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	return ok && w.closeRequested
}

func (b *Backend) WindowGetVSyncMode(id WindowID) VSyncMode {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return VSyncEnabled
	}
	return w.vsync
}

func (b *Backend) WindowGetFlags(id WindowID) WindowFlags {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return 0
	}
	return w.flags
}

// WindowMakeCurrent makes the window the target of SwapBuffers.
func (b *Backend) WindowMakeCurrent(id WindowID) error {
	b.lock()
	defer b.unlock()

	w, ok := b.window(id)
	if !ok {
		return newError(CodeInvalidParameter, "make window current", errNoWindow(id))
	}
	if !w.hasSurface {
		return newError(CodeUnavailable, "make window current", errors.New("window has no graphics surface"))
	}

	err := b.gfx.MakeCurrent(int(id))
	if err != nil {
		return newError(CodeFailed, "make window current", err)
	}
	return nil
}

// WindowSurface returns the window's graphics surface, or nil if
// graphics are disabled.
func (b *Backend) WindowSurface(id WindowID) gfx.Surface {
	b.lock()
	defer b.unlock()

	if _, ok := b.window(id); !ok || (b.gfx == nil) {
		return nil
	}
	return b.gfx.Surface(int(id))
}

func errNoWindow(id WindowID) error {
	return fmt.Errorf("no window with ID %v", id)
}
