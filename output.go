package wlds

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/exp/slices"

	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/xdg"
)

// output is what is known about a wl_output. Its fields are filled in
// by bursts of events that each end with a done event.
type output struct {
	name uint32
	wl   *wl.Output
	xdg  *xdg.Output

	position     image.Point
	physicalSize image.Point // millimeters
	size         image.Point

	logicalPosition image.Point
	logicalSize     image.Point

	transform   wl.OutputTransform
	subpixel    wl.OutputSubpixel
	make, model string
	outputName  string
	description string

	refresh int32 // mHz
	scale   int32
	dpi     float64

	pending bool
}

func (b *Backend) addOutput(name, version uint32) {
	out := output{
		name:  name,
		scale: 1,
		dpi:   InvalidDPI,
	}

	out.wl = wl.BindOutput(b.display, name, version)
	out.wl.Geometry = func(x, y, physicalWidth, physicalHeight int32, subpixel wl.OutputSubpixel, make, model string, transform wl.OutputTransform) {
		out.position = image.Pt(int(x), int(y))
		out.physicalSize = image.Pt(int(physicalWidth), int(physicalHeight))
		out.subpixel = subpixel
		out.make = make
		out.model = model
		out.transform = transform
		out.pending = true
	}
	out.wl.Mode = func(flags wl.OutputMode, width, height, refresh int32) {
		if !flags.Has(wl.OutputModeCurrent) {
			return
		}
		out.size = image.Pt(int(width), int(height))
		out.refresh = refresh
		out.pending = true
	}
	out.wl.Scale = func(factor int32) {
		out.scale = factor
		out.pending = true
	}
	out.wl.Name = func(name string) {
		out.outputName = name
		out.pending = true
	}
	out.wl.Description = func(description string) {
		out.description = description
		out.pending = true
	}
	out.wl.Done = func() {
		out.pending = false
	}

	b.outputs = append(b.outputs, &out)
	b.logger.Debug("bound output", "name", name, "version", out.wl.Version())

	if b.outputManager != nil {
		b.bindXdgOutput(&out)
	}
}

func (b *Backend) bindXdgOutput(out *output) {
	out.xdg = b.outputManager.GetXdgOutput(out.wl)
	out.xdg.LogicalPosition = func(x, y int32) {
		out.logicalPosition = image.Pt(int(x), int(y))
		out.pending = true
	}
	out.xdg.LogicalSize = func(width, height int32) {
		out.logicalSize = image.Pt(int(width), int(height))
		out.pending = true
	}
	out.xdg.Name = func(name string) {
		out.outputName = name
		out.pending = true
	}
	out.xdg.Description = func(description string) {
		out.description = description
		out.pending = true
	}
	out.xdg.Done = func() {
		out.pending = false

		err := out.updateDPI()
		if err != nil {
			b.logger.Error("compute output DPI", "output", out.name, "err", err)
			b.fail(newError(CodeFailed, "output done", err))
		}
	}
}

// updateDPI computes the output's DPI as the average of the horizontal
// and vertical pixel densities of its logical size.
func (out *output) updateDPI() error {
	if (out.physicalSize.X <= 0) || (out.physicalSize.Y <= 0) {
		return fmt.Errorf("%w: output %v is %vx%v mm", ErrZeroPhysicalSize, out.name, out.physicalSize.X, out.physicalSize.Y)
	}

	xdpi := float64(out.logicalSize.X) / (float64(out.physicalSize.X) / 25.4)
	ydpi := float64(out.logicalSize.Y) / (float64(out.physicalSize.Y) / 25.4)
	out.dpi = (xdpi + ydpi) / 2
	return nil
}

func (out *output) destroy() {
	if out.xdg != nil {
		out.xdg.Destroy()
		out.xdg = nil
	}
	out.wl.Release()
}

// removeOutput removes the output with the given global name. It
// returns false if there is no such output.
func (b *Backend) removeOutput(name uint32) bool {
	i := slices.IndexFunc(b.outputs, func(out *output) bool { return out.name == name })
	if i < 0 {
		return false
	}

	b.outputs[i].destroy()
	b.outputs = slices.Delete(b.outputs, i, i+1)
	b.logger.Debug("removed output", "name", name)
	return true
}

// outputIndex returns the index of the output record for o, or
// InvalidScreen.
func (b *Backend) outputIndex(o *wl.Output) int {
	return slices.IndexFunc(b.outputs, func(out *output) bool { return out.wl == o })
}

// screen resolves a screen index, including ScreenOfMainWindow.
func (b *Backend) screen(screen int) *output {
	if screen == ScreenOfMainWindow {
		screen = b.currentScreen(MainWindowID)
	}
	if (screen < 0) || (screen >= len(b.outputs)) {
		return nil
	}
	return b.outputs[screen]
}

func (b *Backend) ScreenCount() int {
	b.lock()
	defer b.unlock()

	return len(b.outputs)
}

// PrimaryScreen returns the first screen that was discovered.
func (b *Backend) PrimaryScreen() int {
	b.lock()
	defer b.unlock()

	if len(b.outputs) == 0 {
		return InvalidScreen
	}
	return 0
}

// ScreenPosition returns the position of the screen in the
// compositor's logical coordinate space.
func (b *Backend) ScreenPosition(screen int) image.Point {
	b.lock()
	defer b.unlock()

	out := b.screen(screen)
	if out == nil {
		return image.Point{}
	}
	return out.logicalPosition
}

// ScreenSize returns the size of the screen's current mode in pixels.
func (b *Backend) ScreenSize(screen int) image.Point {
	b.lock()
	defer b.unlock()

	out := b.screen(screen)
	if out == nil {
		return image.Point{}
	}
	return out.size
}

// ScreenUsableRect returns the screen's logical area.
func (b *Backend) ScreenUsableRect(screen int) image.Rectangle {
	b.lock()
	defer b.unlock()

	out := b.screen(screen)
	if out == nil {
		return image.Rectangle{}
	}
	return image.Rectangle{
		Min: out.logicalPosition,
		Max: out.logicalPosition.Add(out.logicalSize),
	}
}

// ScreenRefreshRate returns the refresh rate of the screen in Hz, or
// -1 if it isn't known.
func (b *Backend) ScreenRefreshRate(screen int) float64 {
	b.lock()
	defer b.unlock()

	out := b.screen(screen)
	if (out == nil) || (out.refresh <= 0) {
		return -1
	}
	return float64(out.refresh) / 1000
}

func (b *Backend) ScreenDPI(screen int) int {
	b.lock()
	defer b.unlock()

	out := b.screen(screen)
	if out == nil {
		return InvalidDPI
	}
	return int(math.Round(out.dpi))
}

func (b *Backend) ScreenScale(screen int) float64 {
	b.lock()
	defer b.unlock()

	out := b.screen(screen)
	if out == nil {
		return 1
	}
	return float64(out.scale)
}
