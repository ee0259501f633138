// Package soft is a graphics platform that renders on the CPU into
// wl_shm buffers.
package soft

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/exp/slices"
	"golang.org/x/image/draw"

	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/gfx"
	"deedles.dev/wlds/shm"
)

// Name is the rendering driver name of the platform.
const Name = "software"

// Platform opens displays for a *wl.Display and allocates buffers
// from its wl_shm global.
type Platform struct {
	shm *wl.Shm
}

// New returns a platform that allocates from s, which may be nil if
// the compositor does not have a wl_shm global.
func New(s *wl.Shm) *Platform {
	return &Platform{shm: s}
}

func (p *Platform) Name() string {
	return Name
}

func (p *Platform) Open(native gfx.NativeDisplay) (gfx.Display, error) {
	d, ok := native.(*wl.Display)
	if !ok || (d == nil) {
		return nil, fmt.Errorf("%w: %T is not a *wl.Display", gfx.ErrBadDisplay, native)
	}
	if p.shm == nil {
		return nil, errors.New("compositor has no wl_shm")
	}
	return &display{shm: p.shm}, nil
}

type display struct {
	shm         *wl.Shm
	initialized bool
	current     *Surface
}

func (d *display) Initialize() (major, minor int, err error) {
	d.initialized = true
	return 1, 0, nil
}

func (d *display) BindAPI(api gfx.API) error {
	if api != gfx.APISoftware {
		return fmt.Errorf("unsupported API: %v", api)
	}
	return nil
}

// Configs returns a config for every 32 bit format that the compositor
// supports. ARGB8888 and XRGB8888 are always supported.
func (d *display) Configs() ([]gfx.Config, error) {
	if !d.initialized {
		return nil, gfx.ErrNotInitialized
	}

	formats := d.shm.Formats()
	for _, f := range []wl.ShmFormat{wl.ShmFormatArgb8888, wl.ShmFormatXrgb8888} {
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}

	configs := make([]gfx.Config, 0, len(formats))
	for _, f := range formats {
		var alpha int
		switch f {
		case wl.ShmFormatArgb8888:
			alpha = 8
		case wl.ShmFormatXrgb8888:
		default:
			continue
		}

		configs = append(configs, gfx.Config{
			ID:          len(configs),
			RedSize:     8,
			GreenSize:   8,
			BlueSize:    8,
			AlphaSize:   alpha,
			SurfaceType: gfx.SurfaceWindow,
			Native:      f,
		})
	}
	return configs, nil
}

type context struct{}

func (context) Destroy() error {
	return nil
}

func (d *display) CreateContext(cfg gfx.Config, share gfx.Context) (gfx.Context, error) {
	if _, ok := cfg.Native.(wl.ShmFormat); !ok {
		return nil, errors.New("config was not created by this platform")
	}
	return context{}, nil
}

func (d *display) CreateWindowSurface(cfg gfx.Config, native gfx.NativeWindow, width, height int) (gfx.Surface, error) {
	ws, ok := native.(*wl.Surface)
	if !ok || (ws == nil) {
		return nil, fmt.Errorf("native window %T is not a *wl.Surface", native)
	}
	format, ok := cfg.Native.(wl.ShmFormat)
	if !ok {
		return nil, errors.New("config was not created by this platform")
	}

	buf, err := shm.NewImageBuffer(d.shm, format, int32(width), int32(height))
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}

	return &Surface{surface: ws, buf: buf}, nil
}

func (d *display) MakeCurrent(s gfx.Surface, ctx gfx.Context) error {
	if s == nil {
		d.current = nil
		return nil
	}

	cur, ok := s.(*Surface)
	if !ok {
		return fmt.Errorf("surface %T was not created by this platform", s)
	}
	d.current = cur
	return nil
}

func (d *display) Terminate() error {
	d.initialized = false
	d.current = nil
	return nil
}

// Surface is a window surface backed by a single shared memory buffer.
type Surface struct {
	surface *wl.Surface
	buf     *shm.ImageBuffer
}

// Image returns the image to draw the next frame into. It is
// invalidated by a resize.
func (s *Surface) Image() draw.Image {
	return s.buf.Image()
}

func (s *Surface) Bounds() image.Rectangle {
	return s.buf.Bounds()
}

// Swap presents the buffer's current contents.
func (s *Surface) Swap() error {
	if s.buf == nil {
		return errors.New("surface is destroyed")
	}

	bounds := s.buf.Bounds()
	s.surface.Attach(s.buf.Buffer(), 0, 0)
	s.surface.DamageBuffer(0, 0, int32(bounds.Dx()), int32(bounds.Dy()))
	s.surface.Commit()
	return nil
}

// Resize resizes the buffer, keeping as much of the old contents as
// fits.
func (s *Surface) Resize(width, height int) error {
	if s.buf == nil {
		return errors.New("surface is destroyed")
	}
	if s.buf.Bounds().Size() == image.Pt(width, height) {
		return nil
	}

	old := image.NewRGBA(s.buf.Bounds())
	draw.Copy(old, image.Point{}, s.buf.Image(), old.Bounds(), draw.Src, nil)

	err := s.buf.Resize(int32(width), int32(height))
	if err != nil {
		return err
	}

	dst := s.buf.Image()
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
	draw.Copy(dst, image.Point{}, old, old.Bounds(), draw.Src, nil)
	return nil
}

func (s *Surface) Destroy() error {
	if s.buf == nil {
		return nil
	}
	s.buf.Destroy()
	s.buf = nil
	return nil
}
