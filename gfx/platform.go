// Package gfx manages a graphics platform connection, a single shared
// rendering context and the presentable surfaces of windows.
package gfx

import "errors"

// NativeDisplay is the platform-specific handle of a display
// connection.
type NativeDisplay any

// NativeWindow is the platform-specific handle of a window.
type NativeWindow any

type API int

const (
	APISoftware API = iota
	APIOpenGLES
	APIOpenGL
)

func (api API) String() string {
	switch api {
	case APISoftware:
		return "software"
	case APIOpenGLES:
		return "opengl_es"
	case APIOpenGL:
		return "opengl"
	default:
		return "unknown"
	}
}

// SurfaceType is a set of the kinds of surface that a config can be
// used to create.
type SurfaceType uint32

const (
	SurfaceWindow SurfaceType = 1 << iota
	SurfacePbuffer
)

// Config describes a framebuffer configuration offered by a display.
type Config struct {
	ID          int
	RedSize     int
	GreenSize   int
	BlueSize    int
	AlphaSize   int
	DepthSize   int
	SurfaceType SurfaceType

	// Native is platform-specific data identifying the config.
	Native any
}

// ErrBadDisplay may be returned by Platform.Open if the native display
// can't be used by the platform.
var ErrBadDisplay = errors.New("bad native display")

// Platform is a graphics API implementation.
type Platform interface {
	Name() string
	Open(native NativeDisplay) (Display, error)
}

// Display is a platform's connection to a native display.
type Display interface {
	Initialize() (major, minor int, err error)
	BindAPI(api API) error
	Configs() ([]Config, error)
	CreateContext(cfg Config, share Context) (Context, error)
	CreateWindowSurface(cfg Config, native NativeWindow, width, height int) (Surface, error)
	MakeCurrent(s Surface, ctx Context) error
	Terminate() error
}

type Context interface {
	Destroy() error
}

// Surface is a presentable surface bound to a window.
type Surface interface {
	Swap() error
	Resize(width, height int) error
	Destroy() error
}
