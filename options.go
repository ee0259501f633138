package wlds

import (
	"fmt"
	"image"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"deedles.dev/wlds/gfx"
	"deedles.dev/wlds/gfx/soft"
	"deedles.dev/wlds/internal/debug"
)

const (
	// DriverNone disables graphics. Windows are created without
	// presentable surfaces.
	DriverNone = "none"

	DefaultTitle            = "wlds"
	DefaultConfigureTimeout = 5 * time.Second
)

var defaultResolution = image.Pt(1152, 648)

// RenderingDrivers returns the names of the rendering drivers that are
// built in.
func RenderingDrivers() []string {
	return []string{soft.Name}
}

// Options are the parameters that a Backend is created with.
type Options struct {
	// RenderingDriver selects the graphics platform. It defaults to
	// "software". It is ignored if Platform is set.
	RenderingDriver string

	Mode       WindowMode
	VSync      VSyncMode
	Flags      WindowFlags
	Resolution image.Point
	Layered    bool
	Title      string
	AppID      string

	// ConfigureTimeout bounds the wait for the compositor to configure
	// a new window.
	ConfigureTimeout time.Duration

	// Platform overrides the graphics platform. The native display
	// passed to it is the backend's *wl.Display and native windows
	// are *wl.Surfaces.
	Platform gfx.Platform

	// Rasterizer is told when rendering can start.
	Rasterizer Rasterizer

	Logger *log.Logger
}

func (opts Options) withDefaults() Options {
	if opts.RenderingDriver == "" {
		opts.RenderingDriver = soft.Name
	}
	if (opts.Resolution.X <= 0) || (opts.Resolution.Y <= 0) {
		opts.Resolution = defaultResolution
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.ConfigureTimeout <= 0 {
		opts.ConfigureTimeout = DefaultConfigureTimeout
	}
	if opts.Logger == nil {
		opts.Logger = debug.Logger.WithPrefix("wlds")
	}
	return opts
}

// WindowOptions are the parameters of a new window.
type WindowOptions struct {
	Mode  WindowMode
	VSync VSyncMode
	Flags WindowFlags
	Size  image.Point
	Title string
}

func (opts Options) mainWindow() WindowOptions {
	return WindowOptions{
		Mode:  opts.Mode,
		VSync: opts.VSync,
		Flags: opts.Flags,
		Size:  opts.Resolution,
		Title: opts.Title,
	}
}

type optionsFile struct {
	RenderingDriver  string      `yaml:"rendering_driver"`
	Mode             WindowMode  `yaml:"mode"`
	VSync            VSyncMode   `yaml:"vsync"`
	Flags            WindowFlags `yaml:"flags"`
	Width            int         `yaml:"width"`
	Height           int         `yaml:"height"`
	Layered          bool        `yaml:"layered"`
	Title            string      `yaml:"title"`
	AppID            string      `yaml:"app_id"`
	ConfigureTimeout string      `yaml:"configure_timeout"`
	LogLevel         string      `yaml:"log_level"`
}

// ParseOptions reads options from YAML, such as
//
//	rendering_driver: software
//	mode: maximized
//	vsync: enabled
//	flags: [borderless]
//	width: 1280
//	height: 720
//	title: Example
//	configure_timeout: 2s
//	log_level: debug
func ParseOptions(data []byte) (Options, error) {
	var file optionsFile
	err := yaml.Unmarshal(data, &file)
	if err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}

	opts := Options{
		RenderingDriver: file.RenderingDriver,
		Mode:            file.Mode,
		VSync:           file.VSync,
		Flags:           file.Flags,
		Resolution:      image.Pt(file.Width, file.Height),
		Layered:         file.Layered,
		Title:           file.Title,
		AppID:           file.AppID,
	}

	if file.ConfigureTimeout != "" {
		opts.ConfigureTimeout, err = time.ParseDuration(file.ConfigureTimeout)
		if err != nil {
			return Options{}, fmt.Errorf("parse configure_timeout: %w", err)
		}
	}

	if file.LogLevel != "" {
		level, err := log.ParseLevel(file.LogLevel)
		if err != nil {
			return Options{}, fmt.Errorf("parse log_level: %w", err)
		}
		opts.Logger = debug.Logger.WithPrefix("wlds")
		opts.Logger.SetLevel(level)
	}

	return opts, nil
}

// LoadOptions reads options from a YAML file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, err
	}
	return ParseOptions(data)
}

// unbounded is the size limit that means "no limit".
var unbounded = image.Pt(math.MaxInt32, math.MaxInt32)
