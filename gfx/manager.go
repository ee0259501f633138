package gfx

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

var (
	ErrDisplayUnavailable = errors.New("graphics display unavailable")
	ErrNotInitialized     = errors.New("graphics manager not initialized")
	ErrDisplayInit        = errors.New("failed to initialize graphics display")
	ErrBindAPI            = errors.New("failed to bind graphics API")
	ErrGetConfigs         = errors.New("failed to get graphics configs")
	ErrNoConfigs          = errors.New("no graphics configs available")
	ErrNoMatchingConfig   = errors.New("no graphics config matches the template")
	ErrCreateContext      = errors.New("failed to create graphics context")
	ErrNoSurface          = errors.New("window has no surface")
)

// Manager owns a platform display, one shared context and a surface
// per window. Windows are identified by the caller's own IDs.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	logger   *log.Logger
	platform Platform
	display  Display
	config   Config
	context  Context

	windows map[int]Surface
	current int
	hasCur  bool
}

func NewManager(platform Platform, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}

	return &Manager{
		logger:   logger,
		platform: platform,
		windows:  make(map[int]Surface),
	}
}

// Init opens the platform display for native, binds api, picks a
// config and creates the shared context. Each step fails with its own
// error.
func (m *Manager) Init(native NativeDisplay, api API, layered bool) (err error) {
	if m.display != nil {
		return nil
	}
	if native == nil {
		return ErrBadDisplay
	}

	display, err := m.platform.Open(native)
	if err != nil {
		if errors.Is(err, ErrBadDisplay) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrDisplayUnavailable, err)
	}
	if display == nil {
		return ErrDisplayUnavailable
	}
	defer func() {
		if err != nil {
			display.Terminate()
		}
	}()

	major, minor, err := display.Initialize()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDisplayInit, err)
	}
	m.logger.Debug("graphics display initialized", "platform", m.platform.Name(), "version", fmt.Sprintf("%v.%v", major, minor))

	err = display.BindAPI(api)
	if err != nil {
		return fmt.Errorf("%w %v: %w", ErrBindAPI, api, err)
	}

	configs, err := display.Configs()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGetConfigs, err)
	}
	if len(configs) == 0 {
		return ErrNoConfigs
	}

	config, ok := TemplateFor(layered).Choose(configs)
	if !ok {
		return ErrNoMatchingConfig
	}

	ctx, err := display.CreateContext(config, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateContext, err)
	}

	m.display = display
	m.config = config
	m.context = ctx
	return nil
}

// Initialized reports whether Init has succeeded.
func (m *Manager) Initialized() bool {
	return m.display != nil
}

// Config returns the config that was chosen by Init.
func (m *Manager) Config() Config {
	return m.config
}

// CreateWindow creates a surface for the window with the given ID and
// makes it current. The window becomes the target of SwapBuffers.
func (m *Manager) CreateWindow(id int, native NativeWindow, width, height int) error {
	if m.display == nil {
		return ErrNotInitialized
	}
	if _, ok := m.windows[id]; ok {
		return fmt.Errorf("window %v already has a surface", id)
	}

	s, err := m.display.CreateWindowSurface(m.config, native, width, height)
	if err != nil {
		return fmt.Errorf("create window surface: %w", err)
	}

	err = m.display.MakeCurrent(s, m.context)
	if err != nil {
		if derr := s.Destroy(); derr != nil {
			m.logger.Warn("destroy window surface", "window", id, "err", derr)
		}
		return fmt.Errorf("make surface current: %w", err)
	}

	m.windows[id] = s
	m.current, m.hasCur = id, true
	return nil
}

// Surface returns the surface of the window with the given ID, or nil.
func (m *Manager) Surface(id int) Surface {
	return m.windows[id]
}

// Current returns the ID of the window that SwapBuffers presents.
func (m *Manager) Current() (int, bool) {
	return m.current, m.hasCur
}

// MakeCurrent makes the window's surface current and the target of
// SwapBuffers.
func (m *Manager) MakeCurrent(id int) error {
	if m.display == nil {
		return ErrNotInitialized
	}

	s, ok := m.windows[id]
	if !ok {
		return ErrNoSurface
	}

	err := m.display.MakeCurrent(s, m.context)
	if err != nil {
		return fmt.Errorf("make surface current: %w", err)
	}
	m.current, m.hasCur = id, true
	return nil
}

// DestroyWindow destroys the window's surface if it has one. Failures
// are logged and otherwise ignored.
func (m *Manager) DestroyWindow(id int) {
	s, ok := m.windows[id]
	if !ok {
		return
	}
	delete(m.windows, id)

	if m.hasCur && (m.current == id) {
		m.hasCur = false
		if err := m.display.MakeCurrent(nil, m.context); err != nil {
			m.logger.Warn("release current surface", "window", id, "err", err)
		}
	}

	err := s.Destroy()
	if err != nil {
		m.logger.Warn("destroy window surface", "window", id, "err", err)
	}
}

func (m *Manager) ResizeWindow(id int, width, height int) error {
	s, ok := m.windows[id]
	if !ok {
		return ErrNoSurface
	}
	return s.Resize(width, height)
}

// SwapBuffers presents the current window's surface. It does nothing
// if there is no current window.
func (m *Manager) SwapBuffers() error {
	if !m.hasCur {
		return nil
	}
	return m.windows[m.current].Swap()
}

// Close destroys every surface and the context and terminates the
// display.
func (m *Manager) Close() error {
	if m.display == nil {
		return nil
	}

	for id := range m.windows {
		m.DestroyWindow(id)
	}

	var errs []error
	if m.context != nil {
		errs = append(errs, m.context.Destroy())
	}
	errs = append(errs, m.display.Terminate())

	m.display = nil
	m.context = nil
	return errors.Join(errs...)
}
