package gfx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	display *fakeDisplay
	openErr error
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) Open(native NativeDisplay) (Display, error) {
	if p.openErr != nil {
		return nil, p.openErr
	}
	if p.display == nil {
		return nil, nil
	}
	return p.display, nil
}

type fakeDisplay struct {
	initErr, bindErr, configsErr, contextErr, surfaceErr error

	configs    []Config
	current    *fakeSurface
	terminated bool
}

func (d *fakeDisplay) Initialize() (int, int, error) {
	return 1, 5, d.initErr
}

func (d *fakeDisplay) BindAPI(api API) error {
	return d.bindErr
}

func (d *fakeDisplay) Configs() ([]Config, error) {
	return d.configs, d.configsErr
}

func (d *fakeDisplay) CreateContext(cfg Config, share Context) (Context, error) {
	if d.contextErr != nil {
		return nil, d.contextErr
	}
	return fakeContext{}, nil
}

func (d *fakeDisplay) CreateWindowSurface(cfg Config, native NativeWindow, width, height int) (Surface, error) {
	if d.surfaceErr != nil {
		return nil, d.surfaceErr
	}
	return &fakeSurface{name: native.(string), width: width, height: height}, nil
}

func (d *fakeDisplay) MakeCurrent(s Surface, ctx Context) error {
	d.current, _ = s.(*fakeSurface)
	return nil
}

func (d *fakeDisplay) Terminate() error {
	d.terminated = true
	return nil
}

type fakeContext struct{}

func (fakeContext) Destroy() error { return nil }

type fakeSurface struct {
	name          string
	width, height int
	swaps         int
	destroyErr    error
	destroyed     bool
}

func (s *fakeSurface) Swap() error { s.swaps++; return nil }

func (s *fakeSurface) Resize(width, height int) error {
	s.width, s.height = width, height
	return nil
}

func (s *fakeSurface) Destroy() error {
	s.destroyed = true
	return s.destroyErr
}

var rgbConfig = Config{ID: 1, RedSize: 8, GreenSize: 8, BlueSize: 8, SurfaceType: SurfaceWindow}
var rgbaConfig = Config{ID: 2, RedSize: 8, GreenSize: 8, BlueSize: 8, AlphaSize: 8, SurfaceType: SurfaceWindow}

func TestInitErrors(t *testing.T) {
	fail := errors.New("fail")

	tests := []struct {
		name     string
		platform *fakePlatform
		native   NativeDisplay
		layered  bool
		err      error
	}{
		{name: "NilNative", platform: &fakePlatform{}, err: ErrBadDisplay},
		{name: "Open", platform: &fakePlatform{openErr: fail}, native: "d", err: ErrDisplayUnavailable},
		{name: "OpenBadDisplay", platform: &fakePlatform{openErr: ErrBadDisplay}, native: "d", err: ErrBadDisplay},
		{name: "NilDisplay", platform: &fakePlatform{}, native: "d", err: ErrDisplayUnavailable},
		{name: "Initialize", platform: &fakePlatform{display: &fakeDisplay{initErr: fail}}, native: "d", err: ErrDisplayInit},
		{name: "BindAPI", platform: &fakePlatform{display: &fakeDisplay{bindErr: fail}}, native: "d", err: ErrBindAPI},
		{name: "Configs", platform: &fakePlatform{display: &fakeDisplay{configsErr: fail}}, native: "d", err: ErrGetConfigs},
		{name: "NoConfigs", platform: &fakePlatform{display: &fakeDisplay{}}, native: "d", err: ErrNoConfigs},
		{name: "NoMatch", platform: &fakePlatform{display: &fakeDisplay{configs: []Config{rgbConfig}}}, native: "d", layered: true, err: ErrNoMatchingConfig},
		{name: "Context", platform: &fakePlatform{display: &fakeDisplay{configs: []Config{rgbConfig}, contextErr: fail}}, native: "d", err: ErrCreateContext},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := NewManager(test.platform, nil)
			err := m.Init(test.native, APISoftware, test.layered)
			assert.ErrorIs(t, err, test.err)
			assert.False(t, m.Initialized())
			if test.platform.display != nil {
				assert.True(t, test.platform.display.terminated, "display should be terminated after a failed init")
			}
		})
	}
}

func TestTemplates(t *testing.T) {
	configs := []Config{rgbConfig, rgbaConfig}

	cfg, ok := MinTemplate.Choose(configs)
	require.True(t, ok)
	assert.Equal(t, 1, cfg.ID, "first matching config wins")

	cfg, ok = LayeredTemplate.Choose(configs)
	require.True(t, ok)
	assert.Equal(t, 2, cfg.ID)

	assert.False(t, MinTemplate.Matches(Config{RedSize: 8, GreenSize: 8, BlueSize: 8, SurfaceType: SurfacePbuffer}))
	assert.Equal(t, LayeredTemplate, TemplateFor(true))
	assert.Equal(t, MinTemplate, TemplateFor(false))
}

func TestWindowSurfaces(t *testing.T) {
	display := &fakeDisplay{configs: []Config{rgbaConfig}}
	m := NewManager(&fakePlatform{display: display}, nil)

	assert.ErrorIs(t, m.CreateWindow(0, "main", 10, 10), ErrNotInitialized)

	require.NoError(t, m.Init("d", APISoftware, true))
	assert.Equal(t, rgbaConfig, m.Config())

	require.NoError(t, m.CreateWindow(0, "main", 800, 600))
	require.NoError(t, m.CreateWindow(1, "second", 320, 240))

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, 1, cur, "the most recently created window is current")
	assert.Equal(t, "second", display.current.name)

	require.NoError(t, m.SwapBuffers())
	assert.Equal(t, 1, m.Surface(1).(*fakeSurface).swaps)
	assert.Equal(t, 0, m.Surface(0).(*fakeSurface).swaps)

	require.NoError(t, m.MakeCurrent(0))
	require.NoError(t, m.SwapBuffers())
	assert.Equal(t, 1, m.Surface(0).(*fakeSurface).swaps)

	require.NoError(t, m.ResizeWindow(0, 640, 480))
	assert.Equal(t, 640, m.Surface(0).(*fakeSurface).width)
	assert.ErrorIs(t, m.ResizeWindow(5, 1, 1), ErrNoSurface)

	main := m.Surface(0).(*fakeSurface)
	main.destroyErr = errors.New("busy")
	m.DestroyWindow(0)
	assert.True(t, main.destroyed)
	assert.Nil(t, m.Surface(0))
	_, ok = m.Current()
	assert.False(t, ok, "destroying the current window clears it")
	assert.NoError(t, m.SwapBuffers())

	m.DestroyWindow(0)

	require.NoError(t, m.Close())
	assert.True(t, display.terminated)
	assert.Nil(t, m.Surface(1))
}
