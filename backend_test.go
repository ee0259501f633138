package wlds

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedles.dev/wlds/gfx"
	"deedles.dev/wlds/internal/wltest"
)

var testOutputs = []wltest.Output{
	{
		PhysicalWidth:  600,
		PhysicalHeight: 340,
		Width:          2560,
		Height:         1440,
		Refresh:        59951,
		Scale:          1,
		Name:           "DP-1",
		Make:           "ACME",
		Model:          "Wide",
		LogicalWidth:   2560,
		LogicalHeight:  1440,
	},
	{
		X:              2560,
		PhysicalWidth:  300,
		PhysicalHeight: 200,
		Width:          3840,
		Height:         2560,
		Refresh:        120000,
		Scale:          2,
		Name:           "eDP-1",
		LogicalX:       2560,
		LogicalWidth:   1920,
		LogicalHeight:  1280,
	},
}

func newBackend(t *testing.T, copts wltest.Options, opts Options) (*wltest.Compositor, *Backend) {
	t.Helper()

	c, conn, err := wltest.New(copts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	if opts.Resolution == (image.Point{}) {
		opts.Resolution = image.Pt(800, 600)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := Connect(ctx, conn, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, b.Close())
		assert.NoError(t, c.Err())
	})

	return c, b
}

// roundTrip waits until the compositor has handled everything that the
// backend has sent. Requests queued in response to events dispatched
// by the first round trip are sent by the second.
func roundTrip(t *testing.T, b *Backend) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b.lock()
	defer b.unlock()
	for range 2 {
		require.NoError(t, b.display.RoundTrip(ctx))
	}
}

// pump processes events until cond is true.
func pump(t *testing.T, b *Backend, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		require.NoError(t, b.ProcessEvents())
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartup(t *testing.T) {
	c, b := newBackend(t, wltest.Options{Outputs: testOutputs}, Options{Title: "Test"})
	roundTrip(t, b)

	assert.Equal(t, []WindowID{MainWindowID}, b.WindowList())
	assert.Equal(t, image.Pt(800, 600), b.WindowGetSize(MainWindowID))
	assert.Equal(t, image.Pt(800, 600), b.WindowGetSizeWithDecorations(MainWindowID))
	assert.Equal(t, WindowModeWindowed, b.WindowGetMode(MainWindowID))
	assert.True(t, b.WindowCanDraw(MainWindowID))
	assert.True(t, b.CanAnyWindowDraw())
	assert.Equal(t, 2, b.ScreenCount())

	titles := c.Find("set_title")
	require.Len(t, titles, 1)
	assert.Equal(t, []any{"Test"}, titles[0].Args)

	acks := c.Find("ack_configure")
	require.Len(t, acks, 1)
	assert.Len(t, c.Find("create_pool"), 1, "the main window should get a software surface")
}

func TestStartupMissingGlobals(t *testing.T) {
	tests := []struct {
		name string
		opts wltest.Options
	}{
		{name: "Compositor", opts: wltest.Options{NoCompositor: true}},
		{name: "WmBase", opts: wltest.Options{NoWmBase: true}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, conn, err := wltest.New(test.opts)
			require.NoError(t, err)
			defer c.Close()

			_, err = Connect(context.Background(), conn, Options{})
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestStartupConfigureTimeout(t *testing.T) {
	c, conn, err := wltest.New(wltest.Options{Silent: true})
	require.NoError(t, err)
	defer c.Close()

	_, err = Connect(context.Background(), conn, Options{
		RenderingDriver:  DriverNone,
		ConfigureTimeout: 50 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingPlatform struct {
	err error
}

func (p failingPlatform) Name() string { return "failing" }

func (p failingPlatform) Open(native gfx.NativeDisplay) (gfx.Display, error) {
	return nil, p.err
}

func TestStartupGraphicsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code error
	}{
		{name: "BadDisplay", err: gfx.ErrBadDisplay, code: ErrInvalidParameter},
		{name: "NoDevice", err: errors.New("no device"), code: ErrUnavailable},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, conn, err := wltest.New(wltest.Options{})
			require.NoError(t, err)
			defer c.Close()

			_, err = Connect(context.Background(), conn, Options{Platform: failingPlatform{err: test.err}})
			assert.ErrorIs(t, err, test.code)
			assert.ErrorIs(t, err, test.err)
		})
	}
}

func TestStartupBadDriver(t *testing.T) {
	c, conn, err := wltest.New(wltest.Options{})
	require.NoError(t, err)
	defer c.Close()

	_, err = Connect(context.Background(), conn, Options{RenderingDriver: "vulkan"})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestEndToEndMaxSize(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{Resolution: image.Pt(800, 600)})

	assert.Equal(t, image.Pt(1, 1), b.WindowGetMinSize(MainWindowID))
	assert.Equal(t, unbounded, b.WindowGetMaxSize(MainWindowID))
	assert.Equal(t, image.Pt(800, 600), b.WindowGetSize(MainWindowID))

	b.WindowSetMaxSize(MainWindowID, image.Pt(640, 480))
	b.WindowSetSize(MainWindowID, image.Pt(800, 600))
	assert.Equal(t, image.Pt(640, 480), b.WindowGetSize(MainWindowID))

	roundTrip(t, b)
	max := c.Find("set_max_size")
	require.Len(t, max, 1)
	assert.Equal(t, []any{int32(640), int32(480)}, max[0].Args)

	geom := c.Find("set_window_geometry")
	require.NotEmpty(t, geom)
	assert.Equal(t, []any{int32(0), int32(0), int32(640), int32(480)}, geom[len(geom)-1].Args)
}

func TestResizeClampAndCallback(t *testing.T) {
	_, b := newBackend(t, wltest.Options{}, Options{})

	var rects []image.Rectangle
	b.WindowSetRectChangedCallback(MainWindowID, func(r image.Rectangle) { rects = append(rects, r) })

	b.WindowSetSize(MainWindowID, image.Pt(800, 600))
	assert.Empty(t, rects, "resizing to the current size is a no-op")

	b.WindowSetMinSize(MainWindowID, image.Pt(200, 100))
	b.WindowSetMaxSize(MainWindowID, image.Pt(1000, 700))

	b.WindowSetSize(MainWindowID, image.Pt(50, 5000))
	assert.Equal(t, image.Pt(200, 700), b.WindowGetSize(MainWindowID))
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 200, 700)}, rects)

	b.WindowSetSize(MainWindowID, image.Pt(10, 10000))
	assert.Len(t, rects, 1, "clamping to the current size fires no callback")
}

func TestMinMaxRejection(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	b.WindowSetMaxSize(MainWindowID, image.Pt(1000, 700))
	b.WindowSetMinSize(MainWindowID, image.Pt(1001, 10))
	assert.Equal(t, image.Pt(1, 1), b.WindowGetMinSize(MainWindowID))

	b.WindowSetMinSize(MainWindowID, image.Pt(100, 100))
	b.WindowSetMaxSize(MainWindowID, image.Pt(2000, 99))
	assert.Equal(t, image.Pt(1000, 700), b.WindowGetMaxSize(MainWindowID))
	assert.Equal(t, image.Pt(100, 100), b.WindowGetMinSize(MainWindowID))

	roundTrip(t, b)
	assert.Len(t, c.Find("set_min_size"), 1)
	assert.Len(t, c.Find("set_max_size"), 1)

	b.WindowSetMaxSize(MainWindowID, unbounded)
	roundTrip(t, b)
	max := c.Find("set_max_size")
	require.Len(t, max, 2)
	assert.Equal(t, []any{int32(0), int32(0)}, max[1].Args, "an unbounded maximum is sent as zero")
}

func TestNonPositiveLimits(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	b.WindowSetMinSize(MainWindowID, image.Pt(-5, -5))
	b.WindowSetMinSize(MainWindowID, image.Pt(0, 10))
	b.WindowSetMaxSize(MainWindowID, image.Pt(0, 0))
	b.WindowSetMaxSize(MainWindowID, image.Pt(10, -1))
	assert.Equal(t, image.Pt(1, 1), b.WindowGetMinSize(MainWindowID))
	assert.Equal(t, unbounded, b.WindowGetMaxSize(MainWindowID))

	b.WindowSetSize(MainWindowID, image.Pt(-3, -3))
	assert.Equal(t, image.Pt(1, 1), b.WindowGetSize(MainWindowID))

	roundTrip(t, b)
	assert.Empty(t, c.Find("set_min_size"))
	assert.Empty(t, c.Find("set_max_size"))
	geom := c.Find("set_window_geometry")
	require.NotEmpty(t, geom)
	for _, g := range geom {
		require.Len(t, g.Args, 4)
		assert.Positive(t, g.Args[2])
		assert.Positive(t, g.Args[3])
	}
	assert.Equal(t, []any{int32(0), int32(0), int32(1), int32(1)}, geom[len(geom)-1].Args)
}

func TestWindowIDReuse(t *testing.T) {
	_, b := newBackend(t, wltest.Options{}, Options{})
	ctx := context.Background()

	for _, want := range []WindowID{1, 2} {
		id, err := b.CreateWindow(ctx, WindowOptions{Size: image.Pt(100, 100)})
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
	assert.Equal(t, []WindowID{0, 1, 2}, b.WindowList())

	b.DestroyWindow(1)
	assert.Equal(t, []WindowID{0, 2}, b.WindowList())
	assert.Equal(t, image.Point{}, b.WindowGetSize(1))

	id, err := b.CreateWindow(ctx, WindowOptions{Size: image.Pt(100, 100)})
	require.NoError(t, err)
	assert.Equal(t, WindowID(1), id)

	_, err = b.CreateWindow(ctx, WindowOptions{})
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, []WindowID{0, 1, 2}, b.WindowList())
}

func TestModeTransitions(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	count := func() int {
		roundTrip(t, b)
		var n int
		for _, req := range c.Requests() {
			if req.Interface == "xdg_toplevel" {
				n++
			}
		}
		return n
	}
	base := count()

	require.NoError(t, b.WindowSetMode(MainWindowID, WindowModeMaximized))
	assert.Equal(t, base+1, count())
	assert.Len(t, c.Find("set_maximized"), 1)

	require.NoError(t, b.WindowSetMode(MainWindowID, WindowModeMaximized))
	assert.Equal(t, base+1, count(), "setting the current mode sends nothing")

	require.NoError(t, b.WindowSetMode(MainWindowID, WindowModeFullscreen))
	assert.Equal(t, base+3, count())
	assert.Len(t, c.Find("unset_maximized"), 1)
	assert.Len(t, c.Find("set_fullscreen"), 1)

	require.NoError(t, b.WindowSetMode(MainWindowID, WindowModeExclusiveFullscreen))
	assert.Equal(t, base+3, count(), "exclusive fullscreen is the same as fullscreen")
	assert.Equal(t, WindowModeFullscreen, b.WindowGetMode(MainWindowID))

	require.NoError(t, b.WindowSetMode(MainWindowID, WindowModeWindowed))
	assert.Equal(t, base+4, count())
	assert.Len(t, c.Find("unset_fullscreen"), 1)

	require.NoError(t, b.WindowSetMode(MainWindowID, WindowModeMinimized))
	assert.Equal(t, base+5, count())
	assert.Len(t, c.Find("set_minimized"), 1)
	assert.False(t, b.WindowCanDraw(MainWindowID))
	assert.False(t, b.CanAnyWindowDraw())

	assert.ErrorIs(t, b.WindowSetMode(MainWindowID, WindowMode(42)), ErrUnsupported)
	assert.ErrorIs(t, b.WindowSetMode(7, WindowModeWindowed), ErrInvalidParameter)
}

func TestInitialMode(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{Mode: WindowModeMaximized})
	roundTrip(t, b)

	assert.Equal(t, WindowModeMaximized, b.WindowGetMode(MainWindowID))
	assert.Len(t, c.Find("set_maximized"), 1)
}

func TestToplevelConfigure(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	var rects []image.Rectangle
	b.WindowSetRectChangedCallback(MainWindowID, func(r image.Rectangle) { rects = append(rects, r) })

	require.NoError(t, c.Configure(0, 1024, 768, uint32(1)))
	pump(t, b, func() bool { return b.WindowGetMode(MainWindowID) == WindowModeMaximized })
	assert.Equal(t, image.Pt(1024, 768), b.WindowGetSize(MainWindowID))
	assert.Equal(t, []image.Rectangle{image.Rect(0, 0, 1024, 768)}, rects)

	require.NoError(t, c.Configure(0, 0, 0, uint32(1), uint32(2)))
	pump(t, b, func() bool { return b.WindowGetMode(MainWindowID) == WindowModeFullscreen })
	assert.Equal(t, image.Pt(1024, 768), b.WindowGetSize(MainWindowID), "a zero size leaves the size alone")

	require.NoError(t, c.Configure(0, 640, -1, uint32(4)))
	pump(t, b, func() bool { return b.WindowGetMode(MainWindowID) == WindowModeWindowed })
	assert.Equal(t, image.Pt(1024, 768), b.WindowGetSize(MainWindowID))

	roundTrip(t, b)
	assert.Len(t, c.Find("ack_configure"), 4, "every configure is acknowledged")
	assert.Len(t, rects, 1)
}

func TestConfigureBoundsAndClose(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	require.NoError(t, c.ConfigureBounds(0, 1920, 1080))
	pump(t, b, func() bool { return b.WindowGetBounds(MainWindowID) != image.Point{} })
	assert.Equal(t, image.Pt(1920, 1080), b.WindowGetBounds(MainWindowID))

	var events []WindowEvent
	b.WindowSetWindowEventCallback(MainWindowID, func(ev WindowEvent) {
		events = append(events, ev)
		assert.True(t, b.WindowCloseRequested(MainWindowID))
	})

	require.NoError(t, c.CloseWindow(0))
	pump(t, b, func() bool { return len(events) > 0 })
	assert.Equal(t, []WindowEvent{WindowEventCloseRequest}, events)
}

func TestCallbacksCanReenter(t *testing.T) {
	_, b := newBackend(t, wltest.Options{}, Options{})

	var got image.Point
	b.WindowSetRectChangedCallback(MainWindowID, func(r image.Rectangle) {
		got = b.WindowGetSize(MainWindowID)
	})
	b.WindowSetSize(MainWindowID, image.Pt(300, 200))
	assert.Equal(t, image.Pt(300, 200), got)
}

func TestPingPong(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	serial, err := c.Ping()
	require.NoError(t, err)
	pump(t, b, func() bool { return len(c.Find("pong")) > 0 })
	assert.Equal(t, []any{serial}, c.Find("pong")[0].Args)
}

func TestDisplayError(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	c.Error(1, "invalid method")

	var err error
	require.Eventually(t, func() bool {
		err = b.ProcessEvents()
		return err != nil
	}, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, err, ErrFailed)
	assert.Contains(t, err.Error(), "invalid method")
}

func TestSwapBuffers(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{})

	require.NoError(t, b.SwapBuffers())
	roundTrip(t, b)
	assert.Len(t, c.Find("attach"), 1)
	assert.Len(t, c.Find("damage_buffer"), 1)

	id, err := b.CreateWindow(context.Background(), WindowOptions{Size: image.Pt(64, 64)})
	require.NoError(t, err)
	assert.NotNil(t, b.WindowSurface(id))

	require.NoError(t, b.WindowMakeCurrent(MainWindowID))
	require.NoError(t, b.SwapBuffers())
	roundTrip(t, b)
	attaches := c.Find("attach")
	require.Len(t, attaches, 2)
	assert.Equal(t, attaches[0].Object, attaches[1].Object, "the main window should be presented again")

	b.DestroyWindow(MainWindowID)
	require.NoError(t, b.SwapBuffers(), "swapping without a current window does nothing")
	assert.ErrorIs(t, b.WindowMakeCurrent(MainWindowID), ErrInvalidParameter)
}

func TestNoGraphics(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{RenderingDriver: DriverNone})

	assert.Nil(t, b.WindowSurface(MainWindowID))
	assert.NoError(t, b.SwapBuffers())
	assert.ErrorIs(t, b.WindowMakeCurrent(MainWindowID), ErrUnavailable)

	roundTrip(t, b)
	assert.Empty(t, c.Find("create_pool"))
}

func TestUnsupported(t *testing.T) {
	_, b := newBackend(t, wltest.Options{}, Options{})

	assert.Equal(t, image.Point{}, b.WindowGetPosition(MainWindowID))
	assert.Equal(t, image.Point{}, b.WindowGetPosition(MainWindowID))
	assert.Equal(t, InvalidWindowID, b.WindowAtScreenPosition(image.Pt(1, 1)))
	assert.False(t, b.WindowCanMaximize(MainWindowID))
	b.WindowSetPosition(MainWindowID, image.Pt(1, 1))

	assert.Len(t, b.warned, 4, "each method is warned about once")

	assert.True(t, b.HasFeature(FeatureSwapBuffers))
	assert.False(t, b.HasFeature(FeatureClipboard))
	assert.False(t, b.HasFeature(FeatureNativeDialog))
}

func TestWindowAccessors(t *testing.T) {
	c, b := newBackend(t, wltest.Options{}, Options{VSync: VSyncAdaptive, Flags: WindowFlagBorderless})

	assert.Equal(t, VSyncAdaptive, b.WindowGetVSyncMode(MainWindowID))
	assert.Equal(t, WindowFlagBorderless, b.WindowGetFlags(MainWindowID))

	b.WindowAttachInstanceID(MainWindowID, 42)
	assert.Equal(t, uint64(42), b.WindowGetAttachedInstanceID(MainWindowID))
	assert.Equal(t, uint64(0), b.WindowGetAttachedInstanceID(5))

	b.WindowSetTitle(MainWindowID, "Renamed")
	roundTrip(t, b)
	titles := c.Find("set_title")
	require.Len(t, titles, 2)
	assert.Equal(t, []any{"Renamed"}, titles[1].Args)

	assert.False(t, b.WindowCloseRequested(MainWindowID))
	assert.Equal(t, VSyncEnabled, b.WindowGetVSyncMode(InvalidWindowID))
}

func TestClose(t *testing.T) {
	c, conn, err := wltest.New(wltest.Options{})
	require.NoError(t, err)
	defer c.Close()

	b, err := Connect(context.Background(), conn, Options{Resolution: image.Pt(100, 100)})
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	assert.True(t, errors.Is(b.ProcessEvents(), ErrClosed))
	assert.Empty(t, b.WindowList())
	assert.Equal(t, image.Point{}, b.WindowGetSize(MainWindowID))
}
