package wlds

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deedles.dev/wlds/internal/wltest"
)

func TestUpdateDPI(t *testing.T) {
	out := output{
		physicalSize: image.Pt(300, 200),
		logicalSize:  image.Pt(1920, 1280),
	}
	require.NoError(t, out.updateDPI())
	assert.InDelta(t, 162.56, out.dpi, 0.001)

	out = output{
		physicalSize: image.Pt(300, 0),
		logicalSize:  image.Pt(1920, 1280),
		dpi:          InvalidDPI,
	}
	assert.ErrorIs(t, out.updateDPI(), ErrZeroPhysicalSize)
	assert.Equal(t, float64(InvalidDPI), out.dpi)
}

func TestScreens(t *testing.T) {
	_, b := newBackend(t, wltest.Options{Outputs: testOutputs}, Options{})

	assert.Equal(t, 2, b.ScreenCount())
	assert.Equal(t, 0, b.PrimaryScreen())

	assert.Equal(t, image.Pt(2560, 1440), b.ScreenSize(0))
	assert.Equal(t, image.Pt(3840, 2560), b.ScreenSize(1))
	assert.Equal(t, image.Pt(2560, 0), b.ScreenPosition(1))
	assert.Equal(t, image.Rect(2560, 0, 4480, 1280), b.ScreenUsableRect(1))
	assert.InDelta(t, 59.951, b.ScreenRefreshRate(0), 0.0001)
	assert.InDelta(t, 120, b.ScreenRefreshRate(1), 0.0001)
	assert.Equal(t, 1.0, b.ScreenScale(0))
	assert.Equal(t, 2.0, b.ScreenScale(1))
	assert.Equal(t, 108, b.ScreenDPI(0))
	assert.Equal(t, 163, b.ScreenDPI(1))

	for _, screen := range []int{InvalidScreen, 2, ScreenOfMainWindow} {
		assert.Equal(t, image.Point{}, b.ScreenSize(screen), "screen %v", screen)
		assert.Equal(t, image.Point{}, b.ScreenPosition(screen), "screen %v", screen)
		assert.Equal(t, image.Rectangle{}, b.ScreenUsableRect(screen), "screen %v", screen)
		assert.Equal(t, -1.0, b.ScreenRefreshRate(screen), "screen %v", screen)
		assert.Equal(t, InvalidDPI, b.ScreenDPI(screen), "screen %v", screen)
		assert.Equal(t, 1.0, b.ScreenScale(screen), "screen %v", screen)
	}
}

func TestNoScreens(t *testing.T) {
	_, b := newBackend(t, wltest.Options{}, Options{})

	assert.Equal(t, 0, b.ScreenCount())
	assert.Equal(t, InvalidScreen, b.PrimaryScreen())
	assert.Equal(t, InvalidScreen, b.WindowGetCurrentScreen(MainWindowID))
}

func TestZeroPhysicalSize(t *testing.T) {
	outputs := []wltest.Output{{Width: 1920, Height: 1080, LogicalWidth: 1920, LogicalHeight: 1080}}
	_, b := newBackend(t, wltest.Options{Outputs: outputs}, Options{})

	err := b.ProcessEvents()
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, ErrZeroPhysicalSize)
	assert.Equal(t, InvalidDPI, b.ScreenDPI(0))

	assert.NoError(t, b.ProcessEvents(), "errors are only reported once")
}

func TestCurrentScreen(t *testing.T) {
	c, b := newBackend(t, wltest.Options{Outputs: testOutputs}, Options{})

	require.NoError(t, c.Enter(0, 1))
	require.NoError(t, c.Enter(0, 0))
	pump(t, b, func() bool { return b.WindowGetCurrentScreen(MainWindowID) == 1 })
	roundTrip(t, b)
	assert.Equal(t, 1, b.WindowGetCurrentScreen(MainWindowID), "the first screen entered wins")
	assert.Equal(t, image.Pt(3840, 2560), b.ScreenSize(ScreenOfMainWindow))

	require.NoError(t, c.Leave(0, 1))
	pump(t, b, func() bool { return b.WindowGetCurrentScreen(MainWindowID) == 0 })

	require.NoError(t, c.Enter(0, 1))
	roundTrip(t, b)
	assert.Equal(t, 0, b.WindowGetCurrentScreen(MainWindowID))

	c.RemoveOutput(0)
	pump(t, b, func() bool { return b.ScreenCount() == 1 })
	assert.Equal(t, 0, b.WindowGetCurrentScreen(MainWindowID), "the remaining screen moves to index 0")
	assert.Equal(t, image.Pt(3840, 2560), b.ScreenSize(0))

	c.RemoveOutput(1)
	pump(t, b, func() bool { return b.ScreenCount() == 0 })
	assert.Equal(t, InvalidScreen, b.WindowGetCurrentScreen(MainWindowID))
	assert.Equal(t, InvalidScreen, b.PrimaryScreen())

	roundTrip(t, b)
	assert.Len(t, c.Find("release"), 2)
}

func TestOutputHotplug(t *testing.T) {
	c, b := newBackend(t, wltest.Options{Outputs: testOutputs[:1]}, Options{})

	i := c.AddOutput(testOutputs[1])
	assert.Equal(t, 1, i)
	pump(t, b, func() bool { return b.ScreenDPI(1) != InvalidDPI })
	assert.Equal(t, 2, b.ScreenCount())
	assert.Equal(t, 163, b.ScreenDPI(1))

	c.RemoveGlobal(wltest.ShmName)
	roundTrip(t, b)
	assert.Equal(t, 2, b.ScreenCount(), "removing other globals doesn't affect screens")
}

func TestLateOutputManager(t *testing.T) {
	c, b := newBackend(t, wltest.Options{Outputs: testOutputs[1:], NoOutputManager: true}, Options{})

	assert.Equal(t, 1, b.ScreenCount())
	assert.Equal(t, InvalidDPI, b.ScreenDPI(0))
	assert.Equal(t, image.Rectangle{}, b.ScreenUsableRect(0))
	assert.Empty(t, c.Find("get_xdg_output"))

	c.AddOutputManager()
	pump(t, b, func() bool { return b.ScreenDPI(0) != InvalidDPI })
	assert.Equal(t, 163, b.ScreenDPI(0))
	assert.Equal(t, image.Rect(2560, 0, 4480, 1280), b.ScreenUsableRect(0))
	assert.Len(t, c.Find("get_xdg_output"), 1)
}
