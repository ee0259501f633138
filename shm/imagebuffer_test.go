package shm_test

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/internal/wltest"
	"deedles.dev/wlds/shm"
)

func bindShm(t *testing.T) (*wltest.Compositor, *wl.Display, *wl.Shm) {
	t.Helper()

	c, conn, err := wltest.New(wltest.Options{})
	require.NoError(t, err)
	display := wl.Connect(conn)
	t.Cleanup(func() {
		display.Close()
		c.Close()
		assert.NoError(t, c.Err())
	})

	var s *wl.Shm
	display.GetRegistry().Global = func(name uint32, inter string, version uint32) {
		if inter == wl.ShmInterface {
			s = wl.BindShm(display, name, version)
		}
	}
	roundTrip(t, display)
	require.NotNil(t, s)

	return c, display, s
}

func roundTrip(t *testing.T, display *wl.Display) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, display.RoundTrip(ctx))
}

func TestImageBuffer(t *testing.T) {
	c, display, s := bindShm(t)

	buf, err := shm.NewImageBuffer(s, wl.ShmFormatArgb8888, 4, 2)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, int32(16), buf.Stride())
	assert.Equal(t, int32(32), buf.Len())
	assert.Equal(t, image.Rect(0, 0, 4, 2), buf.Bounds())
	assert.Equal(t, wl.ShmFormatArgb8888, buf.Format())
	assert.Same(t, s, buf.Shm())

	img := buf.Image()
	img.Set(3, 1, color.NRGBA{R: 0xFF, A: 0xFF})
	r, g, b, a := img.At(3, 1).RGBA()
	assert.Equal(t, [4]uint32{0xFFFF, 0, 0, 0xFFFF}, [4]uint32{r, g, b, a})

	roundTrip(t, display)
	pools := c.Find("create_pool")
	require.Len(t, pools, 1)
	assert.Equal(t, int32(32), pools[0].Args[len(pools[0].Args)-1])

	buffers := c.Find("create_buffer")
	require.Len(t, buffers, 1)
	assert.Equal(t, []any{int32(0), int32(4), int32(2), int32(16), uint32(wl.ShmFormatArgb8888)}, buffers[0].Args[1:])
}

func TestImageBufferResize(t *testing.T) {
	c, display, s := bindShm(t)

	buf, err := shm.NewImageBuffer(s, wl.ShmFormatXrgb8888, 8, 8)
	require.NoError(t, err)
	defer buf.Destroy()

	require.NoError(t, buf.Resize(8, 8))
	require.NoError(t, buf.Resize(4, 4))
	assert.Equal(t, int32(64), buf.Len())
	assert.Equal(t, int32(256), buf.Cap())
	roundTrip(t, display)
	assert.Empty(t, c.Find("resize"), "shrinking reuses the pool")
	assert.Len(t, c.Find("create_buffer"), 2)

	require.NoError(t, buf.Resize(16, 16))
	assert.Equal(t, int32(1024), buf.Len())
	assert.Equal(t, image.Rect(0, 0, 16, 16), buf.Image().Bounds())
	buf.Image().Set(15, 15, color.White)

	roundTrip(t, display)
	resizes := c.Find("resize")
	require.Len(t, resizes, 1)
	assert.Equal(t, []any{int32(1024)}, resizes[0].Args)

	assert.Error(t, buf.Resize(0, 3))
}

func TestNewImageBufferInvalidSize(t *testing.T) {
	_, _, s := bindShm(t)

	_, err := shm.NewImageBuffer(s, wl.ShmFormatArgb8888, 0, 10)
	assert.Error(t, err)
}
