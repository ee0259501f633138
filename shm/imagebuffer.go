package shm

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	ximage "deedles.dev/ximage/format"
	"golang.org/x/sys/unix"

	wl "deedles.dev/wlds/client"
)

// ImageBuffer is a wl_buffer whose pixels live in shared memory and
// can be drawn into as an image.
type ImageBuffer struct {
	w, h   int32
	format wl.ShmFormat
	shm    *wl.Shm
	pool   *wl.ShmPool
	buf    *wl.Buffer
	file   *os.File
	mmap   Mmap
}

// NewImageBuffer allocates a w by h buffer. format must be one of the
// 32 bit ARGB or XRGB formats.
func NewImageBuffer(s *wl.Shm, format wl.ShmFormat, w, h int32) (buf *ImageBuffer, err error) {
	if (w <= 0) || (h <= 0) {
		return nil, fmt.Errorf("invalid buffer size %vx%v", w, h)
	}

	buf = &ImageBuffer{
		w:      w,
		h:      h,
		format: format,
		shm:    s,
	}
	defer func() {
		if err != nil {
			buf.Destroy()
		}
	}()

	file, err := Create()
	if err != nil {
		return buf, err
	}
	buf.file = file

	err = buf.file.Truncate(int64(buf.Len()))
	if err != nil {
		return buf, fmt.Errorf("truncate SHM file: %w", err)
	}

	mmap, err := MapShared(file, int(buf.Len()), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return buf, fmt.Errorf("mmap SHM file: %w", err)
	}
	buf.mmap = mmap

	buf.pool = buf.shm.CreatePool(file, buf.Len())
	buf.buf = buf.pool.CreateBuffer(0, w, h, buf.Stride(), format)

	return buf, nil
}

func (s *ImageBuffer) Destroy() {
	if s.mmap != nil {
		s.mmap.Unmap()
		s.mmap = nil
	}
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	if s.pool != nil {
		s.pool.Destroy()
		s.pool = nil
	}
}

func (s *ImageBuffer) Shm() *wl.Shm {
	return s.shm
}

func (s *ImageBuffer) ShmPool() *wl.ShmPool {
	return s.pool
}

func (s *ImageBuffer) Buffer() *wl.Buffer {
	return s.buf
}

func (s *ImageBuffer) Format() wl.ShmFormat {
	return s.format
}

func (s *ImageBuffer) Stride() int32 {
	return s.w * 4
}

func (s *ImageBuffer) Len() int32 {
	return s.Stride() * s.h
}

func (s *ImageBuffer) Cap() int32 {
	return int32(cap(s.mmap))
}

func (s *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(
		0,
		0,
		int(s.w),
		int(s.h),
	)
}

// Resize changes the dimensions of the buffer. The underlying
// wl_buffer is replaced, but the pool is reused and only ever grows.
func (s *ImageBuffer) Resize(w, h int32) error {
	if (w == s.w) && (h == s.h) {
		return nil
	}
	if (w <= 0) || (h <= 0) {
		return fmt.Errorf("invalid buffer size %vx%v", w, h)
	}

	s.w = w
	s.h = h
	if s.Len() <= s.Cap() {
		s.mmap = s.mmap[:s.Len()]
		s.buf.Destroy()
		s.buf = s.pool.CreateBuffer(0, s.w, s.h, s.Stride(), s.format)
		return nil
	}

	err := s.file.Truncate(int64(s.Len()))
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	err = s.mmap.Unmap()
	if err != nil {
		return fmt.Errorf("unmap: %w", err)
	}
	mmap, err := MapShared(s.file, int(s.Len()), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		s.mmap = nil
		return fmt.Errorf("mmap: %w", err)
	}
	s.mmap = mmap

	s.buf.Destroy()
	s.pool.Resize(s.Len())
	s.buf = s.pool.CreateBuffer(0, s.w, s.h, s.Stride(), s.format)

	return nil
}

// Image returns a view of the buffer's pixels. The view is invalidated
// by Resize.
func (s *ImageBuffer) Image() draw.Image {
	return &ximage.Image{
		Format: ximage.ARGB8888,
		Rect:   s.Bounds(),
		Pix:    s.mmap,
	}
}
