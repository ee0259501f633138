package wl

import (
	"os"

	"golang.org/x/exp/slices"

	"deedles.dev/wlds/wire"
)

const (
	ShmInterface = "wl_shm"
	ShmVersion   = 1
)

var shmEvents = []string{"format"}

// ShmFormat is a pixel format. Except for the first two, the values
// match the DRM fourcc codes.
type ShmFormat uint32

const (
	ShmFormatArgb8888 ShmFormat = 0
	ShmFormatXrgb8888 ShmFormat = 1
	ShmFormatRgb565   ShmFormat = 0x36314752
	ShmFormatAbgr8888 ShmFormat = 0x34324241
	ShmFormatXbgr8888 ShmFormat = 0x34324258
)

type Shm struct {
	wire.Base

	Format func(ShmFormat)

	display *Display
	formats []ShmFormat
}

func IsShm(i Interface) bool {
	return i.Is(ShmInterface)
}

func BindShm(display *Display, name, version uint32) *Shm {
	shm := Shm{display: display}
	display.GetRegistry().Bind(name, &shm, BindVersion(version, ShmVersion))
	return &shm
}

// Formats returns the formats that the compositor has advertised so
// far.
func (shm *Shm) Formats() []ShmFormat {
	return slices.Clone(shm.formats)
}

// CreatePool creates a pool backed by file. The file may be closed as
// soon as this returns.
func (shm *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	pool := ShmPool{display: shm.display}
	shm.display.AddObject(&pool)

	msg := newRequest(shm, 0, "create_pool")
	msg.WriteObject(&pool)
	msg.WriteFile(file)
	msg.WriteInt(size)
	shm.display.Enqueue(msg)

	return &pool
}

func (shm *Shm) Interface() string {
	return ShmInterface
}

func (shm *Shm) MethodName(op uint16) string {
	return wire.EventName(shmEvents, op)
}

func (shm *Shm) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		format := ShmFormat(msg.ReadUint())
		if err := msg.Err(); err != nil {
			return err
		}

		if !slices.Contains(shm.formats, format) {
			shm.formats = append(shm.formats, format)
		}
		if shm.Format != nil {
			shm.Format(format)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: ShmInterface, Type: "event", Op: msg.Op()}
	}
}
