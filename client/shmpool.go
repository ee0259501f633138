package wl

import "deedles.dev/wlds/wire"

const (
	shmPoolInterface = "wl_shm_pool"
)

type ShmPool struct {
	wire.Base

	display *Display
}

func (pool *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) *Buffer {
	buf := Buffer{display: pool.display}
	pool.display.AddObject(&buf)

	msg := newRequest(pool, 0, "create_buffer")
	msg.WriteObject(&buf)
	msg.WriteInt(offset)
	msg.WriteInt(width)
	msg.WriteInt(height)
	msg.WriteInt(stride)
	msg.WriteUint(uint32(format))
	pool.display.Enqueue(msg)

	return &buf
}

// Resize grows the pool. Pools can not shrink.
func (pool *ShmPool) Resize(size int32) {
	msg := newRequest(pool, 2, "resize")
	msg.WriteInt(size)
	pool.display.Enqueue(msg)
}

func (pool *ShmPool) Destroy() {
	pool.display.Enqueue(newRequest(pool, 1, "destroy"))
}

func (pool *ShmPool) Interface() string {
	return shmPoolInterface
}

func (pool *ShmPool) MethodName(op uint16) string {
	return wire.EventName(nil, op)
}

func (pool *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: shmPoolInterface, Type: "event", Op: msg.Op()}
}
