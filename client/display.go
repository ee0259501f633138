package wl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"deedles.dev/wlds/internal/debug"
	"deedles.dev/wlds/internal/evq"
	"deedles.dev/wlds/internal/objstore"
	"deedles.dev/wlds/wire"
)

const (
	displayInterface = "wl_display"
)

var displayEvents = []string{"error", "delete_id"}

// ErrDisconnected is returned when the connection to the compositor
// has been lost and no more events will arrive.
var ErrDisconnected = errors.New("disconnected from compositor")

// Display is the client's connection to a compositor. It is always
// object 1.
type Display struct {
	wire.Base

	// Error is called when the compositor sends a fatal protocol error.
	Error func(objectID, code uint32, message string)

	done     chan struct{}
	lost     chan struct{}
	close    sync.Once
	conn     *wire.Conn
	objects  *objstore.Store
	registry *Registry
	queue    *evq.Queue
}

// Dial connects to the compositor named by the environment.
func Dial() (*Display, error) {
	conn, err := wire.Dial()
	if err != nil {
		return nil, err
	}
	return Connect(conn), nil
}

// Connect returns a Display that communicates over conn. The Display
// takes ownership of conn.
func Connect(conn *wire.Conn) *Display {
	display := Display{
		done:    make(chan struct{}),
		lost:    make(chan struct{}),
		conn:    conn,
		objects: objstore.New(1),
		queue:   evq.New(),
	}
	display.AddObject(&display)

	go display.listen()

	return &display
}

func (display *Display) listen() {
	defer close(display.lost)

	for {
		msg, err := wire.ReadMessage(display.conn)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			display.queue.Add(func() error { return fmt.Errorf("%w: %w", ErrDisconnected, err) })
			return
		}

		if !display.queue.Add(func() error { return display.dispatch(msg) }) {
			return
		}
	}
}

func (display *Display) dispatch(msg *wire.MessageBuffer) error {
	obj, err := display.objects.Dispatch(msg)
	if obj != nil {
		debug.Printf(" <- %v", msg.Debug(obj))
	}
	return err
}

// Close closes the connection. Queued events are dropped.
func (display *Display) Close() error {
	display.close.Do(func() { close(display.done) })
	display.queue.Stop()
	return display.conn.Close()
}

// Done returns a channel that is closed when the reader stops, either
// because the Display was closed or because the connection was lost.
func (display *Display) Done() <-chan struct{} {
	return display.lost
}

func (display *Display) Interface() string {
	return displayInterface
}

func (display *Display) MethodName(op uint16) string {
	return wire.EventName(displayEvents, op)
}

func (display *Display) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		objectID := msg.ReadObject()
		code := msg.ReadUint()
		message := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		if display.Error != nil {
			display.Error(objectID, code, message)
		}
		return nil

	case 1:
		id := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		display.objects.Delete(id)
		return nil

	default:
		return wire.UnknownOpError{Interface: displayInterface, Type: "event", Op: msg.Op()}
	}
}

// AddObject registers obj with the display, assigning it a new ID.
func (display *Display) AddObject(obj wire.Object) {
	display.objects.Add(obj)
}

// GetObject returns the object with the given ID, or nil.
func (display *Display) GetObject(id uint32) wire.Object {
	return display.objects.Get(id)
}

// Enqueue queues a request to be sent the next time that the queue is
// flushed.
func (display *Display) Enqueue(msg *wire.MessageBuilder) {
	display.queue.Add(func() error {
		debug.Printf(" -> %v", msg)
		return msg.Build(display.conn)
	})
}

// Events is a batch of queued incoming events and outgoing requests.
type Events struct {
	batch evq.Batch
}

// Flush processes the batch in order.
func (ev Events) Flush() error {
	return ev.batch.Flush()
}

func (ev Events) Len() int {
	return len(ev.batch)
}

// Poll returns the queued work if there is any without blocking.
func (display *Display) Poll() (Events, bool) {
	b, ok := display.queue.Poll()
	return Events{batch: b}, ok
}

// Flush processes any queued work without blocking.
func (display *Display) Flush() error {
	ev, ok := display.Poll()
	if !ok {
		return nil
	}
	return ev.Flush()
}

// DispatchEvents blocks until at least one piece of work is queued and then
// processes everything that is.
func (display *Display) DispatchEvents(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()

	case b := <-display.queue.Get():
		return b.Flush()

	case <-display.lost:
		if b, ok := display.queue.Poll(); ok {
			return b.Flush()
		}
		return ErrDisconnected
	}
}

// RoundTrip blocks until the compositor has processed every request
// sent so far and every event that it sent in response has been
// dispatched.
func (display *Display) RoundTrip(ctx context.Context) error {
	done := make(chan struct{})
	display.Sync().Then(func(uint32) { close(done) })

	var errs []error
	for {
		select {
		case <-done:
			return errors.Join(errs...)
		default:
		}

		err := display.DispatchEvents(ctx)
		if err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrDisconnected) || (ctx.Err() != nil) {
				return errors.Join(errs...)
			}
		}
	}
}

// Sync asks the compositor to send a done event on the returned
// callback once it has processed all requests sent before it.
func (display *Display) Sync() *Callback {
	callback := Callback{display: display}
	display.AddObject(&callback)

	msg := wire.NewMessage(display, 0)
	msg.Method = "sync"
	msg.WriteObject(&callback)
	display.Enqueue(msg)

	return &callback
}

// GetRegistry returns the display's registry, creating it on first
// use.
func (display *Display) GetRegistry() *Registry {
	if display.registry != nil {
		return display.registry
	}

	registry := Registry{
		display: display,
		globals: make(map[uint32]Interface),
	}
	display.AddObject(&registry)

	msg := wire.NewMessage(display, 1)
	msg.Method = "get_registry"
	msg.WriteObject(&registry)
	display.Enqueue(msg)

	display.registry = &registry
	return &registry
}

func newRequest(sender wire.Object, op uint16, method string) *wire.MessageBuilder {
	msg := wire.NewMessage(sender, op)
	msg.Method = method
	return msg
}
