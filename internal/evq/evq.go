// Package evq implements the ordered work queue that sits between a
// Wayland connection's reader goroutine and the goroutine that
// dispatches events.
package evq

import (
	"errors"
	"sync"
)

// Event is a single unit of queued work, such as dispatching a
// received message or sending a request.
type Event func() error

// Batch is every event that was queued since the last time the queue
// was drained.
type Batch []Event

// Flush runs every event in the batch in order and returns all of the
// errors that they produced.
func (b Batch) Flush() error {
	var errs []error
	for _, ev := range b {
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Queue is an unbounded concurrent queue of events. Events are
// retrieved in batches of everything that has accumulated.
type Queue struct {
	done  chan struct{}
	close sync.Once

	add  chan Event
	get  chan Batch
	poll chan chan Batch
}

func New() *Queue {
	q := Queue{
		done: make(chan struct{}),
		add:  make(chan Event),
		get:  make(chan Batch),
		poll: make(chan chan Batch),
	}
	go q.run()

	return &q
}

// Stop stops the queue. Any events that have not been retrieved are
// dropped.
func (q *Queue) Stop() {
	q.close.Do(func() {
		close(q.done)
	})
}

// Done returns a channel that is closed when the queue is stopped.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

// Add adds ev to the queue. It returns false if the queue was stopped.
func (q *Queue) Add(ev Event) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case <-q.done:
		return false
	case q.add <- ev:
		return true
	}
}

// Get returns a channel that yields a batch whenever at least one
// event is queued.
func (q *Queue) Get() <-chan Batch {
	return q.get
}

// Poll returns everything that is currently queued. It only waits for
// the queue to hand the batch over, never for new events, and returns
// false if the queue is empty or stopped.
func (q *Queue) Poll() (Batch, bool) {
	reply := make(chan Batch, 1)
	select {
	case <-q.done:
		return nil, false
	case q.poll <- reply:
	}

	b := <-reply
	return b, len(b) > 0
}

func (q *Queue) run() {
	var s Batch
	var get chan Batch

	for {
		select {
		case <-q.done:
			return

		case v := <-q.add:
			s = append(s, v)
			get = q.get

		case get <- s:
			s = nil
			get = nil

		case reply := <-q.poll:
			reply <- s
			s = nil
			get = nil
		}
	}
}
