// Package objstore tracks the live protocol objects on one side of a
// connection and routes incoming messages to them.
package objstore

import (
	"deedles.dev/wlds/wire"
)

type Store struct {
	objects map[uint32]wire.Object
	nextID  uint32
}

// New returns a store that allocates IDs starting at start. Clients
// start at 1, servers at 0xFF000000.
func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add adds obj to the store, allocating an ID for it if it doesn't
// already have one.
func (s *Store) Add(obj wire.Object) {
	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

// Set adds obj to the store under an ID chosen by the peer.
func (s *Store) Set(id uint32, obj wire.Object) {
	obj.SetID(id)
	s.objects[id] = obj
}

func (s *Store) Get(id uint32) wire.Object {
	return s.objects[id]
}

// Delete removes the object with the given ID and notifies it.
func (s *Store) Delete(id uint32) {
	obj := s.objects[id]
	delete(s.objects, id)
	if obj != nil {
		obj.Delete()
	}
}

func (s *Store) Len() int {
	return len(s.objects)
}

// Dispatch hands msg to the object that it was sent to.
func (s *Store) Dispatch(msg *wire.MessageBuffer) (wire.Object, error) {
	obj := s.objects[msg.Sender()]
	if obj == nil {
		return nil, wire.UnknownSenderIDError{Sender: msg.Sender(), Op: msg.Op()}
	}

	return obj, obj.Dispatch(msg)
}
