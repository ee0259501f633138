package wl

import (
	"golang.org/x/exp/maps"

	"deedles.dev/wlds/wire"
)

const (
	registryInterface = "wl_registry"
)

var registryEvents = []string{"global", "global_remove"}

// Interface describes a global advertised by the compositor.
type Interface struct {
	Name    string
	Version uint32
}

// BindVersion returns the version to bind a global at, which is the
// lower of the version the compositor offers and the version that is
// supported locally.
func BindVersion(offered, supported uint32) uint32 {
	return min(offered, supported)
}

type Registry struct {
	wire.Base

	Global       func(name uint32, inter string, version uint32)
	GlobalRemove func(name uint32)

	display *Display
	globals map[uint32]Interface
}

// Globals returns a copy of the globals that are currently advertised.
func (registry *Registry) Globals() map[uint32]Interface {
	return maps.Clone(registry.globals)
}

// Bind binds the global with the given name to obj, which must not
// have been added to the display yet.
func (registry *Registry) Bind(name uint32, obj wire.Object, version uint32) {
	registry.display.AddObject(obj)

	msg := wire.NewMessage(registry, 0)
	msg.Method = "bind"
	msg.WriteUint(name)
	msg.WriteNewID(wire.NewID{Interface: obj.Interface(), Version: version, ID: obj.ID()})
	registry.display.Enqueue(msg)
}

func (registry *Registry) Interface() string {
	return registryInterface
}

func (registry *Registry) MethodName(op uint16) string {
	return wire.EventName(registryEvents, op)
}

func (registry *Registry) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		name := msg.ReadUint()
		inter := msg.ReadString()
		version := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		registry.globals[name] = Interface{Name: inter, Version: version}
		if registry.Global != nil {
			registry.Global(name, inter, version)
		}
		return nil

	case 1:
		name := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}

		delete(registry.globals, name)
		if registry.GlobalRemove != nil {
			registry.GlobalRemove(name)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: registryInterface, Type: "event", Op: msg.Op()}
	}
}

// Is returns true if i describes a global of the named interface.
func (i Interface) Is(name string) bool {
	return i.Name == name
}
