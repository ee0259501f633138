package wl

import "deedles.dev/wlds/wire"

const (
	callbackInterface = "wl_callback"
)

var callbackEvents = []string{"done"}

// Callback is a one-shot notification from the compositor.
type Callback struct {
	wire.Base

	display *Display
	then    []func(uint32)
}

// Then registers f to be called with the callback's data when it
// fires.
func (c *Callback) Then(f func(data uint32)) {
	c.then = append(c.then, f)
}

func (c *Callback) Interface() string {
	return callbackInterface
}

func (c *Callback) MethodName(op uint16) string {
	return wire.EventName(callbackEvents, op)
}

func (c *Callback) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		data := msg.ReadUint()
		if err := msg.Err(); err != nil {
			return err
		}
		for _, f := range c.then {
			f(data)
		}
		c.then = nil
		return nil

	default:
		return wire.UnknownOpError{Interface: callbackInterface, Type: "event", Op: msg.Op()}
	}
}
