package xdg

import (
	wl "deedles.dev/wlds/client"
	"deedles.dev/wlds/wire"
)

const (
	OutputManagerInterface = "zxdg_output_manager_v1"
	OutputManagerVersion   = 2

	outputInterface = "zxdg_output_v1"
)

var outputEvents = []string{"logical_position", "logical_size", "done", "name", "description"}

// OutputManager hands out the logical geometry of outputs.
type OutputManager struct {
	wire.Base

	display *wl.Display
	version uint32
}

func IsOutputManager(i wl.Interface) bool {
	return i.Is(OutputManagerInterface)
}

func BindOutputManager(display *wl.Display, name, version uint32) *OutputManager {
	m := OutputManager{display: display, version: wl.BindVersion(version, OutputManagerVersion)}
	display.GetRegistry().Bind(name, &m, m.version)
	return &m
}

func (m *OutputManager) GetXdgOutput(output *wl.Output) *Output {
	out := Output{display: m.display, version: m.version}
	m.display.AddObject(&out)

	msg := newRequest(m, 1, "get_xdg_output")
	msg.WriteObject(&out)
	msg.WriteObject(output)
	m.display.Enqueue(msg)

	return &out
}

func (m *OutputManager) Destroy() {
	m.display.Enqueue(newRequest(m, 0, "destroy"))
}

func (m *OutputManager) Interface() string {
	return OutputManagerInterface
}

func (m *OutputManager) MethodName(op uint16) string {
	return wire.EventName(nil, op)
}

func (m *OutputManager) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: OutputManagerInterface, Type: "event", Op: msg.Op()}
}

// Output is the logical, compositor-space view of a wl_output.
type Output struct {
	wire.Base

	LogicalPosition func(x, y int32)
	LogicalSize     func(width, height int32)
	Done            func()
	Name            func(name string)
	Description     func(description string)

	display *wl.Display
	version uint32
}

func (out *Output) Destroy() {
	out.LogicalPosition = nil
	out.LogicalSize = nil
	out.Done = nil
	out.Name = nil
	out.Description = nil
	out.display.Enqueue(newRequest(out, 0, "destroy"))
}

func (out *Output) Interface() string {
	return outputInterface
}

func (out *Output) MethodName(op uint16) string {
	return wire.EventName(outputEvents, op)
}

func (out *Output) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0, 1:
		a := msg.ReadInt()
		b := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		handler := out.LogicalPosition
		if msg.Op() == 1 {
			handler = out.LogicalSize
		}
		if handler != nil {
			handler(a, b)
		}
		return nil

	case 2:
		if out.Done != nil {
			out.Done()
		}
		return nil

	case 3, 4:
		str := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		handler := out.Name
		if msg.Op() == 4 {
			handler = out.Description
		}
		if handler != nil {
			handler(str)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: outputInterface, Type: "event", Op: msg.Op()}
	}
}
