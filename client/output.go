package wl

import "deedles.dev/wlds/wire"

const (
	OutputInterface = "wl_output"
	OutputVersion   = 4
)

var outputEvents = []string{"geometry", "mode", "done", "scale", "name", "description"}

type OutputSubpixel int32

const (
	OutputSubpixelUnknown OutputSubpixel = iota
	OutputSubpixelNone
	OutputSubpixelHorizontalRGB
	OutputSubpixelHorizontalBGR
	OutputSubpixelVerticalRGB
	OutputSubpixelVerticalBGR
)

type OutputTransform int32

const (
	OutputTransformNormal OutputTransform = iota
	OutputTransform90
	OutputTransform180
	OutputTransform270
	OutputTransformFlipped
	OutputTransformFlipped90
	OutputTransformFlipped180
	OutputTransformFlipped270
)

type OutputMode uint32

const (
	OutputModeCurrent OutputMode = 1 << iota
	OutputModePreferred
)

func (m OutputMode) Has(flag OutputMode) bool {
	return m&flag != 0
}

type Output struct {
	wire.Base

	Geometry    func(x, y, physicalWidth, physicalHeight int32, subpixel OutputSubpixel, make, model string, transform OutputTransform)
	Mode        func(flags OutputMode, width, height, refresh int32)
	Done        func()
	Scale       func(factor int32)
	Name        func(name string)
	Description func(description string)

	display *Display
	version uint32
}

func IsOutput(i Interface) bool {
	return i.Is(OutputInterface)
}

func BindOutput(display *Display, name, version uint32) *Output {
	output := Output{display: display, version: BindVersion(version, OutputVersion)}
	display.GetRegistry().Bind(name, &output, output.version)
	return &output
}

func (out *Output) Version() uint32 {
	return out.version
}

// Release tells the compositor that the output is no longer used. For
// versions that can't do that, only the local handlers are removed.
func (out *Output) Release() {
	out.Geometry = nil
	out.Mode = nil
	out.Done = nil
	out.Scale = nil
	out.Name = nil
	out.Description = nil

	if out.version >= 3 {
		out.display.Enqueue(newRequest(out, 0, "release"))
	}
}

func (out *Output) Interface() string {
	return OutputInterface
}

func (out *Output) MethodName(op uint16) string {
	return wire.EventName(outputEvents, op)
}

func (out *Output) Dispatch(msg *wire.MessageBuffer) error {
	switch msg.Op() {
	case 0:
		x := msg.ReadInt()
		y := msg.ReadInt()
		physicalWidth := msg.ReadInt()
		physicalHeight := msg.ReadInt()
		subpixel := OutputSubpixel(msg.ReadInt())
		make := msg.ReadString()
		model := msg.ReadString()
		transform := OutputTransform(msg.ReadInt())
		if err := msg.Err(); err != nil {
			return err
		}
		if out.Geometry != nil {
			out.Geometry(x, y, physicalWidth, physicalHeight, subpixel, make, model, transform)
		}
		return nil

	case 1:
		flags := OutputMode(msg.ReadUint())
		width := msg.ReadInt()
		height := msg.ReadInt()
		refresh := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if out.Mode != nil {
			out.Mode(flags, width, height, refresh)
		}
		return nil

	case 2:
		if out.Done != nil {
			out.Done()
		}
		return nil

	case 3:
		factor := msg.ReadInt()
		if err := msg.Err(); err != nil {
			return err
		}
		if out.Scale != nil {
			out.Scale(factor)
		}
		return nil

	case 4, 5:
		str := msg.ReadString()
		if err := msg.Err(); err != nil {
			return err
		}
		handler := out.Name
		if msg.Op() == 5 {
			handler = out.Description
		}
		if handler != nil {
			handler(str)
		}
		return nil

	default:
		return wire.UnknownOpError{Interface: OutputInterface, Type: "event", Op: msg.Op()}
	}
}
