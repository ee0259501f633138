package wlds

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// WindowID identifies a window. IDs of destroyed windows are reused.
type WindowID int

const (
	MainWindowID    WindowID = 0
	InvalidWindowID WindowID = -1
)

const (
	// InvalidScreen is returned where a screen can not be determined.
	InvalidScreen = -1

	// ScreenOfMainWindow can be passed to screen queries in place of a
	// screen index.
	ScreenOfMainWindow = -2

	// InvalidDPI is reported for screens whose DPI isn't known.
	InvalidDPI = 72
)

type WindowMode int

const (
	WindowModeWindowed WindowMode = iota
	WindowModeMinimized
	WindowModeMaximized
	WindowModeFullscreen
	WindowModeExclusiveFullscreen
)

var windowModeNames = []string{"windowed", "minimized", "maximized", "fullscreen", "exclusive_fullscreen"}

func (m WindowMode) String() string {
	return enumName(windowModeNames, int(m))
}

func (m *WindowMode) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseEnum(node, windowModeNames)
	*m = WindowMode(v)
	return err
}

type VSyncMode int

const (
	VSyncDisabled VSyncMode = iota
	VSyncEnabled
	VSyncAdaptive
	VSyncMailbox
)

var vsyncModeNames = []string{"disabled", "enabled", "adaptive", "mailbox"}

func (m VSyncMode) String() string {
	return enumName(vsyncModeNames, int(m))
}

func (m *VSyncMode) UnmarshalYAML(node *yaml.Node) error {
	v, err := parseEnum(node, vsyncModeNames)
	*m = VSyncMode(v)
	return err
}

// WindowFlags are creation flags of a window. They are stored but
// none of them can be honored through xdg-shell.
type WindowFlags uint32

const (
	WindowFlagResizeDisabled WindowFlags = 1 << iota
	WindowFlagBorderless
	WindowFlagAlwaysOnTop
	WindowFlagTransparent
	WindowFlagNoFocus
	WindowFlagPopup
)

var windowFlagNames = []string{"resize_disabled", "borderless", "always_on_top", "transparent", "no_focus", "popup"}

func (f WindowFlags) String() string {
	var names []string
	for i, name := range windowFlagNames {
		if f&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, "|")
}

// UnmarshalYAML reads flags from a list of flag names.
func (f *WindowFlags) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	err := node.Decode(&names)
	if err != nil {
		return err
	}

	*f = 0
	for _, name := range names {
		i := slices.Index(windowFlagNames, name)
		if i < 0 {
			return fmt.Errorf("line %v: unknown window flag %q", node.Line, name)
		}
		*f |= 1 << i
	}
	return nil
}

type Feature int

const (
	FeatureSubwindows Feature = iota
	FeatureTouchscreen
	FeatureMouse
	FeatureMouseWarp
	FeatureClipboard
	FeatureVirtualKeyboard
	FeatureCursorShape
	FeatureCustomCursorShape
	FeatureNativeDialog
	FeatureIME
	FeatureWindowTransparency
	FeatureHiDPI
	FeatureIcon
	FeatureNativeIcon
	FeatureOrientation
	FeatureSwapBuffers
	FeatureKeepScreenOn
	FeatureClipboardPrimary
	FeatureTextToSpeech
)

// WindowEvent is an event reported through a window's event callback.
type WindowEvent int

const (
	WindowEventMouseEnter WindowEvent = iota
	WindowEventMouseExit
	WindowEventFocusIn
	WindowEventFocusOut
	WindowEventCloseRequest
)

// Rasterizer is the renderer that draws into the backend's windows.
type Rasterizer interface {
	// MakeCurrent activates rendering for the current context.
	MakeCurrent()
}

func enumName(names []string, v int) string {
	if (v < 0) || (v >= len(names)) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return names[v]
}

func parseEnum(node *yaml.Node, names []string) (int, error) {
	var name string
	err := node.Decode(&name)
	if err != nil {
		return 0, err
	}

	i := slices.Index(names, strings.ToLower(name))
	if i < 0 {
		return 0, fmt.Errorf("line %v: %q is not one of %v", node.Line, name, strings.Join(names, ", "))
	}
	return i, nil
}
