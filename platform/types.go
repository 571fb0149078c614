package platform

import "fmt"

// Cursor is the pointer shape shown over a window.
type Cursor int

const (
	CursorArrow Cursor = iota
	CursorCrosshair
	CursorHand
	CursorIBeam
	CursorNo
	CursorSizeNS
	CursorSizeWE
	CursorSizeNESW
	CursorSizeNWSE
	CursorWait
	CursorHidden
)

var cursorNames = map[Cursor]string{
	CursorArrow:     "arrow",
	CursorCrosshair: "crosshair",
	CursorHand:      "hand",
	CursorIBeam:     "ibeam",
	CursorNo:        "no",
	CursorSizeNS:    "size_ns",
	CursorSizeWE:    "size_we",
	CursorSizeNESW:  "size_nesw",
	CursorSizeNWSE:  "size_nwse",
	CursorWait:      "wait",
	CursorHidden:    "hidden",
}

func (c Cursor) String() string {
	if name, ok := cursorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cursor(%d)", int(c))
}

// ParseCursor converts a config name ("arrow", "hand", ...) into a Cursor.
func ParseCursor(s string) (Cursor, error) {
	for c, name := range cursorNames {
		if name == s {
			return c, nil
		}
	}
	return CursorArrow, fmt.Errorf("unknown cursor %q", s)
}

// MouseButton identifies a pointer button.
type MouseButton int

const (
	ButtonLeft MouseButton = iota + 1
	ButtonMiddle
	ButtonRight
	ButtonBack
	ButtonForward
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	case ButtonBack:
		return "back"
	case ButtonForward:
		return "forward"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// HandleKind tags a RawWindowHandle with the windowing system it belongs to.
type HandleKind int

const (
	HandleUnknown HandleKind = iota
	HandleX11
	HandleGLFW
	HandleWin32
	HandleCocoa
	HandleHeadless
)

func (k HandleKind) String() string {
	switch k {
	case HandleX11:
		return "x11"
	case HandleGLFW:
		return "glfw"
	case HandleWin32:
		return "win32"
	case HandleCocoa:
		return "cocoa"
	case HandleHeadless:
		return "headless"
	default:
		return "unknown"
	}
}

// RawWindowHandle exposes the native handle of a window for external
// rendering code.
//
// The handle is only meaningful while the window is Open. Using it after the
// window reached Closed is undefined; nothing checks this at runtime.
type RawWindowHandle struct {
	Kind HandleKind
	// Window is the native window: an X11 window id, a *GLFWwindow pointer,
	// an HWND or an NSView pointer.
	Window uintptr
	// Display is the connection the window lives on, when the system has one
	// (the X11 Display*/connection number). Zero otherwise.
	Display uintptr
}
