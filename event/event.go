// Package event defines the canonical, platform-independent events delivered
// to window handlers.
//
// All positions are in logical units: physical pixels divided by the window's
// scale factor at the time the backend reported them.
package event

import (
	"fmt"

	"github.com/1broseidon/winloop/platform"
)

// WindowID identifies a window for the lifetime of the process. IDs are never
// reused.
type WindowID uint64

type (
	Point       = platform.Point
	MouseButton = platform.MouseButton
)

// Event is one of the variants below. There is deliberately no resize
// event: windows have a fixed logical size.
type Event interface {
	// Target is the window the event is addressed to.
	Target() WindowID
	isEvent()
}

// PointerMoved reports the pointer position inside a window.
type PointerMoved struct {
	Window   WindowID
	Position Point
}

type PointerButton struct {
	Window   WindowID
	Button   MouseButton
	Pressed  bool
	Position Point
}

type PointerEntered struct {
	Window   WindowID
	Position Point
}

type PointerLeft struct {
	Window WindowID
}

// PointerScrolled carries wheel deltas in lines.
type PointerScrolled struct {
	Window WindowID
	Delta  Point
}

type FocusChanged struct {
	Window  WindowID
	Focused bool
}

// ScaleFactorChanged is delivered before any pointer event that was measured
// with the new scale.
type ScaleFactorChanged struct {
	Window WindowID
	Scale  float64
}

// RefreshRequested is the vsync tick: the window's monitor finished a
// refresh cycle and a new frame may be presented.
type RefreshRequested struct {
	Window WindowID
}

// CloseRequested reports that the user asked the window system to close the
// window. The request cannot be refused: once the handler returns, the
// window and its descendants move to Closing.
type CloseRequested struct {
	Window WindowID
}

// Closed is the terminal event of a window, delivered exactly once. Cause is
// nil for an orderly close and the backend error otherwise.
type Closed struct {
	Window WindowID
	Cause  error
}

func (e PointerMoved) Target() WindowID       { return e.Window }
func (e PointerButton) Target() WindowID      { return e.Window }
func (e PointerEntered) Target() WindowID     { return e.Window }
func (e PointerLeft) Target() WindowID        { return e.Window }
func (e PointerScrolled) Target() WindowID    { return e.Window }
func (e FocusChanged) Target() WindowID       { return e.Window }
func (e ScaleFactorChanged) Target() WindowID { return e.Window }
func (e RefreshRequested) Target() WindowID   { return e.Window }
func (e CloseRequested) Target() WindowID     { return e.Window }
func (e Closed) Target() WindowID             { return e.Window }

func (PointerMoved) isEvent()       {}
func (PointerButton) isEvent()      {}
func (PointerEntered) isEvent()     {}
func (PointerLeft) isEvent()        {}
func (PointerScrolled) isEvent()    {}
func (FocusChanged) isEvent()       {}
func (ScaleFactorChanged) isEvent() {}
func (RefreshRequested) isEvent()   {}
func (CloseRequested) isEvent()     {}
func (Closed) isEvent()             {}

// IsInput reports whether ev is pointer or focus input, which is withheld
// from windows that are closing.
func IsInput(ev Event) bool {
	switch ev.(type) {
	case PointerMoved, PointerButton, PointerEntered, PointerLeft, PointerScrolled, FocusChanged:
		return true
	default:
		return false
	}
}

// Name returns a short lowercase name for logging.
func Name(ev Event) string {
	switch ev.(type) {
	case PointerMoved:
		return "pointer_moved"
	case PointerButton:
		return "pointer_button"
	case PointerEntered:
		return "pointer_entered"
	case PointerLeft:
		return "pointer_left"
	case PointerScrolled:
		return "pointer_scrolled"
	case FocusChanged:
		return "focus_changed"
	case ScaleFactorChanged:
		return "scale_factor_changed"
	case RefreshRequested:
		return "refresh_requested"
	case CloseRequested:
		return "close_requested"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("%T", ev)
	}
}
