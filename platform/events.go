package platform

// RawEvent is a backend notification before normalization. Positions are in
// physical pixels relative to the window's top-left corner.
type RawEvent interface{ isRawEvent() }

type RawPointerMoved struct {
	Window   NativeHandle
	Position Point
}

type RawPointerButton struct {
	Window   NativeHandle
	Button   MouseButton
	Pressed  bool
	Position Point
}

// RawPointerScrolled carries wheel deltas in lines (positive Y is away from
// the user).
type RawPointerScrolled struct {
	Window NativeHandle
	Delta  Point
}

type RawPointerEntered struct {
	Window   NativeHandle
	Position Point
}

type RawPointerLeft struct{ Window NativeHandle }

type RawFocus struct {
	Window  NativeHandle
	Focused bool
}

// RawScaleChanged reports a DPI change for a window.
type RawScaleChanged struct {
	Window NativeHandle
	Scale  float64
}

// RawCloseRequested reports that the user asked the window system to close
// the window (title bar close control, WM_DELETE_WINDOW, ...).
type RawCloseRequested struct{ Window NativeHandle }

// RawDestroyed confirms that the native window is gone.
type RawDestroyed struct{ Window NativeHandle }

// RawRefresh is a vsync tick for a subscribed window.
type RawRefresh struct{ Window NativeHandle }

type RawMonitorAdded struct{ Monitor MonitorInfo }

type RawMonitorRemoved struct{ Monitor MonitorID }

// RawMonitorChanged reports that a window now lives on a different monitor.
type RawMonitorChanged struct {
	Window  NativeHandle
	Monitor MonitorID
}

func (RawPointerMoved) isRawEvent()    {}
func (RawPointerButton) isRawEvent()   {}
func (RawPointerScrolled) isRawEvent() {}
func (RawPointerEntered) isRawEvent()  {}
func (RawPointerLeft) isRawEvent()     {}
func (RawFocus) isRawEvent()           {}
func (RawScaleChanged) isRawEvent()    {}
func (RawCloseRequested) isRawEvent()  {}
func (RawDestroyed) isRawEvent()       {}
func (RawRefresh) isRawEvent()         {}
func (RawMonitorAdded) isRawEvent()    {}
func (RawMonitorRemoved) isRawEvent()  {}
func (RawMonitorChanged) isRawEvent()  {}

// WindowOf returns the native window an event targets, if any.
func WindowOf(ev RawEvent) (NativeHandle, bool) {
	switch e := ev.(type) {
	case RawPointerMoved:
		return e.Window, true
	case RawPointerButton:
		return e.Window, true
	case RawPointerScrolled:
		return e.Window, true
	case RawPointerEntered:
		return e.Window, true
	case RawPointerLeft:
		return e.Window, true
	case RawFocus:
		return e.Window, true
	case RawScaleChanged:
		return e.Window, true
	case RawCloseRequested:
		return e.Window, true
	case RawDestroyed:
		return e.Window, true
	case RawRefresh:
		return e.Window, true
	case RawMonitorChanged:
		return e.Window, true
	default:
		return 0, false
	}
}
