package winloop

import (
	"log/slog"
	"time"

	"github.com/1broseidon/winloop/event"
	"github.com/1broseidon/winloop/platform"
)

type (
	// WindowID identifies a window for the lifetime of the process.
	WindowID = event.WindowID
	// Event is a canonical event; see package event for the variants.
	Event = event.Event
	// Monitor describes a connected display.
	Monitor = platform.MonitorInfo
)

// TimerID identifies an armed timer. IDs are never reused.
type TimerID uint64

// LoopMode selects who drives the native event pump.
type LoopMode int

const (
	// ModeOwner loops own the pump: the application calls Run.
	ModeOwner LoopMode = iota
	// ModeGuest loops are embedded in a host that owns the pump. The host
	// calls RunOnce(0) from its own loop; Run is rejected.
	ModeGuest
)

func (m LoopMode) String() string {
	if m == ModeGuest {
		return "guest"
	}
	return "owner"
}

// Options configures an EventLoop.
type Options struct {
	// Backend performs the native work. Required. The loop takes ownership
	// and closes it in Close.
	Backend platform.Backend
	Logger  *slog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// CoalesceThreshold is the minimum pointer travel, in logical units,
	// between delivered moves. Zero selects the default of 0.5; a negative
	// value delivers every move.
	CoalesceThreshold float64
	Mode              LoopMode
}

// Handler receives the events of one window. Handlers run on the loop
// goroutine, must not block and must not call Run or RunOnce.
type Handler interface {
	HandleEvent(id WindowID, ev Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(id WindowID, ev Event)

func (f HandlerFunc) HandleEvent(id WindowID, ev Event) { f(id, ev) }

// WindowOptions are the parameters of Open.
type WindowOptions struct {
	Title string
	// Size is the logical size. Windows cannot be resized after opening.
	Size platform.Size
	// Parent makes the window a child of an Open window.
	Parent *Window
	// RawParent embeds the window into a native window the loop does not
	// own, such as a plugin host's editor area. It cannot be combined with
	// Parent, and the embedded window is a top-level window of this loop.
	RawParent platform.RawWindowHandle
	// Position is the logical position of the top-left corner, relative to
	// the parent for children. Nil lets the system place the window.
	Position *platform.Point
	// Hidden opens the window without showing it.
	Hidden bool
	Cursor platform.Cursor
}
