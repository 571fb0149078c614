package winloop

import (
	"errors"
	"fmt"

	"github.com/1broseidon/winloop/event"
	"github.com/1broseidon/winloop/internal/handle"
	"github.com/1broseidon/winloop/internal/normalize"
	"github.com/1broseidon/winloop/internal/timer"
	"github.com/1broseidon/winloop/platform"
)

// State is a window's lifecycle state.
type State int

const (
	// StateOpening lasts only for the native creation call.
	StateOpening State = iota
	StateOpen
	// StateClosing windows receive no input; their timers still fire.
	StateClosing
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	errInvalidSize = errors.New("window size must be positive")
	errTwoParents  = errors.New("parent and raw parent are mutually exclusive")
)

// Window is a top-level or child window. Its fields are only mutated by the
// loop, in response to backend notifications or the methods below; all
// methods must be called on the loop goroutine.
type Window struct {
	loop    *EventLoop
	id      WindowID
	native  platform.NativeHandle
	handler Handler
	title   string

	state  State
	size   platform.Size
	pw, ph int
	scale   float64
	cursor  platform.Cursor
	visible bool

	// parent is a weak link: liveness is checked through the loop's table.
	parent   WindowID
	children []WindowID

	monitor    platform.MonitorID
	hasMonitor bool

	inFlight      bool
	destroyIssued bool
	retired       bool
	cause         error
}

// Open creates a window. A nil handler discards events.
func (l *EventLoop) Open(opts WindowOptions, h Handler) (*Window, error) {
	if err := l.checkUsable(); err != nil {
		return nil, err
	}
	if h == nil {
		h = HandlerFunc(func(WindowID, Event) {})
	}
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		return nil, &OpenError{Title: opts.Title, Err: errInvalidSize}
	}

	if opts.Parent != nil && opts.RawParent.Kind != platform.HandleUnknown {
		return nil, &OpenError{Title: opts.Title, Err: errTwoParents}
	}

	w := &Window{
		loop:    l,
		handler: h,
		title:   opts.Title,
		state:   StateOpening,
		size:    opts.Size,
		cursor:  opts.Cursor,
		visible: !opts.Hidden,
	}
	create := platform.CreateOptions{
		Title:     opts.Title,
		Width:     opts.Size.Width,
		Height:    opts.Size.Height,
		RawParent: opts.RawParent,
		Hidden:    opts.Hidden,
	}
	if opts.Position != nil {
		create.Position, create.HasPosition = *opts.Position, true
	}
	if p := opts.Parent; p != nil {
		if p.loop != l || p.state != StateOpen {
			return nil, ErrParentUnavailable
		}
		w.parent = p.id
		create.Parent = p.native
		create.HasParent = true
	}

	native, err := l.backend.CreateWindow(create)
	if err != nil {
		return nil, &OpenError{Title: opts.Title, Err: err}
	}
	w.native = native

	scale, err := l.backend.ScaleFactor(native)
	if err == nil {
		err = l.backend.SubscribeRefresh(native)
	}
	if err == nil {
		err = l.backend.SetCursor(native, opts.Cursor)
	}
	if err != nil {
		if derr := l.backend.DestroyWindow(native); derr != nil {
			l.logger.Debug("destroy after failed open", "error", derr)
		}
		return nil, &OpenError{Title: opts.Title, Err: err}
	}
	w.applyScale(normalize.ClampScale(scale))

	w.id = WindowID(l.windows.Allocate(w))
	w.state = StateOpen
	l.natives[native] = w
	if p := opts.Parent; p != nil {
		p.children = append(p.children, w.id)
	}
	l.everOpened = true

	l.logger.Debug("window opened",
		"window", w.id,
		"title", opts.Title,
		"scale", w.scale,
		"physical_width", w.pw,
		"physical_height", w.ph,
		"parent", w.parent,
	)
	return w, nil
}

func (w *Window) applyScale(s float64) {
	w.scale = s
	w.pw = platform.PhysicalExtent(w.size.Width, s)
	w.ph = platform.PhysicalExtent(w.size.Height, s)
}

// ID returns the window's identifier. It stays valid as a value after the
// window closed but no longer resolves through EventLoop.Window.
func (w *Window) ID() WindowID { return w.id }

func (w *Window) State() State { return w.state }

func (w *Window) Title() string {
	if w.state == StateClosed {
		return ""
	}
	return w.title
}

// Size returns the logical size.
func (w *Window) Size() platform.Size {
	if w.state == StateClosed {
		return platform.Size{}
	}
	return w.size
}

// PhysicalSize returns the surface size in device pixels, which is the size
// Present expects.
func (w *Window) PhysicalSize() (width, height int) {
	if w.state == StateClosed {
		return 0, 0
	}
	return w.pw, w.ph
}

func (w *Window) ScaleFactor() float64 {
	if w.state == StateClosed {
		return 0
	}
	return w.scale
}

func (w *Window) Cursor() platform.Cursor {
	if w.state == StateClosed {
		return platform.CursorArrow
	}
	return w.cursor
}

// Parent returns the parent's id while the parent is still registered.
func (w *Window) Parent() (WindowID, bool) {
	if w.state == StateClosed || w.parent == 0 {
		return 0, false
	}
	if w.loop.lookup(w.parent) == nil {
		return 0, false
	}
	return w.parent, true
}

// Children returns the ids of registered children in creation order.
func (w *Window) Children() []WindowID {
	if w.state == StateClosed {
		return nil
	}
	live := w.loop.liveChildren(w)
	ids := make([]WindowID, len(live))
	for i, c := range live {
		ids[i] = c.id
	}
	return ids
}

// Monitor returns the display the window was last reported on.
func (w *Window) Monitor() (platform.MonitorID, bool) {
	if w.state == StateClosed {
		return 0, false
	}
	return w.monitor, w.hasMonitor
}

// RawHandle exposes the native handle. The result is only meaningful while
// the window is Open; using it afterwards is undefined.
func (w *Window) RawHandle() platform.RawWindowHandle {
	if w.state == StateClosed {
		return platform.RawWindowHandle{}
	}
	return w.loop.backend.RawHandle(w.native)
}

// SetCursor changes the pointer shape shown over the window.
func (w *Window) SetCursor(c platform.Cursor) error {
	l := w.loop
	if err := l.checkUsable(); err != nil {
		return err
	}
	if w.state != StateOpen {
		return ErrWindowClosed
	}
	if err := l.backend.SetCursor(w.native, c); err != nil {
		return l.failWindow(w, "set cursor", err)
	}
	w.cursor = c
	return nil
}

// Visible reports whether the window is shown.
func (w *Window) Visible() bool {
	return w.state != StateClosed && w.visible
}

// Show makes a hidden window visible. Showing a visible window does
// nothing.
func (w *Window) Show() error { return w.setVisible(true) }

// Hide removes the window from the screen without closing it. Its children
// are hidden with it.
func (w *Window) Hide() error { return w.setVisible(false) }

func (w *Window) setVisible(visible bool) error {
	l := w.loop
	if err := l.checkUsable(); err != nil {
		return err
	}
	if w.state != StateOpen {
		return ErrWindowClosed
	}
	if w.visible == visible {
		return nil
	}
	if err := l.backend.SetVisible(w.native, visible); err != nil {
		return l.failWindow(w, "set visible", err)
	}
	w.visible = visible
	return nil
}

// SetPointerPosition moves the pointer to a logical position inside the
// window. The backend reports the resulting motion like any other.
func (w *Window) SetPointerPosition(p platform.Point) error {
	l := w.loop
	if err := l.checkUsable(); err != nil {
		return err
	}
	if w.state != StateOpen {
		return ErrWindowClosed
	}
	if err := l.backend.WarpPointer(w.native, p.Scale(w.scale)); err != nil {
		return l.failWindow(w, "warp pointer", err)
	}
	return nil
}

// Close starts closing the window and, before it, all of its descendants.
// Closed is delivered once the backend confirms the native window is gone.
// Closing a window that is not Open does nothing.
func (w *Window) Close() {
	if w.loop.checkThread() != nil {
		w.loop.logger.Error("Window.Close called off the loop goroutine", "window", w.id)
		return
	}
	w.loop.beginClose(w)
}

func (l *EventLoop) liveChildren(w *Window) []*Window {
	var out []*Window
	for _, id := range w.children {
		if c := l.lookup(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (l *EventLoop) beginClose(w *Window) {
	if w.state != StateOpen {
		return
	}
	for _, c := range l.liveChildren(w) {
		l.beginClose(c)
	}
	w.state = StateClosing
	l.logger.Debug("window closing", "window", w.id)
}

// confirmDestroyed handles the backend's confirmation that the native
// window is gone.
func (l *EventLoop) confirmDestroyed(w *Window) {
	if w.state == StateClosed {
		return
	}
	if w.state == StateOpen {
		l.logger.Debug("native window destroyed externally", "window", w.id)
	}
	l.closeDescendants(w)
	w.destroyIssued = true
	w.state = StateClosed
	l.pendingClosed = append(l.pendingClosed, w)
}

// failWindow moves w straight to Closed after a native error and returns
// the error to report to the caller. Its descendants are closed first.
func (l *EventLoop) failWindow(w *Window, op string, err error) error {
	bf := &BackendFailure{Window: w.id, Op: op, Err: err}
	l.logger.Warn("backend failure", "window", w.id, "op", op, "error", err)
	l.out.Errors = append(l.out.Errors, bf)
	if w.state == StateClosed {
		return bf
	}
	l.closeDescendants(w)
	w.state = StateClosed
	w.cause = bf
	l.pendingClosed = append(l.pendingClosed, w)
	return bf
}

// closeDescendants queues every live descendant of w for retirement ahead
// of w itself, deepest first, so each child is destroyed and reported
// Closed before its parent.
func (l *EventLoop) closeDescendants(w *Window) {
	for _, c := range l.liveChildren(w) {
		if c.state == StateClosed {
			continue
		}
		l.closeDescendants(c)
		c.state = StateClosed
		l.pendingClosed = append(l.pendingClosed, c)
	}
}

func (l *EventLoop) flushClosed() {
	for len(l.pendingClosed) > 0 {
		w := l.pendingClosed[0]
		l.pendingClosed = l.pendingClosed[1:]
		l.retire(w)
	}
}

// retire cancels the window's timers, delivers Closed and removes the id.
func (l *EventLoop) retire(w *Window) {
	if w.retired {
		return
	}
	w.retired = true
	w.state = StateClosed
	w.inFlight = false
	if !w.destroyIssued {
		w.destroyIssued = true
		if err := l.backend.DestroyWindow(w.native); err != nil {
			l.logger.Debug("releasing failed window", "window", w.id, "error", err)
		}
	}

	n := l.timers.CancelOwner(timer.Owner(w.id))
	l.deliver(w, event.Closed{Window: w.id, Cause: w.cause})

	l.windows.Remove(handle.ID(w.id))
	delete(l.natives, w.native)
	l.norm.Forget(w.id)
	if p := l.lookup(w.parent); p != nil {
		kept := p.children[:0]
		for _, id := range p.children {
			if id != w.id {
				kept = append(kept, id)
			}
		}
		p.children = kept
	}
	l.logger.Debug("window closed", "window", w.id, "timers_cancelled", n, "cause", w.cause)
}
