//go:build glfw

package glfw

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	glfw3 "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/1broseidon/winloop/internal/vsync"
	"github.com/1broseidon/winloop/platform"
)

// Options configures the backend.
type Options struct {
	// RefreshFallbackHz paces windows on monitors without a known rate.
	RefreshFallbackHz float64
	Logger            *slog.Logger
}

// Backend drives GLFW. Every method except Wake must run on the thread
// that called New, which GLFW requires to be the process main thread on
// macOS.
type Backend struct {
	logger *slog.Logger

	windows map[platform.NativeHandle]*window
	next    platform.NativeHandle
	queue   []platform.RawEvent

	monitors   []platform.MonitorInfo
	monitorIDs *monitorIDs[*glfw3.Monitor]
	cursors    map[standardShape]*glfw3.Cursor
	vsync      *vsync.Source
	glReady    bool
	closed     bool

	// wakeMu keeps Wake from posting into a terminated library.
	wakeMu     sync.RWMutex
	terminated bool
}

type window struct {
	h         platform.NativeHandle
	win       *glfw3.Window
	parent    platform.NativeHandle
	hasParent bool
	x, y      int

	monitor    platform.MonitorID
	hasMonitor bool

	program, vao, tex uint32
	// texW and texH are the size of the texture storage, zero before the
	// first frame.
	texW, texH int
	inFlight   bool
}

var _ platform.Backend = (*Backend)(nil)

// New initializes GLFW. The calling goroutine must stay locked to its OS
// thread for the life of the backend.
func New(opts Options) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := glfw3.Init(); err != nil {
		return nil, fmt.Errorf("glfw: init: %w", err)
	}
	b := &Backend{
		logger:     logger.With("component", "glfw"),
		windows:    make(map[platform.NativeHandle]*window),
		next:       1,
		monitorIDs: newMonitorIDs[*glfw3.Monitor](),
		cursors:    make(map[standardShape]*glfw3.Cursor),
	}
	b.vsync = vsync.New(opts.RefreshFallbackHz, b.Wake)
	b.monitors = b.scanMonitors()
	b.vsync.SetMonitors(b.monitors)
	glfw3.SetMonitorCallback(func(m *glfw3.Monitor, ev glfw3.PeripheralEvent) {
		if ev == glfw3.Disconnected {
			b.monitorIDs.forget(m)
		}
		b.reloadMonitors()
	})
	b.logger.Debug("initialized", "version", glfw3.GetVersionString(), "monitors", len(b.monitors))
	return b, nil
}

func (b *Backend) Name() string { return "glfw" }

// catch turns the panics go-gl raises for unexpected GLFW errors into
// errors.
func catch(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("glfw: %s: %v", op, r)
		}
	}()
	fn()
	return nil
}

func (b *Backend) lookup(h platform.NativeHandle) (*window, error) {
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	w, ok := b.windows[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", platform.ErrUnknownWindow, h)
	}
	return w, nil
}

// CreateWindow opens a fixed-size window with its own GL context. A child
// is an undecorated floating window placed over its parent, offset by
// opts.Position, since GLFW has no embedded windows. For the same reason a
// RawParent cannot be honored.
func (b *Backend) CreateWindow(opts platform.CreateOptions) (platform.NativeHandle, error) {
	if b.closed {
		return 0, platform.ErrBackendClosed
	}
	if opts.RawParent.Kind != platform.HandleUnknown && !opts.HasParent {
		return 0, fmt.Errorf("%w: %s", platform.ErrUnsupportedParent, opts.RawParent.Kind)
	}
	var parent *window
	if opts.HasParent {
		p, err := b.lookup(opts.Parent)
		if err != nil {
			return 0, err
		}
		parent = p
	}

	var win *glfw3.Window
	err := catch("create window", func() {
		glfw3.DefaultWindowHints()
		glfw3.WindowHint(glfw3.ContextVersionMajor, 3)
		glfw3.WindowHint(glfw3.ContextVersionMinor, 3)
		glfw3.WindowHint(glfw3.OpenGLProfile, glfw3.OpenGLCoreProfile)
		glfw3.WindowHint(glfw3.OpenGLForwardCompatible, glfw3.True)
		glfw3.WindowHint(glfw3.Resizable, glfw3.False)
		// Logical size in, physical framebuffer out on every platform.
		glfw3.WindowHint(glfw3.ScaleToMonitor, glfw3.True)
		if parent != nil {
			glfw3.WindowHint(glfw3.Decorated, glfw3.False)
			glfw3.WindowHint(glfw3.Floating, glfw3.True)
		}
		if opts.Hidden {
			glfw3.WindowHint(glfw3.Visible, glfw3.False)
		}
		var cerr error
		win, cerr = glfw3.CreateWindow(int(math.Round(opts.Width)), int(math.Round(opts.Height)), opts.Title, nil, nil)
		if cerr != nil {
			panic(cerr)
		}
	})
	if err != nil {
		return 0, err
	}

	w := &window{h: b.next, win: win}
	var dx, dy int
	if opts.HasPosition {
		dx, dy = int(math.Round(opts.Position.X)), int(math.Round(opts.Position.Y))
	}
	switch {
	case parent != nil:
		w.parent, w.hasParent = parent.h, true
		w.x, w.y = parent.x+dx, parent.y+dy
		win.SetPos(w.x, w.y)
	case opts.HasPosition:
		w.x, w.y = dx, dy
		win.SetPos(w.x, w.y)
	default:
		w.x, w.y = win.GetPos()
	}
	if err := b.initGL(w); err != nil {
		win.Destroy()
		return 0, err
	}
	b.next++
	b.windows[w.h] = w
	b.listen(w)
	b.place(w)

	b.logger.Debug("window created", "handle", w.h, "title", opts.Title, "child", opts.HasParent)
	return w.h, nil
}

// listen routes GLFW callbacks for w into the event queue.
func (b *Backend) listen(w *window) {
	h := w.h
	emit := func(ev platform.RawEvent) { b.queue = append(b.queue, ev) }

	w.win.SetCursorPosCallback(func(_ *glfw3.Window, x, y float64) {
		emit(platform.RawPointerMoved{Window: h, Position: w.physical(x, y)})
	})
	w.win.SetMouseButtonCallback(func(_ *glfw3.Window, button glfw3.MouseButton, action glfw3.Action, _ glfw3.ModifierKey) {
		btn, ok := buttonOf(int(button))
		if !ok || action == glfw3.Repeat {
			return
		}
		emit(platform.RawPointerButton{
			Window:   h,
			Button:   btn,
			Pressed:  action == glfw3.Press,
			Position: w.physical(w.win.GetCursorPos()),
		})
	})
	w.win.SetScrollCallback(func(_ *glfw3.Window, dx, dy float64) {
		emit(platform.RawPointerScrolled{Window: h, Delta: platform.Point{X: dx, Y: dy}})
	})
	w.win.SetCursorEnterCallback(func(_ *glfw3.Window, entered bool) {
		if entered {
			emit(platform.RawPointerEntered{Window: h, Position: w.physical(w.win.GetCursorPos())})
			return
		}
		emit(platform.RawPointerLeft{Window: h})
	})
	w.win.SetFocusCallback(func(_ *glfw3.Window, focused bool) {
		emit(platform.RawFocus{Window: h, Focused: focused})
	})
	w.win.SetContentScaleCallback(func(_ *glfw3.Window, x, _ float32) {
		emit(platform.RawScaleChanged{Window: h, Scale: float64(x)})
	})
	w.win.SetCloseCallback(func(win *glfw3.Window) {
		// The loop decides; the window stays until DestroyWindow.
		win.SetShouldClose(false)
		emit(platform.RawCloseRequested{Window: h})
	})
	w.win.SetRefreshCallback(func(_ *glfw3.Window) {
		emit(platform.RawRefresh{Window: h})
	})
	w.win.SetPosCallback(func(_ *glfw3.Window, x, y int) {
		b.moved(w, x, y)
	})
}

func (w *window) physical(x, y float64) platform.Point {
	ww, wh := w.win.GetSize()
	fw, fh := w.win.GetFramebufferSize()
	return toPhysical(x, y, ww, wh, fw, fh)
}

// moved drags descendants along with a window and re-places top-level
// windows. The position callbacks our own SetPos calls trigger arrive with
// the stored position and do nothing.
func (b *Backend) moved(w *window, x, y int) {
	dx, dy := x-w.x, y-w.y
	if dx == 0 && dy == 0 {
		return
	}
	w.x, w.y = x, y
	b.shiftChildren(w.h, dx, dy)
	if !w.hasParent {
		b.place(w)
	}
}

func (b *Backend) shiftChildren(parent platform.NativeHandle, dx, dy int) {
	for _, c := range b.sorted() {
		if !c.hasParent || c.parent != parent {
			continue
		}
		c.x, c.y = c.x+dx, c.y+dy
		c.win.SetPos(c.x, c.y)
		b.shiftChildren(c.h, dx, dy)
	}
}

// place assigns w the monitor under its center and queues the change.
// Children inherit their top-level window's monitor.
func (b *Backend) place(w *window) {
	top := b.topLevel(w)
	if top == nil {
		return
	}
	ww, wh := top.win.GetSize()
	m, ok := platform.MonitorAt(b.monitors, top.x+ww/2, top.y+wh/2)
	if !ok {
		return
	}
	for _, c := range b.sorted() {
		if b.topLevel(c) != top {
			continue
		}
		if c.hasMonitor && c.monitor == m.ID {
			continue
		}
		c.monitor, c.hasMonitor = m.ID, true
		b.queue = append(b.queue, platform.RawMonitorChanged{Window: c.h, Monitor: m.ID})
	}
}

func (b *Backend) topLevel(w *window) *window {
	for w != nil && w.hasParent {
		w = b.windows[w.parent]
	}
	return w
}

func (b *Backend) sorted() []*window {
	out := make([]*window, 0, len(b.windows))
	for _, w := range b.windows {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].h < out[j].h })
	return out
}

// DestroyWindow releases the window and its GL objects. GLFW destroys
// synchronously, so the confirmation is queued for the next poll.
func (b *Backend) DestroyWindow(h platform.NativeHandle) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	delete(b.windows, h)
	b.vsync.Unsubscribe(h)
	err = catch("destroy window", func() {
		b.releaseGL(w)
		w.win.Destroy()
	})
	b.queue = append(b.queue, platform.RawDestroyed{Window: h})
	b.logger.Debug("window destroyed", "handle", h)
	return err
}

func (b *Backend) SetCursor(h platform.NativeHandle, c platform.Cursor) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	return catch("set cursor", func() {
		if c == platform.CursorHidden {
			w.win.SetInputMode(glfw3.CursorMode, glfw3.CursorHidden)
			return
		}
		w.win.SetInputMode(glfw3.CursorMode, glfw3.CursorNormal)
		w.win.SetCursor(b.cursor(shapeOf(c)))
	})
}

var standardCursors = map[standardShape]glfw3.StandardCursor{
	shapeArrow:     glfw3.ArrowCursor,
	shapeIBeam:     glfw3.IBeamCursor,
	shapeCrosshair: glfw3.CrosshairCursor,
	shapeHand:      glfw3.HandCursor,
	shapeHResize:   glfw3.HResizeCursor,
	shapeVResize:   glfw3.VResizeCursor,
}

func (b *Backend) cursor(s standardShape) *glfw3.Cursor {
	if c, ok := b.cursors[s]; ok {
		return c
	}
	c := glfw3.CreateStandardCursor(standardCursors[s])
	b.cursors[s] = c
	return c
}

func (b *Backend) SetVisible(h platform.NativeHandle, visible bool) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	return catch("set visible", func() {
		if visible {
			w.win.Show()
		} else {
			w.win.Hide()
		}
	})
}

// WarpPointer converts the framebuffer position back to screen
// coordinates for glfwSetCursorPos.
func (b *Backend) WarpPointer(h platform.NativeHandle, at platform.Point) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	return catch("set cursor pos", func() {
		ww, wh := w.win.GetSize()
		fw, fh := w.win.GetFramebufferSize()
		w.win.SetCursorPos(toScreen(at, ww, wh, fw, fh))
	})
}

// ScaleFactor reports the content scale of the window's monitor.
func (b *Backend) ScaleFactor(h platform.NativeHandle) (float64, error) {
	w, err := b.lookup(h)
	if err != nil {
		return 0, err
	}
	var x float32
	err = catch("content scale", func() { x, _ = w.win.GetContentScale() })
	return float64(x), err
}

// SubscribeRefresh starts ticks at the rate of the window's monitor.
func (b *Backend) SubscribeRefresh(h platform.NativeHandle) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	on := vsync.Unplaced
	if w.hasMonitor {
		on = w.monitor
	}
	b.vsync.Subscribe(h, on)
	return nil
}

func (b *Backend) RawHandle(h platform.NativeHandle) platform.RawWindowHandle {
	w, err := b.lookup(h)
	if err != nil {
		return platform.RawWindowHandle{}
	}
	return platform.RawWindowHandle{Kind: platform.HandleGLFW, Window: uintptr(w.win.Handle())}
}

// PollEvents runs GLFW's event processing, which fires the callbacks that
// fill the queue.
func (b *Backend) PollEvents(timeout time.Duration) ([]platform.RawEvent, error) {
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	err := catch("poll events", func() {
		switch {
		case len(b.queue) > 0 || b.vsync.Pending() || timeout == 0:
			glfw3.PollEvents()
		case timeout < 0:
			glfw3.WaitEvents()
		default:
			glfw3.WaitEventsTimeout(timeout.Seconds())
		}
	})
	out := b.queue
	b.queue = nil
	return append(out, b.vsync.Take()...), err
}

// Wake posts an empty event. Safe from any goroutine.
func (b *Backend) Wake() {
	b.wakeMu.RLock()
	defer b.wakeMu.RUnlock()
	if b.terminated {
		return
	}
	if err := catch("post empty event", glfw3.PostEmptyEvent); err != nil {
		b.logger.Debug("wake failed", "error", err)
	}
}

// Monitors returns the connected monitors ordered by id.
func (b *Backend) Monitors() ([]platform.MonitorInfo, error) {
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	return append([]platform.MonitorInfo(nil), b.monitors...), nil
}

func (b *Backend) scanMonitors() []platform.MonitorInfo {
	var out []platform.MonitorInfo
	for _, m := range glfw3.GetMonitors() {
		x, y := m.GetPos()
		info := platform.MonitorInfo{
			ID:     b.monitorIDs.id(m),
			Name:   m.GetName(),
			Bounds: platform.Rect{X: x, Y: y},
		}
		if mode := m.GetVideoMode(); mode != nil {
			info.Bounds.Width, info.Bounds.Height = mode.Width, mode.Height
			info.RefreshRate = float64(mode.RefreshRate)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) reloadMonitors() {
	next := b.scanMonitors()
	b.queue = append(b.queue, platform.DiffMonitors(b.monitors, next)...)
	b.monitors = next
	b.vsync.SetMonitors(next)
	for _, w := range b.sorted() {
		if !w.hasParent {
			b.place(w)
		}
	}
}

// Close destroys remaining windows and terminates GLFW.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.vsync.Close()
	err := catch("terminate", func() {
		for _, w := range b.sorted() {
			b.releaseGL(w)
			w.win.Destroy()
		}
		for _, c := range b.cursors {
			c.Destroy()
		}
		glfw3.SetMonitorCallback(nil)
	})
	b.windows = map[platform.NativeHandle]*window{}

	b.wakeMu.Lock()
	b.terminated = true
	glfw3.Terminate()
	b.wakeMu.Unlock()
	b.logger.Debug("terminated")
	return err
}
