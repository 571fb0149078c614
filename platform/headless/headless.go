// Package headless is an in-memory backend. It records every native call,
// delivers scripted raw events and keeps copies of presented frames. Tests
// use it to drive the loop deterministically; the CLI uses it when no
// display is available.
package headless

import (
	"fmt"
	"sync"
	"time"

	"github.com/1broseidon/winloop/platform"
)

// Call is one recorded backend invocation.
type Call struct {
	Op     string
	Window platform.NativeHandle
	Detail string
}

func (c Call) String() string {
	if c.Detail == "" {
		return fmt.Sprintf("%s(%d)", c.Op, c.Window)
	}
	return fmt.Sprintf("%s(%d, %s)", c.Op, c.Window, c.Detail)
}

// Options configures a Backend.
type Options struct {
	// Scale is reported for new windows. Defaults to 1.
	Scale    float64
	Monitors []platform.MonitorInfo
	// RefreshHz, when positive, starts a ticker that queues one refresh per
	// subscribed window each period. A window gets no new tick until the
	// previous one was polled.
	RefreshHz float64
	// Wait replaces the blocking wait of PollEvents. Tests pass a fake
	// clock's Advance so that polling with a timeout moves time forward.
	Wait func(time.Duration)
}

type window struct {
	opts       platform.CreateOptions
	scale      float64
	cursor     platform.Cursor
	visible    bool
	pointer    platform.Point
	subscribed bool
	tickQueued bool
	inFlight   bool
	frames     []*platform.PixelBuffer
}

// Backend implements platform.Backend in memory. It is safe for concurrent
// use so tests can inject events from other goroutines.
type Backend struct {
	mu       sync.Mutex
	next     platform.NativeHandle
	windows  map[platform.NativeHandle]*window
	queue    []platform.RawEvent
	calls    []Call
	failures map[string]error
	monitors []platform.MonitorInfo
	scale    float64
	wait     func(time.Duration)
	wake     chan struct{}
	done     chan struct{}
	closed   bool
}

var _ platform.Backend = (*Backend)(nil)

// New returns a ready backend.
func New(opts Options) *Backend {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	b := &Backend{
		next:     0x1000,
		windows:  make(map[platform.NativeHandle]*window),
		failures: make(map[string]error),
		monitors: append([]platform.MonitorInfo(nil), opts.Monitors...),
		scale:    scale,
		wait:     opts.Wait,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if opts.RefreshHz > 0 {
		go b.refreshLoop(time.Duration(float64(time.Second) / opts.RefreshHz))
	}
	return b
}

func (b *Backend) Name() string { return "headless" }

func (b *Backend) record(op string, h platform.NativeHandle, detail string) error {
	b.calls = append(b.calls, Call{Op: op, Window: h, Detail: detail})
	if err, ok := b.failures[op]; ok {
		delete(b.failures, op)
		return err
	}
	if b.closed {
		return platform.ErrBackendClosed
	}
	return nil
}

func (b *Backend) CreateWindow(opts platform.CreateOptions) (platform.NativeHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	detail := fmt.Sprintf("%q %gx%g", opts.Title, opts.Width, opts.Height)
	if opts.HasParent {
		if _, ok := b.windows[opts.Parent]; !ok {
			return 0, b.recordErr("create", 0, detail, platform.ErrUnknownWindow)
		}
		detail += fmt.Sprintf(" parent=%d", opts.Parent)
	} else if opts.RawParent.Kind != platform.HandleUnknown {
		detail += fmt.Sprintf(" raw_parent=%s:%#x", opts.RawParent.Kind, opts.RawParent.Window)
	}
	if opts.HasPosition {
		detail += fmt.Sprintf(" at=%g,%g", opts.Position.X, opts.Position.Y)
	}
	if opts.Hidden {
		detail += " hidden"
	}
	if err := b.record("create", 0, detail); err != nil {
		return 0, err
	}
	b.next++
	b.windows[b.next] = &window{opts: opts, scale: b.scale, visible: !opts.Hidden}
	return b.next, nil
}

func (b *Backend) recordErr(op string, h platform.NativeHandle, detail string, err error) error {
	b.calls = append(b.calls, Call{Op: op, Window: h, Detail: detail})
	return err
}

func (b *Backend) lookup(op string, h platform.NativeHandle, detail string) (*window, error) {
	if err := b.record(op, h, detail); err != nil {
		return nil, err
	}
	w, ok := b.windows[h]
	if !ok {
		return nil, platform.ErrUnknownWindow
	}
	return w, nil
}

// DestroyWindow forgets the window and queues its RawDestroyed confirmation
// for the next poll.
func (b *Backend) DestroyWindow(h platform.NativeHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.lookup("destroy", h, ""); err != nil {
		return err
	}
	delete(b.windows, h)
	b.queue = append(b.queue, platform.RawDestroyed{Window: h})
	return nil
}

func (b *Backend) SetCursor(h platform.NativeHandle, c platform.Cursor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("set_cursor", h, c.String())
	if err != nil {
		return err
	}
	w.cursor = c
	return nil
}

func (b *Backend) SetVisible(h platform.NativeHandle, visible bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("set_visible", h, fmt.Sprint(visible))
	if err != nil {
		return err
	}
	w.visible = visible
	return nil
}

// WarpPointer moves the simulated pointer and queues the motion a window
// system reports for it.
func (b *Backend) WarpPointer(h platform.NativeHandle, at platform.Point) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("warp_pointer", h, fmt.Sprintf("%g,%g", at.X, at.Y))
	if err != nil {
		return err
	}
	w.pointer = at
	b.queue = append(b.queue, platform.RawPointerMoved{Window: h, Position: at})
	return nil
}

func (b *Backend) ScaleFactor(h platform.NativeHandle) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("scale", h, "")
	if err != nil {
		return 0, err
	}
	return w.scale, nil
}

func (b *Backend) SubscribeRefresh(h platform.NativeHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("subscribe", h, "")
	if err != nil {
		return err
	}
	w.subscribed = true
	return nil
}

// Present keeps a copy of buf.
func (b *Backend) Present(h platform.NativeHandle, buf *platform.PixelBuffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("present", h, fmt.Sprintf("%dx%d", buf.Width, buf.Height))
	if err != nil {
		return err
	}
	if w.inFlight {
		return fmt.Errorf("headless: present on window %d with a frame in flight", h)
	}
	w.frames = append(w.frames, buf.Clone())
	w.inFlight = true
	return nil
}

// PresentRegions records a frame made of the previous frame with rects
// taken from buf. Without a previous frame of the same size the rest is
// zero.
func (b *Backend) PresentRegions(h platform.NativeHandle, buf *platform.PixelBuffer, rects []platform.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("present_regions", h, fmt.Sprintf("%dx%d rects=%d", buf.Width, buf.Height, len(rects)))
	if err != nil {
		return err
	}
	if w.inFlight {
		return fmt.Errorf("headless: present on window %d with a frame in flight", h)
	}
	var frame *platform.PixelBuffer
	if n := len(w.frames); n > 0 && w.frames[n-1].Width == buf.Width && w.frames[n-1].Height == buf.Height {
		frame = w.frames[n-1].Clone()
	} else {
		frame = platform.NewPixelBuffer(buf.Width, buf.Height)
	}
	for _, r := range rects {
		frame.CopyRect(buf, r)
	}
	w.frames = append(w.frames, frame)
	w.inFlight = true
	return nil
}

func (b *Backend) CompletePresent(h platform.NativeHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, err := b.lookup("complete_present", h, "")
	if err != nil {
		return err
	}
	w.inFlight = false
	return nil
}

func (b *Backend) RawHandle(h platform.NativeHandle) platform.RawWindowHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.windows[h]; !ok {
		return platform.RawWindowHandle{}
	}
	return platform.RawWindowHandle{Kind: platform.HandleHeadless, Window: uintptr(h)}
}

func (b *Backend) Monitors() ([]platform.MonitorInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]platform.MonitorInfo(nil), b.monitors...), nil
}

// PollEvents returns the queued events. With nothing queued it waits up to
// timeout (through Options.Wait when set) for an injection or Wake.
func (b *Backend) PollEvents(timeout time.Duration) ([]platform.RawEvent, error) {
	if evs, err := b.drain(); err != nil || len(evs) > 0 || timeout == 0 {
		return evs, err
	}

	if b.wait != nil {
		if timeout > 0 {
			b.wait(timeout)
		}
		return b.drain()
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-b.wake:
	case <-expired:
	case <-b.done:
	}
	return b.drain()
}

func (b *Backend) drain() ([]platform.RawEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	evs := b.queue
	b.queue = nil
	for _, ev := range evs {
		if r, ok := ev.(platform.RawRefresh); ok {
			if w, ok := b.windows[r.Window]; ok {
				w.tickQueued = false
			}
		}
	}
	return evs, nil
}

// Wake interrupts a blocking PollEvents.
func (b *Backend) Wake() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.calls = append(b.calls, Call{Op: "close"})
	b.closed = true
	close(b.done)
	return nil
}

func (b *Backend) refreshLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			if b.Tick() > 0 {
				b.Wake()
			}
		}
	}
}
