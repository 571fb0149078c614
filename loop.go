// Package winloop is a single-threaded window and event loop engine.
//
// An EventLoop owns every window, timer and the native backend connection.
// All of its methods, and the methods of the windows it creates, must be
// called from the goroutine that constructed it; use a Proxy to reach the
// loop from other goroutines.
//
// One iteration of the loop waits for native events, bounded by the next
// timer deadline, then dispatches in a fixed order: pointer and focus input
// in backend delivery order, refresh ticks, Closed events, due timers, proxy
// requests. Native destroys and in-flight presentations are completed at the
// end of the iteration.
package winloop

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sort"
	"time"

	"github.com/1broseidon/winloop/event"
	"github.com/1broseidon/winloop/internal/goid"
	"github.com/1broseidon/winloop/internal/handle"
	"github.com/1broseidon/winloop/internal/normalize"
	"github.com/1broseidon/winloop/internal/timer"
	"github.com/1broseidon/winloop/platform"
)

// Outcome summarizes one loop iteration.
type Outcome struct {
	// Events counts canonical events delivered to handlers.
	Events      int
	TimersFired int
	Presented   int
	// Stopped is set when Stop was called or the last window closed.
	Stopped bool
	// Idle is set when the iteration did no work at all.
	Idle bool
	// Errors holds recovered handler panics and window backend failures.
	Errors []error
}

// EventLoop is the application context. See the package documentation for
// the threading rules.
type EventLoop struct {
	backend platform.Backend
	logger  *slog.Logger
	clock   func() time.Time
	mode    LoopMode
	owner   uint64

	windows  *handle.Table[*Window]
	natives  map[platform.NativeHandle]*Window
	timers   *timer.Scheduler
	norm     *normalize.Normalizer
	monitors map[platform.MonitorID]Monitor
	proxy    *Proxy

	// pendingClosed holds windows whose Closed event is due.
	pendingClosed []*Window

	out        *Outcome
	iterating  bool
	stop       bool
	everOpened bool
	closed     bool
	proxyWork  int
}

// New creates a loop owned by the calling goroutine, which is locked to its
// OS thread.
func New(opts Options) (*EventLoop, error) {
	if opts.Backend == nil {
		return nil, errors.New("winloop: Options.Backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	runtime.LockOSThread()

	l := &EventLoop{
		backend:  opts.Backend,
		logger:   logger.With("backend", opts.Backend.Name()),
		clock:    clock,
		mode:     opts.Mode,
		owner:    goid.Current(),
		windows:  handle.New[*Window](),
		natives:  make(map[platform.NativeHandle]*Window),
		timers:   timer.NewScheduler(),
		norm:     normalize.New(opts.CoalesceThreshold),
		monitors: make(map[platform.MonitorID]Monitor),
		out:      &Outcome{},
	}
	l.proxy = newProxy(opts.Backend.Wake, l.owner)

	infos, err := opts.Backend.Monitors()
	if err != nil {
		l.logger.Warn("listing monitors failed", "error", err)
	}
	for _, m := range infos {
		l.monitors[m.ID] = m
	}

	l.logger.Debug("event loop created", "mode", l.mode, "monitors", len(infos))
	return l, nil
}

// Logger returns the loop's logger.
func (l *EventLoop) Logger() *slog.Logger { return l.logger }

// Now returns the loop clock's current time.
func (l *EventLoop) Now() time.Time { return l.clock() }

// BackendName names the backend the loop drives.
func (l *EventLoop) BackendName() string { return l.backend.Name() }

// Mode reports who drives the native pump.
func (l *EventLoop) Mode() LoopMode { return l.mode }

// Proxy returns the goroutine-safe handle to the loop.
func (l *EventLoop) Proxy() *Proxy { return l.proxy }

func (l *EventLoop) checkThread() error {
	if goid.Current() != l.owner {
		return ErrNotLoopThread
	}
	return nil
}

func (l *EventLoop) checkUsable() error {
	if l.closed {
		return ErrLoopClosed
	}
	return l.checkThread()
}

// Stop makes Run return after the current iteration.
func (l *EventLoop) Stop() {
	l.stop = true
}

// Run drives the loop until Stop is called or, once at least one window has
// been opened, the last window closes. Recovered handler panics are logged
// and do not end the loop; a failure of the backend's event source does.
func (l *EventLoop) Run() error {
	if err := l.checkUsable(); err != nil {
		return err
	}
	if l.iterating {
		return ErrReentrantLoop
	}
	if l.mode == ModeGuest {
		return ErrGuestMode
	}

	l.logger.Debug("event loop running")
	for {
		out, err := l.iterate(-1)
		if err != nil {
			return err
		}
		if out.Stopped {
			l.logger.Debug("event loop stopped")
			return nil
		}
	}
}

// RunOnce performs one iteration. The wait for native events is bounded by
// timeout and by the next timer deadline; a zero timeout never blocks and a
// negative one waits until there is something to do.
func (l *EventLoop) RunOnce(timeout time.Duration) (Outcome, error) {
	if err := l.checkUsable(); err != nil {
		return Outcome{}, err
	}
	if l.iterating {
		return Outcome{}, ErrReentrantLoop
	}
	if l.mode == ModeGuest && timeout != 0 {
		return Outcome{}, ErrGuestMode
	}
	return l.iterate(timeout)
}

func (l *EventLoop) iterate(timeout time.Duration) (Outcome, error) {
	out := Outcome{}
	l.out = &out
	l.iterating = true
	defer func() {
		l.iterating = false
		l.out = &Outcome{}
	}()

	raws, err := l.backend.PollEvents(l.waitBound(timeout))
	if err != nil {
		if errors.Is(err, platform.ErrBackendClosed) {
			return out, ErrLoopClosed
		}
		return out, &BackendFailure{Op: "poll events", Err: err}
	}

	batch := l.norm.Translate(raws, resolver{l})
	if batch.Dropped > 0 {
		l.logger.Debug("raw events dropped", "count", batch.Dropped)
	}
	l.applyMonitors(batch.Monitors)

	for _, ev := range batch.Input {
		l.dispatchInput(ev)
	}
	for _, id := range batch.Refresh {
		if w := l.lookup(id); w != nil && w.state == StateOpen {
			l.deliver(w, event.RefreshRequested{Window: id})
		}
	}
	for _, id := range batch.Destroyed {
		if w := l.lookup(id); w != nil {
			l.confirmDestroyed(w)
		}
	}
	l.flushClosed()

	out.TimersFired = l.timers.FireDue(l.clock())

	l.runProxy()
	l.issueDestroys()
	l.completePresents()
	l.flushClosed()

	if l.stop {
		l.stop = false
		out.Stopped = true
	}
	if l.everOpened && l.windows.Len() == 0 {
		out.Stopped = true
	}
	out.Idle = len(raws) == 0 && out.Events == 0 && out.TimersFired == 0 &&
		out.Presented == 0 && l.proxyWork == 0
	l.proxyWork = 0
	return out, nil
}

// waitBound computes how long PollEvents may block.
func (l *EventLoop) waitBound(timeout time.Duration) time.Duration {
	if len(l.pendingClosed) > 0 || l.proxy.pending() || l.stop {
		return 0
	}
	bound := timeout
	if next, ok := l.timers.NextWake(); ok {
		d := next.Sub(l.clock())
		if d < 0 {
			d = 0
		}
		if bound < 0 || d < bound {
			bound = d
		}
	}
	return bound
}

func (l *EventLoop) lookup(id WindowID) *Window {
	w, ok := l.windows.Get(handle.ID(id))
	if !ok {
		return nil
	}
	return w
}

// Window returns the live window with the given id.
func (l *EventLoop) Window(id WindowID) (*Window, bool) {
	w := l.lookup(id)
	return w, w != nil
}

// Windows returns the live windows in creation order.
func (l *EventLoop) Windows() []*Window {
	out := make([]*Window, 0, l.windows.Len())
	l.windows.Each(func(_ handle.ID, w *Window) {
		out = append(out, w)
	})
	return out
}

func (l *EventLoop) dispatchInput(ev Event) {
	w := l.lookup(ev.Target())
	if w == nil {
		return
	}
	switch e := ev.(type) {
	case event.ScaleFactorChanged:
		if w.state == StateClosed {
			return
		}
		w.applyScale(e.Scale)
		l.deliver(w, ev)
	case event.CloseRequested:
		if w.state != StateOpen {
			return
		}
		l.deliver(w, ev)
		l.beginClose(w)
	default:
		if w.state != StateOpen {
			return
		}
		l.deliver(w, ev)
	}
}

// deliver invokes the window's handler with panic recovery.
func (l *EventLoop) deliver(w *Window, ev Event) {
	l.out.Events++
	l.guard(w.id, event.Name(ev), func() {
		w.handler.HandleEvent(w.id, ev)
	})
}

// guard runs fn and converts a panic into a HandlerPanic.
func (l *EventLoop) guard(id WindowID, source string, fn func()) {
	wasIterating := l.iterating
	l.iterating = true
	defer func() {
		l.iterating = wasIterating
		if v := recover(); v != nil {
			p := &HandlerPanic{Window: id, Source: source, Value: v, Stack: debug.Stack()}
			l.logger.Error("callback panic recovered", "window", id, "source", source, "panic", v)
			l.out.Errors = append(l.out.Errors, p)
		}
	}()
	fn()
}

func (l *EventLoop) applyMonitors(evs []normalize.MonitorEvent) {
	for _, me := range evs {
		switch e := me.Raw.(type) {
		case platform.RawMonitorAdded:
			l.monitors[e.Monitor.ID] = e.Monitor
			l.logger.Debug("monitor added", "monitor", e.Monitor.ID, "name", e.Monitor.Name, "refresh_hz", e.Monitor.RefreshRate)
		case platform.RawMonitorRemoved:
			delete(l.monitors, e.Monitor)
			l.logger.Debug("monitor removed", "monitor", e.Monitor)
		case platform.RawMonitorChanged:
			w := l.lookup(me.Window)
			if w == nil || w.state == StateClosed {
				continue
			}
			w.monitor = e.Monitor
			w.hasMonitor = true
			if err := l.backend.SubscribeRefresh(w.native); err != nil {
				l.failWindow(w, "subscribe refresh", err)
			}
		}
	}
}

// Monitors returns the connected displays ordered by id.
func (l *EventLoop) Monitors() []Monitor {
	out := make([]Monitor, 0, len(l.monitors))
	for _, m := range l.monitors {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// issueDestroys releases native windows that are Closing and have no live
// children left.
func (l *EventLoop) issueDestroys() {
	l.windows.Each(func(_ handle.ID, w *Window) {
		if w.state != StateClosing || w.destroyIssued || len(l.liveChildren(w)) > 0 {
			return
		}
		w.destroyIssued = true
		l.logger.Debug("destroying native window", "window", w.id)
		if err := l.backend.DestroyWindow(w.native); err != nil {
			l.failWindow(w, "destroy window", err)
		}
	})
}

func (l *EventLoop) completePresents() {
	l.windows.Each(func(_ handle.ID, w *Window) {
		if !w.inFlight || w.state == StateClosed {
			return
		}
		w.inFlight = false
		if err := l.backend.CompletePresent(w.native); err != nil {
			l.failWindow(w, "complete present", err)
		}
	})
}

// Close destroys every remaining window, delivering their Closed events,
// cancels all timers, fails pending proxy requests with ErrLoopClosed and
// closes the backend. Native destroys are not awaited.
func (l *EventLoop) Close() error {
	if l.closed {
		return nil
	}
	if err := l.checkThread(); err != nil {
		return err
	}
	if l.iterating {
		return ErrReentrantLoop
	}

	l.iterating = true
	ids := l.windows.IDs()
	// Children always have larger ids than their parents.
	for i := len(ids) - 1; i >= 0; i-- {
		w, ok := l.windows.Get(ids[i])
		if !ok {
			continue
		}
		if w.state != StateClosed && !w.destroyIssued {
			w.destroyIssued = true
			if err := l.backend.DestroyWindow(w.native); err != nil {
				l.logger.Warn("destroy on close failed", "window", w.id, "error", err)
			}
		}
		l.retire(w)
	}
	l.pendingClosed = nil
	l.iterating = false

	n := l.timers.CancelAll()
	l.proxy.close()
	l.closed = true
	runtime.UnlockOSThread()

	l.logger.Debug("event loop closed", "timers_cancelled", n)
	if err := l.backend.Close(); err != nil {
		return fmt.Errorf("winloop: close backend: %w", err)
	}
	return nil
}

type resolver struct{ l *EventLoop }

func (r resolver) Resolve(h platform.NativeHandle) (WindowID, float64, bool) {
	w, ok := r.l.natives[h]
	if !ok {
		return 0, 0, false
	}
	return w.id, w.scale, true
}
