package headless

import (
	"sort"

	"github.com/1broseidon/winloop/platform"
)

// Inject queues raw events for the next poll and wakes the loop.
func (b *Backend) Inject(evs ...platform.RawEvent) {
	b.mu.Lock()
	b.queue = append(b.queue, evs...)
	b.mu.Unlock()
	b.Wake()
}

// Tick queues one refresh for every subscribed window that has no refresh
// pending, and returns how many were queued.
func (b *Backend) Tick() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, h := range b.handlesLocked() {
		w := b.windows[h]
		if !w.subscribed || w.tickQueued {
			continue
		}
		w.tickQueued = true
		b.queue = append(b.queue, platform.RawRefresh{Window: h})
		n++
	}
	return n
}

// SetScale changes a window's DPI and queues the notification.
func (b *Backend) SetScale(h platform.NativeHandle, scale float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.windows[h]; ok {
		w.scale = scale
		b.queue = append(b.queue, platform.RawScaleChanged{Window: h, Scale: scale})
	}
}

// RequestClose simulates the user clicking the window's close control.
func (b *Backend) RequestClose(h platform.NativeHandle) {
	b.Inject(platform.RawCloseRequested{Window: h})
}

// MoveToMonitor simulates the window moving to another display.
func (b *Backend) MoveToMonitor(h platform.NativeHandle, id platform.MonitorID) {
	b.Inject(platform.RawMonitorChanged{Window: h, Monitor: id})
}

// AddMonitor connects a display.
func (b *Backend) AddMonitor(m platform.MonitorInfo) {
	b.mu.Lock()
	b.monitors = append(b.monitors, m)
	b.mu.Unlock()
	b.Inject(platform.RawMonitorAdded{Monitor: m})
}

// RemoveMonitor disconnects a display.
func (b *Backend) RemoveMonitor(id platform.MonitorID) {
	b.mu.Lock()
	kept := b.monitors[:0]
	for _, m := range b.monitors {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	b.monitors = kept
	b.mu.Unlock()
	b.Inject(platform.RawMonitorRemoved{Monitor: id})
}

// FailNext makes the next call of op ("create", "destroy", "set_cursor",
// "set_visible", "warp_pointer", "scale", "subscribe", "present",
// "present_regions", "complete_present") return err.
func (b *Backend) FailNext(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = err
}

// Calls returns every recorded call in order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsOf returns the recorded calls of one operation.
func (b *Backend) CallsOf(op string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Call
	for _, c := range b.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Frames returns copies of the buffers presented to h.
func (b *Backend) Frames(h platform.NativeHandle) []*platform.PixelBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.windows[h]; ok {
		return append([]*platform.PixelBuffer(nil), w.frames...)
	}
	return nil
}

// Handles returns the live native windows in creation order.
func (b *Backend) Handles() []platform.NativeHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handlesLocked()
}

func (b *Backend) handlesLocked() []platform.NativeHandle {
	hs := make([]platform.NativeHandle, 0, len(b.windows))
	for h := range b.windows {
		hs = append(hs, h)
	}
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })
	return hs
}

// Alive reports whether h has not been destroyed.
func (b *Backend) Alive(h platform.NativeHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.windows[h]
	return ok
}

// CursorOf returns the cursor last set on h.
func (b *Backend) CursorOf(h platform.NativeHandle) platform.Cursor {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.windows[h]; ok {
		return w.cursor
	}
	return platform.CursorArrow
}

// Visible reports whether h is currently shown.
func (b *Backend) Visible(h platform.NativeHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[h]
	return ok && w.visible
}

// PointerOf returns the last position h warped the pointer to.
func (b *Backend) PointerOf(h platform.NativeHandle) platform.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.windows[h]; ok {
		return w.pointer
	}
	return platform.Point{}
}
