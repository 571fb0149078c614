// Package normalize translates raw backend events into canonical events.
package normalize

import (
	"math"

	"github.com/1broseidon/winloop/event"
	"github.com/1broseidon/winloop/platform"
)

// DefaultCoalesceThreshold is the minimum distance, in logical units, between
// two delivered pointer positions of the same window.
const DefaultCoalesceThreshold = 0.5

// Resolver maps native handles to engine windows and their current scale.
type Resolver interface {
	Resolve(h platform.NativeHandle) (id event.WindowID, scale float64, ok bool)
}

// MonitorEvent is a monitor notification, with the target window resolved
// for RawMonitorChanged.
type MonitorEvent struct {
	Window event.WindowID
	Raw    platform.RawEvent
}

// Batch is the translation of one backend poll.
type Batch struct {
	// Input holds pointer, focus, scale and close-request events in
	// backend delivery order.
	Input []event.Event
	// Refresh holds one window per pending vsync tick, first-seen order.
	Refresh []event.WindowID
	// Destroyed lists windows whose native resources are confirmed gone.
	Destroyed []event.WindowID
	Monitors  []MonitorEvent
	// Dropped counts raw events that produced nothing: unknown windows and
	// coalesced moves.
	Dropped int
}

// Empty reports whether the batch carries nothing to dispatch.
func (b *Batch) Empty() bool {
	return len(b.Input) == 0 && len(b.Refresh) == 0 && len(b.Destroyed) == 0 && len(b.Monitors) == 0
}

// Normalizer converts each raw event into zero or one canonical event.
//
// Pointer moves are coalesced in two ways: a run of moves for one window
// with nothing else for that window in between keeps only the latest, and a
// move within Threshold of the last delivered position is dropped. Any other
// event carrying a position resets the reference point.
//
// Normalizer is not safe for concurrent use.
type Normalizer struct {
	Threshold float64

	last map[event.WindowID]platform.Point
}

// New returns a Normalizer with the given coalescing threshold. Zero
// selects DefaultCoalesceThreshold and a negative threshold turns distance
// coalescing off.
func New(threshold float64) *Normalizer {
	switch {
	case threshold == 0:
		threshold = DefaultCoalesceThreshold
	case threshold < 0:
		threshold = 0
	}
	return &Normalizer{
		Threshold: threshold,
		last:      make(map[event.WindowID]platform.Point),
	}
}

// Forget drops per-window state for a retired window.
func (n *Normalizer) Forget(id event.WindowID) {
	delete(n.last, id)
}

// Translate normalizes one poll batch.
func (n *Normalizer) Translate(raws []platform.RawEvent, r Resolver) Batch {
	var b Batch
	scales := make(map[event.WindowID]float64)
	pendingMove := make(map[event.WindowID]int)
	refreshSeen := make(map[event.WindowID]bool)

	resolve := func(h platform.NativeHandle) (event.WindowID, float64, bool) {
		id, scale, ok := r.Resolve(h)
		if !ok {
			return 0, 0, false
		}
		if s, overridden := scales[id]; overridden {
			scale = s
		}
		if scale <= 0 {
			scale = 1
		}
		return id, scale, true
	}
	emit := func(id event.WindowID, ev event.Event) {
		delete(pendingMove, id)
		b.Input = append(b.Input, ev)
	}

	for _, raw := range raws {
		switch raw.(type) {
		case platform.RawMonitorAdded, platform.RawMonitorRemoved:
			b.Monitors = append(b.Monitors, MonitorEvent{Raw: raw})
			continue
		}

		id, scale, ok := resolve(mustWindow(raw))
		if !ok {
			b.Dropped++
			continue
		}

		switch e := raw.(type) {
		case platform.RawPointerMoved:
			pos := e.Position.Scale(1 / scale)
			if ref, ok := n.last[id]; ok && distance(ref, pos) < n.Threshold {
				b.Dropped++
				continue
			}
			if i, ok := pendingMove[id]; ok {
				b.Input[i] = nil
				b.Dropped++
			}
			n.last[id] = pos
			b.Input = append(b.Input, event.PointerMoved{Window: id, Position: pos})
			pendingMove[id] = len(b.Input) - 1

		case platform.RawPointerButton:
			pos := e.Position.Scale(1 / scale)
			n.last[id] = pos
			emit(id, event.PointerButton{Window: id, Button: e.Button, Pressed: e.Pressed, Position: pos})

		case platform.RawPointerScrolled:
			emit(id, event.PointerScrolled{Window: id, Delta: e.Delta})

		case platform.RawPointerEntered:
			pos := e.Position.Scale(1 / scale)
			n.last[id] = pos
			emit(id, event.PointerEntered{Window: id, Position: pos})

		case platform.RawPointerLeft:
			delete(n.last, id)
			emit(id, event.PointerLeft{Window: id})

		case platform.RawFocus:
			emit(id, event.FocusChanged{Window: id, Focused: e.Focused})

		case platform.RawScaleChanged:
			s := clampScale(e.Scale)
			if s == scale {
				b.Dropped++
				continue
			}
			scales[id] = s
			// Positions measured under the old scale are no longer
			// comparable.
			delete(n.last, id)
			emit(id, event.ScaleFactorChanged{Window: id, Scale: s})

		case platform.RawCloseRequested:
			emit(id, event.CloseRequested{Window: id})

		case platform.RawRefresh:
			if refreshSeen[id] {
				b.Dropped++
				continue
			}
			refreshSeen[id] = true
			b.Refresh = append(b.Refresh, id)

		case platform.RawDestroyed:
			delete(pendingMove, id)
			b.Destroyed = append(b.Destroyed, id)

		case platform.RawMonitorChanged:
			b.Monitors = append(b.Monitors, MonitorEvent{Window: id, Raw: raw})

		default:
			b.Dropped++
		}
	}

	b.Input = compact(b.Input)
	return b
}

// ClampScale bounds a reported scale factor to the supported range.
func ClampScale(s float64) float64 {
	return clampScale(s)
}

func clampScale(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 1 {
		return 1
	}
	return s
}

func mustWindow(raw platform.RawEvent) platform.NativeHandle {
	h, _ := platform.WindowOf(raw)
	return h
}

func distance(a, b platform.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func compact(evs []event.Event) []event.Event {
	out := evs[:0]
	for _, ev := range evs {
		if ev != nil {
			out = append(out, ev)
		}
	}
	return out
}
