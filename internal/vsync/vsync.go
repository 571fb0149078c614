// Package vsync emulates per-monitor refresh notifications with tickers
// for backends whose window system has no vblank event.
package vsync

import (
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/winloop/platform"
)

// Unplaced is the monitor of windows whose display is not known yet. They
// tick at the fallback rate.
const Unplaced platform.MonitorID = -1

// Source ticks subscribed windows at their monitor's refresh rate. A
// window has at most one tick pending: further ticks coalesce until Take
// hands it out.
//
// Source is safe for concurrent use.
type Source struct {
	mu       sync.Mutex
	fallback float64
	wake     func()
	subs     map[platform.NativeHandle]platform.MonitorID
	due      map[platform.NativeHandle]struct{}
	tickers  map[platform.MonitorID]chan struct{}
	closed   bool
}

// New returns a Source that calls wake after a tick marks new work.
func New(fallbackHz float64, wake func()) *Source {
	if fallbackHz <= 0 {
		fallbackHz = 60
	}
	s := &Source{
		fallback: fallbackHz,
		wake:     wake,
		subs:     make(map[platform.NativeHandle]platform.MonitorID),
		due:      make(map[platform.NativeHandle]struct{}),
		tickers:  make(map[platform.MonitorID]chan struct{}),
	}
	s.SetMonitors(nil)
	return s
}

// SetMonitors replaces the tickers with one per monitor.
func (s *Source) SetMonitors(monitors []platform.MonitorInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopLocked()
	rates := map[platform.MonitorID]float64{Unplaced: s.fallback}
	for _, m := range monitors {
		hz := m.RefreshRate
		if hz <= 0 {
			hz = s.fallback
		}
		rates[m.ID] = hz
	}
	for id, hz := range rates {
		stop := make(chan struct{})
		s.tickers[id] = stop
		go s.run(id, Period(hz), stop)
	}
}

// Period converts a refresh rate to a tick interval.
func Period(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

func (s *Source) stopLocked() {
	for id, stop := range s.tickers {
		close(stop)
		delete(s.tickers, id)
	}
}

func (s *Source) run(monitor platform.MonitorID, period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.Mark(monitor) > 0 && s.wake != nil {
				s.wake()
			}
		}
	}
}

// Subscribe starts or moves h's ticks to monitor.
func (s *Source) Subscribe(h platform.NativeHandle, monitor platform.MonitorID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[h] = monitor
}

// Unsubscribe stops h's ticks and drops a pending one.
func (s *Source) Unsubscribe(h platform.NativeHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, h)
	delete(s.due, h)
}

// Mark flags every window subscribed on monitor and returns how many were
// newly flagged. Tickers call it; tests call it directly.
func (s *Source) Mark(monitor platform.MonitorID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for h, m := range s.subs {
		if m != monitor {
			continue
		}
		if _, ok := s.due[h]; !ok {
			s.due[h] = struct{}{}
			n++
		}
	}
	return n
}

// Pending reports whether a tick is waiting.
func (s *Source) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.due) > 0
}

// Take returns the pending ticks as refresh events ordered by handle.
func (s *Source) Take() []platform.RawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.due) == 0 {
		return nil
	}
	hs := make([]platform.NativeHandle, 0, len(s.due))
	for h := range s.due {
		hs = append(hs, h)
	}
	s.due = make(map[platform.NativeHandle]struct{})
	sort.Slice(hs, func(i, j int) bool { return hs[i] < hs[j] })

	out := make([]platform.RawEvent, len(hs))
	for i, h := range hs {
		out[i] = platform.RawRefresh{Window: h}
	}
	return out
}

// Close stops all tickers.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
}
