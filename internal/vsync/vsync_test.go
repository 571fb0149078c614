package vsync

import (
	"testing"
	"time"

	"github.com/1broseidon/winloop/platform"
)

func TestMarkCoalescesUntilTaken(t *testing.T) {
	s := New(1, nil)
	defer s.Close()
	s.Subscribe(10, 0)
	s.Subscribe(11, 1)

	if n := s.Mark(0); n != 1 {
		t.Fatalf("Mark(0) = %d, want 1", n)
	}
	if n := s.Mark(0); n != 0 {
		t.Fatalf("second Mark(0) = %d, want 0 (coalesced)", n)
	}
	evs := s.Take()
	if len(evs) != 1 || evs[0] != (platform.RawRefresh{Window: 10}) {
		t.Fatalf("Take = %v", evs)
	}
	if s.Pending() {
		t.Fatalf("ticks pending after Take")
	}
	if n := s.Mark(0); n != 1 {
		t.Fatalf("Mark after Take = %d, want 1", n)
	}
}

func TestSubscribeMovesWindow(t *testing.T) {
	s := New(1, nil)
	defer s.Close()
	s.Subscribe(10, Unplaced)
	s.Subscribe(10, 2)

	if n := s.Mark(Unplaced); n != 0 {
		t.Fatalf("old monitor still ticks the window")
	}
	if n := s.Mark(2); n != 1 {
		t.Fatalf("new monitor does not tick the window")
	}
	s.Unsubscribe(10)
	if s.Pending() {
		t.Fatalf("unsubscribe left a pending tick")
	}
}

func TestTickerWakes(t *testing.T) {
	woke := make(chan struct{}, 1)
	s := New(1, func() {
		select {
		case woke <- struct{}{}:
		default:
		}
	})
	defer s.Close()
	s.Subscribe(7, 3)
	s.SetMonitors([]platform.MonitorInfo{{ID: 3, RefreshRate: 200}})

	select {
	case <-woke:
	case <-time.After(2 * time.Second):
		t.Fatalf("ticker never woke the loop")
	}
	if evs := s.Take(); len(evs) != 1 {
		t.Fatalf("Take = %v, want one refresh", evs)
	}
}

func TestPeriod(t *testing.T) {
	if p := Period(50); p != 20*time.Millisecond {
		t.Fatalf("Period(50) = %v", p)
	}
}
