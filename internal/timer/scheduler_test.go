package timer

import (
	"testing"
	"time"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return base.Add(time.Duration(ms) * time.Millisecond) }

func TestFireDue_OrdersByDeadlineThenCreation(t *testing.T) {
	s := NewScheduler()
	var order []string
	record := func(name string) Func {
		return func(ID) { order = append(order, name) }
	}

	s.Schedule(at(30), 0, 0, record("c"))
	s.Schedule(at(10), 0, 0, record("a1"))
	s.Schedule(at(20), 0, 0, record("b"))
	s.Schedule(at(10), 0, 0, record("a2"))
	s.Schedule(at(50), 0, 0, record("late"))

	if n := s.FireDue(at(30)); n != 4 {
		t.Fatalf("FireDue fired %d, want 4", n)
	}
	want := []string{"a1", "a2", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (late timer)", s.Len())
	}
}

func TestFireDue_CancelFromAnotherCallbackPreventsFiring(t *testing.T) {
	s := NewScheduler()
	var victim ID
	fired := map[string]int{}

	s.Schedule(at(5), 0, 0, func(ID) {
		fired["killer"]++
		if !s.Cancel(victim) {
			t.Errorf("expected victim to be armed when cancelled")
		}
	})
	victim = s.Schedule(at(5), 0, 0, func(ID) { fired["victim"]++ })

	s.FireDue(at(10))
	if fired["killer"] != 1 {
		t.Fatalf("killer fired %d times", fired["killer"])
	}
	if fired["victim"] != 0 {
		t.Fatalf("cancelled timer fired %d times", fired["victim"])
	}
	if s.Pending(victim) {
		t.Fatalf("victim still pending")
	}
}

func TestFireDue_RepeatingTimerDoesNotDrift(t *testing.T) {
	s := NewScheduler()
	var fires []time.Time
	now := at(0)
	id := s.Schedule(at(16), 16*time.Millisecond, 0, func(ID) { fires = append(fires, now) })

	// Process each tick a little late; the schedule must stay on the 16ms grid.
	for i := 1; i <= 100; i++ {
		now = at(16*i + 3)
		s.FireDue(now)
	}
	if len(fires) != 100 {
		t.Fatalf("fired %d times, want 100", len(fires))
	}
	deadline, ok := s.Deadline(id)
	if !ok {
		t.Fatalf("repeating timer disarmed")
	}
	if want := at(16 * 101); !deadline.Equal(want) {
		t.Fatalf("next deadline %v, want %v (drift %v)", deadline, want, deadline.Sub(want))
	}
}

func TestFireDue_RepeatingTimerSkipsMissedIntervals(t *testing.T) {
	s := NewScheduler()
	count := 0
	id := s.Schedule(at(10), 10*time.Millisecond, 0, func(ID) { count++ })

	s.FireDue(at(55))
	if count != 1 {
		t.Fatalf("fired %d times after a stall, want 1", count)
	}
	deadline, _ := s.Deadline(id)
	if want := at(60); !deadline.Equal(want) {
		t.Fatalf("deadline after stall = %v, want %v", deadline, want)
	}
}

func TestFireDue_TimerScheduledDuringPassWaitsForNextPass(t *testing.T) {
	s := NewScheduler()
	inner := 0
	s.Schedule(at(0), 0, 0, func(ID) {
		s.Schedule(at(0), 0, 0, func(ID) { inner++ })
	})

	if n := s.FireDue(at(1)); n != 1 {
		t.Fatalf("first pass fired %d, want 1", n)
	}
	if inner != 0 {
		t.Fatalf("timer armed mid-pass fired in the same pass")
	}
	s.FireDue(at(1))
	if inner != 1 {
		t.Fatalf("inner fired %d times, want 1", inner)
	}
}

func TestNextWakeSkipsCancelled(t *testing.T) {
	s := NewScheduler()
	if _, ok := s.NextWake(); ok {
		t.Fatalf("empty scheduler reported a wake time")
	}
	first := s.Schedule(at(5), 0, 0, nil)
	s.Schedule(at(9), 0, 0, nil)
	s.Cancel(first)

	wake, ok := s.NextWake()
	if !ok || !wake.Equal(at(9)) {
		t.Fatalf("NextWake = %v,%v want %v", wake, ok, at(9))
	}
}

func TestCancelOwner(t *testing.T) {
	s := NewScheduler()
	fired := 0
	s.Schedule(at(1), 0, 7, func(ID) { fired++ })
	s.Schedule(at(1), time.Millisecond, 7, func(ID) { fired++ })
	s.Schedule(at(1), 0, 8, func(ID) { fired++ })

	if n := s.CancelOwner(7); n != 2 {
		t.Fatalf("CancelOwner = %d, want 2", n)
	}
	if n := s.CancelOwner(0); n != 0 {
		t.Fatalf("CancelOwner(0) = %d, want 0", n)
	}
	s.FireDue(at(2))
	if fired != 1 {
		t.Fatalf("fired %d, want 1", fired)
	}
}

func TestRepeatingTimerCancellingItselfStops(t *testing.T) {
	s := NewScheduler()
	count := 0
	var id ID
	id = s.Schedule(at(1), time.Millisecond, 0, func(ID) {
		count++
		if count == 2 {
			s.Cancel(id)
		}
	})
	for i := 1; i <= 5; i++ {
		s.FireDue(at(i))
	}
	if count != 2 {
		t.Fatalf("fired %d times, want 2", count)
	}
}
