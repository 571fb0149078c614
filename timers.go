package winloop

import (
	"time"

	"github.com/1broseidon/winloop/internal/timer"
)

// After arms a one-shot global timer. Timer methods must be called on the
// loop goroutine.
func (l *EventLoop) After(d time.Duration, fn func(TimerID)) TimerID {
	return l.schedule(d, 0, 0, fn)
}

// Every arms a repeating global timer. The first firing is one interval
// from now; later firings stay on that grid even when the loop runs late.
// It panics if d is not positive.
func (l *EventLoop) Every(d time.Duration, fn func(TimerID)) TimerID {
	if d <= 0 {
		panic("winloop: non-positive interval for Every")
	}
	return l.schedule(d, d, 0, fn)
}

// AfterWindow arms a one-shot timer owned by w. It is cancelled when w
// reaches Closed.
func (l *EventLoop) AfterWindow(w *Window, d time.Duration, fn func(TimerID)) (TimerID, error) {
	if w.loop != l || w.state == StateClosed {
		return 0, ErrWindowClosed
	}
	return l.schedule(d, 0, w.id, fn), nil
}

// EveryWindow arms a repeating timer owned by w.
func (l *EventLoop) EveryWindow(w *Window, d time.Duration, fn func(TimerID)) (TimerID, error) {
	if d <= 0 {
		panic("winloop: non-positive interval for EveryWindow")
	}
	if w.loop != l || w.state == StateClosed {
		return 0, ErrWindowClosed
	}
	return l.schedule(d, d, w.id, fn), nil
}

// Cancel disarms a timer. A timer cancelled while already due in the
// current pass does not fire. It reports whether the timer was armed.
func (l *EventLoop) Cancel(id TimerID) bool {
	return l.timers.Cancel(timer.ID(id))
}

// TimerPending reports whether id is still armed.
func (l *EventLoop) TimerPending(id TimerID) bool {
	return l.timers.Pending(timer.ID(id))
}

func (l *EventLoop) schedule(d, interval time.Duration, owner WindowID, fn func(TimerID)) TimerID {
	if d < 0 {
		d = 0
	}
	id := l.timers.Schedule(l.clock().Add(d), interval, timer.Owner(owner), func(id timer.ID) {
		if fn == nil {
			return
		}
		l.guard(owner, "timer", func() { fn(TimerID(id)) })
	})
	return TimerID(id)
}
