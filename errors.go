package winloop

import (
	"errors"
	"fmt"
)

var (
	// ErrParentUnavailable is returned by Open when the requested parent is
	// not Open.
	ErrParentUnavailable = errors.New("winloop: parent window is not open")
	// ErrReentrantLoop is returned by Run and RunOnce when called from a
	// handler, timer or proxy callback.
	ErrReentrantLoop = errors.New("winloop: event loop re-entered from a callback")
	// ErrNotLoopThread is returned when a loop-thread operation is called
	// from another goroutine.
	ErrNotLoopThread = errors.New("winloop: called off the loop goroutine")
	// ErrWindowClosed is returned by mutators of a window that is no longer
	// Open.
	ErrWindowClosed = errors.New("winloop: window is closed")
	// ErrLoopClosed is returned after Close.
	ErrLoopClosed = errors.New("winloop: event loop closed")
	// ErrGuestMode is returned by Run, and by RunOnce with a non-zero
	// timeout, on a loop whose host owns the native pump.
	ErrGuestMode = errors.New("winloop: loop runs in guest mode")
)

// OpenError reports a failed native window creation. No window is
// registered when it is returned.
type OpenError struct {
	Title string
	Err   error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("winloop: open window %q: %v", e.Title, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// SizeMismatch is returned by Present when the buffer does not match the
// window's physical size. Nothing is drawn.
type SizeMismatch struct {
	Window        WindowID
	Width, Height int
	Want          [2]int
}

func (e *SizeMismatch) Error() string {
	return fmt.Sprintf("winloop: window %d: buffer is %dx%d, surface is %dx%d",
		e.Window, e.Width, e.Height, e.Want[0], e.Want[1])
}

// BackendFailure reports an unexpected native error. When Window is
// non-zero that window has been moved to Closed with Err as the cause.
type BackendFailure struct {
	Window WindowID
	Op     string
	Err    error
}

func (e *BackendFailure) Error() string {
	if e.Window == 0 {
		return fmt.Sprintf("winloop: backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("winloop: window %d: backend %s: %v", e.Window, e.Op, e.Err)
}

func (e *BackendFailure) Unwrap() error { return e.Err }

// HandlerPanic records a panic recovered from an application callback.
type HandlerPanic struct {
	Window WindowID
	// Source is the event name, "timer" or "proxy".
	Source string
	Value  any
	Stack  []byte
}

func (e *HandlerPanic) Error() string {
	if e.Window == 0 {
		return fmt.Sprintf("winloop: %s callback panicked: %v", e.Source, e.Value)
	}
	return fmt.Sprintf("winloop: window %d: %s handler panicked: %v", e.Window, e.Source, e.Value)
}

// Unwrap exposes the panic value when it was an error.
func (e *HandlerPanic) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
