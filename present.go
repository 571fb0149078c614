package winloop

import (
	"fmt"

	"github.com/1broseidon/winloop/platform"
)

// Present copies buf onto the window's surface. The buffer must be exactly
// PhysicalSize in the canonical layout (see platform.PixelBuffer); the
// caller keeps ownership and may reuse it as soon as Present returns.
//
// A window holds at most one frame in flight. Presenting again before the
// loop completed the previous frame waits for the backend to finish it.
// Call Present in response to RefreshRequested to stay in step with the
// display.
func (w *Window) Present(buf *platform.PixelBuffer) error {
	return w.present(buf, nil, false)
}

// PresentRegions is Present limited to rects, in physical pixels. Only the
// pixels of buf inside rects reach the surface; the rest keeps what was
// presented before. Rects are clipped to the surface, and a call whose
// rects all fall outside it draws nothing.
func (w *Window) PresentRegions(buf *platform.PixelBuffer, rects []platform.Rect) error {
	return w.present(buf, rects, true)
}

func (w *Window) present(buf *platform.PixelBuffer, rects []platform.Rect, partial bool) error {
	l := w.loop
	if err := l.checkUsable(); err != nil {
		return err
	}
	if w.state != StateOpen {
		return ErrWindowClosed
	}
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("winloop: window %d: %w", w.id, err)
	}
	if buf.Width != w.pw || buf.Height != w.ph {
		return &SizeMismatch{Window: w.id, Width: buf.Width, Height: buf.Height, Want: [2]int{w.pw, w.ph}}
	}
	if partial {
		if rects = platform.ClipRects(rects, w.pw, w.ph); len(rects) == 0 {
			return nil
		}
	}

	if w.inFlight {
		w.inFlight = false
		if err := l.backend.CompletePresent(w.native); err != nil {
			return l.failWindow(w, "complete present", err)
		}
	}
	var err error
	op := "present"
	if partial {
		op = "present regions"
		err = l.backend.PresentRegions(w.native, buf, rects)
	} else {
		err = l.backend.Present(w.native, buf)
	}
	if err != nil {
		return l.failWindow(w, op, err)
	}
	w.inFlight = true
	l.out.Presented++
	return nil
}
