package main

import (
	"log/slog"

	"github.com/1broseidon/winloop"
	"github.com/1broseidon/winloop/event"
	"github.com/1broseidon/winloop/platform"
)

// demoCursors is the order a left click cycles through.
var demoCursors = []platform.Cursor{
	platform.CursorArrow,
	platform.CursorHand,
	platform.CursorCrosshair,
	platform.CursorIBeam,
	platform.CursorWait,
}

// demo animates a scrolling gradient in every window it opened. A left click
// changes the cursor and a right click closes the window.
type demo struct {
	loop   *winloop.EventLoop
	logger *slog.Logger
	frames map[winloop.WindowID]*demoFrame
}

type demoFrame struct {
	buf    *platform.PixelBuffer
	tick   int
	cursor platform.Cursor
}

func newDemo(l *winloop.EventLoop, logger *slog.Logger) *demo {
	return &demo{
		loop:   l,
		logger: logger,
		frames: make(map[winloop.WindowID]*demoFrame),
	}
}

// open is an ipc.OpenFunc: windows opened over the control socket animate
// like the initial one.
func (d *demo) open(l *winloop.EventLoop, opts winloop.WindowOptions) (*winloop.Window, error) {
	w, err := l.Open(opts, winloop.HandlerFunc(d.handle))
	if err != nil {
		return nil, err
	}
	d.frame(w.ID()).cursor = opts.Cursor
	d.logger.Info("window opened", "window", w.ID(), "title", opts.Title, "scale", w.ScaleFactor())
	return w, nil
}

func (d *demo) frame(id winloop.WindowID) *demoFrame {
	f, ok := d.frames[id]
	if !ok {
		f = &demoFrame{}
		d.frames[id] = f
	}
	return f
}

func (d *demo) handle(id winloop.WindowID, ev winloop.Event) {
	switch e := ev.(type) {
	case event.RefreshRequested:
		d.redraw(id)
	case event.PointerButton:
		if !e.Pressed {
			return
		}
		w, ok := d.loop.Window(id)
		if !ok {
			return
		}
		switch e.Button {
		case platform.ButtonLeft:
			f := d.frame(id)
			f.cursor = nextCursor(f.cursor)
			if err := w.SetCursor(f.cursor); err != nil {
				d.logger.Warn("set cursor failed", "window", id, "error", err)
			}
		case platform.ButtonRight:
			w.Close()
		}
	case event.ScaleFactorChanged:
		// The physical size changed with the scale.
		d.frame(id).buf = nil
		d.logger.Info("scale changed", "window", id, "scale", e.Scale)
	case event.CloseRequested:
		d.logger.Debug("close requested", "window", id)
	case event.Closed:
		delete(d.frames, id)
		if e.Cause != nil {
			d.logger.Error("window failed", "window", id, "error", e.Cause)
			return
		}
		d.logger.Info("window closed", "window", id)
	default:
		d.logger.Debug("event", "window", id, "type", event.Name(ev))
	}
}

func (d *demo) redraw(id winloop.WindowID) {
	w, ok := d.loop.Window(id)
	if !ok || w.State() != winloop.StateOpen {
		return
	}
	f := d.frame(id)
	pw, ph := w.PhysicalSize()
	if f.buf == nil || f.buf.Width != pw || f.buf.Height != ph {
		f.buf = platform.NewPixelBuffer(pw, ph)
	}
	paintGradient(f.buf, f.tick)
	f.tick++
	if err := w.Present(f.buf); err != nil {
		d.logger.Warn("present failed", "window", id, "error", err)
	}
}

// paintGradient fills buf with a diagonal gradient shifted by tick pixels.
func paintGradient(buf *platform.PixelBuffer, tick int) {
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			r := uint32((x + tick) & 0xff)
			g := uint32((y + tick/2) & 0xff)
			b := uint32((x + y) / 2 & 0xff)
			buf.Set(x, y, 0xff000000|r<<16|g<<8|b)
		}
	}
}

func nextCursor(c platform.Cursor) platform.Cursor {
	for i, dc := range demoCursors {
		if dc == c {
			return demoCursors[(i+1)%len(demoCursors)]
		}
	}
	return demoCursors[0]
}
