package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winloop/platform"
)

func point(x, y int16) platform.Point {
	return platform.Point{X: float64(x), Y: float64(y)}
}

// buttonOf maps X core buttons to pointer buttons. Buttons 4-7 are wheel
// steps and are handled by scrollDelta.
func buttonOf(detail xproto.Button) (platform.MouseButton, bool) {
	switch detail {
	case 1:
		return platform.ButtonLeft, true
	case 2:
		return platform.ButtonMiddle, true
	case 3:
		return platform.ButtonRight, true
	case 8:
		return platform.ButtonBack, true
	case 9:
		return platform.ButtonForward, true
	default:
		return 0, false
	}
}

// scrollDelta returns the wheel step of buttons 4 (up), 5 (down), 6 (left)
// and 7 (right), in lines.
func scrollDelta(detail xproto.Button) (platform.Point, bool) {
	switch detail {
	case 4:
		return platform.Point{Y: 1}, true
	case 5:
		return platform.Point{Y: -1}, true
	case 6:
		return platform.Point{X: -1}, true
	case 7:
		return platform.Point{X: 1}, true
	default:
		return platform.Point{}, false
	}
}

func (b *Backend) known(id xproto.Window) (*window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	return w, ok
}

// translate appends the raw events for one X event. Events for windows
// this backend did not create are ignored.
func (b *Backend) translate(out []platform.RawEvent, ev xgb.Event) []platform.RawEvent {
	switch e := ev.(type) {
	case xproto.MotionNotifyEvent:
		if _, ok := b.known(e.Event); ok {
			out = append(out, platform.RawPointerMoved{
				Window:   platform.NativeHandle(e.Event),
				Position: point(e.EventX, e.EventY),
			})
		}

	case xproto.ButtonPressEvent:
		if _, ok := b.known(e.Event); !ok {
			break
		}
		h := platform.NativeHandle(e.Event)
		if d, ok := scrollDelta(e.Detail); ok {
			out = append(out, platform.RawPointerScrolled{Window: h, Delta: d})
		} else if btn, ok := buttonOf(e.Detail); ok {
			out = append(out, platform.RawPointerButton{
				Window: h, Button: btn, Pressed: true, Position: point(e.EventX, e.EventY),
			})
		}

	case xproto.ButtonReleaseEvent:
		if _, ok := b.known(e.Event); !ok {
			break
		}
		if btn, ok := buttonOf(e.Detail); ok {
			out = append(out, platform.RawPointerButton{
				Window:   platform.NativeHandle(e.Event),
				Button:   btn,
				Position: point(e.EventX, e.EventY),
			})
		}

	case xproto.EnterNotifyEvent:
		if _, ok := b.known(e.Event); ok {
			out = append(out, platform.RawPointerEntered{
				Window:   platform.NativeHandle(e.Event),
				Position: point(e.EventX, e.EventY),
			})
		}

	case xproto.LeaveNotifyEvent:
		if _, ok := b.known(e.Event); ok {
			out = append(out, platform.RawPointerLeft{Window: platform.NativeHandle(e.Event)})
		}

	case xproto.FocusInEvent:
		if _, ok := b.known(e.Event); ok && e.Detail != xproto.NotifyDetailPointer {
			out = append(out, platform.RawFocus{Window: platform.NativeHandle(e.Event), Focused: true})
		}

	case xproto.FocusOutEvent:
		if _, ok := b.known(e.Event); ok && e.Detail != xproto.NotifyDetailPointer {
			out = append(out, platform.RawFocus{Window: platform.NativeHandle(e.Event), Focused: false})
		}

	case xproto.ClientMessageEvent:
		if e.Type != b.protocolsAtom || e.Format != 32 || len(e.Data.Data32) == 0 {
			break
		}
		if xproto.Atom(e.Data.Data32[0]) != b.deleteAtom {
			break
		}
		if _, ok := b.known(e.Window); ok {
			out = append(out, platform.RawCloseRequested{Window: platform.NativeHandle(e.Window)})
		}

	case xproto.DestroyNotifyEvent:
		b.mu.Lock()
		_, ok := b.windows[e.Window]
		delete(b.windows, e.Window)
		b.mu.Unlock()
		b.vsync.Unsubscribe(platform.NativeHandle(e.Window))
		if ok {
			out = append(out, platform.RawDestroyed{Window: platform.NativeHandle(e.Window)})
		}

	case xproto.ConfigureNotifyEvent:
		if w, ok := b.known(e.Window); ok && w.topLevel() {
			out = append(out, b.monitorChange(w)...)
		}

	case xproto.PropertyNotifyEvent:
		if e.Window == b.root && e.Atom == xproto.AtomResourceManager {
			out = b.rescale(out)
		}

	case randr.ScreenChangeNotifyEvent:
		out = b.reloadMonitors(out)
	}
	return out
}

// rescale re-reads Xft.dpi, resizes every window to its logical size at
// the new scale and reports the change. A window that cannot be resized
// keeps its old size; the loop sees the size mismatch on its next Present.
func (b *Backend) rescale(out []platform.RawEvent) []platform.RawEvent {
	s := b.readScale()
	if s == b.scale {
		return out
	}
	b.logger.Debug("scale changed", "from", b.scale, "to", s)
	b.scale = s

	b.mu.Lock()
	var ws []*window
	for _, id := range b.sortedWindowsLocked() {
		ws = append(ws, b.windows[id])
	}
	b.mu.Unlock()
	for _, w := range ws {
		if err := b.resize(w, s); err != nil {
			b.logger.Warn("resizing window for new scale failed", "xid", w.id, "error", err)
		}
		out = append(out, platform.RawScaleChanged{Window: platform.NativeHandle(w.id), Scale: s})
	}
	return out
}
