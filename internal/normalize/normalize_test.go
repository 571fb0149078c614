package normalize

import (
	"testing"

	"github.com/1broseidon/winloop/event"
	"github.com/1broseidon/winloop/platform"
)

type fakeWindow struct {
	id    event.WindowID
	scale float64
}

type fakeResolver map[platform.NativeHandle]fakeWindow

func (r fakeResolver) Resolve(h platform.NativeHandle) (event.WindowID, float64, bool) {
	w, ok := r[h]
	return w.id, w.scale, ok
}

func pt(x, y float64) platform.Point { return platform.Point{X: x, Y: y} }

func TestTranslate_ConvertsPhysicalToLogical(t *testing.T) {
	n := New(DefaultCoalesceThreshold)
	r := fakeResolver{100: {id: 1, scale: 2}}

	b := n.Translate([]platform.RawEvent{
		platform.RawPointerButton{Window: 100, Button: platform.ButtonLeft, Pressed: true, Position: pt(40, 60)},
	}, r)

	if len(b.Input) != 1 {
		t.Fatalf("got %d events, want 1", len(b.Input))
	}
	ev, ok := b.Input[0].(event.PointerButton)
	if !ok {
		t.Fatalf("got %T, want PointerButton", b.Input[0])
	}
	if ev.Window != 1 || ev.Position != pt(20, 30) || !ev.Pressed {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestTranslate_ScaleChangePrecedesLaterMoves(t *testing.T) {
	n := New(0)
	r := fakeResolver{100: {id: 1, scale: 1}}

	b := n.Translate([]platform.RawEvent{
		platform.RawPointerMoved{Window: 100, Position: pt(10, 10)},
		platform.RawScaleChanged{Window: 100, Scale: 2},
		platform.RawPointerMoved{Window: 100, Position: pt(40, 40)},
	}, r)

	if len(b.Input) != 3 {
		t.Fatalf("got %d events (%v), want 3", len(b.Input), b.Input)
	}
	if mv := b.Input[0].(event.PointerMoved); mv.Position != pt(10, 10) {
		t.Fatalf("first move at %v, want old scale", mv.Position)
	}
	sc, ok := b.Input[1].(event.ScaleFactorChanged)
	if !ok || sc.Scale != 2 {
		t.Fatalf("second event = %#v, want ScaleFactorChanged(2)", b.Input[1])
	}
	if mv := b.Input[2].(event.PointerMoved); mv.Position != pt(20, 20) {
		t.Fatalf("move after scale change at %v, want %v", mv.Position, pt(20, 20))
	}
}

func TestTranslate_UnchangedScaleIsDropped(t *testing.T) {
	n := New(0)
	r := fakeResolver{100: {id: 1, scale: 1.5}}
	b := n.Translate([]platform.RawEvent{platform.RawScaleChanged{Window: 100, Scale: 1.5}}, r)
	if len(b.Input) != 0 || b.Dropped != 1 {
		t.Fatalf("input=%v dropped=%d, want nothing delivered", b.Input, b.Dropped)
	}
}

func TestTranslate_ScaleBelowOneIsClamped(t *testing.T) {
	n := New(0)
	r := fakeResolver{100: {id: 1, scale: 2}}
	b := n.Translate([]platform.RawEvent{platform.RawScaleChanged{Window: 100, Scale: 0.5}}, r)
	if len(b.Input) != 1 {
		t.Fatalf("got %d events, want 1", len(b.Input))
	}
	if sc := b.Input[0].(event.ScaleFactorChanged); sc.Scale != 1 {
		t.Fatalf("scale = %v, want clamped to 1", sc.Scale)
	}
}

func TestTranslate_ConsecutiveMovesCollapseToLatest(t *testing.T) {
	n := New(DefaultCoalesceThreshold)
	r := fakeResolver{100: {id: 1, scale: 1}, 200: {id: 2, scale: 1}}

	b := n.Translate([]platform.RawEvent{
		platform.RawPointerMoved{Window: 100, Position: pt(1, 1)},
		platform.RawPointerMoved{Window: 200, Position: pt(5, 5)},
		platform.RawPointerMoved{Window: 100, Position: pt(2, 2)},
		platform.RawPointerMoved{Window: 100, Position: pt(3, 3)},
		platform.RawPointerButton{Window: 100, Button: platform.ButtonLeft, Pressed: true, Position: pt(3, 3)},
		platform.RawPointerMoved{Window: 100, Position: pt(9, 9)},
	}, r)

	var got []string
	for _, ev := range b.Input {
		switch e := ev.(type) {
		case event.PointerMoved:
			got = append(got, "move", string(rune('0'+e.Window)), string(rune('0'+int(e.Position.X))))
		case event.PointerButton:
			got = append(got, "button")
		}
	}
	want := []string{"move", "2", "5", "move", "1", "3", "button", "move", "1", "9"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if b.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2", b.Dropped)
	}
}

func TestTranslate_MovesBelowThresholdAreDropped(t *testing.T) {
	n := New(DefaultCoalesceThreshold)
	r := fakeResolver{100: {id: 1, scale: 1}}

	first := n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(10, 10)}}, r)
	if len(first.Input) != 1 {
		t.Fatalf("first move not delivered")
	}

	jitter := n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(10.3, 10.2)}}, r)
	if len(jitter.Input) != 0 {
		t.Fatalf("sub-threshold move delivered: %v", jitter.Input)
	}

	far := n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(11, 10)}}, r)
	if len(far.Input) != 1 {
		t.Fatalf("move of one unit was dropped")
	}
}

func TestTranslate_EnterResetsReference(t *testing.T) {
	n := New(DefaultCoalesceThreshold)
	r := fakeResolver{100: {id: 1, scale: 1}}
	n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(10, 10)}}, r)

	b := n.Translate([]platform.RawEvent{
		platform.RawPointerLeft{Window: 100},
		platform.RawPointerEntered{Window: 100, Position: pt(50, 50)},
		platform.RawPointerMoved{Window: 100, Position: pt(50.1, 50)},
		platform.RawPointerMoved{Window: 100, Position: pt(10, 10)},
	}, r)

	if len(b.Input) != 3 {
		t.Fatalf("got %v, want left, entered, one move", b.Input)
	}
	if mv := b.Input[2].(event.PointerMoved); mv.Position != pt(10, 10) {
		t.Fatalf("move at %v, want (10,10)", mv.Position)
	}
}

func TestTranslate_RefreshDeferredAndCollapsed(t *testing.T) {
	n := New(0)
	r := fakeResolver{100: {id: 1, scale: 1}, 200: {id: 2, scale: 1}}

	b := n.Translate([]platform.RawEvent{
		platform.RawRefresh{Window: 200},
		platform.RawPointerMoved{Window: 100, Position: pt(1, 1)},
		platform.RawRefresh{Window: 100},
		platform.RawRefresh{Window: 200},
		platform.RawFocus{Window: 100, Focused: true},
	}, r)

	if len(b.Input) != 2 {
		t.Fatalf("input = %v, want move and focus", b.Input)
	}
	if len(b.Refresh) != 2 || b.Refresh[0] != 2 || b.Refresh[1] != 1 {
		t.Fatalf("refresh = %v, want [2 1]", b.Refresh)
	}
}

func TestTranslate_UnknownHandlesAreDropped(t *testing.T) {
	n := New(0)
	r := fakeResolver{100: {id: 1, scale: 1}}

	b := n.Translate([]platform.RawEvent{
		platform.RawPointerMoved{Window: 999, Position: pt(1, 1)},
		platform.RawDestroyed{Window: 999},
		platform.RawCloseRequested{Window: 100},
	}, r)

	if b.Dropped != 2 {
		t.Fatalf("Dropped = %d, want 2", b.Dropped)
	}
	if len(b.Input) != 1 {
		t.Fatalf("input = %v", b.Input)
	}
	if _, ok := b.Input[0].(event.CloseRequested); !ok {
		t.Fatalf("got %T, want CloseRequested", b.Input[0])
	}
	if len(b.Destroyed) != 0 {
		t.Fatalf("destroy of unknown window reported: %v", b.Destroyed)
	}
}

func TestTranslate_DestroyedAndMonitors(t *testing.T) {
	n := New(0)
	r := fakeResolver{100: {id: 1, scale: 1}}

	b := n.Translate([]platform.RawEvent{
		platform.RawMonitorAdded{Monitor: platform.MonitorInfo{ID: 3, Name: "DP-1"}},
		platform.RawMonitorChanged{Window: 100, Monitor: 3},
		platform.RawDestroyed{Window: 100},
	}, r)

	if len(b.Destroyed) != 1 || b.Destroyed[0] != 1 {
		t.Fatalf("Destroyed = %v, want [1]", b.Destroyed)
	}
	if len(b.Monitors) != 2 {
		t.Fatalf("Monitors = %v, want 2 entries", b.Monitors)
	}
	if b.Monitors[1].Window != 1 {
		t.Fatalf("monitor change resolved to window %d, want 1", b.Monitors[1].Window)
	}
	if b.Empty() {
		t.Fatalf("batch with work reported empty")
	}
}

func TestForget(t *testing.T) {
	n := New(DefaultCoalesceThreshold)
	r := fakeResolver{100: {id: 1, scale: 1}}
	n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(1, 1)}}, r)
	n.Forget(1)
	b := n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(1, 1)}}, r)
	if len(b.Input) != 1 {
		t.Fatalf("move after Forget dropped")
	}
}

func TestNew_Threshold(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, DefaultCoalesceThreshold},
		{2, 2},
		{-1, 0},
	}
	for _, tt := range tests {
		if got := New(tt.in).Threshold; got != tt.want {
			t.Errorf("New(%v).Threshold = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTranslate_NegativeThresholdKeepsSmallMoves(t *testing.T) {
	n := New(-1)
	r := fakeResolver{100: {id: 1, scale: 1}}

	n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(10, 10)}}, r)
	b := n.Translate([]platform.RawEvent{platform.RawPointerMoved{Window: 100, Position: pt(10.1, 10)}}, r)
	if len(b.Input) != 1 {
		t.Fatalf("got %d events, want the 0.1 move delivered", len(b.Input))
	}
}
