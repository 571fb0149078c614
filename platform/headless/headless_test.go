package headless

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/winloop/platform"
)

func TestDestroyConfirmsOnNextPoll(t *testing.T) {
	b := New(Options{})
	h, err := b.CreateWindow(platform.CreateOptions{Title: "a", Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	if err := b.DestroyWindow(h); err != nil {
		t.Fatalf("DestroyWindow: %v", err)
	}
	if b.Alive(h) {
		t.Fatalf("window still alive after destroy")
	}

	evs, err := b.PollEvents(0)
	if err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	if len(evs) != 1 || evs[0] != (platform.RawDestroyed{Window: h}) {
		t.Fatalf("events = %v, want RawDestroyed(%d)", evs, h)
	}
	if err := b.DestroyWindow(h); !errors.Is(err, platform.ErrUnknownWindow) {
		t.Fatalf("second destroy err = %v, want ErrUnknownWindow", err)
	}
}

func TestCreateWithUnknownParentFails(t *testing.T) {
	b := New(Options{})
	_, err := b.CreateWindow(platform.CreateOptions{Width: 1, Height: 1, Parent: 42, HasParent: true})
	if !errors.Is(err, platform.ErrUnknownWindow) {
		t.Fatalf("err = %v, want ErrUnknownWindow", err)
	}
}

func TestTickCoalescesUntilPolled(t *testing.T) {
	b := New(Options{})
	h, _ := b.CreateWindow(platform.CreateOptions{Width: 1, Height: 1})
	if n := b.Tick(); n != 0 {
		t.Fatalf("unsubscribed window ticked %d times", n)
	}
	if err := b.SubscribeRefresh(h); err != nil {
		t.Fatalf("SubscribeRefresh: %v", err)
	}
	if n := b.Tick(); n != 1 {
		t.Fatalf("Tick = %d, want 1", n)
	}
	if n := b.Tick(); n != 0 {
		t.Fatalf("second Tick before poll = %d, want 0", n)
	}
	if evs, _ := b.PollEvents(0); len(evs) != 1 {
		t.Fatalf("polled %v, want one refresh", evs)
	}
	if n := b.Tick(); n != 1 {
		t.Fatalf("Tick after poll = %d, want 1", n)
	}
}

func TestPresentCopiesAndRequiresCompletion(t *testing.T) {
	b := New(Options{})
	h, _ := b.CreateWindow(platform.CreateOptions{Width: 2, Height: 2})
	buf := platform.NewPixelBuffer(2, 2)
	buf.Fill(0xff112233)

	if err := b.Present(h, buf); err != nil {
		t.Fatalf("Present: %v", err)
	}
	buf.Fill(0)
	if got := b.Frames(h)[0].At(1, 1); got != 0xff112233 {
		t.Fatalf("stored frame changed with caller buffer: %#x", got)
	}
	if err := b.Present(h, buf); err == nil {
		t.Fatalf("second Present without completion succeeded")
	}
	if err := b.CompletePresent(h); err != nil {
		t.Fatalf("CompletePresent: %v", err)
	}
	if err := b.Present(h, buf); err != nil {
		t.Fatalf("Present after completion: %v", err)
	}
}

func TestFailNextAppliesOnce(t *testing.T) {
	b := New(Options{})
	h, _ := b.CreateWindow(platform.CreateOptions{Width: 1, Height: 1})
	boom := errors.New("boom")
	b.FailNext("set_cursor", boom)

	if err := b.SetCursor(h, platform.CursorHand); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err := b.SetCursor(h, platform.CursorHand); err != nil {
		t.Fatalf("second SetCursor: %v", err)
	}
	if got := b.CursorOf(h); got != platform.CursorHand {
		t.Fatalf("cursor = %v, want hand", got)
	}
}

func TestPollWaitsUntilWake(t *testing.T) {
	b := New(Options{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Inject(platform.RawMonitorRemoved{Monitor: 1})
	}()
	evs, err := b.PollEvents(-1)
	if err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("events = %v, want the injected one", evs)
	}
}

func TestPollUsesWaitHook(t *testing.T) {
	var waited time.Duration
	b := New(Options{Wait: func(d time.Duration) { waited += d }})
	if _, err := b.PollEvents(30 * time.Millisecond); err != nil {
		t.Fatalf("PollEvents: %v", err)
	}
	if waited != 30*time.Millisecond {
		t.Fatalf("waited %v, want 30ms", waited)
	}
}

func TestClosedBackendRejectsPoll(t *testing.T) {
	b := New(Options{})
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := b.PollEvents(0); !errors.Is(err, platform.ErrBackendClosed) {
		t.Fatalf("err = %v, want ErrBackendClosed", err)
	}
}

func TestPresentRegionsKeepsPixelsOutsideRects(t *testing.T) {
	b := New(Options{})
	h, _ := b.CreateWindow(platform.CreateOptions{Width: 4, Height: 4})

	first := platform.NewPixelBuffer(4, 4)
	first.Fill(0xff111111)
	if err := b.Present(h, first); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if err := b.CompletePresent(h); err != nil {
		t.Fatalf("CompletePresent: %v", err)
	}

	second := platform.NewPixelBuffer(4, 4)
	second.Fill(0xff222222)
	if err := b.PresentRegions(h, second, []platform.Rect{{X: 2, Y: 0, Width: 2, Height: 1}}); err != nil {
		t.Fatalf("PresentRegions: %v", err)
	}
	frames := b.Frames(h)
	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if got := frames[1].At(3, 0); got != 0xff222222 {
		t.Fatalf("damaged pixel = %#x", got)
	}
	if got := frames[1].At(0, 0); got != 0xff111111 {
		t.Fatalf("undamaged pixel = %#x, want previous frame", got)
	}
}

func TestCreateRecordsPlacement(t *testing.T) {
	b := New(Options{})
	_, err := b.CreateWindow(platform.CreateOptions{
		Title:       "plugin",
		Width:       10,
		Height:      10,
		RawParent:   platform.RawWindowHandle{Kind: platform.HandleX11, Window: 0x3a00007},
		Position:    platform.Point{X: 5, Y: 6},
		HasPosition: true,
		Hidden:      true,
	})
	if err != nil {
		t.Fatalf("CreateWindow: %v", err)
	}
	calls := b.CallsOf("create")
	want := `"plugin" 10x10 raw_parent=x11:0x3a00007 at=5,6 hidden`
	if len(calls) != 1 || calls[0].Detail != want {
		t.Fatalf("create calls = %v, want detail %q", calls, want)
	}
	if b.Visible(b.Handles()[0]) {
		t.Fatalf("hidden window reported visible")
	}
}

func TestWarpPointerQueuesMotion(t *testing.T) {
	b := New(Options{})
	h, _ := b.CreateWindow(platform.CreateOptions{Width: 10, Height: 10})
	if err := b.WarpPointer(h, platform.Point{X: 3, Y: 4}); err != nil {
		t.Fatalf("WarpPointer: %v", err)
	}
	evs, _ := b.PollEvents(0)
	if len(evs) != 1 || evs[0] != (platform.RawPointerMoved{Window: h, Position: platform.Point{X: 3, Y: 4}}) {
		t.Fatalf("events = %v", evs)
	}
	if got := b.PointerOf(h); got != (platform.Point{X: 3, Y: 4}) {
		t.Fatalf("PointerOf = %v", got)
	}
}
