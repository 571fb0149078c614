package glfw

import (
	"testing"

	"github.com/1broseidon/winloop/platform"
)

func TestToPhysical(t *testing.T) {
	tests := []struct {
		name             string
		winW, winH       int
		fbW, fbH         int
		wantX, wantY     float64
	}{
		{"pixels", 200, 100, 200, 100, 10, 20},
		{"retina", 200, 100, 400, 200, 20, 40},
		{"minimized", 0, 0, 0, 0, 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := toPhysical(10, 20, tt.winW, tt.winH, tt.fbW, tt.fbH)
			if p.X != tt.wantX || p.Y != tt.wantY {
				t.Fatalf("toPhysical = %v, want (%v,%v)", p, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestButtonOf(t *testing.T) {
	if b, ok := buttonOf(1); !ok || b != platform.ButtonRight {
		t.Fatalf("button 1 = %v,%v want right", b, ok)
	}
	if b, ok := buttonOf(2); !ok || b != platform.ButtonMiddle {
		t.Fatalf("button 2 = %v,%v want middle", b, ok)
	}
	if _, ok := buttonOf(7); ok {
		t.Fatalf("button 7 mapped")
	}
}

func TestShapeOf(t *testing.T) {
	if shapeOf(platform.CursorSizeWE) != shapeHResize {
		t.Fatalf("size_we is not the horizontal resize shape")
	}
	if shapeOf(platform.CursorWait) != shapeArrow {
		t.Fatalf("wait does not fall back to arrow")
	}
}

func TestPackFrameDropsPadding(t *testing.T) {
	buf := &platform.PixelBuffer{Width: 1, Height: 2, Stride: 8, Pix: make([]byte, 16)}
	buf.Set(0, 1, 0xff0000aa)
	got := packFrame(buf)
	if len(got) != 8 || got[4] != 0xaa {
		t.Fatalf("packFrame = %v", got)
	}

	tight := platform.NewPixelBuffer(2, 2)
	if got := packFrame(tight); &got[0] != &tight.Pix[0] {
		t.Fatalf("tight buffer was copied")
	}
}

func TestMonitorIDsStable(t *testing.T) {
	ids := newMonitorIDs[string]()
	a, b := ids.id("a"), ids.id("b")
	if a == b || ids.id("a") != a {
		t.Fatalf("ids not stable: a=%d b=%d", a, b)
	}
	if id, ok := ids.forget("a"); !ok || id != a {
		t.Fatalf("forget = %d,%v", id, ok)
	}
	if c := ids.id("a"); c == a {
		t.Fatalf("reconnected monitor reused id %d", c)
	}
}

func TestToScreenInvertsToPhysical(t *testing.T) {
	x, y := toScreen(platform.Point{X: 20, Y: 40}, 200, 100, 400, 200)
	if x != 10 || y != 20 {
		t.Fatalf("toScreen = %v,%v want 10,20", x, y)
	}
}

func TestPackRectSubregion(t *testing.T) {
	buf := platform.NewPixelBuffer(3, 3)
	buf.Set(1, 1, 0xff000007)
	buf.Set(2, 2, 0xff000009)
	got := packRect(buf, platform.Rect{X: 1, Y: 1, Width: 2, Height: 2})
	if len(got) != 16 || got[0] != 7 || got[12] != 9 {
		t.Fatalf("packRect = %v", got)
	}
}
