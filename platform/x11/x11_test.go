package x11

import (
	"testing"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winloop/platform"
)

func TestParseXftDPI(t *testing.T) {
	tests := []struct {
		name string
		db   string
		want float64
		ok   bool
	}{
		{"plain", "Xft.dpi:\t192\n", 192, true},
		{"among others", "Xcursor.size:\t24\nXft.dpi:  144\nXft.antialias:\t1\n", 144, true},
		{"missing", "Xcursor.theme:\tAdwaita\n", 0, false},
		{"garbage", "Xft.dpi: lots\n", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseXftDPI(tt.db)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parseXftDPI = %v,%v want %v,%v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestScaleFromDPI(t *testing.T) {
	if s := scaleFromDPI(192); s != 2 {
		t.Fatalf("scale(192) = %v", s)
	}
	if s := scaleFromDPI(72); s != 1 {
		t.Fatalf("scale(72) = %v, want clamped to 1", s)
	}
}

func TestRefreshRate(t *testing.T) {
	// 1920x1080@60 CVT reduced blanking.
	m := randr.ModeInfo{DotClock: 138500000, Htotal: 2080, Vtotal: 1111}
	got := refreshRate(m)
	if got < 59.9 || got > 60.0 {
		t.Fatalf("refreshRate = %v, want ~59.93", got)
	}
	if refreshRate(randr.ModeInfo{}) != 0 {
		t.Fatalf("empty mode has a refresh rate")
	}
}

func TestRowsPerRequest(t *testing.T) {
	rowBytes := 1920 * platform.BytesPerPixel
	rows := rowsPerRequest(rowBytes)
	if rows*rowBytes > xPutImageReqDataSize || (rows+1)*rowBytes <= xPutImageReqDataSize {
		t.Fatalf("rowsPerRequest(%d) = %d is not the maximum that fits", rowBytes, rows)
	}
	if rowsPerRequest(xPutImageReqDataSize+4) != 0 {
		t.Fatalf("oversized row reported as fitting")
	}
}

func TestPackRectDropsStridePadding(t *testing.T) {
	buf := &platform.PixelBuffer{Width: 2, Height: 3, Stride: 12, Pix: make([]byte, 36)}
	for y := 0; y < 3; y++ {
		buf.Set(0, y, uint32(y+1))
		buf.Set(1, y, uint32(y+1))
	}
	got := packRect(buf, platform.Rect{X: 0, Y: 1, Width: 2, Height: 2})
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	if got[0] != 2 || got[8] != 3 {
		t.Fatalf("rows out of order: %v", got)
	}
}

func TestPackRectTakesColumnRange(t *testing.T) {
	buf := platform.NewPixelBuffer(4, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			buf.Set(x, y, uint32(10*y+x))
		}
	}
	got := packRect(buf, platform.Rect{X: 1, Y: 0, Width: 2, Height: 2})
	if len(got) != 16 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	want := []byte{1, 2, 11, 12}
	for i, v := range want {
		if got[i*platform.BytesPerPixel] != v {
			t.Fatalf("pixel %d = %d, want %d", i, got[i*platform.BytesPerPixel], v)
		}
	}
}

func TestPhysicalSizeFollowsScale(t *testing.T) {
	logical := platform.Size{Width: 100.5, Height: 40}
	w, h, err := physicalSize(logical, 2)
	if err != nil || w != 201 || h != 80 {
		t.Fatalf("physicalSize at 2 = %d,%d,%v", w, h, err)
	}
	if _, _, err := physicalSize(logical, 1000); err == nil {
		t.Fatalf("oversized window accepted")
	}
}

func TestFixedSizeHints(t *testing.T) {
	hints := fixedSizeHints(300, 200)
	if hints.MinWidth != 300 || hints.MaxWidth != 300 || hints.MinHeight != 200 || hints.MaxHeight != 200 {
		t.Fatalf("hints = %+v", hints)
	}
}

func TestButtonMapping(t *testing.T) {
	if b, ok := buttonOf(xproto.Button(3)); !ok || b != platform.ButtonRight {
		t.Fatalf("button 3 = %v,%v", b, ok)
	}
	if _, ok := buttonOf(xproto.Button(4)); ok {
		t.Fatalf("wheel button mapped to a pointer button")
	}
	if d, ok := scrollDelta(xproto.Button(5)); !ok || d.Y != -1 {
		t.Fatalf("button 5 scroll = %v,%v", d, ok)
	}
}
