package platform

import "testing"

func TestPixelBuffer_SetAtUsesBGRAOrder(t *testing.T) {
	buf := NewPixelBuffer(2, 2)
	buf.Set(1, 1, 0x80112233)

	i := 1*buf.Stride + 1*BytesPerPixel
	got := buf.Pix[i : i+4]
	want := []byte{0x33, 0x22, 0x11, 0x80}
	for k := range want {
		if got[k] != want[k] {
			t.Fatalf("byte %d = %#x, want %#x", k, got[k], want[k])
		}
	}
	if c := buf.At(1, 1); c != 0x80112233 {
		t.Fatalf("At(1,1) = %#x, want %#x", c, 0x80112233)
	}
	if c := buf.At(5, 5); c != 0 {
		t.Fatalf("out of range At = %#x, want 0", c)
	}
}

func TestPixelBuffer_Validate(t *testing.T) {
	tests := []struct {
		name    string
		buf     *PixelBuffer
		wantErr bool
	}{
		{name: "packed", buf: NewPixelBuffer(3, 2)},
		{name: "padded stride", buf: &PixelBuffer{Width: 2, Height: 2, Stride: 12, Pix: make([]byte, 12+8)}},
		{name: "nil", buf: nil, wantErr: true},
		{name: "short stride", buf: &PixelBuffer{Width: 4, Height: 1, Stride: 8, Pix: make([]byte, 16)}, wantErr: true},
		{name: "short pix", buf: &PixelBuffer{Width: 2, Height: 2, Stride: 8, Pix: make([]byte, 10)}, wantErr: true},
		{name: "negative", buf: &PixelBuffer{Width: -1, Height: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buf.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPixelBuffer_CloneDropsPadding(t *testing.T) {
	src := &PixelBuffer{Width: 1, Height: 2, Stride: 8, Pix: make([]byte, 12)}
	src.Set(0, 1, 0xFFAABBCC)

	out := src.Clone()
	if out.Stride != 4 || len(out.Pix) != 8 {
		t.Fatalf("clone geometry stride=%d len=%d", out.Stride, len(out.Pix))
	}
	if out.At(0, 1) != 0xFFAABBCC {
		t.Fatalf("clone lost pixel: %#x", out.At(0, 1))
	}
}

func TestParseCursorRoundTrip(t *testing.T) {
	for c := CursorArrow; c <= CursorHidden; c++ {
		got, err := ParseCursor(c.String())
		if err != nil {
			t.Fatalf("ParseCursor(%q): %v", c.String(), err)
		}
		if got != c {
			t.Fatalf("ParseCursor(%q) = %v, want %v", c.String(), got, c)
		}
	}
	if _, err := ParseCursor("spinner"); err == nil {
		t.Fatalf("expected error for unknown cursor")
	}
}

func TestClipRects(t *testing.T) {
	got := ClipRects([]Rect{
		{X: -2, Y: -2, Width: 4, Height: 4},
		{X: 8, Y: 8, Width: 5, Height: 5},
		{X: 20, Y: 0, Width: 3, Height: 3},
		{X: 1, Y: 1, Width: 0, Height: 4},
	}, 10, 10)
	want := []Rect{{X: 0, Y: 0, Width: 2, Height: 2}, {X: 8, Y: 8, Width: 2, Height: 2}}
	if len(got) != len(want) {
		t.Fatalf("ClipRects = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rect %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPixelBuffer_CopyRect(t *testing.T) {
	src := NewPixelBuffer(4, 4)
	src.Fill(0xff0000ff)
	dst := &PixelBuffer{Width: 4, Height: 4, Stride: 20, Pix: make([]byte, 80)}

	dst.CopyRect(src, Rect{X: 1, Y: 2, Width: 2, Height: 1})
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint32(0)
			if y == 2 && (x == 1 || x == 2) {
				want = 0xff0000ff
			}
			if got := dst.At(x, y); got != want {
				t.Fatalf("At(%d,%d) = %#x, want %#x", x, y, got, want)
			}
		}
	}
}
