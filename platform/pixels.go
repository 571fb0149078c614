package platform

import (
	"errors"
	"fmt"
)

// BytesPerPixel is the size of one sample in the canonical layout.
const BytesPerPixel = 4

// PixelBuffer is a rectangular block of pixels in the one canonical layout
// used by every backend: 4 bytes per pixel in B, G, R, A order (a
// little-endian 0xAARRGGBB word), alpha premultiplied, rows top-down, Stride
// bytes between the starts of consecutive rows.
//
// The caller owns the buffer. Presentation copies it; nothing keeps a
// reference after Present returns.
type PixelBuffer struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// NewPixelBuffer allocates a zeroed, tightly packed buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Stride: width * BytesPerPixel,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// Validate checks that the geometry fields agree with the backing slice.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return errors.New("pixel buffer is nil")
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("pixel buffer has negative size %dx%d", b.Width, b.Height)
	}
	if b.Stride < b.Width*BytesPerPixel {
		return fmt.Errorf("pixel buffer stride %d is smaller than row size %d", b.Stride, b.Width*BytesPerPixel)
	}
	if b.Height > 0 {
		need := b.Stride*(b.Height-1) + b.Width*BytesPerPixel
		if len(b.Pix) < need {
			return fmt.Errorf("pixel buffer holds %d bytes, need %d", len(b.Pix), need)
		}
	}
	return nil
}

// Set stores a 0xAARRGGBB color at (x, y). Out of range writes are ignored.
func (b *PixelBuffer) Set(x, y int, argb uint32) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	i := y*b.Stride + x*BytesPerPixel
	b.Pix[i+0] = byte(argb)
	b.Pix[i+1] = byte(argb >> 8)
	b.Pix[i+2] = byte(argb >> 16)
	b.Pix[i+3] = byte(argb >> 24)
}

// At returns the 0xAARRGGBB color at (x, y), or 0 when out of range.
func (b *PixelBuffer) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	i := y*b.Stride + x*BytesPerPixel
	return uint32(b.Pix[i]) | uint32(b.Pix[i+1])<<8 | uint32(b.Pix[i+2])<<16 | uint32(b.Pix[i+3])<<24
}

// Fill sets every pixel to argb.
func (b *PixelBuffer) Fill(argb uint32) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			b.Set(x, y, argb)
		}
	}
}

// Row returns the packed bytes of row y without stride padding.
func (b *PixelBuffer) Row(y int) []byte {
	start := y * b.Stride
	return b.Pix[start : start+b.Width*BytesPerPixel]
}

// Clone returns a tightly packed copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	out := NewPixelBuffer(b.Width, b.Height)
	for y := 0; y < b.Height; y++ {
		copy(out.Row(y), b.Row(y))
	}
	return out
}

// CopyRect copies the pixels of r from src into b. Both buffers must
// contain r.
func (b *PixelBuffer) CopyRect(src *PixelBuffer, r Rect) {
	n := r.Width * BytesPerPixel
	for y := r.Y; y < r.Y+r.Height; y++ {
		dst := y*b.Stride + r.X*BytesPerPixel
		from := y*src.Stride + r.X*BytesPerPixel
		copy(b.Pix[dst:dst+n], src.Pix[from:from+n])
	}
}
