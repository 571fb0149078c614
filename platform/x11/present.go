package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winloop/platform"
)

const (
	// A PutImage request is limited to the core maximum request length of
	// 2^16 four-byte units; 28 bytes of it are the fixed header.
	xPutImageReqSizeMax   = (1 << 16) * 4
	xPutImageReqSizeFixed = 28
	xPutImageReqDataSize  = xPutImageReqSizeMax - xPutImageReqSizeFixed
)

// rowsPerRequest returns how many rows of rowBytes fit in one PutImage.
func rowsPerRequest(rowBytes int) int {
	if rowBytes <= 0 {
		return 0
	}
	return xPutImageReqDataSize / rowBytes
}

// Present uploads buf with ZPixmap PutImage requests, split by rows to stay
// under the request size limit. The canonical BGRA layout is the native
// 32-bit TrueColor layout on little-endian servers. xgb serializes each
// request before returning, so buf is not retained.
func (b *Backend) Present(h platform.NativeHandle, buf *platform.PixelBuffer) error {
	return b.PresentRegions(h, buf, []platform.Rect{{Width: buf.Width, Height: buf.Height}})
}

// PresentRegions uploads only the given rectangles of buf.
func (b *Backend) PresentRegions(h platform.NativeHandle, buf *platform.PixelBuffer, rects []platform.Rect) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	for _, r := range rects {
		if err := b.putRect(w, buf, r); err != nil {
			return err
		}
	}
	w.inFlight = true
	return nil
}

func (b *Backend) putRect(w *window, buf *platform.PixelBuffer, r platform.Rect) error {
	rowBytes := r.Width * platform.BytesPerPixel
	rows := rowsPerRequest(rowBytes)
	if rows == 0 {
		return fmt.Errorf("x11: buffer row of %d bytes exceeds the request limit", rowBytes)
	}
	for y := r.Y; y < r.Y+r.Height; y += rows {
		n := min(rows, r.Y+r.Height-y)
		xproto.PutImage(b.conn, xproto.ImageFormatZPixmap, xproto.Drawable(w.id), w.gc,
			uint16(r.Width), uint16(n), int16(r.X), int16(y), 0, b.screen.RootDepth,
			packRect(buf, platform.Rect{X: r.X, Y: y, Width: r.Width, Height: n}))
	}
	return nil
}

// packRect returns the pixels of r row after row, without stride padding.
func packRect(buf *platform.PixelBuffer, r platform.Rect) []byte {
	rowBytes := r.Width * platform.BytesPerPixel
	start := r.Y*buf.Stride + r.X*platform.BytesPerPixel
	if buf.Stride == rowBytes {
		return buf.Pix[start : start+r.Height*rowBytes]
	}
	out := make([]byte, 0, r.Height*rowBytes)
	for y := r.Y; y < r.Y+r.Height; y++ {
		i := y*buf.Stride + r.X*platform.BytesPerPixel
		out = append(out, buf.Pix[i:i+rowBytes]...)
	}
	return out
}

// CompletePresent waits until the server processed the outstanding
// PutImage requests: a round trip is answered only after every earlier
// request on the connection.
func (b *Backend) CompletePresent(h platform.NativeHandle) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	if !w.inFlight {
		return nil
	}
	w.inFlight = false
	if _, err := xproto.GetInputFocus(b.conn).Reply(); err != nil {
		return fmt.Errorf("x11: sync after present: %w", err)
	}
	return nil
}
