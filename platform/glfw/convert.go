// Package glfw implements the window backend on GLFW with an OpenGL 3.3
// core context per window. Frames are uploaded as a texture and drawn as a
// single full-window triangle.
//
// The backend itself needs cgo and is built with the "glfw" tag. The
// conversions in this file have no native dependency.
package glfw

import (
	"github.com/1broseidon/winloop/platform"
)

// toPhysical converts a position in GLFW screen coordinates to framebuffer
// pixels. Screen coordinates equal pixels on X11 and Windows but are points
// on macOS.
func toPhysical(x, y float64, winW, winH, fbW, fbH int) platform.Point {
	sx, sy := 1.0, 1.0
	if winW > 0 && fbW > 0 {
		sx = float64(fbW) / float64(winW)
	}
	if winH > 0 && fbH > 0 {
		sy = float64(fbH) / float64(winH)
	}
	return platform.Point{X: x * sx, Y: y * sy}
}

// toScreen is the inverse of toPhysical.
func toScreen(p platform.Point, winW, winH, fbW, fbH int) (float64, float64) {
	q := toPhysical(p.X, p.Y, fbW, fbH, winW, winH)
	return q.X, q.Y
}

// buttonOf maps a GLFW mouse button index. GLFW numbers left, right and
// middle as 0, 1 and 2; 3 and 4 are the side buttons.
func buttonOf(index int) (platform.MouseButton, bool) {
	switch index {
	case 0:
		return platform.ButtonLeft, true
	case 1:
		return platform.ButtonRight, true
	case 2:
		return platform.ButtonMiddle, true
	case 3:
		return platform.ButtonBack, true
	case 4:
		return platform.ButtonForward, true
	default:
		return 0, false
	}
}

// standardShape lists the GLFW 3.3 standard cursor shapes.
type standardShape int

const (
	shapeArrow standardShape = iota
	shapeIBeam
	shapeCrosshair
	shapeHand
	shapeHResize
	shapeVResize
)

// shapeOf picks the closest GLFW 3.3 shape. Diagonal resize, wait and
// not-allowed have no standard cursor before GLFW 3.4.
func shapeOf(c platform.Cursor) standardShape {
	switch c {
	case platform.CursorIBeam:
		return shapeIBeam
	case platform.CursorCrosshair, platform.CursorSizeNESW, platform.CursorSizeNWSE:
		return shapeCrosshair
	case platform.CursorHand:
		return shapeHand
	case platform.CursorSizeWE:
		return shapeHResize
	case platform.CursorSizeNS:
		return shapeVResize
	default:
		return shapeArrow
	}
}

// packFrame returns the buffer's pixels with stride padding removed, the
// layout glTexImage2D expects with the default unpack alignment of 4.
func packFrame(buf *platform.PixelBuffer) []byte {
	return packRect(buf, platform.Rect{Width: buf.Width, Height: buf.Height})
}

// packRect returns the pixels of r without stride padding, for
// glTexSubImage2D.
func packRect(buf *platform.PixelBuffer, r platform.Rect) []byte {
	rowBytes := r.Width * platform.BytesPerPixel
	start := r.Y*buf.Stride + r.X*platform.BytesPerPixel
	if buf.Stride == rowBytes {
		return buf.Pix[start : start+rowBytes*r.Height]
	}
	out := make([]byte, 0, rowBytes*r.Height)
	for y := r.Y; y < r.Y+r.Height; y++ {
		i := y*buf.Stride + r.X*platform.BytesPerPixel
		out = append(out, buf.Pix[i:i+rowBytes]...)
	}
	return out
}

// monitorIDs hands out stable ids for monitors keyed by an opaque pointer
// value, so a monitor keeps its id while others come and go.
type monitorIDs[K comparable] struct {
	next platform.MonitorID
	ids  map[K]platform.MonitorID
}

func newMonitorIDs[K comparable]() *monitorIDs[K] {
	return &monitorIDs[K]{ids: make(map[K]platform.MonitorID)}
}

func (m *monitorIDs[K]) id(k K) platform.MonitorID {
	if id, ok := m.ids[k]; ok {
		return id
	}
	id := m.next
	m.next++
	m.ids[k] = id
	return id
}

func (m *monitorIDs[K]) forget(k K) (platform.MonitorID, bool) {
	id, ok := m.ids[k]
	delete(m.ids, k)
	return id, ok
}
