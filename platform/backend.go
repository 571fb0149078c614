package platform

import (
	"errors"
	"math"
	"time"
)

// NativeHandle is a backend-specific window identifier. The core treats it as
// opaque; backends choose the encoding (X11 window id, GLFW slot, ...).
type NativeHandle uint64

// MonitorID identifies a display within one backend.
type MonitorID int

// Point is a position in either logical or physical units, depending on
// context.
type Point struct {
	X float64
	Y float64
}

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Size is a width/height pair in either logical or physical units.
type Size struct {
	Width  float64
	Height float64
}

// Scale multiplies both dimensions by s.
func (s Size) Scale(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Intersect returns the overlap of r and o, or the zero Rect when they do
// not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.Width, o.X+o.Width), min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// ClipRects clips rects to a width by height surface and drops the ones
// left empty.
func ClipRects(rects []Rect, width, height int) []Rect {
	bounds := Rect{Width: width, Height: height}
	var out []Rect
	for _, r := range rects {
		if c := r.Intersect(bounds); !c.Empty() {
			out = append(out, c)
		}
	}
	return out
}

// MonitorInfo describes a physical display and its refresh cycle.
type MonitorInfo struct {
	ID          MonitorID
	Name        string
	Bounds      Rect
	RefreshRate float64 // Hz, 0 if unknown
}

// CreateOptions are the parameters of a native window creation call.
type CreateOptions struct {
	Title string
	// Width and Height are the logical size. The backend sizes the native
	// surface with PhysicalExtent using the scale it will later report from
	// ScaleFactor.
	Width  float64
	Height float64
	// Parent is the native parent handle when HasParent is set.
	Parent    NativeHandle
	HasParent bool
	// RawParent embeds the window into a window this backend did not
	// create, such as a plugin host's editor area. Ignored when HasParent
	// is set; a zero Kind means none.
	RawParent RawWindowHandle
	// Position is the logical position of the window's top-left corner,
	// relative to the parent for children and to the desktop otherwise.
	// Without HasPosition the backend or window manager picks one.
	Position    Point
	HasPosition bool
	// Hidden creates the window without showing it.
	Hidden bool
}

// PhysicalExtent converts one logical dimension to device pixels.
func PhysicalExtent(logical, scale float64) int {
	return int(math.Round(logical * scale))
}

// ErrUnknownWindow is returned by backends for handles they do not track.
var ErrUnknownWindow = errors.New("platform: unknown native window")

// ErrBackendClosed is returned after Close.
var ErrBackendClosed = errors.New("platform: backend closed")

// ErrUnsupportedParent is returned by CreateWindow for a RawParent of a
// kind the backend cannot embed into.
var ErrUnsupportedParent = errors.New("platform: unsupported parent window handle")

// Backend abstracts native window-system operations across platforms.
//
// All methods except Wake are called from the loop goroutine only.
type Backend interface {
	// Name identifies the backend ("x11", "glfw", "headless").
	Name() string

	CreateWindow(opts CreateOptions) (NativeHandle, error)
	// DestroyWindow releases the native window. Completion is confirmed
	// by a RawDestroyed event from a later PollEvents call.
	DestroyWindow(h NativeHandle) error
	SetCursor(h NativeHandle, c Cursor) error
	ScaleFactor(h NativeHandle) (float64, error)
	// SetVisible shows or hides the window without destroying it.
	SetVisible(h NativeHandle, visible bool) error
	// WarpPointer moves the pointer to a physical position inside h.
	WarpPointer(h NativeHandle, at Point) error

	// PollEvents waits up to timeout for native events and returns them in
	// delivery order. A negative timeout blocks until an event or Wake.
	PollEvents(timeout time.Duration) ([]RawEvent, error)

	SubscribeRefresh(h NativeHandle) error
	// Present copies buf into the native surface. The backend must not
	// retain buf after returning.
	Present(h NativeHandle, buf *PixelBuffer) error
	// PresentRegions is Present limited to rects, given in physical pixels
	// and already clipped to buf. Pixels outside them keep their previous
	// contents.
	PresentRegions(h NativeHandle, buf *PixelBuffer, rects []Rect) error
	// CompletePresent blocks until the previous Present on h has reached the
	// native surface.
	CompletePresent(h NativeHandle) error

	RawHandle(h NativeHandle) RawWindowHandle
	Monitors() ([]MonitorInfo, error)

	// Wake interrupts a blocking PollEvents. Safe from any goroutine.
	Wake()
	Close() error
}
