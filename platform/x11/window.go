package x11

import (
	"fmt"
	"math"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/winloop/platform"
)

const windowEventMask = xproto.EventMaskPointerMotion |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskEnterWindow |
	xproto.EventMaskLeaveWindow |
	xproto.EventMaskFocusChange |
	xproto.EventMaskStructureNotify

type window struct {
	id xproto.Window
	gc xproto.Gcontext
	// parent is set for children of windows this backend created. host is
	// set for windows embedded into a foreign window; they count as
	// top-level here.
	parent xproto.Window
	host   xproto.Window
	// logical is the requested size; width and height follow it at the
	// current scale.
	logical platform.Size
	width   int
	height  int
	mapped  bool

	monitor    platform.MonitorID
	hasMonitor bool
	inFlight   bool
}

func (w *window) topLevel() bool { return w.parent == 0 }

func (b *Backend) lookup(h platform.NativeHandle) (*window, error) {
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	b.mu.Lock()
	w, ok := b.windows[xproto.Window(h)]
	b.mu.Unlock()
	if !ok {
		return nil, platform.ErrUnknownWindow
	}
	return w, nil
}

// CreateWindow creates a window and maps it unless opts.Hidden is set.
// Child windows are real X subwindows, as are windows embedded into a
// foreign X window through opts.RawParent.
func (b *Backend) CreateWindow(opts platform.CreateOptions) (platform.NativeHandle, error) {
	if b.closed {
		return 0, platform.ErrBackendClosed
	}
	w := &window{logical: platform.Size{Width: opts.Width, Height: opts.Height}}
	parent := b.root
	switch {
	case opts.HasParent:
		p, err := b.lookup(opts.Parent)
		if err != nil {
			return 0, err
		}
		parent = p.id
		w.parent = p.id
	case opts.RawParent.Kind == platform.HandleX11:
		parent = xproto.Window(opts.RawParent.Window)
		w.host = parent
	case opts.RawParent.Kind != platform.HandleUnknown:
		return 0, fmt.Errorf("%w: %s", platform.ErrUnsupportedParent, opts.RawParent.Kind)
	}
	width, height, err := physicalSize(w.logical, b.scale)
	if err != nil {
		return 0, err
	}
	var x, y int16
	if opts.HasPosition {
		x = int16(platform.PhysicalExtent(opts.Position.X, b.scale))
		y = int16(platform.PhysicalExtent(opts.Position.Y, b.scale))
	}

	xw, err := xwindow.Generate(b.xu)
	if err != nil {
		return 0, fmt.Errorf("x11: allocate window id: %w", err)
	}
	err = xw.CreateChecked(parent, int(x), int(y), width, height,
		xproto.CwBackPixel|xproto.CwEventMask,
		b.screen.BlackPixel, windowEventMask)
	if err != nil {
		return 0, fmt.Errorf("x11: create window: %w", err)
	}
	w.id, w.width, w.height = xw.Id, width, height
	if w.decorated() {
		b.decorate(xw.Id, opts.Title, width, height)
		if opts.HasPosition {
			b.setPositionHint(xw.Id, int(x), int(y), width, height)
		}
	}

	gc, err := xproto.NewGcontextId(b.conn)
	if err != nil {
		xproto.DestroyWindow(b.conn, xw.Id)
		return 0, fmt.Errorf("x11: allocate gc: %w", err)
	}
	xproto.CreateGC(b.conn, gc, xproto.Drawable(xw.Id), 0, nil)
	w.gc = gc

	b.mu.Lock()
	b.windows[xw.Id] = w
	b.mu.Unlock()

	if !opts.Hidden {
		xw.Map()
		w.mapped = true
	}
	b.trackMonitor(w)
	b.logger.Debug("window created", "xid", xw.Id, "width", width, "height", height,
		"parent", w.parent, "host", w.host, "mapped", w.mapped)
	return platform.NativeHandle(xw.Id), nil
}

// decorated reports whether the window manager manages w.
func (w *window) decorated() bool { return w.parent == 0 && w.host == 0 }

// physicalSize converts a logical size to a device size X can hold.
func physicalSize(logical platform.Size, scale float64) (int, int, error) {
	width := platform.PhysicalExtent(logical.Width, scale)
	height := platform.PhysicalExtent(logical.Height, scale)
	if width < 1 || height < 1 || width > 0xffff || height > 0xffff {
		return 0, 0, fmt.Errorf("x11: window size %dx%d out of range", width, height)
	}
	return width, height, nil
}

// decorate sets the title, close protocol and fixed size hints of a
// top-level window.
func (b *Backend) decorate(id xproto.Window, title string, width, height int) {
	if err := ewmh.WmNameSet(b.xu, id, title); err != nil {
		b.logger.Debug("setting _NET_WM_NAME failed", "error", err)
	}
	if err := icccm.WmNameSet(b.xu, id, title); err != nil {
		b.logger.Debug("setting WM_NAME failed", "error", err)
	}
	if err := icccm.WmProtocolsSet(b.xu, id, []string{"WM_DELETE_WINDOW"}); err != nil {
		b.logger.Debug("setting WM_PROTOCOLS failed", "error", err)
	}
	b.setSizeHints(id, width, height)
}

// setSizeHints pins the window to width by height.
func (b *Backend) setSizeHints(id xproto.Window, width, height int) {
	if err := icccm.WmNormalHintsSet(b.xu, id, fixedSizeHints(width, height)); err != nil {
		b.logger.Debug("setting WM_NORMAL_HINTS failed", "error", err)
	}
}

// setPositionHint asks the window manager to honor the requested position
// instead of placing the window itself.
func (b *Backend) setPositionHint(id xproto.Window, x, y, width, height int) {
	hints := fixedSizeHints(width, height)
	hints.Flags |= icccm.SizeHintUSPosition | icccm.SizeHintPPosition
	hints.X, hints.Y = x, y
	if err := icccm.WmNormalHintsSet(b.xu, id, hints); err != nil {
		b.logger.Debug("setting WM_NORMAL_HINTS failed", "error", err)
	}
}

func fixedSizeHints(width, height int) *icccm.NormalHints {
	return &icccm.NormalHints{
		Flags:     icccm.SizeHintPMinSize | icccm.SizeHintPMaxSize,
		MinWidth:  uint(width),
		MinHeight: uint(height),
		MaxWidth:  uint(width),
		MaxHeight: uint(height),
	}
}

// resize applies the window's logical size at scale: the window itself and,
// for managed windows, the size hints that keep it fixed.
func (b *Backend) resize(w *window, scale float64) error {
	width, height, err := physicalSize(w.logical, scale)
	if err != nil {
		return err
	}
	if width == w.width && height == w.height {
		return nil
	}
	if w.decorated() {
		b.setSizeHints(w.id, width, height)
	}
	err = xproto.ConfigureWindowChecked(b.conn, w.id,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)}).Check()
	if err != nil {
		return fmt.Errorf("x11: resize window: %w", err)
	}
	w.width, w.height = width, height
	return nil
}

// DestroyWindow destroys the window. The DestroyNotify that follows is
// reported as RawDestroyed.
func (b *Backend) DestroyWindow(h platform.NativeHandle) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	xproto.FreeGC(b.conn, w.gc)
	if err := xproto.DestroyWindowChecked(b.conn, w.id).Check(); err != nil {
		return fmt.Errorf("x11: destroy window: %w", err)
	}
	return nil
}

var cursorShapes = map[platform.Cursor]uint16{
	platform.CursorArrow:     xcursor.LeftPtr,
	platform.CursorCrosshair: xcursor.Crosshair,
	platform.CursorHand:      xcursor.Hand2,
	platform.CursorIBeam:     xcursor.Xterm,
	platform.CursorNo:        xcursor.Circle,
	platform.CursorSizeNS:    xcursor.SBVDoubleArrow,
	platform.CursorSizeWE:    xcursor.SBHDoubleArrow,
	platform.CursorSizeNESW:  xcursor.BottomLeftCorner,
	platform.CursorSizeNWSE:  xcursor.BottomRightCorner,
	platform.CursorWait:      xcursor.Watch,
}

func (b *Backend) cursor(c platform.Cursor) (xproto.Cursor, error) {
	if cur, ok := b.cursors[c]; ok {
		return cur, nil
	}
	var cur xproto.Cursor
	var err error
	if c == platform.CursorHidden {
		cur, err = b.blankCursor()
	} else {
		shape, ok := cursorShapes[c]
		if !ok {
			return 0, fmt.Errorf("x11: unsupported cursor %v", c)
		}
		cur, err = xcursor.CreateCursor(b.xu, shape)
	}
	if err != nil {
		return 0, err
	}
	b.cursors[c] = cur
	return cur, nil
}

// blankCursor builds an invisible cursor from an empty 1x1 bitmap.
func (b *Backend) blankCursor() (xproto.Cursor, error) {
	pix, err := xproto.NewPixmapId(b.conn)
	if err != nil {
		return 0, err
	}
	xproto.CreatePixmap(b.conn, 1, pix, xproto.Drawable(b.root), 1, 1)
	defer xproto.FreePixmap(b.conn, pix)

	cur, err := xproto.NewCursorId(b.conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateCursorChecked(b.conn, cur, pix, pix, 0, 0, 0, 0, 0, 0, 0, 0).Check()
	if err != nil {
		return 0, err
	}
	return cur, nil
}

func (b *Backend) SetCursor(h platform.NativeHandle, c platform.Cursor) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	cur, err := b.cursor(c)
	if err != nil {
		return fmt.Errorf("x11: load cursor %v: %w", c, err)
	}
	err = xproto.ChangeWindowAttributesChecked(b.conn, w.id, xproto.CwCursor, []uint32{uint32(cur)}).Check()
	if err != nil {
		return fmt.Errorf("x11: set cursor: %w", err)
	}
	return nil
}

// SetVisible maps or unmaps the window.
func (b *Backend) SetVisible(h platform.NativeHandle, visible bool) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	if visible {
		err = xproto.MapWindowChecked(b.conn, w.id).Check()
	} else {
		err = xproto.UnmapWindowChecked(b.conn, w.id).Check()
	}
	if err != nil {
		return fmt.Errorf("x11: set visible: %w", err)
	}
	w.mapped = visible
	return nil
}

// WarpPointer moves the pointer relative to the window's origin. The
// server reports the move as motion.
func (b *Backend) WarpPointer(h platform.NativeHandle, at platform.Point) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	x, y := int16(math.Round(at.X)), int16(math.Round(at.Y))
	if err := xproto.WarpPointerChecked(b.conn, xproto.WindowNone, w.id, 0, 0, 0, 0, x, y).Check(); err != nil {
		return fmt.Errorf("x11: warp pointer: %w", err)
	}
	return nil
}

// ScaleFactor reports the Xft.dpi based scale. X11 has one DPI per screen,
// so every window shares it.
func (b *Backend) ScaleFactor(h platform.NativeHandle) (float64, error) {
	if _, err := b.lookup(h); err != nil {
		return 0, err
	}
	return b.scale, nil
}

// RawHandle returns the X window id. xgb speaks the protocol directly and
// has no Xlib Display, so Display is zero.
func (b *Backend) RawHandle(h platform.NativeHandle) platform.RawWindowHandle {
	if _, err := b.lookup(h); err != nil {
		return platform.RawWindowHandle{}
	}
	return platform.RawWindowHandle{Kind: platform.HandleX11, Window: uintptr(h)}
}
