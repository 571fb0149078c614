// Package x11 implements the window backend on the X11 protocol through
// xgb/xgbutil. Native events are read by a goroutine blocked in
// WaitForEvent and handed to PollEvents over a channel, so the loop can
// bound its wait with a timeout and be woken from other goroutines.
package x11

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/winloop/internal/vsync"
	"github.com/1broseidon/winloop/platform"
)

// Options configures the connection.
type Options struct {
	// Display overrides $DISPLAY.
	Display string
	// RefreshFallbackHz paces windows whose monitor reports no refresh
	// rate. Defaults to 60.
	RefreshFallbackHz float64
	Logger            *slog.Logger
}

// Backend owns one X server connection.
type Backend struct {
	xu     *xgbutil.XUtil
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	logger *slog.Logger

	protocolsAtom xproto.Atom
	deleteAtom    xproto.Atom
	hasRandr      bool

	events chan xgb.Event
	xerrs  chan xgb.Error
	wake   chan struct{}
	done   chan struct{}

	// mu guards windows, which GetMonitors callers may read.
	mu      sync.Mutex
	windows map[xproto.Window]*window

	vsync    *vsync.Source
	pending  []platform.RawEvent
	monitors []platform.MonitorInfo
	cursors  map[platform.Cursor]xproto.Cursor
	scale    float64
	closed   bool
}

var _ platform.Backend = (*Backend)(nil)

// New connects to the X server.
func New(opts Options) (*Backend, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var xu *xgbutil.XUtil
	var err error
	if opts.Display != "" {
		xu, err = xgbutil.NewConnDisplay(opts.Display)
	} else {
		xu, err = xgbutil.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}

	b := &Backend{
		xu:      xu,
		conn:    xu.Conn(),
		root:    xu.RootWin(),
		screen:  xu.Screen(),
		logger:  logger.With("component", "x11"),
		events:  make(chan xgb.Event, 256),
		xerrs:   make(chan xgb.Error, 16),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		windows: make(map[xproto.Window]*window),
		cursors: make(map[platform.Cursor]xproto.Cursor),
	}
	b.vsync = vsync.New(opts.RefreshFallbackHz, b.Wake)

	if b.protocolsAtom, err = xprop.Atm(xu, "WM_PROTOCOLS"); err != nil {
		b.conn.Close()
		return nil, fmt.Errorf("x11: intern WM_PROTOCOLS: %w", err)
	}
	if b.deleteAtom, err = xprop.Atm(xu, "WM_DELETE_WINDOW"); err != nil {
		b.conn.Close()
		return nil, fmt.Errorf("x11: intern WM_DELETE_WINDOW: %w", err)
	}

	// Xft.dpi changes arrive as RESOURCE_MANAGER property updates on the
	// root window.
	xproto.ChangeWindowAttributes(b.conn, b.root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange})
	b.scale = b.readScale()

	if err := randr.Init(b.conn); err != nil {
		b.logger.Warn("randr unavailable, monitors will not be tracked", "error", err)
	} else {
		b.hasRandr = true
		randr.SelectInput(b.conn, b.root, randr.NotifyMaskScreenChange)
	}
	if mons, err := b.queryMonitors(); err != nil {
		b.logger.Warn("querying monitors failed", "error", err)
	} else {
		b.monitors = mons
	}
	b.vsync.SetMonitors(b.monitors)

	go b.readEvents()

	b.logger.Debug("connected", "screen_width", b.screen.WidthInPixels,
		"screen_height", b.screen.HeightInPixels, "scale", b.scale, "monitors", len(b.monitors))
	return b, nil
}

func (b *Backend) Name() string { return "x11" }

func (b *Backend) readEvents() {
	defer close(b.events)
	for {
		ev, xerr := b.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			select {
			case b.xerrs <- xerr:
			default:
			}
			continue
		}
		select {
		case b.events <- ev:
		case <-b.done:
			return
		}
	}
}

// Wake interrupts a blocking PollEvents. Safe from any goroutine.
func (b *Backend) Wake() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// PollEvents returns the native events available now or, when there are
// none, waits up to timeout for one.
func (b *Backend) PollEvents(timeout time.Duration) ([]platform.RawEvent, error) {
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	out := b.pending
	b.pending = nil

	out, err := b.drain(out)
	if err != nil {
		return out, err
	}
	if len(out) == 0 && !b.vsync.Pending() && timeout != 0 {
		var expired <-chan time.Time
		if timeout > 0 {
			t := time.NewTimer(timeout)
			defer t.Stop()
			expired = t.C
		}
		select {
		case ev, ok := <-b.events:
			if !ok {
				return nil, errConnectionLost
			}
			out = b.translate(out, ev)
			if out, err = b.drain(out); err != nil {
				return out, err
			}
		case xerr := <-b.xerrs:
			b.logger.Debug("x protocol error", "error", xerr)
		case <-b.wake:
		case <-expired:
		}
	}
	return append(out, b.vsync.Take()...), nil
}

var errConnectionLost = errors.New("x11: connection to the X server lost")

// drain translates queued events without blocking.
func (b *Backend) drain(out []platform.RawEvent) ([]platform.RawEvent, error) {
	for {
		select {
		case ev, ok := <-b.events:
			if !ok {
				return out, errConnectionLost
			}
			out = b.translate(out, ev)
		case xerr := <-b.xerrs:
			b.logger.Debug("x protocol error", "error", xerr)
		default:
			return out, nil
		}
	}
}

// Close destroys remaining windows and disconnects.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	b.vsync.Close()

	b.mu.Lock()
	for id, w := range b.windows {
		xproto.FreeGC(b.conn, w.gc)
		xproto.DestroyWindow(b.conn, id)
	}
	b.windows = map[xproto.Window]*window{}
	b.mu.Unlock()
	for _, c := range b.cursors {
		xproto.FreeCursor(b.conn, c)
	}

	b.conn.Close()
	b.logger.Debug("disconnected")
	return nil
}
