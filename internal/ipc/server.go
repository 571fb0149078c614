// Package ipc exposes a running event loop over a unix socket. Each
// connection carries one JSON request line and receives one JSON response
// line. Commands run on the loop goroutine through the loop's Proxy.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winloop"
	"github.com/1broseidon/winloop/platform"
)

// OpenFunc opens a window requested over the socket. It runs on the loop
// goroutine and chooses the window's handler.
type OpenFunc func(l *winloop.EventLoop, opts winloop.WindowOptions) (*winloop.Window, error)

// ServerOptions configures a Server.
type ServerOptions struct {
	SocketPath string
	Loop       *winloop.EventLoop
	// Open defaults to opening with a handler that ignores events.
	Open OpenFunc
	// DefaultTitle, DefaultWidth and DefaultHeight fill zero fields of
	// OPEN_WINDOW payloads.
	DefaultTitle  string
	DefaultWidth  float64
	DefaultHeight float64
	// CallTimeout bounds how long a command waits for the loop. Defaults
	// to 5s.
	CallTimeout time.Duration
	Logger      *slog.Logger
}

// Server handles control requests from clients.
type Server struct {
	opts      ServerOptions
	logger    *slog.Logger
	listener  net.Listener
	startTime time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer validates opts and prepares a server. Start begins listening.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Loop == nil {
		return nil, errors.New("ipc: server needs an event loop")
	}
	if opts.SocketPath == "" {
		return nil, errors.New("ipc: server needs a socket path")
	}
	if opts.Open == nil {
		opts.Open = func(l *winloop.EventLoop, wo winloop.WindowOptions) (*winloop.Window, error) {
			return l.Open(wo, nil)
		}
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 5 * time.Second
	}
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "winloop"
	}
	if opts.DefaultWidth <= 0 {
		opts.DefaultWidth = 320
	}
	if opts.DefaultHeight <= 0 {
		opts.DefaultHeight = 240
	}
	logger := opts.Logger
	if logger == nil {
		logger = opts.Loop.Logger()
	}
	return &Server{
		opts:      opts,
		logger:    logger.With("component", "ipc"),
		startTime: time.Now(),
	}, nil
}

// Start listens on the socket, replacing a stale one, and serves
// connections in the background.
func (s *Server) Start() error {
	os.Remove(s.opts.SocketPath)
	listener, err := net.Listen("unix", s.opts.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to create control socket: %w", err)
	}
	if err := os.Chmod(s.opts.SocketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	s.listener = listener
	s.logger.Info("control server listening", "socket", s.opts.SocketPath)

	go s.acceptLoop()
	return nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.opts.SocketPath }

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(s.opts.CallTimeout + time.Second))

	data, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("read failed", "error", err)
		return
	}
	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.CallTimeout)
	defer cancel()
	s.send(conn, s.handleCommand(ctx, req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("marshal response", "error", err)
		return
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		s.logger.Debug("write failed", "error", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("command", "command", req.Command)
	switch req.Command {
	case CommandStatus:
		return s.handleStatus(ctx)
	case CommandListWindows:
		return s.handleListWindows(ctx)
	case CommandOpenWindow:
		return s.handleOpenWindow(ctx, req.Payload)
	case CommandCloseWindow:
		return s.handleCloseWindow(ctx, req.Payload)
	case CommandSetVisible:
		return s.handleSetVisible(ctx, req.Payload)
	case CommandMonitors:
		return s.handleMonitors(ctx)
	case CommandStop:
		return s.handleStop()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// call runs fn on the loop goroutine and turns its result into a response.
func (s *Server) call(ctx context.Context, fn func(*winloop.EventLoop) (interface{}, error)) *Response {
	var data interface{}
	err := s.opts.Loop.Proxy().Call(ctx, func(l *winloop.EventLoop) error {
		var err error
		data, err = fn(l)
		return err
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleStatus(ctx context.Context) *Response {
	return s.call(ctx, func(l *winloop.EventLoop) (interface{}, error) {
		return StatusData{
			Backend:       l.BackendName(),
			Mode:          l.Mode().String(),
			Windows:       len(l.Windows()),
			Monitors:      len(l.Monitors()),
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		}, nil
	})
}

func (s *Server) handleListWindows(ctx context.Context) *Response {
	return s.call(ctx, func(l *winloop.EventLoop) (interface{}, error) {
		data := WindowsData{Windows: []WindowInfo{}}
		for _, w := range l.Windows() {
			data.Windows = append(data.Windows, describe(w))
		}
		return data, nil
	})
}

func describe(w *winloop.Window) WindowInfo {
	size := w.Size()
	info := WindowInfo{
		ID:      uint64(w.ID()),
		Title:   w.Title(),
		State:   w.State().String(),
		Width:   size.Width,
		Height:  size.Height,
		Scale:   w.ScaleFactor(),
		Cursor:  w.Cursor().String(),
		Visible: w.Visible(),
	}
	if p, ok := w.Parent(); ok {
		info.Parent = uint64(p)
	}
	for _, c := range w.Children() {
		info.Children = append(info.Children, uint64(c))
	}
	if m, ok := w.Monitor(); ok {
		id := int(m)
		info.Monitor = &id
	}
	return info
}

func (s *Server) handleOpenWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req OpenWindowPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("invalid open payload: %v", err))
		}
	}
	cursor := platform.CursorArrow
	if req.Cursor != "" {
		c, err := platform.ParseCursor(req.Cursor)
		if err != nil {
			return NewErrorResponse(err.Error())
		}
		cursor = c
	}
	if req.Title == "" {
		req.Title = s.opts.DefaultTitle
	}
	if req.Width == 0 {
		req.Width = s.opts.DefaultWidth
	}
	if req.Height == 0 {
		req.Height = s.opts.DefaultHeight
	}

	return s.call(ctx, func(l *winloop.EventLoop) (interface{}, error) {
		wo := winloop.WindowOptions{
			Title:  req.Title,
			Size:   platform.Size{Width: req.Width, Height: req.Height},
			Cursor: cursor,
			Hidden: req.Hidden,
		}
		if req.Parent != 0 {
			parent, ok := l.Window(winloop.WindowID(req.Parent))
			if !ok {
				return nil, fmt.Errorf("%w: %d", winloop.ErrParentUnavailable, req.Parent)
			}
			wo.Parent = parent
		}
		w, err := s.opts.Open(l, wo)
		if err != nil {
			return nil, err
		}
		return OpenedData{ID: uint64(w.ID())}, nil
	})
}

func (s *Server) handleCloseWindow(ctx context.Context, payload json.RawMessage) *Response {
	var req CloseWindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid close payload: %v", err))
	}
	return s.call(ctx, func(l *winloop.EventLoop) (interface{}, error) {
		w, ok := l.Window(winloop.WindowID(req.ID))
		if !ok {
			return nil, fmt.Errorf("%w: %d", winloop.ErrWindowClosed, req.ID)
		}
		w.Close()
		return nil, nil
	})
}

func (s *Server) handleSetVisible(ctx context.Context, payload json.RawMessage) *Response {
	var req SetVisiblePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("invalid visibility payload: %v", err))
	}
	return s.call(ctx, func(l *winloop.EventLoop) (interface{}, error) {
		w, ok := l.Window(winloop.WindowID(req.ID))
		if !ok {
			return nil, fmt.Errorf("%w: %d", winloop.ErrWindowClosed, req.ID)
		}
		if req.Visible {
			return nil, w.Show()
		}
		return nil, w.Hide()
	})
}

func (s *Server) handleMonitors(ctx context.Context) *Response {
	return s.call(ctx, func(l *winloop.EventLoop) (interface{}, error) {
		data := MonitorsData{Monitors: MonitorInfos(l.Monitors())}
		return data, nil
	})
}

// MonitorInfos converts backend monitor descriptions to their wire form.
func MonitorInfos(infos []platform.MonitorInfo) []MonitorInfo {
	out := make([]MonitorInfo, 0, len(infos))
	for _, m := range infos {
		out = append(out, MonitorInfo{
			ID:          int(m.ID),
			Name:        m.Name,
			X:           m.Bounds.X,
			Y:           m.Bounds.Y,
			Width:       m.Bounds.Width,
			Height:      m.Bounds.Height,
			RefreshRate: m.RefreshRate,
		})
	}
	return out
}

// handleStop asks the loop to stop without waiting for it: once Run
// returns nothing drains the proxy queue.
func (s *Server) handleStop() *Response {
	if err := s.opts.Loop.Proxy().Post(func(l *winloop.EventLoop) { l.Stop() }); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

// Stop closes the listener, waits for in-flight connections and removes
// the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.opts.SocketPath)
	s.logger.Debug("control server stopped")
}
