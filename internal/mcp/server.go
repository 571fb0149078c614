// Package mcp exposes a running event loop's control socket as Model
// Context Protocol tools, so MCP clients can inspect and drive its windows.
package mcp

import (
	"context"
	"io"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winloop/internal/ipc"
)

const (
	ServerName    = "winloop"
	ServerVersion = "0.1.0"
)

// Controller is the part of the control client the tools use.
// *ipc.Client implements it.
type Controller interface {
	Status() (*ipc.StatusData, error)
	ListWindows() ([]ipc.WindowInfo, error)
	Monitors() ([]ipc.MonitorInfo, error)
	OpenWindow(p ipc.OpenWindowPayload) (uint64, error)
	CloseWindow(id uint64) error
	SetVisible(id uint64, visible bool) error
	Stop() error
}

var _ Controller = (*ipc.Client)(nil)

// Server is the MCP server for a winloop control socket.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
	logger    *slog.Logger
}

// NewServer creates a server whose tools forward to ctl.
func NewServer(ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		ctl:    ctl,
		logger: logger.With("component", "mcp"),
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "loop_status",
		Description: "Report the running event loop's backend, loop mode, number of open windows and monitors, and uptime.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List the registered windows with their state, logical size, scale factor, cursor, visibility, parent, children and monitor.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List the connected monitors with their desktop bounds in pixels and refresh rate.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_window",
		Description: "Open a window in the running loop, optionally as a child of an open window. Returns the new window id.",
	}, s.handleOpenWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Close a window and its children. The loop stops once the last window has closed.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_window_visible",
		Description: "Show or hide a window without closing it.",
	}, s.handleSetVisible)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "stop_loop",
		Description: "Ask the event loop to stop. Open windows are closed as the loop shuts down.",
	}, s.handleStop)
}
