package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winloop/internal/ipc"
)

func textResult(format string, args ...any) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.ctl.Status()
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{
		Backend:       st.Backend,
		Mode:          st.Mode,
		Windows:       st.Windows,
		Monitors:      st.Monitors,
		UptimeSeconds: st.UptimeSeconds,
	}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.ctl.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	if windows == nil {
		windows = []ipc.WindowInfo{}
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMonitorsInput) (*mcpsdk.CallToolResult, ListMonitorsOutput, error) {
	monitors, err := s.ctl.Monitors()
	if err != nil {
		return nil, ListMonitorsOutput{}, err
	}
	if monitors == nil {
		monitors = []ipc.MonitorInfo{}
	}
	return nil, ListMonitorsOutput{Monitors: monitors}, nil
}

func (s *Server) handleOpenWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args OpenWindowInput) (*mcpsdk.CallToolResult, OpenWindowOutput, error) {
	if args.Width < 0 || args.Height < 0 {
		return nil, OpenWindowOutput{}, fmt.Errorf("width and height must not be negative")
	}
	id, err := s.ctl.OpenWindow(ipc.OpenWindowPayload{
		Title:  args.Title,
		Width:  args.Width,
		Height: args.Height,
		Parent: args.Parent,
		Cursor: args.Cursor,
		Hidden: args.Hidden,
	})
	if err != nil {
		return nil, OpenWindowOutput{}, fmt.Errorf("open window: %w", err)
	}
	s.logger.Info("window opened", "window", id, "parent", args.Parent)
	return nil, OpenWindowOutput{ID: id}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseWindowInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.ctl.CloseWindow(args.ID); err != nil {
		return nil, nil, fmt.Errorf("close window %d: %w", args.ID, err)
	}
	s.logger.Info("window closing", "window", args.ID)
	return textResult("Closing window %d", args.ID), nil, nil
}

func (s *Server) handleSetVisible(_ context.Context, _ *mcpsdk.CallToolRequest, args SetVisibleInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.ctl.SetVisible(args.ID, args.Visible); err != nil {
		return nil, nil, fmt.Errorf("set window %d visible=%t: %w", args.ID, args.Visible, err)
	}
	if args.Visible {
		return textResult("Window %d shown", args.ID), nil, nil
	}
	return textResult("Window %d hidden", args.ID), nil, nil
}

func (s *Server) handleStop(_ context.Context, _ *mcpsdk.CallToolRequest, _ StopInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.ctl.Stop(); err != nil {
		return nil, nil, err
	}
	s.logger.Info("loop stop requested")
	return textResult("Stopping the event loop"), nil, nil
}
