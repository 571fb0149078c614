package mcp

import "github.com/1broseidon/winloop/internal/ipc"

// StatusInput is the input for the loop_status tool.
type StatusInput struct{}

// StatusOutput is the output for the loop_status tool.
type StatusOutput struct {
	Backend       string `json:"backend"`
	Mode          string `json:"mode"`
	Windows       int    `json:"windows"`
	Monitors      int    `json:"monitors"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct{}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
}

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct{}

// ListMonitorsOutput is the output for the list_monitors tool.
type ListMonitorsOutput struct {
	Monitors []ipc.MonitorInfo `json:"monitors"`
}

// OpenWindowInput is the input for the open_window tool.
type OpenWindowInput struct {
	Title  string  `json:"title,omitempty" jsonschema:"Window title (default: the configured window title)"`
	Width  float64 `json:"width,omitempty" jsonschema:"Logical width (default: the configured width)"`
	Height float64 `json:"height,omitempty" jsonschema:"Logical height (default: the configured height)"`
	Parent uint64  `json:"parent,omitempty" jsonschema:"Id of an open window to parent the new window to"`
	Cursor string  `json:"cursor,omitempty" jsonschema:"Cursor shown over the window: arrow, crosshair, hand, ibeam, no, size_ns, size_we, size_nesw, size_nwse, wait or hidden"`
	Hidden bool    `json:"hidden,omitempty" jsonschema:"When true, open the window without showing it"`
}

// OpenWindowOutput is the output for the open_window tool.
type OpenWindowOutput struct {
	ID uint64 `json:"id"`
}

// CloseWindowInput is the input for the close_window tool.
type CloseWindowInput struct {
	ID uint64 `json:"id" jsonschema:"required,Id of the window to close. Its children close with it."`
}

// SetVisibleInput is the input for the set_window_visible tool.
type SetVisibleInput struct {
	ID      uint64 `json:"id" jsonschema:"required,Id of the window"`
	Visible bool   `json:"visible" jsonschema:"true shows the window, false hides it"`
}

// StopInput is the input for the stop_loop tool.
type StopInput struct{}
