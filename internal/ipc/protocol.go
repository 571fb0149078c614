package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType names a control command.
type CommandType string

const (
	CommandStatus      CommandType = "STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandOpenWindow  CommandType = "OPEN_WINDOW"
	CommandCloseWindow CommandType = "CLOSE_WINDOW"
	CommandSetVisible  CommandType = "SET_VISIBLE"
	CommandMonitors    CommandType = "GET_MONITORS"
	CommandStop        CommandType = "STOP"
)

// Request is one line sent by a client.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the single line the server answers with.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is returned by STATUS.
type StatusData struct {
	Backend       string `json:"backend"`
	Mode          string `json:"mode"`
	Windows       int    `json:"windows"`
	Monitors      int    `json:"monitors"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// WindowInfo describes one registered window.
type WindowInfo struct {
	ID       uint64   `json:"id"`
	Title    string   `json:"title"`
	State    string   `json:"state"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Scale    float64  `json:"scale"`
	Cursor   string   `json:"cursor"`
	Visible  bool     `json:"visible"`
	Parent   uint64   `json:"parent,omitempty"`
	Children []uint64 `json:"children,omitempty"`
	Monitor  *int     `json:"monitor,omitempty"`
}

// WindowsData is returned by LIST_WINDOWS.
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// MonitorInfo describes one display.
type MonitorInfo struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	RefreshRate float64 `json:"refresh_rate"`
}

// MonitorsData is returned by GET_MONITORS.
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// OpenWindowPayload is the payload of OPEN_WINDOW. Zero fields take the
// server's defaults.
type OpenWindowPayload struct {
	Title  string  `json:"title,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Parent uint64  `json:"parent,omitempty"`
	Cursor string  `json:"cursor,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
}

// OpenedData is returned by OPEN_WINDOW.
type OpenedData struct {
	ID uint64 `json:"id"`
}

// CloseWindowPayload is the payload of CLOSE_WINDOW.
type CloseWindowPayload struct {
	ID uint64 `json:"id"`
}

// SetVisiblePayload shows or hides a window.
type SetVisiblePayload struct {
	ID      uint64 `json:"id"`
	Visible bool   `json:"visible"`
}

// NewOKResponse creates a successful response with optional data.
func NewOKResponse(data interface{}) (*Response, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		raw = b
	}
	return &Response{Status: "OK", Data: raw}, nil
}

// NewErrorResponse creates an error response with a message.
func NewErrorResponse(errMsg string) *Response {
	return &Response{Status: "ERROR", Error: errMsg}
}

// ParseRequest parses a request from JSON bytes.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
