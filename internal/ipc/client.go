package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to a running loop's control socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient returns a client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// sendRequest sends one request line and reads one response line.
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w (is winloop running?)", c.socketPath, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("winloop error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) do(cmd CommandType, payload, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = raw
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Status retrieves the loop's status.
func (c *Client) Status() (*StatusData, error) {
	var data StatusData
	if err := c.do(CommandStatus, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListWindows retrieves the registered windows.
func (c *Client) ListWindows() ([]WindowInfo, error) {
	var data WindowsData
	if err := c.do(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

// Monitors retrieves the loop's monitor table.
func (c *Client) Monitors() ([]MonitorInfo, error) {
	var data MonitorsData
	if err := c.do(CommandMonitors, nil, &data); err != nil {
		return nil, err
	}
	return data.Monitors, nil
}

// OpenWindow opens a window and returns its id.
func (c *Client) OpenWindow(p OpenWindowPayload) (uint64, error) {
	var data OpenedData
	if err := c.do(CommandOpenWindow, p, &data); err != nil {
		return 0, err
	}
	return data.ID, nil
}

// CloseWindow begins closing a window.
func (c *Client) CloseWindow(id uint64) error {
	return c.do(CommandCloseWindow, CloseWindowPayload{ID: id}, nil)
}

// SetVisible shows or hides a window.
func (c *Client) SetVisible(id uint64, visible bool) error {
	return c.do(CommandSetVisible, SetVisiblePayload{ID: id, Visible: visible}, nil)
}

// Stop asks the loop to stop.
func (c *Client) Stop() error {
	return c.do(CommandStop, nil, nil)
}

// Ping checks that the loop answers.
func (c *Client) Ping() error {
	_, err := c.Status()
	return err
}
