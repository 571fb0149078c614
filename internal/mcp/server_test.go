package mcp

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winloop/internal/ipc"
)

type fakeController struct {
	windows  []ipc.WindowInfo
	opened   []ipc.OpenWindowPayload
	closed   []uint64
	visible  map[uint64]bool
	stopped  bool
	closeErr error
}

func (f *fakeController) Status() (*ipc.StatusData, error) {
	return &ipc.StatusData{Backend: "headless", Mode: "owner", Windows: len(f.windows), Monitors: 1, UptimeSeconds: 12}, nil
}

func (f *fakeController) ListWindows() ([]ipc.WindowInfo, error) { return f.windows, nil }

func (f *fakeController) Monitors() ([]ipc.MonitorInfo, error) {
	return []ipc.MonitorInfo{{ID: 0, Name: "virtual-0", Width: 800, Height: 600, RefreshRate: 60}}, nil
}

func (f *fakeController) OpenWindow(p ipc.OpenWindowPayload) (uint64, error) {
	f.opened = append(f.opened, p)
	id := uint64(len(f.opened))
	f.windows = append(f.windows, ipc.WindowInfo{ID: id, Title: p.Title, Parent: p.Parent})
	return id, nil
}

func (f *fakeController) CloseWindow(id uint64) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeController) SetVisible(id uint64, visible bool) error {
	if f.visible == nil {
		f.visible = make(map[uint64]bool)
	}
	f.visible[id] = visible
	return nil
}

func (f *fakeController) Stop() error {
	f.stopped = true
	return nil
}

func TestHandleOpenWindowForwardsPayload(t *testing.T) {
	ctl := &fakeController{}
	s := NewServer(ctl, nil)

	_, out, err := s.handleOpenWindow(context.Background(), nil, OpenWindowInput{Title: "inspector", Width: 100, Height: 50, Parent: 3, Cursor: "hand", Hidden: true})
	if err != nil {
		t.Fatalf("handleOpenWindow: %v", err)
	}
	if out.ID != 1 {
		t.Fatalf("id = %d, want 1", out.ID)
	}
	want := ipc.OpenWindowPayload{Title: "inspector", Width: 100, Height: 50, Parent: 3, Cursor: "hand", Hidden: true}
	if len(ctl.opened) != 1 || ctl.opened[0] != want {
		t.Fatalf("opened = %+v, want %+v", ctl.opened, want)
	}

	if _, _, err := s.handleOpenWindow(context.Background(), nil, OpenWindowInput{Width: -1}); err == nil {
		t.Fatalf("negative width accepted")
	}
	if len(ctl.opened) != 1 {
		t.Fatalf("rejected request reached the loop")
	}
}

func TestHandleListWindowsNeverReturnsNil(t *testing.T) {
	s := NewServer(&fakeController{}, nil)
	_, out, err := s.handleListWindows(context.Background(), nil, ListWindowsInput{})
	if err != nil {
		t.Fatalf("handleListWindows: %v", err)
	}
	if out.Windows == nil {
		t.Fatalf("windows is nil, want an empty list")
	}
}

func TestHandleCloseWindowWrapsError(t *testing.T) {
	ctl := &fakeController{closeErr: errors.New("winloop: window is closed")}
	s := NewServer(ctl, nil)
	_, _, err := s.handleCloseWindow(context.Background(), nil, CloseWindowInput{ID: 9})
	if err == nil || !strings.Contains(err.Error(), "close window 9") {
		t.Fatalf("err = %v", err)
	}
}

func TestHandleSetVisibleAndStop(t *testing.T) {
	ctl := &fakeController{}
	s := NewServer(ctl, nil)

	res, _, err := s.handleSetVisible(context.Background(), nil, SetVisibleInput{ID: 2, Visible: false})
	if err != nil {
		t.Fatalf("handleSetVisible: %v", err)
	}
	if v, ok := ctl.visible[2]; !ok || v {
		t.Fatalf("visible = %v", ctl.visible)
	}
	if text := res.Content[0].(*mcpsdk.TextContent).Text; text != "Window 2 hidden" {
		t.Fatalf("text = %q", text)
	}

	if _, _, err := s.handleStop(context.Background(), nil, StopInput{}); err != nil || !ctl.stopped {
		t.Fatalf("handleStop: %v, stopped=%v", err, ctl.stopped)
	}
}

// connect serves s over in-memory transports and returns a client session.
func connect(t *testing.T, s *Server) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	ct, st := mcpsdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestToolsAreRegistered(t *testing.T) {
	cs := connect(t, NewServer(&fakeController{}, nil))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"close_window", "list_monitors", "list_windows", "loop_status", "open_window", "set_window_visible", "stop_loop"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v, want %v", names, want)
	}
}

func TestCallOpenWindowOverSession(t *testing.T) {
	ctl := &fakeController{}
	cs := connect(t, NewServer(ctl, nil))

	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      "open_window",
		Arguments: map[string]any{"title": "remote", "width": 64, "height": 48},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool reported an error: %+v", res.Content)
	}
	out, ok := res.StructuredContent.(map[string]any)
	if !ok || out["id"] != float64(1) {
		t.Fatalf("structured content = %#v", res.StructuredContent)
	}
	if len(ctl.opened) != 1 || ctl.opened[0].Title != "remote" || ctl.opened[0].Width != 64 {
		t.Fatalf("opened = %+v", ctl.opened)
	}
}
