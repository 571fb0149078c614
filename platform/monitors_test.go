package platform

import "testing"

func TestMonitorAtAndDiff(t *testing.T) {
	left := MonitorInfo{ID: 0, Name: "eDP-1", Bounds: Rect{Width: 1920, Height: 1080}, RefreshRate: 60}
	right := MonitorInfo{ID: 1, Name: "DP-1", Bounds: Rect{X: 1920, Width: 2560, Height: 1440}, RefreshRate: 144}

	if m, ok := MonitorAt([]MonitorInfo{left, right}, 2000, 10); !ok || m.ID != 1 {
		t.Fatalf("MonitorAt = %v,%v want DP-1", m, ok)
	}
	if _, ok := MonitorAt([]MonitorInfo{left}, -5, 0); ok {
		t.Fatalf("point off every monitor matched")
	}

	moved := right
	moved.RefreshRate = 120
	evs := DiffMonitors([]MonitorInfo{left, right}, []MonitorInfo{moved})
	if len(evs) != 2 {
		t.Fatalf("diff = %v, want removal of 0 and update of 1", evs)
	}
	if r, ok := evs[0].(RawMonitorRemoved); !ok || r.Monitor != 0 {
		t.Fatalf("first = %#v", evs[0])
	}
	if a, ok := evs[1].(RawMonitorAdded); !ok || a.Monitor.RefreshRate != 120 {
		t.Fatalf("second = %#v", evs[1])
	}
	if evs := DiffMonitors([]MonitorInfo{left}, []MonitorInfo{left}); len(evs) != 0 {
		t.Fatalf("unchanged set produced %v", evs)
	}
}
