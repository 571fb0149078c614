package x11

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winloop/platform"
)

// queryMonitors lists active CRTCs through RandR. The monitor ID is the CRTC
// index in the screen resources.
func (b *Backend) queryMonitors() ([]platform.MonitorInfo, error) {
	if !b.hasRandr {
		return []platform.MonitorInfo{{
			ID:   0,
			Name: "screen",
			Bounds: platform.Rect{
				Width:  int(b.screen.WidthInPixels),
				Height: int(b.screen.HeightInPixels),
			},
		}}, nil
	}

	resources, err := randr.GetScreenResources(b.conn, b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}
	modes := make(map[uint32]randr.ModeInfo, len(resources.Modes))
	for _, m := range resources.Modes {
		modes[m.Id] = m
	}

	var monitors []platform.MonitorInfo
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(b.conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Skip disabled CRTCs
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		out, err := randr.GetOutputInfo(b.conn, info.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			name = string(out.Name)
		}

		monitors = append(monitors, platform.MonitorInfo{
			ID:   platform.MonitorID(i),
			Name: name,
			Bounds: platform.Rect{
				X:      int(info.X),
				Y:      int(info.Y),
				Width:  int(info.Width),
				Height: int(info.Height),
			},
			RefreshRate: refreshRate(modes[uint32(info.Mode)]),
		})
	}
	return monitors, nil
}

// refreshRate derives the vertical refresh in Hz from a mode line.
func refreshRate(m randr.ModeInfo) float64 {
	if m.Htotal == 0 || m.Vtotal == 0 {
		return 0
	}
	vtotal := float64(m.Vtotal)
	if m.ModeFlags&randr.ModeFlagDoubleScan != 0 {
		vtotal *= 2
	}
	if m.ModeFlags&randr.ModeFlagInterlace != 0 {
		vtotal /= 2
	}
	return float64(m.DotClock) / (float64(m.Htotal) * vtotal)
}

// Monitors returns the displays known from the last RandR query.
func (b *Backend) Monitors() ([]platform.MonitorInfo, error) {
	if b.closed {
		return nil, platform.ErrBackendClosed
	}
	return append([]platform.MonitorInfo(nil), b.monitors...), nil
}

// windowCenter translates a window's center into root coordinates.
func (b *Backend) windowCenter(w *window) (int, int, bool) {
	tr, err := xproto.TranslateCoordinates(b.conn, w.id, b.root, 0, 0).Reply()
	if err != nil {
		return 0, 0, false
	}
	return int(tr.DstX) + w.width/2, int(tr.DstY) + w.height/2, true
}

// monitorChange re-locates a top-level window and reports a move to another
// monitor. Children follow their top-level window.
func (b *Backend) monitorChange(w *window) []platform.RawEvent {
	x, y, ok := b.windowCenter(w)
	if !ok {
		return nil
	}
	m, ok := platform.MonitorAt(b.monitors, x, y)
	if !ok || (w.hasMonitor && w.monitor == m.ID) {
		return nil
	}

	var out []platform.RawEvent
	b.mu.Lock()
	for _, id := range b.sortedWindowsLocked() {
		c := b.windows[id]
		if c != w && b.topLevelOfLocked(c) != w {
			continue
		}
		c.monitor = m.ID
		c.hasMonitor = true
		out = append(out, platform.RawMonitorChanged{Window: platform.NativeHandle(c.id), Monitor: m.ID})
	}
	b.mu.Unlock()
	return out
}

// trackMonitor queues the initial monitor of a new window.
func (b *Backend) trackMonitor(w *window) {
	if w.topLevel() {
		b.pending = append(b.pending, b.monitorChange(w)...)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if top := b.topLevelOfLocked(w); top != nil && top.hasMonitor {
		w.monitor = top.monitor
		w.hasMonitor = true
		b.pending = append(b.pending, platform.RawMonitorChanged{Window: platform.NativeHandle(w.id), Monitor: w.monitor})
	}
}

func (b *Backend) topLevelOfLocked(w *window) *window {
	for w != nil && !w.topLevel() {
		w = b.windows[w.parent]
	}
	return w
}

func (b *Backend) sortedWindowsLocked() []xproto.Window {
	ids := make([]xproto.Window, 0, len(b.windows))
	for id := range b.windows {
		ids = append(ids, id)
	}
	sortWindows(ids)
	return ids
}

func sortWindows(ids []xproto.Window) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// reloadMonitors re-queries RandR after a screen change and reports the
// difference.
func (b *Backend) reloadMonitors(out []platform.RawEvent) []platform.RawEvent {
	mons, err := b.queryMonitors()
	if err != nil {
		b.logger.Warn("re-querying monitors failed", "error", err)
		return out
	}
	out = append(out, platform.DiffMonitors(b.monitors, mons)...)
	b.monitors = mons
	b.vsync.SetMonitors(mons)

	b.mu.Lock()
	var tops []*window
	for _, id := range b.sortedWindowsLocked() {
		if w := b.windows[id]; w.topLevel() {
			w.hasMonitor = false
			tops = append(tops, w)
		}
	}
	b.mu.Unlock()
	for _, w := range tops {
		out = append(out, b.monitorChange(w)...)
	}
	return out
}

