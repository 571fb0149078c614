package platform

// MonitorAt returns the monitor whose bounds contain (x, y).
func MonitorAt(monitors []MonitorInfo, x, y int) (MonitorInfo, bool) {
	for _, m := range monitors {
		if m.Bounds.Contains(x, y) {
			return m, true
		}
	}
	return MonitorInfo{}, false
}

// DiffMonitors reports monitors that disappeared, then ones that appeared
// or changed, as raw events. A changed monitor is reported as added again
// under its existing id.
func DiffMonitors(prev, next []MonitorInfo) []RawEvent {
	var out []RawEvent
	seen := make(map[MonitorID]MonitorInfo, len(next))
	for _, m := range next {
		seen[m.ID] = m
	}
	old := make(map[MonitorID]MonitorInfo, len(prev))
	for _, m := range prev {
		old[m.ID] = m
		if _, ok := seen[m.ID]; !ok {
			out = append(out, RawMonitorRemoved{Monitor: m.ID})
		}
	}
	for _, m := range next {
		if o, ok := old[m.ID]; !ok || o != m {
			out = append(out, RawMonitorAdded{Monitor: m})
		}
	}
	return out
}
