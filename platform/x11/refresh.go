package x11

import (
	"github.com/1broseidon/winloop/internal/vsync"
	"github.com/1broseidon/winloop/platform"
)

// SubscribeRefresh starts refresh ticks for the window on its current
// monitor. X11 has no vblank event, so ticks come from a per-monitor
// ticker. Calling it again after a RawMonitorChanged moves the
// subscription.
func (b *Backend) SubscribeRefresh(h platform.NativeHandle) error {
	w, err := b.lookup(h)
	if err != nil {
		return err
	}
	b.mu.Lock()
	on := vsync.Unplaced
	if w.hasMonitor {
		on = w.monitor
	}
	b.mu.Unlock()
	b.vsync.Subscribe(h, on)
	return nil
}
