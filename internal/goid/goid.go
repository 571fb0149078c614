// Package goid reports the identity of the calling goroutine. It is used
// only to check that window-system calls stay on the goroutine that owns the
// event loop.
package goid

import "runtime"

// Current returns the current goroutine's ID, parsed from the
// "goroutine NNN [" header of runtime.Stack.
func Current() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
