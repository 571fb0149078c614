package goid

import "testing"

func TestCurrent_DiffersAcrossGoroutines(t *testing.T) {
	here := Current()
	if here == 0 {
		t.Fatalf("Current() returned 0")
	}
	if again := Current(); again != here {
		t.Fatalf("Current() unstable: %d then %d", here, again)
	}

	ch := make(chan uint64)
	go func() { ch <- Current() }()
	if other := <-ch; other == here || other == 0 {
		t.Fatalf("other goroutine id = %d, main = %d", other, here)
	}
}
