package handle

import "testing"

func TestTable_IDsAreNeverReused(t *testing.T) {
	tab := New[string]()
	a := tab.Allocate("a")
	b := tab.Allocate("b")
	if a == 0 || b == 0 {
		t.Fatalf("zero id issued: a=%d b=%d", a, b)
	}
	if !tab.Remove(a) {
		t.Fatalf("expected Remove(a) to report a live id")
	}
	c := tab.Allocate("c")
	if c == a || c == b {
		t.Fatalf("id %d reused (a=%d b=%d)", c, a, b)
	}
	if c <= b {
		t.Fatalf("expected monotonic ids, got c=%d after b=%d", c, b)
	}
}

func TestTable_GetMissingIsNotFound(t *testing.T) {
	tab := New[int]()
	id := tab.Allocate(7)
	tab.Remove(id)

	if _, ok := tab.Get(id); ok {
		t.Fatalf("expected removed id to miss")
	}
	if _, ok := tab.Get(999); ok {
		t.Fatalf("expected unknown id to miss")
	}
	if tab.Remove(id) {
		t.Fatalf("expected second Remove to report false")
	}
}

func TestTable_EachVisitsInAllocationOrder(t *testing.T) {
	tab := New[string]()
	for _, s := range []string{"x", "y", "z"} {
		tab.Allocate(s)
	}

	var got []string
	tab.Each(func(id ID, v string) {
		got = append(got, v)
		if v == "x" {
			// removing a later entry mid-walk skips it
			tab.Remove(id + 1)
		}
	})
	if len(got) != 2 || got[0] != "x" || got[1] != "z" {
		t.Fatalf("Each visited %v, want [x z]", got)
	}
	if tab.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tab.Len())
	}
}
