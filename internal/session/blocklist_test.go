package session

import (
	"fmt"
	"testing"
)

func TestBlockListDeduplicates(t *testing.T) {
	var list BlockList
	list.Add("bad")
	list.Add("bad")
	list.Add("worse")
	if list.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", list.Len(), list.Values())
	}
	if !list.Contains("bad") || !list.Contains("worse") {
		t.Fatalf("missing entries: %v", list.Values())
	}
	if list.Contains("fine") {
		t.Fatalf("unexpected entry reported")
	}
}

func TestBlockListFIFOEviction(t *testing.T) {
	var list BlockList
	for i := 0; i < 25; i++ {
		list.Add(fmt.Sprintf("entry %d", i))
	}
	if list.Len() != BlockListCapacity {
		t.Fatalf("expected %d entries, got %d", BlockListCapacity, list.Len())
	}
	values := list.Values()
	if values[0] != "entry 5" {
		t.Fatalf("oldest entries were not evicted first: %v", values[:3])
	}
	if values[len(values)-1] != "entry 24" {
		t.Fatalf("newest entry missing: %v", values)
	}
	for i := 0; i < 5; i++ {
		if list.Contains(fmt.Sprintf("entry %d", i)) {
			t.Fatalf("evicted entry %d still present", i)
		}
	}
}
