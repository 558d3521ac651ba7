package hashindex

import "testing"

func TestInsertSearchRemove(t *testing.T) {
	h := New[string]()
	h.Insert(1, "a")
	h.Insert(2, "b")

	if v, ok := h.Search(1); !ok || v != "a" {
		t.Fatalf("expected a, got %q, %v", v, ok)
	}
	h.Remove(1)
	if _, ok := h.Search(1); ok {
		t.Fatal("expected key 1 to be removed")
	}
	if v, ok := h.Search(2); !ok || v != "b" {
		t.Fatalf("expected b to remain, got %q, %v", v, ok)
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	h := New[int]()
	h.Remove(42) // must not panic
	if h.Size() != 0 {
		t.Fatal("expected size 0")
	}
}

func TestGrowsUnderLoad(t *testing.T) {
	h := New[int]()
	initialCap := h.Capacity()
	for i := int64(0); i < 1000; i++ {
		h.Insert(i, int(i))
	}
	if h.Capacity() <= initialCap {
		t.Fatalf("expected capacity to grow from %d, got %d", initialCap, h.Capacity())
	}
	if h.Size() != 1000 {
		t.Fatalf("expected size 1000, got %d", h.Size())
	}
	for i := int64(0); i < 1000; i++ {
		if v, ok := h.Search(i); !ok || v != int(i) {
			t.Fatalf("lost entry %d after growth", i)
		}
	}
}

func TestChainInsertionOrder(t *testing.T) {
	// Duplicate keys are permitted at this layer; search returns the
	// most recently inserted (head of chain).
	h := New[string]()
	h.Insert(7, "first")
	h.Insert(7, "second")
	v, ok := h.Search(7)
	if !ok || v != "second" {
		t.Fatalf("expected head-of-chain value 'second', got %q", v)
	}
}
