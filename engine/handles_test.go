package engine

import "testing"

func TestHandleSetInsertTake(t *testing.T) {
	s := newHandleSet[string]()

	h1 := s.insert("a")
	h2 := s.insert("b")
	if h1 == InvalidHandle || h2 == InvalidHandle {
		t.Fatal("insert must never return the invalid sentinel")
	}
	if h1 == h2 {
		t.Fatal("handles must be distinct")
	}
	if s.len() != 2 {
		t.Fatalf("len = %d, want 2", s.len())
	}

	v, ok := s.take(h1)
	if !ok || v != "a" {
		t.Fatalf("take(h1) = %q, %v", v, ok)
	}
	if s.contains(h1) {
		t.Fatal("taken handle must not remain in the set")
	}
	if _, ok := s.take(h1); ok {
		t.Fatal("second take of the same handle must report absent")
	}
}

func TestHandleSetNeverReusesIds(t *testing.T) {
	s := newHandleSet[int]()

	h1 := s.insert(1)
	s.take(h1)
	h2 := s.insert(2)
	if h2 == h1 {
		t.Fatal("ids must not be reused after removal")
	}
	if h2 <= h1 {
		t.Fatalf("ids must increase monotonically: %d then %d", h1, h2)
	}
}

func TestHandleSetTakeUnknown(t *testing.T) {
	s := newHandleSet[int]()
	if _, ok := s.take(InvalidHandle); ok {
		t.Fatal("invalid sentinel must never resolve")
	}
	if _, ok := s.take(Handle(42)); ok {
		t.Fatal("never-issued handle must not resolve")
	}
}
