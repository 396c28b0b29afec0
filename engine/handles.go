package engine

// Handle is an opaque reference to a node owned by a call-scoped
// registry. Handles are never raw pointers: an external engine with its
// own allocator can hold them without aliasing internal memory.
type Handle uint64

// InvalidHandle is the universal "absent or failed" result. It is never
// assigned to a live node.
const InvalidHandle Handle = 0

// handleSet maps handles to owned values. Ids start at 1 and are never
// reused, even after removal, so a stale handle can never alias a newer
// unrelated node. All operations are total.
type handleSet[T any] struct {
	next  Handle
	items map[Handle]T
}

func newHandleSet[T any]() *handleSet[T] {
	return &handleSet[T]{
		next:  1,
		items: make(map[Handle]T),
	}
}

func (s *handleSet[T]) insert(v T) Handle {
	h := s.next
	s.next++
	s.items[h] = v
	return h
}

// take removes and returns the value. A second take of the same handle
// reports absent.
func (s *handleSet[T]) take(h Handle) (T, bool) {
	v, ok := s.items[h]
	if ok {
		delete(s.items, h)
	}
	return v, ok
}

func (s *handleSet[T]) contains(h Handle) bool {
	_, ok := s.items[h]
	return ok
}

func (s *handleSet[T]) len() int {
	return len(s.items)
}
