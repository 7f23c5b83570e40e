package dedup

import (
	"sync"
)

type key struct {
	source string
	id     string
}

// SeenSet records (source, identity) pairs for the life of the process.
// It never evicts, so memory grows with the number of distinct items seen.
type SeenSet struct {
	mu   sync.Mutex
	keys map[key]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{
		keys: make(map[key]struct{}),
	}
}

func (s *SeenSet) IsNew(source, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.keys[key{source, id}]
	return !ok
}

func (s *SeenSet) Record(source, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key{source, id}] = struct{}{}
}

// Accept records the pair and reports whether it was new. The check and the
// insert happen under one lock, so concurrent callers racing on the same
// pair see true exactly once.
func (s *SeenSet) Accept(source, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{source, id}
	if _, ok := s.keys[k]; ok {
		return false
	}
	s.keys[k] = struct{}{}
	return true
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
