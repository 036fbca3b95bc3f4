package service

// seenSet is a bounded recency set of request IDs. Once an ID is added it is
// never redisplayed, and trimming keeps the most recent entries so recently
// suppressed requests stay suppressed.
type seenSet struct {
	cap  int // size that triggers a trim
	keep int // most-recent entries retained after a trim

	order []string
	ids   map[string]struct{}
}

func newSeenSet(capacity, keep int) *seenSet {
	return &seenSet{
		cap:  capacity,
		keep: keep,
		ids:  make(map[string]struct{}),
	}
}

func (s *seenSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Add records an ID, trimming the oldest entries when the set exceeds cap.
func (s *seenSet) Add(id string) {
	if s.Has(id) {
		return
	}
	s.order = append(s.order, id)
	s.ids[id] = struct{}{}

	if len(s.order) <= s.cap {
		return
	}
	cut := len(s.order) - s.keep
	for _, old := range s.order[:cut] {
		delete(s.ids, old)
	}
	s.order = append([]string(nil), s.order[cut:]...)
}

func (s *seenSet) Len() int { return len(s.order) }
