package fetch

import "math/rand/v2"

// candidateSet is a set of dataset indices with O(1) insert, remove and
// uniform random choice.
type candidateSet struct {
	items []int
	slot  map[int]int
}

func newCandidateSet(n int) *candidateSet {
	s := &candidateSet{items: make([]int, n), slot: make(map[int]int, n)}
	for i := range n {
		s.items[i] = i
		s.slot[i] = i
	}
	return s
}

func (s *candidateSet) Len() int {
	return len(s.items)
}

func (s *candidateSet) Contains(idx int) bool {
	_, ok := s.slot[idx]
	return ok
}

func (s *candidateSet) Add(idx int) {
	if _, ok := s.slot[idx]; ok {
		return
	}
	s.slot[idx] = len(s.items)
	s.items = append(s.items, idx)
}

func (s *candidateSet) Remove(idx int) {
	pos, ok := s.slot[idx]
	if !ok {
		return
	}
	last := len(s.items) - 1
	moved := s.items[last]
	s.items[pos] = moved
	s.slot[moved] = pos
	s.items = s.items[:last]
	delete(s.slot, idx)
}

func (s *candidateSet) Choose(rng *rand.Rand) (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	return s.items[rng.IntN(len(s.items))], true
}
