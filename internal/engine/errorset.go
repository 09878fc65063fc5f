package engine

import "sort"

// ErrorSet is an immutable set of rune positions that were wrong when first typed.
// With returns a new set and never modifies the receiver, so session snapshots
// can share it safely.
type ErrorSet struct {
	idx map[int]struct{}
}

// Has reports whether position i was recorded.
func (s ErrorSet) Has(i int) bool {
	_, ok := s.idx[i]
	return ok
}

// Len returns the number of recorded positions.
func (s ErrorSet) Len() int {
	return len(s.idx)
}

// With returns a set that also contains i.
func (s ErrorSet) With(i int) ErrorSet {
	if s.Has(i) {
		return s
	}
	next := make(map[int]struct{}, len(s.idx)+1)
	for k := range s.idx {
		next[k] = struct{}{}
	}
	next[i] = struct{}{}
	return ErrorSet{idx: next}
}

// Indices returns the recorded positions in ascending order.
func (s ErrorSet) Indices() []int {
	out := make([]int, 0, len(s.idx))
	for k := range s.idx {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
