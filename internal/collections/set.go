// Package collections holds small generic containers.
package collections

// Set is an unordered set of comparable values.
type Set[T comparable] map[T]struct{}

// NewSet returns a set holding vs.
func NewSet[T comparable](vs ...T) Set[T] {
	s := make(Set[T], len(vs))
	s.Add(vs...)
	return s
}

// Add inserts vs and reports whether any of them was not already present.
func (s Set[T]) Add(vs ...T) bool {
	added := false
	for _, v := range vs {
		if _, ok := s[v]; !ok {
			s[v] = struct{}{}
			added = true
		}
	}
	return added
}

// Has reports whether v is in the set.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}
