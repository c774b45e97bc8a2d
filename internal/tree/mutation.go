// Package tree holds the batched child-list editing shared by the JavaScript
// and CSS parse trees.
package tree

import (
	"errors"
	"fmt"
)

// ErrNotAChild is returned when an edit names a node that is not a child of
// the node being mutated.
var ErrNotAChild = errors.New("node is not a child")

type editKind int

const (
	editReplace editKind = iota
	editRemove
	editInsert
)

type edit[T comparable] struct {
	kind   editKind
	node   T
	target T
	append bool
}

// Mutation records planned edits to a child list. Nothing changes until
// Apply is called, so a tree never exposes a half-edited child list.
type Mutation[T comparable] struct {
	edits []edit[T]
}

// Replace plans replacing old with replacement.
func (m *Mutation[T]) Replace(replacement, old T) *Mutation[T] {
	m.edits = append(m.edits, edit[T]{kind: editReplace, node: replacement, target: old})
	return m
}

// Remove plans removing old.
func (m *Mutation[T]) Remove(old T) *Mutation[T] {
	m.edits = append(m.edits, edit[T]{kind: editRemove, target: old})
	return m
}

// InsertBefore plans inserting child before the existing child before.
func (m *Mutation[T]) InsertBefore(child, before T) *Mutation[T] {
	m.edits = append(m.edits, edit[T]{kind: editInsert, node: child, target: before})
	return m
}

// Append plans adding child at the end.
func (m *Mutation[T]) Append(child T) *Mutation[T] {
	m.edits = append(m.edits, edit[T]{kind: editInsert, node: child, append: true})
	return m
}

// Len returns the number of planned edits
func (m *Mutation[T]) Len() int { return len(m.edits) }

// Apply returns a new child list with every planned edit applied in order.
// The input slice is not modified.
func (m *Mutation[T]) Apply(children []T) ([]T, error) {
	out := make([]T, len(children))
	copy(out, children)
	for _, e := range m.edits {
		if e.kind == editInsert && e.append {
			out = append(out, e.node)
			continue
		}
		i := index(out, e.target)
		if i < 0 {
			return nil, fmt.Errorf("%w: %v", ErrNotAChild, e.target)
		}
		switch e.kind {
		case editReplace:
			out[i] = e.node
		case editRemove:
			out = append(out[:i], out[i+1:]...)
		case editInsert:
			out = append(out[:i], append([]T{e.node}, out[i:]...)...)
		}
	}
	return out, nil
}

func index[T comparable](s []T, v T) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
