package quasi

import (
	"maps"
	"slices"

	"bennypowers.dev/cajoler/internal/js"
)

// Bindings maps hole names to the nodes they matched. Multi-holes and
// optional holes bind a Container node, which is empty when nothing was
// matched.
type Bindings map[string]*js.Node

// Names returns the bound hole names in sorted order.
func (b Bindings) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// Equal reports whether both maps bind the same names to structurally
// equal nodes.
func (b Bindings) Equal(o Bindings) bool {
	if len(b) != len(o) {
		return false
	}
	for name, n := range b {
		m, ok := o[name]
		if !ok || !js.NodesEqual(n, m) {
			return false
		}
	}
	return true
}

// with returns a copy of b with one more binding. Matching never mutates
// a map that a caller or another branch of the search may hold.
func (b Bindings) with(name string, n *js.Node) Bindings {
	out := make(Bindings, len(b)+1)
	maps.Copy(out, b)
	out[name] = n
	return out
}
