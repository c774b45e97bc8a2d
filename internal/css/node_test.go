package css_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/css"
)

func TestBuildChecksShape(t *testing.T) {
	tests := []struct {
		name     string
		kind     css.Kind
		value    any
		children []*css.Node
	}{
		{"even expr", css.KindExpr, nil, nil},
		{"pseudo without name", css.KindPseudo, ":", nil},
		{"class with children", css.KindClassLiteral, ".a", []*css.Node{ident("x")}},
		{"combination without combinator", css.KindCombination, ">", nil},
		{"declaration without expr", css.KindPropertyDeclaration, nil, []*css.Node{build(css.KindProperty, "color")}},
		{"term with two atoms", css.KindTerm, "", []*css.Node{ident("a"), ident("b")}},
		{"suffixed element", css.KindSuffixedSelectorPart, nil, []*css.Node{el("p")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := css.Build(tt.kind, tt.value, p, tt.children...)
			assert.ErrorIs(t, err, css.ErrArity)
		})
	}
	assert.Panics(t, func() { css.MustBuild(css.KindExpr, nil, p) })
}

// TestMutationIsBatched tests that edits are checked once, after all of them
// apply
func TestMutationIsBatched(t *testing.T) {
	e := expr(ident("a"), ident("b"))
	a, op, b := e.Children[0], e.Children[1], e.Children[2]

	// Removing only the operation would leave a bad shape, but removing the
	// operation and a term together is fine.
	m := e.Mutate()
	m.Remove(op)
	m.Remove(b)
	m.Execute()
	require.Len(t, e.Children, 1)
	assert.Same(t, a, e.Children[0])

	m = e.Mutate()
	m.Remove(a)
	assert.Panics(t, m.Execute)
	assert.Len(t, e.Children, 1, "a failed batch leaves the children alone")
}

func TestCloneAndEqual(t *testing.T) {
	n := rule(sel(ss(el("p"), class("x"))), decl("color", ident("red")))
	n.Children[1].Attrs.Invalid = true
	c := n.Clone()
	assert.True(t, css.Equal(n, c))
	assert.True(t, c.Children[1].Attrs.Invalid)
	assert.NotSame(t, n.Children[0], c.Children[0])

	c.Children[0].Children[0].Children[1].Value = ".y"
	assert.False(t, css.Equal(n, c))
	assert.False(t, css.Equal(n, nil))
	assert.True(t, css.Equal(nil, nil))
}

func TestWalkSkipsChildren(t *testing.T) {
	n := rule(sel(ss(el("p"))), decl("color", ident("red")))
	var kinds []css.Kind
	css.Walk(n, func(n, _ *css.Node) bool {
		kinds = append(kinds, n.Kind)
		return n.Kind != css.KindSelector
	})
	assert.Equal(t, []css.Kind{
		css.KindRuleSet, css.KindSelector, css.KindPropertyDeclaration,
		css.KindProperty, css.KindExpr, css.KindTerm, css.KindIdentLiteral,
	}, kinds)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "IdLiteral", css.KindIDLiteral.String())
	assert.Equal(t, ">", css.Child.String())
	assert.Equal(t, ",", css.OpComma.String())
	assert.True(t, css.KindUnsafeURILiteral.IsAtom())
	assert.False(t, css.KindTerm.IsAtom())
}
