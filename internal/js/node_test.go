package js_test

import (
	"math"
	"testing"

	"bennypowers.dev/cajoler/internal/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildArity tests that malformed child lists are rejected
func TestBuildArity(t *testing.T) {
	_, err := js.Build(js.KindOperation, js.Addition, p, ref("a"))
	require.ErrorIs(t, err, js.ErrArity)

	var arity *js.ArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 1, arity.Count)

	_, err = js.Build(js.KindIfStmt, nil, p, ref("x"))
	assert.ErrorIs(t, err, js.ErrArity)

	_, err = js.Build(js.KindBlock, nil, p, ref("x"))
	assert.ErrorIs(t, err, js.ErrArity, "blocks hold statements only")

	_, err = js.Build(js.KindOperation, js.FunctionCall, p, ref("f"), ref("a"), ref("b"))
	assert.NoError(t, err)

	assert.Panics(t, func() { js.NewOperation(p, js.TernaryOp, ref("a")) })
}

// TestMutation tests batched child edits
func TestMutation(t *testing.T) {
	a, b, c := ref("a"), ref("b"), ref("c")
	sum := op(js.Addition, a, b)

	m := sum.Mutate()
	m.Replace(c, b)
	m.Execute()
	assert.Equal(t, "a + c", js.Render(sum))

	m = sum.Mutate()
	m.Remove(a)
	assert.Panics(t, m.Execute, "an addition needs two operands")
	assert.Equal(t, "a + c", js.Render(sum), "a failed mutation leaves the node alone")

	list := block(stmt(a))
	m = list.Mutate()
	m.InsertBefore(stmt(b), list.Children[0])
	m.Append(stmt(c))
	m.Execute()
	assert.Equal(t, "{\n  b;\n  a;\n  c;\n}", js.Render(list))
}

func TestCloneAndEqual(t *testing.T) {
	tree := op(js.Addition, ref("a"), num(math.NaN()))
	clone := tree.Clone()
	assert.True(t, js.NodesEqual(tree, clone))
	assert.NotSame(t, tree.Children[0], clone.Children[0])

	assert.False(t, js.NodesEqual(num(0), num(math.Copysign(0, -1))))
	assert.False(t, js.NodesEqual(ref("a"), ref("b")))
}

func TestWalk(t *testing.T) {
	tree := op(js.Addition, ref("a"), js.Call(p, ref("f"), ref("b")))
	var names []string
	js.Walk(tree, func(n *js.Node) bool {
		if n.Kind == js.KindReference {
			names = append(names, n.Name())
		}
		return !n.Is(js.FunctionCall)
	})
	assert.Equal(t, []string{"a"}, names)
}
