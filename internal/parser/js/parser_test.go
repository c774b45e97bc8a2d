package js_test

import (
	"testing"

	jstree "bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/parser/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *jstree.Node {
	t.Helper()
	tree, err := js.Parse(src, "test.js")
	require.NoError(t, err)
	require.Equal(t, jstree.KindBlock, tree.Kind)
	return tree
}

// TestRoundTrip tests that rendering a parsed program and parsing it again
// gives an equal tree
func TestRoundTrip(t *testing.T) {
	sources := []string{
		"a = b + c * d;",
		"x = (a + b) * c;",
		"f(a, (b, c));",
		"new Foo(1).bar;",
		"new Foo;",
		"(function () { return this; })();",
		"var o = { a: 1, 'b-c': [1, 2], if: null };",
		"for (var i = 0; i < 10; i++) { if (i % 2) continue; }",
		"for (k in o) delete o[k];",
		"do { x--; } while (x > 0);",
		"outer: while (true) { break outer; }",
		"switch (x) { case 1: f(); break; default: g(); }",
		"try { f(); } catch (e) { g(e); } finally { h(); }",
		"if (a) b(); else if (c) d(); else e();",
		"x = /ab/g.test(s) ? -1 : ~y;",
		"a = b = c, d;",
		"(a--) > b;",
		"x = typeof y === 'undefined' && !z;",
		"x = 0x1f + 017 + 1e3 + .5;",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			tree := parse(t, src)
			rendered := jstree.RenderProgram(tree)
			again, err := js.Parse(rendered, "rendered.js")
			require.NoError(t, err, rendered)
			assert.True(t, jstree.NodesEqual(tree, again), "%s\nrendered as\n%s", src, rendered)
		})
	}
}

func TestParseShapes(t *testing.T) {
	tree := parse(t, "var a = 1, b;")
	require.Len(t, tree.Children, 1)
	assert.Equal(t, jstree.KindMultiDeclaration, tree.Children[0].Kind)

	tree = parse(t, "function f(x) { return x; }")
	fn := tree.Children[0]
	assert.Equal(t, jstree.KindFunctionDeclaration, fn.Kind)
	assert.Equal(t, "f", fn.Name())
	assert.Equal(t, jstree.KindFunctionConstructor, fn.Children[1].Kind)

	tree = parse(t, "new Foo(1);")
	call := tree.Children[0].Children[0]
	assert.True(t, call.Is(jstree.FunctionCall))
	assert.True(t, call.Children[0].Is(jstree.Constructor))

	tree = parse(t, "a, b, c;")
	seq := tree.Children[0].Children[0]
	assert.True(t, seq.Is(jstree.Comma))
	assert.True(t, seq.Children[0].Is(jstree.Comma), "comma folds to the left")

	tree = parse(t, "x = 0x10 + 010 + 0b11 + 1_000;")
	sum := jstree.FoldTree(tree.Children[0].Children[0].Children[1])
	assert.Equal(t, 16.0+8+3+1000, sum.NumberValue())
}

// TestDirectives tests detection of directive prologues
func TestDirectives(t *testing.T) {
	tree := parse(t, "'use strict'; \"other\"; f();")
	require.Len(t, tree.Children, 2)
	prologue := tree.Children[0]
	require.Equal(t, jstree.KindDirectivePrologue, prologue.Kind)
	require.Len(t, prologue.Children, 2)
	assert.Equal(t, "use strict", prologue.Children[0].Value)

	tree = parse(t, "f(); 'not a directive';")
	assert.Equal(t, jstree.KindExpressionStmt, tree.Children[1].Kind)
}

func TestPositions(t *testing.T) {
	tree := parse(t, "a;\n  bc;")
	ref := tree.Children[1].Children[0]
	assert.Equal(t, "test.js", ref.Pos.Source)
	assert.Equal(t, 2, ref.Pos.Start.Line)
	assert.Equal(t, 3, ref.Pos.Start.Column)
	assert.Equal(t, 5, ref.Pos.Start.Offset)
}

// TestParseErrors tests rejection of bad and unsupported input
func TestParseErrors(t *testing.T) {
	_, err := js.Parse("a = ;", "bad.js")
	require.ErrorIs(t, err, js.ErrSyntax)
	var se *js.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "bad.js", se.Pos.Source)

	for _, src := range []string{
		"let x = 1;",
		"class A {}",
		"x => x;",
		"a?.b;",
		"f(...args);",
		"x = 10n;",
		"for (const k of o) {}",
		"x = a ** 2;",
	} {
		_, err := js.Parse(src, "unsupported.js")
		assert.ErrorIs(t, err, js.ErrUnsupported, src)
	}
}
