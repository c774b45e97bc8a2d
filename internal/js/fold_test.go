package js_test

import (
	"math"
	"testing"

	"bennypowers.dev/cajoler/internal/js"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFold tests constant folding of single operations
func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   *js.Node
		want string
	}{
		{"addition", op(js.Addition, num(1), num(2)), "3"},
		{"concatenation", op(js.Addition, str("a"), str("b")), "'ab'"},
		{"mixed concatenation", op(js.Addition, str("a"), num(1)), "'a1'"},
		{"modulus", op(js.Modulus, num(5), num(2)), "1"},
		{"division", op(js.Division, num(1), num(4)), "0.25"},
		{"nan is kept", op(js.Division, num(0), num(0)), "0 / 0"},
		{"string length", member(str("abc"), "length"), "3"},
		{"bracket length", op(js.SquareBracket, str("ab"), str("length")), "2"},
		{"astral length", member(str("\U0001F600"), "length"), "2"},
		{"indexOf", js.Call(p, member(str("foo"), "indexOf"), str("o")), "1"},
		{"not true", op(js.Not, boolean(true)), "false"},
		{"not empty array", op(js.Not, js.MustBuild(js.KindArrayConstructor, nil, p)), "false"},
		{"typeof string", op(js.TypeOf, str("x")), "'string'"},
		{"typeof function", op(js.TypeOf, js.NewFunction(p, "", nil, block())), "'function'"},
		{"negation", op(js.Negation, num(3)), "-3"},
		{"negative zero is kept", op(js.Negation, num(0)), "-0"},
		{"inverse", op(js.Inverse, num(5)), "-6"},
		{"strict equality", op(js.StrictlyEqual, num(1), str("1")), "false"},
		{"loose equality of mixed kinds", op(js.Equal, num(1), str("1")), "1 == '1'"},
		{"loose equality of same kind", op(js.NotEqual, str("a"), str("b")), "true"},
		{"void equality", op(js.StrictlyEqual, op(js.Void, num(0)), op(js.Void, num(1))), "true"},
		{"or with true", op(js.LogicalOr, boolean(true), ref("x")), "true"},
		{"and with true", op(js.LogicalAnd, boolean(true), ref("x")), "x"},
		{"and with unknown", op(js.LogicalAnd, ref("a"), ref("x")), "a && x"},
		{"and keeps side effects", op(js.LogicalAnd, op(js.Comma, js.Call(p, ref("f")), num(1)), ref("x")), "f(),x"},
		{"comma drops pure operand", op(js.Comma, num(0), ref("x")), "x"},
		{"comma keeps effects", op(js.Comma, js.Call(p, ref("f")), ref("x")), "f(),x"},
		{"ternary", op(js.TernaryOp, boolean(false), ref("a"), ref("b")), "b"},
		{"ternary on unknown", op(js.TernaryOp, ref("c"), ref("a"), ref("b")), "c ? a : b"},
		{"to number", op(js.ToNumber, num(4)), "4"},
		{"reference untouched", op(js.Addition, ref("a"), num(1)), "a + 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, js.Render(js.Fold(tt.in)))
		})
	}
}

// TestFoldTreeUnboundCall tests that (0, o.m)() keeps its comma
func TestFoldTreeUnboundCall(t *testing.T) {
	call := js.Call(p, op(js.Comma, num(0), member(ref("o"), "m")))
	assert.Equal(t, "(0,o.m)()", js.Render(js.FoldTree(call)))

	plain := js.Call(p, op(js.Comma, num(0), ref("f")))
	assert.Equal(t, "f()", js.Render(js.FoldTree(plain)))
}

// TestFoldTreeNested tests bottom-up folding through statements
func TestFoldTreeNested(t *testing.T) {
	tree := block(
		stmt(op(js.Assign, ref("x"), op(js.Multiplication, op(js.Addition, num(1), num(2)), num(4)))),
		stmt(op(js.Assign, ref("y"), op(js.Addition, str("a"), op(js.TypeOf, num(1))))),
	)
	js.FoldTree(tree)
	assert.Equal(t, "x = 12;\ny = 'anumber';", js.RenderProgram(tree))
}

func TestRemainderIsIEEE(t *testing.T) {
	got := js.Fold(op(js.Modulus, num(5), num(3)))
	require.Equal(t, js.KindNumberLiteral, got.Kind)
	assert.InDelta(t, math.Remainder(5, 3), got.NumberValue(), 0)
}

// TestStaticTypeOf tests static type inference
func TestStaticTypeOf(t *testing.T) {
	assert.Equal(t, "string", js.StaticTypeOf(str("")))
	assert.Equal(t, "number", js.StaticTypeOf(num(1)))
	assert.Equal(t, "boolean", js.StaticTypeOf(boolean(true)))
	assert.Equal(t, "object", js.StaticTypeOf(js.NewNull(p)))
	assert.Equal(t, "undefined", js.StaticTypeOf(op(js.Void, num(0))))
	assert.Equal(t, "boolean", js.StaticTypeOf(op(js.Not, ref("x"))))
	assert.Equal(t, "number", js.StaticTypeOf(op(js.Subtraction, ref("a"), ref("b"))))
	assert.Equal(t, "string", js.StaticTypeOf(op(js.TypeOf, ref("a"))))
	assert.Equal(t, "", js.StaticTypeOf(op(js.Addition, ref("a"), ref("b"))))
	assert.Equal(t, "", js.StaticTypeOf(ref("a")))
}

// TestConditionResult tests static truthiness
func TestConditionResult(t *testing.T) {
	tests := []struct {
		name        string
		in          *js.Node
		want, known bool
	}{
		{"empty string", str(""), false, true},
		{"string", str("0"), true, true},
		{"zero", num(0), false, true},
		{"nan", num(math.NaN()), false, true},
		{"null", js.NewNull(p), false, true},
		{"array", js.MustBuild(js.KindArrayConstructor, nil, p), true, true},
		{"reference", ref("x"), false, false},
		{"and false", op(js.LogicalAnd, ref("x"), boolean(false)), false, true},
		{"or true", op(js.LogicalOr, ref("x"), num(1)), true, true},
		{"void", op(js.Void, ref("x")), false, true},
		{"not", op(js.Not, str("")), true, true},
		{"comma", op(js.Comma, ref("x"), num(1)), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := js.ConditionResult(tt.in)
			assert.Equal(t, tt.known, known)
			if tt.known {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// TestSimplifyForSideEffect tests removal of pure computation
func TestSimplifyForSideEffect(t *testing.T) {
	assert.Nil(t, js.SimplifyForSideEffect(num(1)))
	assert.Nil(t, js.SimplifyForSideEffect(js.NewFunction(p, "", nil, block())))
	assert.Nil(t, js.SimplifyForSideEffect(op(js.TypeOf, ref("undeclared"))))

	call := js.Call(p, ref("f"))
	assert.Same(t, call, js.SimplifyForSideEffect(call))

	notCall := op(js.Not, js.Call(p, ref("g")))
	assert.Equal(t, "g()", js.Render(js.SimplifyForSideEffect(notCall)))

	arr := js.MustBuild(js.KindArrayConstructor, nil, p, num(1), js.Call(p, ref("f")), js.Call(p, ref("g")))
	assert.Equal(t, "f(),g()", js.Render(js.SimplifyForSideEffect(arr)))
}
