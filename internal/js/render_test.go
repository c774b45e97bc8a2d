package js_test

import (
	"testing"

	"bennypowers.dev/cajoler/internal/js"
	"github.com/stretchr/testify/assert"
)

func object(props ...*js.Node) *js.Node {
	return js.MustBuild(js.KindObjectConstructor, nil, p, props...)
}

func prop(key string, value *js.Node) *js.Node {
	return js.MustBuild(js.KindValueProperty, nil, p, str(key), value)
}

// TestRenderParentheses tests that precedence survives rendering
func TestRenderParentheses(t *testing.T) {
	a, b, c := ref("a"), ref("b"), ref("c")
	tests := []struct {
		name string
		in   *js.Node
		want string
	}{
		{"tighter child", op(js.Multiplication, op(js.Addition, a, b), c), "(a + b) * c"},
		{"looser child", op(js.Addition, op(js.Multiplication, a, b), c), "a * b + c"},
		{"left associative right operand", op(js.Subtraction, a, op(js.Subtraction, b, c)), "a - (b - c)"},
		{"left associative left operand", op(js.Subtraction, op(js.Subtraction, a, b), c), "a - b - c"},
		{"right associative", op(js.Assign, a, op(js.Assign, b, c)), "a = b = c"},
		{"number member", js.Call(p, member(num(3), "toString")), "(3).toString()"},
		{"call member", member(js.Call(p, ref("f")), "x"), "f().x"},
		{"string dividend", op(js.Division, str("a"), b), "('a') / b"},
		{"product dividend", op(js.Division, op(js.Multiplication, a, b), c), "(a * b) / c"},
		{"call dividend", op(js.Division, js.Call(p, ref("f")), c), "f() / c"},
		{"post decrement compare", op(js.GreaterThan, op(js.PostDecrement, a), b), "(a--) > b"},
		{"post decrement shift", op(js.RightShift, op(js.PostDecrement, a), b), "(a--) >> b"},
		{"double negation", op(js.Negation, op(js.Negation, a)), "-(-a)"},
		{"negated literal", op(js.Negation, num(-3)), "-(-3)"},
		{"minus negative", op(js.Subtraction, a, num(-3)), "a - -3"},
		{"plus unary plus", op(js.Addition, a, op(js.ToNumber, b)), "a + +b"},
		{"post increment plus", op(js.Addition, op(js.PostIncrement, a), b), "a++ + b"},
		{"comma argument", js.Call(p, ref("f"), op(js.Comma, a, b)), "f((a,b))"},
		{"ternary", op(js.TernaryOp, a, b, c), "a ? b : c"},
		{"ternary in condition", op(js.TernaryOp, op(js.TernaryOp, a, b, c), b, c), "(a ? b : c) ? b : c"},
		{"typeof", op(js.TypeOf, a), "typeof a"},
		{"new", js.Call(p, op(js.Constructor, ref("Foo")), num(1)), "new Foo(1)"},
		{"new member", js.Call(p, op(js.Constructor, member(ref("a"), "B"))), "new a.B()"},
		{"new with call in callee", js.Call(p, op(js.Constructor, member(js.Call(p, ref("f")), "g"))), "new(f().g)()"},
		{"member of new", member(op(js.Constructor, ref("Foo")), "x"), "(new Foo).x"},
		{"function call", js.Call(p, js.NewFunction(p, "", nil, block())), "(function() {})()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, js.Render(tt.in))
		})
	}
}

// TestRenderMemberNames tests that reserved words are never dotted
func TestRenderMemberNames(t *testing.T) {
	assert.Equal(t, "o['if']", js.Render(member(ref("o"), "if")))
	assert.Equal(t, "o['class'].x", js.Render(member(member(ref("o"), "class"), "x")))
	assert.Equal(t, "o[k]", js.Render(op(js.SquareBracket, ref("o"), ref("k"))))
}

func TestRenderObject(t *testing.T) {
	o := object(prop("a", num(1)), prop("b-c", op(js.Comma, ref("x"), ref("y"))), prop("if", str("z")))
	assert.Equal(t, "{ a: 1, 'b-c': (x,y), 'if': 'z' }", js.Render(o))
	assert.Equal(t, "({});", js.Render(stmt(object())))
}

// TestRenderEmbeddingSafe tests that output can sit inside a script element
func TestRenderEmbeddingSafe(t *testing.T) {
	s := js.Render(op(js.Addition, str("</script><!--"), str("-->]]>")))
	assert.NotContains(t, s, "</script")
	assert.NotContains(t, s, "<!--")
	assert.NotContains(t, s, "-->")
	assert.NotContains(t, s, "]]>")

	re := &js.Node{Kind: js.KindRegexpLiteral, Value: `/<\/script>[\<]/g`}
	assert.Equal(t, `/\x3c\/script\x3e[\x3c]/g`, js.Render(re))
}

// TestRenderStatements tests statement layout
func TestRenderStatements(t *testing.T) {
	call := func(name string) *js.Node { return stmt(js.Call(p, ref(name))) }

	ifElse := js.MustBuild(js.KindIfStmt, nil, p, ref("x"), call("f"), call("g"))
	assert.Equal(t, "if (x) {\n  f();\n} else {\n  g();\n}", js.Render(ifElse))

	noop := js.MustBuild(js.KindNoop, nil, p)
	init := stmt(op(js.Assign, ref("a"), op(js.In, ref("b"), ref("c"))))
	loop := js.MustBuild(js.KindForLoop, nil, p, init, boolean(true), noop, block())
	assert.Equal(t, "for (a = (b in c); true;) {}", js.Render(loop))

	decl := js.MustBuild(js.KindDeclaration, nil, p, js.NewIdentifier(p, "k"))
	forIn := js.MustBuild(js.KindForEachLoop, nil, p, decl, ref("o"), call("f"))
	assert.Equal(t, "for (var k in o) {\n  f();\n}", js.Render(forIn))

	fn := js.NewFunction(p, "f", []string{"a", "b"}, block(js.MustBuild(js.KindReturnStmt, nil, p, op(js.Addition, ref("a"), ref("b")))))
	assert.Equal(t, "(function f(a, b) {\n  return a + b;\n});", js.Render(stmt(fn)))

	labeled := js.MustBuild(js.KindLabeledStmt, "outer", p,
		js.MustBuild(js.KindWhileLoop, nil, p, boolean(true), js.MustBuild(js.KindBreakStmt, "outer", p)))
	assert.Equal(t, "outer: while (true) {\n  break outer;\n}", js.Render(labeled))
}
