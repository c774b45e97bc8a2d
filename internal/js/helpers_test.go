package js_test

import (
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/position"
)

var p = position.Unknown

func ref(name string) *js.Node     { return js.NewReference(p, name) }
func num(f float64) *js.Node       { return js.NewNumber(p, f) }
func str(s string) *js.Node        { return js.NewString(p, s) }
func boolean(b bool) *js.Node      { return js.NewBoolean(p, b) }
func stmt(e *js.Node) *js.Node     { return js.NewExpressionStmt(e) }
func block(s ...*js.Node) *js.Node { return js.NewBlock(p, s...) }

func op(o js.Operator, operands ...*js.Node) *js.Node {
	return js.NewOperation(p, o, operands...)
}

func member(obj *js.Node, name string) *js.Node {
	return op(js.MemberAccess, obj, ref(name))
}
