package js

import "bennypowers.dev/cajoler/internal/position"

// NewIdentifier returns an Identifier; an empty name marks an anonymous
// function.
func NewIdentifier(pos position.FilePosition, name string) *Node {
	return &Node{Kind: KindIdentifier, Value: name, Pos: pos}
}

// NewReference returns a Reference to name.
func NewReference(pos position.FilePosition, name string) *Node {
	return &Node{Kind: KindReference, Pos: pos, Children: []*Node{NewIdentifier(pos, name)}}
}

// NewString returns a StringLiteral whose decoded value is s.
func NewString(pos position.FilePosition, s string) *Node {
	return &Node{Kind: KindStringLiteral, Value: Quote(s), Pos: pos}
}

// NewRawString returns a StringLiteral from quoted source text. The text is
// re-quoted so that literals with equal values compare equal.
func NewRawString(pos position.FilePosition, raw string) *Node {
	return &Node{Kind: KindStringLiteral, Value: Quote(Unquote(raw)), Pos: pos}
}

func NewNumber(pos position.FilePosition, f float64) *Node {
	return &Node{Kind: KindNumberLiteral, Value: f, Pos: pos}
}

func NewBoolean(pos position.FilePosition, b bool) *Node {
	return &Node{Kind: KindBooleanLiteral, Value: b, Pos: pos}
}

func NewNull(pos position.FilePosition) *Node {
	return &Node{Kind: KindNullLiteral, Pos: pos}
}

// NewOperation builds an operation and panics when the operand count does
// not fit the operator.
func NewOperation(pos position.FilePosition, op Operator, operands ...*Node) *Node {
	return MustBuild(KindOperation, op, pos, operands...)
}

// NewFunction builds an anonymous or named function expression.
func NewFunction(pos position.FilePosition, name string, params []string, body *Node) *Node {
	children := []*Node{NewIdentifier(pos, name)}
	for _, p := range params {
		children = append(children, &Node{Kind: KindFormalParam, Pos: pos, Children: []*Node{NewIdentifier(pos, p)}})
	}
	children = append(children, body)
	return MustBuild(KindFunctionConstructor, nil, pos, children...)
}

func NewBlock(pos position.FilePosition, stmts ...*Node) *Node {
	return MustBuild(KindBlock, nil, pos, stmts...)
}

// NewExpressionStmt wraps e as a statement.
func NewExpressionStmt(e *Node) *Node {
	return MustBuild(KindExpressionStmt, nil, e.Pos, e)
}

// NewContainer groups nodes bound to a multi-hole.
func NewContainer(pos position.FilePosition, nodes ...*Node) *Node {
	return &Node{Kind: KindContainer, Pos: pos, Children: nodes}
}

// Call builds fn(args...).
func Call(pos position.FilePosition, fn *Node, args ...*Node) *Node {
	return NewOperation(pos, FunctionCall, append([]*Node{fn}, args...)...)
}
