// Package js models JavaScript parse trees: a closed set of node kinds with
// arity-checked construction, the operator table, constant folding and a
// renderer that never emits ambiguous or embedding-unsafe text.
package js

import (
	"fmt"
	"math"

	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/tree"
)

// Node is a JavaScript parse tree node. Value holds the kind's scalar
// payload:
//
//	Identifier, Directive           string name or text ("" for anonymous)
//	StringLiteral                   string, the quoted source text
//	NumberLiteral                   float64
//	BooleanLiteral                  bool
//	RegexpLiteral                   string, the /body/flags source text
//	Operation                       Operator
//	BreakStmt, ContinueStmt,
//	LabeledStmt                     string label ("" for none)
//
// All other kinds carry a nil Value.
type Node struct {
	Kind     Kind
	Value    any
	Children []*Node
	Pos      position.FilePosition
}

// Build creates a node after checking the child list against the kind's
// shape contract.
func Build(kind Kind, value any, pos position.FilePosition, children ...*Node) (*Node, error) {
	if err := checkChildren(kind, value, children); err != nil {
		return nil, err
	}
	return &Node{Kind: kind, Value: value, Children: children, Pos: pos}, nil
}

// MustBuild is like Build but panics on a shape violation.
func MustBuild(kind Kind, value any, pos position.FilePosition, children ...*Node) *Node {
	n, err := Build(kind, value, pos, children...)
	if err != nil {
		panic(err)
	}
	return n
}

func arityErr(kind Kind, value any, n int, format string, args ...any) error {
	return &ArityError{Kind: kind, Value: value, Count: n, Reason: fmt.Sprintf(format, args...)}
}

func checkCount(kind Kind, value any, children []*Node, min, max int) error {
	n := len(children)
	if n < min || (max >= 0 && n > max) {
		if max < 0 {
			return arityErr(kind, value, n, "want at least %d", min)
		}
		return arityErr(kind, value, n, "want %d..%d", min, max)
	}
	for i, c := range children {
		if c == nil {
			return arityErr(kind, value, n, "child %d is nil", i)
		}
	}
	return nil
}

func checkAll(kind Kind, value any, children []*Node, from int, ok func(*Node) bool, what string) error {
	for i := from; i < len(children); i++ {
		if !ok(children[i]) {
			return arityErr(kind, value, len(children), "child %d is %s, want %s", i, children[i].Kind, what)
		}
	}
	return nil
}

func isExpr(n *Node) bool  { return n.Kind.IsExpression() }
func isStmt(n *Node) bool  { return n.Kind.IsStatement() }
func isIdent(n *Node) bool { return n.Kind == KindIdentifier }

func checkChildren(kind Kind, value any, c []*Node) error {
	count := func(min, max int) error { return checkCount(kind, value, c, min, max) }
	all := func(from int, ok func(*Node) bool, what string) error {
		return checkAll(kind, value, c, from, ok, what)
	}
	var err error
	switch kind {
	case KindIdentifier, KindDirective:
		if _, ok := value.(string); !ok {
			return arityErr(kind, value, len(c), "value must be a string")
		}
		return count(0, 0)
	case KindStringLiteral, KindRegexpLiteral:
		if _, ok := value.(string); !ok {
			return arityErr(kind, value, len(c), "value must be a string")
		}
		return count(0, 0)
	case KindNumberLiteral:
		if _, ok := value.(float64); !ok {
			return arityErr(kind, value, len(c), "value must be a float64")
		}
		return count(0, 0)
	case KindBooleanLiteral:
		if _, ok := value.(bool); !ok {
			return arityErr(kind, value, len(c), "value must be a bool")
		}
		return count(0, 0)
	case KindNullLiteral, KindNoop:
		return count(0, 0)
	case KindBreakStmt, KindContinueStmt:
		if _, ok := value.(string); !ok {
			return arityErr(kind, value, len(c), "label must be a string")
		}
		return count(0, 0)
	case KindReference, KindFormalParam:
		if err = count(1, 1); err != nil {
			return err
		}
		return all(0, isIdent, "Identifier")
	case KindOperation:
		op, ok := value.(Operator)
		if !ok || op <= OpInvalid || op >= numOperators {
			return arityErr(kind, value, len(c), "value must be an Operator")
		}
		if err = count(op.MinArity(), op.MaxArity()); err != nil {
			return err
		}
		return all(0, isExpr, "an expression")
	case KindArrayConstructor:
		if err = count(0, -1); err != nil {
			return err
		}
		return all(0, isExpr, "an expression")
	case KindObjectConstructor:
		if err = count(0, -1); err != nil {
			return err
		}
		return all(0, func(n *Node) bool { return n.Kind == KindValueProperty }, "ValueProperty")
	case KindValueProperty:
		if err = count(2, 2); err != nil {
			return err
		}
		if c[0].Kind != KindStringLiteral {
			return arityErr(kind, value, 2, "property name must be a StringLiteral")
		}
		return all(1, isExpr, "an expression")
	case KindFunctionConstructor:
		if err = count(2, -1); err != nil {
			return err
		}
		last := len(c) - 1
		if !isIdent(c[0]) || c[last].Kind != KindBlock {
			return arityErr(kind, value, len(c), "want Identifier, FormalParam*, Block")
		}
		for _, p := range c[1:last] {
			if p.Kind != KindFormalParam {
				return arityErr(kind, value, len(c), "parameter is %s", p.Kind)
			}
		}
		return nil
	case KindBlock:
		if err = count(0, -1); err != nil {
			return err
		}
		return all(0, isStmt, "a statement")
	case KindExpressionStmt, KindThrowStmt:
		if err = count(1, 1); err != nil {
			return err
		}
		return all(0, isExpr, "an expression")
	case KindReturnStmt:
		if err = count(0, 1); err != nil {
			return err
		}
		return all(0, isExpr, "an expression")
	case KindDeclaration:
		if err = count(1, 2); err != nil {
			return err
		}
		if !isIdent(c[0]) {
			return arityErr(kind, value, len(c), "declared name must be an Identifier")
		}
		return all(1, isExpr, "an expression")
	case KindMultiDeclaration:
		if err = count(1, -1); err != nil {
			return err
		}
		return all(0, func(n *Node) bool { return n.Kind == KindDeclaration }, "Declaration")
	case KindFunctionDeclaration:
		if err = count(2, 2); err != nil {
			return err
		}
		if !isIdent(c[0]) || c[1].Kind != KindFunctionConstructor {
			return arityErr(kind, value, 2, "want Identifier, FunctionConstructor")
		}
		return nil
	case KindIfStmt:
		if err = count(2, 3); err != nil {
			return err
		}
		if !isExpr(c[0]) {
			return arityErr(kind, value, len(c), "condition must be an expression")
		}
		return all(1, isStmt, "a statement")
	case KindWhileLoop:
		if err = count(2, 2); err != nil {
			return err
		}
		if !isExpr(c[0]) || !isStmt(c[1]) {
			return arityErr(kind, value, 2, "want condition, body")
		}
		return nil
	case KindDoWhileLoop:
		if err = count(2, 2); err != nil {
			return err
		}
		if !isStmt(c[0]) || !isExpr(c[1]) {
			return arityErr(kind, value, 2, "want body, condition")
		}
		return nil
	case KindForLoop:
		if err = count(4, 4); err != nil {
			return err
		}
		if !isStmt(c[0]) || !isExpr(c[1]) || !isStmt(c[2]) || !isStmt(c[3]) {
			return arityErr(kind, value, 4, "want init, condition, increment, body")
		}
		return nil
	case KindForEachLoop:
		if err = count(3, 3); err != nil {
			return err
		}
		if (c[0].Kind != KindDeclaration && !isExpr(c[0])) || !isExpr(c[1]) || !isStmt(c[2]) {
			return arityErr(kind, value, 3, "want key, container, body")
		}
		return nil
	case KindLabeledStmt:
		if _, ok := value.(string); !ok {
			return arityErr(kind, value, len(c), "label must be a string")
		}
		if err = count(1, 1); err != nil {
			return err
		}
		return all(0, isStmt, "a statement")
	case KindSwitchStmt:
		if err = count(1, -1); err != nil {
			return err
		}
		if !isExpr(c[0]) {
			return arityErr(kind, value, len(c), "switch value must be an expression")
		}
		return all(1, func(n *Node) bool {
			return n.Kind == KindCaseStmt || n.Kind == KindDefaultCaseStmt
		}, "a case")
	case KindCaseStmt:
		if err = count(2, 2); err != nil {
			return err
		}
		if !isExpr(c[0]) || c[1].Kind != KindBlock {
			return arityErr(kind, value, 2, "want expression, Block")
		}
		return nil
	case KindDefaultCaseStmt, KindFinallyStmt:
		if err = count(1, 1); err != nil {
			return err
		}
		return all(0, func(n *Node) bool { return n.Kind == KindBlock }, "Block")
	case KindCatchStmt:
		if err = count(2, 2); err != nil {
			return err
		}
		if c[0].Kind != KindDeclaration || c[1].Kind != KindBlock {
			return arityErr(kind, value, 2, "want Declaration, Block")
		}
		return nil
	case KindTryStmt:
		if err = count(2, 3); err != nil {
			return err
		}
		if c[0].Kind != KindBlock {
			return arityErr(kind, value, len(c), "try body must be a Block")
		}
		if len(c) == 3 && (c[1].Kind != KindCatchStmt || c[2].Kind != KindFinallyStmt) {
			return arityErr(kind, value, 3, "want Block, CatchStmt, FinallyStmt")
		}
		if len(c) == 2 && c[1].Kind != KindCatchStmt && c[1].Kind != KindFinallyStmt {
			return arityErr(kind, value, 2, "want a catch or finally clause")
		}
		return nil
	case KindDirectivePrologue:
		if err = count(1, -1); err != nil {
			return err
		}
		return all(0, func(n *Node) bool { return n.Kind == KindDirective }, "Directive")
	case KindContainer:
		return count(0, -1)
	}
	return arityErr(kind, value, len(c), "unknown kind")
}

// Operator returns the operator of an Operation node.
func (n *Node) Operator() Operator {
	if n == nil || n.Kind != KindOperation {
		return OpInvalid
	}
	op, _ := n.Value.(Operator)
	return op
}

// Is reports whether n is an Operation with operator op.
func (n *Node) Is(op Operator) bool {
	return n.Operator() == op
}

// Name returns the identifier name of an Identifier, Reference, FormalParam
// or Declaration.
func (n *Node) Name() string {
	switch n.Kind {
	case KindIdentifier:
		s, _ := n.Value.(string)
		return s
	case KindReference, KindFormalParam, KindDeclaration, KindFunctionDeclaration:
		return n.Children[0].Name()
	case KindFunctionConstructor:
		return n.Children[0].Name()
	}
	return ""
}

// StringValue returns the decoded value of a StringLiteral.
func (n *Node) StringValue() string {
	raw, _ := n.Value.(string)
	return Unquote(raw)
}

// NumberValue returns the value of a NumberLiteral.
func (n *Node) NumberValue() float64 {
	f, _ := n.Value.(float64)
	return f
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value, Pos: n.Pos}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// NodesEqual reports whether a and b have the same shape, kinds and values.
// Positions are ignored. The cost is linear in the size of the smaller tree.
func NodesEqual(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || !ValuesEqual(a.Value, b.Value) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !NodesEqual(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// ValuesEqual compares node payloads. NaN payloads compare equal so that a
// tree is always equal to its own clone.
func ValuesEqual(a, b any) bool {
	fa, okA := a.(float64)
	fb, okB := b.(float64)
	if okA && okB {
		return fa == fb && math.Signbit(fa) == math.Signbit(fb) || math.IsNaN(fa) && math.IsNaN(fb)
	}
	return a == b
}

// Walk visits n and its descendants in pre-order. Children of a node are
// skipped when visit returns false.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Mutation batches edits to the children of one node.
type Mutation struct {
	node *Node
	tree.Mutation[*Node]
}

// Mutate starts a batch of child edits on n.
func (n *Node) Mutate() *Mutation {
	return &Mutation{node: n}
}

// Execute applies the batch, checks the resulting child list once and
// panics if it violates the node's shape contract.
func (m *Mutation) Execute() {
	children, err := m.Apply(m.node.Children)
	if err != nil {
		panic(err)
	}
	if err := checkChildren(m.node.Kind, m.node.Value, children); err != nil {
		panic(err)
	}
	m.node.Children = children
}

// ReplaceChild replaces a single child of n.
func (n *Node) ReplaceChild(replacement, old *Node) {
	m := n.Mutate()
	m.Replace(replacement, old)
	m.Execute()
}
