package css

import (
	"errors"
	"fmt"

	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/tree"
)

// ErrArity is the sentinel for child lists that break a kind's shape
// contract.
var ErrArity = errors.New("invalid children for css node kind")

// ArityError describes a rejected child list
type ArityError struct {
	Kind   Kind
	Count  int
	Reason string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s with %d children: %s", e.Kind, e.Count, e.Reason)
}

func (e *ArityError) Unwrap() error { return ErrArity }

// Node is one node of a CSS tree. Value holds the payload of leaf kinds:
// names and literal text as strings, a Combinator or an Operator.
type Node struct {
	Kind     Kind
	Value    any
	Children []*Node
	Pos      position.FilePosition

	// Attrs is scratch state written by the validator and read by the
	// rewriter during a single rewrite.
	Attrs Attributes
}

// Build returns a node after checking its children against the kind's
// shape contract.
func Build(kind Kind, value any, pos position.FilePosition, children ...*Node) (*Node, error) {
	if err := checkChildren(kind, value, children); err != nil {
		return nil, err
	}
	return &Node{Kind: kind, Value: value, Pos: pos, Children: children}, nil
}

// MustBuild is like Build but panics on a shape violation.
func MustBuild(kind Kind, value any, pos position.FilePosition, children ...*Node) *Node {
	n, err := Build(kind, value, pos, children...)
	if err != nil {
		panic(err)
	}
	return n
}

func arity(kind Kind, children []*Node, format string, args ...any) error {
	return &ArityError{Kind: kind, Count: len(children), Reason: fmt.Sprintf(format, args...)}
}

func allOf(kind Kind, children []*Node, ok func(Kind) bool, what string) error {
	for _, c := range children {
		if c == nil || !ok(c.Kind) {
			return arity(kind, children, "children must be %s", what)
		}
	}
	return nil
}

func is(kinds ...Kind) func(Kind) bool {
	return func(k Kind) bool {
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}

func checkChildren(kind Kind, value any, c []*Node) error {
	str := func() error {
		if _, ok := value.(string); !ok {
			return arity(kind, c, "value must be a string")
		}
		return nil
	}
	leaf := func() error {
		if len(c) != 0 {
			return arity(kind, c, "must be a leaf")
		}
		return nil
	}
	switch kind {
	case KindStylesheet:
		return allOf(kind, c, is(KindRuleSet, KindMedia, KindAtRule), "rules")
	case KindMedia:
		if err := str(); err != nil {
			return err
		}
		return allOf(kind, c, is(KindRuleSet), "RuleSet")
	case KindRuleSet:
		return allOf(kind, c, func(k Kind) bool { return k == KindSelector || k.IsDeclaration() }, "selectors or declarations")
	case KindDeclarationGroup:
		return allOf(kind, c, Kind.IsDeclaration, "declarations")
	case KindSelector:
		return allOf(kind, c, is(KindSimpleSelector, KindCombination), "simple selectors and combinations")
	case KindSimpleSelector:
		return allOf(kind, c, Kind.IsSelectorPart, "selector parts")
	case KindCombination:
		if _, ok := value.(Combinator); !ok {
			return arity(kind, c, "value must be a Combinator")
		}
		return leaf()
	case KindOperation:
		if _, ok := value.(Operator); !ok {
			return arity(kind, c, "value must be an Operator")
		}
		return leaf()
	case KindWildcardElement, KindEmptyDeclaration:
		return leaf()
	case KindAtRule, KindClassLiteral, KindIDLiteral, KindAttribOperation, KindProperty, KindPrio,
		KindIdentLiteral, KindQuantityLiteral, KindHashLiteral, KindStringLiteral, KindURILiteral,
		KindUnicodeRange, KindSafeURILiteral, KindUnsafeURILiteral:
		if err := str(); err != nil {
			return err
		}
		return leaf()
	case KindAttrib:
		if err := str(); err != nil {
			return err
		}
		switch {
		case len(c) == 0:
			return nil
		case len(c) == 2 && c[0].Kind == KindAttribOperation && is(KindIdentLiteral, KindStringLiteral)(c[1].Kind):
			return nil
		}
		return arity(kind, c, "want nothing or AttribOperation, value")
	case KindPseudo:
		if err := str(); err != nil {
			return err
		}
		if len(c) != 1 {
			return arity(kind, c, "want one child")
		}
		return allOf(kind, c, is(KindIdentLiteral, KindFunctionCall), "IdentLiteral or FunctionCall")
	case KindSuffixedSelectorPart:
		if len(c) > 1 {
			return arity(kind, c, "want at most one child")
		}
		return allOf(kind, c, is(KindClassLiteral, KindIDLiteral), "ClassLiteral or IdLiteral")
	case KindPropertyDeclaration:
		if len(c) < 2 || len(c) > 3 || c[0].Kind != KindProperty || c[1].Kind != KindExpr ||
			len(c) == 3 && c[2].Kind != KindPrio {
			return arity(kind, c, "want Property, Expr, Prio?")
		}
		return nil
	case KindExpr:
		if len(c)%2 == 0 {
			return arity(kind, c, "want terms separated by operations")
		}
		for i, n := range c {
			want := KindTerm
			if i%2 == 1 {
				want = KindOperation
			}
			if n.Kind != want {
				return arity(kind, c, "child %d is %s, want %s", i, n.Kind, want)
			}
		}
		return nil
	case KindTerm:
		if err := str(); err != nil {
			return err
		}
		if len(c) != 1 || !c[0].Kind.IsAtom() {
			return arity(kind, c, "want one atom")
		}
		return nil
	case KindFunctionCall:
		if err := str(); err != nil {
			return err
		}
		if len(c) > 1 {
			return arity(kind, c, "want at most one Expr")
		}
		return allOf(kind, c, is(KindExpr), "Expr")
	}
	return arity(kind, c, "unknown kind")
}

// StringValue returns the string payload of n.
func (n *Node) StringValue() string {
	s, _ := n.Value.(string)
	return s
}

// Clone returns a deep copy of n including its attributes.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value, Pos: n.Pos, Attrs: n.Attrs}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Equal reports whether a and b have the same kinds, values and shape.
// Positions and attributes are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Value != b.Value || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Walk visits n and its descendants in pre-order, passing each node's
// parent. Children are skipped when visit returns false. The child list is
// read after visit returns, so visit may edit the children of the node it
// is given.
func Walk(n *Node, visit func(n, parent *Node) bool) {
	walk(n, nil, visit)
}

func walk(n, parent *Node, visit func(n, parent *Node) bool) {
	if n == nil || !visit(n, parent) {
		return
	}
	for _, c := range append([]*Node(nil), n.Children...) {
		walk(c, n, visit)
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

// Execute applies the batch and checks the resulting child list once.
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

// ReplaceChild replaces one child of n.
func (n *Node) ReplaceChild(replacement, old *Node) {
	n.mustApply(func(m *Mutation) { m.Replace(replacement, old) })
}

// RemoveChild removes one child of n.
func (n *Node) RemoveChild(old *Node) {
	n.mustApply(func(m *Mutation) { m.Remove(old) })
}

// InsertBefore inserts child before an existing child of n, or appends it
// when before is nil.
func (n *Node) InsertBefore(child, before *Node) {
	n.mustApply(func(m *Mutation) {
		if before == nil {
			m.Append(child)
		} else {
			m.InsertBefore(child, before)
		}
	})
}

func (n *Node) mustApply(plan func(*Mutation)) {
	m := n.Mutate()
	plan(m)
	m.Execute()
}
