package js

import (
	"math"
	"strings"

	"bennypowers.dev/cajoler/internal/position"
)

// StaticTypeOf returns the result typeof would give for n when it can be known
// statically, or "" when it cannot.
func StaticTypeOf(n *Node) string {
	switch n.Kind {
	case KindStringLiteral:
		return "string"
	case KindNumberLiteral:
		return "number"
	case KindBooleanLiteral:
		return "boolean"
	case KindNullLiteral, KindRegexpLiteral, KindArrayConstructor, KindObjectConstructor:
		return "object"
	case KindFunctionConstructor:
		return "function"
	case KindOperation:
		return operationTypeOf(n)
	}
	return ""
}

func operationTypeOf(n *Node) string {
	ops := n.Children
	switch n.Operator() {
	case PreIncrement, PreDecrement, ToNumber, Negation, Inverse,
		Multiplication, Division, Modulus, Subtraction,
		LeftShift, RightShift, UnsignedRightShift,
		BitwiseAnd, BitwiseXor, BitwiseOr,
		AssignMul, AssignDiv, AssignMod, AssignDiff,
		AssignLsh, AssignRsh, AssignUsh, AssignAnd, AssignXor, AssignOr:
		return "number"
	case Delete, In, Not, LessThan, GreaterThan, LessEquals, GreaterEquals,
		InstanceOf, Equal, NotEqual, StrictlyEqual, StrictlyNotEqual:
		return "boolean"
	case Void:
		return "undefined"
	case TypeOf:
		return "string"
	case LogicalOr, LogicalAnd, TernaryOp:
		a, b := StaticTypeOf(ops[len(ops)-2]), StaticTypeOf(ops[len(ops)-1])
		if a != "" && a == b {
			return a
		}
	case Addition:
		a, b := StaticTypeOf(ops[0]), StaticTypeOf(ops[1])
		if a == "string" || b == "string" {
			return "string"
		}
		if a == "number" && b == "number" {
			return "number"
		}
	case Comma, Assign:
		return StaticTypeOf(ops[1])
	}
	return ""
}

// ConditionResult reports the truthiness of n when it is statically known.
func ConditionResult(n *Node) (result, known bool) {
	switch n.Kind {
	case KindStringLiteral:
		return n.StringValue() != "", true
	case KindNumberLiteral:
		f := n.NumberValue()
		return f != 0 && !math.IsNaN(f), true
	case KindBooleanLiteral:
		return n.Value.(bool), true
	case KindNullLiteral:
		return false, true
	case KindRegexpLiteral, KindArrayConstructor, KindObjectConstructor, KindFunctionConstructor:
		return true, true
	case KindOperation:
		return operationConditionResult(n)
	}
	return false, false
}

func operationConditionResult(n *Node) (bool, bool) {
	ops := n.Children
	switch n.Operator() {
	case Not:
		b, ok := ConditionResult(ops[0])
		return !b, ok
	case Comma, Assign:
		return ConditionResult(ops[1])
	case TernaryOp:
		if c, ok := ConditionResult(ops[0]); ok {
			if c {
				return ConditionResult(ops[1])
			}
			return ConditionResult(ops[2])
		}
		a, okA := ConditionResult(ops[1])
		b, okB := ConditionResult(ops[2])
		if okA && okB && a == b {
			return a, true
		}
	case LogicalAnd, LogicalOr:
		isOr := n.Operator() == LogicalOr
		if l, ok := ConditionResult(ops[0]); ok {
			if l == isOr {
				return l, true
			}
			return ConditionResult(ops[1])
		}
		// x && false is always falsey and x || true always truthy.
		if r, ok := ConditionResult(ops[1]); ok && r == isOr {
			return r, true
		}
	case Void:
		return false, true
	case TypeOf, Constructor:
		return true, true
	case FunctionCall:
		if ops[0].Is(Constructor) {
			return true, true
		}
	}
	return false, false
}

// SimplifyForSideEffect returns an expression with the same side effects as
// n when n is evaluated only for its effects, or nil when evaluating n has no
// effect at all. Operands that might throw are kept.
func SimplifyForSideEffect(n *Node) *Node {
	switch n.Kind {
	case KindStringLiteral, KindNumberLiteral, KindBooleanLiteral, KindNullLiteral,
		KindRegexpLiteral, KindFunctionConstructor:
		return nil
	case KindArrayConstructor:
		var kept []*Node
		for _, c := range n.Children {
			if s := SimplifyForSideEffect(c); s != nil {
				kept = append(kept, s)
			}
		}
		return commaJoin(n.Pos, kept)
	case KindOperation:
		return simplifyOperation(n)
	}
	return n
}

func commaJoin(pos position.FilePosition, es []*Node) *Node {
	if len(es) == 0 {
		return nil
	}
	out := es[0]
	for _, e := range es[1:] {
		out = NewOperation(pos, Comma, out, e)
	}
	return out
}

func simplifyOperation(n *Node) *Node {
	ops := n.Children
	switch op := n.Operator(); op {
	case Comma:
		a, b := ops[0], ops[1]
		na, nb := SimplifyForSideEffect(a), SimplifyForSideEffect(b)
		switch {
		case na == nil:
			return nb
		case nb == nil:
			return na
		case na == a && nb == b:
			return n
		}
		return NewOperation(n.Pos, Comma, na, nb)
	case LogicalAnd, LogicalOr:
		a, b := ops[0], ops[1]
		nb := SimplifyForSideEffect(b)
		switch {
		case nb == nil:
			return SimplifyForSideEffect(a)
		case nb == b:
			return n
		}
		return NewOperation(n.Pos, op, a, nb)
	case TernaryOp:
		c, a, b := ops[0], ops[1], ops[2]
		na, nb := SimplifyForSideEffect(a), SimplifyForSideEffect(b)
		switch {
		case na == nil && nb == nil:
			return SimplifyForSideEffect(c)
		case na == nil:
			return NewOperation(n.Pos, LogicalOr, c, nb)
		case nb == nil:
			return NewOperation(n.Pos, LogicalAnd, c, na)
		case na == a && nb == b:
			return n
		}
		return NewOperation(n.Pos, TernaryOp, c, na, nb)
	case Not, Void, ToNumber, Negation:
		return SimplifyForSideEffect(ops[0])
	case TypeOf:
		// typeof never throws on an undeclared name.
		if ops[0].Kind == KindReference {
			return nil
		}
		return SimplifyForSideEffect(ops[0])
	}
	return n
}

// Fold returns a simpler expression equivalent to n, or n itself when no
// folding applies. Only the top node is considered; see FoldTree.
func Fold(n *Node) *Node {
	return fold(n, false)
}

// FoldTree folds every operation in n bottom-up, in place, and returns the
// possibly replaced root.
func FoldTree(n *Node) *Node {
	return foldTree(n, false)
}

func foldTree(n *Node, isFn bool) *Node {
	if n == nil {
		return nil
	}
	var m *Mutation
	for i, c := range n.Children {
		folded := foldTree(c, n.Is(FunctionCall) && i == 0)
		if folded != c {
			if m == nil {
				m = n.Mutate()
			}
			m.Replace(folded, c)
		}
	}
	if m != nil {
		m.Execute()
	}
	if n.Kind == KindOperation {
		return fold(n, isFn)
	}
	return n
}

func fold(n *Node, isFn bool) *Node {
	if n.Kind != KindOperation {
		return n
	}
	op := n.Operator()
	switch {
	case op == FunctionCall:
		return foldCall(n)
	case len(n.Children) == 1:
		return foldUnary(n)
	case len(n.Children) == 2:
		return foldBinary(n, isFn)
	case op == TernaryOp:
		return foldTernary(n)
	}
	return n
}

func foldCall(n *Node) *Node {
	// "str".indexOf("x")
	if len(n.Children) != 2 {
		return n
	}
	fn, arg := n.Children[0], n.Children[1]
	if !fn.Is(MemberAccess) || arg.Kind != KindStringLiteral {
		return n
	}
	obj, prop := fn.Children[0], fn.Children[1]
	if obj.Kind != KindStringLiteral || prop.Kind != KindReference || prop.Name() != "indexOf" {
		return n
	}
	return NewNumber(n.Pos, float64(utf16Index(obj.StringValue(), arg.StringValue())))
}

func utf16Index(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return utf16Len(s[:i])
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func foldUnary(n *Node) *Node {
	operand := n.Children[0]
	switch n.Operator() {
	case Not:
		if b, ok := ConditionResult(operand); ok && SimplifyForSideEffect(operand) == nil {
			return NewBoolean(n.Pos, !b)
		}
	case TypeOf:
		if t := StaticTypeOf(operand); t != "" && SimplifyForSideEffect(operand) == nil {
			return NewString(n.Pos, t)
		}
	case Negation:
		// -0 is left alone since the literal 0 cannot express it.
		if operand.Kind == KindNumberLiteral && operand.NumberValue() != 0 {
			return NewNumber(n.Pos, -operand.NumberValue())
		}
	case Inverse:
		if operand.Kind == KindNumberLiteral {
			return NewNumber(n.Pos, float64(^ToInt32(operand.NumberValue())))
		}
	case ToNumber:
		if operand.Kind == KindNumberLiteral {
			return operand
		}
	}
	return n
}

type literalKind int

const (
	litString literalKind = iota
	litNumber
	litBoolean
	litUndefined
)

type literal struct {
	kind literalKind
	s    string
	f    float64
	b    bool
}

func (l literal) String() string {
	switch l.kind {
	case litString:
		return l.s
	case litNumber:
		return NumberToString(l.f)
	case litBoolean:
		if l.b {
			return "true"
		}
		return "false"
	}
	return "undefined"
}

func (l literal) equal(o literal) bool {
	if l.kind != o.kind {
		return false
	}
	switch l.kind {
	case litString:
		return l.s == o.s
	case litNumber:
		return l.f == o.f
	case litBoolean:
		return l.b == o.b
	}
	return true
}

// toLiteralValue treats void of a side effect free operand as undefined.
// null is not treated as a literal value.
func toLiteralValue(n *Node) (literal, bool) {
	switch n.Kind {
	case KindStringLiteral:
		return literal{kind: litString, s: n.StringValue()}, true
	case KindNumberLiteral:
		return literal{kind: litNumber, f: n.NumberValue()}, true
	case KindBooleanLiteral:
		return literal{kind: litBoolean, b: n.Value.(bool)}, true
	case KindOperation:
		if n.Is(Void) && SimplifyForSideEffect(n.Children[0]) == nil {
			return literal{kind: litUndefined}, true
		}
	}
	return literal{}, false
}

func foldBinary(n *Node, isFn bool) *Node {
	op := n.Operator()
	left, right := n.Children[0], n.Children[1]
	switch op {
	case LogicalAnd, LogicalOr:
		l, ok := ConditionResult(left)
		if !ok {
			return n
		}
		if l == (op == LogicalOr) {
			// true || x is the left operand itself.
			return left
		}
		if sideEffect := SimplifyForSideEffect(left); sideEffect != nil {
			return NewOperation(n.Pos, Comma, sideEffect, right)
		}
		return right
	case MemberAccess:
		if left.Kind == KindStringLiteral && right.Kind == KindReference && right.Name() == "length" {
			return NewNumber(n.Pos, float64(utf16Len(left.StringValue())))
		}
		return n
	case SquareBracket:
		if left.Kind == KindStringLiteral && right.Kind == KindStringLiteral && right.StringValue() == "length" {
			return NewNumber(n.Pos, float64(utf16Len(left.StringValue())))
		}
		return n
	case Comma:
		// (0, obj.method)() must keep the comma so the call is unbound.
		if SimplifyForSideEffect(left) == nil && !(isFn && (right.Is(MemberAccess) || right.Is(SquareBracket))) {
			return right
		}
		return n
	}

	lv, okL := toLiteralValue(left)
	rv, okR := toLiteralValue(right)
	if !okL || !okR {
		return n
	}
	switch op {
	case Equal, NotEqual, StrictlyEqual, StrictlyNotEqual:
		strict := op == StrictlyEqual || op == StrictlyNotEqual
		negate := op == NotEqual || op == StrictlyNotEqual
		eq := lv.equal(rv)
		if strict || eq || lv.kind == rv.kind {
			return NewBoolean(n.Pos, eq != negate)
		}
	case Addition:
		if lv.kind == litString || rv.kind == litString {
			return NewString(n.Pos, lv.String()+rv.String())
		}
		if lv.kind == litNumber && rv.kind == litNumber {
			return numberResult(n, lv.f+rv.f)
		}
	case Subtraction, Multiplication, Division, Modulus:
		if lv.kind != litNumber || rv.kind != litNumber {
			return n
		}
		a, b := lv.f, rv.f
		var r float64
		switch op {
		case Subtraction:
			r = a - b
		case Multiplication:
			r = a * b
		case Division:
			r = a / b
		case Modulus:
			r = math.Remainder(a, b)
		}
		return numberResult(n, r)
	}
	return n
}

func numberResult(n *Node, r float64) *Node {
	if math.IsNaN(r) {
		return n
	}
	return NewNumber(n.Pos, r)
}

func foldTernary(n *Node) *Node {
	c := n.Children[0]
	if b, ok := ConditionResult(c); ok && SimplifyForSideEffect(c) == nil {
		if b {
			return n.Children[1]
		}
		return n.Children[2]
	}
	return n
}
