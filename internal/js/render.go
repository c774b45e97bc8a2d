package js

import "strings"

// Render returns JavaScript source for n. Re-parsing the output yields a
// tree equal to n, and the output never contains </script, <!--, --> or ]]>
// outside of escapes, so it can be embedded in HTML or XML as is.
func Render(n *Node) string {
	r := &renderer{}
	r.node(n)
	return r.b.String()
}

// RenderProgram renders the statements of a top level Block without the
// enclosing braces.
func RenderProgram(block *Node) string {
	r := &renderer{}
	for i, s := range block.Children {
		if i > 0 {
			r.newline()
		}
		r.statement(s)
	}
	return r.b.String()
}

type renderer struct {
	b      strings.Builder
	last   byte
	indent int
	noIn   int
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c == '\\' || c >= 0x80 ||
		c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func needsSpace(last byte, next string) bool {
	first := next[0]
	switch {
	case isWordByte(last) && isWordByte(first):
		return true
	case (last == '+' || last == '-') && first == last:
		return true
	case last == '-' && first == '>':
		return true
	case last == '/' && (first == '/' || first == '*'):
		return true
	case last == '<' && first == '!':
		return true
	}
	return false
}

// tok writes a token, separating it from the previous one when the two
// would otherwise lex differently.
func (r *renderer) tok(s string) {
	if s == "" {
		return
	}
	if r.last != 0 && needsSpace(r.last, s) {
		r.b.WriteByte(' ')
	}
	r.raw(s)
}

func (r *renderer) raw(s string) {
	if s == "" {
		return
	}
	r.b.WriteString(s)
	r.last = s[len(s)-1]
}

func (r *renderer) newline() {
	r.b.WriteByte('\n')
	r.b.WriteString(strings.Repeat("  ", r.indent))
	r.last = '\n'
}

func (r *renderer) node(n *Node) {
	switch {
	case n.Kind.IsStatement():
		r.statement(n)
	case n.Kind == KindContainer:
		for i, c := range n.Children {
			if i > 0 {
				r.raw(", ")
			}
			r.node(c)
		}
	default:
		r.expression(n)
	}
}

func (r *renderer) expression(n *Node) {
	switch n.Kind {
	case KindReference, KindIdentifier:
		r.tok(n.Name())
	case KindFormalParam:
		r.tok(n.Name())
	case KindStringLiteral:
		r.tok(Quote(n.StringValue()))
	case KindNumberLiteral:
		r.tok(NumberToString(n.NumberValue()))
	case KindBooleanLiteral:
		if n.Value.(bool) {
			r.tok("true")
		} else {
			r.tok("false")
		}
	case KindNullLiteral:
		r.tok("null")
	case KindRegexpLiteral:
		r.tok(escapeRegexp(n.Value.(string)))
	case KindOperation:
		r.operation(n)
	case KindArrayConstructor:
		r.tok("[")
		r.list(n.Children)
		r.tok("]")
	case KindObjectConstructor:
		r.tok("{")
		for i, p := range n.Children {
			if i > 0 {
				r.raw(", ")
			} else {
				r.raw(" ")
			}
			r.property(p)
		}
		if len(n.Children) > 0 {
			r.raw(" ")
		}
		r.tok("}")
	case KindValueProperty:
		r.property(n)
	case KindFunctionConstructor:
		r.function(n)
	default:
		r.tok("/* " + n.Kind.String() + " */")
	}
}

func (r *renderer) property(p *Node) {
	key := p.Children[0].StringValue()
	if IsIdentifier(key) {
		r.tok(key)
	} else {
		r.tok(Quote(key))
	}
	r.raw(": ")
	r.listItem(p.Children[1])
}

func (r *renderer) list(items []*Node) {
	for i, e := range items {
		if i > 0 {
			r.raw(", ")
		}
		r.listItem(e)
	}
}

// listItem renders an element of a comma separated list, such as a call
// argument, where a comma operation needs parentheses.
func (r *renderer) listItem(e *Node) {
	saved := r.noIn
	r.noIn = 0
	r.wrapped(e, parenthesize(Comma, false, e))
	r.noIn = saved
}

func (r *renderer) wrapped(e *Node, paren bool) {
	if !paren {
		r.expression(e)
		return
	}
	saved := r.noIn
	r.noIn = 0
	r.tok("(")
	r.expression(e)
	r.tok(")")
	r.noIn = saved
}

func (r *renderer) operand(n *Node, i int) {
	child := n.Children[i]
	r.wrapped(child, parenthesize(n.Operator(), i == 0, child))
}

func (r *renderer) operation(n *Node) {
	op := n.Operator()
	if op == In && r.noIn > 0 {
		r.noIn--
		r.tok("(")
		r.operation(n)
		r.tok(")")
		r.noIn++
		return
	}
	switch op.Type() {
	case Prefix:
		r.tok(op.Symbol())
		r.operand(n, 0)
	case Postfix:
		r.operand(n, 0)
		r.tok(op.Symbol())
	case Infix:
		r.operand(n, 0)
		switch op {
		case MemberAccess:
			name := n.Children[1]
			if name.Kind == KindReference && IsIdentifier(name.Name()) {
				r.tok(".")
				r.tok(name.Name())
			} else {
				r.tok("[")
				if name.Kind == KindReference {
					r.tok(Quote(name.Name()))
				} else {
					r.listItem(name)
				}
				r.tok("]")
			}
			return
		case Comma:
			r.tok(",")
		default:
			r.raw(" " + op.Symbol() + " ")
		}
		r.operand(n, 1)
	case Bracket:
		r.operand(n, 0)
		r.tok(op.Symbol())
		r.list(n.Children[1:])
		r.tok(op.ClosingSymbol())
	case Ternary:
		r.operand(n, 0)
		r.raw(" ? ")
		r.operand(n, 1)
		r.raw(" : ")
		r.operand(n, 2)
	}
}

// parenthesize reports whether child, an operand of op, needs parentheses.
// firstOp is true for the leftmost operand.
func parenthesize(op Operator, firstOp bool, child *Node) bool {
	switch child.Kind {
	case KindFunctionConstructor, KindObjectConstructor:
		// A leading function or brace would start a declaration or block.
		return firstOp
	case KindNumberLiteral:
		if firstOp && op == MemberAccess {
			return true
		}
		if op.Type() == Prefix {
			v := child.NumberValue()
			return v < 0 || v == 0 && 1/v < 0
		}
	}
	dividend := firstOp && (op == Division || op == AssignDiv)
	if dividend && child.Kind != KindReference && child.Kind != KindNumberLiteral && child.Kind != KindOperation {
		return true
	}
	if child.Kind != KindOperation {
		return false
	}
	childOp := child.Operator()
	if firstOp {
		if childOp == FunctionCall && (op == MemberAccess || op == SquareBracket) {
			return false
		}
		if dividend && childOp != FunctionCall && childOp != MemberAccess {
			return true
		}
		// a-- > b must not render as a-->b, an HTML comment close.
		if childOp == PostDecrement {
			switch op {
			case AssignRsh, AssignUsh, RightShift, UnsignedRightShift, GreaterThan, GreaterEquals:
				return true
			}
		}
	}
	if op == Constructor && callInCallee(child) {
		return true
	}
	delta := op.Precedence() - childOp.Precedence()
	if delta < 0 {
		return true
	}
	if delta == 0 {
		return (childOp.Associativity() == Left) != firstOp
	}
	return false
}

// callInCallee reports whether a member chain used as a constructor target
// contains a call, as in new (a().b), which would otherwise bind the call to
// new.
func callInCallee(n *Node) bool {
	for n.Kind == KindOperation {
		switch n.Operator() {
		case FunctionCall:
			return true
		case MemberAccess, SquareBracket:
			n = n.Children[0]
		default:
			return false
		}
	}
	return false
}

func (r *renderer) function(n *Node) {
	r.tok("function")
	if name := n.Children[0].Name(); name != "" {
		r.tok(name)
	}
	r.tok("(")
	last := len(n.Children) - 1
	for i, p := range n.Children[1:last] {
		if i > 0 {
			r.raw(", ")
		}
		r.tok(p.Name())
	}
	r.tok(")")
	r.raw(" ")
	r.block(n.Children[last])
}

func (r *renderer) block(n *Node) {
	r.tok("{")
	if len(n.Children) == 0 {
		r.tok("}")
		return
	}
	r.indent++
	for _, s := range n.Children {
		r.newline()
		r.statement(s)
	}
	r.indent--
	r.newline()
	r.tok("}")
}

// body renders a loop or branch body, always braced so an else can never
// attach to the wrong if.
func (r *renderer) body(n *Node) {
	r.raw(" ")
	if n.Kind == KindBlock {
		r.block(n)
		return
	}
	r.block(&Node{Kind: KindBlock, Children: []*Node{n}})
}

func (r *renderer) declaration(n *Node) {
	r.tok(n.Name())
	if len(n.Children) == 2 {
		r.raw(" = ")
		r.listItemKeepIn(n.Children[1])
	}
}

// listItemKeepIn is listItem without resetting the no-in context, used for
// initialisers in a for loop head.
func (r *renderer) listItemKeepIn(e *Node) {
	r.wrapped(e, parenthesize(Comma, false, e))
}

func (r *renderer) expressionStmtBody(e *Node) {
	r.wrapped(e, e.Kind == KindFunctionConstructor || e.Kind == KindObjectConstructor)
}

func (r *renderer) statement(n *Node) {
	switch n.Kind {
	case KindBlock:
		r.block(n)
	case KindExpressionStmt:
		r.expressionStmtBody(n.Children[0])
		r.tok(";")
	case KindDeclaration:
		r.tok("var")
		r.declaration(n)
		r.tok(";")
	case KindMultiDeclaration:
		r.tok("var")
		for i, d := range n.Children {
			if i > 0 {
				r.raw(", ")
			}
			r.declaration(d)
		}
		r.tok(";")
	case KindFunctionDeclaration:
		r.function(n.Children[1])
	case KindReturnStmt:
		r.tok("return")
		if len(n.Children) == 1 {
			r.raw(" ")
			r.expression(n.Children[0])
		}
		r.tok(";")
	case KindThrowStmt:
		r.tok("throw")
		r.raw(" ")
		r.expression(n.Children[0])
		r.tok(";")
	case KindIfStmt:
		r.tok("if")
		r.raw(" ")
		r.condition(n.Children[0])
		r.body(n.Children[1])
		if len(n.Children) == 3 {
			r.raw(" ")
			r.tok("else")
			if n.Children[2].Kind == KindIfStmt {
				r.raw(" ")
				r.statement(n.Children[2])
			} else {
				r.body(n.Children[2])
			}
		}
	case KindWhileLoop:
		r.tok("while")
		r.raw(" ")
		r.condition(n.Children[0])
		r.body(n.Children[1])
	case KindDoWhileLoop:
		r.tok("do")
		r.body(n.Children[0])
		r.raw(" ")
		r.tok("while")
		r.raw(" ")
		r.condition(n.Children[1])
		r.tok(";")
	case KindForLoop:
		r.tok("for")
		r.raw(" ")
		r.tok("(")
		r.noIn++
		r.loopClause(n.Children[0])
		r.noIn--
		r.tok(";")
		r.raw(" ")
		r.expression(n.Children[1])
		r.tok(";")
		if n.Children[2].Kind != KindNoop {
			r.raw(" ")
			r.loopClause(n.Children[2])
		}
		r.tok(")")
		r.body(n.Children[3])
	case KindForEachLoop:
		r.tok("for")
		r.raw(" ")
		r.tok("(")
		r.noIn++
		if key := n.Children[0]; key.Kind == KindDeclaration {
			r.tok("var")
			r.declaration(key)
		} else {
			r.expression(key)
		}
		r.noIn--
		r.tok("in")
		r.raw(" ")
		r.expression(n.Children[1])
		r.tok(")")
		r.body(n.Children[2])
	case KindBreakStmt, KindContinueStmt:
		if n.Kind == KindBreakStmt {
			r.tok("break")
		} else {
			r.tok("continue")
		}
		if label := n.Value.(string); label != "" {
			r.tok(label)
		}
		r.tok(";")
	case KindLabeledStmt:
		r.tok(n.Value.(string))
		r.tok(":")
		r.raw(" ")
		r.statement(n.Children[0])
	case KindSwitchStmt:
		r.tok("switch")
		r.raw(" ")
		r.condition(n.Children[0])
		r.raw(" ")
		r.tok("{")
		for _, c := range n.Children[1:] {
			r.newline()
			var body *Node
			if c.Kind == KindCaseStmt {
				r.tok("case")
				r.raw(" ")
				r.expression(c.Children[0])
				body = c.Children[1]
			} else {
				r.tok("default")
				body = c.Children[0]
			}
			r.tok(":")
			r.indent++
			for _, s := range body.Children {
				r.newline()
				r.statement(s)
			}
			r.indent--
		}
		r.newline()
		r.tok("}")
	case KindTryStmt:
		r.tok("try")
		r.raw(" ")
		r.block(n.Children[0])
		for _, clause := range n.Children[1:] {
			r.raw(" ")
			if clause.Kind == KindCatchStmt {
				r.tok("catch")
				r.raw(" ")
				r.tok("(")
				r.tok(clause.Children[0].Name())
				r.tok(")")
				r.raw(" ")
				r.block(clause.Children[1])
			} else {
				r.tok("finally")
				r.raw(" ")
				r.block(clause.Children[0])
			}
		}
	case KindNoop:
		r.tok(";")
	case KindDirectivePrologue:
		for i, d := range n.Children {
			if i > 0 {
				r.newline()
			}
			r.tok(Quote(d.Value.(string)))
			r.tok(";")
		}
	}
}

func (r *renderer) condition(e *Node) {
	r.tok("(")
	r.expression(e)
	r.tok(")")
}

func (r *renderer) loopClause(s *Node) {
	switch s.Kind {
	case KindNoop:
	case KindExpressionStmt:
		r.expression(s.Children[0])
	case KindDeclaration:
		r.tok("var")
		r.declaration(s)
	case KindMultiDeclaration:
		r.tok("var")
		for i, d := range s.Children {
			if i > 0 {
				r.raw(", ")
			}
			r.declaration(d)
		}
	}
}

// escapeRegexp hides the characters that could close an enclosing HTML or
// XML context. \x3c matches < in every regular expression position.
func escapeRegexp(src string) string {
	if !strings.ContainsAny(src, "<>") {
		return src
	}
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			i++
			switch src[i] {
			case '<':
				b.WriteString(`\x3c`)
			case '>':
				b.WriteString(`\x3e`)
			default:
				b.WriteByte(c)
				b.WriteByte(src[i])
			}
		case c == '<':
			b.WriteString(`\x3c`)
		case c == '>':
			b.WriteString(`\x3e`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
