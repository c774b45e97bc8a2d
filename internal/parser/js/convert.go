package js

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	jstree "bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/parser/common"
	"bennypowers.dev/cajoler/internal/position"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

type converter struct {
	src  []byte
	name string
}

func (c *converter) pos(n *sitter.Node) position.FilePosition {
	return common.Pos(c.name, n)
}

func (c *converter) text(n *sitter.Node) string {
	return n.Utf8Text(c.src)
}

func (c *converter) unsupported(n *sitter.Node) error {
	return &SyntaxError{Pos: c.pos(n), Err: ErrUnsupported, Detail: n.Kind()}
}

func (c *converter) firstError(root *sitter.Node) error {
	return common.FirstError(c.name, c.src, root)
}

// named returns the named children of n without comments.
func named(n *sitter.Node) []*sitter.Node {
	return common.Named(n)
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if kids := named(n); len(kids) > 0 {
		return kids[0]
	}
	return nil
}

func (c *converter) build(kind jstree.Kind, value any, n *sitter.Node, children ...*jstree.Node) (*jstree.Node, error) {
	node, err := jstree.Build(kind, value, c.pos(n), children...)
	if err != nil {
		return nil, &SyntaxError{Pos: c.pos(n), Err: ErrSyntax, Detail: err.Error()}
	}
	return node, nil
}

func (c *converter) program(root *sitter.Node) (*jstree.Node, error) {
	var stmts []*sitter.Node
	for _, child := range named(root) {
		if child.Kind() != "hash_bang_line" {
			stmts = append(stmts, child)
		}
	}
	body, err := c.statements(stmts, true)
	if err != nil {
		return nil, err
	}
	return c.build(jstree.KindBlock, nil, root, body...)
}

// statements converts a statement list. A leading run of string literal
// statements becomes a DirectivePrologue when directives is set.
func (c *converter) statements(nodes []*sitter.Node, directives bool) ([]*jstree.Node, error) {
	var out []*jstree.Node
	if directives {
		var prologue []*jstree.Node
		for len(nodes) > 0 {
			n := nodes[0]
			expr := firstNamed(n)
			if n.Kind() != "expression_statement" || expr == nil || expr.Kind() != "string" {
				break
			}
			raw := c.text(expr)
			d, err := c.build(jstree.KindDirective, raw[1:len(raw)-1], n)
			if err != nil {
				return nil, err
			}
			prologue = append(prologue, d)
			nodes = nodes[1:]
		}
		if len(prologue) > 0 {
			p, err := jstree.Build(jstree.KindDirectivePrologue, nil, position.Span(prologue[0].Pos, prologue[len(prologue)-1].Pos), prologue...)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
	}
	for _, n := range nodes {
		s, err := c.statement(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *converter) block(n *sitter.Node, directives bool) (*jstree.Node, error) {
	if n.Kind() != "statement_block" {
		return nil, c.unsupported(n)
	}
	body, err := c.statements(named(n), directives)
	if err != nil {
		return nil, err
	}
	return c.build(jstree.KindBlock, nil, n, body...)
}

func (c *converter) statement(n *sitter.Node) (*jstree.Node, error) {
	switch n.Kind() {
	case "expression_statement":
		e, err := c.expression(firstNamed(n))
		if err != nil {
			return nil, err
		}
		return c.build(jstree.KindExpressionStmt, nil, n, e)
	case "variable_declaration":
		return c.varDeclaration(n)
	case "function_declaration":
		fn, err := c.function(n)
		if err != nil {
			return nil, err
		}
		name := jstree.NewIdentifier(fn.Children[0].Pos, fn.Children[0].Name())
		return c.build(jstree.KindFunctionDeclaration, nil, n, name, fn)
	case "statement_block":
		return c.block(n, false)
	case "if_statement":
		return c.ifStatement(n)
	case "for_statement":
		return c.forStatement(n)
	case "for_in_statement":
		return c.forInStatement(n)
	case "while_statement":
		cond, err := c.expression(n.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		body, err := c.body(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return c.build(jstree.KindWhileLoop, nil, n, cond, body)
	case "do_statement":
		body, err := c.body(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		cond, err := c.expression(n.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		return c.build(jstree.KindDoWhileLoop, nil, n, body, cond)
	case "return_statement":
		if e := firstNamed(n); e != nil {
			v, err := c.expression(e)
			if err != nil {
				return nil, err
			}
			return c.build(jstree.KindReturnStmt, nil, n, v)
		}
		return c.build(jstree.KindReturnStmt, nil, n)
	case "throw_statement":
		v, err := c.expression(firstNamed(n))
		if err != nil {
			return nil, err
		}
		return c.build(jstree.KindThrowStmt, nil, n, v)
	case "break_statement", "continue_statement":
		label := ""
		if l := n.ChildByFieldName("label"); l != nil {
			label = c.text(l)
		}
		kind := jstree.KindBreakStmt
		if n.Kind() == "continue_statement" {
			kind = jstree.KindContinueStmt
		}
		return c.build(kind, label, n)
	case "labeled_statement":
		body, err := c.statement(n.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return c.build(jstree.KindLabeledStmt, c.text(n.ChildByFieldName("label")), n, body)
	case "switch_statement":
		return c.switchStatement(n)
	case "try_statement":
		return c.tryStatement(n)
	case "empty_statement":
		return c.build(jstree.KindNoop, nil, n)
	}
	return nil, c.unsupported(n)
}

// body converts the body of a branch or loop, wrapping a lone statement in
// a Block so that braced and unbraced forms give the same tree.
func (c *converter) body(n *sitter.Node) (*jstree.Node, error) {
	s, err := c.statement(n)
	if err != nil || s.Kind == jstree.KindBlock {
		return s, err
	}
	return c.build(jstree.KindBlock, nil, n, s)
}

func (c *converter) declarator(n *sitter.Node) (*jstree.Node, error) {
	name := n.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return nil, c.unsupported(n)
	}
	ident := jstree.NewIdentifier(c.pos(name), c.text(name))
	if v := n.ChildByFieldName("value"); v != nil {
		init, err := c.expression(v)
		if err != nil {
			return nil, err
		}
		return c.build(jstree.KindDeclaration, nil, n, ident, init)
	}
	return c.build(jstree.KindDeclaration, nil, n, ident)
}

func (c *converter) varDeclaration(n *sitter.Node) (*jstree.Node, error) {
	var decls []*jstree.Node
	for _, d := range named(n) {
		decl, err := c.declarator(d)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	if len(decls) == 1 {
		return decls[0], nil
	}
	return c.build(jstree.KindMultiDeclaration, nil, n, decls...)
}

func (c *converter) ifStatement(n *sitter.Node) (*jstree.Node, error) {
	cond, err := c.expression(n.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	then, err := c.body(n.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	alt := n.ChildByFieldName("alternative")
	if alt == nil {
		return c.build(jstree.KindIfStmt, nil, n, cond, then)
	}
	if alt.Kind() == "else_clause" {
		alt = firstNamed(alt)
	}
	elseStmt, err := c.statement(alt)
	if err != nil {
		return nil, err
	}
	if elseStmt.Kind != jstree.KindIfStmt && elseStmt.Kind != jstree.KindBlock {
		if elseStmt, err = c.build(jstree.KindBlock, nil, alt, elseStmt); err != nil {
			return nil, err
		}
	}
	return c.build(jstree.KindIfStmt, nil, n, cond, then, elseStmt)
}

// loopClause converts the init or increment part of a for loop head.
func (c *converter) loopClause(n *sitter.Node) (*jstree.Node, error) {
	if n == nil || n.Kind() == ";" || n.Kind() == "empty_statement" {
		return &jstree.Node{Kind: jstree.KindNoop}, nil
	}
	switch n.Kind() {
	case "variable_declaration", "expression_statement":
		return c.statement(n)
	case "lexical_declaration":
		return nil, c.unsupported(n)
	}
	e, err := c.expression(n)
	if err != nil {
		return nil, err
	}
	return c.build(jstree.KindExpressionStmt, nil, n, e)
}

func (c *converter) forStatement(n *sitter.Node) (*jstree.Node, error) {
	init, err := c.loopClause(n.ChildByFieldName("initializer"))
	if err != nil {
		return nil, err
	}
	var cond *jstree.Node
	switch cn := n.ChildByFieldName("condition"); {
	case cn == nil || cn.Kind() == ";" || cn.Kind() == "empty_statement":
		cond = jstree.NewBoolean(c.pos(n), true)
	case cn.Kind() == "expression_statement":
		cond, err = c.expression(firstNamed(cn))
	default:
		cond, err = c.expression(cn)
	}
	if err != nil {
		return nil, err
	}
	incr, err := c.loopClause(n.ChildByFieldName("increment"))
	if err != nil {
		return nil, err
	}
	body, err := c.body(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return c.build(jstree.KindForLoop, nil, n, init, cond, incr, body)
}

func (c *converter) forInStatement(n *sitter.Node) (*jstree.Node, error) {
	if op := n.ChildByFieldName("operator"); op != nil && op.Kind() != "in" {
		return nil, c.unsupported(op)
	}
	if n.ChildByFieldName("value") != nil {
		return nil, c.unsupported(n)
	}
	left := n.ChildByFieldName("left")
	var key *jstree.Node
	var err error
	if kind := n.ChildByFieldName("kind"); kind != nil {
		if kind.Kind() != "var" || left.Kind() != "identifier" {
			return nil, c.unsupported(kind)
		}
		key, err = c.build(jstree.KindDeclaration, nil, left, jstree.NewIdentifier(c.pos(left), c.text(left)))
	} else {
		key, err = c.expression(left)
	}
	if err != nil {
		return nil, err
	}
	container, err := c.expression(n.ChildByFieldName("right"))
	if err != nil {
		return nil, err
	}
	body, err := c.body(n.ChildByFieldName("body"))
	if err != nil {
		return nil, err
	}
	return c.build(jstree.KindForEachLoop, nil, n, key, container, body)
}

func (c *converter) switchStatement(n *sitter.Node) (*jstree.Node, error) {
	value, err := c.expression(n.ChildByFieldName("value"))
	if err != nil {
		return nil, err
	}
	children := []*jstree.Node{value}
	for _, cs := range named(n.ChildByFieldName("body")) {
		caseValue := cs.ChildByFieldName("value")
		var stmts []*sitter.Node
		for _, s := range named(cs) {
			if caseValue == nil || s.Id() != caseValue.Id() {
				stmts = append(stmts, s)
			}
		}
		body, err := c.statements(stmts, false)
		if err != nil {
			return nil, err
		}
		block, err := c.build(jstree.KindBlock, nil, cs, body...)
		if err != nil {
			return nil, err
		}
		var clause *jstree.Node
		switch cs.Kind() {
		case "switch_case":
			v, err := c.expression(caseValue)
			if err != nil {
				return nil, err
			}
			clause, err = c.build(jstree.KindCaseStmt, nil, cs, v, block)
			if err != nil {
				return nil, err
			}
		case "switch_default":
			clause, err = c.build(jstree.KindDefaultCaseStmt, nil, cs, block)
			if err != nil {
				return nil, err
			}
		default:
			return nil, c.unsupported(cs)
		}
		children = append(children, clause)
	}
	return c.build(jstree.KindSwitchStmt, nil, n, children...)
}

func (c *converter) tryStatement(n *sitter.Node) (*jstree.Node, error) {
	body, err := c.block(n.ChildByFieldName("body"), false)
	if err != nil {
		return nil, err
	}
	children := []*jstree.Node{body}
	if h := n.ChildByFieldName("handler"); h != nil {
		param := h.ChildByFieldName("parameter")
		if param == nil || param.Kind() != "identifier" {
			return nil, c.unsupported(h)
		}
		decl, err := c.build(jstree.KindDeclaration, nil, param, jstree.NewIdentifier(c.pos(param), c.text(param)))
		if err != nil {
			return nil, err
		}
		hb, err := c.block(h.ChildByFieldName("body"), false)
		if err != nil {
			return nil, err
		}
		catch, err := c.build(jstree.KindCatchStmt, nil, h, decl, hb)
		if err != nil {
			return nil, err
		}
		children = append(children, catch)
	}
	if f := n.ChildByFieldName("finalizer"); f != nil {
		fb, err := c.block(f.ChildByFieldName("body"), false)
		if err != nil {
			return nil, err
		}
		finally, err := c.build(jstree.KindFinallyStmt, nil, f, fb)
		if err != nil {
			return nil, err
		}
		children = append(children, finally)
	}
	return c.build(jstree.KindTryStmt, nil, n, children...)
}

func (c *converter) function(n *sitter.Node) (*jstree.Node, error) {
	if first := n.Child(0); first != nil && first.Kind() == "async" {
		return nil, c.unsupported(first)
	}
	name := ""
	namePos := c.pos(n)
	if nn := n.ChildByFieldName("name"); nn != nil {
		name, namePos = c.text(nn), c.pos(nn)
	}
	children := []*jstree.Node{jstree.NewIdentifier(namePos, name)}
	for _, param := range named(n.ChildByFieldName("parameters")) {
		if param.Kind() != "identifier" {
			return nil, c.unsupported(param)
		}
		fp, err := c.build(jstree.KindFormalParam, nil, param, jstree.NewIdentifier(c.pos(param), c.text(param)))
		if err != nil {
			return nil, err
		}
		children = append(children, fp)
	}
	body, err := c.block(n.ChildByFieldName("body"), true)
	if err != nil {
		return nil, err
	}
	children = append(children, body)
	return c.build(jstree.KindFunctionConstructor, nil, n, children...)
}

func (c *converter) operation(n *sitter.Node, op jstree.Operator, operands ...*sitter.Node) (*jstree.Node, error) {
	children := make([]*jstree.Node, 0, len(operands))
	for _, o := range operands {
		e, err := c.expression(o)
		if err != nil {
			return nil, err
		}
		children = append(children, e)
	}
	return c.build(jstree.KindOperation, op, n, children...)
}

func (c *converter) lookup(n *sitter.Node, typ jstree.OperatorType) (jstree.Operator, error) {
	opNode := n.ChildByFieldName("operator")
	if opNode == nil {
		return jstree.OpInvalid, c.unsupported(n)
	}
	op, ok := jstree.LookupOperator(typ, opNode.Kind())
	if !ok {
		return jstree.OpInvalid, c.unsupported(opNode)
	}
	return op, nil
}

func (c *converter) expression(n *sitter.Node) (*jstree.Node, error) {
	if n == nil {
		return nil, &SyntaxError{Err: ErrSyntax, Detail: "missing expression"}
	}
	pos := c.pos(n)
	switch n.Kind() {
	case "identifier", "this":
		return jstree.NewReference(pos, c.text(n)), nil
	case "number":
		f, err := parseNumber(c.text(n))
		if err != nil {
			return nil, &SyntaxError{Pos: pos, Err: ErrUnsupported, Detail: err.Error()}
		}
		return jstree.NewNumber(pos, f), nil
	case "string":
		return jstree.NewRawString(pos, c.text(n)), nil
	case "regex":
		return c.build(jstree.KindRegexpLiteral, c.text(n), n)
	case "true", "false":
		return jstree.NewBoolean(pos, n.Kind() == "true"), nil
	case "null":
		return jstree.NewNull(pos), nil
	case "parenthesized_expression":
		return c.expression(firstNamed(n))
	case "sequence_expression":
		return c.sequence(n)
	case "binary_expression":
		op, err := c.lookup(n, jstree.Infix)
		if err != nil {
			return nil, err
		}
		return c.operation(n, op, n.ChildByFieldName("left"), n.ChildByFieldName("right"))
	case "unary_expression":
		op, err := c.lookup(n, jstree.Prefix)
		if err != nil {
			return nil, err
		}
		return c.operation(n, op, n.ChildByFieldName("argument"))
	case "update_expression":
		arg, opNode := n.ChildByFieldName("argument"), n.ChildByFieldName("operator")
		typ := jstree.Postfix
		if opNode.StartByte() < arg.StartByte() {
			typ = jstree.Prefix
		}
		op, err := c.lookup(n, typ)
		if err != nil {
			return nil, err
		}
		return c.operation(n, op, arg)
	case "assignment_expression":
		return c.operation(n, jstree.Assign, n.ChildByFieldName("left"), n.ChildByFieldName("right"))
	case "augmented_assignment_expression":
		op, err := c.lookup(n, jstree.Infix)
		if err != nil {
			return nil, err
		}
		return c.operation(n, op, n.ChildByFieldName("left"), n.ChildByFieldName("right"))
	case "ternary_expression":
		return c.operation(n, jstree.TernaryOp,
			n.ChildByFieldName("condition"), n.ChildByFieldName("consequence"), n.ChildByFieldName("alternative"))
	case "member_expression":
		if n.ChildByFieldName("optional_chain") != nil {
			return nil, c.unsupported(n)
		}
		obj, err := c.expression(n.ChildByFieldName("object"))
		if err != nil {
			return nil, err
		}
		prop := n.ChildByFieldName("property")
		if prop == nil || prop.Kind() != "property_identifier" {
			return nil, c.unsupported(n)
		}
		return c.build(jstree.KindOperation, jstree.MemberAccess, n, obj, jstree.NewReference(c.pos(prop), c.text(prop)))
	case "subscript_expression":
		if n.ChildByFieldName("optional_chain") != nil {
			return nil, c.unsupported(n)
		}
		return c.operation(n, jstree.SquareBracket, n.ChildByFieldName("object"), n.ChildByFieldName("index"))
	case "call_expression":
		args := n.ChildByFieldName("arguments")
		if args == nil || args.Kind() != "arguments" || n.ChildByFieldName("optional_chain") != nil {
			return nil, c.unsupported(n)
		}
		return c.operation(n, jstree.FunctionCall, append([]*sitter.Node{n.ChildByFieldName("function")}, named(args)...)...)
	case "new_expression":
		ctor, err := c.operation(n, jstree.Constructor, n.ChildByFieldName("constructor"))
		if err != nil {
			return nil, err
		}
		args := n.ChildByFieldName("arguments")
		if args == nil {
			return ctor, nil
		}
		children := []*jstree.Node{ctor}
		for _, a := range named(args) {
			e, err := c.expression(a)
			if err != nil {
				return nil, err
			}
			children = append(children, e)
		}
		return c.build(jstree.KindOperation, jstree.FunctionCall, n, children...)
	case "array":
		var elems []*jstree.Node
		for _, a := range named(n) {
			e, err := c.expression(a)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return c.build(jstree.KindArrayConstructor, nil, n, elems...)
	case "object":
		return c.object(n)
	case "function_expression", "function":
		return c.function(n)
	}
	return nil, c.unsupported(n)
}

// sequence folds a comma expression into left associative Comma operations.
func (c *converter) sequence(n *sitter.Node) (*jstree.Node, error) {
	var operands []*sitter.Node
	var flatten func(s *sitter.Node)
	flatten = func(s *sitter.Node) {
		for _, child := range named(s) {
			if child.Kind() == "sequence_expression" {
				flatten(child)
			} else {
				operands = append(operands, child)
			}
		}
	}
	flatten(n)
	if len(operands) == 0 {
		return nil, c.unsupported(n)
	}
	out, err := c.expression(operands[0])
	if err != nil {
		return nil, err
	}
	for _, o := range operands[1:] {
		right, err := c.expression(o)
		if err != nil {
			return nil, err
		}
		out, err = jstree.Build(jstree.KindOperation, jstree.Comma, position.Span(out.Pos, right.Pos), out, right)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *converter) object(n *sitter.Node) (*jstree.Node, error) {
	var props []*jstree.Node
	for _, p := range named(n) {
		var key, value *jstree.Node
		switch p.Kind() {
		case "pair":
			k := p.ChildByFieldName("key")
			switch k.Kind() {
			case "property_identifier":
				key = jstree.NewString(c.pos(k), c.text(k))
			case "string":
				key = jstree.NewRawString(c.pos(k), c.text(k))
			case "number":
				f, err := parseNumber(c.text(k))
				if err != nil {
					return nil, &SyntaxError{Pos: c.pos(k), Err: ErrUnsupported, Detail: err.Error()}
				}
				key = jstree.NewString(c.pos(k), jstree.NumberToString(f))
			default:
				return nil, c.unsupported(k)
			}
			v, err := c.expression(p.ChildByFieldName("value"))
			if err != nil {
				return nil, err
			}
			value = v
		case "shorthand_property_identifier":
			key = jstree.NewString(c.pos(p), c.text(p))
			value = jstree.NewReference(c.pos(p), c.text(p))
		default:
			return nil, c.unsupported(p)
		}
		prop, err := c.build(jstree.KindValueProperty, nil, p, key, value)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
	}
	return c.build(jstree.KindObjectConstructor, nil, n, props...)
}

var errBigInt = errors.New("BigInt literals")

// parseNumber evaluates a numeric literal the way JavaScript does,
// including hex, octal, binary and legacy octal forms.
func parseNumber(text string) (float64, error) {
	text = strings.ReplaceAll(text, "_", "")
	if strings.HasSuffix(text, "n") {
		return 0, errBigInt
	}
	if len(text) > 1 && text[0] == '0' {
		base, digits := 0, ""
		switch text[1] {
		case 'x', 'X':
			base, digits = 16, text[2:]
		case 'o', 'O':
			base, digits = 8, text[2:]
		case 'b', 'B':
			base, digits = 2, text[2:]
		default:
			if strings.Trim(text, "01234567") == "" {
				base, digits = 8, text[1:]
			}
		}
		if base != 0 {
			i, ok := new(big.Int).SetString(digits, base)
			if !ok {
				return 0, strconv.ErrSyntax
			}
			f, _ := new(big.Float).SetInt(i).Float64()
			return f, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if errors.Is(err, strconv.ErrRange) {
		return f, nil
	}
	return f, err
}
