package css

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"

	csstree "bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/parser/common"
	"bennypowers.dev/cajoler/internal/position"
)

type converter struct {
	src  []byte
	name string
	// bytes of synthesized text before the caller's source
	shift int
}

func (c *converter) pos(n *sitter.Node) position.FilePosition {
	return c.adjust(common.Pos(c.name, n))
}

func (c *converter) text(n *sitter.Node) string {
	return n.Utf8Text(c.src)
}

func (c *converter) unsupported(n *sitter.Node) error {
	return &SyntaxError{Pos: c.pos(n), Err: ErrUnsupported, Detail: n.Kind()}
}

func (c *converter) build(kind csstree.Kind, value any, n *sitter.Node, children ...*csstree.Node) (*csstree.Node, error) {
	node, err := csstree.Build(kind, value, c.pos(n), children...)
	if err != nil {
		return nil, &SyntaxError{Pos: c.pos(n), Err: ErrSyntax, Detail: err.Error()}
	}
	return node, nil
}

func (c *converter) stylesheet(root *sitter.Node) (*csstree.Node, error) {
	var rules []*csstree.Node
	for _, item := range common.Named(root) {
		var rule *csstree.Node
		var err error
		switch item.Kind() {
		case "rule_set":
			rule, err = c.ruleSet(item)
		case "media_statement":
			rule, err = c.media(item)
		case "import_statement", "charset_statement", "namespace_statement",
			"keyframes_statement", "supports_statement", "at_rule":
			rule, err = c.build(csstree.KindAtRule, c.prelude(item), item)
		default:
			err = c.unsupported(item)
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return c.build(csstree.KindStylesheet, nil, root, rules...)
}

// declarationGroup unwraps the single rule that style attribute text was
// parsed inside.
func (c *converter) declarationGroup(root *sitter.Node) (*csstree.Node, error) {
	items := common.Named(root)
	if len(items) != 1 || items[0].Kind() != "rule_set" {
		return nil, &SyntaxError{Pos: c.pos(root), Err: ErrSyntax, Detail: "unbalanced braces"}
	}
	block := blockOf(items[0])
	if block == nil {
		return nil, &SyntaxError{Pos: c.pos(root), Err: ErrSyntax, Detail: "missing block"}
	}
	decls, err := c.declarations(block)
	if err != nil {
		return nil, err
	}
	return c.build(csstree.KindDeclarationGroup, nil, block, decls...)
}

// prelude is the text of an at-rule without its "@", block and semicolon.
func (c *converter) prelude(n *sitter.Node) string {
	text := c.text(n)
	if i := strings.IndexByte(text, '{'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), ";")
	return strings.Join(strings.Fields(strings.TrimPrefix(text, "@")), " ")
}

func blockOf(n *sitter.Node) *sitter.Node {
	for _, child := range common.Named(n) {
		if child.Kind() == "block" {
			return child
		}
	}
	return nil
}

func (c *converter) media(n *sitter.Node) (*csstree.Node, error) {
	query := strings.TrimPrefix(strings.TrimSpace(c.prelude(n)), "media")
	block := blockOf(n)
	if block == nil {
		return nil, c.unsupported(n)
	}
	var rules []*csstree.Node
	for _, item := range common.Named(block) {
		if item.Kind() != "rule_set" {
			return nil, c.unsupported(item)
		}
		rule, err := c.ruleSet(item)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return c.build(csstree.KindMedia, strings.TrimSpace(query), n, rules...)
}

func (c *converter) ruleSet(n *sitter.Node) (*csstree.Node, error) {
	var children []*csstree.Node
	for _, child := range common.Named(n) {
		switch child.Kind() {
		case "selectors":
			for _, s := range common.Named(child) {
				sel, err := c.selector(s)
				if err != nil {
					return nil, err
				}
				children = append(children, sel)
			}
		case "block":
			decls, err := c.declarations(child)
			if err != nil {
				return nil, err
			}
			children = append(children, decls...)
		default:
			return nil, c.unsupported(child)
		}
	}
	return c.build(csstree.KindRuleSet, nil, n, children...)
}

func (c *converter) declarations(block *sitter.Node) ([]*csstree.Node, error) {
	var decls []*csstree.Node
	for _, item := range common.Named(block) {
		if item.Kind() != "declaration" {
			return nil, c.unsupported(item)
		}
		decl, err := c.declaration(item)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func (c *converter) declaration(n *sitter.Node) (*csstree.Node, error) {
	var prop, prio *csstree.Node
	var values []*sitter.Node
	var err error
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		switch {
		case child.Kind() == "property_name":
			if prop, err = c.build(csstree.KindProperty, c.text(child), child); err != nil {
				return nil, err
			}
		case child.Kind() == "important":
			if prio, err = c.build(csstree.KindPrio, "!important", child); err != nil {
				return nil, err
			}
		case child.Kind() == "comment", child.Kind() == ":", child.Kind() == ";":
		default:
			values = append(values, child)
		}
	}
	if prop == nil || len(values) == 0 {
		return nil, &SyntaxError{Pos: c.pos(n), Err: ErrSyntax, Detail: "incomplete declaration"}
	}
	expr, err := c.expr(n, values)
	if err != nil {
		return nil, err
	}
	children := []*csstree.Node{prop, expr}
	if prio != nil {
		children = append(children, prio)
	}
	return c.build(csstree.KindPropertyDeclaration, nil, n, children...)
}

// expr converts a run of value nodes and "," tokens to an Expr. Adjacent
// values are joined by space operations.
func (c *converter) expr(at *sitter.Node, values []*sitter.Node) (*csstree.Node, error) {
	var children []*csstree.Node
	pending := csstree.OpNone
	var pendingAt *sitter.Node
	var add func(v *sitter.Node) error
	add = func(v *sitter.Node) error {
		if v.Kind() == "binary_expression" {
			kids := common.Named(v)
			if len(kids) != 2 || !strings.Contains(string(c.src[kids[0].EndByte():kids[1].StartByte()]), "/") {
				return c.unsupported(v)
			}
			if err := add(kids[0]); err != nil {
				return err
			}
			pending, pendingAt = csstree.OpDiv, v
			return add(kids[1])
		}
		term, err := c.term(v)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			opAt := pendingAt
			if opAt == nil {
				opAt = v
			}
			op, err := c.build(csstree.KindOperation, pending, opAt)
			if err != nil {
				return err
			}
			children = append(children, op)
		}
		children = append(children, term)
		pending, pendingAt = csstree.OpNone, nil
		return nil
	}
	for _, v := range values {
		switch v.Kind() {
		case ",":
			if len(children) == 0 {
				return nil, &SyntaxError{Pos: c.pos(v), Err: ErrSyntax, Detail: "leading comma"}
			}
			pending, pendingAt = csstree.OpComma, v
		case "comment":
		default:
			if !v.IsNamed() {
				return nil, c.unsupported(v)
			}
			if err := add(v); err != nil {
				return nil, err
			}
		}
	}
	if pending != csstree.OpNone {
		return nil, &SyntaxError{Pos: c.pos(pendingAt), Err: ErrSyntax, Detail: "trailing " + pending.String()}
	}
	return c.build(csstree.KindExpr, nil, at, children...)
}

func (c *converter) term(v *sitter.Node) (*csstree.Node, error) {
	text := c.text(v)
	sign := ""
	var atom *csstree.Node
	var err error
	switch v.Kind() {
	case "integer_value", "float_value":
		if text != "" && (text[0] == '-' || text[0] == '+') {
			sign, text = text[:1], text[1:]
		}
		atom, err = c.build(csstree.KindQuantityLiteral, text, v)
	case "color_value":
		atom, err = c.build(csstree.KindHashLiteral, text, v)
	case "string_value":
		atom, err = c.build(csstree.KindStringLiteral, unquote(text), v)
	case "plain_value":
		atom, err = c.plainValue(v, text)
	case "call_expression":
		atom, err = c.call(v)
	default:
		return nil, c.unsupported(v)
	}
	if err != nil {
		return nil, err
	}
	return c.build(csstree.KindTerm, sign, v, atom)
}

func (c *converter) plainValue(v *sitter.Node, text string) (*csstree.Node, error) {
	switch {
	case len(text) > 2 && (text[0] == 'U' || text[0] == 'u') && text[1] == '+':
		return c.build(csstree.KindUnicodeRange, text, v)
	case text[0] >= '0' && text[0] <= '9' || text[0] == '.':
		if _, _, ok := csstree.SplitQuantity(text); ok {
			return c.build(csstree.KindQuantityLiteral, text, v)
		}
	}
	return c.build(csstree.KindIdentLiteral, unescape(text), v)
}

func (c *converter) call(v *sitter.Node) (*csstree.Node, error) {
	var name string
	var args *sitter.Node
	for _, child := range common.Named(v) {
		switch child.Kind() {
		case "function_name":
			name = c.text(child)
		case "arguments":
			args = child
		}
	}
	if args == nil {
		return nil, c.unsupported(v)
	}
	if strings.EqualFold(name, "url") {
		raw := strings.TrimSpace(c.text(args))
		raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")"))
		if len(raw) > 1 && (raw[0] == '"' || raw[0] == '\'') {
			raw = unquote(raw)
		} else {
			raw = unescape(raw)
		}
		return c.build(csstree.KindURILiteral, raw, v)
	}
	var values []*sitter.Node
	for i := uint(0); i < args.ChildCount(); i++ {
		child := args.Child(i)
		if k := child.Kind(); k == "(" || k == ")" {
			continue
		}
		values = append(values, child)
	}
	if len(values) == 0 {
		return c.build(csstree.KindFunctionCall, name, v)
	}
	expr, err := c.expr(args, values)
	if err != nil {
		return nil, err
	}
	return c.build(csstree.KindFunctionCall, name, v, expr)
}

// selectorBuilder collects the simple selectors and combinations of one
// complex selector.
type selectorBuilder struct {
	c        *converter
	children []*csstree.Node
	parts    []*csstree.Node
	start    *sitter.Node
}

func (b *selectorBuilder) part(n *sitter.Node, kind csstree.Kind, value any, children ...*csstree.Node) error {
	part, err := b.c.build(kind, value, n, children...)
	if err != nil {
		return err
	}
	if b.start == nil {
		b.start = n
	}
	b.parts = append(b.parts, part)
	return nil
}

func (b *selectorBuilder) flush() error {
	if len(b.parts) == 0 {
		return nil
	}
	ss, err := b.c.build(csstree.KindSimpleSelector, nil, b.start, b.parts...)
	if err != nil {
		return err
	}
	b.children = append(b.children, ss)
	b.parts, b.start = nil, nil
	return nil
}

var combinators = map[string]csstree.Combinator{
	"descendant_selector":       csstree.Descendant,
	"child_selector":            csstree.Child,
	"adjacent_sibling_selector": csstree.AdjacentSibling,
	"sibling_selector":          csstree.GeneralSibling,
}

func (c *converter) selector(n *sitter.Node) (*csstree.Node, error) {
	b := &selectorBuilder{c: c}
	if err := c.flatten(n, b); err != nil {
		return nil, err
	}
	if err := b.flush(); err != nil {
		return nil, err
	}
	return c.build(csstree.KindSelector, nil, n, b.children...)
}

// flatten appends the parts of a tree-sitter selector, which nests compound
// selectors left to right, to b.
func (c *converter) flatten(n *sitter.Node, b *selectorBuilder) error {
	kind := n.Kind()
	if comb, ok := combinators[kind]; ok {
		kids := common.Named(n)
		if len(kids) != 2 {
			return c.unsupported(n)
		}
		if err := c.flatten(kids[0], b); err != nil {
			return err
		}
		if err := b.flush(); err != nil {
			return err
		}
		op, err := c.build(csstree.KindCombination, comb, n)
		if err != nil {
			return err
		}
		b.children = append(b.children, op)
		return c.flatten(kids[1], b)
	}

	// A compound selector starts with the selector it refines.
	kids := common.Named(n)
	if n.ChildCount() > 0 && n.Child(0).IsNamed() && len(kids) > 0 {
		if err := c.flatten(kids[0], b); err != nil {
			return err
		}
		kids = kids[1:]
	}
	switch kind {
	case "tag_name":
		return b.part(n, csstree.KindIdentLiteral, c.text(n))
	case "universal_selector":
		return b.part(n, csstree.KindWildcardElement, nil)
	case "class_selector", "id_selector":
		if len(kids) != 1 {
			return c.unsupported(n)
		}
		if kind == "class_selector" {
			return b.part(n, csstree.KindClassLiteral, "."+unescape(c.text(kids[0])))
		}
		return b.part(n, csstree.KindIDLiteral, "#"+unescape(c.text(kids[0])))
	case "pseudo_class_selector", "pseudo_element_selector":
		return c.pseudo(n, kids, b)
	case "attribute_selector":
		return c.attrib(n, kids, b)
	}
	return c.unsupported(n)
}

func (c *converter) pseudo(n *sitter.Node, kids []*sitter.Node, b *selectorBuilder) error {
	colons := ":"
	if n.Kind() == "pseudo_element_selector" {
		colons = "::"
	}
	if len(kids) == 0 {
		return c.unsupported(n)
	}
	name := c.text(kids[0])
	if len(kids) == 1 {
		ident, err := c.build(csstree.KindIdentLiteral, name, kids[0])
		if err != nil {
			return err
		}
		return b.part(n, csstree.KindPseudo, colons, ident)
	}
	// Functional pseudo-classes keep their argument text for reporting.
	args := strings.TrimSpace(c.text(kids[1]))
	args = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(args, "("), ")"))
	arg, err := c.build(csstree.KindStringLiteral, args, kids[1])
	if err != nil {
		return err
	}
	t, err := c.build(csstree.KindTerm, "", kids[1], arg)
	if err != nil {
		return err
	}
	e, err := c.build(csstree.KindExpr, nil, kids[1], t)
	if err != nil {
		return err
	}
	call, err := c.build(csstree.KindFunctionCall, name, kids[0], e)
	if err != nil {
		return err
	}
	return b.part(n, csstree.KindPseudo, colons, call)
}

func (c *converter) attrib(n *sitter.Node, kids []*sitter.Node, b *selectorBuilder) error {
	if len(kids) == 0 || kids[0].Kind() != "attribute_name" {
		return c.unsupported(n)
	}
	name := c.text(kids[0])
	if len(kids) == 1 {
		return b.part(n, csstree.KindAttrib, name)
	}
	opText := strings.TrimSpace(string(c.src[kids[0].EndByte():kids[1].StartByte()]))
	op, err := c.build(csstree.KindAttribOperation, opText, kids[0])
	if err != nil {
		return err
	}
	var value *csstree.Node
	if kids[1].Kind() == "string_value" {
		value, err = c.build(csstree.KindStringLiteral, unquote(c.text(kids[1])), kids[1])
	} else {
		value, err = c.build(csstree.KindIdentLiteral, unescape(c.text(kids[1])), kids[1])
	}
	if err != nil {
		return err
	}
	return b.part(n, csstree.KindAttrib, name, op, value)
}

// unquote strips the quotes of a CSS string and decodes its escapes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return unescape(s)
}

// unescape decodes CSS backslash escapes: up to six hex digits and an
// optional trailing space, an escaped newline, or an escaped character.
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		j := i
		for j < len(s) && j-i < 6 && isHex(s[j]) {
			j++
		}
		if j > i {
			r, _ := strconv.ParseUint(s[i:j], 16, 32)
			if r == 0 || r > utf8.MaxRune {
				r = utf8.RuneError
			}
			sb.WriteRune(rune(r))
			if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
				j++
			}
			i = j - 1
			continue
		}
		if s[i] != '\n' {
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func isHex(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}
