package quasi

import (
	"strings"

	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/position"
)

// node is one element of a compiled pattern. A node consumes a run of
// sibling specimens whose length lies within its arity.
type node interface {
	arity() (min, max int)
	bind(run []*js.Node, b Bindings) (Bindings, bool)
	subst(s *substitution) ([]*js.Node, error)
	holeNames(out map[string]bool)
}

// matchSeq aligns pats against specs. Variable length nodes try the longest
// run first and back off until the rest of the sequence matches, so a
// multi-hole may sit anywhere among fixed siblings.
func matchSeq(pats []node, specs []*js.Node, b Bindings) (Bindings, bool) {
	if len(pats) == 0 {
		return b, len(specs) == 0
	}
	restMin := 0
	for _, p := range pats[1:] {
		lo, _ := p.arity()
		restMin += lo
	}
	lo, hi := pats[0].arity()
	upper := len(specs) - restMin
	if hi >= 0 && hi < upper {
		upper = hi
	}
	for n := upper; n >= lo; n-- {
		nb, ok := pats[0].bind(specs[:n], b)
		if !ok {
			continue
		}
		if out, ok := matchSeq(pats[1:], specs[n:], nb); ok {
			return out, true
		}
	}
	return nil, false
}

// bindOnce records a binding, or checks a repeated hole against the node it
// bound earlier.
func bindOnce(b Bindings, name string, n *js.Node) (Bindings, bool) {
	if prev, ok := b[name]; ok {
		return b, js.NodesEqual(prev, n)
	}
	return b.with(name, n), true
}

func container(run []*js.Node) *js.Node {
	pos := position.Unknown
	if len(run) > 0 {
		pos = position.Span(run[0].Pos, run[len(run)-1].Pos)
	}
	return js.NewContainer(pos, append([]*js.Node(nil), run...)...)
}

type substitution struct {
	bindings Bindings
	used     map[*js.Node]bool
}

// use hands out a bound node, cloning it when it was already placed in the
// output so no node ends up with two parents.
func (s *substitution) use(n *js.Node) *js.Node {
	if s.used[n] {
		return n.Clone()
	}
	s.used[n] = true
	return n
}

func substAll(nodes []node, s *substitution) ([]*js.Node, error) {
	var out []*js.Node
	for _, n := range nodes {
		got, err := n.subst(s)
		if err != nil {
			return nil, err
		}
		out = append(out, got...)
	}
	return out, nil
}

// simpleNode matches a specimen of the same kind and value with matching
// children.
type simpleNode struct {
	kind     js.Kind
	value    any
	children []node
}

func (n *simpleNode) arity() (int, int) { return 1, 1 }

func (n *simpleNode) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	s := run[0]
	if s == nil || s.Kind != n.kind {
		return nil, false
	}
	if n.kind == js.KindStringLiteral {
		// Compare decoded values so that escapes do not matter.
		if want, _ := n.value.(string); js.Unquote(want) != s.StringValue() {
			return nil, false
		}
	} else if !js.ValuesEqual(n.value, s.Value) {
		return nil, false
	}
	return matchSeq(n.children, s.Children, b)
}

func (n *simpleNode) subst(s *substitution) ([]*js.Node, error) {
	children, err := substAll(n.children, s)
	if err != nil {
		return nil, err
	}
	out, err := js.Build(n.kind, n.value, position.Unknown, children...)
	if err != nil {
		return nil, bindingErr("%v", err)
	}
	return []*js.Node{out}, nil
}

func (n *simpleNode) holeNames(out map[string]bool) {
	for _, c := range n.children {
		c.holeNames(out)
	}
}

// holeClass is the capability a hole demands of the nodes it binds.
type holeClass int

const (
	classExpression holeClass = iota
	classStatement
	classIdentifier
	classFormalParam
	classPropertyKey
)

func (c holeClass) accepts(n *js.Node) bool {
	if n == nil {
		return false
	}
	switch c {
	case classExpression:
		return n.Kind.IsExpression()
	case classStatement:
		return n.Kind.IsStatement()
	case classIdentifier:
		return n.Kind == js.KindIdentifier
	case classFormalParam:
		return n.Kind == js.KindFormalParam
	case classPropertyKey:
		return n.Kind == js.KindStringLiteral
	}
	return false
}

// coerce adapts a bound node to the hole's position in the output tree.
func (c holeClass) coerce(n *js.Node) (*js.Node, error) {
	if c.accepts(n) {
		return n, nil
	}
	switch {
	case c == classStatement && n.Kind.IsExpression():
		return js.NewExpressionStmt(n), nil
	case c == classExpression && n.Kind == js.KindIdentifier:
		return js.MustBuild(js.KindReference, nil, n.Pos, n), nil
	case c == classFormalParam && n.Kind == js.KindIdentifier:
		return js.MustBuild(js.KindFormalParam, nil, n.Pos, n), nil
	case c == classIdentifier && n.Kind == js.KindReference:
		return n.Children[0], nil
	case c == classPropertyKey && (n.Kind == js.KindIdentifier || n.Kind == js.KindReference):
		return js.NewString(n.Pos, n.Name()), nil
	}
	return nil, bindingErr("cannot place %s where %s is expected", n.Kind, c)
}

func (c holeClass) String() string {
	return [...]string{"an expression", "a statement", "an identifier", "a formal parameter", "a property name"}[c]
}

// hole binds one node, an optional node or a run of nodes.
type hole struct {
	name  string
	card  cardinality
	class holeClass
}

func (h *hole) arity() (int, int) { return h.card.bounds() }

func (h *hole) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	for _, s := range run {
		if !h.class.accepts(s) {
			return nil, false
		}
	}
	var value *js.Node
	if h.card == single || h.card == optional && len(run) == 1 {
		value = run[0]
	} else {
		value = container(run)
	}
	return bindOnce(b, h.name, value)
}

func (h *hole) subst(s *substitution) ([]*js.Node, error) {
	bound := s.bindings[h.name]
	if bound == nil {
		if h.card == optional || h.card == multi {
			return nil, nil
		}
		return nil, bindingErr("no binding for @%s%s", h.name, h.card.suffix())
	}
	items := []*js.Node{bound}
	if bound.Kind == js.KindContainer {
		items = bound.Children
	}
	lo, hi := h.card.bounds()
	if len(items) < lo || hi >= 0 && len(items) > hi {
		return nil, bindingErr("@%s%s bound to %d nodes", h.name, h.card.suffix(), len(items))
	}
	out := make([]*js.Node, 0, len(items))
	for _, item := range items {
		n, err := h.class.coerce(s.use(item))
		if err != nil {
			return nil, bindingErr("@%s: %v", h.name, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (h *hole) holeNames(out map[string]bool) { out[h.name] = true }

// optionalIdentifier binds the name of a function that may be anonymous.
// Anonymous functions carry an empty Identifier, which binds as absent.
type optionalIdentifier struct {
	name string
}

func (o *optionalIdentifier) arity() (int, int) { return 1, 1 }

func (o *optionalIdentifier) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	s := run[0]
	if s == nil || s.Kind != js.KindIdentifier {
		return nil, false
	}
	if s.Name() == "" {
		return bindOnce(b, o.name, container(nil))
	}
	return bindOnce(b, o.name, s)
}

func (o *optionalIdentifier) subst(s *substitution) ([]*js.Node, error) {
	bound := s.bindings[o.name]
	if bound != nil && bound.Kind == js.KindContainer {
		switch len(bound.Children) {
		case 0:
			bound = nil
		case 1:
			bound = bound.Children[0]
		default:
			return nil, bindingErr("@%s? bound to %d nodes", o.name, len(bound.Children))
		}
	}
	if bound == nil {
		return []*js.Node{js.NewIdentifier(position.Unknown, "")}, nil
	}
	n, err := classIdentifier.coerce(s.use(bound))
	if err != nil {
		return nil, bindingErr("@%s?: %v", o.name, err)
	}
	return []*js.Node{n}, nil
}

func (o *optionalIdentifier) holeNames(out map[string]bool) { out[o.name] = true }

// trailingUnderscores matches identifiers ending in a fixed number of
// underscores and binds the part before them, so @x___ relates a name to
// its generated companion x___.
type trailingUnderscores struct {
	name  string
	count int
}

func (t *trailingUnderscores) arity() (int, int) { return 1, 1 }

func (t *trailingUnderscores) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	s := run[0]
	if s == nil || s.Kind != js.KindIdentifier {
		return nil, false
	}
	base, ok := strings.CutSuffix(s.Name(), strings.Repeat("_", t.count))
	if !ok || base == "" {
		return nil, false
	}
	return bindOnce(b, t.name, js.NewIdentifier(s.Pos, base))
}

func (t *trailingUnderscores) subst(s *substitution) ([]*js.Node, error) {
	bound := s.bindings[t.name]
	if bound == nil || bound.Kind != js.KindIdentifier && bound.Kind != js.KindReference {
		return nil, bindingErr("@%s%s needs an identifier", t.name, strings.Repeat("_", t.count))
	}
	return []*js.Node{js.NewIdentifier(bound.Pos, bound.Name()+strings.Repeat("_", t.count))}, nil
}

func (t *trailingUnderscores) holeNames(out map[string]bool) { out[t.name] = true }

// stringLiteralHole is written "@name" and binds a string literal.
type stringLiteralHole struct {
	name string
}

func (h *stringLiteralHole) arity() (int, int) { return 1, 1 }

func (h *stringLiteralHole) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	if run[0] == nil || run[0].Kind != js.KindStringLiteral {
		return nil, false
	}
	return bindOnce(b, h.name, run[0])
}

func (h *stringLiteralHole) subst(s *substitution) ([]*js.Node, error) {
	bound := s.bindings[h.name]
	switch {
	case bound == nil:
		return nil, bindingErr("no binding for \"@%s\"", h.name)
	case bound.Kind == js.KindStringLiteral:
		return []*js.Node{s.use(bound)}, nil
	case bound.Kind == js.KindIdentifier || bound.Kind == js.KindReference:
		return []*js.Node{js.NewString(bound.Pos, bound.Name())}, nil
	}
	return nil, bindingErr("\"@%s\" bound to %s", h.name, bound.Kind)
}

func (h *stringLiteralHole) holeNames(out map[string]bool) { out[h.name] = true }

// objectNode matches object literals regardless of property order. A
// multiProperty member, written "@keys*": @values*, takes every property
// the named members did not claim.
type objectNode struct {
	props []node
	rest  *multiProperty
}

func (o *objectNode) arity() (int, int) { return 1, 1 }

func (o *objectNode) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	s := run[0]
	if s == nil || s.Kind != js.KindObjectConstructor {
		return nil, false
	}
	var named []node
	for _, p := range o.props {
		if p != node(o.rest) {
			named = append(named, p)
		}
	}
	return o.bindProps(named, s.Children, b)
}

func (o *objectNode) bindProps(named []node, remaining []*js.Node, b Bindings) (Bindings, bool) {
	if len(named) == 0 {
		if o.rest == nil {
			return b, len(remaining) == 0
		}
		return o.rest.bindAll(remaining, b)
	}
	for i := range remaining {
		nb, ok := named[0].bind(remaining[i:i+1], b)
		if !ok {
			continue
		}
		rest := append(append([]*js.Node(nil), remaining[:i]...), remaining[i+1:]...)
		if out, ok := o.bindProps(named[1:], rest, nb); ok {
			return out, true
		}
	}
	return nil, false
}

func (o *objectNode) subst(s *substitution) ([]*js.Node, error) {
	props, err := substAll(o.props, s)
	if err != nil {
		return nil, err
	}
	out, err := js.Build(js.KindObjectConstructor, nil, position.Unknown, props...)
	if err != nil {
		return nil, bindingErr("%v", err)
	}
	return []*js.Node{out}, nil
}

func (o *objectNode) holeNames(out map[string]bool) {
	for _, p := range o.props {
		p.holeNames(out)
	}
}

type multiProperty struct {
	keys, values string
	nonEmpty     bool
}

func (m *multiProperty) arity() (int, int) { return 0, -1 }

func (m *multiProperty) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	return m.bindAll(run, b)
}

func (m *multiProperty) bindAll(props []*js.Node, b Bindings) (Bindings, bool) {
	if m.nonEmpty && len(props) == 0 {
		return nil, false
	}
	keys := make([]*js.Node, 0, len(props))
	values := make([]*js.Node, 0, len(props))
	for _, p := range props {
		if p == nil || p.Kind != js.KindValueProperty || len(p.Children) != 2 {
			return nil, false
		}
		keys = append(keys, p.Children[0])
		values = append(values, p.Children[1])
	}
	b, ok := bindOnce(b, m.keys, container(keys))
	if !ok {
		return nil, false
	}
	return bindOnce(b, m.values, container(values))
}

func (m *multiProperty) subst(s *substitution) ([]*js.Node, error) {
	keys, values := s.bindings[m.keys], s.bindings[m.values]
	if keys == nil && values == nil {
		return nil, nil
	}
	if keys == nil || values == nil || len(keys.Children) != len(values.Children) {
		return nil, bindingErr("@%s* and @%s* must bind runs of equal length", m.keys, m.values)
	}
	out := make([]*js.Node, 0, len(keys.Children))
	for i, k := range keys.Children {
		key, err := classPropertyKey.coerce(s.use(k))
		if err != nil {
			return nil, bindingErr("@%s*: %v", m.keys, err)
		}
		value, err := classExpression.coerce(s.use(values.Children[i]))
		if err != nil {
			return nil, bindingErr("@%s*: %v", m.values, err)
		}
		prop, err := js.Build(js.KindValueProperty, nil, position.Unknown, key, value)
		if err != nil {
			return nil, bindingErr("%v", err)
		}
		out = append(out, prop)
	}
	return out, nil
}

func (m *multiProperty) holeNames(out map[string]bool) {
	out[m.keys] = true
	out[m.values] = true
}

// directivePrologue matches a prologue that contains at least the
// pattern's directives.
type directivePrologue struct {
	directives []string
}

func (d *directivePrologue) arity() (int, int) { return 1, 1 }

func (d *directivePrologue) bind(run []*js.Node, b Bindings) (Bindings, bool) {
	s := run[0]
	if s == nil || s.Kind != js.KindDirectivePrologue {
		return nil, false
	}
	have := make(map[string]bool, len(s.Children))
	for _, c := range s.Children {
		if v, ok := c.Value.(string); ok {
			have[v] = true
		}
	}
	for _, want := range d.directives {
		if !have[want] {
			return nil, false
		}
	}
	return b, true
}

func (d *directivePrologue) subst(*substitution) ([]*js.Node, error) {
	children := make([]*js.Node, len(d.directives))
	for i, name := range d.directives {
		children[i] = js.MustBuild(js.KindDirective, name, position.Unknown)
	}
	return []*js.Node{js.MustBuild(js.KindDirectivePrologue, nil, position.Unknown, children...)}, nil
}

func (d *directivePrologue) holeNames(map[string]bool) {}
