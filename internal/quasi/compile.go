package quasi

import (
	"errors"
	"maps"
	"slices"

	"bennypowers.dev/cajoler/internal/js"
	jsparser "bennypowers.dev/cajoler/internal/parser/js"
)

// Pattern is a compiled quasi pattern. Patterns are immutable and may be
// shared between goroutines.
type Pattern struct {
	text string
	kind js.Kind
	root node
}

// Compile parses pattern text into a Pattern without consulting any cache.
func Compile(text string) (*Pattern, error) {
	encoded, err := encodeHoles(text)
	if err != nil {
		return nil, withPattern(err, text)
	}
	program, err := jsparser.Parse(encoded, "quasi")
	if err != nil {
		// Anonymous function patterns only parse in expression position.
		var perr error
		if program, perr = jsparser.Parse("("+encoded+")", "quasi"); perr != nil {
			return nil, &PatternError{Pattern: text, Err: ErrMalformedPattern, Detail: err.Error()}
		}
	}
	top := program
	if len(top.Children) == 1 {
		top = top.Children[0]
	}
	switch top.Kind {
	case js.KindExpressionStmt:
		top = top.Children[0]
	case js.KindFunctionDeclaration:
		top = top.Children[1]
	}
	root, err := build(top)
	if err != nil {
		return nil, withPattern(err, text)
	}
	return &Pattern{text: text, kind: top.Kind, root: root}, nil
}

func withPattern(err error, text string) error {
	var pe *PatternError
	if errors.As(err, &pe) && pe.Pattern == "" {
		pe.Pattern = text
	}
	return err
}

// String returns the pattern text.
func (p *Pattern) String() string { return p.text }

// Kind returns the kind of node the pattern was written as, after top-level
// promotion. Use FuzzKind to learn which specimens it is meant for.
func (p *Pattern) Kind() js.Kind { return p.kind }

// Holes returns the names of the pattern's holes in sorted order.
func (p *Pattern) Holes() []string {
	names := map[string]bool{}
	p.root.holeNames(names)
	return slices.Sorted(maps.Keys(names))
}

// Match reports whether specimen has the pattern's shape and returns the
// bindings of its holes. Matching never modifies the specimen.
//
// A hole used more than once must bind structurally equal nodes each time.
// Each comparison walks both subtrees, so a pattern that repeats a hole
// costs O(|pattern| × |specimen|) in the worst case.
func (p *Pattern) Match(specimen *js.Node) (Bindings, bool) {
	if specimen == nil {
		return nil, false
	}
	return matchSeq([]node{p.root}, []*js.Node{specimen}, Bindings{})
}

// Subst builds a tree from the pattern, replacing each hole with its
// binding. Bindings the pattern does not mention are ignored. A pattern
// whose root is a multi-hole yields a Container.
func (p *Pattern) Subst(b Bindings) (*js.Node, error) {
	s := &substitution{bindings: b, used: map[*js.Node]bool{}}
	out, err := p.root.subst(s)
	if err != nil {
		return nil, withPattern(err, p.text)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return container(out), nil
}

// FuzzKind maps the kind of a pattern's top-level node to the kind of
// specimen it matches in context. A function declaration pattern, for
// instance, is compiled to its function expression. The table is closed.
func FuzzKind(k js.Kind) js.Kind {
	switch k {
	case js.KindFunctionDeclaration:
		return js.KindFunctionConstructor
	case js.KindReference:
		return js.KindIdentifier
	}
	return k
}

func build(n *js.Node) (node, error) {
	switch n.Kind {
	case js.KindExpressionStmt:
		if ref := n.Children[0]; ref.Kind == js.KindReference {
			if h, ok, err := decodeHole(ref.Name()); err != nil || ok && h.underscores == 0 {
				return &hole{name: h.name, card: h.card, class: classStatement}, err
			}
		}
	case js.KindReference:
		if h, ok, err := decodeHole(n.Name()); err != nil || ok && h.underscores == 0 {
			return &hole{name: h.name, card: h.card, class: classExpression}, err
		}
	case js.KindFormalParam:
		if h, ok, err := decodeHole(n.Name()); err != nil || ok && h.underscores == 0 {
			return &hole{name: h.name, card: h.card, class: classFormalParam}, err
		}
	case js.KindIdentifier:
		h, ok, err := decodeHole(n.Name())
		switch {
		case err != nil:
			return nil, err
		case !ok:
		case h.underscores > 0:
			return &trailingUnderscores{name: h.name, count: h.underscores}, nil
		case h.card == optional:
			return &optionalIdentifier{name: h.name}, nil
		default:
			return &hole{name: h.name, card: h.card, class: classIdentifier}, nil
		}
	case js.KindObjectConstructor:
		return buildObject(n)
	case js.KindDirectivePrologue:
		d := &directivePrologue{}
		for _, c := range n.Children {
			d.directives = append(d.directives, c.Value.(string))
		}
		return d, nil
	case js.KindStringLiteral:
		if name, card, ok := quasiIdent(n.StringValue()); ok {
			if card != single {
				return nil, malformed("string hole \"@%s%s\" is only allowed as a property name", name, card.suffix())
			}
			return &stringLiteralHole{name: name}, nil
		}
	}
	return buildSimple(n)
}

func buildSimple(n *js.Node) (node, error) {
	out := &simpleNode{kind: n.Kind, value: n.Value}
	for _, c := range n.Children {
		child, err := build(c)
		if err != nil {
			return nil, err
		}
		out.children = append(out.children, child)
	}
	return out, nil
}

// propertyHole reads the hole, if any, named by an object property key. A
// key is either an encoded bare name, {@k: v}, or a quoted one, {"@k": v}.
func propertyHole(key *js.Node) (holeSpec, bool, error) {
	name := key.StringValue()
	if h, ok, err := decodeHole(name); ok || err != nil {
		if err == nil && h.underscores > 0 {
			err = malformed("property name hole @%s cannot take trailing underscores", h.name)
		}
		return h, ok, err
	}
	if base, card, ok := quasiIdent(name); ok {
		return holeSpec{name: base, card: card}, true, nil
	}
	return holeSpec{}, false, nil
}

func buildObject(n *js.Node) (node, error) {
	out := &objectNode{}
	for _, prop := range n.Children {
		key, value := prop.Children[0], prop.Children[1]
		kh, isHole, err := propertyHole(key)
		if err != nil {
			return nil, err
		}
		if isHole && (kh.card == multi || kh.card == nonEmptyMulti) {
			var vh holeSpec
			ok := false
			if value.Kind == js.KindReference {
				vh, ok, err = decodeHole(value.Name())
				if err != nil {
					return nil, err
				}
			}
			if !ok || vh.card != kh.card {
				return nil, malformed("property group @%s%s needs a value hole with the same suffix", kh.name, kh.card.suffix())
			}
			if out.rest != nil {
				return nil, malformed("object pattern has more than one property group")
			}
			out.rest = &multiProperty{keys: kh.name, values: vh.name, nonEmpty: kh.card == nonEmptyMulti}
			out.props = append(out.props, out.rest)
			continue
		}
		var keyNode node
		switch {
		case !isHole:
			keyNode = &simpleNode{kind: js.KindStringLiteral, value: key.Value}
		case kh.card == single:
			keyNode = &hole{name: kh.name, card: single, class: classPropertyKey}
		default:
			return nil, malformed("property name hole @%s%s must bind exactly one name", kh.name, kh.card.suffix())
		}
		valueNode, err := build(value)
		if err != nil {
			return nil, err
		}
		out.props = append(out.props, &simpleNode{
			kind:     js.KindValueProperty,
			children: []node{keyNode, valueNode},
		})
	}
	return out, nil
}
