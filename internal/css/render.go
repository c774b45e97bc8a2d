package css

import (
	"fmt"
	"strings"

	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/quasi"
)

type chunkKind int

const (
	chunkText chunkKind = iota
	// chunkSuffix stands for the gadget's id class
	chunkSuffix
	// chunkUnsafeURI holds a URI the runtime must approve
	chunkUnsafeURI
)

type chunk struct {
	kind chunkKind
	text string
	prop string
}

type renderer struct {
	chunks []chunk
	prop   string
}

func (r *renderer) text(s string) {
	if n := len(r.chunks); n > 0 && r.chunks[n-1].kind == chunkText {
		r.chunks[n-1].text += s
		return
	}
	r.chunks = append(r.chunks, chunk{kind: chunkText, text: s})
}

// Render returns CSS text for n with suffix appended to suffixed ids and
// used as the gadget class. URIs left for the runtime are written as they
// are; use ToJS to have them checked.
func Render(n *Node, suffix string) string {
	r := &renderer{}
	r.node(n)
	var b strings.Builder
	for _, c := range r.chunks {
		switch c.kind {
		case chunkSuffix:
			b.WriteString(suffix)
		case chunkUnsafeURI:
			b.WriteString(quoteURL(c.text))
		default:
			b.WriteString(c.text)
		}
	}
	return b.String()
}

// ToJS returns JavaScript expressions that build the CSS text of n at
// runtime. idClass evaluates to the gadget's id class; unchecked URIs are
// passed through IMPORTS___.rewriteUriInCss___. An empty n yields no
// expressions.
func ToJS(n *Node, idClass *js.Node) []*js.Node {
	r := &renderer{}
	r.node(n)
	if len(r.chunks) == 0 {
		return nil
	}
	pos := n.Pos
	var expr *js.Node
	add := func(part *js.Node) {
		if expr == nil {
			expr = part
			return
		}
		expr = js.NewOperation(pos, js.Addition, expr, part)
	}
	for _, c := range r.chunks {
		switch c.kind {
		case chunkSuffix:
			add(idClass.Clone())
		case chunkUnsafeURI:
			add(js.NewString(pos, "url(\""))
			add(quasi.SubstV("IMPORTS___.rewriteUriInCss___(@url, @prop)",
				"url", js.NewString(pos, c.text),
				"prop", js.NewString(pos, c.prop)))
			add(js.NewString(pos, "\")"))
		default:
			add(js.NewString(pos, c.text))
		}
	}
	if expr.Kind != js.KindStringLiteral && r.chunks[0].kind != chunkText {
		// Make sure + concatenates rather than adds.
		expr = js.NewOperation(pos, js.Addition, js.NewString(pos, ""), expr)
	}
	return []*js.Node{expr}
}

func (r *renderer) node(n *Node) {
	switch n.Kind {
	case KindStylesheet:
		for _, c := range n.Children {
			r.node(c)
		}
	case KindMedia:
		r.text("@media " + n.StringValue() + " {\n")
		for _, c := range n.Children {
			r.node(c)
		}
		r.text("}\n")
	case KindAtRule:
		r.text("@" + n.StringValue() + ";\n")
	case KindRuleSet:
		sels := selectors(n)
		for i, s := range sels {
			if i > 0 {
				r.text(", ")
			}
			r.node(s)
		}
		r.text(" {\n")
		for _, d := range n.Children[len(sels):] {
			if d.Kind == KindEmptyDeclaration {
				continue
			}
			r.text("  ")
			r.node(d)
			r.text(";\n")
		}
		r.text("}\n")
	case KindDeclarationGroup:
		first := true
		for _, d := range n.Children {
			if d.Kind == KindEmptyDeclaration {
				continue
			}
			if !first {
				r.text("; ")
			}
			first = false
			r.node(d)
		}
	case KindSelector, KindSimpleSelector:
		for _, c := range n.Children {
			r.node(c)
		}
	case KindCombination:
		if c := n.Value.(Combinator); c == Descendant {
			r.text(" ")
		} else {
			r.text(" " + c.String() + " ")
		}
	case KindWildcardElement:
		r.text("*")
	case KindClassLiteral:
		r.text("." + escapeIdent(n.StringValue()[1:]))
	case KindIDLiteral:
		r.text("#" + escapeIdent(n.StringValue()[1:]))
	case KindAttrib:
		r.text("[" + escapeIdent(n.StringValue()))
		if len(n.Children) == 2 {
			r.text(n.Children[0].StringValue())
			r.node(n.Children[1])
		}
		r.text("]")
	case KindPseudo:
		r.text(n.StringValue())
		r.node(n.Children[0])
	case KindSuffixedSelectorPart:
		if len(n.Children) == 0 {
			r.text(".")
		} else {
			c := n.Children[0]
			r.text(c.StringValue()[:1] + escapeIdent(c.StringValue()[1:]) + "-")
		}
		r.chunks = append(r.chunks, chunk{kind: chunkSuffix})
	case KindPropertyDeclaration:
		r.prop = strings.ToLower(n.Children[0].StringValue())
		r.node(n.Children[0])
		r.text(": ")
		r.node(n.Children[1])
		if len(n.Children) == 3 {
			r.text(" ")
			r.node(n.Children[2])
		}
	case KindProperty:
		r.text(escapeIdent(n.StringValue()))
	case KindPrio:
		r.text(n.StringValue())
	case KindExpr:
		for _, c := range n.Children {
			r.node(c)
		}
	case KindOperation:
		switch n.Value.(Operator) {
		case OpComma:
			r.text(", ")
		case OpDiv:
			r.text(" / ")
		default:
			r.text(" ")
		}
	case KindTerm:
		r.text(n.StringValue())
		r.node(n.Children[0])
	case KindIdentLiteral:
		r.text(escapeIdent(n.StringValue()))
	case KindQuantityLiteral, KindHashLiteral, KindUnicodeRange, KindAttribOperation:
		r.text(n.StringValue())
	case KindStringLiteral:
		r.text(quoteString(n.StringValue()))
	case KindURILiteral, KindSafeURILiteral:
		r.text(quoteURL(n.StringValue()))
	case KindUnsafeURILiteral:
		r.chunks = append(r.chunks, chunk{kind: chunkUnsafeURI, text: n.StringValue(), prop: r.prop})
	case KindFunctionCall:
		r.text(escapeIdent(n.StringValue()) + "(")
		for _, c := range n.Children {
			r.node(c)
		}
		r.text(")")
	default:
		panic(fmt.Sprintf("css: cannot render %s", n.Kind))
	}
}

func quoteURL(u string) string {
	return "url(" + quoteString(u) + ")"
}

// quoteString writes s as a double quoted CSS string. Characters that could
// end a string, a style element or an HTML attribute are hex escaped.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '"' || r == '\'' || r == '\\' || r == '<' || r == '>' || r == '&' || r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func escapeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r >= 0x80 && r != 0xfffd:
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0, r == '-':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "\\%x ", r)
		}
	}
	return b.String()
}
