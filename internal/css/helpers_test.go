package css_test

import (
	"strings"

	"bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/position"
)

var p = position.Unknown

func build(k css.Kind, v any, children ...*css.Node) *css.Node {
	return css.MustBuild(k, v, p, children...)
}

func sheet(rules ...*css.Node) *css.Node { return build(css.KindStylesheet, nil, rules...) }

func rule(parts ...*css.Node) *css.Node { return build(css.KindRuleSet, nil, parts...) }

func group(decls ...*css.Node) *css.Node { return build(css.KindDeclarationGroup, nil, decls...) }

// sel builds a selector from simple selectors, joining them with descendant
// combinations.
func sel(simple ...*css.Node) *css.Node {
	var children []*css.Node
	for i, s := range simple {
		if i > 0 {
			children = append(children, build(css.KindCombination, css.Descendant))
		}
		children = append(children, s)
	}
	return build(css.KindSelector, nil, children...)
}

func ss(parts ...*css.Node) *css.Node { return build(css.KindSimpleSelector, nil, parts...) }

func el(name string) *css.Node      { return build(css.KindIdentLiteral, name) }
func class(name string) *css.Node   { return build(css.KindClassLiteral, "."+name) }
func id(name string) *css.Node      { return build(css.KindIDLiteral, "#"+name) }
func wildcard() *css.Node           { return build(css.KindWildcardElement, nil) }
func pseudo(name string) *css.Node  { return build(css.KindPseudo, ":", el(name)) }
func ident(word string) *css.Node   { return build(css.KindIdentLiteral, word) }
func qty(v string) *css.Node        { return build(css.KindQuantityLiteral, v) }
func hash(v string) *css.Node       { return build(css.KindHashLiteral, v) }
func uri(u string) *css.Node        { return build(css.KindURILiteral, u) }
func str(s string) *css.Node        { return build(css.KindStringLiteral, s) }
func comma() *css.Node              { return build(css.KindOperation, css.OpComma) }
func term(atom *css.Node) *css.Node { return build(css.KindTerm, "", atom) }

func fn(name string, args ...*css.Node) *css.Node {
	return build(css.KindFunctionCall, name, expr(args...))
}

func attrib(name, op string, value *css.Node) *css.Node {
	return build(css.KindAttrib, name, build(css.KindAttribOperation, op), value)
}

// expr builds an Expr from atoms. Operations given among the atoms are kept;
// adjacent atoms are separated by whitespace.
func expr(items ...*css.Node) *css.Node {
	var children []*css.Node
	for _, it := range items {
		if it.Kind == css.KindOperation {
			children = append(children, it)
			continue
		}
		if n := len(children); n > 0 && children[n-1].Kind == css.KindTerm {
			children = append(children, build(css.KindOperation, css.OpNone))
		}
		children = append(children, term(it))
	}
	return build(css.KindExpr, nil, children...)
}

func decl(prop string, items ...*css.Node) *css.Node {
	return build(css.KindPropertyDeclaration, nil, build(css.KindProperty, prop), expr(items...))
}

// words splits text into identifier atoms.
func words(text string) []*css.Node {
	var out []*css.Node
	for _, w := range strings.Fields(text) {
		out = append(out, ident(w))
	}
	return out
}

type virtualizer map[string]string

func (v virtualizer) IsElementVirtualized(name string) bool { _, ok := v[name]; return ok }

func (v virtualizer) VirtualToRealElementName(name string) string { return v[name] }
