package cajoler

import (
	"bennypowers.dev/cajoler/internal/collections"
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/message"
	htmlparser "bennypowers.dev/cajoler/internal/parser/html"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/schema"
	"bennypowers.dev/cajoler/internal/templates"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// removedElements are dropped along with their content. Other elements
// missing from the schema are unwrapped.
var removedElements = collections.NewSet(
	"applet", "embed", "frame", "frameset", "iframe", "link", "meta",
	"noembed", "noframes", "noscript", "object", "param", "plaintext", "xmp",
)

// CajoleHTML sanitizes markup. Output is the static markup; attribute
// values that depend on the container, stylesheets and scripts are moved
// to Module.
func (c *Cajoler) CajoleHTML(src, name string) *Result {
	q := message.NewQueue()
	res := &Result{Source: name}
	doc, err := htmlparser.Parse(src, name)
	if err != nil {
		reportSyntax(q, "markup", name, err)
		return c.finish(res, q)
	}

	meta := c.newMeta()
	r := &htmlRewriter{
		c:    c,
		q:    q,
		meta: meta,
		attrs: templates.NewAttributeRewriter(meta, q,
			templates.WithCSSSchema(c.css),
			templates.WithHTMLSchema(c.html),
			templates.WithQuasiBuilder(c.quasi)),
	}
	r.resolveBase(doc.Children)
	nodes := r.nodes(doc.Children)

	var stmts []*js.Node
	for _, h := range r.attrs.Handlers() {
		stmts = append(stmts, h.Decl)
	}
	res.Module = js.NewBlock(position.Origin(name), append(stmts, r.stmts...)...)
	res.Output = htmlparser.Render(nodes)
	return c.finish(res, q)
}

type htmlRewriter struct {
	c     *Cajoler
	q     *message.Queue
	meta  *templates.PluginMeta
	attrs *templates.AttributeRewriter
	stmts []*js.Node
}

// resolveBase applies the first <base> with an absolute href.
func (r *htmlRewriter) resolveBase(nodes []*htmlparser.Node) {
	found := false
	htmlparser.Walk(nodes, nil, func(n, _ *htmlparser.Node) bool {
		if found || n.Type != htmlparser.ElementNode || n.Name != "base" {
			return !found
		}
		href, ok := n.Attr("href")
		if !ok {
			return false
		}
		base, err := uripolicy.ParseBase(href.Value)
		if err != nil || base == nil || base.Opaque != "" {
			r.q.Add(message.IgnoredBaseElement, href.ValuePos, href.Value)
			return false
		}
		r.meta.SetBaseURI(base)
		found = true
		return false
	})
}

func (r *htmlRewriter) nodes(in []*htmlparser.Node) []*htmlparser.Node {
	var out []*htmlparser.Node
	for _, n := range in {
		switch n.Type {
		case htmlparser.CommentNode:
		case htmlparser.ElementNode:
			out = append(out, r.element(n)...)
		default:
			out = append(out, n)
		}
	}
	return out
}

// element returns what replaces n in the output.
func (r *htmlRewriter) element(n *htmlparser.Node) []*htmlparser.Node {
	switch n.Name {
	case "script":
		r.script(n)
		return nil
	case "style":
		r.style(n)
		return nil
	case "base":
		return nil
	}
	if !r.c.html.IsElementAllowed(n.Name) {
		if removedElements.Has(n.Name) {
			r.q.Add(message.RemovingElement, n.Pos, n.Name)
			return nil
		}
		r.q.Add(message.UnknownElement, n.Pos, n.Name)
		return r.nodes(n.Children)
	}
	name := n.Name
	n.Name = r.c.html.VirtualToRealElementName(name)
	r.attributes(n, name)
	n.Children = r.nodes(n.Children)
	return []*htmlparser.Node{n}
}

type dynamicAttr struct {
	name  string
	value *js.Node
}

func (r *htmlRewriter) attributes(n *htmlparser.Node, element string) {
	var dynamic []dynamicAttr
	seen := collections.NewSet[string]()
	kept := make([]*htmlparser.Attribute, 0, len(n.Attrs))
	for _, a := range n.Attrs {
		if !seen.Add(a.Name) {
			// The first of repeated attributes wins, as in browsers
			continue
		}
		info, ok := r.c.html.LookupAttribute(element, a.Name)
		if !ok {
			if r.c.html.IsAttributeAllowed(element, a.Name) {
				kept = append(kept, a)
			} else {
				r.q.Add(message.UnknownAttribute, a.Pos, a.Name, element)
			}
			continue
		}
		pos := a.ValuePos
		if pos.IsUnknown() {
			pos = a.Pos
		}
		res := r.attrs.Sanitize(templates.AttrValue{Element: element, Info: info, Value: a.Value, Pos: pos})
		switch {
		case !res.Safe:
		case res.Result == nil:
			kept = append(kept, a)
		case res.Result.Kind == js.KindStringLiteral:
			a.Value, a.HasValue = res.Result.StringValue(), true
			kept = append(kept, a)
		default:
			dynamic = append(dynamic, dynamicAttr{a.Name, res.Result})
		}
	}
	// Frame targets the markup leaves out still need the container's say.
	if el, ok := r.c.html.LookupElement(element); ok {
		for _, info := range el.Attributes {
			if info.Type != schema.TypeFrameTarget || !info.HasDefault || seen.Has(info.Name) {
				continue
			}
			res := r.attrs.Sanitize(templates.AttrValue{
				Element: element, Info: info, Value: info.Default, Pos: n.Pos, Unspecified: true,
			})
			if res.Safe && res.Result != nil {
				dynamic = append(dynamic, dynamicAttr{info.Name, res.Result})
			}
		}
	}
	n.Attrs = kept
	if len(dynamic) > 0 {
		r.dynamicAttributes(n, dynamic)
	}
}

// dynamicAttributes tags n with a placeholder id and emits the statements
// that set its computed attributes.
func (r *htmlRewriter) dynamicAttributes(n *htmlparser.Node, dynamic []dynamicAttr) {
	placeholder := r.meta.GenerateUniqueName("id")
	el := js.NewString(n.Pos, placeholder)
	hasID := false
	for _, d := range dynamic {
		hasID = hasID || d.name == "id"
	}
	if static, ok := n.Attr("id"); ok && !hasID {
		dynamic = append(dynamic, dynamicAttr{"id", js.NewString(static.ValuePos, static.Value)})
		hasID = true
	}
	n.RemoveAttr("id")
	n.Attrs = append(n.Attrs, &htmlparser.Attribute{Name: "id", Value: placeholder, HasValue: true})

	for _, d := range dynamic {
		r.emit(r.c.quasi.SubstV("IMPORTS___.htmlEmitter___.setAttr(@el, @name, @value)",
			"el", el.Clone(),
			"name", js.NewString(position.Unknown, d.name),
			"value", d.value))
	}
	if !hasID {
		r.emit(r.c.quasi.SubstV("IMPORTS___.htmlEmitter___.rmAttr(@el, 'id')", "el", el.Clone()))
	}
}

func (r *htmlRewriter) emit(e *js.Node) {
	r.stmts = append(r.stmts, js.NewExpressionStmt(e))
}

// script moves an inline script into the module, guarded so that one
// failing script does not stop the others.
func (r *htmlRewriter) script(n *htmlparser.Node) {
	if src, ok := n.Attr("src"); ok {
		r.q.Add(message.ExternalScript, src.ValuePos, src.Value)
		return
	}
	pos := n.TextPos
	if pos.IsUnknown() {
		pos = n.Pos
	}
	content := &templates.EmbeddedContent{Text: n.Text, Pos: pos, Type: templates.ContentScript}
	block := content.ParseJS(r.q)
	if block == nil || len(block.Children) == 0 {
		return
	}
	block = js.FoldTree(block)
	guarded := r.c.quasi.SubstV(
		"try { @body*; } catch (ex___) {"+
			"  ___.getNewModuleHandler().handleUncaughtException("+
			"      ex___, IMPORTS___.onerror, @source, @line);"+
			"}",
		"body", js.NewContainer(block.Pos, block.Children...),
		"source", js.NewString(pos, pos.Source),
		"line", js.NewNumber(pos, float64(pos.Start.Line)))
	guarded.Pos = pos
	r.stmts = append(r.stmts, guarded)
}

func (r *htmlRewriter) style(n *htmlparser.Node) {
	pos := n.TextPos
	if pos.IsUnknown() {
		pos = n.Pos
	}
	content := &templates.EmbeddedContent{Text: n.Text, Pos: pos, Type: templates.ContentStyle}
	sheet := content.ParseCSS(r.q)
	if sheet == nil {
		return
	}
	r.c.sanitizeCSS(sheet, r.meta, r.q)
	r.stmts = append(r.stmts, r.c.emitCSS(sheet, r.meta)...)
}
