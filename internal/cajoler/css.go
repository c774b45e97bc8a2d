package cajoler

import (
	"bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/templates"
)

// CajoleCSS rewrites a stylesheet so that it only applies inside the
// gadget. Output holds the stylesheet when the id class is configured;
// Module always holds the code that installs it.
func (c *Cajoler) CajoleCSS(src, name string) *Result {
	q := message.NewQueue()
	meta := c.newMeta()
	res := &Result{Source: name, Module: js.NewBlock(position.Origin(name))}

	content := &templates.EmbeddedContent{Text: src, Pos: position.Origin(name), Type: templates.ContentStyle}
	sheet := content.ParseCSS(q)
	if sheet == nil {
		return c.finish(res, q)
	}
	c.sanitizeCSS(sheet, meta, q)
	if c.cfg.IDClass != "" {
		res.Output = css.Render(sheet, c.cfg.IDClass)
	}
	res.Module.Children = append(res.Module.Children, c.emitCSS(sheet, meta)...)
	return c.finish(res, q)
}

func (c *Cajoler) cssOptions(meta *templates.PluginMeta) []css.Option {
	opts := []css.Option{
		css.WithSchema(c.css),
		css.WithInvalidNodeLevel(c.cfg.InvalidNodeLevel()),
		css.WithVirtualizer(c.html),
		css.WithBaseURI(meta.BaseURI()),
	}
	if p := meta.URIPolicy(); p != nil {
		opts = append(opts, css.WithURIPolicy(p))
	}
	return opts
}

func (c *Cajoler) sanitizeCSS(sheet *css.Node, meta *templates.PluginMeta, q *message.Queue) {
	opts := c.cssOptions(meta)
	css.NewValidator(q, opts...).Validate(sheet)
	css.NewRewriter(q, opts...).Rewrite(sheet)
}

// emitCSS returns statements that add the stylesheet to the gadget.
func (c *Cajoler) emitCSS(sheet *css.Node, meta *templates.PluginMeta) []*js.Node {
	var stmts []*js.Node
	for _, text := range css.ToJS(sheet, meta.IDClassExpr(c.quasi, sheet.Pos)) {
		call := c.quasi.SubstV("IMPORTS___.emitCss___(@css)", "css", js.FoldTree(text))
		call.Pos = sheet.Pos
		stmts = append(stmts, js.NewExpressionStmt(call))
	}
	return stmts
}
