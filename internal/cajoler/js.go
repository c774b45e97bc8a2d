package cajoler

import (
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/templates"
)

// CajoleJS parses a script and folds its constant expressions.
func (c *Cajoler) CajoleJS(src, name string) *Result {
	q := message.NewQueue()
	res := &Result{Source: name}
	content := &templates.EmbeddedContent{Text: src, Pos: position.Origin(name), Type: templates.ContentScript}
	if block := content.ParseJS(q); block != nil {
		res.Module = js.FoldTree(block)
		res.Output = js.RenderProgram(res.Module)
	}
	return c.finish(res, q)
}
