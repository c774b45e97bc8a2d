package templates

import (
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/position"
)

// concatenator builds a string concatenation, merging adjacent literals.
type concatenator struct {
	parts []*js.Node
}

func (c *concatenator) appendString(pos position.FilePosition, s string) {
	c.append(js.NewString(pos, s))
}

func (c *concatenator) append(e *js.Node) {
	if n := len(c.parts); n > 0 && e.Kind == js.KindStringLiteral && c.parts[n-1].Kind == js.KindStringLiteral {
		last := c.parts[n-1]
		c.parts[n-1] = js.NewString(position.Span(last.Pos, e.Pos), last.StringValue()+e.StringValue())
		return
	}
	c.parts = append(c.parts, e)
}

// expr returns the concatenation. A leading "" is added when the first
// part is not a string so that + concatenates.
func (c *concatenator) expr(pos position.FilePosition) *js.Node {
	if len(c.parts) == 0 {
		return js.NewString(pos, "")
	}
	out := c.parts[0]
	if out.Kind != js.KindStringLiteral {
		out = js.NewOperation(pos, js.Addition, js.NewString(pos, ""), out)
	}
	for _, p := range c.parts[1:] {
		out = js.NewOperation(pos, js.Addition, out, p)
	}
	return out
}
