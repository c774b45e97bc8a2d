package html

import (
	"strings"

	"golang.org/x/net/html"
)

// voidElements never have an end tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Render serializes nodes as HTML. Attribute values are always double
// quoted and text is escaped; script and style bodies are written as is.
func Render(nodes []*Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		render(&sb, n)
	}
	return sb.String()
}

func render(sb *strings.Builder, n *Node) {
	switch n.Type {
	case TextNode:
		sb.WriteString(html.EscapeString(n.Text))
	case CommentNode:
		// comments are not carried into output
	case DoctypeNode:
		sb.WriteString("<!DOCTYPE " + n.Text + ">")
	case ElementNode:
		sb.WriteString("<" + n.Name)
		for _, a := range n.Attrs {
			sb.WriteString(" " + a.Name)
			if a.HasValue {
				sb.WriteString(`="` + html.EscapeString(a.Value) + `"`)
			}
		}
		sb.WriteString(">")
		if voidElements[n.Name] {
			return
		}
		if n.RawText() {
			sb.WriteString(n.Text)
		} else {
			for _, c := range n.Children {
				render(sb, c)
			}
		}
		sb.WriteString("</" + n.Name + ">")
	}
}
