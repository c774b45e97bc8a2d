package templates

import (
	"errors"
	"net/url"
	"strings"

	"bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/message"
	cssparser "bennypowers.dev/cajoler/internal/parser/css"
	jsparser "bennypowers.dev/cajoler/internal/parser/js"
	"bennypowers.dev/cajoler/internal/position"
)

// ContentType is the language of embedded content.
type ContentType int

const (
	ContentScript ContentType = iota + 1
	ContentStyle
)

func (t ContentType) String() string {
	if t == ContentStyle {
		return "style"
	}
	return "script"
}

// EmbeddedContent is script or style text found inside markup, either as
// an element body or as an attribute value.
type EmbeddedContent struct {
	Text string
	// Pos is where Text starts in the document.
	Pos       position.FilePosition
	Type      ContentType
	Attribute bool
}

// ParseJS parses script content into a Block. Parse failures are reported
// to q and yield nil.
func (c *EmbeddedContent) ParseJS(q *message.Queue) *js.Node {
	if c.Type != ContentScript {
		return nil
	}
	block, err := jsparser.Parse(c.Text, c.Pos.Source)
	if err != nil {
		c.report(q, err)
		return nil
	}
	var shift func(n *js.Node)
	shift = func(n *js.Node) {
		n.Pos = position.Shift(n.Pos, c.Pos)
		for _, child := range n.Children {
			shift(child)
		}
	}
	shift(block)
	return block
}

// ParseCSS parses style content: a declaration group for attributes, a
// stylesheet otherwise. Parse failures are reported to q and yield nil.
func (c *EmbeddedContent) ParseCSS(q *message.Queue) *css.Node {
	if c.Type != ContentStyle {
		return nil
	}
	var n *css.Node
	var err error
	if c.Attribute {
		n, err = cssparser.ParseDeclarations(c.Text, c.Pos.Source)
	} else {
		n, err = cssparser.Parse(c.Text, c.Pos.Source)
	}
	if err != nil {
		c.report(q, err)
		return nil
	}
	css.Walk(n, func(n, _ *css.Node) bool {
		n.Pos = position.Shift(n.Pos, c.Pos)
		return true
	})
	return n
}

func (c *EmbeddedContent) report(q *message.Queue, err error) {
	pos := c.Pos
	var se *jsparser.SyntaxError
	if errors.As(err, &se) {
		pos = position.Shift(se.Pos, c.Pos)
		if se.Pos.IsUnknown() {
			pos = c.Pos
		}
		q.Add(message.ParseError, pos, c.Type.String(), se.Err.Error()+": "+se.Detail)
		return
	}
	q.Add(message.ParseError, pos, c.Type.String(), err.Error())
}

// ScriptURL returns the script of a javascript: URL.
func ScriptURL(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if len(value) < len("javascript:") || !strings.EqualFold(value[:len("javascript:")], "javascript:") {
		return "", false
	}
	script := value[len("javascript:"):]
	if decoded, err := url.PathUnescape(script); err == nil {
		script = decoded
	}
	return script, true
}
