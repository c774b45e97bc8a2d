// Package html parses HTML into a light document of elements, attributes
// and text using tree-sitter.
package html

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	"golang.org/x/net/html"

	"bennypowers.dev/cajoler/internal/parser/common"
	"bennypowers.dev/cajoler/internal/position"
)

// ErrSyntax marks markup tree-sitter could not recover from.
var ErrSyntax = common.ErrSyntax

// SyntaxError locates a parse failure
type SyntaxError = common.SyntaxError

// Parser handles parsing HTML with tree-sitter
type Parser struct {
	parser *sitter.Parser
}

var htmlLang = sitter.NewLanguage(tree_sitter_html.Language())

// parserPool is a pool of reusable HTML parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(htmlLang); err != nil {
			panic(fmt.Sprintf("failed to set HTML language: %v", err))
		}
		return &Parser{parser: parser}
	},
}

// AcquireParser gets a parser from the pool
func AcquireParser() *Parser {
	p := parserPool.Get().(*Parser)
	p.parser.Reset()
	return p
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// ClosePool closes all parsers in the pool
func ClosePool() {
	for range 100 {
		if p, ok := parserPool.Get().(*Parser); ok && p != nil {
			p.Close()
		}
	}
}

// Parse parses an HTML document or fragment. name labels positions.
func (p *Parser) Parse(source, name string) (*Document, error) {
	src := []byte(source)
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, &SyntaxError{Err: ErrSyntax, Detail: "parser returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, common.FirstError(name, src, root)
	}
	c := newConverter(src, name)
	return &Document{
		Source:   name,
		Children: c.content(root, 0, uint(len(src))),
	}, nil
}

// Parse parses source with a pooled parser.
func Parse(source, name string) (*Document, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	return p.Parse(source, name)
}

type converter struct {
	src  []byte
	name string
	// byte offsets where each line starts
	lines []int
}

func newConverter(src []byte, name string) *converter {
	lines := []int{0}
	for i, b := range src {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &converter{src: src, name: name, lines: lines}
}

func (c *converter) text(n *sitter.Node) string {
	return n.Utf8Text(c.src)
}

func (c *converter) pos(n *sitter.Node) position.FilePosition {
	return common.Pos(c.name, n)
}

// span locates the byte range [start, end) of the source.
func (c *converter) span(start, end uint) position.FilePosition {
	return position.FilePosition{Source: c.name, Start: c.point(int(start)), End: c.point(int(end))}
}

func (c *converter) point(offset int) position.Point {
	line := sort.Search(len(c.lines), func(i int) bool { return c.lines[i] > offset }) - 1
	return position.Point{Line: line + 1, Column: offset - c.lines[line] + 1, Offset: offset}
}

// content converts the children of parent that lie in [from, to). Bytes
// not covered by a child become decoded text nodes, so whitespace between
// elements and entity references are kept.
func (c *converter) content(parent *sitter.Node, from, to uint) []*Node {
	var out []*Node
	cursor := from
	flush := func(end uint) {
		if end > cursor {
			out = append(out, &Node{
				Type: TextNode,
				Text: html.UnescapeString(string(c.src[cursor:end])),
				Pos:  c.span(cursor, end),
			})
		}
	}
	for i := uint(0); i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		if child.StartByte() < from || child.EndByte() > to {
			continue
		}
		var node *Node
		switch child.Kind() {
		case "text", "entity":
			continue
		case "element", "script_element", "style_element":
			node = c.element(child)
		case "comment":
			node = &Node{Type: CommentNode, Text: c.text(child), Pos: c.pos(child)}
		case "doctype":
			node = &Node{Type: DoctypeNode, Text: doctype(c.text(child)), Pos: c.pos(child)}
		case "erroneous_end_tag":
			// a stray end tag closes nothing
		default:
			continue
		}
		flush(child.StartByte())
		if node != nil {
			out = append(out, node)
			// the grammar nests whatever follows a void element inside it
			if node.Type == ElementNode && voidElements[node.Name] {
				out = append(out, node.Children...)
				node.Children = nil
			}
		}
		cursor = child.EndByte()
	}
	flush(to)
	return out
}

func doctype(raw string) string {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "<!"), ">")
	fields := strings.Fields(raw)
	if len(fields) > 0 && strings.EqualFold(fields[0], "doctype") {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func (c *converter) element(n *sitter.Node) *Node {
	el := &Node{Type: ElementNode, Pos: c.pos(n)}
	var start, end, raw *sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "start_tag":
			start = child
		case "self_closing_tag":
			start = child
			el.SelfClosing = true
		case "end_tag":
			end = child
		case "raw_text":
			raw = child
		}
	}
	if start == nil {
		return el
	}
	for i := uint(0); i < start.NamedChildCount(); i++ {
		child := start.NamedChild(i)
		switch child.Kind() {
		case "tag_name":
			el.Name = strings.ToLower(c.text(child))
		case "attribute":
			el.Attrs = append(el.Attrs, c.attribute(child))
		}
	}
	if el.SelfClosing {
		return el
	}
	to := n.EndByte()
	if end != nil {
		to = end.StartByte()
	}
	switch {
	case n.Kind() != "element":
		if raw != nil {
			el.Text = c.text(raw)
			el.TextPos = c.pos(raw)
		} else {
			el.TextPos = c.span(start.EndByte(), start.EndByte())
		}
	default:
		el.Children = c.content(n, start.EndByte(), to)
		if voidElements[el.Name] {
			el.Pos = c.pos(start)
		}
	}
	return el
}

func (c *converter) attribute(n *sitter.Node) *Attribute {
	a := &Attribute{Pos: c.pos(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "attribute_name":
			a.Name = strings.ToLower(c.text(child))
		case "attribute_value":
			a.HasValue = true
			a.Value = html.UnescapeString(c.text(child))
			a.ValuePos = c.pos(child)
		case "quoted_attribute_value":
			a.HasValue = true
			a.ValuePos = c.span(child.StartByte()+1, child.StartByte()+1)
			if child.NamedChildCount() > 0 {
				v := child.NamedChild(0)
				a.Value = html.UnescapeString(c.text(v))
				a.ValuePos = c.pos(v)
			}
		}
	}
	return a
}
