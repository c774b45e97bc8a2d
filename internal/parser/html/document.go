package html

import (
	"strings"

	"bennypowers.dev/cajoler/internal/position"
)

// NodeType identifies the kind of a document node
type NodeType int

const (
	// ElementNode is an element with attributes and children
	ElementNode NodeType = iota + 1
	// TextNode is character data with entities decoded
	TextNode
	// CommentNode is an HTML comment
	CommentNode
	// DoctypeNode is a document type declaration
	DoctypeNode
)

// Node is an element, text run, comment or doctype.
type Node struct {
	Type NodeType
	// Name is the lower-cased tag name of an element.
	Name     string
	Attrs    []*Attribute
	Children []*Node
	// Text is decoded character data, or the raw body of a script or style
	// element.
	Text string
	Pos  position.FilePosition
	// TextPos locates the raw body of a script or style element.
	TextPos     position.FilePosition
	SelfClosing bool
}

// Attribute is a name and its decoded value.
type Attribute struct {
	Name     string
	Value    string
	HasValue bool
	Pos      position.FilePosition
	ValuePos position.FilePosition
}

// Document is a parsed HTML fragment or page.
type Document struct {
	Source   string
	Children []*Node
}

// Attr returns the attribute named name, ignoring case.
func (n *Node) Attr(name string) (*Attribute, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return nil, false
}

// RemoveAttr drops every attribute named name.
func (n *Node) RemoveAttr(name string) {
	kept := n.Attrs[:0]
	for _, a := range n.Attrs {
		if !strings.EqualFold(a.Name, name) {
			kept = append(kept, a)
		}
	}
	n.Attrs = kept
}

// RawText reports whether the element's body is not parsed as markup.
func (n *Node) RawText() bool {
	return n.Type == ElementNode && (n.Name == "script" || n.Name == "style")
}

// Walk visits nodes depth first. When visit returns false the children of
// that node are skipped. Children may be replaced while they are visited.
func Walk(nodes []*Node, parent *Node, visit func(n, parent *Node) bool) {
	for _, n := range append([]*Node(nil), nodes...) {
		if visit(n, parent) {
			Walk(n.Children, n, visit)
		}
	}
}
