// Package common holds the tree-sitter plumbing shared by the JavaScript,
// CSS and HTML front ends.
package common

import (
	"errors"
	"fmt"
	"strconv"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/cajoler/internal/position"
)

var (
	// ErrSyntax marks source that does not parse.
	ErrSyntax = errors.New("syntax error")
	// ErrUnsupported marks valid source outside the supported subset.
	ErrUnsupported = errors.New("unsupported syntax")
)

// SyntaxError locates a parse failure
type SyntaxError struct {
	Pos    position.FilePosition
	Err    error
	Detail string
}

func (e *SyntaxError) Error() string {
	if e.Pos.IsUnknown() {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v: %s", e.Pos, e.Err, e.Detail)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Pos converts the span of a tree-sitter node to a FilePosition with one
// based lines and columns.
func Pos(source string, n *sitter.Node) position.FilePosition {
	s, e := n.StartPosition(), n.EndPosition()
	return position.FilePosition{
		Source: source,
		Start:  position.Point{Line: int(s.Row) + 1, Column: int(s.Column) + 1, Offset: int(n.StartByte())},
		End:    position.Point{Line: int(e.Row) + 1, Column: int(e.Column) + 1, Offset: int(n.EndByte())},
	}
}

// FirstError returns a SyntaxError for the first error or missing node
// below root.
func FirstError(source string, src []byte, root *sitter.Node) error {
	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil || !n.HasError() && !n.IsMissing() {
			return
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
	if found == nil {
		return &SyntaxError{Pos: Pos(source, root), Err: ErrSyntax, Detail: "malformed " + root.Kind()}
	}
	if found.IsMissing() {
		return &SyntaxError{Pos: Pos(source, found), Err: ErrSyntax, Detail: "missing " + found.Kind()}
	}
	text := found.Utf8Text(src)
	if len(text) > 20 {
		text = text[:20] + "..."
	}
	return &SyntaxError{Pos: Pos(source, found), Err: ErrSyntax, Detail: "unexpected " + strconv.Quote(text)}
}

// Named returns the named children of n, skipping comments.
func Named(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.IsExtra() || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}
