// Package js parses JavaScript source into the trees of internal/js using
// tree-sitter.
package js

import (
	"fmt"
	"sync"

	jstree "bennypowers.dev/cajoler/internal/js"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Parser converts JavaScript programs to parse trees
type Parser struct {
	parser *sitter.Parser
}

var jsLang = sitter.NewLanguage(tree_sitter_javascript.Language())

// parserPool is a pool of reusable JS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(jsLang); err != nil {
			panic(fmt.Sprintf("failed to set JS language: %v", err))
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

// Parse parses a complete program and returns its statements as a Block.
// name labels positions in the returned tree and in errors.
func (p *Parser) Parse(source, name string) (*jstree.Node, error) {
	src := []byte(source)
	tree := p.parser.Parse(src, nil)
	if tree == nil {
		return nil, &SyntaxError{Err: ErrSyntax, Detail: "parser returned no tree"}
	}
	defer tree.Close()

	c := &converter{src: src, name: name}
	root := tree.RootNode()
	if root.HasError() {
		return nil, c.firstError(root)
	}
	return c.program(root)
}

// Parse parses source with a pooled parser.
func Parse(source, name string) (*jstree.Node, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	return p.Parse(source, name)
}
