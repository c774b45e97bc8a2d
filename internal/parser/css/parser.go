// Package css parses stylesheets and style attributes into the trees of
// internal/css using tree-sitter.
package css

import (
	"errors"
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"

	csstree "bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/parser/common"
	"bennypowers.dev/cajoler/internal/position"
)

// ErrSyntax marks text that is not valid CSS. ErrUnsupported marks CSS the
// cajoler does not model, such as nested rules or grid templates.
var (
	ErrSyntax      = common.ErrSyntax
	ErrUnsupported = common.ErrUnsupported
)

// SyntaxError locates a parse failure
type SyntaxError = common.SyntaxError

// Parser handles parsing CSS with tree-sitter
type Parser struct {
	parser *sitter.Parser
}

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

// parserPool is a pool of reusable CSS parsers
var parserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(cssLang); err != nil {
			panic(fmt.Sprintf("failed to set CSS language: %v", err))
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

// Parse parses a stylesheet. name labels positions in the returned tree and
// in errors.
func (p *Parser) Parse(source, name string) (*csstree.Node, error) {
	c := &converter{src: []byte(source), name: name}
	root, done, err := p.tree(c)
	if err != nil {
		return nil, err
	}
	defer done()
	return c.stylesheet(root)
}

// declPrefix opens the rule that style attribute text is parsed inside.
const declPrefix = "*{"

// ParseDeclarations parses the text of a style attribute into a
// DeclarationGroup.
func (p *Parser) ParseDeclarations(source, name string) (*csstree.Node, error) {
	c := &converter{
		src:   []byte(declPrefix + source + "\n}"),
		name:  name,
		shift: len(declPrefix),
	}
	root, done, err := p.tree(c)
	if err != nil {
		return nil, err
	}
	defer done()
	return c.declarationGroup(root)
}

func (p *Parser) tree(c *converter) (*sitter.Node, func(), error) {
	tree := p.parser.Parse(c.src, nil)
	if tree == nil {
		return nil, nil, &SyntaxError{Err: ErrSyntax, Detail: "parser returned no tree"}
	}
	root := tree.RootNode()
	if root.HasError() {
		err := c.firstError(root)
		tree.Close()
		return nil, nil, err
	}
	return root, tree.Close, nil
}

// Parse parses a stylesheet with a pooled parser.
func Parse(source, name string) (*csstree.Node, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	return p.Parse(source, name)
}

// ParseDeclarations parses style attribute text with a pooled parser.
func ParseDeclarations(source, name string) (*csstree.Node, error) {
	p := AcquireParser()
	defer ReleaseParser(p)
	return p.ParseDeclarations(source, name)
}

// IsSyntaxError reports whether err came from malformed or unsupported CSS.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func (c *converter) firstError(root *sitter.Node) error {
	err := common.FirstError(c.name, c.src, root)
	var se *SyntaxError
	if errors.As(err, &se) {
		se.Pos = c.adjust(se.Pos)
	}
	return err
}

func (c *converter) adjust(p position.FilePosition) position.FilePosition {
	if c.shift == 0 {
		return p
	}
	origin := position.FilePosition{
		Source: c.name,
		Start:  position.Point{Line: 1, Column: 1 - c.shift, Offset: -c.shift},
	}
	return position.Shift(p, origin)
}
