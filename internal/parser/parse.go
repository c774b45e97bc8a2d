// Package parser maps documents to the parser that reads them.
package parser

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/cajoler/internal/parser/css"
	"bennypowers.dev/cajoler/internal/parser/html"
	"bennypowers.dev/cajoler/internal/parser/js"
)

// Kind is the kind of content in a document.
type Kind int

const (
	// Unsupported documents are not cajoled
	Unsupported Kind = iota
	HTML
	CSS
	JS
)

func (k Kind) String() string {
	switch k {
	case HTML:
		return "html"
	case CSS:
		return "css"
	case JS:
		return "js"
	}
	return "unsupported"
}

// languages maps LSP language IDs to the kind of content they hold.
var languages = map[string]Kind{
	"css":        CSS,
	"html":       HTML,
	"xhtml":      HTML,
	"javascript": JS,
}

var extensions = map[string]Kind{
	".css":   CSS,
	".html":  HTML,
	".htm":   HTML,
	".xhtml": HTML,
	".js":    JS,
	".mjs":   JS,
}

// KindForLanguage returns the kind for an LSP language ID.
func KindForLanguage(languageID string) Kind {
	return languages[languageID]
}

// KindForPath guesses the kind from a file name's extension.
func KindForPath(path string) Kind {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// ParseKind reads a kind name as printed by Kind.String.
func ParseKind(s string) Kind {
	for _, k := range []Kind{HTML, CSS, JS} {
		if strings.EqualFold(s, k.String()) {
			return k
		}
	}
	return Unsupported
}

// ClosePools releases every pooled parser. Parsers acquired afterwards are
// created fresh.
func ClosePools() {
	css.ClosePool()
	html.ClosePool()
	js.ClosePool()
}
