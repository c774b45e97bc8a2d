// Package documents tracks the text of documents open in the language
// server.
package documents

import (
	"fmt"
	"strings"
	"sync"
)

// Document is an open text document. It is safe for concurrent use.
type Document struct {
	uri        string
	languageID string

	mu      sync.RWMutex
	content string
	version int
	lines   []string // split lazily from content
}

// NewDocument creates a new document
func NewDocument(uri, languageID string, version int, content string) *Document {
	return &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		content:    content,
	}
}

// URI returns the document's URI
func (d *Document) URI() string {
	return d.uri
}

// LanguageID returns the document's language identifier
func (d *Document) LanguageID() string {
	return d.languageID
}

// Version returns the document's version
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Content returns the document's current content
func (d *Document) Content() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.content
}

// Snapshot returns the content together with the version it belongs to.
func (d *Document) Snapshot() (content string, version int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.content, d.version
}

// Lines returns the content split on "\n". The slice is shared; callers
// must not modify it.
func (d *Document) Lines() []string {
	d.mu.RLock()
	lines := d.lines
	d.mu.RUnlock()
	if lines != nil {
		return lines
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lines == nil {
		d.lines = strings.Split(d.content, "\n")
	}
	return d.lines
}

// SetContent updates the document's content and version. Updates older than
// the current version are rejected.
func (d *Document) SetContent(content string, version int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if version < d.version {
		return fmt.Errorf("rejected stale update: document version is %d but update version is %d", d.version, version)
	}
	d.content = content
	d.version = version
	d.lines = nil
	return nil
}
