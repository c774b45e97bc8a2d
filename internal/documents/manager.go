package documents

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"bennypowers.dev/cajoler/internal/position"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Manager manages text documents for the language server
type Manager struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewManager creates a new document manager
func NewManager() *Manager {
	return &Manager{
		documents: make(map[string]*Document),
	}
}

// Get retrieves a document by URI
func (m *Manager) Get(uri string) *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.documents[uri]
}

// GetAll returns all managed documents ordered by URI
func (m *Manager) GetAll() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b *Document) int { return strings.Compare(a.uri, b.uri) })
	return docs
}

// DidOpen handles the textDocument/didOpen notification. Reopening a
// document replaces it.
func (m *Manager) DidOpen(uri, languageID string, version int, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[uri] = NewDocument(uri, languageID, version, content)
	return nil
}

// DidClose handles the textDocument/didClose notification
func (m *Manager) DidClose(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[uri]; !exists {
		return fmt.Errorf("document not found: %s", uri)
	}
	delete(m.documents, uri)
	return nil
}

// DidChange handles the textDocument/didChange notification. Changes apply
// in order; if any fails the document is left unchanged.
func (m *Manager) DidChange(uri string, version int, changes []protocol.TextDocumentContentChangeEvent) error {
	doc := m.Get(uri)
	if doc == nil {
		return fmt.Errorf("document not found: %s", uri)
	}

	content := doc.Content()
	for _, change := range changes {
		var err error
		if content, err = applyChange(content, change); err != nil {
			return fmt.Errorf("failed to apply changes: %w", err)
		}
	}
	if err := doc.SetContent(content, version); err != nil {
		return fmt.Errorf("failed to set document content: %w", err)
	}
	return nil
}

// applyChange applies one change. A change without a range replaces the
// whole document.
func applyChange(content string, change protocol.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}
	lines := strings.Split(content, "\n")
	start, err := offsetAt(content, lines, change.Range.Start)
	if err != nil {
		return "", fmt.Errorf("start %w", err)
	}
	end, err := offsetAt(content, lines, change.Range.End)
	if err != nil {
		return "", fmt.Errorf("end %w", err)
	}
	if end < start {
		return "", fmt.Errorf("range end %d:%d precedes start %d:%d",
			change.Range.End.Line, change.Range.End.Character,
			change.Range.Start.Line, change.Range.Start.Character)
	}
	return content[:start] + change.Text + content[end:], nil
}

// offsetAt converts an LSP position, whose character counts UTF-16 code
// units, into a byte offset. Characters past the end of a line clamp to
// it; the line just past the last one means the end of the document.
func offsetAt(content string, lines []string, p protocol.Position) (int, error) {
	line := int(p.Line)
	switch {
	case line > len(lines):
		return 0, fmt.Errorf("line %d out of bounds (total lines: %d)", line, len(lines))
	case line == len(lines):
		return len(content), nil
	}
	offset := 0
	for _, l := range lines[:line] {
		offset += len(l) + 1
	}
	return offset + position.UTF16ToByteOffset(lines[line], int(p.Character)), nil
}
