package textDocument_test

import (
	"testing"

	"bennypowers.dev/cajoler/lsp/methods/textDocument"
	"bennypowers.dev/cajoler/lsp/testutil"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const uri = "file:///gadget/index.html"

func open(t *testing.T, ctx *testutil.MockServerContext) *types.RequestContext {
	t.Helper()
	req := types.NewRequestContext(ctx, ctx.GLSPContext())
	require.NoError(t, textDocument.DidOpen(req, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "html",
			Version:    1,
			Text:       "<p>hi</p>",
		},
	}))
	return req
}

// TestDocumentLifecycle tests that each notification updates the document
// and pushes diagnostics
func TestDocumentLifecycle(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	ctx.SetGLSPContext(&glsp.Context{})

	req := open(t, ctx)
	require.NotNil(t, ctx.Document(uri))

	require.NoError(t, textDocument.DidChange(req, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 3},
					End:   protocol.Position{Line: 0, Character: 5},
				},
				Text: "bye",
			},
		},
	}))
	assert.Equal(t, "<p>bye</p>", ctx.Document(uri).Content())

	require.NoError(t, textDocument.DidChange(req, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                3,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "<b>x</b>"}},
	}))
	assert.Equal(t, "<b>x</b>", ctx.Document(uri).Content())

	require.NoError(t, textDocument.DidClose(req, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	assert.Nil(t, ctx.Document(uri))

	// Closing publishes once more to clear the document's diagnostics
	assert.Equal(t, []string{uri, uri, uri, uri}, ctx.PublishedURIs)
}

func TestNoPushWithPullDiagnostics(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	ctx.SetGLSPContext(&glsp.Context{})
	ctx.SetUsePullDiagnostics(true)

	open(t, ctx)

	assert.NotNil(t, ctx.Document(uri))
	assert.Empty(t, ctx.PublishedURIs)
}

func TestNoPushWithoutClient(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	open(t, ctx)
	assert.Empty(t, ctx.PublishedURIs)
}

func TestDidChangeUnknownDocument(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	req := types.NewRequestContext(ctx, nil)

	err := textDocument.DidChange(req, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///missing.html"},
			Version:                2,
		},
	})
	assert.Error(t, err)
}
