package diagnostic_test

import (
	"testing"

	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/lsp/methods/textDocument/diagnostic"
	"bennypowers.dev/cajoler/lsp/testutil"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func codes(diagnostics []protocol.Diagnostic) []any {
	out := make([]any, len(diagnostics))
	for i, d := range diagnostics {
		out[i] = d.Code.Value
	}
	return out
}

func TestGetDiagnostics_UnknownCSSProperty(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	uri := "file:///gadget/a.css"
	require.NoError(t, ctx.DocumentManager().DidOpen(uri, "css", 1, "p {\n  frobnicate: 1;\n}"))

	diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
	require.NoError(t, err)
	require.Len(t, diagnostics, 1)

	d := diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, message.UnknownCSSProperty.Name, d.Code.Value)
	assert.Equal(t, diagnostic.Source, *d.Source)
	assert.Contains(t, d.Message, "frobnicate")
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
}

// TestGetDiagnostics_LenientConfig tests that configuration changes flow
// through to the severity of stylesheet problems
func TestGetDiagnostics_LenientConfig(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	cfg := ctx.GetConfig()
	cfg.Lenient = true
	require.NoError(t, ctx.SetConfig(cfg))

	uri := "file:///gadget/a.css"
	require.NoError(t, ctx.DocumentManager().DidOpen(uri, "css", 1, "p { frobnicate: 1 }"))

	diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
	require.NoError(t, err)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diagnostics[0].Severity)
}

func TestGetDiagnostics_HTML(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	uri := "file:///gadget/index.html"
	require.NoError(t, ctx.DocumentManager().DidOpen(uri, "html", 1,
		`<p onclick="go()">hi</p><iframe src="x"></iframe>`))

	diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []any{message.RemovingElement.Name}, codes(diagnostics))
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *diagnostics[0].Severity)
}

func TestGetDiagnostics_JSParseError(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	uri := "file:///gadget/main.js"
	require.NoError(t, ctx.DocumentManager().DidOpen(uri, "javascript", 1, "var = ;"))

	diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, []any{message.ParseError.Name}, codes(diagnostics))
}

func TestGetDiagnostics_KindFromPath(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	uri := "file:///gadget/a.css"
	require.NoError(t, ctx.DocumentManager().DidOpen(uri, "plaintext", 1, "p { frobnicate: 1 }"))

	diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
	require.NoError(t, err)
	assert.Len(t, diagnostics, 1)
}

func TestGetDiagnostics_NoDiagnostics(t *testing.T) {
	ctx := testutil.NewMockServerContext()

	t.Run("document not open", func(t *testing.T) {
		diagnostics, err := diagnostic.GetDiagnostics(ctx, "file:///missing.css")
		require.NoError(t, err)
		assert.Nil(t, diagnostics)
	})

	t.Run("unsupported language", func(t *testing.T) {
		uri := "file:///notes.txt"
		require.NoError(t, ctx.DocumentManager().DidOpen(uri, "plaintext", 1, "<iframe>"))
		diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
		require.NoError(t, err)
		assert.Nil(t, diagnostics)
	})

	t.Run("clean stylesheet", func(t *testing.T) {
		uri := "file:///clean.css"
		require.NoError(t, ctx.DocumentManager().DidOpen(uri, "css", 1, "p { color: red }"))
		diagnostics, err := diagnostic.GetDiagnostics(ctx, uri)
		require.NoError(t, err)
		assert.Empty(t, diagnostics)
	})
}

func TestDocumentDiagnostic(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	uri := "file:///clean.css"
	require.NoError(t, ctx.DocumentManager().DidOpen(uri, "css", 1, "p { color: red }"))

	req := types.NewRequestContext(ctx, &glsp.Context{})
	result, err := diagnostic.DocumentDiagnostic(req, &diagnostic.DocumentDiagnosticParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)

	report, ok := result.(diagnostic.RelatedFullDocumentDiagnosticReport)
	require.True(t, ok)
	assert.Equal(t, "full", report.Kind)
	assert.NotNil(t, report.Items)
	assert.Empty(t, report.Items)
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		level message.Level
		want  protocol.DiagnosticSeverity
	}{
		{message.FatalError, protocol.DiagnosticSeverityError},
		{message.Error, protocol.DiagnosticSeverityError},
		{message.Warning, protocol.DiagnosticSeverityWarning},
		{message.Lint, protocol.DiagnosticSeverityHint},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, diagnostic.Severity(tt.level))
		})
	}
}

// TestRangeCountsUTF16 tests that byte columns become UTF-16 characters
func TestRangeCountsUTF16(t *testing.T) {
	lines := []string{"x", "é😀ab"}
	pos := position.FilePosition{
		Source: "a.css",
		// é is 2 bytes and 1 unit, 😀 is 4 bytes and 2 units
		Start: position.Point{Line: 2, Column: 7},
		End:   position.Point{Line: 2, Column: 9},
	}

	r := diagnostic.Range(pos, lines)
	assert.Equal(t, protocol.Position{Line: 1, Character: 3}, r.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 5}, r.End)

	assert.Equal(t, protocol.Range{}, diagnostic.Range(position.Unknown, lines))
}
