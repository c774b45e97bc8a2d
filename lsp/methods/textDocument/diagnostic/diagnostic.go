package diagnostic

import (
	"bennypowers.dev/cajoler/internal/cajoler"
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/parser"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Source names this server in published diagnostics.
const Source = "cajoler"

// DocumentDiagnostic handles the textDocument/diagnostic request (pull diagnostics)
func DocumentDiagnostic(req *types.RequestContext, params *DocumentDiagnosticParams) (any, error) {
	uri := params.TextDocument.URI
	log.Debug("Pull diagnostics requested for: %s", uri)

	diagnostics, err := GetDiagnostics(req.Server, uri)
	if err != nil {
		return nil, err
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	return RelatedFullDocumentDiagnosticReport{
		Kind:  string(DiagnosticFull),
		Items: diagnostics,
	}, nil
}

// GetDiagnostics cajoles an open document and returns its messages as
// diagnostics. Documents that are not open, or not markup, stylesheets or
// scripts, have none.
func GetDiagnostics(ctx types.ServerContext, uri string) ([]protocol.Diagnostic, error) {
	doc := ctx.Document(uri)
	if doc == nil {
		return nil, nil
	}
	kind := parser.KindForLanguage(doc.LanguageID())
	if kind == parser.Unsupported {
		kind = parser.KindForPath(uri)
	}

	c := ctx.Cajoler()
	content := doc.Content()
	var res *cajoler.Result
	switch kind {
	case parser.HTML:
		res = c.CajoleHTML(content, uri)
	case parser.CSS:
		res = c.CajoleCSS(content, uri)
	case parser.JS:
		res = c.CajoleJS(content, uri)
	default:
		return nil, nil
	}

	lines := doc.Lines()
	diagnostics := make([]protocol.Diagnostic, 0, len(res.Messages))
	for _, m := range res.Messages {
		if m.Pos.Source != "" && m.Pos.Source != uri {
			continue
		}
		diagnostics = append(diagnostics, toDiagnostic(m, lines))
	}
	return diagnostics, nil
}

func toDiagnostic(m message.Message, lines []string) protocol.Diagnostic {
	severity := Severity(m.Level)
	source := Source
	return protocol.Diagnostic{
		Range:    Range(m.Pos, lines),
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: m.Type.Name},
		Source:   &source,
		Message:  m.Text(),
	}
}

// Severity maps a message level to a diagnostic severity.
func Severity(l message.Level) protocol.DiagnosticSeverity {
	switch {
	case l >= message.Error:
		return protocol.DiagnosticSeverityError
	case l == message.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityHint
	}
}

// Range converts a message position to an LSP range. Positions count
// bytes; LSP characters count UTF-16 code units. Unknown positions map to
// the start of the document.
func Range(p position.FilePosition, lines []string) protocol.Range {
	if p.IsUnknown() {
		return protocol.Range{}
	}
	end := p.End
	if end.Line == 0 {
		end = p.Start
	}
	return protocol.Range{
		Start: point(p.Start, lines),
		End:   point(end, lines),
	}
}

func point(pt position.Point, lines []string) protocol.Position {
	line := pt.Line - 1
	col := pt.Column - 1
	if line < 0 {
		return protocol.Position{}
	}
	if line < len(lines) {
		col = position.ByteOffsetToUTF16(lines[line], col)
	}
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(max(col, 0)),
	}
}
