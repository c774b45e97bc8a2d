package lsp

import (
	"encoding/json"

	"bennypowers.dev/cajoler/lsp/methods/textDocument/diagnostic"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CustomHandler wraps protocol.Handler to add custom method support
//
// WORKAROUND: glsp v0.2.2 only implements LSP 3.16. protocol.Handler has no
// field for textDocument/diagnostic, so that method is intercepted here.
type CustomHandler struct {
	*protocol.Handler // Pointer to avoid copying embedded mutex
	server            *Server
}

// Handle implements glsp.Handler interface
func (h *CustomHandler) Handle(context *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	switch context.Method {
	case "initialize":
		// The parsed InitializeParams lacks the 3.17 diagnostic field, so it
		// is read from the raw params before the normal handler runs.
		h.server.SetClientDiagnosticCapability(DetectPullDiagnosticsSupport(context.Params))

	case diagnostic.MethodDocumentDiagnostic:
		var params diagnostic.DocumentDiagnosticParams
		if err := json.Unmarshal(context.Params, &params); err != nil {
			return nil, true, false, err
		}
		req := types.NewRequestContext(h.server, context)
		result, err := diagnostic.DocumentDiagnostic(req, &params)
		if err != nil {
			return nil, true, true, err
		}
		return result, true, true, nil
	}

	return h.Handler.Handle(context)
}
