package lifecycle

import (
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/uriutil"
	"bennypowers.dev/cajoler/internal/version"
	"bennypowers.dev/cajoler/lsp/methods/textDocument/diagnostic"
	"bennypowers.dev/cajoler/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ServerName is reported to clients in the initialize result.
const ServerName = "cajoler-language-server"

// InitializeResult is protocol.InitializeResult with untyped capabilities.
//
// WORKAROUND: protocol.ServerCapabilities (LSP 3.16) has no
// diagnosticProvider field.
type InitializeResult struct {
	Capabilities map[string]any                       `json:"capabilities"`
	ServerInfo   *protocol.InitializeResultServerInfo `json:"serverInfo,omitempty"`
}

// Initialize handles the LSP initialize request
func Initialize(req *types.RequestContext, params *protocol.InitializeParams) (any, error) {
	clientName := "unknown"
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	log.Info("Initializing for client: %s", clientName)

	// The capability is detected from the raw params by CustomHandler. When
	// detection did not run, fall back to pushing.
	supportsPullDiagnostics := false
	if detected := req.Server.ClientDiagnosticCapability(); detected != nil {
		supportsPullDiagnostics = *detected
	}
	req.Server.SetUsePullDiagnostics(supportsPullDiagnostics)
	if supportsPullDiagnostics {
		log.Info("Using pull diagnostics model (LSP 3.17)")
	} else {
		log.Info("Using push diagnostics model")
	}

	if params.RootURI != nil {
		req.Server.SetRootURI(*params.RootURI)
		req.Server.SetRootPath(uriutil.URIToPath(*params.RootURI))
		log.Info("Workspace root: %s", req.Server.RootPath())
	} else if params.RootPath != nil {
		req.Server.SetRootPath(*params.RootPath)
		req.Server.SetRootURI(uriutil.PathToURI(*params.RootPath))
		log.Info("Workspace root (from rootPath): %s", req.Server.RootPath())
	}

	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities := map[string]any{
		"textDocumentSync": protocol.TextDocumentSyncOptions{
			OpenClose: boolPtr(true),
			Change:    &syncKind,
		},
	}
	if supportsPullDiagnostics {
		capabilities["diagnosticProvider"] = diagnostic.DiagnosticOptions{
			Identifier:            diagnostic.Source,
			InterFileDependencies: false,
			WorkspaceDiagnostics:  false,
		}
	}

	return InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: strPtr(version.GetVersion()),
		},
	}, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
