package lifecycle

import (
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Initialized handles the LSP initialized notification
func Initialized(req *types.RequestContext, params *protocol.InitializedParams) error {
	log.Info("Server initialized")

	// Store context for later use (diagnostics)
	req.Server.SetGLSPContext(req.GLSP)

	// A broken configuration file must not stop the server; the defaults
	// stay in effect.
	if err := req.Server.LoadWorkspaceConfig(); err != nil {
		req.AddWarning(err)
	}
	return nil
}
