package lifecycle

import (
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/parser"
	"bennypowers.dev/cajoler/lsp/types"
)

// Shutdown handles the LSP shutdown request
func Shutdown(req *types.RequestContext) error {
	log.Info("Server shutting down")
	parser.ClosePools()
	return nil
}
