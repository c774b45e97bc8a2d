package lifecycle

import (
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// SetTrace handles the $/setTrace notification. verbose turns on debug
// logging; any other value restores info.
func SetTrace(req *types.RequestContext, params *protocol.SetTraceParams) error {
	log.Info("Trace level set to: %s", params.Value)
	if params.Value == "verbose" {
		log.SetLevel(log.LevelDebug)
	} else {
		log.SetLevel(log.LevelInfo)
	}
	return nil
}
