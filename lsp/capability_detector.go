package lsp

import (
	"encoding/json"
)

// DetectPullDiagnosticsSupport reports whether raw initialize params declare
// the LSP 3.17 textDocument.diagnostic capability. Malformed params count as
// no support, so the server falls back to pushing diagnostics.
func DetectPullDiagnosticsSupport(rawParams json.RawMessage) bool {
	var initParams struct {
		Capabilities struct {
			TextDocument *struct {
				Diagnostic *json.RawMessage `json:"diagnostic"`
			} `json:"textDocument"`
		} `json:"capabilities"`
	}
	if err := json.Unmarshal(rawParams, &initParams); err != nil {
		return false
	}
	td := initParams.Capabilities.TextDocument
	return td != nil && td.Diagnostic != nil
}
