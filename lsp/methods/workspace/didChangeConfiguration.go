package workspace

import (
	"encoding/json"
	"fmt"

	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// SettingsKey is the section of the client settings read by the server
const SettingsKey = "cajoler"

// DidChangeConfiguration handles the workspace/didChangeConfiguration
// notification. Invalid settings are reported to the client and the
// previous configuration is kept.
func DidChangeConfiguration(req *types.RequestContext, params *protocol.DidChangeConfigurationParams) error {
	log.Info("Configuration changed")

	cfg, ok, err := parseConfiguration(params.Settings)
	if err != nil {
		LogWarning(req.GLSP, "ignoring %s settings: %v", SettingsKey, err)
		return nil
	}
	if !ok {
		return nil
	}
	if err := req.Server.SetConfig(cfg); err != nil {
		LogWarning(req.GLSP, "ignoring %s settings: %v", SettingsKey, err)
		return nil
	}

	glspCtx := req.Server.GLSPContext()
	if glspCtx == nil {
		return nil
	}
	for _, doc := range req.Server.AllDocuments() {
		if err := req.Server.PublishDiagnostics(glspCtx, doc.URI()); err != nil {
			req.AddWarning(fmt.Errorf("failed to publish diagnostics for %s: %w", doc.URI(), err))
		}
	}
	return nil
}

// parseConfiguration reads our section of the client settings,
// { "cajoler": { ... } }. ok is false when the section is missing.
func parseConfiguration(settings any) (cfg config.Config, ok bool, err error) {
	if settings == nil {
		return cfg, false, nil
	}
	settingsMap, isMap := settings.(map[string]any)
	if !isMap {
		return cfg, false, fmt.Errorf("settings is not a map")
	}
	ours, exists := settingsMap[SettingsKey]
	if !exists {
		return cfg, false, nil
	}

	jsonBytes, err := json.Marshal(ours)
	if err != nil {
		return cfg, false, fmt.Errorf("failed to marshal settings: %w", err)
	}
	cfg, err = config.Parse(jsonBytes)
	if err != nil {
		return cfg, false, err
	}
	return cfg, true, nil
}
