package workspace_test

import (
	"testing"

	"bennypowers.dev/cajoler/lsp/methods/workspace"
	"bennypowers.dev/cajoler/lsp/testutil"
	"bennypowers.dev/cajoler/lsp/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func TestDidChangeConfiguration_WithValidConfig(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	glspCtx := &glsp.Context{}
	ctx.SetGLSPContext(glspCtx)
	require.NoError(t, ctx.DocumentManager().DidOpen("file:///a.css", "css", 1, "p {}"))
	require.NoError(t, ctx.DocumentManager().DidOpen("file:///b.html", "html", 1, "<p></p>"))

	params := &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{
			workspace.SettingsKey: map[string]any{
				"idClass": "gadget7",
				"lenient": true,
				"uriPolicy": map[string]any{
					"allow": []any{"https://cdn.example.com/**"},
				},
			},
		},
	}

	req := types.NewRequestContext(ctx, glspCtx)
	require.NoError(t, workspace.DidChangeConfiguration(req, params))

	cfg := ctx.GetConfig()
	assert.Equal(t, "gadget7", cfg.IDClass)
	assert.True(t, cfg.Lenient)
	require.NotNil(t, cfg.URIPolicy)
	assert.Equal(t, []string{"https://cdn.example.com/**"}, cfg.URIPolicy.Allow)
	assert.Equal(t, "gadget7", ctx.Cajoler().Config().IDClass)

	// Every open document is re-checked
	assert.Equal(t, []string{"file:///a.css", "file:///b.html"}, ctx.PublishedURIs)
}

// TestDidChangeConfiguration_KeepsConfig tests that settings which cannot
// be used leave the current configuration in place
func TestDidChangeConfiguration_KeepsConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings any
	}{
		{"nil settings", nil},
		{"not a map", "settings"},
		{"missing section", map[string]any{"other": map[string]any{"idClass": "x"}}},
		{"relative base", map[string]any{workspace.SettingsKey: map[string]any{"baseUri": "gadgets/"}}},
		{"bad log level", map[string]any{workspace.SettingsKey: map[string]any{"logLevel": "loud"}}},
		{"wrong type", map[string]any{workspace.SettingsKey: map[string]any{"lenient": "yes"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testutil.NewMockServerContext()
			ctx.SetGLSPContext(&glsp.Context{})
			before := ctx.GetConfig()

			req := types.NewRequestContext(ctx, nil)
			err := workspace.DidChangeConfiguration(req, &protocol.DidChangeConfigurationParams{Settings: tt.settings})
			require.NoError(t, err)

			assert.Equal(t, before, ctx.GetConfig())
			assert.Empty(t, ctx.PublishedURIs)
		})
	}
}

func TestDidChangeConfiguration_WithoutClient(t *testing.T) {
	ctx := testutil.NewMockServerContext()
	require.NoError(t, ctx.DocumentManager().DidOpen("file:///a.css", "css", 1, "p {}"))

	req := types.NewRequestContext(ctx, nil)
	err := workspace.DidChangeConfiguration(req, &protocol.DidChangeConfigurationParams{
		Settings: map[string]any{workspace.SettingsKey: map[string]any{"idClass": "g2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "g2", ctx.GetConfig().IDClass)
	assert.Empty(t, ctx.PublishedURIs)
}
