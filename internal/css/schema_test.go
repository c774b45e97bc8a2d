package css_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/css"
)

func TestDefaultSchema(t *testing.T) {
	s := css.DefaultSchema()
	p, ok := s.Lookup("Font-Family")
	require.True(t, ok)
	assert.Equal(t, "family", p.Parts[0].Name)
	assert.True(t, p.Parts[0].Accepts(css.PartLooseWord))
	assert.True(t, p.Parts[0].HasKeyword("SERIF"))

	assert.True(t, s.IsLinkSafe("color"))
	assert.False(t, s.IsLinkSafe("background-image"))
	assert.False(t, s.IsLinkSafe("no-such-property"))
	assert.Contains(t, s.Names(), "border-top-color")
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "properties: [",
		"no name":       "properties:\n  - parts: [{name: x}]\n",
		"no parts":      "properties:\n  - name: color\n",
		"duplicate":     "properties:\n  - name: a\n    parts: [{name: x}]\n  - name: A\n    parts: [{name: x}]\n",
		"bad part type": "properties:\n  - name: a\n    parts: [{name: x, types: [colour]}]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := css.LoadSchema([]byte(doc))
			var schemaErr *css.SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}
}
