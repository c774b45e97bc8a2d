package parser_test

import (
	"testing"

	"bennypowers.dev/cajoler/internal/parser"
	"github.com/stretchr/testify/assert"
)

func TestKindForLanguage(t *testing.T) {
	tests := []struct {
		languageID string
		want       parser.Kind
	}{
		{"css", parser.CSS},
		{"html", parser.HTML},
		{"javascript", parser.JS},
		{"typescript", parser.Unsupported},
		{"json", parser.Unsupported},
		{"", parser.Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.languageID, func(t *testing.T) {
			assert.Equal(t, tt.want, parser.KindForLanguage(tt.languageID))
		})
	}
}

func TestKindForPath(t *testing.T) {
	assert.Equal(t, parser.HTML, parser.KindForPath("gadgets/main.HTML"))
	assert.Equal(t, parser.CSS, parser.KindForPath("a.css"))
	assert.Equal(t, parser.JS, parser.KindForPath("/x/y.mjs"))
	assert.Equal(t, parser.Unsupported, parser.KindForPath("README"))
}

func TestParseKind(t *testing.T) {
	for _, k := range []parser.Kind{parser.HTML, parser.CSS, parser.JS} {
		assert.Equal(t, k, parser.ParseKind(k.String()))
	}
	assert.Equal(t, parser.CSS, parser.ParseKind("CSS"))
	assert.Equal(t, parser.Unsupported, parser.ParseKind("yaml"))
}

func TestClosePoolsIsRepeatable(t *testing.T) {
	assert.NotPanics(t, func() {
		parser.ClosePools()
		parser.ClosePools()
	})
}
