package uripolicy_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/uripolicy"
)

func ref(t *testing.T, base, raw string) uripolicy.ExternalReference {
	t.Helper()
	b, err := uripolicy.ParseBase(base)
	require.NoError(t, err)
	u, err := uripolicy.Resolve(b, raw)
	require.NoError(t, err)
	return uripolicy.ExternalReference{URI: u}
}

// TestGlobPolicy tests allow-listing and proxying
func TestGlobPolicy(t *testing.T) {
	p, err := uripolicy.NewGlobPolicy([]string{"https://cdn.example.com/**"}, "")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"allowed", "https://cdn.example.com/img/a.png", "https://cdn.example.com/img/a.png", true},
		{"relative resolves", "img/a.png", "https://cdn.example.com/img/a.png", true},
		{"other host", "https://evil.example.net/a.png", "", false},
		{"script scheme", "javascript:alert(1)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Rewrite(ref(t, "https://cdn.example.com/", tt.raw), uripolicy.SameDocument, uripolicy.Data, nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGlobPolicyProxy(t *testing.T) {
	p, err := uripolicy.NewGlobPolicy(nil, "https://proxy.example.com/?u={url}&e={effect}")
	require.NoError(t, err)
	got, ok := p.Rewrite(ref(t, "", "http://a.example/x y"), uripolicy.NewDocument, uripolicy.Data, nil)
	require.True(t, ok)
	assert.Equal(t, "https://proxy.example.com/?u="+url.QueryEscape("http://a.example/x%20y")+"&e=NEW_DOCUMENT", got)
}

func TestNewGlobPolicyRejectsBadPattern(t *testing.T) {
	_, err := uripolicy.NewGlobPolicy([]string{"https://[a"}, "")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	u, err := uripolicy.Normalize("  http://example.com/a b/ü?q=%zz&r=%41 ")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/a%20b/%C3%BC?q=%25zz&r=%41", u.String())

	_, err = uripolicy.Normalize("http://example.com/\x01")
	assert.ErrorIs(t, err, uripolicy.ErrMalformedURI)
}

func TestParseBase(t *testing.T) {
	b, err := uripolicy.ParseBase("")
	require.NoError(t, err)
	assert.Nil(t, b)

	_, err = uripolicy.ParseBase("relative/path")
	assert.ErrorIs(t, err, uripolicy.ErrMalformedURI)
}

func TestParseClassifications(t *testing.T) {
	e, err := uripolicy.ParseEffect("same_document")
	require.NoError(t, err)
	assert.Equal(t, uripolicy.SameDocument, e)
	l, err := uripolicy.ParseLoaderType("SANDBOXED")
	require.NoError(t, err)
	assert.Equal(t, uripolicy.Sandboxed, l)
	_, err = uripolicy.ParseEffect("sideways")
	assert.Error(t, err)
}
