package uriutil_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"bennypowers.dev/cajoler/internal/uriutil"
	"github.com/stretchr/testify/assert"
)

func TestPathToURI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	tests := []struct {
		path string
		want string
	}{
		{"/home/user/gadgets", "file:///home/user/gadgets"},
		{"/home/user/my gadgets", "file:///home/user/my%20gadgets"},
		{"/home/user/gädgets", "file:///home/user/g%C3%A4dgets"},
		{"/srv/a#b", "file:///srv/a%23b"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, uriutil.PathToURI(tt.path))
		})
	}

	t.Run("relative paths are made absolute", func(t *testing.T) {
		abs, err := filepath.Abs("gadget")
		assert.NoError(t, err)
		assert.Equal(t, uriutil.PathToURI(abs), uriutil.PathToURI("gadget"))
	})
}

func TestURIToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"plain", "file:///home/user/gadgets", "/home/user/gadgets"},
		{"escaped", "file:///home/user/my%20gadgets", "/home/user/my gadgets"},
		{"unicode", "file:///home/user/g%C3%A4dgets", "/home/user/gädgets"},
		{"localhost", "file://localhost/srv/g", "/srv/g"},
		{"drive letter", "file:///C:/proj", "C:/proj"},
		{"host", "file://server/share/g", "server/share/g"},
		{"not a file uri", "/srv/g", "/srv/g"},
		{"unparseable", "file:///srv/%zz", "/srv/%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uriutil.URIToPath(tt.uri))
		})
	}
}

// TestRoundTrip tests that paths survive conversion to a URI and back
func TestRoundTrip(t *testing.T) {
	for _, p := range []string{"/a/b c/d", "/ü/ñ", "/x/%41"} {
		abs, err := filepath.Abs(filepath.FromSlash(p))
		assert.NoError(t, err)
		assert.Equal(t, abs, uriutil.URIToPath(uriutil.PathToURI(abs)), p)
	}
}
