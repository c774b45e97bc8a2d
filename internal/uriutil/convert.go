// Package uriutil converts between file URIs and file system paths.
package uriutil

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// PathToURI returns the file URI of path, made absolute. Windows drive
// letters gain a leading slash and UNC hosts become the URI host.
func PathToURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if runtime.GOOS == "windows" && strings.HasPrefix(abs, `\\`) {
		host, rest, _ := strings.Cut(strings.TrimPrefix(abs, `\\`), `\`)
		return (&url.URL{Scheme: "file", Host: host, Path: "/" + filepath.ToSlash(rest)}).String()
	}
	slashed := filepath.ToSlash(abs)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

// URIToPath returns the file system path of a file URI. Strings that are
// not file URIs are treated as slash separated paths.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return filepath.FromSlash(trimDrive(strings.TrimPrefix(uri, "file://")))
	}
	if u.Host != "" && u.Host != "localhost" {
		if runtime.GOOS == "windows" {
			return `\\` + u.Host + filepath.FromSlash(u.Path)
		}
		return u.Host + u.Path
	}
	return filepath.FromSlash(trimDrive(u.Path))
}

// trimDrive turns /C:/proj into C:/proj
func trimDrive(p string) string {
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		return p[1:]
	}
	return p
}
