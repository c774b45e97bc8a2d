// Package uripolicy decides which external URIs cajoled content may
// reference, and how those URIs are rewritten.
package uripolicy

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/cajoler/internal/position"
)

// Effect says what following a URI does to the page.
type Effect int

const (
	// NotLoaded URIs are only displayed or compared.
	NotLoaded Effect = iota
	// SameDocument URIs are fetched into the current document, like images
	// and stylesheets.
	SameDocument
	// NewDocument URIs replace or open a document, like link targets.
	NewDocument
)

func (e Effect) String() string {
	switch e {
	case SameDocument:
		return "SAME_DOCUMENT"
	case NewDocument:
		return "NEW_DOCUMENT"
	}
	return "NOT_LOADED"
}

// ParseEffect is the inverse of Effect.String. The empty string is
// NotLoaded.
func ParseEffect(s string) (Effect, error) {
	switch strings.ToUpper(s) {
	case "", "NOT_LOADED":
		return NotLoaded, nil
	case "SAME_DOCUMENT":
		return SameDocument, nil
	case "NEW_DOCUMENT":
		return NewDocument, nil
	}
	return NotLoaded, fmt.Errorf("unknown uri effect %q", s)
}

// LoaderType says how the loaded content is treated.
type LoaderType int

const (
	// Data content is never executed.
	Data LoaderType = iota
	// Sandboxed content is cajoled before it runs.
	Sandboxed
	// Unsandboxed content runs with the host's authority.
	Unsandboxed
)

func (l LoaderType) String() string {
	switch l {
	case Sandboxed:
		return "SANDBOXED"
	case Unsandboxed:
		return "UNSANDBOXED"
	}
	return "DATA"
}

// ParseLoaderType is the inverse of LoaderType.String. The empty string is
// Data.
func ParseLoaderType(s string) (LoaderType, error) {
	switch strings.ToUpper(s) {
	case "", "DATA":
		return Data, nil
	case "SANDBOXED":
		return Sandboxed, nil
	case "UNSANDBOXED":
		return Unsandboxed, nil
	}
	return Data, fmt.Errorf("unknown loader type %q", s)
}

// Hint keys passed to policies
const (
	HintCSSProperty = "CSS_PROP"
	HintHTMLTag     = "XML_TAG"
	HintHTMLAttr    = "XML_ATTR"
)

// Hints describe where a URI was found.
type Hints map[string]string

// ExternalReference is a URI found in cajoled content.
type ExternalReference struct {
	URI *url.URL
	Pos position.FilePosition
}

func (r ExternalReference) String() string {
	if r.URI == nil {
		return ""
	}
	return r.URI.String()
}

// Policy approves and rewrites external references. Rewrite returns false
// to reject the reference.
type Policy interface {
	Rewrite(ref ExternalReference, effect Effect, loader LoaderType, hints Hints) (string, bool)
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(ref ExternalReference, effect Effect, loader LoaderType, hints Hints) (string, bool)

func (f PolicyFunc) Rewrite(ref ExternalReference, effect Effect, loader LoaderType, hints Hints) (string, bool) {
	return f(ref, effect, loader, hints)
}

// DenyAll rejects every reference.
var DenyAll Policy = PolicyFunc(func(ExternalReference, Effect, LoaderType, Hints) (string, bool) {
	return "", false
})

// GlobPolicy allows URIs that match one of its glob patterns, matched with
// doublestar against the normalized absolute URI. Other URIs are routed
// through Proxy when it is set and rejected otherwise.
type GlobPolicy struct {
	Allow []string

	// Proxy is a URI template. {url} is replaced with the query-escaped
	// original URI, {effect} and {loader} with the classification.
	Proxy string
}

// NewGlobPolicy checks the patterns and returns a policy.
func NewGlobPolicy(allow []string, proxy string) (*GlobPolicy, error) {
	for _, pat := range allow {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid uri pattern %q", pat)
		}
	}
	return &GlobPolicy{Allow: allow, Proxy: proxy}, nil
}

func (p *GlobPolicy) Rewrite(ref ExternalReference, effect Effect, loader LoaderType, _ Hints) (string, bool) {
	if ref.URI == nil || !isFetchable(ref.URI) {
		return "", false
	}
	uri := ref.URI.String()
	for _, pat := range p.Allow {
		if ok, _ := doublestar.Match(pat, uri); ok {
			return uri, true
		}
	}
	if p.Proxy == "" {
		return "", false
	}
	return strings.NewReplacer(
		"{url}", url.QueryEscape(uri),
		"{effect}", effect.String(),
		"{loader}", loader.String(),
	).Replace(p.Proxy), true
}

func isFetchable(u *url.URL) bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "":
		return true
	}
	return false
}
