// Package templates rewrites the attributes of gadget markup into values
// and expressions that are safe to hand to the container.
package templates

import (
	"net/url"
	"strconv"
	"sync/atomic"

	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/quasi"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// PluginMeta holds what is known about the gadget being cajoled.
type PluginMeta struct {
	idClass string
	policy  uripolicy.Policy
	base    *url.URL
	counter atomic.Int64
}

// MetaOption configures a PluginMeta.
type MetaOption func(*PluginMeta)

// WithIDClass fixes the suffix appended to gadget identifiers. Without one
// the suffix is looked up at runtime.
func WithIDClass(idClass string) MetaOption {
	return func(m *PluginMeta) { m.idClass = idClass }
}

// WithURIPolicy rewrites URIs while cajoling instead of at runtime.
func WithURIPolicy(p uripolicy.Policy) MetaOption {
	return func(m *PluginMeta) { m.policy = p }
}

// WithBaseURI resolves relative URIs against base.
func WithBaseURI(base *url.URL) MetaOption {
	return func(m *PluginMeta) { m.base = base }
}

// NewPluginMeta returns plugin metadata configured by opts.
func NewPluginMeta(opts ...MetaOption) *PluginMeta {
	m := &PluginMeta{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GenerateUniqueName returns prefix_N___ with N unique to this gadget.
func (m *PluginMeta) GenerateUniqueName(prefix string) string {
	return prefix + "_" + strconv.FormatInt(m.counter.Add(1), 10) + "___"
}

// IDClass returns the static identifier suffix, or "" when it is chosen at
// runtime.
func (m *PluginMeta) IDClass() string { return m.idClass }

// URIPolicy returns the policy URIs are checked against, or nil.
func (m *PluginMeta) URIPolicy() uripolicy.Policy { return m.policy }

// BaseURI returns the URI relative references resolve against, or nil.
func (m *PluginMeta) BaseURI() *url.URL { return m.base }

// SetBaseURI changes the base, as a <base> element does.
func (m *PluginMeta) SetBaseURI(base *url.URL) { m.base = base }

// IDClassExpr evaluates to the identifier suffix.
func (m *PluginMeta) IDClassExpr(b *quasi.Builder, pos position.FilePosition) *js.Node {
	if m.idClass != "" {
		return js.NewString(pos, m.idClass)
	}
	return b.Subst("IMPORTS___.getIdClass___()", nil)
}
