package css

import (
	"net/url"

	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// Virtualizer renames elements that the container replaces with its own
// tags.
type Virtualizer interface {
	IsElementVirtualized(name string) bool
	VirtualToRealElementName(name string) string
}

type options struct {
	schema       *Schema
	invalidLevel message.Level
	policy       uripolicy.Policy
	base         *url.URL
	virtualizer  Virtualizer
}

// Option configures a Validator or Rewriter.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{invalidLevel: message.Error}
	for _, opt := range opts {
		opt(&o)
	}
	if o.schema == nil {
		o.schema = DefaultSchema()
	}
	return o
}

// WithSchema replaces the built-in property schema.
func WithSchema(s *Schema) Option {
	return func(o *options) { o.schema = s }
}

// WithInvalidNodeLevel sets the level at which removed constructs are
// reported. Lenient callers use message.Warning.
func WithInvalidNodeLevel(level message.Level) Option {
	return func(o *options) { o.invalidLevel = level }
}

// WithURIPolicy approves and rewrites URIs statically. Without a policy,
// URIs are left to the runtime.
func WithURIPolicy(p uripolicy.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithBaseURI resolves relative URIs against base.
func WithBaseURI(base *url.URL) Option {
	return func(o *options) { o.base = base }
}

// WithVirtualizer renames virtualized elements in selectors.
func WithVirtualizer(v Virtualizer) Option {
	return func(o *options) { o.virtualizer = v }
}
