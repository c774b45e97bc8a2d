// Package cajoler turns gadget markup, stylesheets and scripts into content
// that is safe to embed in a container page.
//
// Each Cajole method takes source text and returns a Result; problems with
// the content are reported as messages on the Result and never as errors.
package cajoler

import (
	"errors"
	"net/url"

	"bennypowers.dev/cajoler/internal/config"
	"bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/log"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/parser/common"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/quasi"
	"bennypowers.dev/cajoler/internal/schema"
	"bennypowers.dev/cajoler/internal/templates"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// Cajoler holds the schemas and policies applied to every document. It is
// safe for concurrent use; per-document state lives in the methods.
type Cajoler struct {
	cfg    config.Config
	html   *schema.HTMLSchema
	css    *css.Schema
	quasi  *quasi.Builder
	policy uripolicy.Policy
	base   *url.URL
}

// Option configures a Cajoler.
type Option func(*Cajoler)

// WithHTMLSchema replaces the built-in HTML schema.
func WithHTMLSchema(s *schema.HTMLSchema) Option {
	return func(c *Cajoler) { c.html = s }
}

// WithCSSSchema replaces the built-in CSS property schema.
func WithCSSSchema(s *css.Schema) Option {
	return func(c *Cajoler) { c.css = s }
}

// WithQuasiBuilder shares a pattern builder, and so its cache, between
// cajolers.
func WithQuasiBuilder(b *quasi.Builder) Option {
	return func(c *Cajoler) { c.quasi = b }
}

// WithURIPolicy replaces the policy built from the configuration.
func WithURIPolicy(p uripolicy.Policy) Option {
	return func(c *Cajoler) { c.policy = p }
}

// New returns a cajoler for cfg.
func New(cfg config.Config, opts ...Option) (*Cajoler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Cajoler{cfg: cfg}
	// Validate has already checked both
	c.base, _ = cfg.Base()
	c.policy, _ = cfg.Policy()
	for _, opt := range opts {
		opt(c)
	}
	if c.html == nil {
		c.html = schema.Default()
	}
	if c.css == nil {
		c.css = css.DefaultSchema()
	}
	if c.quasi == nil {
		c.quasi = quasi.NewBuilder(quasi.WithCache(quasi.NewCache(cfg.CacheSize())))
	}
	return c, nil
}

// Config returns the configuration the cajoler was built with.
func (c *Cajoler) Config() config.Config { return c.cfg }

// Quasi returns the builder used for synthesized code.
func (c *Cajoler) Quasi() *quasi.Builder { return c.quasi }

// Result is the outcome of cajoling one document.
type Result struct {
	Source string
	// Output is the rewritten stylesheet, markup or script. It is empty
	// for a stylesheet whose id class is only known at runtime.
	Output string
	// Module is the code the container runs alongside Output: extracted
	// event handlers, attribute values computed at runtime, stylesheets and
	// the document's scripts.
	Module   *js.Node
	Messages []message.Message
}

// HasErrors reports whether any message is at Error level or above.
func (r *Result) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Level >= message.Error {
			return true
		}
	}
	return false
}

// Script renders Module, or returns "" when there is none.
func (r *Result) Script() string {
	if r.Module == nil || len(r.Module.Children) == 0 {
		return ""
	}
	return js.RenderProgram(r.Module)
}

func (c *Cajoler) newMeta() *templates.PluginMeta {
	return templates.NewPluginMeta(
		templates.WithIDClass(c.cfg.IDClass),
		templates.WithURIPolicy(c.policy),
		templates.WithBaseURI(c.base),
	)
}

func (c *Cajoler) finish(res *Result, q *message.Queue) *Result {
	res.Messages = q.Messages()
	log.Debug("cajoled %s: %d messages", res.Source, len(res.Messages))
	return res
}

// reportSyntax queues a parse failure of a whole document.
func reportSyntax(q *message.Queue, what, name string, err error) {
	var se *common.SyntaxError
	if errors.As(err, &se) {
		pos := se.Pos
		if pos.IsUnknown() {
			pos = position.Origin(name)
		}
		q.Add(message.ParseError, pos, what, se.Err.Error()+": "+se.Detail)
		return
	}
	q.Add(message.ParseError, position.Origin(name), what, err.Error())
}
