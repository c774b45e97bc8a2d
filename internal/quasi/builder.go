// Package quasi matches JavaScript trees against quasiliteral patterns and
// builds new trees from them.
//
// A pattern is JavaScript source with holes. @x binds one node, @x? zero or
// one, @x* any run and @x+ a non-empty run of siblings. @x_ binds the part of
// an identifier before a fixed number of trailing underscores, and "@x"
// binds a string literal. Object patterns match properties in any order,
// and "@k*": @v* collects the properties no other member claimed.
//
//	b := quasi.Default()
//	if m, ok := b.MatchBindings("@f(@args*)", call); ok {
//		out := b.SubstV("@f.call(this, @args*)", "f", m["f"], "args", m["args"])
//	}
package quasi

import (
	"fmt"

	"bennypowers.dev/cajoler/internal/js"
)

// Builder compiles, matches and substitutes patterns through a Cache.
type Builder struct {
	cache *Cache
}

// Option configures a Builder.
type Option func(*Builder)

// WithCache makes the builder share an existing cache.
func WithCache(c *Cache) Option {
	return func(b *Builder) {
		b.cache = c
	}
}

// NewBuilder returns a Builder with its own cache of DefaultCacheSize
// patterns unless WithCache is given.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.cache == nil {
		b.cache = NewCache(DefaultCacheSize)
	}
	return b
}

var defaultBuilder = NewBuilder()

// Default returns the process-wide Builder.
func Default() *Builder { return defaultBuilder }

// Cache returns the builder's pattern cache.
func (b *Builder) Cache() *Cache { return b.cache }

// Compile returns the compiled pattern for text.
func (b *Builder) Compile(text string) (*Pattern, error) {
	return b.cache.Get(text)
}

// MustCompile is like Compile but panics on a malformed pattern.
func (b *Builder) MustCompile(text string) *Pattern {
	p, err := b.Compile(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether specimen matches the pattern.
func (b *Builder) Match(text string, specimen *js.Node) bool {
	_, ok := b.MustCompile(text).Match(specimen)
	return ok
}

// MatchBindings matches specimen and returns the bindings, or nil when it
// does not match.
func (b *Builder) MatchBindings(text string, specimen *js.Node) (Bindings, bool) {
	return b.MustCompile(text).Match(specimen)
}

// Subst substitutes bindings into the pattern. Bindings that do not fit the
// pattern are a programming error and panic.
func (b *Builder) Subst(text string, bindings Bindings) *js.Node {
	n, err := b.MustCompile(text).Subst(bindings)
	if err != nil {
		panic(err)
	}
	return n
}

// SubstV is Subst with the bindings given as alternating names and nodes.
// Nil nodes are left unbound.
func (b *Builder) SubstV(text string, args ...any) *js.Node {
	if len(args)%2 != 0 {
		panic(fmt.Errorf("%w: SubstV %q needs name, node pairs, got %d arguments", ErrBinding, text, len(args)))
	}
	bindings := make(Bindings, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		name, ok := args[i].(string)
		if !ok {
			panic(fmt.Errorf("%w: SubstV %q argument %d is %T, want a hole name", ErrBinding, text, i, args[i]))
		}
		switch n := args[i+1].(type) {
		case *js.Node:
			if n != nil {
				bindings[name] = n
			}
		case nil:
		default:
			panic(fmt.Errorf("%w: SubstV %q binding %s is %T, want *js.Node", ErrBinding, text, name, n))
		}
	}
	return b.Subst(text, bindings)
}

// Match reports whether specimen matches the pattern using the default
// builder.
func Match(text string, specimen *js.Node) bool {
	return defaultBuilder.Match(text, specimen)
}

// MatchBindings matches specimen using the default builder.
func MatchBindings(text string, specimen *js.Node) (Bindings, bool) {
	return defaultBuilder.MatchBindings(text, specimen)
}

// Subst substitutes bindings using the default builder.
func Subst(text string, bindings Bindings) *js.Node {
	return defaultBuilder.Subst(text, bindings)
}

// SubstV substitutes name, node pairs using the default builder.
func SubstV(text string, args ...any) *js.Node {
	return defaultBuilder.SubstV(text, args...)
}
