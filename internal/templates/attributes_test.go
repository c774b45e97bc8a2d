package templates_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/quasi"
	"bennypowers.dev/cajoler/internal/schema"
	"bennypowers.dev/cajoler/internal/templates"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

var valuePos = position.FilePosition{
	Source: "gadget.html",
	Start:  position.Point{Line: 2, Column: 10, Offset: 20},
	End:    position.Point{Line: 2, Column: 18, Offset: 28},
}

type fixture struct {
	queue    *message.Queue
	meta     *templates.PluginMeta
	rewriter *templates.AttributeRewriter
}

func newFixture(opts ...templates.MetaOption) *fixture {
	f := &fixture{queue: message.NewQueue(), meta: templates.NewPluginMeta(opts...)}
	f.rewriter = templates.NewAttributeRewriter(f.meta, f.queue)
	return f
}

func (f *fixture) sanitize(t *testing.T, element, name, value string) templates.SanitizedAttr {
	t.Helper()
	info, ok := schema.Default().LookupAttribute(element, name)
	require.True(t, ok, "%s::%s", element, name)
	return f.rewriter.Sanitize(templates.AttrValue{
		Element: element,
		Info:    info,
		Value:   value,
		Pos:     valuePos,
	})
}

func rendered(t *testing.T, res templates.SanitizedAttr) string {
	t.Helper()
	require.True(t, res.Safe)
	require.NotNil(t, res.Result)
	return js.Render(res.Result)
}

// TestIDRefFallsBackToSafeValue tests that a reserved identifier is replaced
// by the attribute's default and reported as a warning
func TestIDRefFallsBackToSafeValue(t *testing.T) {
	f := newFixture(templates.WithIDClass("g1"))
	res := f.sanitize(t, "label", "for", "bad id__")

	require.True(t, res.Safe)
	require.NotNil(t, res.Result)
	assert.Equal(t, js.KindStringLiteral, res.Result.Kind)
	assert.Equal(t, "", res.Result.StringValue())

	msgs := f.queue.OfType(message.IllegalName)
	require.Len(t, msgs, 1)
	assert.Equal(t, message.Warning, msgs[0].Level)
	assert.Equal(t, []string{"bad id__"}, msgs[0].Parts)
	assert.False(t, f.queue.HasErrors())
}

func TestIdentifierSuffixes(t *testing.T) {
	tests := []struct {
		name          string
		element, attr string
		value         string
		want          string
	}{
		{"id", "div", "id", "main", "'main-g1'"},
		{"idref", "label", "for", "q", "'q-g1'"},
		{"idrefs", "td", "headers", "a  b", "'a-g1 b-g1'"},
		{"global name", "a", "name", "top", "'top-g1'"},
		{"fragment", "img", "usemap", "#m", "'#m-g1'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(templates.WithIDClass("g1"))
			assert.Equal(t, tt.want, rendered(t, f.sanitize(t, tt.element, tt.attr, tt.value)))
			assert.Zero(t, f.queue.Len())
		})
	}
}

func TestIdentifierSuffixAtRuntime(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "'main-' + IMPORTS___.getIdClass___()",
		rendered(t, f.sanitize(t, "div", "id", "main")))
	assert.Equal(t, "'a-' + IMPORTS___.getIdClass___() + ' b-' + IMPORTS___.getIdClass___()",
		rendered(t, f.sanitize(t, "td", "headers", "a b")))
}

func TestEmptyIdentifierPassesThrough(t *testing.T) {
	f := newFixture(templates.WithIDClass("g1"))
	res := f.sanitize(t, "div", "id", "")
	assert.True(t, res.Safe)
	assert.Nil(t, res.Result)
	assert.Zero(t, f.queue.Len())
}

func TestInvalidIdentifiers(t *testing.T) {
	f := newFixture(templates.WithIDClass("g1"))

	res := f.sanitize(t, "input", "name", "q!")
	assert.False(t, res.Safe)
	msgs := f.queue.OfType(message.IllegalName)
	require.Len(t, msgs, 1)
	assert.Equal(t, message.Error, msgs[0].Level)

	res = f.sanitize(t, "img", "usemap", "m")
	assert.False(t, res.Safe)
	assert.Len(t, f.queue.OfType(message.BadAttrib), 1)
}

func TestClasses(t *testing.T) {
	f := newFixture()
	res := f.sanitize(t, "p", "class", "intro wide")
	assert.True(t, res.Safe)
	assert.Nil(t, res.Result)

	res = f.sanitize(t, "p", "class", "intro wide__")
	assert.False(t, res.Safe)
	msgs := f.queue.OfType(message.IllegalName)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"wide__"}, msgs[0].Parts)
}

func TestFrameTarget(t *testing.T) {
	f := newFixture()
	assert.Equal(t, "IMPORTS___.rewriteTargetAttribute___('_top', 'a', 'target')",
		rendered(t, f.sanitize(t, "a", "target", "_top")))

	info, _ := schema.Default().LookupAttribute("form", "target")
	res := f.rewriter.Sanitize(templates.AttrValue{
		Element:     "form",
		Info:        info,
		Value:       info.Default,
		Pos:         valuePos,
		Unspecified: true,
	})
	assert.Equal(t, "IMPORTS___.rewriteTargetAttribute___(null, 'form', 'target')", rendered(t, res))
}

func TestCriterion(t *testing.T) {
	f := newFixture()
	res := f.sanitize(t, "td", "colspan", "2")
	assert.True(t, res.Safe)
	assert.Nil(t, res.Result)

	assert.Equal(t, "'1'", rendered(t, f.sanitize(t, "td", "colspan", "2x")))
	msgs := f.queue.OfType(message.BadAttrib)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"td::colspan", "2x"}, msgs[0].Parts)
	assert.Equal(t, valuePos, msgs[0].Pos)
}

// TestEventHandler tests that handlers are extracted once per distinct
// source and that this refers to the node
func TestEventHandler(t *testing.T) {
	f := newFixture()
	first := f.sanitize(t, "button", "onclick", "this.value = 1; var f = function () { return this; };")
	second := f.sanitize(t, "div", "onclick", "this.value = 1; var f = function () { return this; };")

	require.True(t, first.Safe)
	assert.Equal(t, "c_1___", first.HandlerName)
	assert.Equal(t, first.HandlerName, second.HandlerName)

	handlers := f.rewriter.Handlers()
	require.Len(t, handlers, 1)
	b, ok := quasi.MatchBindings(
		"var @name = ___.markFuncFreeze(function (event, thisNode___) { @body*; });",
		handlers[0].Decl)
	require.True(t, ok, js.Render(handlers[0].Decl))
	assert.Equal(t, "c_1___", b["name"].Name())
	require.Len(t, b["body"].Children, 2)
	assert.Equal(t, "thisNode___.value = 1;", js.Render(b["body"].Children[0]))
	assert.Contains(t, js.Render(b["body"].Children[1]), "return this;")

	adapter, ok := quasi.MatchBindings(
		"(function (event) { return ___.plugin_dispatchEvent___(this, event, ___.getId(IMPORTS___), @tail); })",
		first.Result)
	require.True(t, ok, js.Render(first.Result))
	assert.Equal(t, "c_1___", adapter["tail"].Name())
}

func TestEventHandlerParseError(t *testing.T) {
	f := newFixture()
	res := f.sanitize(t, "div", "onclick", "if (")
	assert.False(t, res.Safe)
	assert.Empty(t, f.rewriter.Handlers())
	msgs := f.queue.OfType(message.ParseError)
	require.Len(t, msgs, 1)
	assert.Equal(t, "script", msgs[0].Parts[0])
}

func TestScriptURL(t *testing.T) {
	f := newFixture()
	res := f.sanitize(t, "a", "href", "javascript:alert(this)")
	require.True(t, res.Safe)
	assert.Equal(t, "c_1___", res.HandlerName)
	assert.Contains(t, js.Render(res.Result), "encodeURIComponent(")
	assert.Contains(t, js.Render(res.Result), "c_1___")

	handlers := f.rewriter.Handlers()
	require.Len(t, handlers, 1)
	b, ok := quasi.MatchBindings(
		"var @index = IMPORTS___.handlers___.push(___.markFuncFreeze(function () { @body*; })) - 1;",
		handlers[0].Decl)
	require.True(t, ok, js.Render(handlers[0].Decl))
	assert.Equal(t, "alert(this);", js.Render(b["body"].Children[0]))
}

func TestURIWithoutPolicy(t *testing.T) {
	base, err := url.Parse("http://example.com/gadgets/")
	require.NoError(t, err)
	f := newFixture(templates.WithBaseURI(base))
	assert.Equal(t,
		"IMPORTS___.rewriteUriInAttribute___('http://example.com/gadgets/a%20b.html', 'a', 'href')",
		rendered(t, f.sanitize(t, "a", "href", " a b.html")))
}

func TestURIWithPolicy(t *testing.T) {
	var effect uripolicy.Effect
	var hints uripolicy.Hints
	policy := uripolicy.PolicyFunc(func(ref uripolicy.ExternalReference, e uripolicy.Effect, _ uripolicy.LoaderType, h uripolicy.Hints) (string, bool) {
		effect, hints = e, h
		if ref.URI.Host != "example.com" {
			return "", false
		}
		return "http://proxy/?u=" + url.QueryEscape(ref.URI.String()), true
	})
	f := newFixture(templates.WithURIPolicy(policy))

	assert.Equal(t, "'http://proxy/?u=http%3A%2F%2Fexample.com%2Fx'",
		rendered(t, f.sanitize(t, "a", "href", "http://example.com/x")))
	assert.Equal(t, uripolicy.NewDocument, effect)
	assert.Equal(t, "a::href", hints[uripolicy.HintHTMLAttr])

	res := f.sanitize(t, "a", "href", "http://evil.com/")
	assert.False(t, res.Safe)
	msgs := f.queue.OfType(message.DisallowedURI)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"http://evil.com/"}, msgs[0].Parts)
}

func TestMalformedURI(t *testing.T) {
	f := newFixture()
	res := f.sanitize(t, "a", "href", "a\x01b")
	assert.False(t, res.Safe)
	assert.Len(t, f.queue.OfType(message.MalformedURI), 1)
}

func TestStyleAttribute(t *testing.T) {
	f := newFixture(templates.WithIDClass("g1"))
	assert.Equal(t, "'color: red'", rendered(t, f.sanitize(t, "p", "style", "color: red")))
	assert.False(t, f.queue.HasErrors())
}

// TestStyleAttributeProblemsAreWarnings tests that a bad style attribute
// is dropped without failing the gadget
func TestStyleAttributeProblemsAreWarnings(t *testing.T) {
	f := newFixture()
	res := f.sanitize(t, "p", "style", "color: expression(alert(1))")
	assert.False(t, res.Safe)
	assert.NotZero(t, f.queue.Len())
	assert.False(t, f.queue.HasErrors())

	res = f.sanitize(t, "p", "style", "color: red } p { color: blue")
	assert.False(t, res.Safe)
	assert.NotEmpty(t, f.queue.OfType(message.ParseError))
}

func TestUnknownAttributeTypePanics(t *testing.T) {
	f := newFixture()
	defer func() {
		err, ok := recover().(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, templates.ErrContract))
	}()
	f.rewriter.Sanitize(templates.AttrValue{
		Element: "p",
		Info:    &schema.Attribute{Element: "p", Name: "x", Type: schema.AttributeType(99)},
		Pos:     valuePos,
	})
}
