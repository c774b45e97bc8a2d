package templates

import (
	"fmt"
	"regexp"
	"strings"

	"bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/js"
	"bennypowers.dev/cajoler/internal/message"
	"bennypowers.dev/cajoler/internal/position"
	"bennypowers.dev/cajoler/internal/quasi"
	"bennypowers.dev/cajoler/internal/schema"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

// ThisNode replaces this in extracted event handlers.
const ThisNode = "thisNode___"

var (
	// identifiers ending in __ are reserved for the container
	forbiddenID = regexp.MustCompile(`__\s*$`)
	validID     = regexp.MustCompile(`^[A-Za-z0-9_$\-.:;=()\[\]]+$`)
)

// AttrValue is an attribute value waiting to be sanitized.
type AttrValue struct {
	// Element is the tag name of the element holding the attribute.
	Element string
	Info    *schema.Attribute
	Value   string
	// Pos locates the value.
	Pos position.FilePosition
	// Unspecified marks an attribute the markup left out, for which a
	// default is being computed.
	Unspecified bool
	// Content is the script or style text of the value, if it has any.
	Content *EmbeddedContent
}

// SanitizedAttr is the outcome of sanitizing an attribute.
type SanitizedAttr struct {
	// Safe is false when the attribute must be dropped.
	Safe bool
	// Result replaces the value. A safe attribute with no Result keeps its
	// value.
	Result *js.Node
	// HandlerName names the extracted handler the value dispatches to.
	HandlerName string
}

// EventHandler is a function declaration extracted from markup.
type EventHandler struct {
	Pos  position.FilePosition
	Decl *js.Node
}

// AttributeRewriter sanitizes attribute values by their schema type. It
// is not safe for concurrent use.
type AttributeRewriter struct {
	meta      *PluginMeta
	cssSchema *css.Schema
	html      *schema.HTMLSchema
	queue     *message.Queue
	quasi     *quasi.Builder

	// handler names by handler source text
	handlerCache map[string]string
	handlers     []EventHandler
}

// RewriterOption configures an AttributeRewriter.
type RewriterOption func(*AttributeRewriter)

// WithCSSSchema checks style attributes against s.
func WithCSSSchema(s *css.Schema) RewriterOption {
	return func(r *AttributeRewriter) { r.cssSchema = s }
}

// WithHTMLSchema replaces the built-in HTML schema.
func WithHTMLSchema(s *schema.HTMLSchema) RewriterOption {
	return func(r *AttributeRewriter) { r.html = s }
}

// WithQuasiBuilder builds synthesized code with b.
func WithQuasiBuilder(b *quasi.Builder) RewriterOption {
	return func(r *AttributeRewriter) { r.quasi = b }
}

// NewAttributeRewriter returns a rewriter that reports problems to queue.
func NewAttributeRewriter(meta *PluginMeta, queue *message.Queue, opts ...RewriterOption) *AttributeRewriter {
	r := &AttributeRewriter{
		meta:         meta,
		queue:        queue,
		handlerCache: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cssSchema == nil {
		r.cssSchema = css.DefaultSchema()
	}
	if r.html == nil {
		r.html = schema.Default()
	}
	if r.quasi == nil {
		r.quasi = quasi.Default()
	}
	return r
}

// Handlers returns the handlers extracted so far.
func (r *AttributeRewriter) Handlers() []EventHandler {
	return append([]EventHandler(nil), r.handlers...)
}

// Sanitize checks v against its schema type and returns what should
// replace it.
func (r *AttributeRewriter) Sanitize(v AttrValue) SanitizedAttr {
	var dynamic *js.Node
	pos := v.Pos
	value := v.Value
	if v.Content == nil && !v.Unspecified {
		v.Content = embeddedIn(v)
	}

	// Names with local scope pass through unchanged, but may not end in
	// "__". Other names get the gadget suffix.
	switch v.Info.Type {
	case schema.TypeClasses:
		if !r.checkForbiddenIDList(value, pos) {
			return r.noResult(v)
		}
	case schema.TypeFrameTarget:
		dynamic = r.frameTarget(v)
	case schema.TypeLocalName:
		if !r.checkValidID(value, pos) {
			return r.noResult(v)
		}
	case schema.TypeGlobalName, schema.TypeID, schema.TypeIDRef:
		if !r.checkValidID(value, pos) {
			return r.noResult(v)
		}
		dynamic = r.rewriteIdentifiers(pos, value)
	case schema.TypeIDRefs:
		if !r.checkValidIDList(value, pos) {
			return r.noResult(v)
		}
		dynamic = r.rewriteIdentifiers(pos, value)
	case schema.TypeNone:
		if !v.Info.Criterion.Accept(value) {
			r.queue.Add(message.BadAttrib, pos, v.Info.Key(), value)
			return r.noResult(v)
		}
	case schema.TypeScript:
		return r.eventHandler(v)
	case schema.TypeStyle:
		return r.style(v)
	case schema.TypeURI:
		if v.Content != nil {
			return r.scriptURL(v)
		}
		uri, ok := r.uri(v)
		if !ok {
			return r.noResult(v)
		}
		dynamic = uri
	case schema.TypeURIFragment:
		if len(value) < 2 || value[0] != '#' {
			r.queue.Add(message.BadAttrib, pos, v.Info.Key(), value)
			return r.noResult(v)
		}
		id := value[1:]
		if !r.checkValidID(id, pos) {
			return r.noResult(v)
		}
		out := &concatenator{}
		out.appendString(position.StartOf(pos), "#")
		r.appendIdentifiers(out, pos, id)
		dynamic = out.expr(pos)
	default:
		panic(&ContractError{Detail: "unhandled attribute type " + v.Info.Type.String()})
	}
	return SanitizedAttr{Safe: true, Result: dynamic}
}

// embeddedIn returns the script or style carried by an attribute value.
func embeddedIn(v AttrValue) *EmbeddedContent {
	switch v.Info.Type {
	case schema.TypeScript:
		return &EmbeddedContent{Text: v.Value, Pos: v.Pos, Type: ContentScript, Attribute: true}
	case schema.TypeStyle:
		return &EmbeddedContent{Text: v.Value, Pos: v.Pos, Type: ContentStyle, Attribute: true}
	case schema.TypeURI:
		if script, ok := ScriptURL(v.Value); ok {
			return &EmbeddedContent{Text: script, Pos: v.Pos, Type: ContentScript, Attribute: true}
		}
	}
	return nil
}

func (r *AttributeRewriter) frameTarget(v AttrValue) *js.Node {
	value := js.NewString(v.Pos, v.Value)
	if v.Unspecified {
		value = js.NewNull(v.Pos)
	}
	return r.quasi.SubstV(
		"IMPORTS___.rewriteTargetAttribute___(@value, @tagName, @attribName)",
		"value", value,
		"tagName", js.NewString(v.Pos, v.Element),
		"attribName", js.NewString(v.Pos, v.Info.Name))
}

func (r *AttributeRewriter) eventHandler(v AttrValue) SanitizedAttr {
	name, ok := r.handlerCache[v.Value]
	if !ok {
		body := r.script(v)
		if body == nil {
			return r.noResult(v)
		}
		rewriteThis(body)
		name = r.meta.GenerateUniqueName("c")
		decl := r.quasi.SubstV(
			"var @handlerName = ___.markFuncFreeze("+
				"function (event, "+ThisNode+") { @body*; });",
			"handlerName", js.NewIdentifier(position.Unknown, name),
			"body", js.NewContainer(body.Pos, body.Children...))
		r.handlers = append(r.handlers, EventHandler{Pos: v.Pos, Decl: decl})
		r.handlerCache[v.Value] = name
	}
	adapter := r.quasi.SubstV(
		"(function (event) {"+
			"  return ___.plugin_dispatchEvent___("+
			"      this, event, ___.getId(IMPORTS___), @tail);"+
			"})",
		"tail", js.NewReference(v.Pos, name))
	adapter.Pos = v.Pos
	return SanitizedAttr{Safe: true, Result: adapter, HandlerName: name}
}

// scriptURL extracts the script of a javascript: URL. No node or event is
// available to it.
func (r *AttributeRewriter) scriptURL(v AttrValue) SanitizedAttr {
	body := r.script(v)
	if body == nil {
		return r.noResult(v)
	}
	name := r.meta.GenerateUniqueName("c")
	decl := r.quasi.SubstV(
		"var @handlerIndex = IMPORTS___.handlers___.push("+
			"    ___.markFuncFreeze(function () { @body*; })) - 1;",
		"handlerIndex", js.NewIdentifier(position.Unknown, name),
		"body", js.NewContainer(body.Pos, body.Children...))
	r.handlers = append(r.handlers, EventHandler{Pos: v.Pos, Decl: decl})

	adapter := r.quasi.SubstV(
		"'javascript:' + encodeURIComponent("+
			"   'try{void ___.plugin_dispatchToHandler___('"+
			"    + ___.getId(IMPORTS___)"+
			"    + ',' + @handlerIndex + ',[{}])}catch(_){}')",
		"handlerIndex", js.NewReference(position.Unknown, name))
	adapter.Pos = v.Pos
	return SanitizedAttr{Safe: true, Result: adapter, HandlerName: name}
}

func (r *AttributeRewriter) script(v AttrValue) *js.Node {
	if v.Content == nil {
		return nil
	}
	body := v.Content.ParseJS(r.queue)
	if body == nil || len(body.Children) == 0 {
		return nil
	}
	return body
}

// rewriteThis replaces this with ThisNode outside nested functions, since
// the extracted handler receives the node as a parameter.
func rewriteThis(n *js.Node) {
	for i, child := range n.Children {
		switch {
		case child.Kind == js.KindFunctionConstructor:
		case child.Kind == js.KindReference && child.Name() == "this":
			n.Children[i] = js.NewReference(child.Pos, ThisNode)
		default:
			rewriteThis(child)
		}
	}
}

func (r *AttributeRewriter) style(v AttrValue) SanitizedAttr {
	if v.Content == nil {
		return r.noResult(v)
	}
	decls := v.Content.ParseCSS(r.queue)
	if decls == nil || len(decls.Children) == 0 {
		return r.noResult(v)
	}
	opts := []css.Option{
		css.WithSchema(r.cssSchema),
		css.WithInvalidNodeLevel(message.Warning),
		css.WithVirtualizer(r.html),
		css.WithBaseURI(r.meta.BaseURI()),
	}
	if p := r.meta.URIPolicy(); p != nil {
		opts = append(opts, css.WithURIPolicy(p))
	}
	css.NewValidator(r.queue, opts...).Validate(decls)
	css.NewRewriter(r.queue, opts...).Rewrite(decls)

	values := css.ToJS(decls, r.meta.IDClassExpr(r.quasi, v.Pos))
	switch len(values) {
	case 0:
		return r.noResult(v)
	case 1:
		return SanitizedAttr{Safe: true, Result: values[0]}
	}
	panic(&ContractError{Detail: fmt.Sprintf("style attribute produced %d values", len(values))})
}

func (r *AttributeRewriter) uri(v AttrValue) (*js.Node, bool) {
	base := r.meta.BaseURI()
	if strings.HasPrefix(strings.TrimSpace(v.Value), "#") {
		// fragments stay within the gadget
		base = nil
	}
	u, err := uripolicy.Resolve(base, v.Value)
	if err != nil {
		r.queue.Add(message.MalformedURI, v.Pos, v.Value)
		return nil, false
	}
	policy := r.meta.URIPolicy()
	if policy == nil {
		return r.quasi.SubstV(
			"IMPORTS___.rewriteUriInAttribute___(@value, @tagName, @attribName)",
			"value", js.NewString(v.Pos, u.String()),
			"tagName", js.NewString(v.Pos, v.Element),
			"attribName", js.NewString(v.Pos, v.Info.Name)), true
	}
	ref := uripolicy.ExternalReference{URI: u, Pos: v.Pos}
	rewritten, ok := policy.Rewrite(ref, v.Info.URIEffect, v.Info.LoaderType,
		uripolicy.Hints{uripolicy.HintHTMLAttr: v.Info.Key()})
	if !ok {
		r.queue.Add(message.DisallowedURI, v.Pos, u.String())
		return nil, false
	}
	return js.NewString(v.Pos, rewritten), true
}

// checkForbiddenID reports whether value avoids the reserved suffix.
func (r *AttributeRewriter) checkForbiddenID(value string, pos position.FilePosition) bool {
	if !forbiddenID.MatchString(value) {
		return true
	}
	r.queue.AddAt(message.IllegalName, message.Warning, pos, value)
	return false
}

func (r *AttributeRewriter) checkForbiddenIDList(value string, pos position.FilePosition) bool {
	ok := true
	for _, id := range strings.Fields(value) {
		ok = r.checkForbiddenID(id, pos) && ok
	}
	return ok
}

func (r *AttributeRewriter) checkValidID(value string, pos position.FilePosition) bool {
	if !r.checkForbiddenID(value, pos) {
		return false
	}
	if value == "" || validID.MatchString(value) {
		return true
	}
	r.queue.Add(message.IllegalName, pos, value)
	return false
}

func (r *AttributeRewriter) checkValidIDList(value string, pos position.FilePosition) bool {
	ok := true
	for _, id := range strings.Fields(value) {
		ok = r.checkValidID(id, pos) && ok
	}
	return ok
}

// rewriteIdentifiers turns "foo bar" into "foo-<suffix> bar-<suffix>". An
// empty list is left alone.
func (r *AttributeRewriter) rewriteIdentifiers(pos position.FilePosition, names string) *js.Node {
	if strings.TrimSpace(names) == "" {
		return nil
	}
	out := &concatenator{}
	r.appendIdentifiers(out, pos, names)
	return out.expr(pos)
}

func (r *AttributeRewriter) appendIdentifiers(out *concatenator, pos position.FilePosition, names string) {
	suffix := r.meta.IDClassExpr(r.quasi, position.Unknown)
	for i, id := range strings.Fields(names) {
		sep := " "
		if i == 0 {
			sep = ""
		}
		out.appendString(pos, sep+id+"-")
		out.append(suffix.Clone())
		pos = position.EndOf(pos)
	}
}

// noResult substitutes the attribute's safe value when the schema has one.
// Otherwise the attribute is dropped.
func (r *AttributeRewriter) noResult(v AttrValue) SanitizedAttr {
	if v.Info.HasSafeValue {
		return SanitizedAttr{Safe: true, Result: js.NewString(v.Pos, v.Info.SafeValue)}
	}
	return SanitizedAttr{}
}
