// Package schema describes the HTML elements and attributes gadget markup
// may use, and how each attribute's value is checked.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"bennypowers.dev/cajoler/internal/uripolicy"
)

//go:embed html.yaml
var defaultSchemaYAML []byte

// VirtualPrefix starts the names virtualized elements are renamed to.
const VirtualPrefix = "caja-v-"

// Wildcard is the element name of attributes allowed on every element.
const Wildcard = "*"

// ErrInvalidSchema marks a schema document that cannot be used.
var ErrInvalidSchema = errors.New("invalid html schema")

// InvalidSchemaError explains why a schema document was rejected.
type InvalidSchemaError struct {
	Key    string
	Reason string
	Err    error
}

func (e *InvalidSchemaError) Error() string {
	msg := "html schema"
	if e.Key != "" {
		msg += " " + e.Key
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidSchemaError) Unwrap() error {
	return ErrInvalidSchema
}

// AttributeType decides how an attribute value is sanitized.
type AttributeType int

const (
	TypeNone AttributeType = iota
	TypeClasses
	TypeFrameTarget
	TypeLocalName
	TypeGlobalName
	TypeID
	TypeIDRef
	TypeIDRefs
	TypeScript
	TypeStyle
	TypeURI
	TypeURIFragment
)

var attributeTypeNames = [...]string{
	TypeNone:        "none",
	TypeClasses:     "classes",
	TypeFrameTarget: "frame_target",
	TypeLocalName:   "local_name",
	TypeGlobalName:  "global_name",
	TypeID:          "id",
	TypeIDRef:       "idref",
	TypeIDRefs:      "idrefs",
	TypeScript:      "script",
	TypeStyle:       "style",
	TypeURI:         "uri",
	TypeURIFragment: "uri_fragment",
}

func (t AttributeType) String() string {
	if int(t) < len(attributeTypeNames) {
		return attributeTypeNames[t]
	}
	return fmt.Sprintf("AttributeType(%d)", int(t))
}

// UnmarshalText parses a type name as written in the schema.
func (t *AttributeType) UnmarshalText(text []byte) error {
	for i, name := range attributeTypeNames {
		if name == string(text) {
			*t = AttributeType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown attribute type %q", text)
}

// Element describes an allowed element.
type Element struct {
	Name           string `yaml:"name"`
	Empty          bool   `yaml:"empty"`
	OptionalEndTag bool   `yaml:"optionalEndTag"`
	Virtualized    bool   `yaml:"virtualized"`
	// Attributes lists the element's own attributes followed by the global
	// ones it does not override.
	Attributes []*Attribute `yaml:"-"`
}

// Attribute describes an allowed attribute.
type Attribute struct {
	Element string
	Name    string
	Type    AttributeType
	// Default is the value a browser assumes when the attribute is absent.
	Default    string
	HasDefault bool
	// SafeValue replaces a value that cannot be sanitized.
	SafeValue    string
	HasSafeValue bool
	Valueless    bool
	Optional     bool
	URIEffect    uripolicy.Effect
	LoaderType   uripolicy.LoaderType
	Criterion    Criterion
}

// Key names the attribute as element::name.
func (a *Attribute) Key() string {
	return a.Element + "::" + a.Name
}

// attributeDef is an attribute as written in the schema document.
type attributeDef struct {
	Element    string        `yaml:"element"`
	Name       string        `yaml:"name"`
	Type       AttributeType `yaml:"type"`
	Default    *string       `yaml:"default"`
	SafeValue  *string       `yaml:"safeValue"`
	Optional   *bool         `yaml:"optional"`
	Valueless  bool          `yaml:"valueless"`
	URIEffect  string        `yaml:"uriEffect"`
	LoaderType string        `yaml:"loaderType"`
	Criterion  string        `yaml:"criterion"`
	Values     []string      `yaml:"values"`
	Pattern    string        `yaml:"pattern"`
}

type schemaFile struct {
	Elements   []*Element      `yaml:"elements"`
	Attributes []*attributeDef `yaml:"attributes"`
}

// HTMLSchema answers which elements and attributes are allowed.
type HTMLSchema struct {
	elements   map[string]*Element
	attributes map[string]*Attribute
}

// Load parses a schema document.
func Load(data []byte) (*HTMLSchema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &InvalidSchemaError{Reason: "decoding", Err: err}
	}
	s := &HTMLSchema{
		elements:   make(map[string]*Element, len(f.Elements)),
		attributes: make(map[string]*Attribute, len(f.Attributes)),
	}
	byElement := map[string][]*Attribute{}
	for _, def := range f.Attributes {
		a, err := def.build()
		if err != nil {
			return nil, err
		}
		if _, dup := s.attributes[a.Key()]; dup {
			return nil, &InvalidSchemaError{Key: a.Key(), Reason: "duplicate attribute"}
		}
		s.attributes[a.Key()] = a
		byElement[a.Element] = append(byElement[a.Element], a)
	}
	for _, el := range f.Elements {
		el.Name = strings.ToLower(el.Name)
		if el.Name == "" {
			return nil, &InvalidSchemaError{Reason: "element without a name"}
		}
		if _, dup := s.elements[el.Name]; dup {
			return nil, &InvalidSchemaError{Key: el.Name, Reason: "duplicate element"}
		}
		el.Attributes = append(el.Attributes, byElement[el.Name]...)
		for _, g := range byElement[Wildcard] {
			if _, own := s.attributes[el.Name+"::"+g.Name]; !own {
				el.Attributes = append(el.Attributes, g)
			}
		}
		s.elements[el.Name] = el
	}
	for key, a := range s.attributes {
		if a.Element != Wildcard {
			if _, ok := s.elements[a.Element]; !ok {
				return nil, &InvalidSchemaError{Key: key, Reason: "attribute of unknown element"}
			}
		}
	}
	// Virtualized elements are also allowed under their renamed form.
	for _, el := range f.Elements {
		if !el.Virtualized {
			continue
		}
		name := el.Name
		renamed := *el
		renamed.Name = VirtualPrefix + name
		renamed.Virtualized = false
		s.elements[renamed.Name] = &renamed
		for _, a := range byElement[name] {
			ra := *a
			ra.Element = renamed.Name
			s.attributes[ra.Key()] = &ra
		}
	}
	return s, nil
}

func (def *attributeDef) build() (*Attribute, error) {
	a := &Attribute{
		Element:   strings.ToLower(def.Element),
		Name:      strings.ToLower(def.Name),
		Type:      def.Type,
		Valueless: def.Valueless,
		Optional:  def.Optional == nil || *def.Optional,
	}
	if a.Element == "" || a.Name == "" {
		return nil, &InvalidSchemaError{Key: a.Key(), Reason: "attribute needs an element and a name"}
	}
	var err error
	if a.URIEffect, err = uripolicy.ParseEffect(def.URIEffect); err != nil {
		return nil, &InvalidSchemaError{Key: a.Key(), Reason: "uriEffect", Err: err}
	}
	if a.LoaderType, err = uripolicy.ParseLoaderType(def.LoaderType); err != nil {
		return nil, &InvalidSchemaError{Key: a.Key(), Reason: "loaderType", Err: err}
	}

	var criteria []Criterion
	if def.Criterion != "" {
		re, ok := namedCriteria[def.Criterion]
		if !ok {
			return nil, &InvalidSchemaError{Key: a.Key(), Reason: "unknown criterion " + def.Criterion}
		}
		criteria = append(criteria, Matching(re))
	}
	if len(def.Values) > 0 {
		criteria = append(criteria, OneOf(def.Values...))
	}
	if def.Pattern != "" {
		re, err := regexp.Compile("(?i:" + def.Pattern + ")")
		if err != nil {
			return nil, &InvalidSchemaError{Key: a.Key(), Reason: "pattern", Err: err}
		}
		criteria = append(criteria, Matching(re))
	}
	switch len(criteria) {
	case 0:
		a.Criterion = Any
	case 1:
		a.Criterion = criteria[0]
	default:
		a.Criterion = AllOf(criteria...)
	}
	if a.Valueless && !a.Criterion.Accept("") {
		a.Criterion = AnyOf(a.Criterion, OneOf(""))
	}

	if def.Default != nil {
		a.Default, a.HasDefault = *def.Default, true
	}
	switch {
	case def.SafeValue != nil:
		a.SafeValue, a.HasSafeValue = *def.SafeValue, true
	case (a.HasDefault || a.Valueless) && a.Criterion.Accept(a.Default):
		a.SafeValue, a.HasSafeValue = a.Default, true
	case len(def.Values) > 0:
		a.SafeValue, a.HasSafeValue = def.Values[0], true
	}
	return a, nil
}

// Default returns the built-in schema.
var Default = sync.OnceValue(func() *HTMLSchema {
	s, err := Load(defaultSchemaYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in html schema: %v", err))
	}
	return s
})

// IsElementAllowed reports whether markup may contain the element.
func (s *HTMLSchema) IsElementAllowed(name string) bool {
	name = strings.ToLower(name)
	_, ok := s.elements[name]
	return ok || strings.HasPrefix(name, VirtualPrefix)
}

// LookupElement returns the element's description.
func (s *HTMLSchema) LookupElement(name string) (*Element, bool) {
	el, ok := s.elements[strings.ToLower(name)]
	return el, ok
}

// LookupAttribute returns the description of the attribute on element,
// falling back to the global attribute of that name.
func (s *HTMLSchema) LookupAttribute(element, name string) (*Attribute, bool) {
	element, name = strings.ToLower(element), strings.ToLower(name)
	if a, ok := s.attributes[element+"::"+name]; ok {
		return a, true
	}
	a, ok := s.attributes[Wildcard+"::"+name]
	return a, ok
}

// IsAttributeAllowed reports whether the attribute may appear on element.
// data-caja-* attributes are allowed unless they end in "___".
func (s *HTMLSchema) IsAttributeAllowed(element, name string) bool {
	if _, ok := s.LookupAttribute(element, name); ok {
		return true
	}
	name = strings.ToLower(name)
	return strings.HasPrefix(name, "data-caja-") && !strings.HasSuffix(name, "___")
}

// IsElementVirtualized reports whether the element is renamed in output.
func (s *HTMLSchema) IsElementVirtualized(name string) bool {
	el, ok := s.elements[strings.ToLower(name)]
	return ok && el.Virtualized
}

// VirtualToRealElementName returns the name a virtualized element is
// written as, or name itself.
func (s *HTMLSchema) VirtualToRealElementName(name string) string {
	if s.IsElementVirtualized(name) {
		return VirtualPrefix + strings.ToLower(name)
	}
	return name
}

// RealToVirtualElementName inverts VirtualToRealElementName.
func (s *HTMLSchema) RealToVirtualElementName(name string) string {
	if virtual, ok := strings.CutPrefix(strings.ToLower(name), VirtualPrefix); ok && s.IsElementVirtualized(virtual) {
		return virtual
	}
	return name
}
