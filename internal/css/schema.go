package css

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed properties.yaml
var defaultSchemaYAML []byte

// SchemaError reports a property schema that could not be loaded.
type SchemaError struct {
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("css schema: %s: %v", e.Detail, e.Err)
	}
	return "css schema: " + e.Detail
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Part is one slot of a property value.
type Part struct {
	Name     string     `yaml:"name"`
	Types    []PartType `yaml:"types"`
	Keywords []string   `yaml:"keywords"`
}

// Property describes the values a property accepts.
type Property struct {
	Name     string `yaml:"name"`
	Parts    []Part `yaml:"parts"`
	MaxTerms int    `yaml:"maxTerms"`
	Commas   bool   `yaml:"commas"`
	Slash    bool   `yaml:"slash"`
	LinkSafe bool   `yaml:"linkSafe"`
}

// HasKeyword reports whether the part lists kw, ignoring case.
func (p Part) HasKeyword(kw string) bool {
	return slices.ContainsFunc(p.Keywords, func(k string) bool {
		return strings.EqualFold(k, kw)
	})
}

// Accepts reports whether the part lists t among its types.
func (p Part) Accepts(t PartType) bool {
	return slices.Contains(p.Types, t)
}

// Schema is a set of known properties keyed by lower case name.
type Schema struct {
	props map[string]*Property
}

type schemaFile struct {
	Properties []*Property `yaml:"properties"`
}

// LoadSchema parses a YAML property list.
func LoadSchema(data []byte) (*Schema, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &SchemaError{Detail: "decoding", Err: err}
	}
	s := &Schema{props: make(map[string]*Property, len(f.Properties))}
	for _, p := range f.Properties {
		if p.Name == "" {
			return nil, &SchemaError{Detail: "property without a name"}
		}
		if len(p.Parts) == 0 {
			return nil, &SchemaError{Detail: "property " + p.Name + " has no parts"}
		}
		key := strings.ToLower(p.Name)
		if _, dup := s.props[key]; dup {
			return nil, &SchemaError{Detail: "duplicate property " + p.Name}
		}
		s.props[key] = p
	}
	return s, nil
}

var defaultSchema = sync.OnceValue(func() *Schema {
	s, err := LoadSchema(defaultSchemaYAML)
	if err != nil {
		panic(err)
	}
	return s
})

// DefaultSchema returns the built-in property whitelist.
func DefaultSchema() *Schema { return defaultSchema() }

// Lookup returns the property named name.
func (s *Schema) Lookup(name string) (*Property, bool) {
	p, ok := s.props[strings.ToLower(name)]
	return p, ok
}

// IsLinkSafe reports whether name may be styled on visited links. Such
// properties cannot load resources or change layout.
func (s *Schema) IsLinkSafe(name string) bool {
	p, ok := s.Lookup(name)
	return ok && p.LinkSafe
}

// Names returns the known property names, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.props))
	for n := range s.props {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
