package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/schema"
	"bennypowers.dev/cajoler/internal/uripolicy"
)

func TestDefaultSchemaElements(t *testing.T) {
	s := schema.Default()
	assert.True(t, s.IsElementAllowed("DIV"))
	assert.False(t, s.IsElementAllowed("iframe"))
	assert.False(t, s.IsElementAllowed("script"))
	assert.True(t, s.IsElementAllowed("caja-v-anything"))

	img, ok := s.LookupElement("img")
	require.True(t, ok)
	assert.True(t, img.Empty)

	var names []string
	for _, a := range img.Attributes {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, "src")
	assert.Contains(t, names, "id", "global attributes are listed")
}

func TestVirtualization(t *testing.T) {
	s := schema.Default()
	assert.True(t, s.IsElementVirtualized("body"))
	assert.False(t, s.IsElementVirtualized("div"))
	assert.False(t, s.IsElementVirtualized("caja-v-body"))
	assert.Equal(t, "caja-v-title", s.VirtualToRealElementName("title"))
	assert.Equal(t, "p", s.VirtualToRealElementName("p"))
	assert.Equal(t, "head", s.RealToVirtualElementName("caja-v-head"))
	assert.Equal(t, "caja-v-p", s.RealToVirtualElementName("caja-v-p"))

	_, ok := s.LookupAttribute("caja-v-body", "onload")
	assert.True(t, ok, "renamed elements keep their attributes")
}

// TestLookupAttribute tests element specific lookups and the global fallback
func TestLookupAttribute(t *testing.T) {
	s := schema.Default()

	href, ok := s.LookupAttribute("A", "HREF")
	require.True(t, ok)
	assert.Equal(t, schema.TypeURI, href.Type)
	assert.Equal(t, uripolicy.NewDocument, href.URIEffect)
	assert.Equal(t, uripolicy.Unsandboxed, href.LoaderType)
	assert.Equal(t, "a::href", href.Key())

	id, ok := s.LookupAttribute("span", "id")
	require.True(t, ok)
	assert.Equal(t, "*::id", id.Key())
	assert.Equal(t, schema.TypeID, id.Type)

	_, ok = s.LookupAttribute("span", "href")
	assert.False(t, ok)

	assert.True(t, s.IsAttributeAllowed("div", "data-caja-x"))
	assert.False(t, s.IsAttributeAllowed("div", "data-caja-x___"))
	assert.False(t, s.IsAttributeAllowed("div", "onerror"))
}

func TestSafeValues(t *testing.T) {
	s := schema.Default()
	tests := []struct {
		element, attr string
		safe          string
		has           bool
	}{
		{"label", "for", "", true},      // accepted default
		{"a", "target", "_blank", true}, // explicit
		{"input", "type", "text", true}, // default among values
		{"th", "scope", "row", true},    // first value
		{"td", "colspan", "1", true},    // default matches criterion
		{"img", "width", "", false},     // nothing acceptable
		{"input", "checked", "", true},  // valueless accepts blank
		{"form", "method", "get", true},
		{"a", "href", "", false}, // no default
	}
	for _, tt := range tests {
		t.Run(tt.element+"::"+tt.attr, func(t *testing.T) {
			a, ok := s.LookupAttribute(tt.element, tt.attr)
			require.True(t, ok)
			assert.Equal(t, tt.has, a.HasSafeValue)
			assert.Equal(t, tt.safe, a.SafeValue)
		})
	}
}

func TestCriteria(t *testing.T) {
	s := schema.Default()
	accept := func(el, attr, v string) bool {
		a, ok := s.LookupAttribute(el, attr)
		require.True(t, ok)
		return a.Criterion.Accept(v)
	}
	assert.True(t, accept("td", "colspan", "3"))
	assert.False(t, accept("td", "colspan", "3x"))
	assert.True(t, accept("img", "width", "50%"))
	assert.True(t, accept("div", "dir", "RTL"))
	assert.False(t, accept("div", "dir", "up"))
	assert.True(t, accept("div", "lang", "en-US"))
	assert.True(t, accept("input", "checked", ""))
	assert.True(t, accept("div", "title", "anything <at> all"))
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":          "elements: [",
		"unknown type":      "attributes:\n  - {element: '*', name: x, type: colour}\n",
		"unknown criterion": "attributes:\n  - {element: '*', name: x, criterion: prime}\n",
		"bad pattern":       "attributes:\n  - {element: '*', name: x, pattern: '('}\n",
		"bad effect":        "attributes:\n  - {element: '*', name: x, uriEffect: SOMETIMES}\n",
		"orphan attribute":  "attributes:\n  - {element: p, name: x}\n",
		"duplicate element": "elements:\n  - name: p\n  - name: P\n",
		"duplicate attr":    "attributes:\n  - {element: '*', name: x}\n  - {element: '*', name: X}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := schema.Load([]byte(doc))
			assert.ErrorIs(t, err, schema.ErrInvalidSchema)
		})
	}
}
