package css_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/cajoler/internal/css"
	"bennypowers.dev/cajoler/internal/message"
)

func TestValidateDeclarations(t *testing.T) {
	tests := []struct {
		name string
		decl *css.Node
		ok   bool
	}{
		{"named color", decl("color", ident("red")), true},
		{"hash color", decl("color", hash("#ABCDEF")), true},
		{"rgb function", decl("color", fn("rgb", qty("1"), comma(), qty("2"), comma(), qty("3"))), true},
		{"inherit", decl("color", ident("inherit")), true},
		{"border shorthand", decl("border", qty("1px"), ident("solid"), ident("red")), true},
		{"font with line height", decl("font", qty("12px"), build(css.KindOperation, css.OpDiv), qty("1.5"), ident("serif")), true},
		{"script function", decl("color", fn("expression", str("alert(1)"))), false},
		{"bad hash", decl("color", hash("#xyz")), false},
		{"integer only", decl("z-index", qty("1.5")), false},
		{"too many terms", decl("margin", qty("1"), qty("2"), qty("3"), qty("4"), qty("5")), false},
		{"comma not allowed", decl("margin", qty("1px"), comma(), qty("2px")), false},
		{"unknown unit", decl("width", qty("3furlongs")), false},
		{"fixed position", decl("position", ident("fixed")), false},
		{"unknown property", decl("behavior", uri("x.htc")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := message.NewQueue()
			ok := css.NewValidator(q).Validate(group(tt.decl))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, !tt.ok, q.HasErrors())
			assert.Equal(t, !tt.ok, tt.decl.Children[0].Attrs.Invalid)
		})
	}
}

func TestValidatorClassifiesTerms(t *testing.T) {
	d := decl("font-family", append(words("Comic Sans"), comma(), ident("cursive"))...)
	require.True(t, css.NewValidator(message.NewQueue()).Validate(d))

	e := d.Children[1]
	assert.Equal(t, "font-family::family", e.Children[0].Attrs.PropertyPart)
	assert.Equal(t, css.PartLooseWord, e.Children[0].Attrs.PartType)
	assert.Equal(t, css.PartLooseWord, e.Children[2].Attrs.PartType)
	assert.Equal(t, css.PartIdentifier, e.Children[4].Attrs.PartType)
}

func TestValidatorLenientLevel(t *testing.T) {
	q := message.NewQueue()
	css.NewValidator(q, css.WithInvalidNodeLevel(message.Warning)).Validate(group(decl("colour", ident("red"))))
	msgs := q.OfType(message.UnknownCSSProperty)
	require.Len(t, msgs, 1)
	assert.Equal(t, message.Warning, msgs[0].Level)
	assert.Equal(t, []string{"colour"}, msgs[0].Parts)
}

func TestSplitQuantity(t *testing.T) {
	tests := []struct {
		in, num, unit string
		ok            bool
	}{
		{"10px", "10", "px", true},
		{"1.5em", "1.5", "em", true},
		{"2e3", "2e3", "", true},
		{"50%", "50", "%", true},
		{"3ex", "3", "ex", true},
		{"px", "", "", false},
	}
	for _, tt := range tests {
		num, unit, ok := css.SplitQuantity(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.num, num, tt.in)
		assert.Equal(t, tt.unit, unit, tt.in)
	}
}
