package css

import (
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"

	"bennypowers.dev/cajoler/internal/message"
)

var (
	lengthUnits = map[string]bool{
		"px": true, "em": true, "ex": true, "rem": true, "ch": true,
		"vw": true, "vh": true, "vmin": true, "vmax": true,
		"cm": true, "mm": true, "in": true, "pt": true, "pc": true,
	}
	angleUnits = map[string]bool{"deg": true, "rad": true, "grad": true, "turn": true}
	timeUnits  = map[string]bool{"s": true, "ms": true}

	colorFunctions = map[string]bool{"rgb": true, "rgba": true, "hsl": true, "hsla": true}

	// attribute selector operators whose matching cannot be used to probe
	// attribute values one character at a time
	attribOperators = map[string]bool{"": true, "=": true, "~=": true, "|=": true}

	globalKeywords = map[string]bool{"inherit": true, "initial": true}
)

// Validator checks declarations against a Schema and records the part each
// term fills in the term's attributes.
type Validator struct {
	schema       *Schema
	queue        *message.Queue
	invalidLevel message.Level
}

// NewValidator returns a validator reporting to queue. Invalid constructs
// are reported at Error unless overridden with WithInvalidNodeLevel.
func NewValidator(queue *message.Queue, opts ...Option) *Validator {
	o := newOptions(opts)
	return &Validator{schema: o.schema, queue: queue, invalidLevel: o.invalidLevel}
}

// Validate checks every declaration and attribute selector below n and
// marks what it rejects invalid. It reports whether n was fully valid.
func (v *Validator) Validate(n *Node) bool {
	ok := true
	Walk(n, func(n, _ *Node) bool {
		switch n.Kind {
		case KindPropertyDeclaration:
			ok = v.validateDeclaration(n) && ok
			return false
		case KindAttrib:
			if len(n.Children) == 2 && !attribOperators[n.Children[0].StringValue()] {
				v.queue.AddAt(message.UnsupportedCSSConstruct, v.invalidLevel, n.Pos,
					"["+n.StringValue()+n.Children[0].StringValue()+"]")
				n.Attrs.Invalid = true
				ok = false
			}
			return false
		}
		return true
	})
	return ok
}

func (v *Validator) validateDeclaration(decl *Node) bool {
	prop := decl.Children[0]
	name := strings.ToLower(prop.StringValue())
	schema, known := v.schema.Lookup(name)
	if !known {
		v.queue.AddAt(message.UnknownCSSProperty, v.invalidLevel, prop.Pos, name)
		prop.Attrs.Invalid = true
		return false
	}
	expr := decl.Children[1]
	if reason := v.checkExpr(schema, expr); reason != "" {
		v.queue.AddAt(message.MalformedCSSPropertyValue, v.invalidLevel, expr.Pos, name, reason)
		prop.Attrs.Invalid = true
		return false
	}
	return true
}

// checkExpr classifies each term and returns why the value was rejected, or
// "" when it was accepted.
func (v *Validator) checkExpr(p *Property, expr *Node) string {
	terms := (len(expr.Children) + 1) / 2
	if terms == 1 {
		if atom := expr.Children[0].Children[0]; atom.Kind == KindIdentLiteral && globalKeywords[strings.ToLower(atom.StringValue())] {
			expr.Children[0].Attrs.PropertyPart = p.Name + "::" + p.Parts[0].Name
			expr.Children[0].Attrs.PartType = PartIdentifier
			return ""
		}
	}
	if p.MaxTerms > 0 && terms > p.MaxTerms {
		return "too many values"
	}
	for i, c := range expr.Children {
		if i%2 == 1 {
			switch op := c.Value.(Operator); {
			case op == OpComma && !p.Commas, op == OpDiv && !p.Slash:
				return "unexpected " + op.String()
			}
			continue
		}
		part, typ, ok := v.classify(p, c)
		if !ok {
			return Render(c, "")
		}
		c.Attrs.PropertyPart = p.Name + "::" + part.Name
		c.Attrs.PartType = typ
	}
	return ""
}

func (v *Validator) classify(p *Property, term *Node) (Part, PartType, bool) {
	atom := term.Children[0]
	sign := term.StringValue()
	// types are in order of preference
	candidates := func(types ...PartType) (Part, PartType, bool) {
		for _, t := range types {
			for _, part := range p.Parts {
				if part.Accepts(t) {
					return part, t, true
				}
			}
		}
		return Part{}, PartUnknown, false
	}
	if sign != "" && atom.Kind != KindQuantityLiteral {
		return Part{}, PartUnknown, false
	}
	switch atom.Kind {
	case KindIdentLiteral:
		word := atom.StringValue()
		for _, part := range p.Parts {
			if part.HasKeyword(word) {
				return part, PartIdentifier, true
			}
			if part.Accepts(PartColor) && isColor(word) {
				return part, PartColor, true
			}
			if part.Accepts(PartLooseWord) {
				return part, PartLooseWord, true
			}
		}
	case KindQuantityLiteral:
		num, unit, ok := SplitQuantity(atom.StringValue())
		if !ok {
			break
		}
		unit = strings.ToLower(unit)
		switch {
		case unit == "":
			if !strings.ContainsAny(num, ".eE") {
				return candidates(PartInteger, PartNumber, PartLength)
			}
			return candidates(PartNumber, PartLength)
		case unit == "%":
			return candidates(PartPercentage)
		case lengthUnits[unit]:
			return candidates(PartLength)
		case angleUnits[unit]:
			return candidates(PartAngle)
		case timeUnits[unit]:
			return candidates(PartTime)
		}
	case KindHashLiteral:
		if isColor(atom.StringValue()) {
			return candidates(PartColor)
		}
	case KindStringLiteral:
		return candidates(PartString)
	case KindURILiteral, KindSafeURILiteral, KindUnsafeURILiteral:
		return candidates(PartURI)
	case KindFunctionCall:
		if colorFunctions[strings.ToLower(atom.StringValue())] && isColor(Render(atom, "")) {
			return candidates(PartColor)
		}
	}
	return Part{}, PartUnknown, false
}

func isColor(s string) bool {
	_, err := csscolorparser.Parse(s)
	return err == nil
}

// SplitQuantity splits a numeric literal such as "1.5em" into its number and
// unit.
func SplitQuantity(s string) (num, unit string, ok bool) {
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.') {
		end++
	}
	// exponent, but not the start of an "em" or "ex" unit
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') && end+1 < len(s) &&
		(s[end+1] >= '0' && s[end+1] <= '9' || (s[end+1] == '-' || s[end+1] == '+') && end+2 < len(s) && s[end+2] >= '0' && s[end+2] <= '9') {
		end += 2
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
	}
	num, unit = s[:end], s[end:]
	if _, err := strconv.ParseFloat(num, 64); err != nil {
		return "", "", false
	}
	return num, unit, true
}

// isZero reports whether a quantity's number is zero.
func isZero(num string) bool {
	f, err := strconv.ParseFloat(num, 64)
	return err == nil && f == 0
}
