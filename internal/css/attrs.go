package css

// PartType classifies a term by the property part it fills.
type PartType int

const (
	PartUnknown PartType = iota
	PartIdentifier
	PartLooseWord
	PartLength
	PartNumber
	PartInteger
	PartPercentage
	PartAngle
	PartTime
	PartColor
	PartString
	PartURI
)

var partTypeNames = map[string]PartType{
	"identifier": PartIdentifier,
	"looseword":  PartLooseWord,
	"length":     PartLength,
	"number":     PartNumber,
	"integer":    PartInteger,
	"percentage": PartPercentage,
	"angle":      PartAngle,
	"time":       PartTime,
	"color":      PartColor,
	"string":     PartString,
	"uri":        PartURI,
}

func (p PartType) String() string {
	for name, v := range partTypeNames {
		if v == p {
			return name
		}
	}
	return "unknown"
}

// UnmarshalText lets schema files name part types.
func (p *PartType) UnmarshalText(text []byte) error {
	v, ok := partTypeNames[string(text)]
	if !ok {
		return &SchemaError{Detail: "unknown part type " + string(text)}
	}
	*p = v
	return nil
}

// Attributes is the per-node state shared between the validator and the
// rewriter. It lives on the node, so it is scoped to the tree being
// rewritten.
type Attributes struct {
	// Invalid marks a node for removal by the next cleanup.
	Invalid bool

	// PropertyPart names the property part a term was matched to, as
	// "property::part".
	PropertyPart string

	// PartType is the classification of a term within its part.
	PartType PartType
}
