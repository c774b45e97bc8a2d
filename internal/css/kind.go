// Package css models CSS stylesheets and declaration groups as typed trees,
// validates them against a property schema and rewrites them so that they
// cannot leak history, escape a gadget's subtree or load unapproved
// resources.
package css

// Kind tags the syntactic form of a Node. The set is closed.
type Kind int

const (
	KindInvalid Kind = iota

	// Structure
	KindStylesheet
	KindMedia
	KindAtRule
	KindRuleSet
	KindDeclarationGroup

	// Selectors
	KindSelector
	KindSimpleSelector
	KindCombination
	KindWildcardElement
	KindClassLiteral
	KindIDLiteral
	KindAttrib
	KindAttribOperation
	KindPseudo
	KindSuffixedSelectorPart

	// Declarations
	KindPropertyDeclaration
	KindEmptyDeclaration
	KindProperty
	KindExpr
	KindTerm
	KindOperation
	KindPrio

	// Expression atoms. IdentLiteral also names elements in selectors.
	KindIdentLiteral
	KindQuantityLiteral
	KindHashLiteral
	KindStringLiteral
	KindURILiteral
	KindFunctionCall
	KindUnicodeRange
	KindSafeURILiteral
	KindUnsafeURILiteral
)

var kindNames = [...]string{
	KindInvalid:              "Invalid",
	KindStylesheet:           "Stylesheet",
	KindMedia:                "Media",
	KindAtRule:               "AtRule",
	KindRuleSet:              "RuleSet",
	KindDeclarationGroup:     "DeclarationGroup",
	KindSelector:             "Selector",
	KindSimpleSelector:       "SimpleSelector",
	KindCombination:          "Combination",
	KindWildcardElement:      "WildcardElement",
	KindClassLiteral:         "ClassLiteral",
	KindIDLiteral:            "IdLiteral",
	KindAttrib:               "Attrib",
	KindAttribOperation:      "AttribOperation",
	KindPseudo:               "Pseudo",
	KindSuffixedSelectorPart: "SuffixedSelectorPart",
	KindPropertyDeclaration:  "PropertyDeclaration",
	KindEmptyDeclaration:     "EmptyDeclaration",
	KindProperty:             "Property",
	KindExpr:                 "Expr",
	KindTerm:                 "Term",
	KindOperation:            "Operation",
	KindPrio:                 "Prio",
	KindIdentLiteral:         "IdentLiteral",
	KindQuantityLiteral:      "QuantityLiteral",
	KindHashLiteral:          "HashLiteral",
	KindStringLiteral:        "StringLiteral",
	KindURILiteral:           "UriLiteral",
	KindFunctionCall:         "FunctionCall",
	KindUnicodeRange:         "UnicodeRange",
	KindSafeURILiteral:       "SafeUriLiteral",
	KindUnsafeURILiteral:     "UnsafeUriLiteral",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsAtom reports whether k may be the child of a Term.
func (k Kind) IsAtom() bool {
	return k >= KindIdentLiteral && k <= KindUnsafeURILiteral
}

// IsDeclaration reports whether k may follow the selectors of a RuleSet.
func (k Kind) IsDeclaration() bool {
	return k == KindPropertyDeclaration || k == KindEmptyDeclaration
}

// IsSelectorPart reports whether k may be the child of a SimpleSelector.
func (k Kind) IsSelectorPart() bool {
	switch k {
	case KindIdentLiteral, KindWildcardElement, KindClassLiteral, KindIDLiteral,
		KindAttrib, KindPseudo, KindSuffixedSelectorPart:
		return true
	}
	return false
}

// Combinator joins simple selectors.
type Combinator int

const (
	Descendant Combinator = iota
	Child
	AdjacentSibling
	GeneralSibling
)

func (c Combinator) String() string {
	switch c {
	case Child:
		return ">"
	case AdjacentSibling:
		return "+"
	case GeneralSibling:
		return "~"
	}
	return " "
}

// Operator separates the terms of an Expr.
type Operator int

const (
	OpNone Operator = iota
	OpComma
	OpDiv
)

func (o Operator) String() string {
	switch o {
	case OpComma:
		return ","
	case OpDiv:
		return "/"
	}
	return " "
}
