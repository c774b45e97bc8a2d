package js

// Kind tags the syntactic form of a Node. The set is closed: every switch
// over Kind in this module lists the kinds it handles and treats the rest
// explicitly.
type Kind int

const (
	KindInvalid Kind = iota

	// Expressions
	KindReference
	KindStringLiteral
	KindNumberLiteral
	KindBooleanLiteral
	KindNullLiteral
	KindRegexpLiteral
	KindOperation
	KindArrayConstructor
	KindObjectConstructor
	KindFunctionConstructor

	// Parts of expressions and declarations
	KindIdentifier
	KindFormalParam
	KindValueProperty

	// Statements
	KindBlock
	KindExpressionStmt
	KindDeclaration
	KindMultiDeclaration
	KindFunctionDeclaration
	KindReturnStmt
	KindThrowStmt
	KindIfStmt
	KindWhileLoop
	KindDoWhileLoop
	KindForLoop
	KindForEachLoop
	KindBreakStmt
	KindContinueStmt
	KindLabeledStmt
	KindSwitchStmt
	KindTryStmt
	KindNoop
	KindDirectivePrologue

	// Statement parts
	KindCaseStmt
	KindDefaultCaseStmt
	KindCatchStmt
	KindFinallyStmt
	KindDirective

	// KindContainer holds a run of nodes bound to a multi-hole. It never
	// appears in a tree produced by the parser.
	KindContainer
)

var kindNames = [...]string{
	KindInvalid:             "Invalid",
	KindReference:           "Reference",
	KindStringLiteral:       "StringLiteral",
	KindNumberLiteral:       "NumberLiteral",
	KindBooleanLiteral:      "BooleanLiteral",
	KindNullLiteral:         "NullLiteral",
	KindRegexpLiteral:       "RegexpLiteral",
	KindOperation:           "Operation",
	KindArrayConstructor:    "ArrayConstructor",
	KindObjectConstructor:   "ObjectConstructor",
	KindFunctionConstructor: "FunctionConstructor",
	KindIdentifier:          "Identifier",
	KindFormalParam:         "FormalParam",
	KindValueProperty:       "ValueProperty",
	KindBlock:               "Block",
	KindExpressionStmt:      "ExpressionStmt",
	KindDeclaration:         "Declaration",
	KindMultiDeclaration:    "MultiDeclaration",
	KindFunctionDeclaration: "FunctionDeclaration",
	KindReturnStmt:          "ReturnStmt",
	KindThrowStmt:           "ThrowStmt",
	KindIfStmt:              "IfStmt",
	KindWhileLoop:           "WhileLoop",
	KindDoWhileLoop:         "DoWhileLoop",
	KindForLoop:             "ForLoop",
	KindForEachLoop:         "ForEachLoop",
	KindBreakStmt:           "BreakStmt",
	KindContinueStmt:        "ContinueStmt",
	KindLabeledStmt:         "LabeledStmt",
	KindSwitchStmt:          "SwitchStmt",
	KindTryStmt:             "TryStmt",
	KindNoop:                "Noop",
	KindDirectivePrologue:   "DirectivePrologue",
	KindCaseStmt:            "CaseStmt",
	KindDefaultCaseStmt:     "DefaultCaseStmt",
	KindCatchStmt:           "CatchStmt",
	KindFinallyStmt:         "FinallyStmt",
	KindDirective:           "Directive",
	KindContainer:           "Container",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsExpression reports whether nodes of kind k produce a value.
func (k Kind) IsExpression() bool {
	return k >= KindReference && k <= KindFunctionConstructor
}

// IsStatement reports whether nodes of kind k may appear in a Block.
func (k Kind) IsStatement() bool {
	return k >= KindBlock && k <= KindDirectivePrologue
}

// IsLiteral reports whether k is a literal value kind.
func (k Kind) IsLiteral() bool {
	switch k {
	case KindStringLiteral, KindNumberLiteral, KindBooleanLiteral, KindNullLiteral, KindRegexpLiteral:
		return true
	}
	return false
}
