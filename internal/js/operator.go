package js

// OperatorType is the syntactic shape of an operator
type OperatorType int

const (
	Prefix OperatorType = iota
	Postfix
	Infix
	Bracket
	Ternary
)

// OperatorCategory groups operators by how they affect evaluation
type OperatorCategory int

const (
	Simple OperatorCategory = iota
	Assignment
	Control
	Special
)

// Associativity of an operator
type Associativity int

const (
	Left Associativity = iota
	Right
)

// Operator names an entry of the operator table. A smaller precedence binds
// more tightly.
type Operator int

const (
	OpInvalid Operator = iota

	MemberAccess
	SquareBracket
	Constructor
	FunctionCall

	PostIncrement
	PostDecrement

	Delete
	Void
	TypeOf
	PreIncrement
	PreDecrement
	ToNumber
	Negation
	Inverse
	Not

	Multiplication
	Division
	Modulus

	Addition
	Subtraction

	LeftShift
	RightShift
	UnsignedRightShift

	LessThan
	GreaterThan
	LessEquals
	GreaterEquals
	InstanceOf
	In

	Equal
	NotEqual
	StrictlyEqual
	StrictlyNotEqual

	BitwiseAnd
	BitwiseXor
	BitwiseOr

	LogicalAnd
	LogicalOr

	TernaryOp

	Assign
	AssignMul
	AssignDiv
	AssignMod
	AssignSum
	AssignDiff
	AssignLsh
	AssignRsh
	AssignUsh
	AssignAnd
	AssignXor
	AssignOr

	Comma

	numOperators
)

type operatorInfo struct {
	name     string
	symbol   string
	closing  string
	typ      OperatorType
	category OperatorCategory
	prec     int
	assoc    Associativity
}

// operators is read only after package initialisation.
var operators = [numOperators]operatorInfo{
	MemberAccess:  {"MEMBER_ACCESS", ".", "", Infix, Special, 1, Left},
	SquareBracket: {"SQUARE_BRACKET", "[", "]", Bracket, Special, 1, Left},
	Constructor:   {"CONSTRUCTOR", "new", "", Prefix, Special, 1, Right},
	FunctionCall:  {"FUNCTION_CALL", "(", ")", Bracket, Special, 2, Left},

	PostIncrement: {"POST_INCREMENT", "++", "", Postfix, Assignment, 3, Left},
	PostDecrement: {"POST_DECREMENT", "--", "", Postfix, Assignment, 3, Left},

	Delete:       {"DELETE", "delete", "", Prefix, Special, 4, Right},
	Void:         {"VOID", "void", "", Prefix, Simple, 4, Right},
	TypeOf:       {"TYPEOF", "typeof", "", Prefix, Simple, 4, Right},
	PreIncrement: {"PRE_INCREMENT", "++", "", Prefix, Assignment, 4, Right},
	PreDecrement: {"PRE_DECREMENT", "--", "", Prefix, Assignment, 4, Right},
	ToNumber:     {"TO_NUMBER", "+", "", Prefix, Simple, 4, Right},
	Negation:     {"NEGATION", "-", "", Prefix, Simple, 4, Right},
	Inverse:      {"INVERSE", "~", "", Prefix, Simple, 4, Right},
	Not:          {"NOT", "!", "", Prefix, Simple, 4, Right},

	Multiplication: {"MULTIPLICATION", "*", "", Infix, Simple, 5, Left},
	Division:       {"DIVISION", "/", "", Infix, Simple, 5, Left},
	Modulus:        {"MODULUS", "%", "", Infix, Simple, 5, Left},

	Addition:    {"ADDITION", "+", "", Infix, Simple, 6, Left},
	Subtraction: {"SUBTRACTION", "-", "", Infix, Simple, 6, Left},

	LeftShift:          {"LSHIFT", "<<", "", Infix, Simple, 7, Left},
	RightShift:         {"RSHIFT", ">>", "", Infix, Simple, 7, Left},
	UnsignedRightShift: {"RUSHIFT", ">>>", "", Infix, Simple, 7, Left},

	LessThan:      {"LESS_THAN", "<", "", Infix, Simple, 8, Left},
	GreaterThan:   {"GREATER_THAN", ">", "", Infix, Simple, 8, Left},
	LessEquals:    {"LESS_EQUALS", "<=", "", Infix, Simple, 8, Left},
	GreaterEquals: {"GREATER_EQUALS", ">=", "", Infix, Simple, 8, Left},
	InstanceOf:    {"INSTANCE_OF", "instanceof", "", Infix, Simple, 8, Left},
	In:            {"IN", "in", "", Infix, Simple, 8, Left},

	Equal:            {"EQUAL", "==", "", Infix, Simple, 9, Left},
	NotEqual:         {"NOT_EQUAL", "!=", "", Infix, Simple, 9, Left},
	StrictlyEqual:    {"STRICTLY_EQUAL", "===", "", Infix, Simple, 9, Left},
	StrictlyNotEqual: {"STRICTLY_NOT_EQUAL", "!==", "", Infix, Simple, 9, Left},

	BitwiseAnd: {"BITWISE_AND", "&", "", Infix, Simple, 10, Left},
	BitwiseXor: {"BITWISE_XOR", "^", "", Infix, Simple, 11, Left},
	BitwiseOr:  {"BITWISE_OR", "|", "", Infix, Simple, 12, Left},

	LogicalAnd: {"LOGICAL_AND", "&&", "", Infix, Control, 13, Left},
	LogicalOr:  {"LOGICAL_OR", "||", "", Infix, Control, 14, Left},

	TernaryOp: {"TERNARY", "?", ":", Ternary, Control, 15, Right},

	Assign:     {"ASSIGN", "=", "", Infix, Assignment, 16, Right},
	AssignMul:  {"ASSIGN_MUL", "*=", "", Infix, Assignment, 16, Right},
	AssignDiv:  {"ASSIGN_DIV", "/=", "", Infix, Assignment, 16, Right},
	AssignMod:  {"ASSIGN_MOD", "%=", "", Infix, Assignment, 16, Right},
	AssignSum:  {"ASSIGN_SUM", "+=", "", Infix, Assignment, 16, Right},
	AssignDiff: {"ASSIGN_DIFF", "-=", "", Infix, Assignment, 16, Right},
	AssignLsh:  {"ASSIGN_LSH", "<<=", "", Infix, Assignment, 16, Right},
	AssignRsh:  {"ASSIGN_RSH", ">>=", "", Infix, Assignment, 16, Right},
	AssignUsh:  {"ASSIGN_USH", ">>>=", "", Infix, Assignment, 16, Right},
	AssignAnd:  {"ASSIGN_AND", "&=", "", Infix, Assignment, 16, Right},
	AssignXor:  {"ASSIGN_XOR", "^=", "", Infix, Assignment, 16, Right},
	AssignOr:   {"ASSIGN_OR", "|=", "", Infix, Assignment, 16, Right},

	Comma: {"COMMA", ",", "", Infix, Control, 17, Left},
}

type symbolKey struct {
	typ    OperatorType
	symbol string
}

var bySymbol = func() map[symbolKey]Operator {
	m := make(map[symbolKey]Operator, numOperators)
	for op := MemberAccess; op < numOperators; op++ {
		info := operators[op]
		m[symbolKey{info.typ, info.symbol}] = op
	}
	return m
}()

// LookupOperator finds the operator with the given shape and opening symbol.
func LookupOperator(typ OperatorType, symbol string) (Operator, bool) {
	op, ok := bySymbol[symbolKey{typ, symbol}]
	return op, ok
}

func (op Operator) info() operatorInfo {
	if op <= OpInvalid || op >= numOperators {
		return operatorInfo{name: "INVALID"}
	}
	return operators[op]
}

func (op Operator) String() string               { return op.info().name }
func (op Operator) Symbol() string               { return op.info().symbol }
func (op Operator) ClosingSymbol() string        { return op.info().closing }
func (op Operator) Type() OperatorType           { return op.info().typ }
func (op Operator) Category() OperatorCategory   { return op.info().category }
func (op Operator) Precedence() int              { return op.info().prec }
func (op Operator) Associativity() Associativity { return op.info().assoc }

// MinArity is the smallest operand count the operator accepts.
func (op Operator) MinArity() int {
	if op == FunctionCall {
		return 1
	}
	return op.arity()
}

// MaxArity is the largest operand count, or -1 when unbounded.
func (op Operator) MaxArity() int {
	if op == FunctionCall {
		return -1
	}
	return op.arity()
}

func (op Operator) arity() int {
	switch op.Type() {
	case Prefix, Postfix:
		return 1
	case Infix, Bracket:
		return 2
	case Ternary:
		return 3
	}
	return 0
}

// IsAssignment reports whether op stores into its first operand.
func (op Operator) IsAssignment() bool {
	return op.Category() == Assignment
}
