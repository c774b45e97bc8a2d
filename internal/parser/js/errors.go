package js

import "bennypowers.dev/cajoler/internal/parser/common"

// ErrSyntax marks source that is not valid JavaScript. ErrUnsupported marks
// valid JavaScript outside the supported subset, such as classes, arrow
// functions or let declarations.
var (
	ErrSyntax      = common.ErrSyntax
	ErrUnsupported = common.ErrUnsupported
)

// SyntaxError locates a parse failure
type SyntaxError = common.SyntaxError
