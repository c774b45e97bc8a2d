package quasi

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPattern is returned for pattern text that cannot be
	// compiled. Patterns are written by developers, so Must variants panic
	// with it.
	ErrMalformedPattern = errors.New("malformed quasi pattern")
	// ErrBinding is returned when bindings do not fit a pattern's holes.
	ErrBinding = errors.New("bindings do not fit pattern")
)

// PatternError reports a problem with a pattern or its bindings
type PatternError struct {
	Pattern string
	Err     error
	Detail  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%v %q: %s", e.Err, e.Pattern, e.Detail)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func bindingErr(format string, args ...any) error {
	return &PatternError{Err: ErrBinding, Detail: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...any) error {
	return &PatternError{Err: ErrMalformedPattern, Detail: fmt.Sprintf(format, args...)}
}
