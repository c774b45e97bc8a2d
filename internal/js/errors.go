package js

import (
	"errors"
	"fmt"
)

// ErrArity is the sentinel for child lists that break a kind's shape
// contract. Building such a node is a programming error.
var ErrArity = errors.New("invalid children for node kind")

// ArityError describes a rejected child list
type ArityError struct {
	Kind   Kind
	Value  any
	Count  int
	Reason string
}

func (e *ArityError) Error() string {
	if e.Kind == KindOperation {
		return fmt.Sprintf("%s %v with %d operands: %s", e.Kind, e.Value, e.Count, e.Reason)
	}
	return fmt.Sprintf("%s with %d children: %s", e.Kind, e.Count, e.Reason)
}

func (e *ArityError) Unwrap() error {
	return ErrArity
}
