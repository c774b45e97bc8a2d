package templates

import (
	"errors"
	"fmt"
)

// ErrContract marks a collaborator that broke its guarantees.
var ErrContract = errors.New("internal contract violated")

// ContractError describes a broken guarantee. It is raised with panic.
type ContractError struct {
	Detail string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%v: %s", ErrContract, e.Detail)
}

func (e *ContractError) Unwrap() error {
	return ErrContract
}
