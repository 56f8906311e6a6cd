// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package verifier

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIndexOutOfBounds     = errors.New("index out of bounds")
	ErrTypeParamOutOfBounds = errors.New("type parameter out of bounds")
	ErrTypeArityMismatch    = errors.New("type argument count mismatch")
	ErrBranchOutOfBounds    = errors.New("branch target out of bounds")
	ErrFallThrough          = errors.New("code falls through end of function")
	ErrEmptyCode            = errors.New("function has no code")
	ErrNativeWithCode       = errors.New("native function has code")
	ErrForeignDefinition    = errors.New("definition declared for another module")
	ErrDuplicateDefinition  = errors.New("duplicate definition")
	ErrUnsupportedInScript  = errors.New("instruction not allowed in script")
	ErrGenericMismatch      = errors.New("generic instruction used with non-generic operand")
	ErrReferenceInField     = errors.New("struct field cannot hold a reference")
	ErrSignerParameter      = errors.New("signer must be the first script parameter")
	ErrTypeMismatch         = errors.New("operand type mismatch")
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrStackMismatch        = errors.New("stack differs at join or return")
	ErrNotResource          = errors.New("global operation on a non-resource struct")
)

// Error reports where verification of a binary failed.
type Error struct {
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("verification failed at %s: %s", e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(err error, format string, args ...any) error {
	return &Error{Location: fmt.Sprintf(format, args...), Err: err}
}

// Locate returns the path to the item that failed verification, such as
// "function run: pc 2 (Add)", and the error that stopped it. The error is
// nil if [err] holds no [*Error].
func Locate(err error) (string, error) {
	var (
		path  []string
		cause = err
		verr  *Error
	)
	for errors.As(cause, &verr) {
		path = append(path, verr.Location)
		cause = verr.Err
	}
	if len(path) == 0 {
		return "", nil
	}
	return strings.Join(path, ": "), cause
}
