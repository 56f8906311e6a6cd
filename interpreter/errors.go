// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"errors"
	"fmt"
)

// Reserved abort codes raised by the interpreter itself.
const (
	ResourceAlreadyExists uint64 = 4004
	ResourceDoesNotExist  uint64 = 4008
	DivisionByZero        uint64 = 4016
	ArithmeticError       uint64 = 4017
	CallStackOverflow     uint64 = 4020
)

var (
	ErrStackOverflow  = errors.New("operand stack overflow")
	ErrUnknownNative  = errors.New("unknown native function")
	ErrBadEntryPoint  = errors.New("bad entry point")
	ErrCorruptStorage = errors.New("stored value does not match its layout")
)

// AbortError terminates execution with a code chosen by the program or by
// one of the reserved checks above.
type AbortError struct {
	Code     uint64
	Location string
	PC       int
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("aborted with code %d in %s at pc %d", e.Code, e.Location, e.PC)
}

// AbortCode returns the code of the [*AbortError] in err's chain.
func AbortCode(err error) (uint64, bool) {
	var abort *AbortError
	if errors.As(err, &abort) {
		return abort.Code, true
	}
	return 0, false
}
