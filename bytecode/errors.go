// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bytecode

import "errors"

var (
	ErrBadMagic          = errors.New("bad magic")
	ErrUnexpectedKind    = errors.New("unexpected binary kind")
	ErrTrailingBytes     = errors.New("trailing bytes")
	ErrTooManyEntries    = errors.New("too many table entries")
	ErrTypeTooDeep       = errors.New("signature token nested too deeply")
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrUnknownTokenKind  = errors.New("unknown signature token kind")
	ErrIdentifierTooLong = errors.New("identifier too long")
	ErrOperandOutOfRange = errors.New("operand out of range")
	ErrMalformed         = errors.New("malformed binary")
	ErrUnknownLabel      = errors.New("unknown label")
	ErrDuplicateLabel    = errors.New("duplicate label")
	ErrDuplicateFunction = errors.New("duplicate function")
	ErrMissingSelfHandle = errors.New("module has no self handle")
	ErrBinaryTooLarge    = errors.New("binary too large")
)
