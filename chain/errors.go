// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "errors"

var (
	ErrUnknownArgument   = errors.New("unknown argument type")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrArgumentMismatch  = errors.New("arguments do not match script parameters")
	ErrTypeArgumentCount = errors.New("wrong number of type arguments")
	ErrInvalidSignature  = errors.New("invalid signature")
)
