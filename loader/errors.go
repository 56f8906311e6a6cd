// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"errors"
	"fmt"

	"github.com/ava-labs/stackvm/bytecode"
)

var (
	ErrModuleNotFound    = errors.New("module not found")
	ErrCyclicDependency  = errors.New("cyclic dependency")
	ErrLinkingFailed     = errors.New("linking failed")
	ErrMissingDefinition = errors.New("missing definition")
	ErrNotPublic         = errors.New("function is not public")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrWrongSelf         = errors.New("module published under another id")
	ErrBadTypeTag        = errors.New("invalid type tag")
)

type ErrorKind uint8

const (
	Deserialization ErrorKind = iota + 1
	VerificationFailed
	LinkingFailed
	CyclicDependency
)

func (k ErrorKind) String() string {
	switch k {
	case Deserialization:
		return "deserialization"
	case VerificationFailed:
		return "verification failed"
	case LinkingFailed:
		return "linking failed"
	case CyclicDependency:
		return "cyclic dependency"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// LoadError is returned when a binary cannot be turned into its executable
// form. Nothing is cached for a binary that failed to load.
type LoadError struct {
	Kind ErrorKind
	ID   bytecode.BinaryID
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s: %v", e.ID, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func newLoadError(kind ErrorKind, id bytecode.BinaryID, err error) error {
	return &LoadError{Kind: kind, ID: id, Err: err}
}

func linkErrorf(id bytecode.BinaryID, format string, args ...any) error {
	return newLoadError(LinkingFailed, id, fmt.Errorf("%w: "+format, append([]any{ErrLinkingFailed}, args...)...))
}

// IsKind reports whether [err] is a [LoadError] of [kind].
func IsKind(err error, kind ErrorKind) bool {
	var lerr *LoadError
	return errors.As(err, &lerr) && lerr.Kind == kind
}
