// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import "fmt"

// InvariantViolation reports a state the verifier and the loader guarantee
// can never be reached, such as a dangling reference. It is raised with
// panic and must not be turned into a transaction status.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Reason
}

// Violation panics with an [*InvariantViolation].
func Violation(format string, args ...any) {
	panic(&InvariantViolation{Reason: fmt.Sprintf(format, args...)})
}
