// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/verifier"
)

type Option func(*VM)

// WithLogger replaces the logger built from the config. The caller keeps
// ownership of [log].
func WithLogger(log logging.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithTracer replaces the tracer built from the config.
func WithTracer(tracer trace.Tracer) Option {
	return func(vm *VM) {
		vm.tracer = tracer
	}
}

// WithVerifier replaces the default type-checking bytecode verifier.
func WithVerifier(v verifier.Verifier) Option {
	return func(vm *VM) {
		vm.verifier = v
	}
}

// WithNatives replaces the standard native function registry.
func WithNatives(r *natives.Registry) Option {
	return func(vm *VM) {
		vm.natives = r
	}
}
