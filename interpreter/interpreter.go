// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package interpreter executes linked functions on a stack machine.
//
// Every call to [Interpreter.Execute] runs on its own machine: a stack of
// frames sharing one operand stack, a cache of the global resources touched
// so far and the events emitted so far. Nothing reaches the state view
// until the outermost call returns successfully.
package interpreter

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/trace"

	"github.com/ava-labs/stackvm/gas"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
)

type Config struct {
	MaxCallDepth int `json:"maxCallDepth" yaml:"max_call_depth"`
	MaxStackSize int `json:"maxStackSize" yaml:"max_stack_size"`
}

func NewConfig() Config {
	return Config{
		MaxCallDepth: 256,
		MaxStackSize: 1024,
	}
}

// Interpreter is shared by all executions. It holds no per-execution state.
type Interpreter struct {
	tracer   trace.Tracer
	loader   *loader.Loader
	schedule *gas.Schedule
	natives  *natives.Registry
	config   Config
}

func New(
	tracer trace.Tracer,
	l *loader.Loader,
	schedule *gas.Schedule,
	registry *natives.Registry,
	cfg Config,
) *Interpreter {
	return &Interpreter{
		tracer:   tracer,
		loader:   l,
		schedule: schedule,
		natives:  registry,
		config:   cfg,
	}
}

// Result is the outcome of a successful execution.
type Result struct {
	Returns []types.Value
	Events  []types.Event
}

// Execute runs [fn] instantiated with [typeArgs] on [args]. Gas is charged
// to [meter] before every instruction. Resource changes are written to
// [view] only if execution succeeds; on error [view] is untouched.
//
// Errors are [*AbortError], [gas.ErrOutOfGas], a [*state.StorageError] or
// an execution failure. Invariant violations panic.
func (i *Interpreter) Execute(
	ctx context.Context,
	fn *loader.Function,
	typeArgs []types.Type,
	args []types.Value,
	meter *gas.Meter,
	view state.Mutable,
) (*Result, error) {
	ctx, span := i.tracer.Start(ctx, "Interpreter.Execute")
	defer span.End()

	if len(args) != len(fn.Parameters) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrBadEntryPoint, fn, len(fn.Parameters), len(args))
	}
	m := newMachine(ctx, i, meter, view)
	if err := m.call(fn, typeArgs, args); err != nil {
		return nil, err
	}
	if err := m.run(); err != nil {
		return nil, err
	}
	if err := m.flush(); err != nil {
		return nil, err
	}
	return &Result{Returns: m.stack, Events: m.events}, nil
}
