// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/config"
	"github.com/ava-labs/stackvm/genesis"
	"github.com/ava-labs/stackvm/interpreter"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/verifier"

	stacktrace "github.com/ava-labs/stackvm/trace"
)

const Name = "stackvm"

// VM wires the loader, the interpreter and the transaction pipeline into a
// runtime that executes signed transactions against caller-supplied state.
// It is safe for concurrent use.
type VM struct {
	config config.Config

	log        logging.Logger
	ownsLog    bool
	tracer     trace.Tracer
	verifier   verifier.Verifier
	natives    *natives.Registry
	registry   *prometheus.Registry
	metrics    *metrics
	loader     *loader.Loader
	interp     *interpreter.Interpreter
	executor   *chain.Executor
	isShutdown atomic.Bool
}

func New(cfg config.Config, opts ...Option) (*VM, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	vm := &VM{config: cfg}
	for _, opt := range opts {
		opt(vm)
	}

	if vm.log == nil {
		log, err := cfg.NewLogger(Name)
		if err != nil {
			return nil, err
		}
		vm.log = log
		vm.ownsLog = true
	}
	if vm.tracer == nil {
		tracer, err := stacktrace.New(cfg.TraceConfig)
		if err != nil {
			return nil, err
		}
		vm.tracer = tracer
	}
	if vm.verifier == nil {
		vm.verifier = verifier.TypeVerifier{}
	}
	if vm.natives == nil {
		vm.natives = natives.Standard()
	}

	registry, m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	vm.registry = registry
	vm.metrics = m

	vm.loader, err = loader.New(vm.log, vm.tracer, registry, bytecode.Codec{}, vm.verifier, cfg.Loader)
	if err != nil {
		return nil, err
	}
	vm.interp = interpreter.New(vm.tracer, vm.loader, cfg.Gas, vm.natives, cfg.Interpreter)
	vm.executor, err = chain.NewExecutor(vm.log, vm.tracer, registry, vm.loader, vm.interp, cfg.Gas, &cfg.Rules)
	if err != nil {
		return nil, err
	}
	vm.log.Info("initialized vm",
		zap.Int("maxTransactionSize", cfg.MaxTransactionSize),
		zap.Uint64("maxGasAmount", cfg.MaxGasAmount),
		zap.Int("maxCallDepth", cfg.Interpreter.MaxCallDepth),
		zap.Bool("tracing", cfg.TraceConfig.Enabled),
	)
	return vm, nil
}

// ExecuteTransaction runs [tx] against [view]. The returned output carries
// the writes the caller should commit; [view] itself is never modified.
func (vm *VM) ExecuteTransaction(ctx context.Context, tx *chain.SignedTransaction, view state.View) (*chain.TransactionOutput, error) {
	if vm.isShutdown.Load() {
		return nil, ErrShutdown
	}
	ctx, span := vm.tracer.Start(ctx, "VM.ExecuteTransaction")
	defer span.End()

	return vm.executor.Execute(ctx, tx, view), nil
}

// ResetCache drops every cached module, script and instantiation. It waits
// for in-flight loads and is typically called after a module upgrade.
func (vm *VM) ResetCache() {
	vm.loader.Reset()
}

// PublishModule writes [m] to [mu]. It is verified when first loaded.
func (vm *VM) PublishModule(ctx context.Context, mu state.Mutable, m *bytecode.Module) error {
	return genesis.PublishModule(ctx, mu, m)
}

// InitializeGenesis writes the system modules and the allocations of [g]
// to [mu].
func (vm *VM) InitializeGenesis(ctx context.Context, g *genesis.Genesis, mu state.Mutable) error {
	return g.InitializeState(ctx, vm.tracer, mu)
}

func (vm *VM) CacheStats() loader.Stats {
	return vm.loader.Stats()
}

// Metrics gathers every metric registered by the runtime.
func (vm *VM) Metrics() prometheus.Gatherer {
	return vm.registry
}

func (vm *VM) Logger() logging.Logger {
	return vm.log
}

func (vm *VM) Shutdown() error {
	if vm.isShutdown.Swap(true) {
		return nil
	}
	vm.log.Info("shutting down vm", zap.Uint64("cacheResets", vm.loader.Stats().Resets))
	err := vm.tracer.Close()
	if vm.ownsLog {
		vm.log.Stop()
	}
	return err
}
