// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/config"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/genesis"
	"github.com/ava-labs/stackvm/state"
)

const (
	initialBalance = 10_000_000
	transfer       = 100
	gasPrice       = 1
)

type testEnv struct {
	vm        *VM
	view      state.MemoryView
	priv      ed25519.PrivateKey
	sender    codec.Address
	recipient codec.Address
	script    []byte
}

func newTestVM(t *testing.T) *testEnv {
	require := require.New(t)
	ctx := context.Background()

	cfg := config.NewConfig()
	cfg.SignatureVerificationCores = 2
	vm, err := New(cfg, WithLogger(logging.NoLog{}), WithTracer(trace.Noop))
	require.NoError(err)
	t.Cleanup(func() {
		require.NoError(vm.Shutdown())
	})

	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	other, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	g := genesis.NewDefaultGenesis([]*genesis.Allocation{
		genesis.NewAllocation(priv.PublicKey(), initialBalance),
		genesis.NewAllocation(other.PublicKey(), initialBalance),
	})
	view := state.MemoryView{}
	require.NoError(vm.InitializeGenesis(ctx, g, view))

	script, err := genesis.PayScript()
	require.NoError(err)
	return &testEnv{
		vm:        vm,
		view:      view,
		priv:      priv,
		sender:    priv.PublicKey().Address(),
		recipient: other.PublicKey().Address(),
		script:    script,
	}
}

func (e *testEnv) pay(t *testing.T, seq uint64) *chain.SignedTransaction {
	raw := &chain.RawTransaction{
		Sender:         e.sender,
		SequenceNumber: seq,
		Script:         e.script,
		Args: []chain.TransactionArgument{
			chain.AddressArgument(e.recipient),
			chain.U64Argument(transfer),
		},
		MaxGasAmount: 100_000,
		GasUnitPrice: gasPrice,
	}
	tx, err := raw.Sign(e.priv)
	require.NoError(t, err)
	return tx
}

func account(t *testing.T, ws state.WriteSet, addr codec.Address) *genesis.Account {
	op, ok := ws.GetPath(chain.AccountPath(addr))
	require.True(t, ok)
	acct, err := genesis.ParseAccount(op.Value.Value())
	require.NoError(t, err)
	return acct
}

func counter(t *testing.T, g prometheus.Gatherer, name string) float64 {
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	require.FailNow(t, "metric not found", name)
	return 0
}

func TestExecuteTransaction(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)

	out, err := e.vm.ExecuteTransaction(context.Background(), e.pay(t, 0), e.view)
	require.NoError(err)
	require.Equal(chain.Finalized, out.Phase, out.Status.String())

	sender := account(t, out.WriteSet, e.sender)
	require.Equal(uint64(1), sender.SequenceNumber)
	require.Equal(uint64(initialBalance-transfer)-out.GasUsed*gasPrice, sender.Balance)
	require.Equal(uint64(initialBalance+transfer), account(t, out.WriteSet, e.recipient).Balance)

	// The view is never written by the runtime.
	raw, ok, err := state.Get(context.Background(), e.view, chain.AccountPath(e.sender))
	require.NoError(err)
	require.True(ok)
	acct, err := genesis.ParseAccount(raw)
	require.NoError(err)
	require.Zero(acct.SequenceNumber)
}

func TestExecuteBlock(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)

	bad := e.pay(t, 2)
	bad.Signature[0] ^= 0xff
	txs := []*chain.SignedTransaction{e.pay(t, 0), e.pay(t, 1), bad, e.pay(t, 2)}

	res, err := e.vm.ExecuteBlock(context.Background(), txs, e.view)
	require.NoError(err)
	require.Len(res.Outputs, len(txs))

	gasUsed := uint64(0)
	for i, out := range res.Outputs {
		if i == 2 {
			require.Equal(chain.Discarded, out.Phase)
			require.Equal(chain.InvalidSignature, out.Status.Reason)
			continue
		}
		require.Equal(chain.Finalized, out.Phase, out.Status.String())
		gasUsed += out.GasUsed
	}

	sender := account(t, res.WriteSet, e.sender)
	require.Equal(uint64(3), sender.SequenceNumber)
	require.Equal(uint64(initialBalance-3*transfer)-gasUsed*gasPrice, sender.Balance)
	require.Equal(uint64(initialBalance+3*transfer), account(t, res.WriteSet, e.recipient).Balance)

	metrics := e.vm.Metrics()
	require.Equal(float64(1), counter(t, metrics, "vm_blocks_executed"))
	require.Equal(float64(4), counter(t, metrics, "vm_block_txs"))
	require.Equal(float64(1), counter(t, metrics, "vm_signature_batch_failures"))
	require.Equal(float64(3), counter(t, metrics, "chain_txs_executed"))
	require.Equal(float64(1), counter(t, metrics, "chain_txs_discarded"))
}

func TestExecuteBlockReplay(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)

	tx := e.pay(t, 0)
	res, err := e.vm.ExecuteBlock(context.Background(), []*chain.SignedTransaction{tx, tx}, e.view)
	require.NoError(err)
	require.Equal(chain.Finalized, res.Outputs[0].Phase)
	require.Equal(chain.Discarded, res.Outputs[1].Phase)
	require.Equal(chain.SequenceNumberTooOld, res.Outputs[1].Status.Reason)
	require.Equal(uint64(1), account(t, res.WriteSet, e.sender).SequenceNumber)
}

func TestExecuteEmptyBlock(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)

	res, err := e.vm.ExecuteBlock(context.Background(), nil, e.view)
	require.NoError(err)
	require.Empty(res.Outputs)
	require.Empty(res.WriteSet)
}

func TestResetCache(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)
	ctx := context.Background()

	out, err := e.vm.ExecuteTransaction(ctx, e.pay(t, 0), e.view)
	require.NoError(err)
	require.Equal(chain.Finalized, out.Phase)
	misses := e.vm.CacheStats().Misses
	require.Positive(misses)

	// A warm cache serves the same script without new misses.
	out, err = e.vm.ExecuteTransaction(ctx, e.pay(t, 0), e.view)
	require.NoError(err)
	require.Equal(chain.Finalized, out.Phase)
	require.Equal(misses, e.vm.CacheStats().Misses)

	e.vm.ResetCache()
	require.Equal(uint64(1), e.vm.CacheStats().Resets)

	out, err = e.vm.ExecuteTransaction(ctx, e.pay(t, 0), e.view)
	require.NoError(err)
	require.Equal(chain.Finalized, out.Phase)
	require.Greater(e.vm.CacheStats().Misses, misses)
}

func TestPublishModule(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)
	ctx := context.Background()

	b := bytecode.NewModuleBuilder(codec.ShortAddress(0xbb), "Empty")
	b.Function("noop", true, 0, nil, nil, nil, bytecode.NewCode().Emit(bytecode.Ret))
	m, err := b.Build()
	require.NoError(err)
	require.NoError(e.vm.PublishModule(ctx, e.view, m))

	_, ok, err := state.Get(ctx, e.view, state.CodePath(m.Self()))
	require.NoError(err)
	require.True(ok)
}

func TestShutdown(t *testing.T) {
	require := require.New(t)
	e := newTestVM(t)

	require.NoError(e.vm.Shutdown())
	_, err := e.vm.ExecuteTransaction(context.Background(), e.pay(t, 0), e.view)
	require.ErrorIs(err, ErrShutdown)
	_, err = e.vm.ExecuteBlock(context.Background(), nil, e.view)
	require.ErrorIs(err, ErrShutdown)
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Gas = nil
	_, err := New(cfg, WithLogger(logging.NoLog{}))
	require.ErrorIs(t, err, config.ErrMissingSchedule)
}
