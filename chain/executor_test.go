// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ava-labs/avalanchego/trace"
	avalogging "github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/gas"
	"github.com/ava-labs/stackvm/genesis"
	"github.com/ava-labs/stackvm/internal/logging"
	"github.com/ava-labs/stackvm/interpreter"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
	"github.com/ava-labs/stackvm/verifier"
)

const (
	initialBalance = 1_000_000
	initialSeq     = 5
	gasPrice       = 2
	maxGas         = 100_000
)

var (
	testAddr   = codec.ShortAddress(0xaa)
	counterID  = bytecode.NewBinaryID(testAddr, "Counter")
	addrParam  = []bytecode.SignatureToken{bytecode.AddressToken}
	signerRef  = []bytecode.SignatureToken{bytecode.RefToken(bytecode.SignerToken)}
	emitParams = []bytecode.SignatureToken{bytecode.BytesToken, bytecode.TypeParamToken(0)}
	errDisk    = errors.New("disk failure")
)

type testEnv struct {
	view   state.MemoryView
	exec   *chain.Executor
	priv   ed25519.PrivateKey
	sender codec.Address
	rules  *genesis.Rules
	log    *logging.Recorder
}

func newExecutor(t testing.TB, log *logging.Recorder, rules chain.Rules) *chain.Executor {
	l, err := loader.New(log, trace.Noop, prometheus.NewRegistry(), bytecode.Codec{}, verifier.TypeVerifier{}, loader.NewConfig())
	require.NoError(t, err)
	schedule := gas.DefaultSchedule()
	interp := interpreter.New(trace.Noop, l, schedule, natives.Standard(), interpreter.NewConfig())
	exec, err := chain.NewExecutor(log, trace.Noop, prometheus.NewRegistry(), l, interp, schedule, rules)
	require.NoError(t, err)
	return exec
}

func newTestEnv(t testing.TB) *testEnv {
	require := require.New(t)
	ctx := context.Background()

	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	alloc := genesis.NewAllocation(priv.PublicKey(), initialBalance)
	alloc.SequenceNumber = initialSeq
	g := genesis.NewDefaultGenesis([]*genesis.Allocation{alloc})

	view := state.MemoryView{}
	require.NoError(g.InitializeState(ctx, trace.Noop, view))
	counter, err := counterModule().Build()
	require.NoError(err)
	require.NoError(genesis.PublishModule(ctx, view, counter))

	sender := priv.PublicKey().Address()
	value, err := types.Serialize(&types.Struct{Fields: []types.Value{types.U64(10)}})
	require.NoError(err)
	view[string(counterPath(sender).Key())] = value

	log := &logging.Recorder{}
	return &testEnv{
		view:   view,
		exec:   newExecutor(t, log, g.Rules),
		priv:   priv,
		sender: sender,
		rules:  g.Rules,
		log:    log,
	}
}

func counterPath(addr codec.Address) state.AccessPath {
	return state.ResourcePath(addr, counterID.String()+"::Counter")
}

// counterModule declares Counter{value} with incr(addr) and a function
// returning a reference to one of its own locals.
func counterModule() *bytecode.ModuleBuilder {
	b := bytecode.NewModuleBuilder(counterID.Address, counterID.Name)
	counter := b.Struct("Counter", true, 0, bytecode.FieldDef{Name: "value", Type: bytecode.U64Token})
	value := uint64(b.FieldHandle(counter, 0))
	b.Function("incr", true, 0, addrParam, nil,
		[]bytecode.SignatureToken{bytecode.MutRefToken(bytecode.U64Token)},
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.MutBorrowGlobal, uint64(counter)).
			EmitArg(bytecode.MutBorrowField, value).
			EmitArg(bytecode.StLoc, 1).
			EmitArg(bytecode.CopyLoc, 1).
			Emit(bytecode.ReadRef).
			LdU64(1).
			Emit(bytecode.Add).
			EmitArg(bytecode.MoveLoc, 1).
			Emit(bytecode.WriteRef).
			Emit(bytecode.Ret),
	)
	b.Function("dangle", true, 0, nil,
		[]bytecode.SignatureToken{bytecode.RefToken(bytecode.U64Token)},
		[]bytecode.SignatureToken{bytecode.U64Token},
		bytecode.NewCode().
			LdU64(1).
			EmitArg(bytecode.StLoc, 0).
			EmitArg(bytecode.ImmBorrowLoc, 0).
			Emit(bytecode.Ret),
	)
	return b
}

// incrScript bumps the sender's counter and emits an event, then aborts
// with [abortCode] if it is non-zero.
func incrScript(t testing.TB, abortCode uint64) []byte {
	b := bytecode.NewScriptBuilder()
	addressOf := b.FunctionHandle(bytecode.NewBinaryID(natives.StdlibAddress, natives.SignerModule), "address_of", signerRef, addrParam, 0)
	incr := b.FunctionHandle(counterID, "incr", addrParam, nil, 0)
	emit := b.FunctionInstantiation(
		b.FunctionHandle(bytecode.NewBinaryID(natives.StdlibAddress, natives.EventModule), "emit", emitParams, nil, 1),
		bytecode.U64Token,
	)
	code := bytecode.NewCode().
		EmitArg(bytecode.ImmBorrowLoc, 0).
		EmitArg(bytecode.Call, uint64(addressOf)).
		EmitArg(bytecode.Call, uint64(incr)).
		LdBytes([]byte("counter")).
		LdU64(11).
		EmitArg(bytecode.CallGeneric, uint64(emit))
	if abortCode != 0 {
		code.LdU64(abortCode).Emit(bytecode.Abort)
	} else {
		code.Emit(bytecode.Ret)
	}
	return buildScript(t, b, []bytecode.SignatureToken{bytecode.SignerToken}, nil, code)
}

// payScript transfers an amount from the sender to an address.
func payScript(t testing.TB) []byte {
	params := []bytecode.SignatureToken{bytecode.SignerToken, bytecode.AddressToken, bytecode.U64Token}
	b := bytecode.NewScriptBuilder()
	pay := b.FunctionHandle(chain.AccountModuleID, "pay", params, nil, 0)
	return buildScript(t, b, params, nil, bytecode.NewCode().
		EmitArg(bytecode.MoveLoc, 0).
		EmitArg(bytecode.MoveLoc, 1).
		EmitArg(bytecode.MoveLoc, 2).
		EmitArg(bytecode.Call, uint64(pay)).
		Emit(bytecode.Ret),
	)
}

func buildScript(t testing.TB, b *bytecode.ScriptBuilder, params, locals []bytecode.SignatureToken, code *bytecode.CodeBuilder) []byte {
	s, err := b.Build(0, params, locals, code)
	require.NoError(t, err)
	raw, err := bytecode.EncodeScript(s)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) raw(script []byte, args ...chain.TransactionArgument) *chain.RawTransaction {
	return &chain.RawTransaction{
		Sender:         e.sender,
		SequenceNumber: initialSeq,
		Script:         script,
		Args:           args,
		MaxGasAmount:   maxGas,
		GasUnitPrice:   gasPrice,
	}
}

func sign(t testing.TB, raw *chain.RawTransaction, priv ed25519.PrivateKey) *chain.SignedTransaction {
	tx, err := raw.Sign(priv)
	require.NoError(t, err)
	return tx
}

func account(t testing.TB, ws state.WriteSet, addr codec.Address) *genesis.Account {
	op, ok := ws.GetPath(chain.AccountPath(addr))
	require.True(t, ok, "no write to account %s", addr)
	require.False(t, op.IsDelete())
	acct, err := genesis.ParseAccount(op.Value.Value())
	require.NoError(t, err)
	return acct
}

func requireDiscarded(t testing.TB, out *chain.TransactionOutput, reason chain.DiscardReason) {
	require.Equal(t, chain.Discarded, out.Phase)
	require.Equal(t, chain.Discard, out.Status.Code)
	require.Equal(t, reason, out.Status.Reason, out.Status.String())
	require.Empty(t, out.WriteSet)
	require.Empty(t, out.Events)
	require.Zero(t, out.GasUsed)
}

func TestExecuteCounter(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	out := e.exec.Execute(context.Background(), sign(t, e.raw(incrScript(t, 0)), e.priv), e.view)
	require.Equal(chain.Finalized, out.Phase)
	require.Equal(chain.Executed, out.Status.Code)
	require.Positive(out.GasUsed)
	require.Len(out.WriteSet, 2)

	op, ok := out.WriteSet.GetPath(counterPath(e.sender))
	require.True(ok)
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 11}, op.Value.Value())

	acct := account(t, out.WriteSet, e.sender)
	require.Equal(uint64(initialSeq+1), acct.SequenceNumber)
	require.Equal(uint64(initialBalance)-out.GasUsed*gasPrice, acct.Balance)

	require.Len(out.Events, 1)
	require.Equal([]byte("counter"), out.Events[0].Key)
	require.Zero(out.Events[0].SequenceNumber)
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 11}, out.Events[0].Data)
}

func TestExecuteAbort(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	out := e.exec.Execute(context.Background(), sign(t, e.raw(incrScript(t, 42)), e.priv), e.view)
	require.Equal(chain.Aborted, out.Phase)
	require.Equal(chain.MoveAbort, out.Status.Code)
	require.Equal(uint64(42), out.Status.AbortCode)
	require.Empty(out.Events)

	// Only the epilogue's writes survive.
	require.Len(out.WriteSet, 1)
	_, ok := out.WriteSet.GetPath(counterPath(e.sender))
	require.False(ok)
	acct := account(t, out.WriteSet, e.sender)
	require.Equal(uint64(initialSeq+1), acct.SequenceNumber)
	require.Equal(uint64(initialBalance)-out.GasUsed*gasPrice, acct.Balance)
}

func TestExecuteOutOfGas(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	raw := e.raw(incrScript(t, 0))
	b, err := sign(t, raw, e.priv).Bytes()
	require.NoError(err)
	intrinsic, err := gas.DefaultSchedule().Intrinsic(len(b))
	require.NoError(err)

	// The encoding is fixed-width, so the size does not change.
	raw.MaxGasAmount = intrinsic + 5
	out := e.exec.Execute(context.Background(), sign(t, raw, e.priv), e.view)
	require.Equal(chain.Aborted, out.Phase)
	require.Equal(chain.OutOfGas, out.Status.Code)
	require.Equal(raw.MaxGasAmount, out.GasUsed)

	acct := account(t, out.WriteSet, e.sender)
	require.Equal(uint64(initialSeq+1), acct.SequenceNumber)
	require.Equal(uint64(initialBalance)-raw.MaxGasAmount*gasPrice, acct.Balance)
}

func TestExecuteSequenceNumbers(t *testing.T) {
	tests := []struct {
		seq    uint64
		reason chain.DiscardReason
	}{
		{seq: 3, reason: chain.SequenceNumberTooOld},
		{seq: 7, reason: chain.SequenceNumberTooNew},
	}
	for _, tt := range tests {
		t.Run(tt.reason.String(), func(t *testing.T) {
			e := newTestEnv(t)
			raw := e.raw(incrScript(t, 0))
			raw.SequenceNumber = tt.seq
			out := e.exec.Execute(context.Background(), sign(t, raw, e.priv), e.view)
			requireDiscarded(t, out, tt.reason)
		})
	}
}

func TestExecuteDiscards(t *testing.T) {
	other, err := ed25519.GeneratePrivateKey()
	require.NoError(t, err)

	tests := []struct {
		name   string
		tx     func(t *testing.T, e *testEnv) *chain.SignedTransaction
		reason chain.DiscardReason
	}{
		{
			name: "bad signature",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				tx := sign(t, e.raw(incrScript(t, 0)), e.priv)
				tx.Signature[0] ^= 0xff
				return tx
			},
			reason: chain.InvalidSignature,
		},
		{
			name: "unknown sender",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0))
				raw.Sender = other.PublicKey().Address()
				return sign(t, raw, other)
			},
			reason: chain.SendingAccountDoesNotExist,
		},
		{
			name: "key not authorized for sender",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				return sign(t, e.raw(incrScript(t, 0)), other)
			},
			reason: chain.InvalidAuthKey,
		},
		{
			name: "max gas above bound",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0))
				raw.MaxGasAmount = e.rules.MaxGasAmount + 1
				return sign(t, raw, e.priv)
			},
			reason: chain.MaxGasUnitsExceedsMaxGasUnitsBound,
		},
		{
			name: "max gas below intrinsic",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0))
				raw.MaxGasAmount = 100
				return sign(t, raw, e.priv)
			},
			reason: chain.MaxGasUnitsBelowMinTransactionGasUnits,
		},
		{
			name: "price above bound",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0))
				raw.GasUnitPrice = e.rules.MaxGasUnitPrice + 1
				return sign(t, raw, e.priv)
			},
			reason: chain.GasUnitPriceAboveMaxBound,
		},
		{
			name: "cannot cover max fee",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0))
				raw.GasUnitPrice = e.rules.MaxGasUnitPrice
				return sign(t, raw, e.priv)
			},
			reason: chain.InsufficientBalanceForTransactionFee,
		},
		{
			name: "too large",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0), chain.BytesArgument(make([]byte, e.rules.MaxTransactionSize)))
				return sign(t, raw, e.priv)
			},
			reason: chain.ExceededMaxTransactionSize,
		},
		{
			name: "unknown argument",
			tx: func(t *testing.T, e *testEnv) *chain.SignedTransaction {
				raw := e.raw(incrScript(t, 0), chain.TransactionArgument{Type: 99})
				return sign(t, raw, e.priv)
			},
			reason: chain.UnknownScriptArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			out := e.exec.Execute(context.Background(), tt.tx(t, e), e.view)
			requireDiscarded(t, out, tt.reason)
		})
	}
}

func TestExecutePay(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEnv(t)

	bob, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	bobAddr := bob.PublicKey().Address()
	bobAcct := &genesis.Account{AuthenticationKey: []byte{1}, Balance: 7}
	b, err := bobAcct.Bytes()
	require.NoError(err)
	e.view[string(chain.AccountPath(bobAddr).Key())] = b

	out := e.exec.Execute(ctx, sign(t, e.raw(payScript(t), chain.AddressArgument(bobAddr), chain.U64Argument(100)), e.priv), e.view)
	require.Equal(chain.Executed, out.Status.Code, out.Status.String())
	require.Equal(uint64(107), account(t, out.WriteSet, bobAddr).Balance)
	require.Equal(uint64(initialBalance)-100-out.GasUsed*gasPrice, account(t, out.WriteSet, e.sender).Balance)

	// Paying everything leaves nothing for the epilogue, which then only
	// bumps the sequence number.
	out = e.exec.Execute(ctx, sign(t, e.raw(payScript(t), chain.AddressArgument(bobAddr), chain.U64Argument(initialBalance)), e.priv), e.view)
	require.Equal(chain.Aborted, out.Phase)
	require.Equal(chain.MoveAbort, out.Status.Code)
	require.Equal(chain.EInsufficientBalance, out.Status.AbortCode)
	require.Len(out.WriteSet, 1)
	acct := account(t, out.WriteSet, e.sender)
	require.Equal(uint64(initialSeq+1), acct.SequenceNumber)
	require.Equal(uint64(initialBalance), acct.Balance)

	warns := e.log.Entries(avalogging.Warn)
	require.Len(warns, 1)
	require.Equal("epilogue failed", warns[0].Message)
}

func TestExecuteArgumentMismatch(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	out := e.exec.Execute(context.Background(), sign(t, e.raw(payScript(t), chain.AddressArgument(e.sender), chain.BytesArgument([]byte{1})), e.priv), e.view)
	require.Equal(chain.Aborted, out.Phase)
	require.Equal(chain.ExecutionFailure, out.Status.Code)
	require.Equal(uint64(initialSeq+1), account(t, out.WriteSet, e.sender).SequenceNumber)
}

func TestExecuteVerificationError(t *testing.T) {
	tests := []struct {
		name     string
		code     *bytecode.CodeBuilder
		location string
		err      error
	}{
		{
			name:     "local out of bounds",
			code:     bytecode.NewCode().EmitArg(bytecode.CopyLoc, 3).Emit(bytecode.Pop).Emit(bytecode.Ret),
			location: "script: pc 0 (CopyLoc)",
			err:      verifier.ErrIndexOutOfBounds,
		},
		{
			name: "add bool to u64",
			code: bytecode.NewCode().
				Emit(bytecode.LdTrue).
				LdU64(1).
				Emit(bytecode.Add).
				Emit(bytecode.Pop).
				Emit(bytecode.Ret),
			location: "script: pc 2 (Add)",
			err:      verifier.ErrTypeMismatch,
		},
		{
			name:     "unbalanced return",
			code:     bytecode.NewCode().LdU64(1).Emit(bytecode.Ret),
			location: "script: pc 1 (Ret)",
			err:      verifier.ErrStackMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			e := newTestEnv(t)

			script := buildScript(t, bytecode.NewScriptBuilder(), nil, nil, tt.code)
			var out *chain.TransactionOutput
			require.NotPanics(func() {
				out = e.exec.Execute(context.Background(), sign(t, e.raw(script), e.priv), e.view)
			})
			require.Equal(chain.Aborted, out.Phase)
			require.Equal(chain.VerificationError, out.Status.Code)
			require.Equal(tt.err.Error(), out.Status.Message)
			require.True(strings.HasSuffix(out.Status.Location, tt.location), out.Status.Location)
			require.Contains(out.Status.String(), tt.err.Error())
			require.Equal(uint64(initialSeq+1), account(t, out.WriteSet, e.sender).SequenceNumber)
		})
	}
}

func TestExecuteLinkingFailure(t *testing.T) {
	require := require.New(t)
	e := newTestEnv(t)

	b := bytecode.NewScriptBuilder()
	missing := b.FunctionHandle(counterID, "missing", nil, nil, 0)
	script := buildScript(t, b, nil, nil, bytecode.NewCode().
		EmitArg(bytecode.Call, uint64(missing)).
		Emit(bytecode.Ret),
	)
	out := e.exec.Execute(context.Background(), sign(t, e.raw(script), e.priv), e.view)
	require.Equal(chain.Aborted, out.Phase)
	require.Equal(chain.ExecutionFailure, out.Status.Code)
	require.Empty(out.Status.Message)
	require.Empty(out.Events)
	require.Equal(uint64(initialSeq+1), account(t, out.WriteSet, e.sender).SequenceNumber)
}

func TestExecuteDeterminism(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEnv(t)

	tx := sign(t, e.raw(incrScript(t, 0)), e.priv)
	first, err := e.exec.Execute(ctx, tx, e.view).Bytes()
	require.NoError(err)
	warm, err := e.exec.Execute(ctx, tx, e.view).Bytes()
	require.NoError(err)
	cold, err := newExecutor(t, &logging.Recorder{}, e.rules).Execute(ctx, tx, e.view).Bytes()
	require.NoError(err)
	require.Equal(first, warm)
	require.Equal(first, cold)
}

func TestExecuteSequential(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEnv(t)

	for i := uint64(0); i < 3; i++ {
		raw := e.raw(incrScript(t, 0))
		raw.SequenceNumber = initialSeq + i
		out := e.exec.Execute(ctx, sign(t, raw, e.priv), e.view)
		require.Equal(chain.Executed, out.Status.Code, out.Status.String())
		e.view.Apply(out.WriteSet)
	}
	value, err := e.view.GetValue(ctx, counterPath(e.sender).Key())
	require.NoError(err)
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 13}, value)

	// Replaying an included transaction is rejected.
	raw := e.raw(incrScript(t, 0))
	requireDiscarded(t, e.exec.Execute(ctx, sign(t, raw, e.priv), e.view), chain.SequenceNumberTooOld)
}

// failingView fails every read of [key].
type failingView struct {
	state.MemoryView
	key string
}

func (f failingView) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	if string(key) == f.key {
		return nil, errDisk
	}
	return f.MemoryView.GetValue(ctx, key)
}

func TestExecuteStorageError(t *testing.T) {
	t.Run("prologue", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		e := newTestEnv(t)
		view := state.NewMockView(ctrl)
		view.EXPECT().GetValue(gomock.Any(), gomock.Any()).Return(nil, errDisk).AnyTimes()
		out := e.exec.Execute(context.Background(), sign(t, e.raw(incrScript(t, 0)), e.priv), view)
		requireDiscarded(t, out, chain.StorageError)
	})
	t.Run("main", func(t *testing.T) {
		e := newTestEnv(t)
		view := failingView{MemoryView: e.view, key: string(counterPath(e.sender).Key())}
		out := e.exec.Execute(context.Background(), sign(t, e.raw(incrScript(t, 0)), e.priv), view)
		requireDiscarded(t, out, chain.StorageError)
	})
}

func TestExecuteInvariantViolation(t *testing.T) {
	e := newTestEnv(t)
	b := bytecode.NewScriptBuilder()
	dangle := b.FunctionHandle(counterID, "dangle", nil, []bytecode.SignatureToken{bytecode.RefToken(bytecode.U64Token)}, 0)
	script := buildScript(t, b, nil, nil, bytecode.NewCode().
		EmitArg(bytecode.Call, uint64(dangle)).
		Emit(bytecode.ReadRef).
		Emit(bytecode.Pop).
		Emit(bytecode.Ret),
	)
	tx := sign(t, e.raw(script), e.priv)
	require.Panics(t, func() {
		e.exec.Execute(context.Background(), tx, e.view)
	})
	errs := e.log.Entries(avalogging.Error)
	require.Len(t, errs, 1)
	require.Equal(t, e.sender.String(), errs[0].Fields["sender"])
}

func BenchmarkExecuteCounter(b *testing.B) {
	e := newTestEnv(b)
	tx := sign(b, e.raw(incrScript(b, 0)), e.priv)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.exec.Execute(ctx, tx, e.view)
	}
}
