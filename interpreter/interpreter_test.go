// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/gas"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/types"
	"github.com/ava-labs/stackvm/verifier"
)

var (
	testAddr = codec.ShortAddress(0xaa)
	alice    = codec.ShortAddress(0xa1)

	u64s = []bytecode.SignatureToken{bytecode.U64Token}
)

type env struct {
	view   state.MemoryView
	loader *loader.Loader
	interp *Interpreter
}

func newEnv(t testing.TB) *env {
	l, err := loader.New(logging.NoLog{}, trace.Noop, prometheus.NewRegistry(), bytecode.Codec{}, verifier.BoundsVerifier{}, loader.NewConfig())
	require.NoError(t, err)
	return &env{
		view:   state.MemoryView{},
		loader: l,
		interp: New(trace.Noop, l, gas.DefaultSchedule(), natives.Standard(), NewConfig()),
	}
}

func (e *env) publish(t testing.TB, b *bytecode.ModuleBuilder) *loader.Module {
	m, err := b.Build()
	require.NoError(t, err)
	raw, err := bytecode.EncodeModule(m)
	require.NoError(t, err)
	e.view[string(state.CodePath(m.Self()).Key())] = raw
	loaded, err := e.loader.Load(context.Background(), e.view, m.Self())
	require.NoError(t, err)
	return loaded
}

func (e *env) run(t testing.TB, m *loader.Module, name string, limit uint64, args ...types.Value) (*Result, *gas.Meter, error) {
	fn, ok := m.Function(name)
	require.True(t, ok, name)
	meter := gas.NewMeter(limit)
	res, err := e.interp.Execute(context.Background(), fn, nil, args, meter, e.view)
	return res, meter, err
}

func binaryModule(op bytecode.Opcode, tok bytecode.SignatureToken) *bytecode.ModuleBuilder {
	b := bytecode.NewModuleBuilder(testAddr, "Arith")
	b.Function("f", true, 0,
		[]bytecode.SignatureToken{tok, tok},
		[]bytecode.SignatureToken{tok},
		nil,
		bytecode.NewCode().EmitArg(bytecode.CopyLoc, 0).EmitArg(bytecode.CopyLoc, 1).Emit(op).Emit(bytecode.Ret),
	)
	return b
}

func mustU128(v *uint256.Int) types.U128 {
	u, ok := types.NewU128(v)
	if !ok {
		panic("u128 out of range")
	}
	return u
}

func TestArithmetic(t *testing.T) {
	maxU128 := new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)
	tests := []struct {
		name  string
		op    bytecode.Opcode
		tok   bytecode.SignatureToken
		a, b  types.Value
		want  types.Value
		abort uint64
	}{
		{name: "add u64", op: bytecode.Add, tok: bytecode.U64Token, a: types.U64(2), b: types.U64(3), want: types.U64(5)},
		{name: "add u8 overflow", op: bytecode.Add, tok: bytecode.U8Token, a: types.U8(255), b: types.U8(1), abort: ArithmeticError},
		{name: "sub underflow", op: bytecode.Sub, tok: bytecode.U64Token, a: types.U64(1), b: types.U64(2), abort: ArithmeticError},
		{name: "mul u64", op: bytecode.Mul, tok: bytecode.U64Token, a: types.U64(6), b: types.U64(7), want: types.U64(42)},
		{name: "mul u64 overflow", op: bytecode.Mul, tok: bytecode.U64Token, a: types.U64(1 << 40), b: types.U64(1 << 30), abort: ArithmeticError},
		{name: "div", op: bytecode.Div, tok: bytecode.U64Token, a: types.U64(9), b: types.U64(2), want: types.U64(4)},
		{name: "div by zero", op: bytecode.Div, tok: bytecode.U8Token, a: types.U8(9), b: types.U8(0), abort: DivisionByZero},
		{name: "mod by zero", op: bytecode.Mod, tok: bytecode.U64Token, a: types.U64(9), b: types.U64(0), abort: DivisionByZero},
		{name: "mod", op: bytecode.Mod, tok: bytecode.U64Token, a: types.U64(9), b: types.U64(4), want: types.U64(1)},
		{name: "xor", op: bytecode.Xor, tok: bytecode.U8Token, a: types.U8(0b1100), b: types.U8(0b1010), want: types.U8(0b0110)},
		{name: "add u128", op: bytecode.Add, tok: bytecode.U128Token, a: types.U128FromUint64(1 << 63), b: types.U128FromUint64(1 << 63), want: mustU128(new(uint256.Int).Lsh(uint256.NewInt(1), 64))},
		{name: "add u128 overflow", op: bytecode.Add, tok: bytecode.U128Token, a: mustU128(maxU128), b: types.U128FromUint64(1), abort: ArithmeticError},
		{name: "mul u128 overflow", op: bytecode.Mul, tok: bytecode.U128Token, a: mustU128(maxU128), b: types.U128FromUint64(2), abort: ArithmeticError},
		{name: "div u128 by zero", op: bytecode.Div, tok: bytecode.U128Token, a: mustU128(maxU128), b: types.U128FromUint64(0), abort: DivisionByZero},
		{name: "lt u128", op: bytecode.Lt, tok: bytecode.U128Token, a: types.U128FromUint64(1), b: mustU128(maxU128), want: types.Bool(true)},
		{name: "ge u8", op: bytecode.Ge, tok: bytecode.U8Token, a: types.U8(1), b: types.U8(1), want: types.Bool(true)},
		{name: "eq bytes", op: bytecode.Eq, tok: bytecode.BytesToken, a: types.Bytes("a"), b: types.Bytes("a"), want: types.Bool(true)},
		{name: "neq address", op: bytecode.Neq, tok: bytecode.AddressToken, a: types.Address(alice), b: types.Address(testAddr), want: types.Bool(true)},
		{name: "concat", op: bytecode.BytesConcat, tok: bytecode.BytesToken, a: types.Bytes("ab"), b: types.Bytes("cd"), want: types.Bytes("abcd")},
		{name: "and", op: bytecode.And, tok: bytecode.BoolToken, a: types.Bool(true), b: types.Bool(false), want: types.Bool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			e := newEnv(t)
			m := e.publish(t, binaryModule(tt.op, tt.tok))
			res, _, err := e.run(t, m, "f", 10_000, tt.a, tt.b)
			if tt.abort != 0 {
				code, ok := AbortCode(err)
				require.True(ok, "%v", err)
				require.Equal(tt.abort, code)
				return
			}
			require.NoError(err)
			require.Len(res.Returns, 1)
			require.True(types.Equal(tt.want, res.Returns[0]), "got %s", res.Returns[0])
		})
	}
}

func TestShiftAndCast(t *testing.T) {
	e := newEnv(t)
	b := bytecode.NewModuleBuilder(testAddr, "Bits")
	b.Function("shl", true, 0,
		[]bytecode.SignatureToken{bytecode.U128Token, bytecode.U8Token},
		[]bytecode.SignatureToken{bytecode.U128Token},
		nil,
		bytecode.NewCode().EmitArg(bytecode.MoveLoc, 0).EmitArg(bytecode.MoveLoc, 1).Emit(bytecode.Shl).Emit(bytecode.Ret),
	)
	b.Function("to_u8", true, 0,
		u64s,
		[]bytecode.SignatureToken{bytecode.U8Token},
		nil,
		bytecode.NewCode().EmitArg(bytecode.MoveLoc, 0).Emit(bytecode.CastU8).Emit(bytecode.Ret),
	)
	m := e.publish(t, b)

	t.Run("shl drops high bits", func(t *testing.T) {
		require := require.New(t)
		top := mustU128(new(uint256.Int).Lsh(uint256.NewInt(1), 127))
		res, _, err := e.run(t, m, "shl", 1_000, top, types.U8(1))
		require.NoError(err)
		require.True(types.Equal(types.U128FromUint64(0), res.Returns[0]))

		_, _, err = e.run(t, m, "shl", 1_000, top, types.U8(128))
		code, _ := AbortCode(err)
		require.Equal(ArithmeticError, code)
	})
	t.Run("cast", func(t *testing.T) {
		require := require.New(t)
		res, _, err := e.run(t, m, "to_u8", 1_000, types.U64(200))
		require.NoError(err)
		require.Equal(types.U8(200), res.Returns[0])

		_, _, err = e.run(t, m, "to_u8", 1_000, types.U64(256))
		code, _ := AbortCode(err)
		require.Equal(ArithmeticError, code)
	})
}

func TestGas(t *testing.T) {
	e := newEnv(t)
	m := e.publish(t, binaryModule(bytecode.Add, bytecode.U64Token))

	t.Run("exact cost", func(t *testing.T) {
		require := require.New(t)
		// 2 locals, 2 CopyLoc of 8 bytes, Add, Ret.
		const cost = 2 + 2*(2+8) + 2 + 1
		_, meter, err := e.run(t, m, "f", cost, types.U64(1), types.U64(2))
		require.NoError(err)
		require.Zero(meter.Remaining())

		_, meter, err = e.run(t, m, "f", cost-1, types.U64(1), types.U64(2))
		require.ErrorIs(err, gas.ErrOutOfGas)
		require.Zero(meter.Remaining())
	})

	t.Run("infinite loop", func(t *testing.T) {
		require := require.New(t)
		b := bytecode.NewModuleBuilder(testAddr, "Spin")
		b.Function("spin", true, 0, nil, nil, nil,
			bytecode.NewCode().Label("top").Emit(bytecode.Nop).Jump(bytecode.Branch, "top"))
		spin := e.publish(t, b)
		_, meter, err := e.run(t, spin, "spin", 1_000)
		require.ErrorIs(err, gas.ErrOutOfGas)
		require.Equal(uint64(1_000), meter.Used())
	})
}

func TestCalls(t *testing.T) {
	e := newEnv(t)
	e.publish(t, func() *bytecode.ModuleBuilder {
		b := bytecode.NewModuleBuilder(testAddr, "Lib")
		b.Function("identity", true, 1,
			[]bytecode.SignatureToken{bytecode.TypeParamToken(0)},
			[]bytecode.SignatureToken{bytecode.TypeParamToken(0)},
			nil,
			bytecode.NewCode().EmitArg(bytecode.MoveLoc, 0).Emit(bytecode.Ret),
		)
		b.Function("double", true, 0, u64s, u64s, nil,
			bytecode.NewCode().EmitArg(bytecode.CopyLoc, 0).EmitArg(bytecode.MoveLoc, 0).Emit(bytecode.Add).Emit(bytecode.Ret),
		)
		return b
	}())

	lib := bytecode.NewBinaryID(testAddr, "Lib")
	b := bytecode.NewModuleBuilder(testAddr, "App")
	identity := b.FunctionHandle(lib, "identity",
		[]bytecode.SignatureToken{bytecode.TypeParamToken(0)},
		[]bytecode.SignatureToken{bytecode.TypeParamToken(0)}, 1)
	identityU64 := b.FunctionInstantiation(identity, bytecode.U64Token)
	double := b.FunctionHandle(lib, "double", u64s, u64s, 0)
	b.Function("run", true, 0, nil, u64s, nil,
		bytecode.NewCode().
			LdU64(21).
			EmitArg(bytecode.CallGeneric, uint64(identityU64)).
			EmitArg(bytecode.Call, uint64(double)).
			Emit(bytecode.Ret),
	)
	loop := b.FunctionHandle(b.Self(), "loop", nil, nil, 0)
	b.Function("loop", true, 0, nil, nil, nil,
		bytecode.NewCode().EmitArg(bytecode.Call, uint64(loop)).Emit(bytecode.Ret))
	app := e.publish(t, b)

	t.Run("cross module and generic", func(t *testing.T) {
		require := require.New(t)
		res, _, err := e.run(t, app, "run", 10_000)
		require.NoError(err)
		require.Equal([]types.Value{types.U64(42)}, res.Returns)
	})
	t.Run("call depth", func(t *testing.T) {
		require := require.New(t)
		_, _, err := e.run(t, app, "loop", 1_000_000)
		code, ok := AbortCode(err)
		require.True(ok)
		require.Equal(CallStackOverflow, code)
	})
	t.Run("bad arguments", func(t *testing.T) {
		_, _, err := e.run(t, app, "run", 10_000, types.U64(1))
		require.ErrorIs(t, err, ErrBadEntryPoint)
	})
}

func TestInstantiationCharge(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)
	schedule := gas.DefaultSchedule()

	g := bytecode.NewModuleBuilder(testAddr, "Generic")
	g.Function("identity", true, 1,
		[]bytecode.SignatureToken{bytecode.TypeParamToken(0)},
		[]bytecode.SignatureToken{bytecode.TypeParamToken(0)},
		nil,
		bytecode.NewCode().EmitArg(bytecode.MoveLoc, 0).Emit(bytecode.Ret),
	)
	e.publish(t, g)

	b := bytecode.NewModuleBuilder(testAddr, "Caller")
	identity := b.FunctionHandle(bytecode.NewBinaryID(testAddr, "Generic"), "identity",
		[]bytecode.SignatureToken{bytecode.TypeParamToken(0)},
		[]bytecode.SignatureToken{bytecode.TypeParamToken(0)}, 1)
	identityU64 := uint64(b.FunctionInstantiation(identity, bytecode.U64Token))
	identityBool := uint64(b.FunctionInstantiation(identity, bytecode.BoolToken))
	b.Function("once", true, 0, nil, nil, nil,
		bytecode.NewCode().
			LdU64(21).
			EmitArg(bytecode.CallGeneric, identityU64).
			Emit(bytecode.Pop).
			Emit(bytecode.Ret),
	)
	b.Function("twice", true, 0, nil, nil, nil,
		bytecode.NewCode().
			LdU64(21).
			EmitArg(bytecode.CallGeneric, identityU64).
			EmitArg(bytecode.CallGeneric, identityU64).
			Emit(bytecode.Pop).
			Emit(bytecode.Ret),
	)
	b.Function("mixed", true, 0, nil, nil, nil,
		bytecode.NewCode().
			LdU64(21).
			EmitArg(bytecode.CallGeneric, identityU64).
			Emit(bytecode.Pop).
			Emit(bytecode.LdTrue).
			EmitArg(bytecode.CallGeneric, identityBool).
			Emit(bytecode.Pop).
			Emit(bytecode.Ret),
	)
	m := e.publish(t, b)

	used := func(name string) uint64 {
		_, meter, err := e.run(t, m, name, 10_000)
		require.NoError(err)
		return meter.Used()
	}
	// Entering identity without paying for its instantiation.
	call := schedule.InstructionCost(bytecode.CallGeneric) + schedule.CallPerLocal +
		schedule.InstructionCost(bytecode.MoveLoc) + schedule.InstructionCost(bytecode.Ret)

	once := used("once")
	require.Equal(once, used("once"))
	require.Equal(once+call, used("twice"))
	require.Equal(
		once+schedule.InstructionCost(bytecode.LdTrue)+call+schedule.InstantiationPerType+schedule.InstructionCost(bytecode.Pop),
		used("mixed"),
	)
}

// Raising the limit never lowers the gas used, and any limit below the cost
// of a call fails without touching the view.
func TestGasMonotonic(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)
	m := e.publish(t, counterModule())
	key := string(state.ResourcePath(alice, testAddr.String()+"::Test::Counter").Key())
	owner := types.Address(alice)

	_, _, err := e.run(t, m, "publish", 10_000, types.Signer(alice), types.U64(0))
	require.NoError(err)
	_, meter, err := e.run(t, m, "incr", 10_000, owner)
	require.NoError(err)
	cost := meter.Used()

	var (
		prev  uint64
		count = uint64(1)
	)
	for limit := uint64(0); limit <= cost+2; limit++ {
		_, meter, err := e.run(t, m, "incr", limit, owner)
		require.GreaterOrEqual(meter.Used(), prev)
		prev = meter.Used()
		if limit < cost {
			require.ErrorIs(err, gas.ErrOutOfGas, "limit %d", limit)
			require.Equal(limit, meter.Used())
		} else {
			require.NoError(err, "limit %d", limit)
			require.Equal(cost, meter.Used())
			count++
		}
		value, err := types.Serialize(&types.Struct{Fields: []types.Value{types.U64(count)}})
		require.NoError(err)
		require.Equal(value, e.view[key], "limit %d", limit)
	}
}

// counterModule declares Counter{value} with functions to publish, bump,
// read and remove it.
func counterModule() *bytecode.ModuleBuilder {
	b := bytecode.NewModuleBuilder(testAddr, "Test")
	counter := b.Struct("Counter", true, 0, bytecode.FieldDef{Name: "value", Type: bytecode.U64Token})
	value := b.FieldHandle(counter, 0)
	addr := []bytecode.SignatureToken{bytecode.AddressToken}

	b.Function("publish", true, 0,
		[]bytecode.SignatureToken{bytecode.SignerToken, bytecode.U64Token}, nil, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.MoveLoc, 1).
			EmitArg(bytecode.Pack, uint64(counter)).
			EmitArg(bytecode.MoveTo, uint64(counter)).
			Emit(bytecode.Ret),
	)
	b.Function("incr", true, 0, addr, nil,
		[]bytecode.SignatureToken{bytecode.MutRefToken(bytecode.U64Token)},
		bytecode.NewCode().
			EmitArg(bytecode.CopyLoc, 0).
			EmitArg(bytecode.MutBorrowGlobal, uint64(counter)).
			EmitArg(bytecode.MutBorrowField, uint64(value)).
			EmitArg(bytecode.StLoc, 1).
			EmitArg(bytecode.CopyLoc, 1).
			Emit(bytecode.ReadRef).
			LdU64(1).
			Emit(bytecode.Add).
			EmitArg(bytecode.MoveLoc, 1).
			Emit(bytecode.WriteRef).
			Emit(bytecode.Ret),
	)
	incr := b.FunctionHandle(b.Self(), "incr", addr, nil, 0)
	b.Function("incr_then_abort", true, 0, addr, nil, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.Call, uint64(incr)).
			LdU64(42).
			Emit(bytecode.Abort),
	)
	b.Function("get", true, 0, addr, u64s, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.ImmBorrowGlobal, uint64(counter)).
			EmitArg(bytecode.ImmBorrowField, uint64(value)).
			Emit(bytecode.ReadRef).
			Emit(bytecode.Ret),
	)
	b.Function("take", true, 0, addr, u64s, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.MoveFrom, uint64(counter)).
			EmitArg(bytecode.Unpack, uint64(counter)).
			Emit(bytecode.Ret),
	)
	b.Function("exists", true, 0, addr, []bytecode.SignatureToken{bytecode.BoolToken}, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.Exists, uint64(counter)).
			Emit(bytecode.Ret),
	)
	return b
}

func TestGlobals(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)
	m := e.publish(t, counterModule())
	key := string(state.ResourcePath(alice, testAddr.String()+"::Test::Counter").Key())
	owner := types.Address(alice)

	_, _, err := e.run(t, m, "get", 10_000, owner)
	code, _ := AbortCode(err)
	require.Equal(ResourceDoesNotExist, code)

	_, _, err = e.run(t, m, "publish", 10_000, types.Signer(alice), types.U64(10))
	require.NoError(err)
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 10}, e.view[key])

	_, _, err = e.run(t, m, "publish", 10_000, types.Signer(alice), types.U64(3))
	code, _ = AbortCode(err)
	require.Equal(ResourceAlreadyExists, code)

	_, _, err = e.run(t, m, "incr", 10_000, owner)
	require.NoError(err)
	res, _, err := e.run(t, m, "get", 10_000, owner)
	require.NoError(err)
	require.Equal(types.U64(11), res.Returns[0])

	// Aborting discards the increment made by the callee.
	_, _, err = e.run(t, m, "incr_then_abort", 10_000, owner)
	code, _ = AbortCode(err)
	require.Equal(uint64(42), code)
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 11}, e.view[key])

	// Running out of gas at the final Ret, after the write, also leaves the
	// view untouched.
	_, _, err = e.run(t, m, "incr", 254, owner)
	require.ErrorIs(err, gas.ErrOutOfGas)
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 11}, e.view[key])

	res, _, err = e.run(t, m, "take", 10_000, owner)
	require.NoError(err)
	require.Equal(types.U64(11), res.Returns[0])
	require.NotContains(e.view, key)

	res, _, err = e.run(t, m, "exists", 10_000, owner)
	require.NoError(err)
	require.Equal(types.Bool(false), res.Returns[0])
}

func TestEvents(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)
	eventID := bytecode.NewBinaryID(natives.StdlibAddress, natives.EventModule)
	emitParams := []bytecode.SignatureToken{bytecode.BytesToken, bytecode.TypeParamToken(0)}

	stdlib := bytecode.NewModuleBuilder(natives.StdlibAddress, natives.EventModule)
	stdlib.NativeFunction("emit", 1, emitParams, nil)
	e.publish(t, stdlib)

	b := bytecode.NewModuleBuilder(testAddr, "Emitter")
	emit := b.FunctionInstantiation(b.FunctionHandle(eventID, "emit", emitParams, nil, 1), bytecode.U64Token)
	b.Function("emit_twice", true, 0, nil, nil, nil,
		bytecode.NewCode().
			LdBytes([]byte("k")).LdU64(5).EmitArg(bytecode.CallGeneric, uint64(emit)).
			LdBytes([]byte("k")).LdU64(6).EmitArg(bytecode.CallGeneric, uint64(emit)).
			Emit(bytecode.Ret),
	)
	m := e.publish(t, b)

	res, _, err := e.run(t, m, "emit_twice", 10_000)
	require.NoError(err)
	require.Len(res.Events, 2)
	for i, ev := range res.Events {
		require.Equal([]byte("k"), ev.Key)
		require.Equal(uint64(i), ev.SequenceNumber)
		require.Equal(types.PrimitiveTag(types.U64Type), ev.Type)
	}
	require.Equal([]byte{0, 0, 0, 0, 0, 0, 0, 6}, res.Events[1].Data)
}

func TestUnknownNative(t *testing.T) {
	e := newEnv(t)
	b := bytecode.NewModuleBuilder(testAddr, "Host")
	b.NativeFunction("missing", 0, nil, nil)
	m := e.publish(t, b)
	_, _, err := e.run(t, m, "missing", 10_000)
	require.ErrorIs(t, err, ErrUnknownNative)
}

func TestDanglingReference(t *testing.T) {
	e := newEnv(t)
	b := bytecode.NewModuleBuilder(testAddr, "Dangling")
	refU64 := []bytecode.SignatureToken{bytecode.RefToken(bytecode.U64Token)}
	b.Function("leak", true, 0, nil, refU64, u64s,
		bytecode.NewCode().LdU64(1).EmitArg(bytecode.StLoc, 0).EmitArg(bytecode.ImmBorrowLoc, 0).Emit(bytecode.Ret))
	leak := b.FunctionHandle(b.Self(), "leak", nil, refU64, 0)
	b.Function("read", true, 0, nil, u64s, nil,
		bytecode.NewCode().EmitArg(bytecode.Call, uint64(leak)).Emit(bytecode.ReadRef).Emit(bytecode.Ret))
	m := e.publish(t, b)

	require.PanicsWithError(t, "invariant violation: reference to dead frame 1", func() {
		_, _, _ = e.run(t, m, "read", 10_000)
	})
}

func BenchmarkIncrement(b *testing.B) {
	e := newEnv(b)
	m := e.publish(b, counterModule())
	_, _, err := e.run(b, m, "publish", 10_000, types.Signer(alice), types.U64(0))
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := e.run(b, m, "incr", 10_000, types.Address(alice))
		require.NoError(b, err)
	}
}
