// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/types"
)

// opFunc applies an instruction whose static cost was already charged. It
// moves the program counter unless it leaves the frame.
type opFunc func(m *machine, f *frame, inst bytecode.Instruction) error

var ops = [256]opFunc{
	bytecode.Nop:     opNop,
	bytecode.Pop:     opPop,
	bytecode.Ret:     opRet,
	bytecode.BrTrue:  opBrTrue,
	bytecode.BrFalse: opBrFalse,
	bytecode.Branch:  opBranch,

	bytecode.LdU8:    opLdU8,
	bytecode.LdU64:   opLdU64,
	bytecode.LdU128:  opLdU128,
	bytecode.LdTrue:  opLdTrue,
	bytecode.LdFalse: opLdFalse,
	bytecode.LdAddr:  opLdAddr,
	bytecode.LdBytes: opLdBytes,

	bytecode.CopyLoc:               opCopyLoc,
	bytecode.MoveLoc:               opMoveLoc,
	bytecode.StLoc:                 opStLoc,
	bytecode.MutBorrowLoc:          opMutBorrowLoc,
	bytecode.ImmBorrowLoc:          opImmBorrowLoc,
	bytecode.MutBorrowField:        opMutBorrowField,
	bytecode.ImmBorrowField:        opImmBorrowField,
	bytecode.MutBorrowFieldGeneric: opMutBorrowFieldGeneric,
	bytecode.ImmBorrowFieldGeneric: opImmBorrowFieldGeneric,
	bytecode.ReadRef:               opReadRef,
	bytecode.WriteRef:              opWriteRef,
	bytecode.FreezeRef:             opFreezeRef,

	bytecode.Call:          opCall,
	bytecode.CallGeneric:   opCallGeneric,
	bytecode.Pack:          opPack,
	bytecode.PackGeneric:   opPackGeneric,
	bytecode.Unpack:        opUnpack,
	bytecode.UnpackGeneric: opUnpack,

	bytecode.Add:      opArith(add),
	bytecode.Sub:      opArith(sub),
	bytecode.Mul:      opArith(mul),
	bytecode.Div:      opArith(div),
	bytecode.Mod:      opArith(mod),
	bytecode.BitAnd:   opArith(bitAnd),
	bytecode.BitOr:    opArith(bitOr),
	bytecode.Xor:      opArith(xor),
	bytecode.Shl:      opArith(shl),
	bytecode.Shr:      opArith(shr),
	bytecode.Lt:       opCompare(func(c int) bool { return c < 0 }),
	bytecode.Gt:       opCompare(func(c int) bool { return c > 0 }),
	bytecode.Le:       opCompare(func(c int) bool { return c <= 0 }),
	bytecode.Ge:       opCompare(func(c int) bool { return c >= 0 }),
	bytecode.Eq:       opEq(true),
	bytecode.Neq:      opEq(false),
	bytecode.And:      opLogic(func(a, b bool) bool { return a && b }),
	bytecode.Or:       opLogic(func(a, b bool) bool { return a || b }),
	bytecode.Not:      opNot,
	bytecode.CastU8:   opCast(castU8),
	bytecode.CastU64:  opCast(castU64),
	bytecode.CastU128: opCast(castU128),
	bytecode.Abort:    opAbort,

	bytecode.Exists:                 opExists(false),
	bytecode.ExistsGeneric:          opExists(true),
	bytecode.MutBorrowGlobal:        opBorrowGlobal(false, true),
	bytecode.MutBorrowGlobalGeneric: opBorrowGlobal(true, true),
	bytecode.ImmBorrowGlobal:        opBorrowGlobal(false, false),
	bytecode.ImmBorrowGlobalGeneric: opBorrowGlobal(true, false),
	bytecode.MoveFrom:               opMoveFrom(false),
	bytecode.MoveFromGeneric:        opMoveFrom(true),
	bytecode.MoveTo:                 opMoveTo(false),
	bytecode.MoveToGeneric:          opMoveTo(true),

	bytecode.BytesLen:    opBytesLen,
	bytecode.BytesConcat: opBytesConcat,
}

func next(m *machine, f *frame, v types.Value) error {
	f.pc++
	return m.push(v)
}

func opNop(_ *machine, f *frame, _ bytecode.Instruction) error {
	f.pc++
	return nil
}

func opPop(m *machine, f *frame, _ bytecode.Instruction) error {
	m.pop()
	f.pc++
	return nil
}

func opRet(m *machine, f *frame, _ bytecode.Instruction) error {
	m.ret(f)
	return nil
}

func opBrTrue(m *machine, f *frame, inst bytecode.Instruction) error {
	if pop[types.Bool](m) {
		branch(f, inst)
	} else {
		f.pc++
	}
	return nil
}

func opBrFalse(m *machine, f *frame, inst bytecode.Instruction) error {
	if !pop[types.Bool](m) {
		branch(f, inst)
	} else {
		f.pc++
	}
	return nil
}

func opBranch(_ *machine, f *frame, inst bytecode.Instruction) error {
	branch(f, inst)
	return nil
}

func opLdU8(m *machine, f *frame, inst bytecode.Instruction) error {
	return next(m, f, types.U8(inst.Arg))
}

func opLdU64(m *machine, f *frame, inst bytecode.Instruction) error {
	return next(m, f, types.U64(inst.Arg))
}

func opLdU128(m *machine, f *frame, inst bytecode.Instruction) error {
	return next(m, f, types.U128FromBytes(inst.Data))
}

func opLdTrue(m *machine, f *frame, _ bytecode.Instruction) error {
	return next(m, f, types.Bool(true))
}

func opLdFalse(m *machine, f *frame, _ bytecode.Instruction) error {
	return next(m, f, types.Bool(false))
}

func opLdAddr(m *machine, f *frame, inst bytecode.Instruction) error {
	var a types.Address
	copy(a[:], inst.Data)
	return next(m, f, a)
}

func opLdBytes(m *machine, f *frame, inst bytecode.Instruction) error {
	if err := m.chargeBytes(uint64(len(inst.Data))); err != nil {
		return err
	}
	return next(m, f, types.Bytes(inst.Data))
}

func local(f *frame, inst bytecode.Instruction) types.Value {
	v := f.locals[inst.Arg]
	if v == nil {
		types.Violation("%s: read of unavailable local %d", f.fn, inst.Arg)
	}
	return v
}

func opCopyLoc(m *machine, f *frame, inst bytecode.Instruction) error {
	v := local(f, inst)
	if err := m.chargeBytes(types.Size(v)); err != nil {
		return err
	}
	return next(m, f, types.Copy(v))
}

func opMoveLoc(m *machine, f *frame, inst bytecode.Instruction) error {
	v := local(f, inst)
	f.locals[inst.Arg] = nil
	return next(m, f, v)
}

func opStLoc(m *machine, f *frame, inst bytecode.Instruction) error {
	f.locals[inst.Arg] = m.pop()
	f.pc++
	return nil
}

func borrowLoc(m *machine, f *frame, inst bytecode.Instruction, mutable bool) error {
	return next(m, f, types.Reference{
		Root:    types.LocalLocation{Frame: f.id, Slot: uint16(inst.Arg)},
		Mutable: mutable,
	})
}

func opMutBorrowLoc(m *machine, f *frame, inst bytecode.Instruction) error {
	return borrowLoc(m, f, inst, true)
}

func opImmBorrowLoc(m *machine, f *frame, inst bytecode.Instruction) error {
	return borrowLoc(m, f, inst, false)
}

func borrowField(m *machine, f *frame, field loader.FieldRef, mutable bool) error {
	ref := pop[types.Reference](m)
	return next(m, f, ref.Field(field.Field, mutable))
}

func opMutBorrowField(m *machine, f *frame, inst bytecode.Instruction) error {
	return borrowField(m, f, f.fn.Tables.Fields[inst.Arg], true)
}

func opImmBorrowField(m *machine, f *frame, inst bytecode.Instruction) error {
	return borrowField(m, f, f.fn.Tables.Fields[inst.Arg], false)
}

func opMutBorrowFieldGeneric(m *machine, f *frame, inst bytecode.Instruction) error {
	return borrowField(m, f, f.fn.Tables.FieldInstantiations[inst.Arg].Field, true)
}

func opImmBorrowFieldGeneric(m *machine, f *frame, inst bytecode.Instruction) error {
	return borrowField(m, f, f.fn.Tables.FieldInstantiations[inst.Arg].Field, false)
}

func opReadRef(m *machine, f *frame, _ bytecode.Instruction) error {
	v := m.deref(pop[types.Reference](m))
	if err := m.chargeBytes(types.Size(v)); err != nil {
		return err
	}
	return next(m, f, types.Copy(v))
}

func opWriteRef(m *machine, f *frame, _ bytecode.Instruction) error {
	ref := pop[types.Reference](m)
	v := m.pop()
	if err := m.chargeBytes(types.Size(v)); err != nil {
		return err
	}
	if err := m.write(ref, v); err != nil {
		return err
	}
	f.pc++
	return nil
}

func opFreezeRef(m *machine, f *frame, _ bytecode.Instruction) error {
	ref := pop[types.Reference](m)
	ref.Mutable = false
	return next(m, f, ref)
}

func opCall(m *machine, f *frame, inst bytecode.Instruction) error {
	f.pc++
	return m.call(f.fn.Tables.Functions[inst.Arg], nil, nil)
}

func opCallGeneric(m *machine, f *frame, inst bytecode.Instruction) error {
	fi := f.fn.Tables.FunctionInstantiations[inst.Arg]
	f.pc++
	return m.call(fi.Function, typeArgsOf(f, fi.TypeArgs), nil)
}

func pack(m *machine, f *frame, def *types.StructDef) error {
	return next(m, f, &types.Struct{Fields: m.popN(len(def.Fields))})
}

func opPack(m *machine, f *frame, inst bytecode.Instruction) error {
	return pack(m, f, f.fn.Tables.StructDefs[inst.Arg])
}

func opPackGeneric(m *machine, f *frame, inst bytecode.Instruction) error {
	return pack(m, f, f.fn.Tables.StructInstantiations[inst.Arg].Struct)
}

func opUnpack(m *machine, f *frame, _ bytecode.Instruction) error {
	s := pop[*types.Struct](m)
	for _, field := range s.Fields {
		if err := m.push(field); err != nil {
			return err
		}
	}
	f.pc++
	return nil
}

func opNot(m *machine, f *frame, _ bytecode.Instruction) error {
	return next(m, f, !pop[types.Bool](m))
}

func opLogic(fn func(a, b bool) bool) opFunc {
	return func(m *machine, f *frame, _ bytecode.Instruction) error {
		b := pop[types.Bool](m)
		a := pop[types.Bool](m)
		return next(m, f, types.Bool(fn(bool(a), bool(b))))
	}
}

// opEq compares values. References compare the values they point to.
func opEq(want bool) opFunc {
	return func(m *machine, f *frame, _ bytecode.Instruction) error {
		b, a := m.pop(), m.pop()
		if ref, ok := a.(types.Reference); ok {
			a = m.deref(ref)
		}
		if ref, ok := b.(types.Reference); ok {
			b = m.deref(ref)
		}
		if err := m.chargeBytes(types.Size(a) + types.Size(b)); err != nil {
			return err
		}
		return next(m, f, types.Bool(types.Equal(a, b) == want))
	}
}

func opAbort(m *machine, f *frame, _ bytecode.Instruction) error {
	return m.abort(f, uint64(pop[types.U64](m)))
}

// layout returns the struct layout named by a global instruction operand.
func layout(m *machine, f *frame, inst bytecode.Instruction, generic bool) *loader.StructLayout {
	if generic {
		si := f.fn.Tables.StructInstantiations[inst.Arg]
		return m.interp.loader.InstantiateStruct(si.Struct, typeArgsOf(f, si.TypeArgs))
	}
	return m.interp.loader.InstantiateStruct(f.fn.Tables.StructDefs[inst.Arg], nil)
}

func (m *machine) popAddress() codec.Address {
	return codec.Address(pop[types.Address](m))
}

// popSigner accepts a signer or a reference to one.
func (m *machine) popSigner() codec.Address {
	v := m.pop()
	if ref, ok := v.(types.Reference); ok {
		v = m.deref(ref)
	}
	s, ok := v.(types.Signer)
	if !ok {
		types.Violation("expected signer, got %s", v)
	}
	return codec.Address(s)
}

func opExists(generic bool) opFunc {
	return func(m *machine, f *frame, inst bytecode.Instruction) error {
		g, err := m.global(layout(m, f, inst, generic), m.popAddress())
		if err != nil {
			return err
		}
		return next(m, f, types.Bool(g.value != nil))
	}
}

func opBorrowGlobal(generic bool, mutable bool) opFunc {
	return func(m *machine, f *frame, inst bytecode.Instruction) error {
		g, err := m.global(layout(m, f, inst, generic), m.popAddress())
		if err != nil {
			return err
		}
		if g.value == nil {
			return m.abort(f, ResourceDoesNotExist)
		}
		return next(m, f, types.Reference{
			Root:    types.GlobalLocation{Key: g.key},
			Mutable: mutable,
		})
	}
}

func opMoveFrom(generic bool) opFunc {
	return func(m *machine, f *frame, inst bytecode.Instruction) error {
		g, err := m.global(layout(m, f, inst, generic), m.popAddress())
		if err != nil {
			return err
		}
		if g.value == nil {
			return m.abort(f, ResourceDoesNotExist)
		}
		if err := m.markDirty(g); err != nil {
			return err
		}
		v := g.value
		g.value = nil
		return next(m, f, v)
	}
}

func opMoveTo(generic bool) opFunc {
	return func(m *machine, f *frame, inst bytecode.Instruction) error {
		v := m.pop()
		g, err := m.global(layout(m, f, inst, generic), m.popSigner())
		if err != nil {
			return err
		}
		if g.value != nil {
			return m.abort(f, ResourceAlreadyExists)
		}
		if err := m.chargeBytes(types.Size(v)); err != nil {
			return err
		}
		if err := m.markDirty(g); err != nil {
			return err
		}
		g.value = v
		f.pc++
		return nil
	}
}

func opBytesLen(m *machine, f *frame, _ bytecode.Instruction) error {
	v := m.pop()
	if ref, ok := v.(types.Reference); ok {
		v = m.deref(ref)
	}
	b, ok := v.(types.Bytes)
	if !ok {
		types.Violation("expected bytes, got %s", v)
	}
	return next(m, f, types.U64(len(b)))
}

func opBytesConcat(m *machine, f *frame, _ bytecode.Instruction) error {
	b := pop[types.Bytes](m)
	a := pop[types.Bytes](m)
	if err := m.chargeBytes(uint64(len(a) + len(b))); err != nil {
		return err
	}
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return next(m, f, types.Bytes(out))
}
