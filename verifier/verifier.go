// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package verifier contains the interface the loader uses to check new
// binaries and two implementations of it. The structural verifier checks
// every index, arity and branch target so that the loader and the
// interpreter may index tables without bounds checks. The type verifier
// adds operand type and stack balance checks on top. Neither performs
// reference or resource safety analysis.
package verifier

import (
	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/consts"
)

// VerifiedModule is a module that passed verification. It still contains
// symbolic references to other modules.
type VerifiedModule struct {
	*bytecode.Module
}

// VerifiedScript is a script that passed verification.
type VerifiedScript struct {
	*bytecode.Script
}

type Verifier interface {
	VerifyModule(*bytecode.Module) (*VerifiedModule, error)
	VerifyScript(*bytecode.Script) (*VerifiedScript, error)
}

var _ Verifier = BoundsVerifier{}

type BoundsVerifier struct{}

func (BoundsVerifier) VerifyModule(m *bytecode.Module) (*VerifiedModule, error) {
	if err := checkModule(m); err != nil {
		return nil, err
	}
	return &VerifiedModule{Module: m}, nil
}

func (BoundsVerifier) VerifyScript(s *bytecode.Script) (*VerifiedScript, error) {
	if err := checkScript(s); err != nil {
		return nil, err
	}
	return &VerifiedScript{Script: s}, nil
}

// tables is the view of a binary's handle tables needed to check tokens
// and instructions.
type tables struct {
	moduleHandles   int
	structHandles   []bytecode.StructHandle
	functionHandles []bytecode.FunctionHandle
	fieldHandles    []bytecode.FieldHandle
	structInsts     []bytecode.StructInstantiation
	functionInsts   []bytecode.FunctionInstantiation
	fieldInsts      []bytecode.FieldInstantiation
	structDefs      []bytecode.StructDef
	script          bool
}

func moduleTables(m *bytecode.Module) *tables {
	return &tables{
		moduleHandles:   len(m.ModuleHandles),
		structHandles:   m.StructHandles,
		functionHandles: m.FunctionHandles,
		fieldHandles:    m.FieldHandles,
		structInsts:     m.StructInstantiations,
		functionInsts:   m.FunctionInstantiations,
		fieldInsts:      m.FieldInstantiations,
		structDefs:      m.StructDefs,
	}
}

func scriptTables(s *bytecode.Script) *tables {
	return &tables{
		moduleHandles:   len(s.ModuleHandles),
		structHandles:   s.StructHandles,
		functionHandles: s.FunctionHandles,
		functionInsts:   s.FunctionInstantiations,
		script:          true,
	}
}

func checkModule(m *bytecode.Module) error {
	t := moduleTables(m)
	if t.moduleHandles == 0 {
		return newError(ErrIndexOutOfBounds, "module handles")
	}
	if err := t.checkHandles(); err != nil {
		return err
	}
	structNames := make(map[string]struct{}, len(m.StructDefs))
	for i, sd := range m.StructDefs {
		if int(sd.Handle) >= len(m.StructHandles) {
			return newError(ErrIndexOutOfBounds, "struct def %d", i)
		}
		h := m.StructHandles[sd.Handle]
		if h.Module != 0 {
			return newError(ErrForeignDefinition, "struct def %d", i)
		}
		if _, ok := structNames[h.Name]; ok {
			return newError(ErrDuplicateDefinition, "struct %s", h.Name)
		}
		structNames[h.Name] = struct{}{}
		for j, f := range sd.Fields {
			if f.Type.IsReference() {
				return newError(ErrReferenceInField, "struct %s field %d", h.Name, j)
			}
			if err := t.checkToken(f.Type, h.TypeParameters); err != nil {
				return newError(err, "struct %s field %d", h.Name, j)
			}
		}
	}
	for i, fh := range m.FieldHandles {
		if int(fh.Owner) >= len(m.StructDefs) || int(fh.Field) >= len(m.StructDefs[fh.Owner].Fields) {
			return newError(ErrIndexOutOfBounds, "field handle %d", i)
		}
	}
	for i, si := range m.StructInstantiations {
		if int(si.Def) >= len(m.StructDefs) {
			return newError(ErrIndexOutOfBounds, "struct instantiation %d", i)
		}
		h := m.StructHandles[m.StructDefs[si.Def].Handle]
		if err := t.checkTypeArgs(si.TypeArgs, h.TypeParameters, anyTypeParams); err != nil {
			return newError(err, "struct instantiation %d", i)
		}
	}
	for i, fi := range m.FieldInstantiations {
		if int(fi.Handle) >= len(m.FieldHandles) {
			return newError(ErrIndexOutOfBounds, "field instantiation %d", i)
		}
		owner := m.StructDefs[m.FieldHandles[fi.Handle].Owner]
		h := m.StructHandles[owner.Handle]
		if err := t.checkTypeArgs(fi.TypeArgs, h.TypeParameters, anyTypeParams); err != nil {
			return newError(err, "field instantiation %d", i)
		}
	}
	functionNames := make(map[string]struct{}, len(m.FunctionDefs))
	for i, fd := range m.FunctionDefs {
		if int(fd.Handle) >= len(m.FunctionHandles) {
			return newError(ErrIndexOutOfBounds, "function def %d", i)
		}
		h := m.FunctionHandles[fd.Handle]
		if h.Module != 0 {
			return newError(ErrForeignDefinition, "function def %d", i)
		}
		if _, ok := functionNames[h.Name]; ok {
			return newError(ErrDuplicateDefinition, "function %s", h.Name)
		}
		functionNames[h.Name] = struct{}{}
		if fd.Native {
			if len(fd.Code) > 0 || len(fd.Locals) > 0 {
				return newError(ErrNativeWithCode, "function %s", h.Name)
			}
			continue
		}
		for j, local := range fd.Locals {
			if err := t.checkToken(local, h.TypeParameters); err != nil {
				return newError(err, "function %s local %d", h.Name, j)
			}
		}
		numLocals := len(h.Parameters) + len(fd.Locals)
		if err := t.checkCode(fd.Code, numLocals, h.TypeParameters); err != nil {
			return newError(err, "function %s", h.Name)
		}
	}
	return nil
}

func checkScript(s *bytecode.Script) error {
	t := scriptTables(s)
	if err := t.checkHandles(); err != nil {
		return err
	}
	for i, p := range s.Parameters {
		if p.Kind == bytecode.SignerKind && i != 0 {
			return newError(ErrSignerParameter, "script parameter %d", i)
		}
		if err := t.checkToken(p, s.TypeParameters); err != nil {
			return newError(err, "script parameter %d", i)
		}
	}
	for i, local := range s.Locals {
		if err := t.checkToken(local, s.TypeParameters); err != nil {
			return newError(err, "script local %d", i)
		}
	}
	if err := t.checkCode(s.Code, len(s.Parameters)+len(s.Locals), s.TypeParameters); err != nil {
		return newError(err, "script")
	}
	return nil
}

// Instantiation tables are shared by all functions of a module, so type
// parameters inside them are checked where an instruction uses them.
const anyTypeParams = consts.MaxUint16

func (t *tables) checkHandles() error {
	for i, sh := range t.structHandles {
		if int(sh.Module) >= t.moduleHandles {
			return newError(ErrIndexOutOfBounds, "struct handle %d", i)
		}
	}
	for i, fh := range t.functionHandles {
		if int(fh.Module) >= t.moduleHandles {
			return newError(ErrIndexOutOfBounds, "function handle %d", i)
		}
		for j, p := range fh.Parameters {
			if err := t.checkToken(p, fh.TypeParameters); err != nil {
				return newError(err, "function handle %d parameter %d", i, j)
			}
		}
		for j, r := range fh.Returns {
			if err := t.checkToken(r, fh.TypeParameters); err != nil {
				return newError(err, "function handle %d return %d", i, j)
			}
		}
	}
	for i, fi := range t.functionInsts {
		if int(fi.Handle) >= len(t.functionHandles) {
			return newError(ErrIndexOutOfBounds, "function instantiation %d", i)
		}
	}
	return nil
}

// checkTypeArgs checks [args] against a declaration with [arity] type
// parameters. Type arguments may themselves refer to [scope] type
// parameters of the enclosing function.
func (t *tables) checkTypeArgs(args []bytecode.SignatureToken, arity uint16, scope uint16) error {
	if len(args) != int(arity) {
		return ErrTypeArityMismatch
	}
	for _, arg := range args {
		if arg.IsReference() {
			return ErrTypeArityMismatch
		}
		if err := t.checkToken(arg, scope); err != nil {
			return err
		}
	}
	return nil
}

func (t *tables) checkToken(tok bytecode.SignatureToken, typeParams uint16) error {
	switch tok.Kind {
	case bytecode.StructKind:
		if int(tok.StructHandle) >= len(t.structHandles) {
			return ErrIndexOutOfBounds
		}
		return t.checkTypeArgs(tok.TypeArgs, t.structHandles[tok.StructHandle].TypeParameters, typeParams)
	case bytecode.ReferenceKind, bytecode.MutableReferenceKind:
		if tok.Elem == nil || tok.Elem.IsReference() {
			return ErrIndexOutOfBounds
		}
		return t.checkToken(*tok.Elem, typeParams)
	case bytecode.TypeParameterKind:
		if tok.TypeParam >= typeParams {
			return ErrTypeParamOutOfBounds
		}
	}
	return nil
}

func (t *tables) checkCode(code []bytecode.Instruction, numLocals int, typeParams uint16) error {
	if len(code) == 0 {
		return ErrEmptyCode
	}
	switch code[len(code)-1].Op {
	case bytecode.Ret, bytecode.Abort, bytecode.Branch:
	default:
		return ErrFallThrough
	}
	for pc, inst := range code {
		if err := t.checkInstruction(inst, len(code), numLocals, typeParams); err != nil {
			return newError(err, "pc %d (%s)", pc, inst.Op)
		}
	}
	return nil
}

func (t *tables) checkInstruction(inst bytecode.Instruction, codeLen int, numLocals int, typeParams uint16) error {
	arg := int(inst.Arg)
	inBounds := func(n int) error {
		if arg >= n {
			return ErrIndexOutOfBounds
		}
		return nil
	}
	switch inst.Op {
	case bytecode.BrTrue, bytecode.BrFalse, bytecode.Branch:
		if arg >= codeLen {
			return ErrBranchOutOfBounds
		}
	case bytecode.CopyLoc, bytecode.MoveLoc, bytecode.StLoc, bytecode.MutBorrowLoc, bytecode.ImmBorrowLoc:
		return inBounds(numLocals)
	case bytecode.Call:
		if err := inBounds(len(t.functionHandles)); err != nil {
			return err
		}
		if t.functionHandles[arg].TypeParameters > 0 {
			return ErrGenericMismatch
		}
	case bytecode.CallGeneric:
		if err := inBounds(len(t.functionInsts)); err != nil {
			return err
		}
		fi := t.functionInsts[arg]
		return t.checkTypeArgs(fi.TypeArgs, t.functionHandles[fi.Handle].TypeParameters, typeParams)
	case bytecode.Pack, bytecode.Unpack, bytecode.Exists, bytecode.MutBorrowGlobal,
		bytecode.ImmBorrowGlobal, bytecode.MoveFrom, bytecode.MoveTo:
		if t.script {
			return ErrUnsupportedInScript
		}
		if err := inBounds(len(t.structDefs)); err != nil {
			return err
		}
		if t.structHandles[t.structDefs[arg].Handle].TypeParameters > 0 {
			return ErrGenericMismatch
		}
	case bytecode.PackGeneric, bytecode.UnpackGeneric, bytecode.ExistsGeneric, bytecode.MutBorrowGlobalGeneric,
		bytecode.ImmBorrowGlobalGeneric, bytecode.MoveFromGeneric, bytecode.MoveToGeneric:
		if t.script {
			return ErrUnsupportedInScript
		}
		if err := inBounds(len(t.structInsts)); err != nil {
			return err
		}
		return t.checkTypeArgs(t.structInsts[arg].TypeArgs, uint16(len(t.structInsts[arg].TypeArgs)), typeParams)
	case bytecode.MutBorrowField, bytecode.ImmBorrowField:
		if t.script {
			return ErrUnsupportedInScript
		}
		if err := inBounds(len(t.fieldHandles)); err != nil {
			return err
		}
		owner := t.structDefs[t.fieldHandles[arg].Owner]
		if t.structHandles[owner.Handle].TypeParameters > 0 {
			return ErrGenericMismatch
		}
	case bytecode.MutBorrowFieldGeneric, bytecode.ImmBorrowFieldGeneric:
		if t.script {
			return ErrUnsupportedInScript
		}
		if err := inBounds(len(t.fieldInsts)); err != nil {
			return err
		}
		return t.checkTypeArgs(t.fieldInsts[arg].TypeArgs, uint16(len(t.fieldInsts[arg].TypeArgs)), typeParams)
	}
	return nil
}
