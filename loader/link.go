// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/types"
)

const scriptEntry = "main"

// linker resolves the symbolic handles of one binary against its already
// loaded dependencies.
type linker struct {
	id      bytecode.BinaryID
	self    *Module
	modules []*Module

	structHandles []*types.StructDef
}

// newLinker maps each module handle to a loaded module. The self handle maps
// to [self], which is still being linked.
func newLinker(id bytecode.BinaryID, self *Module, handles []bytecode.BinaryID, deps map[bytecode.BinaryID]*Module) (*linker, error) {
	lk := &linker{
		id:      id,
		self:    self,
		modules: make([]*Module, len(handles)),
	}
	for i, h := range handles {
		if self != nil && h == self.ID {
			lk.modules[i] = self
			continue
		}
		dep, ok := deps[h]
		if !ok {
			return nil, linkErrorf(id, "module handle %d (%s) not loaded", i, h)
		}
		lk.modules[i] = dep
	}
	return lk, nil
}

func (lk *linker) resolveStructHandles(handles []bytecode.StructHandle) error {
	lk.structHandles = make([]*types.StructDef, len(handles))
	for i, h := range handles {
		target := lk.modules[h.Module]
		def, ok := target.Struct(h.Name)
		if !ok {
			return linkErrorf(lk.id, "%w: struct %s::%s", ErrMissingDefinition, target.ID, h.Name)
		}
		if def.TypeParameters != h.TypeParameters || def.IsResource != h.IsResource {
			return linkErrorf(lk.id, "%w: struct %s", ErrSignatureMismatch, def.Tag())
		}
		lk.structHandles[i] = def
	}
	return nil
}

func (lk *linker) typeOf(tok bytecode.SignatureToken) types.Type {
	switch tok.Kind {
	case bytecode.BoolKind:
		return types.BoolTy
	case bytecode.U8Kind:
		return types.U8Ty
	case bytecode.U64Kind:
		return types.U64Ty
	case bytecode.U128Kind:
		return types.U128Ty
	case bytecode.AddressKind:
		return types.AddressTy
	case bytecode.SignerKind:
		return types.SignerTy
	case bytecode.BytesKind:
		return types.BytesTy
	case bytecode.StructKind:
		return types.NewStructType(lk.structHandles[tok.StructHandle], lk.typesOf(tok.TypeArgs)...)
	case bytecode.ReferenceKind:
		return types.NewReferenceType(lk.typeOf(*tok.Elem), false)
	case bytecode.MutableReferenceKind:
		return types.NewReferenceType(lk.typeOf(*tok.Elem), true)
	case bytecode.TypeParameterKind:
		return types.NewTypeParam(tok.TypeParam)
	default:
		// Rejected by the decoder.
		types.Violation("unknown token kind %d", tok.Kind)
		return types.Type{}
	}
}

func (lk *linker) typesOf(toks []bytecode.SignatureToken) []types.Type {
	if len(toks) == 0 {
		return nil
	}
	ts := make([]types.Type, len(toks))
	for i, tok := range toks {
		ts[i] = lk.typeOf(tok)
	}
	return ts
}

func (lk *linker) resolveFunctionHandles(handles []bytecode.FunctionHandle) ([]*Function, error) {
	fns := make([]*Function, len(handles))
	for i, h := range handles {
		target := lk.modules[h.Module]
		fn, ok := target.Function(h.Name)
		if !ok {
			return nil, linkErrorf(lk.id, "%w: function %s::%s", ErrMissingDefinition, target.ID, h.Name)
		}
		if target != lk.self && !fn.Public {
			return nil, linkErrorf(lk.id, "%w: %s", ErrNotPublic, fn)
		}
		if fn.TypeParameters != h.TypeParameters ||
			!typesEqual(fn.Parameters, lk.typesOf(h.Parameters)) ||
			!typesEqual(fn.Returns, lk.typesOf(h.Returns)) {
			return nil, linkErrorf(lk.id, "%w: function %s", ErrSignatureMismatch, fn)
		}
		fns[i] = fn
	}
	return fns, nil
}

func (lk *linker) resolveFunctionInstantiations(insts []bytecode.FunctionInstantiation, fns []*Function) []FunctionInstantiation {
	resolved := make([]FunctionInstantiation, len(insts))
	for i, fi := range insts {
		resolved[i] = FunctionInstantiation{
			Function: fns[fi.Handle],
			TypeArgs: lk.typesOf(fi.TypeArgs),
		}
	}
	return resolved
}

func typesEqual(a, b []types.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// linkModule builds the executable form of [raw]. Every dependency must
// already be present in [deps].
func linkModule(raw *bytecode.Module, size int, deps map[bytecode.BinaryID]*Module) (*Module, error) {
	id := raw.Self()
	m := &Module{
		ID:        id,
		Size:      size,
		Structs:   make([]*types.StructDef, len(raw.StructDefs)),
		Functions: make([]*Function, len(raw.FunctionDefs)),
		structs:   make(map[string]*types.StructDef, len(raw.StructDefs)),
		functions: make(map[string]*Function, len(raw.FunctionDefs)),
	}

	// Declare structs first so handles, including self references, resolve
	// to shared definitions.
	for i, sd := range raw.StructDefs {
		h := raw.StructHandles[sd.Handle]
		names := make([]string, len(sd.Fields))
		for j, f := range sd.Fields {
			names[j] = f.Name
		}
		def := &types.StructDef{
			Module:         id,
			Name:           h.Name,
			Index:          uint16(i),
			TypeParameters: h.TypeParameters,
			IsResource:     h.IsResource,
			FieldNames:     names,
		}
		m.Structs[i] = def
		m.structs[h.Name] = def
	}

	lk, err := newLinker(id, m, raw.ModuleHandles, deps)
	if err != nil {
		return nil, err
	}
	if err := lk.resolveStructHandles(raw.StructHandles); err != nil {
		return nil, err
	}
	for i, sd := range raw.StructDefs {
		fields := make([]types.Type, len(sd.Fields))
		for j, f := range sd.Fields {
			fields[j] = lk.typeOf(f.Type)
		}
		m.Structs[i].Fields = fields
	}

	for i, fd := range raw.FunctionDefs {
		h := raw.FunctionHandles[fd.Handle]
		params := lk.typesOf(h.Parameters)
		locals := make([]types.Type, 0, len(params)+len(fd.Locals))
		locals = append(locals, params...)
		locals = append(locals, lk.typesOf(fd.Locals)...)
		fn := &Function{
			Module:         id,
			Name:           h.Name,
			Index:          uint16(i),
			Public:         fd.Public,
			Native:         fd.Native,
			TypeParameters: h.TypeParameters,
			Parameters:     params,
			Returns:        lk.typesOf(h.Returns),
			Locals:         locals,
			Code:           fd.Code,
			Tables:         &m.Tables,
		}
		m.Functions[i] = fn
		m.functions[h.Name] = fn
	}

	fns, err := lk.resolveFunctionHandles(raw.FunctionHandles)
	if err != nil {
		return nil, err
	}

	fields := make([]FieldRef, len(raw.FieldHandles))
	for i, fh := range raw.FieldHandles {
		fields[i] = FieldRef{Struct: m.Structs[fh.Owner], Field: fh.Field}
	}
	structInsts := make([]StructInstantiation, len(raw.StructInstantiations))
	for i, si := range raw.StructInstantiations {
		structInsts[i] = StructInstantiation{
			Struct:   m.Structs[si.Def],
			TypeArgs: lk.typesOf(si.TypeArgs),
		}
	}
	fieldInsts := make([]FieldInstantiation, len(raw.FieldInstantiations))
	for i, fi := range raw.FieldInstantiations {
		fieldInsts[i] = FieldInstantiation{
			Field:    fields[fi.Handle],
			TypeArgs: lk.typesOf(fi.TypeArgs),
		}
	}

	m.Tables = Tables{
		StructDefs:             m.Structs,
		Functions:              fns,
		Fields:                 fields,
		StructInstantiations:   structInsts,
		FunctionInstantiations: lk.resolveFunctionInstantiations(raw.FunctionInstantiations, fns),
		FieldInstantiations:    fieldInsts,
	}
	return m, nil
}

// linkScript builds the executable form of [raw].
func linkScript(raw *bytecode.Script, size int, deps map[bytecode.BinaryID]*Module) (*Script, error) {
	lk, err := newLinker(bytecode.BinaryID{Name: scriptEntry}, nil, raw.ModuleHandles, deps)
	if err != nil {
		return nil, err
	}
	if err := lk.resolveStructHandles(raw.StructHandles); err != nil {
		return nil, err
	}
	fns, err := lk.resolveFunctionHandles(raw.FunctionHandles)
	if err != nil {
		return nil, err
	}

	s := &Script{Size: size}
	s.Tables = Tables{
		Functions:              fns,
		FunctionInstantiations: lk.resolveFunctionInstantiations(raw.FunctionInstantiations, fns),
	}
	params := lk.typesOf(raw.Parameters)
	locals := make([]types.Type, 0, len(params)+len(raw.Locals))
	locals = append(locals, params...)
	locals = append(locals, lk.typesOf(raw.Locals)...)
	s.Main = &Function{
		Name:           scriptEntry,
		Public:         true,
		TypeParameters: raw.TypeParameters,
		Parameters:     params,
		Locals:         locals,
		Code:           raw.Code,
		Tables:         &s.Tables,
	}
	return s, nil
}
