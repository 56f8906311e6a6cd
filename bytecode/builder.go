// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bytecode

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ava-labs/stackvm/codec"
)

// handleTable holds the handle tables shared by modules and scripts and
// deduplicates entries as they are added.
type handleTable struct {
	moduleHandles   []BinaryID
	structHandles   []StructHandle
	functionHandles []FunctionHandle
	functionInsts   []FunctionInstantiation

	modules   map[BinaryID]uint16
	structs   map[string]uint16
	functions map[string]uint16
	fnInsts   map[string]uint16
}

func newHandleTable() handleTable {
	return handleTable{
		modules:   make(map[BinaryID]uint16),
		structs:   make(map[string]uint16),
		functions: make(map[string]uint16),
		fnInsts:   make(map[string]uint16),
	}
}

// ModuleHandle returns the index of [id], adding it if needed.
func (h *handleTable) ModuleHandle(id BinaryID) uint16 {
	if idx, ok := h.modules[id]; ok {
		return idx
	}
	idx := uint16(len(h.moduleHandles))
	h.moduleHandles = append(h.moduleHandles, id)
	h.modules[id] = idx
	return idx
}

// StructHandle returns the handle of struct [name] declared by [module].
func (h *handleTable) StructHandle(module BinaryID, name string, typeParams uint16, resource bool) uint16 {
	key := module.String() + "::" + name
	if idx, ok := h.structs[key]; ok {
		return idx
	}
	idx := uint16(len(h.structHandles))
	h.structHandles = append(h.structHandles, StructHandle{
		Module:         h.ModuleHandle(module),
		Name:           name,
		TypeParameters: typeParams,
		IsResource:     resource,
	})
	h.structs[key] = idx
	return idx
}

// FunctionHandle returns the handle of function [name] declared by [module].
func (h *handleTable) FunctionHandle(
	module BinaryID,
	name string,
	params []SignatureToken,
	returns []SignatureToken,
	typeParams uint16,
) uint16 {
	key := module.String() + "::" + name
	if idx, ok := h.functions[key]; ok {
		return idx
	}
	idx := uint16(len(h.functionHandles))
	h.functionHandles = append(h.functionHandles, FunctionHandle{
		Module:         h.ModuleHandle(module),
		Name:           name,
		Parameters:     params,
		Returns:        returns,
		TypeParameters: typeParams,
	})
	h.functions[key] = idx
	return idx
}

// FunctionInstantiation returns the index of [handle] applied to [typeArgs].
func (h *handleTable) FunctionInstantiation(handle uint16, typeArgs ...SignatureToken) uint16 {
	key := fmt.Sprintf("%d%v", handle, typeArgs)
	if idx, ok := h.fnInsts[key]; ok {
		return idx
	}
	idx := uint16(len(h.functionInsts))
	h.functionInsts = append(h.functionInsts, FunctionInstantiation{Handle: handle, TypeArgs: typeArgs})
	h.fnInsts[key] = idx
	return idx
}

// ModuleBuilder assembles a [Module].
type ModuleBuilder struct {
	handleTable

	self         BinaryID
	fieldHandles []FieldHandle
	structInsts  []StructInstantiation
	fieldInsts   []FieldInstantiation
	structDefs   []StructDef
	functionDefs []FunctionDef
	defined      map[uint16]struct{}
	err          error
}

func NewModuleBuilder(address codec.Address, name string) *ModuleBuilder {
	b := &ModuleBuilder{
		handleTable: newHandleTable(),
		self:        NewBinaryID(address, name),
		defined:     make(map[uint16]struct{}),
	}
	b.ModuleHandle(b.self)
	return b
}

func (b *ModuleBuilder) Self() BinaryID { return b.self }

// Struct declares a struct and returns its definition index.
func (b *ModuleBuilder) Struct(name string, resource bool, typeParams uint16, fields ...FieldDef) uint16 {
	handle := b.StructHandle(b.self, name, typeParams, resource)
	idx := uint16(len(b.structDefs))
	b.structDefs = append(b.structDefs, StructDef{Handle: handle, Fields: fields})
	return idx
}

// StructTokenOf returns the signature token of local struct definition [def].
func (b *ModuleBuilder) StructTokenOf(def uint16, typeArgs ...SignatureToken) SignatureToken {
	return StructToken(b.structDefs[def].Handle, typeArgs...)
}

func (b *ModuleBuilder) FieldHandle(def uint16, field uint16) uint16 {
	for i, fh := range b.fieldHandles {
		if fh.Owner == def && fh.Field == field {
			return uint16(i)
		}
	}
	b.fieldHandles = append(b.fieldHandles, FieldHandle{Owner: def, Field: field})
	return uint16(len(b.fieldHandles) - 1)
}

func (b *ModuleBuilder) StructInstantiation(def uint16, typeArgs ...SignatureToken) uint16 {
	b.structInsts = append(b.structInsts, StructInstantiation{Def: def, TypeArgs: typeArgs})
	return uint16(len(b.structInsts) - 1)
}

func (b *ModuleBuilder) FieldInstantiation(fieldHandle uint16, typeArgs ...SignatureToken) uint16 {
	b.fieldInsts = append(b.fieldInsts, FieldInstantiation{Handle: fieldHandle, TypeArgs: typeArgs})
	return uint16(len(b.fieldInsts) - 1)
}

// Function defines a function with the given body. Its handle is created
// (or reused if already referenced, e.g. for recursion).
func (b *ModuleBuilder) Function(
	name string,
	public bool,
	typeParams uint16,
	params []SignatureToken,
	returns []SignatureToken,
	locals []SignatureToken,
	code *CodeBuilder,
) uint16 {
	handle := b.FunctionHandle(b.self, name, params, returns, typeParams)
	instructions, err := code.Build()
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("%s: %w", name, err)
	}
	return b.define(name, FunctionDef{
		Handle: handle,
		Public: public,
		Locals: locals,
		Code:   instructions,
	})
}

// NativeFunction declares a function whose body is provided by the host.
func (b *ModuleBuilder) NativeFunction(
	name string,
	typeParams uint16,
	params []SignatureToken,
	returns []SignatureToken,
) uint16 {
	handle := b.FunctionHandle(b.self, name, params, returns, typeParams)
	return b.define(name, FunctionDef{
		Handle: handle,
		Public: true,
		Native: true,
	})
}

func (b *ModuleBuilder) define(name string, def FunctionDef) uint16 {
	if _, ok := b.defined[def.Handle]; ok && b.err == nil {
		b.err = fmt.Errorf("%w: %s", ErrDuplicateFunction, name)
	}
	b.defined[def.Handle] = struct{}{}
	b.functionDefs = append(b.functionDefs, def)
	return uint16(len(b.functionDefs) - 1)
}

func (b *ModuleBuilder) Build() (*Module, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Module{
		ModuleHandles:          b.moduleHandles,
		StructHandles:          b.structHandles,
		FunctionHandles:        b.functionHandles,
		FieldHandles:           b.fieldHandles,
		StructInstantiations:   b.structInsts,
		FunctionInstantiations: b.functionInsts,
		FieldInstantiations:    b.fieldInsts,
		StructDefs:             b.structDefs,
		FunctionDefs:           b.functionDefs,
	}, nil
}

// ScriptBuilder assembles a [Script].
type ScriptBuilder struct {
	handleTable
}

func NewScriptBuilder() *ScriptBuilder {
	return &ScriptBuilder{handleTable: newHandleTable()}
}

func (b *ScriptBuilder) Build(
	typeParams uint16,
	params []SignatureToken,
	locals []SignatureToken,
	code *CodeBuilder,
) (*Script, error) {
	instructions, err := code.Build()
	if err != nil {
		return nil, err
	}
	return &Script{
		ModuleHandles:          b.moduleHandles,
		StructHandles:          b.structHandles,
		FunctionHandles:        b.functionHandles,
		FunctionInstantiations: b.functionInsts,
		TypeParameters:         typeParams,
		Parameters:             params,
		Locals:                 locals,
		Code:                   instructions,
	}, nil
}

// CodeBuilder assembles an instruction sequence with symbolic branch labels.
type CodeBuilder struct {
	code   []Instruction
	labels map[string]int
	fixups map[int]string
	err    error
}

func NewCode() *CodeBuilder {
	return &CodeBuilder{
		labels: make(map[string]int),
		fixups: make(map[int]string),
	}
}

func (c *CodeBuilder) Emit(op Opcode) *CodeBuilder {
	c.code = append(c.code, Instruction{Op: op})
	return c
}

func (c *CodeBuilder) EmitArg(op Opcode, arg uint64) *CodeBuilder {
	c.code = append(c.code, Instruction{Op: op, Arg: arg})
	return c
}

func (c *CodeBuilder) EmitData(op Opcode, data []byte) *CodeBuilder {
	c.code = append(c.code, Instruction{Op: op, Data: data})
	return c
}

func (c *CodeBuilder) LdU64(v uint64) *CodeBuilder { return c.EmitArg(LdU64, v) }

func (c *CodeBuilder) LdU8(v uint8) *CodeBuilder { return c.EmitArg(LdU8, uint64(v)) }

func (c *CodeBuilder) LdU128(v *uint256.Int) *CodeBuilder {
	b := v.Bytes32()
	return c.EmitData(LdU128, b[16:])
}

func (c *CodeBuilder) LdAddr(a codec.Address) *CodeBuilder {
	return c.EmitData(LdAddr, a[:])
}

func (c *CodeBuilder) LdBytes(b []byte) *CodeBuilder { return c.EmitData(LdBytes, b) }

// Label marks the position of the next emitted instruction.
func (c *CodeBuilder) Label(name string) *CodeBuilder {
	if _, ok := c.labels[name]; ok && c.err == nil {
		c.err = fmt.Errorf("%w: %s", ErrDuplicateLabel, name)
	}
	c.labels[name] = len(c.code)
	return c
}

// Jump emits a branch instruction to [label].
func (c *CodeBuilder) Jump(op Opcode, label string) *CodeBuilder {
	c.fixups[len(c.code)] = label
	c.code = append(c.code, Instruction{Op: op})
	return c
}

func (c *CodeBuilder) Build() ([]Instruction, error) {
	if c == nil {
		return nil, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	var missing []string
	for pc, label := range c.fixups {
		target, ok := c.labels[label]
		if !ok {
			missing = append(missing, label)
			continue
		}
		c.code[pc].Arg = uint64(target)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, strings.Join(missing, ","))
	}
	return c.code, nil
}
