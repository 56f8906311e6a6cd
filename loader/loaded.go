// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/types"
)

// Function is a linked function. Its signature may contain type parameters
// until it is instantiated.
type Function struct {
	Module         bytecode.BinaryID
	Name           string
	Index          uint16
	Public         bool
	Native         bool
	TypeParameters uint16
	Parameters     []types.Type
	Returns        []types.Type
	// Locals holds the types of every slot, parameters first.
	Locals []types.Type
	Code   []bytecode.Instruction
	Tables *Tables
}

func (f *Function) String() string {
	return f.Module.String() + "::" + f.Name
}

// FieldRef is a field of a struct declared by the referencing module.
type FieldRef struct {
	Struct *types.StructDef
	Field  uint16
}

type StructInstantiation struct {
	Struct   *types.StructDef
	TypeArgs []types.Type
}

type FunctionInstantiation struct {
	Function *Function
	TypeArgs []types.Type
}

type FieldInstantiation struct {
	Field    FieldRef
	TypeArgs []types.Type
}

// Tables holds the resolved operands of a binary. Instruction operands index
// these tables directly; no name lookup happens at execution time.
type Tables struct {
	// StructDefs are the structs declared by the binary, by definition index.
	StructDefs []*types.StructDef
	// Functions are the targets of the binary's function handles.
	Functions              []*Function
	Fields                 []FieldRef
	StructInstantiations   []StructInstantiation
	FunctionInstantiations []FunctionInstantiation
	FieldInstantiations    []FieldInstantiation
}

// Module is the executable form of a published module. It is immutable and
// shared by every execution that references it.
type Module struct {
	ID        bytecode.BinaryID
	Size      int
	Tables    Tables
	Structs   []*types.StructDef
	Functions []*Function

	structs   map[string]*types.StructDef
	functions map[string]*Function
}

func (m *Module) Struct(name string) (*types.StructDef, bool) {
	s, ok := m.structs[name]
	return s, ok
}

func (m *Module) Function(name string) (*Function, bool) {
	f, ok := m.functions[name]
	return f, ok
}

// Script is the executable form of a transaction script.
type Script struct {
	ID     ids.ID
	Size   int
	Tables Tables
	Main   *Function
}
