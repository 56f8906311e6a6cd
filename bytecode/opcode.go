// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bytecode

import "fmt"

type Opcode uint8

const (
	Nop Opcode = iota
	Pop
	Ret
	BrTrue
	BrFalse
	Branch
	LdU8
	LdU64
	LdU128
	LdTrue
	LdFalse
	LdAddr
	LdBytes
	CopyLoc
	MoveLoc
	StLoc
	MutBorrowLoc
	ImmBorrowLoc
	MutBorrowField
	ImmBorrowField
	MutBorrowFieldGeneric
	ImmBorrowFieldGeneric
	ReadRef
	WriteRef
	FreezeRef
	Call
	CallGeneric
	Pack
	PackGeneric
	Unpack
	UnpackGeneric
	Add
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	Xor
	Shl
	Shr
	Lt
	Gt
	Le
	Ge
	Eq
	Neq
	And
	Or
	Not
	CastU8
	CastU64
	CastU128
	Abort
	Exists
	ExistsGeneric
	MutBorrowGlobal
	MutBorrowGlobalGeneric
	ImmBorrowGlobal
	ImmBorrowGlobalGeneric
	MoveFrom
	MoveFromGeneric
	MoveTo
	MoveToGeneric
	BytesLen
	BytesConcat

	numOpcodes
)

// OperandKind describes how the operand of an instruction is encoded.
type OperandKind uint8

const (
	NoOperand OperandKind = iota
	U8Operand
	U16Operand
	U64Operand
	U128Operand
	AddressOperand
	BytesOperand
)

type opInfo struct {
	name    string
	operand OperandKind
}

var opInfos = [numOpcodes]opInfo{
	Nop:                    {"Nop", NoOperand},
	Pop:                    {"Pop", NoOperand},
	Ret:                    {"Ret", NoOperand},
	BrTrue:                 {"BrTrue", U16Operand},
	BrFalse:                {"BrFalse", U16Operand},
	Branch:                 {"Branch", U16Operand},
	LdU8:                   {"LdU8", U8Operand},
	LdU64:                  {"LdU64", U64Operand},
	LdU128:                 {"LdU128", U128Operand},
	LdTrue:                 {"LdTrue", NoOperand},
	LdFalse:                {"LdFalse", NoOperand},
	LdAddr:                 {"LdAddr", AddressOperand},
	LdBytes:                {"LdBytes", BytesOperand},
	CopyLoc:                {"CopyLoc", U16Operand},
	MoveLoc:                {"MoveLoc", U16Operand},
	StLoc:                  {"StLoc", U16Operand},
	MutBorrowLoc:           {"MutBorrowLoc", U16Operand},
	ImmBorrowLoc:           {"ImmBorrowLoc", U16Operand},
	MutBorrowField:         {"MutBorrowField", U16Operand},
	ImmBorrowField:         {"ImmBorrowField", U16Operand},
	MutBorrowFieldGeneric:  {"MutBorrowFieldGeneric", U16Operand},
	ImmBorrowFieldGeneric:  {"ImmBorrowFieldGeneric", U16Operand},
	ReadRef:                {"ReadRef", NoOperand},
	WriteRef:               {"WriteRef", NoOperand},
	FreezeRef:              {"FreezeRef", NoOperand},
	Call:                   {"Call", U16Operand},
	CallGeneric:            {"CallGeneric", U16Operand},
	Pack:                   {"Pack", U16Operand},
	PackGeneric:            {"PackGeneric", U16Operand},
	Unpack:                 {"Unpack", U16Operand},
	UnpackGeneric:          {"UnpackGeneric", U16Operand},
	Add:                    {"Add", NoOperand},
	Sub:                    {"Sub", NoOperand},
	Mul:                    {"Mul", NoOperand},
	Div:                    {"Div", NoOperand},
	Mod:                    {"Mod", NoOperand},
	BitAnd:                 {"BitAnd", NoOperand},
	BitOr:                  {"BitOr", NoOperand},
	Xor:                    {"Xor", NoOperand},
	Shl:                    {"Shl", NoOperand},
	Shr:                    {"Shr", NoOperand},
	Lt:                     {"Lt", NoOperand},
	Gt:                     {"Gt", NoOperand},
	Le:                     {"Le", NoOperand},
	Ge:                     {"Ge", NoOperand},
	Eq:                     {"Eq", NoOperand},
	Neq:                    {"Neq", NoOperand},
	And:                    {"And", NoOperand},
	Or:                     {"Or", NoOperand},
	Not:                    {"Not", NoOperand},
	CastU8:                 {"CastU8", NoOperand},
	CastU64:                {"CastU64", NoOperand},
	CastU128:               {"CastU128", NoOperand},
	Abort:                  {"Abort", NoOperand},
	Exists:                 {"Exists", U16Operand},
	ExistsGeneric:          {"ExistsGeneric", U16Operand},
	MutBorrowGlobal:        {"MutBorrowGlobal", U16Operand},
	MutBorrowGlobalGeneric: {"MutBorrowGlobalGeneric", U16Operand},
	ImmBorrowGlobal:        {"ImmBorrowGlobal", U16Operand},
	ImmBorrowGlobalGeneric: {"ImmBorrowGlobalGeneric", U16Operand},
	MoveFrom:               {"MoveFrom", U16Operand},
	MoveFromGeneric:        {"MoveFromGeneric", U16Operand},
	MoveTo:                 {"MoveTo", U16Operand},
	MoveToGeneric:          {"MoveToGeneric", U16Operand},
	BytesLen:               {"BytesLen", NoOperand},
	BytesConcat:            {"BytesConcat", NoOperand},
}

var opsByName = func() map[string]Opcode {
	m := make(map[string]Opcode, numOpcodes)
	for i, info := range opInfos {
		m[info.name] = Opcode(i)
	}
	return m
}()

// Valid reports whether [op] is a known opcode.
func (op Opcode) Valid() bool { return op < numOpcodes }

func (op Opcode) Operand() OperandKind {
	if !op.Valid() {
		return NoOperand
	}
	return opInfos[op].operand
}

func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
	return opInfos[op].name
}

// IsBranch reports whether [op] carries a code offset.
func (op Opcode) IsBranch() bool {
	return op == BrTrue || op == BrFalse || op == Branch
}

// OpcodeByName is the inverse of [Opcode.String]. It is used to read gas
// schedules keyed by instruction name.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opsByName[name]
	return op, ok
}

// Opcodes returns every defined opcode in numeric order.
func Opcodes() []Opcode {
	ops := make([]Opcode, numOpcodes)
	for i := range ops {
		ops[i] = Opcode(i)
	}
	return ops
}

func (op Opcode) MarshalText() ([]byte, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint8(op))
	}
	return []byte(op.String()), nil
}

func (op *Opcode) UnmarshalText(b []byte) error {
	parsed, ok := OpcodeByName(string(b))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOpcode, b)
	}
	*op = parsed
	return nil
}
