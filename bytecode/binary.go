// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bytecode

import (
	"github.com/ava-labs/stackvm/codec"
)

// BinaryID identifies a published module.
type BinaryID struct {
	Address codec.Address
	Name    string
}

func NewBinaryID(address codec.Address, name string) BinaryID {
	return BinaryID{Address: address, Name: name}
}

func (id BinaryID) String() string {
	return id.Address.String() + "::" + id.Name
}

type TokenKind uint8

const (
	BoolKind TokenKind = iota + 1
	U8Kind
	U64Kind
	U128Kind
	AddressKind
	SignerKind
	BytesKind
	StructKind
	ReferenceKind
	MutableReferenceKind
	TypeParameterKind
)

func (k TokenKind) valid() bool {
	return k >= BoolKind && k <= TypeParameterKind
}

// SignatureToken is the symbolic form of a type inside a binary. Struct
// tokens refer to a struct handle of the enclosing binary, which is resolved
// by the loader.
type SignatureToken struct {
	Kind         TokenKind
	StructHandle uint16
	TypeArgs     []SignatureToken
	Elem         *SignatureToken
	TypeParam    uint16
}

var (
	BoolToken    = SignatureToken{Kind: BoolKind}
	U8Token      = SignatureToken{Kind: U8Kind}
	U64Token     = SignatureToken{Kind: U64Kind}
	U128Token    = SignatureToken{Kind: U128Kind}
	AddressToken = SignatureToken{Kind: AddressKind}
	SignerToken  = SignatureToken{Kind: SignerKind}
	BytesToken   = SignatureToken{Kind: BytesKind}
)

func StructToken(handle uint16, typeArgs ...SignatureToken) SignatureToken {
	return SignatureToken{Kind: StructKind, StructHandle: handle, TypeArgs: typeArgs}
}

func RefToken(elem SignatureToken) SignatureToken {
	return SignatureToken{Kind: ReferenceKind, Elem: &elem}
}

func MutRefToken(elem SignatureToken) SignatureToken {
	return SignatureToken{Kind: MutableReferenceKind, Elem: &elem}
}

func TypeParamToken(idx uint16) SignatureToken {
	return SignatureToken{Kind: TypeParameterKind, TypeParam: idx}
}

func (t SignatureToken) IsReference() bool {
	return t.Kind == ReferenceKind || t.Kind == MutableReferenceKind
}

type StructHandle struct {
	Module         uint16
	Name           string
	TypeParameters uint16
	IsResource     bool
}

type FunctionHandle struct {
	Module         uint16
	Name           string
	Parameters     []SignatureToken
	Returns        []SignatureToken
	TypeParameters uint16
}

type FieldDef struct {
	Name string
	Type SignatureToken
}

type StructDef struct {
	Handle uint16
	Fields []FieldDef
}

// FunctionDef is the body of a function declared by a module. Locals lists
// the slots following the parameters of the function handle.
type FunctionDef struct {
	Handle uint16
	Public bool
	Native bool
	Locals []SignatureToken
	Code   []Instruction
}

// FieldHandle names field [Field] of struct definition [Owner].
type FieldHandle struct {
	Owner uint16
	Field uint16
}

type StructInstantiation struct {
	Def      uint16
	TypeArgs []SignatureToken
}

type FunctionInstantiation struct {
	Handle   uint16
	TypeArgs []SignatureToken
}

type FieldInstantiation struct {
	Handle   uint16
	TypeArgs []SignatureToken
}

// Instruction is a single bytecode instruction. Arg holds indices, branch
// targets and integer immediates; Data holds u128, address and byte
// vector immediates.
type Instruction struct {
	Op   Opcode
	Arg  uint64
	Data []byte
}

// Module is a deserialized, unverified module. ModuleHandles[0] is the
// module itself.
type Module struct {
	ModuleHandles          []BinaryID
	StructHandles          []StructHandle
	FunctionHandles        []FunctionHandle
	FieldHandles           []FieldHandle
	StructInstantiations   []StructInstantiation
	FunctionInstantiations []FunctionInstantiation
	FieldInstantiations    []FieldInstantiation
	StructDefs             []StructDef
	FunctionDefs           []FunctionDef
}

// Self returns the identifier the module is published under.
func (m *Module) Self() BinaryID {
	if len(m.ModuleHandles) == 0 {
		return BinaryID{}
	}
	return m.ModuleHandles[0]
}

// Dependencies returns the distinct modules referenced by [m], excluding
// itself, in handle order.
func (m *Module) Dependencies() []BinaryID {
	if len(m.ModuleHandles) <= 1 {
		return nil
	}
	return dedupe(m.ModuleHandles[1:], m.Self())
}

// Script is a deserialized, unverified transaction script. It has no self
// handle and declares no structs.
type Script struct {
	ModuleHandles          []BinaryID
	StructHandles          []StructHandle
	FunctionHandles        []FunctionHandle
	FunctionInstantiations []FunctionInstantiation
	TypeParameters         uint16
	Parameters             []SignatureToken
	Locals                 []SignatureToken
	Code                   []Instruction
}

func (s *Script) Dependencies() []BinaryID {
	return dedupe(s.ModuleHandles, BinaryID{})
}

func dedupe(ids []BinaryID, skip BinaryID) []BinaryID {
	seen := make(map[BinaryID]struct{}, len(ids))
	deps := make([]BinaryID, 0, len(ids))
	for _, id := range ids {
		if id == skip {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		deps = append(deps, id)
	}
	return deps
}
