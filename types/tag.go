// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"strings"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/codec"
)

// TypeTag names a concrete, non-reference type independently of any loaded
// module. Transactions carry type arguments as tags and events record the
// tag of their payload.
type TypeTag struct {
	Kind     uint8
	Address  codec.Address
	Module   string
	Name     string
	TypeArgs []TypeTag
}

func (t TypeTag) TypeKind() TypeKind { return TypeKind(t.Kind) }

// ModuleID returns the module declaring a struct tag.
func (t TypeTag) ModuleID() bytecode.BinaryID {
	return bytecode.NewBinaryID(t.Address, t.Module)
}

func NewStructTag(module bytecode.BinaryID, name string, typeArgs ...TypeTag) TypeTag {
	return TypeTag{
		Kind:     uint8(StructType),
		Address:  module.Address,
		Module:   module.Name,
		Name:     name,
		TypeArgs: typeArgs,
	}
}

func PrimitiveTag(kind TypeKind) TypeTag {
	return TypeTag{Kind: uint8(kind)}
}

// TagOf returns the tag of concrete type [t].
func TagOf(t Type) TypeTag {
	if t.Kind != StructType {
		if !t.IsConcrete() || t.Kind == ReferenceType || t.Kind == MutableReferenceType {
			Violation("no type tag for %s", t)
		}
		return PrimitiveTag(t.Kind)
	}
	args := make([]TypeTag, len(t.TypeArgs))
	for i, arg := range t.TypeArgs {
		args[i] = TagOf(arg)
	}
	return NewStructTag(t.Struct.Module, t.Struct.Name, args...)
}

func (t TypeTag) String() string {
	if t.TypeKind() != StructType {
		return Type{Kind: t.TypeKind()}.String()
	}
	var sb strings.Builder
	sb.WriteString(t.ModuleID().String())
	sb.WriteString("::")
	sb.WriteString(t.Name)
	if len(t.TypeArgs) > 0 {
		sb.WriteByte('<')
		for i, arg := range t.TypeArgs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.String())
		}
		sb.WriteByte('>')
	}
	return sb.String()
}
