// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"strconv"
	"strings"

	"github.com/ava-labs/stackvm/bytecode"
)

type TypeKind uint8

const (
	BoolType TypeKind = iota + 1
	U8Type
	U64Type
	U128Type
	AddressType
	SignerType
	BytesType
	StructType
	ReferenceType
	MutableReferenceType
	TypeParamType
)

// StructDef is the resolved layout of a struct declared by a loaded
// module. It is shared, read-only, by every [Type] that names it.
type StructDef struct {
	Module         bytecode.BinaryID
	Name           string
	Index          uint16
	TypeParameters uint16
	IsResource     bool
	FieldNames     []string
	Fields         []Type
}

// Tag is the fully qualified name of the struct, without type arguments.
func (s *StructDef) Tag() string {
	return s.Module.String() + "::" + s.Name
}

// Type is a runtime type. Generic types contain [TypeParamType] leaves until
// they are instantiated with [Type.Subst].
type Type struct {
	Kind     TypeKind
	Struct   *StructDef
	TypeArgs []Type
	Elem     *Type
	Param    uint16
}

var (
	BoolTy    = Type{Kind: BoolType}
	U8Ty      = Type{Kind: U8Type}
	U64Ty     = Type{Kind: U64Type}
	U128Ty    = Type{Kind: U128Type}
	AddressTy = Type{Kind: AddressType}
	SignerTy  = Type{Kind: SignerType}
	BytesTy   = Type{Kind: BytesType}
)

func NewStructType(def *StructDef, typeArgs ...Type) Type {
	return Type{Kind: StructType, Struct: def, TypeArgs: typeArgs}
}

func NewReferenceType(elem Type, mutable bool) Type {
	kind := ReferenceType
	if mutable {
		kind = MutableReferenceType
	}
	return Type{Kind: kind, Elem: &elem}
}

func NewTypeParam(idx uint16) Type {
	return Type{Kind: TypeParamType, Param: idx}
}

// IsConcrete reports whether [t] contains no type parameters.
func (t Type) IsConcrete() bool {
	switch t.Kind {
	case TypeParamType:
		return false
	case StructType:
		for _, arg := range t.TypeArgs {
			if !arg.IsConcrete() {
				return false
			}
		}
	case ReferenceType, MutableReferenceType:
		return t.Elem.IsConcrete()
	}
	return true
}

// Subst replaces type parameters in [t] with [args]. A type parameter
// without a matching argument is a loader defect.
func (t Type) Subst(args []Type) Type {
	switch t.Kind {
	case TypeParamType:
		if int(t.Param) >= len(args) {
			Violation("type parameter %d out of range for %d arguments", t.Param, len(args))
		}
		return args[t.Param]
	case StructType:
		if len(t.TypeArgs) == 0 {
			return t
		}
		substituted := make([]Type, len(t.TypeArgs))
		for i, arg := range t.TypeArgs {
			substituted[i] = arg.Subst(args)
		}
		return Type{Kind: StructType, Struct: t.Struct, TypeArgs: substituted}
	case ReferenceType, MutableReferenceType:
		elem := t.Elem.Subst(args)
		return Type{Kind: t.Kind, Elem: &elem}
	default:
		return t
	}
}

// FieldTypes returns the field types of struct type [t] with its type
// arguments applied.
func (t Type) FieldTypes() []Type {
	if t.Kind != StructType {
		Violation("field types requested for %s", t)
	}
	if len(t.TypeArgs) == 0 {
		return t.Struct.Fields
	}
	fields := make([]Type, len(t.Struct.Fields))
	for i, f := range t.Struct.Fields {
		fields[i] = f.Subst(t.TypeArgs)
	}
	return fields
}

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case StructType:
		if t.Struct.Tag() != o.Struct.Tag() || len(t.TypeArgs) != len(o.TypeArgs) {
			return false
		}
		for i := range t.TypeArgs {
			if !t.TypeArgs[i].Equal(o.TypeArgs[i]) {
				return false
			}
		}
		return true
	case ReferenceType, MutableReferenceType:
		return t.Elem.Equal(*o.Elem)
	case TypeParamType:
		return t.Param == o.Param
	default:
		return true
	}
}

// String returns the canonical rendering of [t]. For structs this is the
// resource tag used in access paths.
func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.Kind {
	case BoolType:
		sb.WriteString("bool")
	case U8Type:
		sb.WriteString("u8")
	case U64Type:
		sb.WriteString("u64")
	case U128Type:
		sb.WriteString("u128")
	case AddressType:
		sb.WriteString("address")
	case SignerType:
		sb.WriteString("signer")
	case BytesType:
		sb.WriteString("bytes")
	case StructType:
		sb.WriteString(t.Struct.Tag())
		if len(t.TypeArgs) > 0 {
			sb.WriteByte('<')
			for i, arg := range t.TypeArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				arg.write(sb)
			}
			sb.WriteByte('>')
		}
	case ReferenceType:
		sb.WriteByte('&')
		t.Elem.write(sb)
	case MutableReferenceType:
		sb.WriteString("&mut ")
		t.Elem.write(sb)
	case TypeParamType:
		sb.WriteByte('T')
		sb.WriteString(strconv.Itoa(int(t.Param)))
	default:
		sb.WriteString("unknown")
	}
}
