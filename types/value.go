// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/consts"
)

// Value is a runtime value held on the operand stack, in a local slot or in
// global storage.
type Value interface {
	fmt.Stringer

	isValue()
}

type (
	Bool    bool
	U8      uint8
	U64     uint64
	Address codec.Address
	Signer  codec.Address
	Bytes   []byte
)

// U128 is an unsigned 128-bit integer. Arithmetic producing more than 128
// bits is reported as overflow by the caller.
type U128 struct {
	v uint256.Int
}

// Struct is an instance of a struct type. Fields are ordered by
// declaration.
type Struct struct {
	Fields []Value
}

// Reference points into a local slot or a global resource. Path selects
// nested struct fields starting from the root value.
type Reference struct {
	Root    Location
	Path    []uint16
	Mutable bool
}

// Location is the root of a [Reference].
type Location interface {
	fmt.Stringer

	isLocation()
}

// LocalLocation is slot [Slot] of the frame with id [Frame].
type LocalLocation struct {
	Frame uint64
	Slot  uint16
}

// GlobalLocation is a resource in global storage, identified by its
// access path key.
type GlobalLocation struct {
	Key string
}

func (Bool) isValue()      {}
func (U8) isValue()        {}
func (U64) isValue()       {}
func (U128) isValue()      {}
func (Address) isValue()   {}
func (Signer) isValue()    {}
func (Bytes) isValue()     {}
func (*Struct) isValue()   {}
func (Reference) isValue() {}

func (LocalLocation) isLocation()  {}
func (GlobalLocation) isLocation() {}

func (l LocalLocation) String() string  { return fmt.Sprintf("local(%d, %d)", l.Frame, l.Slot) }
func (g GlobalLocation) String() string { return "global(" + hex.EncodeToString([]byte(g.Key)) + ")" }

var maxU128 = func() *uint256.Int {
	v := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	return v.SubUint64(v, 1)
}()

// NewU128 returns [v] as a U128. ok is false if [v] does not fit in 128 bits.
func NewU128(v *uint256.Int) (U128, bool) {
	if v.Gt(maxU128) {
		return U128{}, false
	}
	return U128{v: *v}, true
}

func U128FromUint64(v uint64) U128 {
	return U128{v: *uint256.NewInt(v)}
}

// U128FromBytes interprets [b] as a big-endian 16-byte integer.
func U128FromBytes(b []byte) U128 {
	var u U128
	u.v.SetBytes(b)
	return u
}

// Int returns a copy of the underlying integer.
func (u U128) Int() *uint256.Int {
	v := u.v
	return &v
}

// Bytes returns the big-endian 16-byte encoding of [u].
func (u U128) Bytes() []byte {
	b := u.v.Bytes32()
	return b[32-consts.Uint128Len:]
}

func (v Bool) String() string    { return fmt.Sprintf("%t", bool(v)) }
func (v U8) String() string      { return fmt.Sprintf("%du8", uint8(v)) }
func (v U64) String() string     { return fmt.Sprintf("%du64", uint64(v)) }
func (v U128) String() string    { return v.v.Dec() + "u128" }
func (v Address) String() string { return codec.Address(v).String() }
func (v Signer) String() string  { return "signer(" + codec.Address(v).String() + ")" }
func (v Bytes) String() string   { return "0x" + hex.EncodeToString(v) }

func (s *Struct) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (r Reference) String() string {
	prefix := "&"
	if r.Mutable {
		prefix = "&mut "
	}
	return fmt.Sprintf("%s%s%v", prefix, r.Root, r.Path)
}

// Field returns a reference to field [idx] of the struct [r] points to.
func (r Reference) Field(idx uint16, mutable bool) Reference {
	path := make([]uint16, len(r.Path)+1)
	copy(path, r.Path)
	path[len(r.Path)] = idx
	return Reference{Root: r.Root, Path: path, Mutable: mutable && r.Mutable}
}

// Copy returns a deep copy of [v]. Byte vectors are never mutated in place
// and are shared.
func Copy(v Value) Value {
	s, ok := v.(*Struct)
	if !ok {
		return v
	}
	fields := make([]Value, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = Copy(f)
	}
	return &Struct{Fields: fields}
}

// Equal reports structural equality of two values of the same type.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case U8:
		b, ok := b.(U8)
		return ok && a == b
	case U64:
		b, ok := b.(U64)
		return ok && a == b
	case U128:
		b, ok := b.(U128)
		return ok && a.v.Eq(&b.v)
	case Address:
		b, ok := b.(Address)
		return ok && a == b
	case Signer:
		b, ok := b.(Signer)
		return ok && a == b
	case Bytes:
		b, ok := b.(Bytes)
		return ok && bytes.Equal(a, b)
	case *Struct:
		b, ok := b.(*Struct)
		if !ok || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !Equal(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	case Reference:
		b, ok := b.(Reference)
		if !ok || a.Root != b.Root || len(a.Path) != len(b.Path) {
			return false
		}
		for i := range a.Path {
			if a.Path[i] != b.Path[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Size is the abstract memory size of [v], used for value-dependent gas.
func Size(v Value) uint64 {
	switch v := v.(type) {
	case Bool, U8:
		return 1
	case U64:
		return consts.Uint64Len
	case U128:
		return consts.Uint128Len
	case Address, Signer:
		return codec.AddressLen
	case Bytes:
		return uint64(len(v)) + consts.Uint64Len
	case *Struct:
		size := uint64(consts.Uint64Len)
		for _, f := range v.Fields {
			size += Size(f)
		}
		return size
	case Reference:
		return consts.Uint64Len
	default:
		return 0
	}
}
