// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/consts"
)

var (
	ErrNotSerializable = errors.New("value is not serializable")
	ErrValueTooDeep    = errors.New("value nested too deeply")
	ErrLayoutMismatch  = errors.New("value does not match layout")
	ErrTrailingBytes   = errors.New("trailing bytes")
)

const maxValueBytes = 4 * 1024 * 1024

// Serialize encodes [v]. The encoding is not self-describing: structs are
// the concatenation of their fields, so decoding requires the value's type.
func Serialize(v Value) ([]byte, error) {
	p := &wrappers.Packer{MaxSize: maxValueBytes}
	if err := serialize(p, v, 0); err != nil {
		return nil, err
	}
	if p.Errored() {
		return nil, p.Err
	}
	return p.Bytes, nil
}

func serialize(p *wrappers.Packer, v Value, depth int) error {
	if depth > consts.MaxValueDepth {
		return ErrValueTooDeep
	}
	switch v := v.(type) {
	case Bool:
		p.PackBool(bool(v))
	case U8:
		p.PackByte(uint8(v))
	case U64:
		p.PackLong(uint64(v))
	case U128:
		p.PackFixedBytes(v.Bytes())
	case Address:
		p.PackFixedBytes(v[:])
	case Signer:
		p.PackFixedBytes(v[:])
	case Bytes:
		p.PackBytes(v)
	case *Struct:
		for _, f := range v.Fields {
			if err := serialize(p, f, depth+1); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrNotSerializable, v)
	}
	return nil
}

// Deserialize decodes a value of concrete type [t] from [b].
func Deserialize(t Type, b []byte) (Value, error) {
	p := &wrappers.Packer{Bytes: b}
	v, err := deserialize(p, t, 0)
	if err != nil {
		return nil, err
	}
	if p.Errored() {
		return nil, fmt.Errorf("%w: %w", ErrLayoutMismatch, p.Err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, len(b)-p.Offset)
	}
	return v, nil
}

func deserialize(p *wrappers.Packer, t Type, depth int) (Value, error) {
	if depth > consts.MaxValueDepth {
		return nil, ErrValueTooDeep
	}
	switch t.Kind {
	case BoolType:
		return Bool(p.UnpackBool()), nil
	case U8Type:
		return U8(p.UnpackByte()), nil
	case U64Type:
		return U64(p.UnpackLong()), nil
	case U128Type:
		return U128FromBytes(p.UnpackFixedBytes(consts.Uint128Len)), nil
	case AddressType:
		var a Address
		copy(a[:], p.UnpackFixedBytes(codec.AddressLen))
		return a, nil
	case SignerType:
		var s Signer
		copy(s[:], p.UnpackFixedBytes(codec.AddressLen))
		return s, nil
	case BytesType:
		return Bytes(p.UnpackLimitedBytes(maxValueBytes)), nil
	case StructType:
		fieldTypes := t.FieldTypes()
		fields := make([]Value, len(fieldTypes))
		for i, ft := range fieldTypes {
			f, err := deserialize(p, ft, depth+1)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return &Struct{Fields: fields}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotSerializable, t)
	}
}
