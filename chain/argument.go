// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"fmt"

	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/types"
)

// Argument kinds a transaction may pass to its script.
const (
	ArgU8 uint8 = iota + 1
	ArgU64
	ArgU128
	ArgAddress
	ArgBytes
	ArgBool
)

// TransactionArgument is a typed script argument. Data holds the value in
// the runtime's value encoding.
type TransactionArgument struct {
	Type uint8
	Data []byte
}

func argumentType(kind uint8) (types.Type, bool) {
	switch kind {
	case ArgU8:
		return types.U8Ty, true
	case ArgU64:
		return types.U64Ty, true
	case ArgU128:
		return types.U128Ty, true
	case ArgAddress:
		return types.AddressTy, true
	case ArgBytes:
		return types.BytesTy, true
	case ArgBool:
		return types.BoolTy, true
	default:
		return types.Type{}, false
	}
}

// Value decodes the argument.
func (a TransactionArgument) Value() (types.Value, error) {
	t, ok := argumentType(a.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownArgument, a.Type)
	}
	v, err := types.Deserialize(t, a.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return v, nil
}

func newArgument(kind uint8, v types.Value) TransactionArgument {
	b, err := types.Serialize(v)
	if err != nil {
		// Primitive values always serialize.
		panic(err)
	}
	return TransactionArgument{Type: kind, Data: b}
}

func U8Argument(v uint8) TransactionArgument { return newArgument(ArgU8, types.U8(v)) }

func U64Argument(v uint64) TransactionArgument { return newArgument(ArgU64, types.U64(v)) }

func U128Argument(v types.U128) TransactionArgument { return newArgument(ArgU128, v) }

func AddressArgument(a codec.Address) TransactionArgument {
	return newArgument(ArgAddress, types.Address(a))
}

func BytesArgument(b []byte) TransactionArgument { return newArgument(ArgBytes, types.Bytes(b)) }

func BoolArgument(b bool) TransactionArgument { return newArgument(ArgBool, types.Bool(b)) }
