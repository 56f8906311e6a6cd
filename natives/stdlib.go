// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package natives

import (
	"golang.org/x/crypto/sha3"

	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/types"
)

const (
	HashModule      = "Hash"
	SignerModule    = "Signer"
	EventModule     = "Event"
	SignatureModule = "Signature"
	BytesModule     = "Bytes"

	sha3Cost          = 30
	addressOfCost     = 5
	emitCost          = 40
	ed25519VerifyCost = 1_000
	lengthCost        = 2
)

// NewHashModule provides Hash::sha3_256(bytes): bytes.
func NewHashModule() *ImportModule {
	return &ImportModule{
		Name: HashModule,
		HostFunctions: map[string]HostFunction{
			"sha3_256": {Cost: sha3Cost, Function: func(ctx Context, _ []types.Type, args []types.Value) ([]types.Value, error) {
				if len(args) != 1 {
					return nil, badArgs("sha3_256", args)
				}
				b, ok := args[0].(types.Bytes)
				if !ok {
					return nil, badArgs("sha3_256", args)
				}
				if err := ctx.Charge(uint64(len(b))); err != nil {
					return nil, err
				}
				digest := sha3.Sum256(b)
				return []types.Value{types.Bytes(digest[:])}, nil
			}},
		},
	}
}

// NewSignerModule provides Signer::address_of(&signer): address.
func NewSignerModule() *ImportModule {
	return &ImportModule{
		Name: SignerModule,
		HostFunctions: map[string]HostFunction{
			"address_of": {Cost: addressOfCost, Function: func(ctx Context, _ []types.Type, args []types.Value) ([]types.Value, error) {
				if len(args) != 1 {
					return nil, badArgs("address_of", args)
				}
				v := args[0]
				if ref, ok := v.(types.Reference); ok {
					v = ctx.ReadRef(ref)
				}
				s, ok := v.(types.Signer)
				if !ok {
					return nil, badArgs("address_of", args)
				}
				return []types.Value{types.Address(s)}, nil
			}},
		},
	}
}

// NewEventModule provides Event::emit<T>(key: bytes, msg: T).
func NewEventModule() *ImportModule {
	return &ImportModule{
		Name: EventModule,
		HostFunctions: map[string]HostFunction{
			"emit": {Cost: emitCost, Function: func(ctx Context, typeArgs []types.Type, args []types.Value) ([]types.Value, error) {
				if len(args) != 2 || len(typeArgs) != 1 {
					return nil, badArgs("emit", args)
				}
				key, ok := args[0].(types.Bytes)
				if !ok {
					return nil, badArgs("emit", args)
				}
				data, err := types.Serialize(args[1])
				if err != nil {
					return nil, err
				}
				if err := ctx.Charge(uint64(len(key) + len(data))); err != nil {
					return nil, err
				}
				return nil, ctx.Emit(key, types.TagOf(typeArgs[0]), data)
			}},
		},
	}
}

// NewSignatureModule provides
// Signature::ed25519_verify(signature: bytes, public_key: bytes, message: bytes): bool
// and Signature::authentication_key(public_key: bytes): bytes.
func NewSignatureModule() *ImportModule {
	return &ImportModule{
		Name: SignatureModule,
		HostFunctions: map[string]HostFunction{
			"ed25519_verify": {Cost: ed25519VerifyCost, Function: func(ctx Context, _ []types.Type, args []types.Value) ([]types.Value, error) {
				if len(args) != 3 {
					return nil, badArgs("ed25519_verify", args)
				}
				sig, ok1 := args[0].(types.Bytes)
				pk, ok2 := args[1].(types.Bytes)
				msg, ok3 := args[2].(types.Bytes)
				if !ok1 || !ok2 || !ok3 {
					return nil, badArgs("ed25519_verify", args)
				}
				if err := ctx.Charge(uint64(len(msg))); err != nil {
					return nil, err
				}
				return []types.Value{types.Bool(ed25519.VerifyBytes(msg, pk, sig))}, nil
			}},
			"authentication_key": {Cost: sha3Cost, Function: func(_ Context, _ []types.Type, args []types.Value) ([]types.Value, error) {
				if len(args) != 1 {
					return nil, badArgs("authentication_key", args)
				}
				b, ok := args[0].(types.Bytes)
				if !ok {
					return nil, badArgs("authentication_key", args)
				}
				pk, err := ed25519.PublicKeyFromBytes(b)
				if err != nil {
					// Malformed keys never authenticate.
					return []types.Value{types.Bytes(nil)}, nil
				}
				authKey := pk.AuthenticationKey()
				return []types.Value{types.Bytes(authKey[:])}, nil
			}},
		},
	}
}

// NewBytesModule provides Bytes::length(&bytes): u64.
func NewBytesModule() *ImportModule {
	return &ImportModule{
		Name: BytesModule,
		HostFunctions: map[string]HostFunction{
			"length": {Cost: lengthCost, Function: func(ctx Context, _ []types.Type, args []types.Value) ([]types.Value, error) {
				if len(args) != 1 {
					return nil, badArgs("length", args)
				}
				v := args[0]
				if ref, ok := v.(types.Reference); ok {
					v = ctx.ReadRef(ref)
				}
				b, ok := v.(types.Bytes)
				if !ok {
					return nil, badArgs("length", args)
				}
				return []types.Value{types.U64(len(b))}, nil
			}},
		},
	}
}
