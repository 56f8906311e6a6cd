// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"errors"
	"fmt"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/types"
)

var ErrBadAccount = errors.New("malformed account resource")

// Account is the decoded form of the Account resource.
type Account struct {
	AuthenticationKey []byte
	Balance           uint64
	SequenceNumber    uint64
}

// accountDef mirrors the layout of the Account struct so resources can be
// encoded without loading the module.
var accountDef = &types.StructDef{
	Module:     chain.AccountModuleID,
	Name:       chain.AccountStruct,
	IsResource: true,
	FieldNames: []string{"authentication_key", "balance", "sequence_number"},
	Fields:     []types.Type{types.BytesTy, types.U64Ty, types.U64Ty},
}

// Bytes encodes [a] as stored under [chain.AccountPath].
func (a *Account) Bytes() ([]byte, error) {
	return types.Serialize(&types.Struct{Fields: []types.Value{
		types.Bytes(a.AuthenticationKey),
		types.U64(a.Balance),
		types.U64(a.SequenceNumber),
	}})
}

// ParseAccount decodes a stored Account resource.
func ParseAccount(b []byte) (*Account, error) {
	v, err := types.Deserialize(types.NewStructType(accountDef), b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadAccount, err)
	}
	s, ok := v.(*types.Struct)
	if !ok || len(s.Fields) != 3 {
		return nil, ErrBadAccount
	}
	key, ok1 := s.Fields[0].(types.Bytes)
	balance, ok2 := s.Fields[1].(types.U64)
	seq, ok3 := s.Fields[2].(types.U64)
	if !ok1 || !ok2 || !ok3 {
		return nil, ErrBadAccount
	}
	return &Account{
		AuthenticationKey: key,
		Balance:           uint64(balance),
		SequenceNumber:    uint64(seq),
	}, nil
}

var (
	addressParam = []bytecode.SignatureToken{bytecode.AddressToken}
	bytesParam   = []bytecode.SignatureToken{bytecode.BytesToken}
	u64Return    = []bytecode.SignatureToken{bytecode.U64Token}
)

// AccountModule assembles the Account system module:
//
//	resource struct Account { authentication_key: bytes, balance: u64, sequence_number: u64 }
//
// Its prologue and epilogue are invoked by the transaction pipeline; the
// remaining functions are available to scripts.
func AccountModule() (*bytecode.Module, error) {
	b := bytecode.NewModuleBuilder(chain.AccountModuleID.Address, chain.AccountModuleID.Name)
	account := b.Struct(chain.AccountStruct, true, 0,
		bytecode.FieldDef{Name: "authentication_key", Type: bytecode.BytesToken},
		bytecode.FieldDef{Name: "balance", Type: bytecode.U64Token},
		bytecode.FieldDef{Name: "sequence_number", Type: bytecode.U64Token},
	)
	authKey := uint64(b.FieldHandle(account, 0))
	balance := uint64(b.FieldHandle(account, 1))
	seq := uint64(b.FieldHandle(account, 2))
	acct := uint64(account)
	ref := bytecode.RefToken(b.StructTokenOf(account))
	mutRef := bytecode.MutRefToken(b.StructTokenOf(account))
	deriveKey := uint64(b.FunctionHandle(
		bytecode.NewBinaryID(natives.StdlibAddress, natives.SignatureModule),
		"authentication_key", bytesParam, bytesParam, 0,
	))
	abort := func(c *bytecode.CodeBuilder, code uint64) *bytecode.CodeBuilder {
		return c.LdU64(code).Emit(bytecode.Abort)
	}

	// prologue(sender: address, public_key: bytes, sequence_number: u64,
	//          max_gas_amount: u64, gas_unit_price: u64)
	// locals: 5 &Account
	prologue := bytecode.NewCode().
		EmitArg(bytecode.CopyLoc, 0).
		EmitArg(bytecode.Exists, acct).
		Jump(bytecode.BrTrue, "exists")
	abort(prologue, chain.EAccountDoesNotExist).
		Label("exists").
		EmitArg(bytecode.MoveLoc, 0).
		EmitArg(bytecode.ImmBorrowGlobal, acct).
		EmitArg(bytecode.StLoc, 5).
		EmitArg(bytecode.MoveLoc, 1).
		EmitArg(bytecode.Call, deriveKey).
		EmitArg(bytecode.CopyLoc, 5).
		EmitArg(bytecode.ImmBorrowField, authKey).
		Emit(bytecode.ReadRef).
		Emit(bytecode.Eq).
		Jump(bytecode.BrTrue, "authorized")
	abort(prologue, chain.EInvalidAuthKey).
		Label("authorized").
		EmitArg(bytecode.CopyLoc, 2).
		EmitArg(bytecode.CopyLoc, 5).
		EmitArg(bytecode.ImmBorrowField, seq).
		Emit(bytecode.ReadRef).
		Emit(bytecode.Lt).
		Jump(bytecode.BrFalse, "not_old")
	abort(prologue, chain.ESequenceNumberTooOld).
		Label("not_old").
		EmitArg(bytecode.MoveLoc, 2).
		EmitArg(bytecode.CopyLoc, 5).
		EmitArg(bytecode.ImmBorrowField, seq).
		Emit(bytecode.ReadRef).
		Emit(bytecode.Gt).
		Jump(bytecode.BrFalse, "not_new")
	abort(prologue, chain.ESequenceNumberTooNew).
		Label("not_new").
		EmitArg(bytecode.MoveLoc, 3).
		EmitArg(bytecode.MoveLoc, 4).
		Emit(bytecode.Mul).
		EmitArg(bytecode.MoveLoc, 5).
		EmitArg(bytecode.ImmBorrowField, balance).
		Emit(bytecode.ReadRef).
		Emit(bytecode.Le).
		Jump(bytecode.BrTrue, "can_pay")
	abort(prologue, chain.ECantPayGasDeposit).
		Label("can_pay").
		Emit(bytecode.Ret)
	b.Function(chain.PrologueFunction, false, 0,
		[]bytecode.SignatureToken{
			bytecode.AddressToken, bytecode.BytesToken,
			bytecode.U64Token, bytecode.U64Token, bytecode.U64Token,
		},
		nil,
		[]bytecode.SignatureToken{ref},
		prologue,
	)

	// epilogue(sender: address, sequence_number: u64, gas_unit_price: u64,
	//          gas_used: u64)
	// locals: 4 &mut Account, 5 fee
	epilogue := bytecode.NewCode().
		EmitArg(bytecode.MoveLoc, 0).
		EmitArg(bytecode.MutBorrowGlobal, acct).
		EmitArg(bytecode.StLoc, 4).
		EmitArg(bytecode.MoveLoc, 3).
		EmitArg(bytecode.MoveLoc, 2).
		Emit(bytecode.Mul).
		EmitArg(bytecode.StLoc, 5).
		EmitArg(bytecode.CopyLoc, 5).
		EmitArg(bytecode.CopyLoc, 4).
		EmitArg(bytecode.ImmBorrowField, balance).
		Emit(bytecode.ReadRef).
		Emit(bytecode.Le).
		Jump(bytecode.BrTrue, "can_pay")
	abort(epilogue, chain.EInsufficientBalance).
		Label("can_pay").
		EmitArg(bytecode.CopyLoc, 4).
		EmitArg(bytecode.ImmBorrowField, balance).
		Emit(bytecode.ReadRef).
		EmitArg(bytecode.MoveLoc, 5).
		Emit(bytecode.Sub).
		EmitArg(bytecode.CopyLoc, 4).
		EmitArg(bytecode.MutBorrowField, balance).
		Emit(bytecode.WriteRef).
		EmitArg(bytecode.MoveLoc, 1).
		LdU64(1).
		Emit(bytecode.Add).
		EmitArg(bytecode.MoveLoc, 4).
		EmitArg(bytecode.MutBorrowField, seq).
		Emit(bytecode.WriteRef).
		Emit(bytecode.Ret)
	b.Function(chain.EpilogueFunction, false, 0,
		[]bytecode.SignatureToken{
			bytecode.AddressToken, bytecode.U64Token, bytecode.U64Token, bytecode.U64Token,
		},
		nil,
		[]bytecode.SignatureToken{mutRef, bytecode.U64Token},
		epilogue,
	)

	// bump_sequence(sender: address, sequence_number: u64)
	b.Function(chain.BumpSequenceFunction, false, 0,
		[]bytecode.SignatureToken{bytecode.AddressToken, bytecode.U64Token},
		nil,
		nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 1).
			LdU64(1).
			Emit(bytecode.Add).
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.MutBorrowGlobal, acct).
			EmitArg(bytecode.MutBorrowField, seq).
			Emit(bytecode.WriteRef).
			Emit(bytecode.Ret),
	)

	// balance(addr: address): u64
	b.Function("balance", true, 0, addressParam, u64Return, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.ImmBorrowGlobal, acct).
			EmitArg(bytecode.ImmBorrowField, balance).
			Emit(bytecode.ReadRef).
			Emit(bytecode.Ret),
	)

	// sequence_number(addr: address): u64
	b.Function("sequence_number", true, 0, addressParam, u64Return, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.ImmBorrowGlobal, acct).
			EmitArg(bytecode.ImmBorrowField, seq).
			Emit(bytecode.ReadRef).
			Emit(bytecode.Ret),
	)

	// exists_at(addr: address): bool
	b.Function("exists_at", true, 0, addressParam, []bytecode.SignatureToken{bytecode.BoolToken}, nil,
		bytecode.NewCode().
			EmitArg(bytecode.MoveLoc, 0).
			EmitArg(bytecode.Exists, acct).
			Emit(bytecode.Ret),
	)

	// pay(sender: signer, payee: address, amount: u64)
	// locals: 3 &mut Account (sender), 4 &mut Account (payee)
	addressOf := uint64(b.FunctionHandle(
		bytecode.NewBinaryID(natives.StdlibAddress, natives.SignerModule),
		"address_of",
		[]bytecode.SignatureToken{bytecode.RefToken(bytecode.SignerToken)},
		addressParam, 0,
	))
	b.Function(chain.PayFunction, true, 0,
		[]bytecode.SignatureToken{bytecode.SignerToken, bytecode.AddressToken, bytecode.U64Token},
		nil,
		[]bytecode.SignatureToken{mutRef, mutRef},
		bytecode.NewCode().
			EmitArg(bytecode.ImmBorrowLoc, 0).
			EmitArg(bytecode.Call, addressOf).
			EmitArg(bytecode.MutBorrowGlobal, acct).
			EmitArg(bytecode.StLoc, 3).
			EmitArg(bytecode.CopyLoc, 3).
			EmitArg(bytecode.ImmBorrowField, balance).
			Emit(bytecode.ReadRef).
			EmitArg(bytecode.CopyLoc, 2).
			Emit(bytecode.Sub).
			EmitArg(bytecode.MoveLoc, 3).
			EmitArg(bytecode.MutBorrowField, balance).
			Emit(bytecode.WriteRef).
			EmitArg(bytecode.MoveLoc, 1).
			EmitArg(bytecode.MutBorrowGlobal, acct).
			EmitArg(bytecode.StLoc, 4).
			EmitArg(bytecode.CopyLoc, 4).
			EmitArg(bytecode.ImmBorrowField, balance).
			Emit(bytecode.ReadRef).
			EmitArg(bytecode.MoveLoc, 2).
			Emit(bytecode.Add).
			EmitArg(bytecode.MoveLoc, 4).
			EmitArg(bytecode.MutBorrowField, balance).
			Emit(bytecode.WriteRef).
			Emit(bytecode.Ret),
	)

	return b.Build()
}
