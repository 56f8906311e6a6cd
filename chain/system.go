// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/interpreter"
	"github.com/ava-labs/stackvm/natives"
	"github.com/ava-labs/stackvm/state"
)

// AccountModuleID is the system module holding account resources and the
// prologue and epilogue run around every script.
var AccountModuleID = bytecode.NewBinaryID(natives.StdlibAddress, "Account")

const (
	AccountStruct = "Account"

	// PrologueFunction(sender: address, public_key: bytes, sequence_number: u64,
	// max_gas_amount: u64, gas_unit_price: u64)
	PrologueFunction = "prologue"
	// EpilogueFunction(sender: address, sequence_number: u64,
	// gas_unit_price: u64, gas_used: u64)
	EpilogueFunction = "epilogue"
	// BumpSequenceFunction(sender: address, sequence_number: u64)
	BumpSequenceFunction = "bump_sequence"
	// PayFunction(sender: signer, payee: address, amount: u64)
	PayFunction = "pay"
)

// Abort codes raised by the Account module.
const (
	EAccountDoesNotExist uint64 = iota + 1
	EInvalidAuthKey
	ESequenceNumberTooOld
	ESequenceNumberTooNew
	ECantPayGasDeposit
	EInsufficientBalance
)

var prologueDiscards = map[uint64]DiscardReason{
	EAccountDoesNotExist:  SendingAccountDoesNotExist,
	EInvalidAuthKey:       InvalidAuthKey,
	ESequenceNumberTooOld: SequenceNumberTooOld,
	ESequenceNumberTooNew: SequenceNumberTooNew,
	ECantPayGasDeposit:    InsufficientBalanceForTransactionFee,
	// max_gas_amount * gas_unit_price overflowed.
	interpreter.ArithmeticError: InsufficientBalanceForTransactionFee,
}

// AccountPath is where the Account resource of [addr] is stored.
func AccountPath(addr codec.Address) state.AccessPath {
	return state.ResourcePath(addr, AccountModuleID.String()+"::"+AccountStruct)
}
