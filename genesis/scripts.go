// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
)

// PayScript transfers funds from the signer. Its arguments are the payee
// address and the amount.
func PayScript() ([]byte, error) {
	params := []bytecode.SignatureToken{bytecode.SignerToken, bytecode.AddressToken, bytecode.U64Token}
	b := bytecode.NewScriptBuilder()
	pay := b.FunctionHandle(chain.AccountModuleID, chain.PayFunction, params, nil, 0)
	s, err := b.Build(0, params, nil, bytecode.NewCode().
		EmitArg(bytecode.MoveLoc, 0).
		EmitArg(bytecode.MoveLoc, 1).
		EmitArg(bytecode.MoveLoc, 2).
		EmitArg(bytecode.Call, uint64(pay)).
		Emit(bytecode.Ret),
	)
	if err != nil {
		return nil, err
	}
	return bytecode.EncodeScript(s)
}
