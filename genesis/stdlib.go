// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/natives"
)

// StdlibModules declares the native functions provided by
// [natives.Standard]. Their bodies live in the host.
func StdlibModules() ([]*bytecode.Module, error) {
	bytes := []bytecode.SignatureToken{bytecode.BytesToken}
	declare := func(name string, fns func(b *bytecode.ModuleBuilder)) (*bytecode.Module, error) {
		b := bytecode.NewModuleBuilder(natives.StdlibAddress, name)
		fns(b)
		return b.Build()
	}
	builders := []struct {
		name string
		fns  func(b *bytecode.ModuleBuilder)
	}{
		{natives.HashModule, func(b *bytecode.ModuleBuilder) {
			b.NativeFunction("sha3_256", 0, bytes, bytes)
		}},
		{natives.SignerModule, func(b *bytecode.ModuleBuilder) {
			b.NativeFunction("address_of", 0,
				[]bytecode.SignatureToken{bytecode.RefToken(bytecode.SignerToken)},
				[]bytecode.SignatureToken{bytecode.AddressToken},
			)
		}},
		{natives.EventModule, func(b *bytecode.ModuleBuilder) {
			b.NativeFunction("emit", 1,
				[]bytecode.SignatureToken{bytecode.BytesToken, bytecode.TypeParamToken(0)},
				nil,
			)
		}},
		{natives.SignatureModule, func(b *bytecode.ModuleBuilder) {
			b.NativeFunction("ed25519_verify", 0,
				[]bytecode.SignatureToken{bytecode.BytesToken, bytecode.BytesToken, bytecode.BytesToken},
				[]bytecode.SignatureToken{bytecode.BoolToken},
			)
			b.NativeFunction("authentication_key", 0, bytes, bytes)
		}},
		{natives.BytesModule, func(b *bytecode.ModuleBuilder) {
			b.NativeFunction("length", 0,
				[]bytecode.SignatureToken{bytecode.RefToken(bytecode.BytesToken)},
				[]bytecode.SignatureToken{bytecode.U64Token},
			)
		}},
	}
	modules := make([]*bytecode.Module, 0, len(builders))
	for _, mb := range builders {
		m, err := declare(mb.name, mb.fns)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}
