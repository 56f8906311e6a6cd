// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/state"

	safemath "github.com/ava-labs/avalanchego/utils/math"
)

func newAllocation(t *testing.T, balance uint64) *Allocation {
	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(t, err)
	return NewAllocation(priv.PublicKey(), balance)
}

func TestInitializeState(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	a := newAllocation(t, 100)
	b := newAllocation(t, 200)
	b.SequenceNumber = 7
	g := NewDefaultGenesis([]*Allocation{a, b})

	view := state.MemoryView{}
	require.NoError(g.InitializeState(ctx, trace.Noop, view))

	modules, err := SystemModules()
	require.NoError(err)
	for _, m := range modules {
		raw, ok, err := state.Get(ctx, view, state.CodePath(m.Self()))
		require.NoError(err)
		require.True(ok, m.Self().String())
		decoded, err := bytecode.DecodeModule(raw)
		require.NoError(err)
		require.Equal(m.Self(), decoded.Self())
	}

	for _, alloc := range g.Allocations {
		raw, ok, err := state.Get(ctx, view, chain.AccountPath(alloc.Address))
		require.NoError(err)
		require.True(ok)
		acct, err := ParseAccount(raw)
		require.NoError(err)
		require.Equal(alloc.Balance, acct.Balance)
		require.Equal(alloc.SequenceNumber, acct.SequenceNumber)
		require.Equal([]byte(alloc.AuthenticationKey), acct.AuthenticationKey)
	}
}

func TestInitializeStateErrors(t *testing.T) {
	a := newAllocation(t, math.MaxUint64)
	b := newAllocation(t, 1)
	dup := *a
	dup.Balance = 1

	tests := []struct {
		name        string
		allocations []*Allocation
		wantErr     error
	}{
		{
			name:        "duplicate allocation",
			allocations: []*Allocation{a, &dup},
			wantErr:     ErrDuplicateAllocation,
		},
		{
			name:        "supply overflow",
			allocations: []*Allocation{a, b},
			wantErr:     safemath.ErrOverflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewDefaultGenesis(tt.allocations)
			err := g.InitializeState(context.Background(), trace.Noop, state.MemoryView{})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAllocation(t *testing.T) {
	require := require.New(t)

	priv, err := ed25519.GeneratePrivateKey()
	require.NoError(err)
	pk := priv.PublicKey()
	alloc := NewAllocation(pk, 42)

	key := pk.AuthenticationKey()
	require.Equal(pk.Address(), alloc.Address)
	require.Equal(codec.Bytes(key[:]), alloc.AuthenticationKey)
	require.Equal(uint64(42), alloc.Balance)
	require.Zero(alloc.SequenceNumber)
}

func TestLoad(t *testing.T) {
	require := require.New(t)

	alloc := newAllocation(t, 1_000)
	b, err := json.Marshal(map[string]any{
		"allocations": []*Allocation{alloc},
	})
	require.NoError(err)

	g, err := Load(b)
	require.NoError(err)
	require.Len(g.Allocations, 1)
	require.Equal(alloc.Address, g.Allocations[0].Address)
	require.Equal(alloc.AuthenticationKey, g.Allocations[0].AuthenticationKey)
	require.Equal(NewDefaultRules(), g.Rules)

	g, err = Load([]byte(`{"rules":{"maxGasAmount":5}}`))
	require.NoError(err)
	require.Equal(uint64(5), g.Rules.GetMaxGasAmount())
	require.Equal(NewDefaultRules().GetMaxTransactionSize(), g.Rules.GetMaxTransactionSize())

	_, err = Load([]byte("{"))
	require.Error(err)
}

func TestAccountRoundTrip(t *testing.T) {
	require := require.New(t)

	acct := &Account{AuthenticationKey: []byte{1, 2, 3}, Balance: 9, SequenceNumber: 4}
	b, err := acct.Bytes()
	require.NoError(err)
	parsed, err := ParseAccount(b)
	require.NoError(err)
	require.Equal(acct, parsed)

	_, err = ParseAccount(b[:len(b)-1])
	require.ErrorIs(err, ErrBadAccount)
}

func TestSystemModulesBuild(t *testing.T) {
	require := require.New(t)

	modules, err := SystemModules()
	require.NoError(err)
	ids := make(map[bytecode.BinaryID]struct{}, len(modules))
	for _, m := range modules {
		ids[m.Self()] = struct{}{}
	}
	require.Len(ids, len(modules))
	require.Contains(ids, chain.AccountModuleID)
}

func TestPayScript(t *testing.T) {
	require := require.New(t)

	raw, err := PayScript()
	require.NoError(err)
	s, err := bytecode.DecodeScript(raw)
	require.NoError(err)
	require.Len(s.Parameters, 3)
	require.Equal([]bytecode.BinaryID{chain.AccountModuleID}, s.Dependencies())
}
