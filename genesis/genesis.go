// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/set"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/codec"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/state"

	safemath "github.com/ava-labs/avalanchego/utils/math"
)

var ErrDuplicateAllocation = errors.New("duplicate allocation")

type Allocation struct {
	Address           codec.Address `json:"address"`
	AuthenticationKey codec.Bytes   `json:"authenticationKey"`
	Balance           uint64        `json:"balance"`
	SequenceNumber    uint64        `json:"sequenceNumber"`
}

// NewAllocation funds the account controlled by [pk].
func NewAllocation(pk ed25519.PublicKey, balance uint64) *Allocation {
	key := pk.AuthenticationKey()
	return &Allocation{
		Address:           pk.Address(),
		AuthenticationKey: key[:],
		Balance:           balance,
	}
}

type Genesis struct {
	Allocations []*Allocation `json:"allocations"`
	Rules       *Rules        `json:"rules"`
}

func NewDefaultGenesis(allocations []*Allocation) *Genesis {
	return &Genesis{
		Allocations: allocations,
		Rules:       NewDefaultRules(),
	}
}

// Load parses a JSON genesis. Missing rules take their defaults.
func Load(b []byte) (*Genesis, error) {
	g := NewDefaultGenesis(nil)
	if err := json.Unmarshal(b, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SystemModules are the modules every chain starts with: the native
// declarations and the Account module.
func SystemModules() ([]*bytecode.Module, error) {
	modules, err := StdlibModules()
	if err != nil {
		return nil, err
	}
	account, err := AccountModule()
	if err != nil {
		return nil, err
	}
	return append(modules, account), nil
}

// PublishModule writes the encoding of [m] under its code path. The module
// is verified when it is first loaded, not here.
func PublishModule(ctx context.Context, mu state.Mutable, m *bytecode.Module) error {
	b, err := bytecode.EncodeModule(m)
	if err != nil {
		return err
	}
	return mu.Insert(ctx, state.CodePath(m.Self()).Key(), b)
}

// InitializeState publishes the system modules and funds every allocation.
func (g *Genesis) InitializeState(ctx context.Context, tracer trace.Tracer, mu state.Mutable) error {
	ctx, span := tracer.Start(ctx, "Genesis.InitializeState")
	defer span.End()

	modules, err := SystemModules()
	if err != nil {
		return err
	}
	for _, m := range modules {
		if err := PublishModule(ctx, mu, m); err != nil {
			return fmt.Errorf("%w: publishing %s", err, m.Self())
		}
	}

	supply := uint64(0)
	seen := set.NewSet[codec.Address](len(g.Allocations))
	for _, alloc := range g.Allocations {
		if seen.Contains(alloc.Address) {
			return fmt.Errorf("%w: %s", ErrDuplicateAllocation, alloc.Address)
		}
		seen.Add(alloc.Address)
		supply, err = safemath.Add(supply, alloc.Balance)
		if err != nil {
			return err
		}
		acct := &Account{
			AuthenticationKey: alloc.AuthenticationKey,
			Balance:           alloc.Balance,
			SequenceNumber:    alloc.SequenceNumber,
		}
		b, err := acct.Bytes()
		if err != nil {
			return err
		}
		if err := mu.Insert(ctx, chain.AccountPath(alloc.Address).Key(), b); err != nil {
			return fmt.Errorf("%w: addr=%s, bal=%d", err, alloc.Address, alloc.Balance)
		}
	}
	return nil
}
