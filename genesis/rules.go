// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import "github.com/ava-labs/stackvm/chain"

var _ chain.Rules = (*Rules)(nil)

type Rules struct {
	MaxTransactionSize int    `json:"maxTransactionSize" yaml:"max_transaction_size"`
	MaxGasAmount       uint64 `json:"maxGasAmount" yaml:"max_gas_amount"`
	MinGasUnitPrice    uint64 `json:"minGasUnitPrice" yaml:"min_gas_unit_price"`
	MaxGasUnitPrice    uint64 `json:"maxGasUnitPrice" yaml:"max_gas_unit_price"`
}

func NewDefaultRules() *Rules {
	return &Rules{
		MaxTransactionSize: 4_096,
		MaxGasAmount:       1_000_000,
		MinGasUnitPrice:    0,
		MaxGasUnitPrice:    10_000,
	}
}

func (r *Rules) GetMaxTransactionSize() int { return r.MaxTransactionSize }

func (r *Rules) GetMaxGasAmount() uint64 { return r.MaxGasAmount }

func (r *Rules) GetMinGasUnitPrice() uint64 { return r.MinGasUnitPrice }

func (r *Rules) GetMaxGasUnitPrice() uint64 { return r.MaxGasUnitPrice }
