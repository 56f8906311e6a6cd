// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gas

import "errors"

var ErrOutOfGas = errors.New("out of gas")

// Meter tracks the gas budget of one execution. The remaining balance never
// increases.
type Meter struct {
	limit     uint64
	remaining uint64
	disabled  bool
}

func NewMeter(limit uint64) *Meter {
	return &Meter{
		limit:     limit,
		remaining: limit,
	}
}

// NewUnmeteredMeter returns a meter that accepts every charge. It is used
// for system functions run by the transaction pipeline.
func NewUnmeteredMeter() *Meter {
	return &Meter{disabled: true}
}

// Charge deducts [units] before the charged operation is applied. If the
// remaining balance cannot cover [units] the budget is exhausted and
// [ErrOutOfGas] is returned; the operation must not be applied.
func (m *Meter) Charge(units uint64) error {
	if m.disabled {
		return nil
	}
	if units > m.remaining {
		m.remaining = 0
		return ErrOutOfGas
	}
	m.remaining -= units
	return nil
}

func (m *Meter) Remaining() uint64 { return m.remaining }

func (m *Meter) Limit() uint64 { return m.limit }

// Used returns the units consumed so far.
func (m *Meter) Used() uint64 { return m.limit - m.remaining }
