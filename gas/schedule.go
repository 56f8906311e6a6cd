// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gas

import (
	smath "github.com/ava-labs/avalanchego/utils/math"

	"github.com/ava-labs/stackvm/bytecode"
)

// Schedule is the cost table of the interpreter. Every instruction has a
// static cost; instructions touching variable-sized values also pay
// [PerByte] for every byte of the value they move, compare or store.
type Schedule struct {
	InstructionCosts       map[bytecode.Opcode]uint64 `json:"instructionCosts" yaml:"instruction_costs"`
	DefaultInstructionCost uint64                     `json:"defaultInstructionCost" yaml:"default_instruction_cost"`
	PerByte                uint64                     `json:"perByte" yaml:"per_byte"`

	CallPerLocal         uint64 `json:"callPerLocal" yaml:"call_per_local"`
	InstantiationPerType uint64 `json:"instantiationPerType" yaml:"instantiation_per_type"`

	GlobalRead  uint64 `json:"globalRead" yaml:"global_read"`
	GlobalWrite uint64 `json:"globalWrite" yaml:"global_write"`

	NativeBase    uint64 `json:"nativeBase" yaml:"native_base"`
	NativePerByte uint64 `json:"nativePerByte" yaml:"native_per_byte"`

	MinTransactionGas uint64 `json:"minTransactionGas" yaml:"min_transaction_gas"`
	IntrinsicPerByte  uint64 `json:"intrinsicPerByte" yaml:"intrinsic_per_byte"`
}

func DefaultSchedule() *Schedule {
	return &Schedule{
		InstructionCosts: map[bytecode.Opcode]uint64{
			bytecode.Nop:   1,
			bytecode.Ret:   1,
			bytecode.Call:  10,
			bytecode.Mul:   3,
			bytecode.Div:   4,
			bytecode.Mod:   4,
			bytecode.Abort: 1,

			bytecode.CallGeneric:            12,
			bytecode.Exists:                 15,
			bytecode.ExistsGeneric:          15,
			bytecode.MutBorrowGlobal:        20,
			bytecode.MutBorrowGlobalGeneric: 20,
			bytecode.ImmBorrowGlobal:        20,
			bytecode.ImmBorrowGlobalGeneric: 20,
			bytecode.MoveFrom:               25,
			bytecode.MoveFromGeneric:        25,
			bytecode.MoveTo:                 25,
			bytecode.MoveToGeneric:          25,
		},
		DefaultInstructionCost: 2,
		PerByte:                1,
		CallPerLocal:           1,
		InstantiationPerType:   5,
		GlobalRead:             50,
		GlobalWrite:            100,
		NativeBase:             20,
		NativePerByte:          1,
		MinTransactionGas:      600,
		IntrinsicPerByte:       8,
	}
}

// InstructionCost returns the static cost of [op].
func (s *Schedule) InstructionCost(op bytecode.Opcode) uint64 {
	if cost, ok := s.InstructionCosts[op]; ok {
		return cost
	}
	return s.DefaultInstructionCost
}

// Bytes returns the cost of touching [n] bytes of value data.
func (s *Schedule) Bytes(n uint64) (uint64, error) {
	return smath.Mul(s.PerByte, n)
}

// Native returns the cost of a native call processing [n] bytes.
func (s *Schedule) Native(n uint64) (uint64, error) {
	perByte, err := smath.Mul(s.NativePerByte, n)
	if err != nil {
		return 0, err
	}
	return smath.Add(s.NativeBase, perByte)
}

// Intrinsic returns the gas charged for a transaction of [size] bytes
// before any of its code runs.
func (s *Schedule) Intrinsic(size int) (uint64, error) {
	perByte, err := smath.Mul(s.IntrinsicPerByte, uint64(size))
	if err != nil {
		return 0, err
	}
	return smath.Add(s.MinTransactionGas, perByte)
}
