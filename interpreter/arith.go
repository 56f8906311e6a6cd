// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package interpreter

import (
	smath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/holiman/uint256"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/types"
)

// binaryFunc computes an integer operation. A non-zero code aborts.
type binaryFunc func(a, b types.Value) (types.Value, uint64)

func opArith(fn binaryFunc) opFunc {
	return func(m *machine, f *frame, _ bytecode.Instruction) error {
		b, a := m.pop(), m.pop()
		v, code := fn(a, b)
		if code != 0 {
			return m.abort(f, code)
		}
		return next(m, f, v)
	}
}

func operand[T types.Value](v types.Value) T {
	t, ok := v.(T)
	if !ok {
		types.Violation("mismatched operand %s (%T)", v, v)
	}
	return t
}

func checkedU8(v uint8, err error) (types.Value, uint64) {
	if err != nil {
		return nil, ArithmeticError
	}
	return types.U8(v), 0
}

func checkedU64(v uint64, err error) (types.Value, uint64) {
	if err != nil {
		return nil, ArithmeticError
	}
	return types.U64(v), 0
}

func u128(v *uint256.Int, overflow bool) (types.Value, uint64) {
	if overflow {
		return nil, ArithmeticError
	}
	u, ok := types.NewU128(v)
	if !ok {
		return nil, ArithmeticError
	}
	return u, 0
}

func add(a, b types.Value) (types.Value, uint64) {
	switch a := a.(type) {
	case types.U8:
		return checkedU8(smath.Add(uint8(a), uint8(operand[types.U8](b))))
	case types.U64:
		return checkedU64(smath.Add(uint64(a), uint64(operand[types.U64](b))))
	case types.U128:
		return u128(new(uint256.Int).AddOverflow(a.Int(), operand[types.U128](b).Int()))
	}
	types.Violation("add on %s", a)
	return nil, 0
}

func sub(a, b types.Value) (types.Value, uint64) {
	switch a := a.(type) {
	case types.U8:
		return checkedU8(smath.Sub(uint8(a), uint8(operand[types.U8](b))))
	case types.U64:
		return checkedU64(smath.Sub(uint64(a), uint64(operand[types.U64](b))))
	case types.U128:
		return u128(new(uint256.Int).SubOverflow(a.Int(), operand[types.U128](b).Int()))
	}
	types.Violation("sub on %s", a)
	return nil, 0
}

func mul(a, b types.Value) (types.Value, uint64) {
	switch a := a.(type) {
	case types.U8:
		return checkedU8(smath.Mul(uint8(a), uint8(operand[types.U8](b))))
	case types.U64:
		return checkedU64(smath.Mul(uint64(a), uint64(operand[types.U64](b))))
	case types.U128:
		return u128(new(uint256.Int).MulOverflow(a.Int(), operand[types.U128](b).Int()))
	}
	types.Violation("mul on %s", a)
	return nil, 0
}

func div(a, b types.Value) (types.Value, uint64) {
	switch a := a.(type) {
	case types.U8:
		d := operand[types.U8](b)
		if d == 0 {
			return nil, DivisionByZero
		}
		return a / d, 0
	case types.U64:
		d := operand[types.U64](b)
		if d == 0 {
			return nil, DivisionByZero
		}
		return a / d, 0
	case types.U128:
		d := operand[types.U128](b).Int()
		if d.IsZero() {
			return nil, DivisionByZero
		}
		return u128(new(uint256.Int).Div(a.Int(), d), false)
	}
	types.Violation("div on %s", a)
	return nil, 0
}

func mod(a, b types.Value) (types.Value, uint64) {
	switch a := a.(type) {
	case types.U8:
		d := operand[types.U8](b)
		if d == 0 {
			return nil, DivisionByZero
		}
		return a % d, 0
	case types.U64:
		d := operand[types.U64](b)
		if d == 0 {
			return nil, DivisionByZero
		}
		return a % d, 0
	case types.U128:
		d := operand[types.U128](b).Int()
		if d.IsZero() {
			return nil, DivisionByZero
		}
		return u128(new(uint256.Int).Mod(a.Int(), d), false)
	}
	types.Violation("mod on %s", a)
	return nil, 0
}

func bitwise(
	a, b types.Value,
	u8 func(x, y uint8) uint8,
	u64 func(x, y uint64) uint64,
	big func(z, x, y *uint256.Int) *uint256.Int,
) (types.Value, uint64) {
	switch a := a.(type) {
	case types.U8:
		return types.U8(u8(uint8(a), uint8(operand[types.U8](b)))), 0
	case types.U64:
		return types.U64(u64(uint64(a), uint64(operand[types.U64](b)))), 0
	case types.U128:
		return u128(big(new(uint256.Int), a.Int(), operand[types.U128](b).Int()), false)
	}
	types.Violation("bitwise operation on %s", a)
	return nil, 0
}

func bitAnd(a, b types.Value) (types.Value, uint64) {
	return bitwise(a, b,
		func(x, y uint8) uint8 { return x & y },
		func(x, y uint64) uint64 { return x & y },
		(*uint256.Int).And,
	)
}

func bitOr(a, b types.Value) (types.Value, uint64) {
	return bitwise(a, b,
		func(x, y uint8) uint8 { return x | y },
		func(x, y uint64) uint64 { return x | y },
		(*uint256.Int).Or,
	)
}

func xor(a, b types.Value) (types.Value, uint64) {
	return bitwise(a, b,
		func(x, y uint8) uint8 { return x ^ y },
		func(x, y uint64) uint64 { return x ^ y },
		(*uint256.Int).Xor,
	)
}

// Shifts take a u8 amount smaller than the operand width. Bits shifted out
// are dropped.
func shift(a, b types.Value, left bool) (types.Value, uint64) {
	s := uint(operand[types.U8](b))
	switch a := a.(type) {
	case types.U8:
		if s >= 8 {
			return nil, ArithmeticError
		}
		if left {
			return a << s, 0
		}
		return a >> s, 0
	case types.U64:
		if s >= 64 {
			return nil, ArithmeticError
		}
		if left {
			return a << s, 0
		}
		return a >> s, 0
	case types.U128:
		if s >= 128 {
			return nil, ArithmeticError
		}
		if !left {
			return u128(new(uint256.Int).Rsh(a.Int(), s), false)
		}
		wide := new(uint256.Int).Lsh(a.Int(), s).Bytes32()
		return types.U128FromBytes(wide[16:]), 0
	}
	types.Violation("shift on %s", a)
	return nil, 0
}

func shl(a, b types.Value) (types.Value, uint64) { return shift(a, b, true) }

func shr(a, b types.Value) (types.Value, uint64) { return shift(a, b, false) }

func compare(a, b types.Value) int {
	switch a := a.(type) {
	case types.U8:
		return cmp(a, operand[types.U8](b))
	case types.U64:
		return cmp(a, operand[types.U64](b))
	case types.U128:
		return a.Int().Cmp(operand[types.U128](b).Int())
	}
	types.Violation("comparison on %s", a)
	return 0
}

func cmp[T types.U8 | types.U64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func opCompare(fn func(int) bool) opFunc {
	return func(m *machine, f *frame, _ bytecode.Instruction) error {
		b, a := m.pop(), m.pop()
		return next(m, f, types.Bool(fn(compare(a, b))))
	}
}

func toInt(v types.Value) *uint256.Int {
	switch v := v.(type) {
	case types.U8:
		return uint256.NewInt(uint64(v))
	case types.U64:
		return uint256.NewInt(uint64(v))
	case types.U128:
		return v.Int()
	}
	types.Violation("cast of %s", v)
	return nil
}

func castU8(v types.Value) (types.Value, uint64) {
	x := toInt(v)
	if !x.IsUint64() || x.Uint64() > uint64(^uint8(0)) {
		return nil, ArithmeticError
	}
	return types.U8(x.Uint64()), 0
}

func castU64(v types.Value) (types.Value, uint64) {
	x := toInt(v)
	if !x.IsUint64() {
		return nil, ArithmeticError
	}
	return types.U64(x.Uint64()), 0
}

func castU128(v types.Value) (types.Value, uint64) {
	return u128(toInt(v), false)
}

func opCast(fn func(types.Value) (types.Value, uint64)) opFunc {
	return func(m *machine, f *frame, _ bytecode.Instruction) error {
		v, code := fn(m.pop())
		if code != 0 {
			return m.abort(f, code)
		}
		return next(m, f, v)
	}
}
