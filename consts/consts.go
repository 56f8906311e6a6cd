// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

const (
	ByteLen    = 1
	BoolLen    = 1
	Uint16Len  = 2
	IntLen     = 4
	Uint64Len  = 8
	Uint128Len = 16
	MaxUint8   = ^uint8(0)
	MaxUint16  = ^uint16(0)
	MaxUint    = ^uint(0)
	MaxInt     = int(MaxUint >> 1)
	MaxUint64  = ^uint64(0)

	// MaxTableEntries bounds every table of a binary (handles, definitions,
	// instructions).
	MaxTableEntries = 65_535
	// MaxIdentifierLen bounds module, struct, function and field names.
	MaxIdentifierLen = 255
	// MaxTypeDepth bounds nesting of signature tokens and type tags.
	MaxTypeDepth = 64
	// MaxValueDepth bounds nesting of runtime values.
	MaxValueDepth = 128
	// MaxBinarySize bounds encoded modules and scripts.
	MaxBinarySize = 1 << 20
)
