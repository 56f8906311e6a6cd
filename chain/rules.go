// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

// Rules bound what a transaction may request before any of its code runs.
type Rules interface {
	GetMaxTransactionSize() int
	GetMaxGasAmount() uint64
	GetMinGasUnitPrice() uint64
	GetMaxGasUnitPrice() uint64
}
