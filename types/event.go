// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// Event is a message emitted during execution. Events with the same key
// are numbered in emission order.
type Event struct {
	Key            []byte
	SequenceNumber uint64
	Type           TypeTag
	Data           []byte
}
