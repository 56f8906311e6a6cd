// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"bytes"
	"context"
	"slices"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/maybe"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/stackvm/consts"
)

// WriteOp is a single mutation. A Nothing value deletes the key.
type WriteOp struct {
	Key   []byte
	Value maybe.Maybe[[]byte]
}

func (op WriteOp) IsDelete() bool { return op.Value.IsNothing() }

// WriteSet is the set of mutations produced by one transaction. Keys are
// unique and sorted so that equal sets have identical encodings.
type WriteSet []WriteOp

// NewWriteSet materializes [changes] in key order.
func NewWriteSet(changes map[string]maybe.Maybe[[]byte]) WriteSet {
	keys := maps.Keys(changes)
	slices.Sort(keys)
	ws := make(WriteSet, len(keys))
	for i, k := range keys {
		ws[i] = WriteOp{Key: []byte(k), Value: changes[k]}
	}
	return ws
}

// Get returns the operation on [key], if any.
func (ws WriteSet) Get(key []byte) (WriteOp, bool) {
	i, ok := slices.BinarySearchFunc(ws, key, func(op WriteOp, k []byte) int {
		return bytes.Compare(op.Key, k)
	})
	if !ok {
		return WriteOp{}, false
	}
	return ws[i], true
}

// GetPath is [Get] keyed by an access path.
func (ws WriteSet) GetPath(path AccessPath) (WriteOp, bool) {
	return ws.Get(path.Key())
}

// Bytes is the canonical encoding of [ws].
func (ws WriteSet) Bytes() []byte {
	size := consts.IntLen
	for _, op := range ws {
		size += consts.IntLen + len(op.Key) + consts.BoolLen
		if !op.IsDelete() {
			size += consts.IntLen + len(op.Value.Value())
		}
	}
	p := wrappers.Packer{Bytes: make([]byte, 0, size), MaxSize: size}
	p.PackInt(uint32(len(ws)))
	for _, op := range ws {
		p.PackBytes(op.Key)
		p.PackBool(!op.IsDelete())
		if !op.IsDelete() {
			p.PackBytes(op.Value.Value())
		}
	}
	return p.Bytes
}

// Apply writes [ws] to [db] in a single batch.
func (ws WriteSet) Apply(db database.Database) error {
	batch := db.NewBatch()
	for _, op := range ws {
		var err error
		if op.IsDelete() {
			err = batch.Delete(op.Key)
		} else {
			err = batch.Put(op.Key, op.Value.Value())
		}
		if err != nil {
			return err
		}
	}
	return batch.Write()
}

// ApplyTo writes [ws] into the buffered view [m].
func (ws WriteSet) ApplyTo(ctx context.Context, m Mutable) error {
	for _, op := range ws {
		var err error
		if op.IsDelete() {
			err = m.Remove(ctx, op.Key)
		} else {
			err = m.Insert(ctx, op.Key, op.Value.Value())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
