// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"

	"github.com/ava-labs/avalanchego/database"
)

var (
	_ View    = (*DatabaseView)(nil)
	_ Mutable = (MemoryView)(nil)
)

// DatabaseView serves reads from an avalanchego database.
type DatabaseView struct {
	db database.KeyValueReader
}

func NewDatabaseView(db database.KeyValueReader) *DatabaseView {
	return &DatabaseView{db: db}
}

func (d *DatabaseView) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return d.db.Get(key)
}

// MemoryView is an in-memory view keyed by storage key.
type MemoryView map[string][]byte

func (m MemoryView) GetValue(_ context.Context, key []byte) ([]byte, error) {
	if v, ok := m[string(key)]; ok {
		return v, nil
	}
	return nil, database.ErrNotFound
}

func (m MemoryView) Insert(_ context.Context, key []byte, value []byte) error {
	m[string(key)] = value
	return nil
}

func (m MemoryView) Remove(_ context.Context, key []byte) error {
	delete(m, string(key))
	return nil
}

// Apply writes [ws] into [m].
func (m MemoryView) Apply(ws WriteSet) {
	for _, op := range ws {
		if op.IsDelete() {
			delete(m, string(op.Key))
			continue
		}
		m[string(op.Key)] = op.Value.Value()
	}
}
