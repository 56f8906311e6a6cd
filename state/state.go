// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
)

// View is a read-only view of ledger state. A missing key is reported with
// [database.ErrNotFound]; any other error is a storage failure.
type View interface {
	GetValue(ctx context.Context, key []byte) ([]byte, error)
}

// Mutable is a buffered view that accepts writes.
type Mutable interface {
	View

	Insert(ctx context.Context, key []byte, value []byte) error
	Remove(ctx context.Context, key []byte) error
}

// StorageError reports a failure of the backing store. It is never retried
// by the runtime.
type StorageError struct {
	Key []byte
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error reading %x: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Get reads [path] from [v]. A missing value is returned as (nil, false,
// nil) and backend failures are wrapped in [*StorageError].
func Get(ctx context.Context, v View, path AccessPath) ([]byte, bool, error) {
	key := path.Key()
	value, err := v.GetValue(ctx, key)
	switch {
	case err == nil:
		return value, true, nil
	case errors.Is(err, database.ErrNotFound):
		return nil, false, nil
	default:
		var serr *StorageError
		if errors.As(err, &serr) {
			return nil, false, err
		}
		return nil, false, &StorageError{Key: key, Err: err}
	}
}
