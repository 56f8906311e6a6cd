// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/maybe"

	"github.com/ava-labs/stackvm/state"
)

const defaultOps = 4

var _ state.Mutable = (*TStateView)(nil)

type op struct {
	k string

	pastExists  bool
	pastV       []byte
	pastChanged bool
}

// TStateView is a single-threaded write buffer over a [TState]. Every write
// is recorded so the view can be rolled back to any earlier point.
type TStateView struct {
	ts                 *TState
	pendingChangedKeys map[string]maybe.Maybe[[]byte]

	// Ops is a record of all operations performed on [TStateView]. Tracking
	// operations allows for reverting state to a certain point-in-time.
	ops []*op
}

func (ts *TState) NewView() *TStateView {
	return &TStateView{
		ts:                 ts,
		pendingChangedKeys: make(map[string]maybe.Maybe[[]byte]),
		ops:                make([]*op, 0, defaultOps),
	}
}

// Rollback restores the view to the ts.ops[restorePoint] operation.
func (ts *TStateView) Rollback(_ context.Context, restorePoint int) {
	for i := len(ts.ops) - 1; i >= restorePoint; i-- {
		op := ts.ops[i]

		// Key was untouched by this view before the op.
		if !op.pastChanged {
			delete(ts.pendingChangedKeys, op.k)
			continue
		}

		// Key was deleted earlier in this view or its parent.
		if !op.pastExists {
			ts.pendingChangedKeys[op.k] = maybe.Nothing[[]byte]()
			continue
		}

		ts.pendingChangedKeys[op.k] = maybe.Some(op.pastV)
	}
	ts.ops = ts.ops[:restorePoint]
}

// OpIndex returns the number of operations done on ts.
func (ts *TStateView) OpIndex() int {
	return len(ts.ops)
}

// GetValue returns the value of [key] as seen by this view. Backend failures
// are returned as [*state.StorageError].
func (ts *TStateView) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	v, _, exists, err := ts.getValue(ctx, string(key))
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, database.ErrNotFound
	}
	return v, nil
}

// getValue returns the value of [key], whether it was changed by this view
// or its parent, and whether it exists.
func (ts *TStateView) getValue(ctx context.Context, key string) ([]byte, bool, bool, error) {
	if v, ok := ts.pendingChangedKeys[key]; ok {
		if v.IsNothing() {
			return nil, true, false, nil
		}
		return v.Value(), true, true, nil
	}
	if v, changed, exists := ts.ts.getChangedValue(key); changed {
		return v, true, exists, nil
	}
	v, err := ts.ts.base.GetValue(ctx, []byte(key))
	switch {
	case err == nil:
		return v, false, true, nil
	case errors.Is(err, database.ErrNotFound):
		return nil, false, false, nil
	default:
		return nil, false, false, &state.StorageError{Key: []byte(key), Err: err}
	}
}

// Insert sets [key] to [value].
//
// Any bytes passed into [Insert] will be consumed by [TStateView] and should
// not be modified/referenced after this call.
func (ts *TStateView) Insert(ctx context.Context, key []byte, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	k := string(key)
	past, changed, exists, err := ts.getValue(ctx, k)
	if err != nil {
		return err
	}
	ts.pendingChangedKeys[k] = maybe.Some(value)
	ts.ops = append(ts.ops, &op{
		k: k,

		pastExists:  exists,
		pastV:       past,
		pastChanged: changed,
	})
	return nil
}

// Remove deletes [key]. Removing a missing key is a no-op.
func (ts *TStateView) Remove(ctx context.Context, key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	k := string(key)
	past, changed, exists, err := ts.getValue(ctx, k)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	ts.pendingChangedKeys[k] = maybe.Nothing[[]byte]()
	ts.ops = append(ts.ops, &op{
		k: k,

		pastExists:  true,
		pastV:       past,
		pastChanged: changed,
	})
	return nil
}

func (ts *TStateView) PendingChanges() int {
	return len(ts.pendingChangedKeys)
}

// Commit moves the pending changes of this view into its [TState]. The view
// must not be used afterwards.
func (ts *TStateView) Commit() {
	ts.ts.l.Lock()
	defer ts.ts.l.Unlock()

	for k, v := range ts.pendingChangedKeys {
		ts.ts.changedKeys[k] = v
	}
	ts.ts.ops += len(ts.ops)
}
