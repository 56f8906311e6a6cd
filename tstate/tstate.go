// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tstate

import (
	"context"
	"sync"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/maybe"

	"github.com/ava-labs/stackvm/state"
)

// TState buffers the committed changes of one transaction on top of a
// read-only base view. Nothing is written to the base.
type TState struct {
	base state.View

	l           sync.RWMutex
	changedKeys map[string]maybe.Maybe[[]byte]
	ops         int
}

// New returns a new instance of TState.
//
// [changedSize] is an estimate of the number of keys that will be changed.
func New(base state.View, changedSize int) *TState {
	return &TState{
		base:        base,
		changedKeys: make(map[string]maybe.Maybe[[]byte], changedSize),
	}
}

func (ts *TState) getChangedValue(key string) ([]byte, bool, bool) {
	ts.l.RLock()
	defer ts.l.RUnlock()

	if v, ok := ts.changedKeys[key]; ok {
		if v.IsNothing() {
			return nil, true, false
		}
		return v.Value(), true, true
	}
	return nil, false, false
}

// OpIndex returns the number of operations committed to [ts].
func (ts *TState) OpIndex() int {
	ts.l.RLock()
	defer ts.l.RUnlock()

	return ts.ops
}

// PendingChanges returns the number of keys changed in [ts].
func (ts *TState) PendingChanges() int {
	ts.l.RLock()
	defer ts.l.RUnlock()

	return len(ts.changedKeys)
}

// ExportWriteSet materializes every committed change, sorted by key.
//
// Once [ExportWriteSet] is called, [TState] should not be used again.
func (ts *TState) ExportWriteSet(ctx context.Context, t trace.Tracer) state.WriteSet {
	_, span := t.Start(ctx, "TState.ExportWriteSet")
	defer span.End()

	ts.l.RLock()
	defer ts.l.RUnlock()

	return state.NewWriteSet(ts.changedKeys)
}
