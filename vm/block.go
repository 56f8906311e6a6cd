// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"context"
	"time"

	"github.com/neilotoole/errgroup"
	"go.uber.org/zap"

	"github.com/ava-labs/stackvm/chain"
	"github.com/ava-labs/stackvm/crypto/ed25519"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/tstate"
)

// changedKeysPerTx sizes the block's buffered state.
const changedKeysPerTx = 4

// BlockResult is the combined effect of a sequence of transactions.
type BlockResult struct {
	Outputs []*chain.TransactionOutput
	// WriteSet merges the writes of every non-discarded output.
	WriteSet state.WriteSet
}

// ExecuteBlock runs [txs] in order against [view]. Each transaction sees
// the writes of those before it. Signatures are batch-verified up front;
// a batch that fails is re-checked one transaction at a time.
func (vm *VM) ExecuteBlock(ctx context.Context, txs []*chain.SignedTransaction, view state.View) (*BlockResult, error) {
	if vm.isShutdown.Load() {
		return nil, ErrShutdown
	}
	ctx, span := vm.tracer.Start(ctx, "VM.ExecuteBlock")
	defer span.End()
	start := time.Now()

	verified, err := vm.verifySignatures(ctx, txs)
	if err != nil {
		return nil, err
	}

	ts := tstate.New(view, len(txs)*changedKeysPerTx)
	outputs := make([]*chain.TransactionOutput, len(txs))
	for i, tx := range txs {
		tv := ts.NewView()
		if verified[i] {
			outputs[i] = vm.executor.ExecuteVerified(ctx, tx, tv)
		} else {
			outputs[i] = vm.executor.Execute(ctx, tx, tv)
		}
		if outputs[i].Phase == chain.Discarded {
			continue
		}
		if err := outputs[i].WriteSet.ApplyTo(ctx, tv); err != nil {
			return nil, err
		}
		tv.Commit()
	}

	vm.metrics.blocksExecuted.Inc()
	vm.metrics.blockTxs.Add(float64(len(txs)))
	vm.metrics.blockExecuteTime.Observe(time.Since(start).Seconds())
	vm.log.Debug("executed block",
		zap.Int("txs", len(txs)),
		zap.Int("changes", ts.PendingChanges()),
		zap.Duration("t", time.Since(start)),
	)
	return &BlockResult{
		Outputs:  outputs,
		WriteSet: ts.ExportWriteSet(ctx, vm.tracer),
	}, nil
}

// verifySignatures splits [txs] into one batch per core. It reports which
// transactions belong to a batch that verified.
func (vm *VM) verifySignatures(ctx context.Context, txs []*chain.SignedTransaction) ([]bool, error) {
	_, span := vm.tracer.Start(ctx, "VM.verifySignatures")
	defer span.End()

	verified := make([]bool, len(txs))
	if len(txs) == 0 {
		return verified, nil
	}
	cores := vm.config.SignatureVerificationCores
	batchSize := (len(txs) + cores - 1) / cores

	g, _ := errgroup.WithContextN(ctx, cores, cores)
	for lo := 0; lo < len(txs); lo += batchSize {
		start := lo
		end := min(start+batchSize, len(txs))
		g.Go(func() error {
			batch := ed25519.NewBatch(end - start)
			for _, tx := range txs[start:end] {
				msg, err := tx.Raw.SigningMessage()
				if err != nil {
					// Left to the executor, which discards it.
					return nil
				}
				batch.Add(msg, tx.PublicKey, tx.Signature)
			}
			if !batch.Verify() {
				vm.metrics.batchFailures.Inc()
				return nil
			}
			for i := start; i < end; i++ {
				verified[i] = true
			}
			return nil
		})
	}
	return verified, g.Wait()
}
