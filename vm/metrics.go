// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	blocksExecuted   prometheus.Counter
	blockTxs         prometheus.Counter
	batchFailures    prometheus.Counter
	blockExecuteTime prometheus.Histogram
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()
	m := &metrics{
		blocksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "blocks_executed",
			Help:      "number of blocks executed",
		}),
		blockTxs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "block_txs",
			Help:      "number of transactions executed as part of a block",
		}),
		batchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vm",
			Name:      "signature_batch_failures",
			Help:      "number of signature batches that fell back to individual verification",
		}),
		blockExecuteTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vm",
			Name:      "block_execute_seconds",
			Help:      "time spent executing blocks",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.blocksExecuted),
		r.Register(m.blockTxs),
		r.Register(m.batchFailures),
		r.Register(m.blockExecuteTime),
	)
	return r, m, errs.Err
}
