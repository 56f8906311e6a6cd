// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	txsExecuted  prometheus.Counter
	txsAborted   prometheus.Counter
	txsDiscarded prometheus.Counter
	gasUsed      prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		txsExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_executed",
			Help:      "number of transactions finalized with their full effect",
		}),
		txsAborted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_aborted",
			Help:      "number of transactions that only paid gas",
		}),
		txsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "txs_discarded",
			Help:      "number of transactions dropped without effect",
		}),
		gasUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chain",
			Name:      "gas_used",
			Help:      "gas charged to finalized and aborted transactions",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.txsExecuted),
		r.Register(m.txsAborted),
		r.Register(m.txsDiscarded),
		r.Register(m.gasUsed),
	)
	return m, errs.Err
}

func (m *metrics) record(out *TransactionOutput) {
	switch out.Phase {
	case Finalized:
		m.txsExecuted.Inc()
	case Aborted:
		m.txsAborted.Inc()
	case Discarded:
		m.txsDiscarded.Inc()
	}
	m.gasUsed.Add(float64(out.GasUsed))
}
