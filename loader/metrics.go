// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package loader

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	verifications prometheus.Counter
	loadFailures  prometheus.Counter
	resets        prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loader",
			Name:      "cache_hits",
			Help:      "number of loads served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loader",
			Name:      "cache_misses",
			Help:      "number of loads that missed the cache",
		}),
		verifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loader",
			Name:      "verifications",
			Help:      "number of binaries passed to the verifier",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loader",
			Name:      "load_failures",
			Help:      "number of binaries that failed to load",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loader",
			Name:      "resets",
			Help:      "number of cache resets",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.cacheHits),
		r.Register(m.cacheMisses),
		r.Register(m.verifications),
		r.Register(m.loadFailures),
		r.Register(m.resets),
	)
	return m, errs.Err
}
