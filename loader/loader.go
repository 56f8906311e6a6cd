// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package loader turns published binaries into their executable form and
// caches the result for the lifetime of the process (or until [Loader.Reset]).
package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ava-labs/stackvm/bytecode"
	"github.com/ava-labs/stackvm/smap"
	"github.com/ava-labs/stackvm/state"
	"github.com/ava-labs/stackvm/verifier"
)

const initialCacheSize = 1024

type Config struct {
	InstantiationCacheSize int `json:"instantiationCacheSize" yaml:"instantiation_cache_size"`
}

func NewConfig() Config {
	return Config{InstantiationCacheSize: 4096}
}

// Stats counts the work done by a [Loader].
type Stats struct {
	Hits          uint64
	Misses        uint64
	Verifications uint64
	Failures      uint64
	Resets        uint64
}

type Loader struct {
	log      logging.Logger
	tracer   trace.Tracer
	decoder  bytecode.Deserializer
	verifier verifier.Verifier
	metrics  *metrics

	// resetL is held for reading by every public load and for writing by
	// [Reset], so a reset never interleaves with a load.
	resetL sync.RWMutex

	modules      *smap.SMap[*Module]
	scripts      *smap.SMap[*Script]
	moduleFlight singleflight.Group
	scriptFlight singleflight.Group

	functions *cache.LRU[string, *Instantiation]
	structs   *cache.LRU[string, *StructLayout]

	hits          atomic.Uint64
	misses        atomic.Uint64
	verifications atomic.Uint64
	failures      atomic.Uint64
	resets        atomic.Uint64
}

func New(
	log logging.Logger,
	tracer trace.Tracer,
	registerer prometheus.Registerer,
	decoder bytecode.Deserializer,
	v verifier.Verifier,
	cfg Config,
) (*Loader, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	return &Loader{
		log:       log,
		tracer:    tracer,
		decoder:   decoder,
		verifier:  v,
		metrics:   m,
		modules:   smap.New[*Module](initialCacheSize),
		scripts:   smap.New[*Script](initialCacheSize),
		functions: &cache.LRU[string, *Instantiation]{Size: cfg.InstantiationCacheSize},
		structs:   &cache.LRU[string, *StructLayout]{Size: cfg.InstantiationCacheSize},
	}, nil
}

// Load returns the executable form of module [id], reading it from [view]
// on a cache miss. Concurrent misses on the same id are served by a single
// verification.
func (l *Loader) Load(ctx context.Context, view state.View, id bytecode.BinaryID) (*Module, error) {
	ctx, span := l.tracer.Start(ctx, "Loader.Load")
	defer span.End()

	l.resetL.RLock()
	defer l.resetL.RUnlock()

	return l.load(ctx, view, id, nil)
}

// Cached returns module [id] only if it is already loaded.
func (l *Loader) Cached(id bytecode.BinaryID) (*Module, bool) {
	return l.modules.Get(id.String())
}

type rawModule struct {
	module *bytecode.Module
	size   int
}

func (l *Loader) load(ctx context.Context, view state.View, id bytecode.BinaryID, decoded map[bytecode.BinaryID]rawModule) (*Module, error) {
	key := id.String()
	if m, ok := l.modules.Get(key); ok {
		l.hit()
		return m, nil
	}
	l.miss()

	v, err, _ := l.moduleFlight.Do(key, func() (any, error) {
		// A flight for [id] may have finished between the lookup above and
		// this one starting.
		if m, ok := l.modules.Get(key); ok {
			return m, nil
		}
		m, err := l.fill(ctx, view, id, decoded)
		if err != nil {
			l.fail(id, err)
			return nil, err
		}
		m, _ = l.modules.LoadOrStore(key, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Module), nil
}

func (l *Loader) fill(ctx context.Context, view state.View, id bytecode.BinaryID, decoded map[bytecode.BinaryID]rawModule) (*Module, error) {
	raw, ok := decoded[id]
	if !ok {
		decoded = make(map[bytecode.BinaryID]rawModule)
		if err := l.closure(ctx, view, id, []bytecode.BinaryID{id}, decoded); err != nil {
			return nil, err
		}
		raw = decoded[id]
	}

	l.verifications.Inc()
	l.metrics.verifications.Inc()
	verified, err := l.verifier.VerifyModule(raw.module)
	if err != nil {
		return nil, newLoadError(VerificationFailed, id, err)
	}

	deps, err := l.loadDependencies(ctx, view, verified.Dependencies(), decoded)
	if err != nil {
		return nil, err
	}
	return linkModule(verified.Module, raw.size, deps)
}

func (l *Loader) loadDependencies(
	ctx context.Context,
	view state.View,
	targets []bytecode.BinaryID,
	decoded map[bytecode.BinaryID]rawModule,
) (map[bytecode.BinaryID]*Module, error) {
	deps := make(map[bytecode.BinaryID]*Module, len(targets))
	for _, dep := range targets {
		m, err := l.load(ctx, view, dep, decoded)
		if err != nil {
			return nil, err
		}
		deps[dep] = m
	}
	return deps, nil
}

// closure decodes every uncached module reachable from [roots] into
// [decoded]. It fails with [CyclicDependency] before any flight is joined:
// the flights of a cycle would otherwise wait on each other forever.
func (l *Loader) closure(
	ctx context.Context,
	view state.View,
	from bytecode.BinaryID,
	roots []bytecode.BinaryID,
	decoded map[bytecode.BinaryID]rawModule,
) error {
	visiting := set.NewSet[bytecode.BinaryID](len(roots))
	var visit func(id bytecode.BinaryID) error
	visit = func(id bytecode.BinaryID) error {
		if _, ok := l.modules.Get(id.String()); ok {
			return nil
		}
		if visiting.Contains(id) {
			return newLoadError(CyclicDependency, from, fmt.Errorf("%w: %s", ErrCyclicDependency, id))
		}
		if _, ok := decoded[id]; ok {
			return nil
		}
		raw, err := l.fetchModule(ctx, view, id)
		if err != nil {
			return err
		}
		visiting.Add(id)
		for _, dep := range raw.module.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting.Remove(id)
		decoded[id] = raw
		return nil
	}
	for _, root := range roots {
		if err := visit(root); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) fetchModule(ctx context.Context, view state.View, id bytecode.BinaryID) (rawModule, error) {
	b, ok, err := state.Get(ctx, view, state.CodePath(id))
	if err != nil {
		return rawModule{}, err
	}
	if !ok {
		return rawModule{}, linkErrorf(id, "%w: %s", ErrModuleNotFound, id)
	}
	m, err := l.decoder.DecodeModule(b)
	if err != nil {
		return rawModule{}, newLoadError(Deserialization, id, err)
	}
	if self := m.Self(); self != id {
		return rawModule{}, linkErrorf(id, "%w: %s", ErrWrongSelf, self)
	}
	return rawModule{module: m, size: len(b)}, nil
}

// ScriptID identifies a script by the hash of its bytes.
func ScriptID(code []byte) ids.ID {
	return ids.ID(hashing.ComputeHash256Array(code))
}

func scriptBinaryID(id ids.ID) bytecode.BinaryID {
	return bytecode.BinaryID{Name: id.String()}
}

// LoadScript returns the executable form of the script [code].
func (l *Loader) LoadScript(ctx context.Context, view state.View, code []byte) (*Script, error) {
	ctx, span := l.tracer.Start(ctx, "Loader.LoadScript")
	defer span.End()

	l.resetL.RLock()
	defer l.resetL.RUnlock()

	id := ScriptID(code)
	key := string(id[:])
	if s, ok := l.scripts.Get(key); ok {
		l.hit()
		return s, nil
	}
	l.miss()

	v, err, _ := l.scriptFlight.Do(key, func() (any, error) {
		if s, ok := l.scripts.Get(key); ok {
			return s, nil
		}
		s, err := l.fillScript(ctx, view, id, code)
		if err != nil {
			l.fail(scriptBinaryID(id), err)
			return nil, err
		}
		s, _ = l.scripts.LoadOrStore(key, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Script), nil
}

func (l *Loader) fillScript(ctx context.Context, view state.View, id ids.ID, code []byte) (*Script, error) {
	bid := scriptBinaryID(id)
	raw, err := l.decoder.DecodeScript(code)
	if err != nil {
		return nil, newLoadError(Deserialization, bid, err)
	}
	decoded := make(map[bytecode.BinaryID]rawModule)
	if err := l.closure(ctx, view, bid, raw.Dependencies(), decoded); err != nil {
		return nil, err
	}

	l.verifications.Inc()
	l.metrics.verifications.Inc()
	verified, err := l.verifier.VerifyScript(raw)
	if err != nil {
		return nil, newLoadError(VerificationFailed, bid, err)
	}

	deps, err := l.loadDependencies(ctx, view, verified.Dependencies(), decoded)
	if err != nil {
		return nil, err
	}
	s, err := linkScript(verified.Script, len(code), deps)
	if err != nil {
		return nil, err
	}
	s.ID = id
	s.Main.Module = bid
	return s, nil
}

// Reset drops every cached binary and instantiation. It waits for in-flight
// loads to finish and blocks new ones until it returns.
func (l *Loader) Reset() {
	l.resetL.Lock()
	defer l.resetL.Unlock()

	modules, scripts := l.modules.Len(), l.scripts.Len()
	l.modules.Clear()
	l.scripts.Clear()
	l.functions.Flush()
	l.structs.Flush()
	l.resets.Inc()
	l.metrics.resets.Inc()
	l.log.Info("loader cache reset",
		zap.Int("modules", modules),
		zap.Int("scripts", scripts),
	)
}

func (l *Loader) Stats() Stats {
	return Stats{
		Hits:          l.hits.Load(),
		Misses:        l.misses.Load(),
		Verifications: l.verifications.Load(),
		Failures:      l.failures.Load(),
		Resets:        l.resets.Load(),
	}
}

func (l *Loader) hit() {
	l.hits.Inc()
	l.metrics.cacheHits.Inc()
}

func (l *Loader) miss() {
	l.misses.Inc()
	l.metrics.cacheMisses.Inc()
}

func (l *Loader) fail(id bytecode.BinaryID, err error) {
	l.failures.Inc()
	l.metrics.loadFailures.Inc()
	l.log.Debug("failed to load binary",
		zap.Stringer("binary", id),
		zap.Error(err),
	)
}
