// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package smap provides a concurrent map sharded by the xxh3 hash of its
// string keys.
package smap

import (
	"runtime"
	"sync"

	"github.com/zeebo/xxh3"
)

var shardCount = runtime.NumCPU() * 16

type SMap[V any] struct {
	count  uint64
	shards []*shard[V]
}

func New[V any](initial int) *SMap[V] {
	m := &SMap[V]{
		count:  uint64(shardCount),
		shards: make([]*shard[V], shardCount),
	}
	for i := range m.shards {
		m.shards[i] = newShard[V](initial)
	}
	return m
}

type shard[V any] struct {
	l    sync.RWMutex
	data map[string]V
}

func newShard[V any](initial int) *shard[V] {
	return &shard[V]{data: make(map[string]V, max(16, initial/shardCount))}
}

func (m *SMap[V]) shard(key string) *shard[V] {
	return m.shards[xxh3.HashString(key)%m.count]
}

func (m *SMap[V]) Put(key string, value V) {
	s := m.shard(key)
	s.l.Lock()
	defer s.l.Unlock()
	s.data[key] = value
}

func (m *SMap[V]) Get(key string) (V, bool) {
	s := m.shard(key)
	s.l.RLock()
	defer s.l.RUnlock()
	value, ok := s.data[key]
	return value, ok
}

// LoadOrStore returns the existing value for [key] if present. Otherwise it
// stores [value] and returns it. The boolean reports whether the value was
// already present.
func (m *SMap[V]) LoadOrStore(key string, value V) (V, bool) {
	s := m.shard(key)
	s.l.Lock()
	defer s.l.Unlock()
	if existing, ok := s.data[key]; ok {
		return existing, true
	}
	s.data[key] = value
	return value, false
}

func (m *SMap[V]) Delete(key string) {
	s := m.shard(key)
	s.l.Lock()
	defer s.l.Unlock()
	delete(s.data, key)
}

// Len returns the number of entries. Concurrent writers may make the result
// stale by the time it is returned.
func (m *SMap[V]) Len() int {
	var n int
	for _, s := range m.shards {
		s.l.RLock()
		n += len(s.data)
		s.l.RUnlock()
	}
	return n
}

// Clear drops every entry.
func (m *SMap[V]) Clear() {
	for _, s := range m.shards {
		s.l.Lock()
		clear(s.data)
		s.l.Unlock()
	}
}

// Iterate calls [f] for every entry until [f] returns false. Each shard is
// read-locked while it is visited, so [f] must not write to the map.
func (m *SMap[V]) Iterate(f func(k string, v V) bool) {
	for _, s := range m.shards {
		s.l.RLock()
		for k, v := range s.data {
			if !f(k, v) {
				s.l.RUnlock()
				return
			}
		}
		s.l.RUnlock()
	}
}
