// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package smap

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMap(t *testing.T) {
	require := require.New(t)

	m := New[int](0)
	_, ok := m.Get("a")
	require.False(ok)

	m.Put("a", 1)
	v, ok := m.Get("a")
	require.True(ok)
	require.Equal(1, v)

	v, loaded := m.LoadOrStore("a", 2)
	require.True(loaded)
	require.Equal(1, v)

	v, loaded = m.LoadOrStore("b", 3)
	require.False(loaded)
	require.Equal(3, v)
	require.Equal(2, m.Len())

	m.Delete("a")
	require.Equal(1, m.Len())

	m.Clear()
	require.Zero(m.Len())
}

func TestSMapIterate(t *testing.T) {
	require := require.New(t)

	m := New[int](64)
	for i := 0; i < 64; i++ {
		m.Put(strconv.Itoa(i), i)
	}
	sum := 0
	m.Iterate(func(_ string, v int) bool {
		sum += v
		return true
	})
	require.Equal(63*64/2, sum)

	visited := 0
	m.Iterate(func(string, int) bool {
		visited++
		return false
	})
	require.Equal(1, visited)
}

func TestSMapLoadOrStoreConcurrent(t *testing.T) {
	require := require.New(t)

	m := New[int](0)
	var (
		wg      sync.WaitGroup
		winners = make(chan int, 32)
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _ := m.LoadOrStore("k", i)
			winners <- v
		}(i)
	}
	wg.Wait()
	close(winners)

	first := <-winners
	for v := range winners {
		require.Equal(first, v)
	}
}
