// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"testing"

	"github.com/ava-labs/avalanchego/trace"
	"github.com/stretchr/testify/require"
)

func TestNewDisabled(t *testing.T) {
	require := require.New(t)

	tr, err := New(NewConfig())
	require.NoError(err)
	require.Equal(trace.Noop, tr)

	_, span := tr.Start(context.Background(), "test")
	span.End()
	require.NoError(tr.Close())
}

func TestNewEnabled(t *testing.T) {
	require := require.New(t)

	cfg := NewConfig()
	cfg.Enabled = true
	cfg.SampleRate = 0
	cfg.Endpoint = ""
	tr, err := New(cfg)
	require.NoError(err)
	require.IsType(&tracer{}, tr)

	_, span := tr.Start(context.Background(), "test")
	span.End()
	require.NoError(tr.Close())
}

func TestNewBadEndpoint(t *testing.T) {
	cfg := NewConfig()
	cfg.Enabled = true
	cfg.Endpoint = "://bad"
	_, err := New(cfg)
	require.Error(t, err)
}
