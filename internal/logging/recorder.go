// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package logging provides loggers for tests.
package logging

import (
	"sync"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ logging.Logger = (*Recorder)(nil)

// Entry is a single recorded log line.
type Entry struct {
	Level   logging.Level
	Message string
	Fields  map[string]interface{}
}

// Recorder keeps Warn and Error entries in memory. Every other level is
// dropped.
type Recorder struct {
	logging.NoLog

	l       sync.Mutex
	entries []Entry
}

func (r *Recorder) Warn(msg string, fields ...zap.Field) {
	r.record(logging.Warn, msg, fields)
}

func (r *Recorder) Error(msg string, fields ...zap.Field) {
	r.record(logging.Error, msg, fields)
}

func (r *Recorder) record(level logging.Level, msg string, fields []zap.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	r.l.Lock()
	defer r.l.Unlock()
	r.entries = append(r.entries, Entry{
		Level:   level,
		Message: msg,
		Fields:  enc.Fields,
	})
}

// Entries returns a copy of everything recorded at [level].
func (r *Recorder) Entries(level logging.Level) []Entry {
	r.l.Lock()
	defer r.l.Unlock()

	var out []Entry
	for _, e := range r.entries {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
