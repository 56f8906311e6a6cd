// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a logger at [LogLevel] writing to stderr and, when
// [LogDirectory] is set, to a rotated file named after [name].
func (c *Config) NewLogger(name string) (logging.Logger, error) {
	level, err := logging.ToLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	cores := []logging.WrappedCore{
		logging.NewWrappedCore(level, stderr{os.Stderr}, logging.Plain.ConsoleEncoder()),
	}
	if c.LogDirectory != "" {
		rw := &lumberjack.Logger{
			Filename:   filepath.Join(c.LogDirectory, name+".log"),
			MaxSize:    c.LogMaxSize,
			MaxAge:     c.LogMaxAge,
			MaxBackups: c.LogMaxFiles,
			Compress:   c.LogCompress,
		}
		cores = append(cores, logging.NewWrappedCore(level, rw, logging.JSON.FileEncoder()))
	}
	return logging.NewLogger(name, cores...), nil
}

// stderr is never closed by the logger.
type stderr struct {
	io.Writer
}

func (stderr) Close() error {
	return nil
}
