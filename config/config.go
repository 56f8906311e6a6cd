// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"gopkg.in/yaml.v2"

	"github.com/ava-labs/stackvm/gas"
	"github.com/ava-labs/stackvm/genesis"
	"github.com/ava-labs/stackvm/interpreter"
	"github.com/ava-labs/stackvm/loader"
	"github.com/ava-labs/stackvm/trace"
)

var (
	ErrInvalidFormat   = errors.New("config is neither JSON nor YAML")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrMissingSchedule = errors.New("missing gas schedule")
)

type Config struct {
	LogLevel     string `json:"logLevel" yaml:"log_level"`
	LogDirectory string `json:"logDirectory" yaml:"log_directory"`
	LogMaxSize   int    `json:"logMaxSize" yaml:"log_max_size"` // megabytes
	LogMaxFiles  int    `json:"logMaxFiles" yaml:"log_max_files"`
	LogMaxAge    int    `json:"logMaxAge" yaml:"log_max_age"` // days
	LogCompress  bool   `json:"logCompress" yaml:"log_compress"`

	TraceConfig trace.Config `json:"traceConfig" yaml:"trace_config"`

	// SignatureVerificationCores bounds the goroutines that batch-verify
	// the signatures of a block.
	SignatureVerificationCores int `json:"signatureVerificationCores" yaml:"signature_verification_cores"`

	genesis.Rules `yaml:",inline"`

	Loader      loader.Config      `json:"loader" yaml:"loader"`
	Interpreter interpreter.Config `json:"interpreter" yaml:"interpreter"`
	Gas         *gas.Schedule      `json:"gas" yaml:"gas"`
}

func NewConfig() Config {
	return Config{
		LogLevel:                   "info",
		LogMaxSize:                 8,
		LogMaxFiles:                4,
		LogMaxAge:                  7,
		TraceConfig:                trace.NewConfig(),
		SignatureVerificationCores: runtime.NumCPU(),
		Rules:                      *genesis.NewDefaultRules(),
		Loader:                     loader.NewConfig(),
		Interpreter:                interpreter.NewConfig(),
		Gas:                        gas.DefaultSchedule(),
	}
}

// ParseConfig overlays [b], JSON or YAML, on the defaults. Empty input
// yields the defaults.
func ParseConfig(b []byte) (Config, error) {
	cfg := NewConfig()
	if len(b) == 0 {
		return cfg, nil
	}
	switch {
	case isJSON(b):
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	case isYAML(b):
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, ErrInvalidFormat
	}
	if err := cfg.Verify(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Verify rejects configs the runtime cannot start with.
func (c *Config) Verify() error {
	switch {
	case c.Gas == nil:
		return ErrMissingSchedule
	case c.SignatureVerificationCores <= 0:
		return fmt.Errorf("%w: signatureVerificationCores must be positive", ErrInvalidConfig)
	case c.Interpreter.MaxCallDepth <= 0:
		return fmt.Errorf("%w: maxCallDepth must be positive", ErrInvalidConfig)
	case c.Interpreter.MaxStackSize <= 0:
		return fmt.Errorf("%w: maxStackSize must be positive", ErrInvalidConfig)
	case c.Loader.InstantiationCacheSize <= 0:
		return fmt.Errorf("%w: instantiationCacheSize must be positive", ErrInvalidConfig)
	case c.MaxTransactionSize <= 0:
		return fmt.Errorf("%w: maxTransactionSize must be positive", ErrInvalidConfig)
	case c.MinGasUnitPrice > c.MaxGasUnitPrice:
		return fmt.Errorf("%w: minGasUnitPrice %d above maxGasUnitPrice %d", ErrInvalidConfig, c.MinGasUnitPrice, c.MaxGasUnitPrice)
	}
	return nil
}

func isJSON(b []byte) bool {
	var js map[string]interface{}
	return json.Unmarshal(b, &js) == nil
}

func isYAML(b []byte) bool {
	var y map[string]interface{}
	return yaml.Unmarshal(b, &y) == nil
}
