// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"time"

	"github.com/ava-labs/avalanchego/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	DefaultEndpoint = "http://localhost:9411/api/v2/spans"

	exportTimeout = 10 * time.Second
	// shutdownTimeout exceeds [exportTimeout] so in-flight exports finish.
	shutdownTimeout = 15 * time.Second
)

type Config struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// SampleRate is the fraction of executions traced. Values >= 1 trace
	// everything and values <= 0 trace nothing.
	SampleRate float64 `json:"sampleRate" yaml:"sample_rate"`

	// Endpoint is the zipkin collector spans are exported to.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	AppName string `json:"appName" yaml:"app_name"`
	Version string `json:"version" yaml:"version"`
}

func NewConfig() Config {
	return Config{
		Enabled:    false,
		SampleRate: 0.1,
		Endpoint:   DefaultEndpoint,
		AppName:    "stackvm",
	}
}

type tracer struct {
	oteltrace.Tracer

	tp *sdktrace.TracerProvider
}

func (t *tracer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return t.tp.Shutdown(ctx)
}

// New returns the tracer described by [cfg]. A disabled config yields
// [trace.Noop].
func New(cfg Config) (trace.Tracer, error) {
	if !cfg.Enabled {
		return trace.Noop, nil
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	exporter, err := zipkin.New(endpoint)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithExportTimeout(exportTimeout)),
		sdktrace.WithResource(
			resource.NewWithAttributes(
				semconv.SchemaURL,
				attribute.String("version", cfg.Version),
				semconv.ServiceNameKey.String(cfg.AppName),
			),
		),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
	)
	return &tracer{
		Tracer: tp.Tracer(cfg.AppName),
		tp:     tp,
	}, nil
}
