//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package metric records the service's counters and histograms. Until
// Start is called every instrument is a no-op and Handler serves an empty
// exposition.
package metric

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	noopm "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	itelemetry "trpc.group/trpc-go/trpc-itinerary-go/internal/telemetry"
)

// Outcome attribute values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Meter is the global OpenTelemetry meter for the service.
var Meter metric.Meter = noopm.Meter{}

type instrumentSet struct {
	requests   metric.Int64Counter
	modelCalls metric.Int64Counter
	retries    metric.Int64Counter
	toolCalls  metric.Int64Counter
	rounds     metric.Int64Histogram
	latency    metric.Float64Histogram
}

var (
	instruments atomic.Pointer[instrumentSet]
	handler     atomic.Pointer[http.Handler]
)

func init() {
	set, _ := newInstruments(Meter)
	instruments.Store(set)
	h := promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	handler.Store(&h)
}

func newInstruments(m metric.Meter) (*instrumentSet, error) {
	var (
		set  instrumentSet
		err  error
		errs []error
	)
	set.requests, err = m.Int64Counter("itinerary.requests",
		metric.WithDescription("Itinerary generation requests by outcome."))
	errs = append(errs, err)
	set.modelCalls, err = m.Int64Counter("itinerary.model.calls",
		metric.WithDescription("Model submissions by model and outcome."))
	errs = append(errs, err)
	set.retries, err = m.Int64Counter("itinerary.model.retries",
		metric.WithDescription("Model submissions retried after a transient failure."))
	errs = append(errs, err)
	set.toolCalls, err = m.Int64Counter("itinerary.tool.calls",
		metric.WithDescription("Tool executions by tool and outcome."))
	errs = append(errs, err)
	set.rounds, err = m.Int64Histogram("itinerary.agent.rounds",
		metric.WithDescription("Tool rounds used per generated itinerary."),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 6, 7, 8))
	errs = append(errs, err)
	set.latency, err = m.Float64Histogram("itinerary.request.duration",
		metric.WithDescription("End-to-end itinerary generation time."),
		metric.WithUnit("s"))
	errs = append(errs, err)
	return &set, errors.Join(errs...)
}

// RecordRequest counts one finished itinerary request.
func RecordRequest(ctx context.Context, outcome string, elapsed time.Duration) {
	set := instruments.Load()
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	set.requests.Add(ctx, 1, attrs)
	set.latency.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordModelCall counts one model submission.
func RecordModelCall(ctx context.Context, model, outcome string) {
	instruments.Load().modelCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
}

// RecordRetry counts one retried model submission.
func RecordRetry(ctx context.Context, model string) {
	instruments.Load().retries.Add(ctx, 1, metric.WithAttributes(attribute.String("model", model)))
}

// RecordToolCall counts one tool execution.
func RecordToolCall(ctx context.Context, tool, outcome string) {
	instruments.Load().toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	))
}

// RecordRounds records how many tool rounds one itinerary took.
func RecordRounds(ctx context.Context, rounds int) {
	instruments.Load().rounds.Record(ctx, int64(rounds))
}

// Handler serves the Prometheus exposition of the recorded metrics.
func Handler() http.Handler {
	return *handler.Load()
}

// Start installs an sdk MeterProvider with a Prometheus reader and, when
// an endpoint is configured, an OTLP periodic reader (gRPC by default,
// HTTP with WithProtocol).
// OTEL_EXPORTER_OTLP_METRICS_ENDPOINT and OTEL_EXPORTER_OTLP_ENDPOINT
// supply the endpoint when WithEndpoint is not given and WithOTLP(true)
// is set.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		serviceName:      itelemetry.ServiceName,
		serviceVersion:   itelemetry.ServiceVersion,
		serviceNamespace: itelemetry.ServiceNamespace,
		interval:         15 * time.Second,
		protocol:         itelemetry.ProtocolGRPC,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.otlp && options.endpoint == "" {
		options.endpoint = metricsEndpoint(options.protocol)
	}

	res, err := itelemetry.NewResource(ctx, options.serviceName, options.serviceVersion, options.serviceNamespace)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	promExporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	providerOpts := []sdkmetric.Option{
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	}
	if options.otlp {
		exporter, err := newOTLPExporter(ctx, options)
		if err != nil {
			return nil, err
		}
		providerOpts = append(providerOpts,
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(options.interval))))
	}

	provider := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(provider)
	Meter = provider.Meter(itelemetry.InstrumentName)

	set, err := newInstruments(Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	instruments.Store(set)
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	handler.Store(&h)

	return func() error {
		if err := provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown MeterProvider: %w", err)
		}
		return nil
	}, nil
}

func newOTLPExporter(ctx context.Context, opts *options) (sdkmetric.Exporter, error) {
	switch opts.protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err := otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(opts.endpoint),
			otlpmetrichttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		return exporter, nil
	case itelemetry.ProtocolGRPC:
		conn, err := itelemetry.NewGRPCConn(opts.endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics connection: %w", err)
		}
		exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unsupported metrics protocol %q", opts.protocol)
	}
}

func metricsEndpoint(protocol string) string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if protocol == itelemetry.ProtocolHTTP {
		return "localhost:4318"
	}
	return "localhost:4317"
}

// Option is a function that configures meter options.
type Option func(*options)

type options struct {
	otlp             bool
	endpoint         string
	interval         time.Duration
	protocol         string
	serviceName      string
	serviceVersion   string
	serviceNamespace string
}

// WithOTLP enables the OTLP reader.
func WithOTLP(enabled bool) Option {
	return func(opts *options) {
		opts.otlp = enabled
	}
}

// WithEndpoint sets the collector endpoint (host and port, no scheme) and
// enables the OTLP reader.
func WithEndpoint(endpoint string) Option {
	return func(opts *options) {
		opts.endpoint = endpoint
		opts.otlp = endpoint != ""
	}
}

// WithProtocol selects the OTLP transport, "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(opts *options) {
		opts.protocol = protocol
	}
}

// WithInterval sets the OTLP export interval.
func WithInterval(d time.Duration) Option {
	return func(opts *options) {
		opts.interval = d
	}
}

// WithServiceVersion sets the reported service version.
func WithServiceVersion(version string) Option {
	return func(opts *options) {
		opts.serviceVersion = version
	}
}
