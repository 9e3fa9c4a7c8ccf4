//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package app wires settings into a ready runner and starts telemetry.
package app

import (
	"context"
	"errors"
	"net/http"

	"trpc.group/trpc-go/trpc-itinerary-go/agent/itineraryagent"
	"trpc.group/trpc-go/trpc-itinerary-go/config"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/model"
	"trpc.group/trpc-go/trpc-itinerary-go/model/openai"
	"trpc.group/trpc-go/trpc-itinerary-go/runner"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/trace"
	"trpc.group/trpc-go/trpc-itinerary-go/tool"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/dispatch"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/duckduckgo"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/fetchpage"
)

// App holds the wired components.
type App struct {
	Settings   config.Settings
	Model      model.Model
	Fetcher    *fetchpage.Fetcher
	Dispatcher *dispatch.Dispatcher
	Agent      *itineraryagent.Agent
	Runner     runner.Runner
}

type options struct {
	model model.Model
}

// Option configures New.
type Option func(*options)

// WithModel replaces the OpenAI model built from the settings.
func WithModel(m model.Model) Option {
	return func(o *options) { o.model = m }
}

// New builds the pipeline described by s.
func New(s config.Settings, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	allowed, err := s.AllowedFree()
	if err != nil {
		return nil, err
	}

	m := o.model
	if m == nil {
		if err := s.RequireAPIKey(); err != nil {
			return nil, err
		}
		m = openai.New(s.OpenAIModel,
			openai.WithAPIKey(s.OpenAIAPIKey),
			openai.WithBaseURL(s.OpenAIBaseURL),
		)
	}

	fetcher := fetchpage.New(fetchpage.WithTimeout(s.FetchTimeout))
	var tools []tool.CallableTool
	if s.EnableFetchTool {
		tools = append(tools, fetchpage.NewTool(fetcher))
	}
	var hosted []model.HostedTool
	switch s.SearchBackend {
	case config.SearchHosted:
		hosted = append(hosted, model.HostedToolWebSearch)
	case config.SearchDuckDuckGo:
		tools = append(tools, duckduckgo.NewTool(
			duckduckgo.WithHTTPClient(&http.Client{Timeout: s.FetchTimeout}),
		))
	}
	d := dispatch.New(tools, dispatch.WithParallelism(s.ToolParallelism))

	a := itineraryagent.New(m,
		itineraryagent.WithDispatcher(d),
		itineraryagent.WithHostedTools(hosted...),
		itineraryagent.WithMaxRounds(s.MaxRounds),
		itineraryagent.WithMaxToolCalls(s.MaxToolCalls),
		itineraryagent.WithModelTimeout(s.ModelTimeout),
		itineraryagent.WithLinkCaps(s.MaxLinksPerDay, s.MaxTotalLinks),
	)
	r := runner.NewRunner(a, runner.DefaultConfig().
		WithLinkCaps(s.MaxLinksPerDay, s.MaxTotalLinks).
		WithAllowedFree(allowed))

	log.Infof("model %s, search %s, tools %v", m.Info().Name, s.SearchBackend, d.Names())
	return &App{
		Settings:   s,
		Model:      m,
		Fetcher:    fetcher,
		Dispatcher: d,
		Agent:      a,
		Runner:     r,
	}, nil
}

// StartTelemetry installs the metric provider and, when enabled, the
// OTLP exporters. The returned function flushes and stops both.
func StartTelemetry(ctx context.Context, s config.Settings) (func() error, error) {
	var metricOpts []metric.Option
	if s.OTelEnabled {
		metricOpts = append(metricOpts, metric.WithOTLP(true), metric.WithProtocol(s.OTelProtocol))
		if s.OTelEndpoint != "" {
			metricOpts = append(metricOpts, metric.WithEndpoint(s.OTelEndpoint))
		}
	}
	cleanMetrics, err := metric.Start(ctx, metricOpts...)
	if err != nil {
		return nil, err
	}
	if !s.OTelEnabled {
		return cleanMetrics, nil
	}

	traceOpts := []trace.Option{trace.WithProtocol(s.OTelProtocol)}
	if s.OTelEndpoint != "" {
		traceOpts = append(traceOpts, trace.WithEndpoint(s.OTelEndpoint))
	}
	cleanTraces, err := trace.Start(ctx, traceOpts...)
	if err != nil {
		return nil, errors.Join(err, cleanMetrics())
	}
	return func() error {
		return errors.Join(cleanTraces(), cleanMetrics())
	}, nil
}
