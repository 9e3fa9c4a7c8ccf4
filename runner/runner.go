//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package runner turns a validated request into a final itinerary: it
// runs the agent and applies the link policy to whatever the model
// returned.
package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-itinerary-go/agent/itineraryagent"
	itelemetry "trpc.group/trpc-go/trpc-itinerary-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary/constraint"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/metric"
)

// Generator produces an unconstrained itinerary for a request.
type Generator interface {
	Generate(ctx context.Context, req itinerary.Request) (*itineraryagent.Result, error)
}

// Runner is the interface for running the itinerary pipeline.
type Runner interface {
	// Run returns the constrained itinerary for req. req must already
	// be validated.
	Run(ctx context.Context, req itinerary.Request) (*itinerary.Itinerary, error)
}

type runner struct {
	generator Generator
	config    Config
}

// NewRunner creates a Runner.
func NewRunner(g Generator, config Config) Runner {
	return &runner{generator: g, config: config}
}

// Run implements Runner.
func (r *runner) Run(ctx context.Context, req itinerary.Request) (*itinerary.Itinerary, error) {
	start := time.Now()
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	res, err := r.generator.Generate(ctx, req)
	if err != nil {
		metric.RecordRequest(ctx, metric.OutcomeError, time.Since(start))
		log.Errorf("itinerary for %q failed after %s: %v", req.Concept, time.Since(start), err)
		return nil, err
	}

	enforced := constraint.Enforce(res.Itinerary, r.config.policy(req.FreeOnly))
	before, after := res.Itinerary.ItemCount(), enforced.ItemCount()
	oteltrace.SpanFromContext(ctx).SetAttributes(
		attribute.Int(itelemetry.KeyItemsBefore, before),
		attribute.Int(itelemetry.KeyItemsAfter, after),
	)
	metric.RecordRequest(ctx, metric.OutcomeOK, time.Since(start))
	log.Infof("itinerary for %q: %d days, %d of %d links kept, %d rounds, %s",
		req.Concept, len(enforced.Itinerary), after, before, res.Rounds, time.Since(start))
	return enforced, nil
}
