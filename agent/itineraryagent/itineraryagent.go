//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package itineraryagent drives the multi-round exchange with the model:
// submit the transcript, run the tools the model asks for, feed the
// results back, and stop at a schema-valid itinerary or when the round
// budget runs out.
package itineraryagent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	itelemetry "trpc.group/trpc-go/trpc-itinerary-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-itinerary-go/internal/retry"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/model"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/trace"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/dispatch"
)

// Defaults.
const (
	DefaultMaxRounds      = 8
	DefaultMaxToolCalls   = 8
	DefaultModelTimeout   = 120 * time.Second
	DefaultMaxLinksPerDay = 2
	DefaultMaxTotalLinks  = 10

	rawExcerptLimit = 800
)

var (
	// ErrExhausted is returned when the model still asks for tools after
	// the last allowed round.
	ErrExhausted = errors.New("agent did not return a final itinerary within the round budget")
	// ErrInvalidOutput is returned when the final answer does not match
	// the itinerary schema.
	ErrInvalidOutput = errors.New("model output does not match the itinerary schema")
)

// Options configures an Agent.
type Options struct {
	Dispatcher     *dispatch.Dispatcher
	HostedTools    []model.HostedTool
	MaxRounds      int
	MaxToolCalls   int
	ModelTimeout   time.Duration
	MaxLinksPerDay int
	MaxTotalLinks  int
	RetryPolicy    retry.Policy
}

// Option is a function that configures an Agent.
type Option func(*Options)

// WithDispatcher sets the local tools the model may call.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(opts *Options) {
		opts.Dispatcher = d
	}
}

// WithHostedTools sets the provider-executed tools offered to the model.
func WithHostedTools(tools ...model.HostedTool) Option {
	return func(opts *Options) {
		opts.HostedTools = tools
	}
}

// WithMaxRounds sets how many tool rounds may follow the first submission.
func WithMaxRounds(n int) Option {
	return func(opts *Options) {
		opts.MaxRounds = n
	}
}

// WithMaxToolCalls sets the per-submission tool call cap sent to the model.
func WithMaxToolCalls(n int) Option {
	return func(opts *Options) {
		opts.MaxToolCalls = n
	}
}

// WithModelTimeout bounds each submission.
func WithModelTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.ModelTimeout = d
	}
}

// WithLinkCaps sets the caps quoted to the model in the user prompt.
func WithLinkCaps(perDay, total int) Option {
	return func(opts *Options) {
		opts.MaxLinksPerDay = perDay
		opts.MaxTotalLinks = total
	}
}

// WithRetryPolicy replaces the submission retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(opts *Options) {
		opts.RetryPolicy = p
	}
}

// Agent produces itineraries. It holds no per-request state and is safe
// for concurrent use.
type Agent struct {
	model model.Model
	opts  Options
}

// New creates an Agent backed by m.
func New(m model.Model, opts ...Option) *Agent {
	o := Options{
		MaxRounds:      DefaultMaxRounds,
		MaxToolCalls:   DefaultMaxToolCalls,
		ModelTimeout:   DefaultModelTimeout,
		MaxLinksPerDay: DefaultMaxLinksPerDay,
		MaxTotalLinks:  DefaultMaxTotalLinks,
		RetryPolicy:    retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Dispatcher == nil {
		o.Dispatcher = dispatch.New(nil)
	}
	if o.MaxRounds < 0 {
		o.MaxRounds = 0
	}
	return &Agent{model: m, opts: o}
}

// Result is a finished run.
type Result struct {
	Itinerary *itinerary.Itinerary
	// Raw is the model's final text.
	Raw string
	// Rounds counts the tool rounds that were executed.
	Rounds int
}

// Generate runs the loop for req. The returned itinerary is schema-valid
// but not yet constrained; callers apply the link policy afterwards.
func (a *Agent) Generate(ctx context.Context, req itinerary.Request) (*Result, error) {
	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameGenerate)
	defer span.End()
	span.SetAttributes(attribute.String(itelemetry.KeyConcept, req.Concept))

	res, err := a.run(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	metric.RecordRounds(ctx, res.Rounds)
	return res, nil
}

func (a *Agent) run(ctx context.Context, req itinerary.Request) (*Result, error) {
	transcript, err := a.seed(req)
	if err != nil {
		return nil, err
	}
	rsp, err := a.submit(ctx, transcript, 0)
	if err != nil {
		return nil, err
	}
	for round := 0; ; round++ {
		turn, err := decodeTurn(rsp)
		if err != nil {
			return nil, err
		}
		switch t := turn.(type) {
		case *FinalResult:
			log.Debugf("itinerary for %q ready after %d rounds", req.Concept, round)
			return &Result{Itinerary: t.Itinerary, Raw: t.Raw, Rounds: round}, nil
		case *ToolCallRequest:
			if round >= a.opts.MaxRounds {
				metric.RecordRounds(ctx, round)
				return nil, fmt.Errorf("%w after %d rounds; last output: %q",
					ErrExhausted, round, clipRunes(t.Raw, rawExcerptLimit))
			}
			transcript = append(transcript, t.Message)
			for _, r := range a.opts.Dispatcher.DispatchAll(ctx, t.Calls) {
				transcript = append(transcript, model.NewToolMessage(r.CallID, r.Name, string(r.Output)))
			}
			if rsp, err = a.submit(ctx, transcript, round+1); err != nil {
				return nil, err
			}
		}
	}
}

func (a *Agent) seed(req itinerary.Request) ([]model.Message, error) {
	system, err := systemPrompt.Render(nil)
	if err != nil {
		return nil, err
	}
	user, err := userPrompt.Render(userPromptData{
		Request:        req,
		MaxLinksPerDay: a.opts.MaxLinksPerDay,
		MaxTotalLinks:  a.opts.MaxTotalLinks,
	})
	if err != nil {
		return nil, err
	}
	return []model.Message{
		model.NewSystemMessage(system),
		model.NewUserMessage(user),
	}, nil
}

// submit sends a snapshot of the transcript, retrying transient
// failures.
func (a *Agent) submit(ctx context.Context, transcript []model.Message, round int) (*model.Response, error) {
	name := a.model.Info().Name
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewChatSpanName(name))
	defer span.End()

	req := &model.Request{
		Messages: slices.Clone(transcript),
		GenerationConfig: model.GenerationConfig{
			MaxToolCalls: a.opts.MaxToolCalls,
		},
		StructuredOutput: &model.StructuredOutput{
			Name:   itinerary.SchemaName,
			Schema: itinerary.ProviderSchema(),
			Strict: true,
		},
		HostedTools: a.opts.HostedTools,
		Tools:       a.opts.Dispatcher.Tools(),
	}

	policy := a.opts.RetryPolicy
	notify := policy.Notify
	policy.Notify = func(err error, wait time.Duration) {
		log.Warnf("model %s submission failed, retrying in %s: %v", name, wait, err)
		metric.RecordRetry(ctx, name)
		if notify != nil {
			notify(err, wait)
		}
	}
	rsp, err := retry.Do(ctx, policy, func(ctx context.Context) (*model.Response, error) {
		rsp, err := a.submitOnce(ctx, req)
		outcome := metric.OutcomeOK
		if err != nil {
			outcome = metric.OutcomeError
		}
		metric.RecordModelCall(ctx, name, outcome)
		return rsp, err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("model submission %d failed: %w", round+1, err)
	}
	itelemetry.TraceCallLLM(span, name, round, len(transcript), len(rsp.Choices[0].Message.ToolCalls))
	return rsp, nil
}

func (a *Agent) submitOnce(ctx context.Context, req *model.Request) (*model.Response, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, a.opts.ModelTimeout)
	defer cancel()

	ch, err := a.model.GenerateContent(ctx, req)
	if err != nil {
		return nil, err
	}
	var last *model.Response
	for rsp := range ch {
		last = rsp
	}
	if last == nil {
		if err := parent.Err(); err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("no answer within %s: %w", a.opts.ModelTimeout, context.DeadlineExceeded)
		}
		return nil, errors.New("model returned no response")
	}
	if last.Error != nil {
		return nil, last.Error
	}
	if len(last.Choices) == 0 {
		return nil, errors.New("model response has no choices")
	}
	return last, nil
}

func clipRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
