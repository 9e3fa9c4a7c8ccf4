//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package dispatch routes tool calls requested by the model to registered
// tools and packages every outcome, including failures, as a JSON payload
// the model can read.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/codes"

	itelemetry "trpc.group/trpc-go/trpc-itinerary-go/internal/telemetry"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/model"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/metric"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/trace"
	"trpc.group/trpc-go/trpc-itinerary-go/tool"
)

// Result is the output of one dispatched call.
type Result struct {
	CallID string
	Name   string
	Output json.RawMessage
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithParallelism runs up to n calls of one round concurrently. Values
// below 2 keep dispatch sequential.
func WithParallelism(n int) Option {
	return func(d *Dispatcher) {
		d.parallelism = n
	}
}

// Dispatcher maps tool names to callable tools. It is immutable after
// construction and safe for concurrent use.
type Dispatcher struct {
	tools       map[string]tool.CallableTool
	parallelism int
}

// New registers tools under their declared names. A later tool with the
// same name replaces an earlier one.
func New(tools []tool.CallableTool, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tools:       make(map[string]tool.CallableTool, len(tools)),
		parallelism: 1,
	}
	for _, t := range tools {
		d.tools[t.Declaration().Name] = t
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Names returns the registered tool names in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tools keyed by name, the shape
// model.Request.Tools expects.
func (d *Dispatcher) Tools() map[string]tool.Tool {
	out := make(map[string]tool.Tool, len(d.tools))
	for name, t := range d.tools {
		out[name] = t
	}
	return out
}

// Dispatch runs the tool called name with the JSON arguments args. It
// never fails: unknown tools, bad arguments, tool errors and panics all
// come back as {"error": "..."}.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []byte) json.RawMessage {
	return d.dispatch(ctx, "", name, args)
}

func (d *Dispatcher) dispatch(ctx context.Context, callID, name string, args []byte) (out json.RawMessage) {
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewExecuteToolSpanName(name))
	defer span.End()

	outcome := metric.OutcomeOK
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("tool %s panicked: %v", name, r)
			out = errorPayload(fmt.Sprintf("tool %s panicked: %v", name, r))
			outcome = metric.OutcomeError
		}
		if outcome == metric.OutcomeError {
			span.SetStatus(codes.Error, string(out))
		}
		itelemetry.TraceToolCall(span, name, callID, args, out)
		metric.RecordToolCall(ctx, name, outcome)
	}()

	t, ok := d.tools[name]
	if !ok {
		outcome = metric.OutcomeError
		log.Warnf("model requested unknown tool %q", name)
		return errorPayload("Unknown tool: " + name)
	}
	if len(bytes.TrimSpace(args)) == 0 {
		args = []byte("{}")
	}
	result, err := t.Call(ctx, args)
	if err != nil {
		outcome = metric.OutcomeError
		log.Debugf("tool %s failed: %v", name, err)
		return errorPayload(err.Error())
	}
	encoded, err := encode(result)
	if err != nil {
		outcome = metric.OutcomeError
		return errorPayload(fmt.Sprintf("failed to encode %s result: %v", name, err))
	}
	return encoded
}

// DispatchAll runs one round of calls. Calls without an ID are skipped.
// Results follow call order whatever the parallelism.
func (d *Dispatcher) DispatchAll(ctx context.Context, calls []model.ToolCall) []Result {
	pending := make([]model.ToolCall, 0, len(calls))
	for _, c := range calls {
		if c.ID == "" {
			log.Debugf("skipping tool call %q without id", c.Function.Name)
			continue
		}
		pending = append(pending, c)
	}
	results := make([]Result, len(pending))
	run := func(i int) {
		c := pending[i]
		results[i] = Result{
			CallID: c.ID,
			Name:   c.Function.Name,
			Output: d.dispatch(ctx, c.ID, c.Function.Name, c.Function.Arguments),
		}
	}

	if d.parallelism < 2 || len(pending) < 2 {
		for i := range pending {
			run(i)
		}
		return results
	}

	pool, err := ants.NewPool(min(d.parallelism, len(pending)))
	if err != nil {
		log.Warnf("failed to create tool pool, dispatching sequentially: %v", err)
		for i := range pending {
			run(i)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range pending {
		wg.Add(1)
		idx := i
		if err := pool.Submit(func() {
			defer wg.Done()
			run(idx)
		}); err != nil {
			wg.Done()
			run(idx)
		}
	}
	wg.Wait()
	return results
}

func errorPayload(msg string) json.RawMessage {
	out, err := encode(map[string]string{"error": msg})
	if err != nil {
		return json.RawMessage(`{"error":"unencodable error"}`)
	}
	return out
}

// encode marshals v without escaping HTML characters, so URLs and page
// text reach the model as written.
func encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
