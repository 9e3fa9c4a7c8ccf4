//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the names, attributes and connection helpers
// shared by the trace and metric packages.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// telemetry service constants.
const (
	ServiceName      = "itinerary"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "trpc-itinerary-go"
	InstrumentName   = "trpc.itinerary.go"

	SpanNameCallLLM           = "call_llm"
	SpanNamePrefixExecuteTool = "execute_tool"
	SpanNameGenerate          = "generate_itinerary"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// telemetry attribute keys.
const (
	KeyRound       = "trpc.itinerary.round"
	KeyToolCallID  = "trpc.itinerary.tool_call_id"
	KeyToolArgs    = "trpc.itinerary.tool_call_args"
	KeyToolResult  = "trpc.itinerary.tool_response"
	KeyToolCalls   = "trpc.itinerary.tool_calls"
	KeyTranscript  = "trpc.itinerary.transcript_len"
	KeyConcept     = "trpc.itinerary.concept"
	KeyItemsBefore = "trpc.itinerary.items_before"
	KeyItemsAfter  = "trpc.itinerary.items_after"
)

// maxAttrLen bounds string attributes so large payloads stay out of spans.
const maxAttrLen = 2048

// NewExecuteToolSpanName returns the span name for a tool execution.
func NewExecuteToolSpanName(toolName string) string {
	return fmt.Sprintf("%s %s", SpanNamePrefixExecuteTool, toolName)
}

// NewChatSpanName returns the span name for a model submission.
func NewChatSpanName(model string) string {
	if model == "" {
		return SpanNameCallLLM
	}
	return fmt.Sprintf("%s %s", SpanNameCallLLM, model)
}

// TraceToolCall records one tool execution on span.
func TraceToolCall(span trace.Span, name, callID string, args, result []byte) {
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "execute_tool"),
		attribute.String("gen_ai.tool.name", name),
		attribute.String(KeyToolCallID, callID),
		attribute.String(KeyToolArgs, clip(string(args))),
		attribute.String(KeyToolResult, clip(string(result))),
	)
}

// TraceCallLLM records one model submission on span.
func TraceCallLLM(span trace.Span, model string, round, transcriptLen, toolCalls int) {
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "chat"),
		attribute.String("gen_ai.request.model", model),
		attribute.Int(KeyRound, round),
		attribute.Int(KeyTranscript, transcriptLen),
		attribute.Int(KeyToolCalls, toolCalls),
	)
}

func clip(s string) string {
	if len(s) <= maxAttrLen {
		return s
	}
	return s[:maxAttrLen] + "...(truncated)"
}

// NewResource describes the running service.
func NewResource(ctx context.Context, name, version, namespace string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNamespace(namespace),
			semconv.ServiceName(name),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
