//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTracesEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "custom-trace:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	assert.Equal(t, "custom-trace:4317", tracesEndpoint("grpc"))

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	assert.Equal(t, "generic:4317", tracesEndpoint("grpc"))

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Equal(t, "localhost:4317", tracesEndpoint("grpc"))
	assert.Equal(t, "localhost:4318", tracesEndpoint("http"))
}

func TestStartAndClean(t *testing.T) {
	origProvider, origTracer := TracerProvider, Tracer
	defer func() { TracerProvider, Tracer = origProvider, origTracer }()

	for _, protocol := range []string{"grpc", "http"} {
		clean, err := Start(context.Background(), WithEndpoint("localhost:4317"), WithProtocol(protocol))
		require.NoError(t, err, protocol)
		require.NotNil(t, clean)
		_, ok := TracerProvider.(*sdktrace.TracerProvider)
		assert.True(t, ok)
		// No collector runs in tests; a shutdown error is acceptable.
		_ = clean()
	}
}

func TestStartUnsupportedProtocol(t *testing.T) {
	_, err := Start(context.Background(), WithProtocol("udp"))
	assert.ErrorContains(t, err, "unsupported trace protocol")
}
