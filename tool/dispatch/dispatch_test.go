//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-itinerary-go/model"
	"trpc.group/trpc-go/trpc-itinerary-go/tool"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/dispatch"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/fetchpage"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/function"
)

type echoInput struct {
	Text string `json:"text"`
}

type echoOutput struct {
	Echo string `json:"echo"`
}

func echoTool() tool.CallableTool {
	return function.NewFunctionTool(
		func(_ context.Context, in echoInput) (echoOutput, error) {
			return echoOutput{Echo: in.Text}, nil
		},
		function.WithName("echo"),
	)
}

func failingTool() tool.CallableTool {
	return function.NewFunctionTool(
		func(_ context.Context, _ echoInput) (echoOutput, error) {
			return echoOutput{}, errors.New("upstream unavailable")
		},
		function.WithName("fail"),
	)
}

func panickingTool() tool.CallableTool {
	return function.NewFunctionTool(
		func(_ context.Context, _ echoInput) (echoOutput, error) {
			panic("kaboom")
		},
		function.WithName("panic"),
	)
}

func decodeError(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload["error"]
}

func TestDispatch_UnknownTool(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{echoTool()})
	out := d.Dispatch(context.Background(), "unknown_tool", []byte(`{}`))
	assert.JSONEq(t, `{"error":"Unknown tool: unknown_tool"}`, string(out))
}

func TestDispatch_Success(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{echoTool()})
	out := d.Dispatch(context.Background(), "echo", []byte(`{"text":"<a&b>"}`))
	assert.Equal(t, `{"echo":"<a&b>"}`, string(out))
}

func TestDispatch_EmptyArguments(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{echoTool()})
	out := d.Dispatch(context.Background(), "echo", nil)
	assert.JSONEq(t, `{"echo":""}`, string(out))
}

func TestDispatch_ToolErrorIsContained(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{failingTool()})
	out := d.Dispatch(context.Background(), "fail", []byte(`{}`))
	assert.Equal(t, "upstream unavailable", decodeError(t, out))
}

func TestDispatch_BadArgumentsAreContained(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{echoTool()})
	out := d.Dispatch(context.Background(), "echo", []byte(`not json`))
	assert.Contains(t, decodeError(t, out), "invalid arguments for echo")
}

func TestDispatch_PanicIsContained(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{panickingTool()})
	out := d.Dispatch(context.Background(), "panic", []byte(`{}`))
	assert.Contains(t, decodeError(t, out), "kaboom")
}

func TestDispatch_FetchPage404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := dispatch.New([]tool.CallableTool{fetchpage.NewTool(fetchpage.New())})
	out := d.Dispatch(context.Background(), fetchpage.ToolName, []byte(`{"url":"`+srv.URL+`/missing"}`))

	var excerpt map[string]any
	require.NoError(t, json.Unmarshal(out, &excerpt))
	assert.EqualValues(t, 404, excerpt["status_code"])
	assert.Nil(t, excerpt["title"])
	assert.Equal(t, "", excerpt["excerpt"])
	assert.Equal(t, []any{}, excerpt["paywall_signals"])
}

func TestDispatch_FetchPageMalformedURL(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{fetchpage.NewTool(fetchpage.New())})
	out := d.Dispatch(context.Background(), fetchpage.ToolName, []byte(`{"url":"not a url"}`))
	assert.NotEmpty(t, decodeError(t, out))
}

func TestDispatcher_NamesAndTools(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{failingTool(), echoTool()})
	assert.Equal(t, []string{"echo", "fail"}, d.Names())
	tools := d.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "echo", tools["echo"].Declaration().Name)
}

func calls(ids ...string) []model.ToolCall {
	out := make([]model.ToolCall, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.ToolCall{
			Type: "function",
			ID:   id,
			Function: model.FunctionDefinitionParam{
				Name:      "echo",
				Arguments: []byte(`{"text":"` + id + `"}`),
			},
		})
	}
	return out
}

func TestDispatchAll_SkipsCallsWithoutID(t *testing.T) {
	d := dispatch.New([]tool.CallableTool{echoTool()})
	results := d.DispatchAll(context.Background(), calls("c1", "", "c3"))
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].CallID)
	assert.Equal(t, "c3", results[1].CallID)
	assert.JSONEq(t, `{"echo":"c3"}`, string(results[1].Output))
}

func TestDispatchAll_ParallelKeepsOrder(t *testing.T) {
	var inFlight, peak int32
	slow := function.NewFunctionTool(
		func(_ context.Context, in echoInput) (echoOutput, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return echoOutput{Echo: in.Text}, nil
		},
		function.WithName("echo"),
	)
	d := dispatch.New([]tool.CallableTool{slow}, dispatch.WithParallelism(4))

	ids := []string{"a", "b", "c", "d", "e", "f"}
	results := d.DispatchAll(context.Background(), calls(ids...))
	require.Len(t, results, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, results[i].CallID)
		assert.Equal(t, "echo", results[i].Name)
		assert.JSONEq(t, `{"echo":"`+id+`"}`, string(results[i].Output))
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestDispatchAll_Empty(t *testing.T) {
	d := dispatch.New(nil, dispatch.WithParallelism(3))
	assert.Empty(t, d.DispatchAll(context.Background(), nil))
}
