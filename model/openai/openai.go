//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package openai implements model.Model on top of the OpenAI Responses API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	openai "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/model"
	"trpc.group/trpc-go/trpc-itinerary-go/tool"
)

const (
	functionToolType = "function"

	// defaultChannelBufferSize is the default channel buffer size.
	defaultChannelBufferSize = 1

	// Output item types replayed into the next submission.
	outputMessageType = "message"
	functionCallType  = "function_call"
	webSearchCallType = "web_search_call"
	reasoningType     = "reasoning"

	maxToolCallsField = "max_tool_calls"
)

// HTTPClient is the interface for the HTTP client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// RequestCallbackFunc observes each outgoing request.
type RequestCallbackFunc func(ctx context.Context, req *responses.ResponseNewParams)

// ResponseCallbackFunc observes each decoded provider answer, or the
// transport error when there is none.
type ResponseCallbackFunc func(ctx context.Context, req *responses.ResponseNewParams, rsp *responses.Response, err error)

type options struct {
	APIKey            string
	BaseURL           string
	HTTPClient        HTTPClient
	ChannelBufferSize int
	RequestCallback   RequestCallbackFunc
	ResponseCallback  ResponseCallbackFunc
	OpenAIOptions     []openaiopt.RequestOption
}

// Option configures a Model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.APIKey = key
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.BaseURL = url
	}
}

// WithHTTPClient replaces the HTTP client used for provider calls.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) {
		o.HTTPClient = c
	}
}

// WithChannelBufferSize sets the response channel buffer size.
func WithChannelBufferSize(size int) Option {
	return func(o *options) {
		if size <= 0 {
			size = defaultChannelBufferSize
		}
		o.ChannelBufferSize = size
	}
}

// WithRequestCallback sets a hook called before each submission.
func WithRequestCallback(fn RequestCallbackFunc) Option {
	return func(o *options) {
		o.RequestCallback = fn
	}
}

// WithResponseCallback sets a hook called after each submission.
func WithResponseCallback(fn ResponseCallbackFunc) Option {
	return func(o *options) {
		o.ResponseCallback = fn
	}
}

// WithOpenAIOptions appends raw SDK request options. They are applied
// after the built-in ones, so they can override them.
func WithOpenAIOptions(openaiOpts ...openaiopt.RequestOption) Option {
	return func(o *options) {
		o.OpenAIOptions = append(o.OpenAIOptions, openaiOpts...)
	}
}

// Model implements model.Model for the Responses API.
type Model struct {
	client            openai.Client
	name              string
	channelBufferSize int
	requestCallback   RequestCallbackFunc
	responseCallback  ResponseCallbackFunc
}

// New creates a Model. SDK-level retries are disabled: retrying is the
// caller's decision, made from Response.Error.Type.
func New(name string, opts ...Option) *Model {
	o := &options{ChannelBufferSize: defaultChannelBufferSize}
	for _, opt := range opts {
		opt(o)
	}
	clientOpts := []openaiopt.RequestOption{openaiopt.WithMaxRetries(0)}
	if o.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(o.APIKey))
	}
	if o.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(o.BaseURL))
	}
	if o.HTTPClient != nil {
		clientOpts = append(clientOpts, openaiopt.WithHTTPClient(o.HTTPClient))
	}
	clientOpts = append(clientOpts, o.OpenAIOptions...)

	return &Model{
		client:            openai.NewClient(clientOpts...),
		name:              name,
		channelBufferSize: o.ChannelBufferSize,
		requestCallback:   o.RequestCallback,
		responseCallback:  o.ResponseCallback,
	}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface. The channel
// yields exactly one response, carrying either the answer or a
// classified ResponseError.
func (m *Model) GenerateContent(ctx context.Context, request *model.Request) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	params, reqOpts, err := m.buildRequest(request)
	if err != nil {
		return nil, err
	}

	responseChan := make(chan *model.Response, m.channelBufferSize)
	go func() {
		defer close(responseChan)
		if m.requestCallback != nil {
			m.requestCallback(ctx, &params)
		}
		rsp := m.submit(ctx, &params, reqOpts)
		select {
		case responseChan <- rsp:
		case <-ctx.Done():
		}
	}()
	return responseChan, nil
}

func (m *Model) buildRequest(request *model.Request) (responses.ResponseNewParams, []openaiopt.RequestOption, error) {
	input, err := convertMessages(request.Messages)
	if err != nil {
		return responses.ResponseNewParams{}, nil, err
	}
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(m.name),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: input},
	}
	tools, err := convertTools(request.Tools)
	if err != nil {
		return responses.ResponseNewParams{}, nil, err
	}
	for _, hosted := range request.HostedTools {
		switch hosted {
		case model.HostedToolWebSearch:
			tools = append(tools, responses.ToolUnionParam{
				OfWebSearchPreview: &responses.WebSearchToolParam{
					Type: responses.WebSearchToolTypeWebSearchPreview,
				},
			})
		default:
			return responses.ResponseNewParams{}, nil, fmt.Errorf("unsupported hosted tool %q", hosted)
		}
	}
	params.Tools = tools

	if so := request.StructuredOutput; so != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   so.Name,
					Schema: so.Schema,
					Strict: openai.Bool(so.Strict),
				},
			},
		}
	}
	if request.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*request.MaxTokens))
	}
	if request.Temperature != nil {
		params.Temperature = openai.Float(*request.Temperature)
	}

	var reqOpts []openaiopt.RequestOption
	if request.MaxToolCalls > 0 {
		reqOpts = append(reqOpts, openaiopt.WithJSONSet(maxToolCallsField, request.MaxToolCalls))
	}
	return params, reqOpts, nil
}

func (m *Model) submit(ctx context.Context, params *responses.ResponseNewParams, reqOpts []openaiopt.RequestOption) *model.Response {
	out, err := m.client.Responses.New(ctx, *params, reqOpts...)
	if m.responseCallback != nil {
		m.responseCallback(ctx, params, out, err)
	}
	if err != nil {
		log.Debugf("responses call for %s failed: %v", m.name, err)
		return &model.Response{
			Object:    model.ObjectTypeError,
			Model:     m.name,
			Error:     classifyError(err),
			Timestamp: time.Now(),
			Done:      true,
		}
	}
	return convertResponse(out)
}

// convertMessages maps the transcript onto Responses input items.
// Assistant turns that carry provider output are replayed item by item;
// other assistant turns become a text message plus function_call items.
// Tool results become function_call_output items keyed by the call ID.
func convertMessages(messages []model.Message) (responses.ResponseInputParam, error) {
	items := make(responses.ResponseInputParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleTool:
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(msg.ToolID, msg.Content))
		case model.RoleAssistant:
			if len(msg.ProviderOutput) > 0 {
				replayed, err := replayOutput(msg.ProviderOutput)
				if err != nil {
					return nil, err
				}
				items = append(items, replayed...)
				continue
			}
			if msg.Content != "" {
				items = append(items, easyMessage(responses.EasyInputMessageRoleAssistant, msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				items = append(items, responses.ResponseInputItemUnionParam{
					OfFunctionCall: &responses.ResponseFunctionToolCallParam{
						CallID:    tc.ID,
						Name:      tc.Function.Name,
						Arguments: string(tc.Function.Arguments),
					},
				})
			}
		case model.RoleSystem:
			items = append(items, easyMessage(responses.EasyInputMessageRoleSystem, msg.Content))
		default:
			items = append(items, easyMessage(responses.EasyInputMessageRoleUser, msg.Content))
		}
	}
	return items, nil
}

func easyMessage(role responses.EasyInputMessageRole, content string) responses.ResponseInputItemUnionParam {
	return responses.ResponseInputItemUnionParam{
		OfMessage: &responses.EasyInputMessageParam{
			Role:    role,
			Content: responses.EasyInputMessageContentUnionParam{OfString: openai.String(content)},
		},
	}
}

// replayOutput turns raw output items back into input items. Function
// calls without a call ID are left out since they never get an output.
func replayOutput(raw []json.RawMessage) (responses.ResponseInputParam, error) {
	items := make(responses.ResponseInputParam, 0, len(raw))
	for _, r := range raw {
		var item responses.ResponseOutputItemUnion
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("failed to decode output item: %w", err)
		}
		switch item.Type {
		case outputMessageType:
			p := item.AsMessage().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfOutputMessage: &p})
		case functionCallType:
			call := item.AsFunctionCall()
			if call.CallID == "" {
				continue
			}
			p := call.ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfFunctionCall: &p})
		case webSearchCallType:
			p := item.AsWebSearchCall().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfWebSearchCall: &p})
		case reasoningType:
			p := item.AsReasoning().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfReasoning: &p})
		default:
			log.Debugf("not replaying output item of type %s", item.Type)
		}
	}
	return items, nil
}

func convertTools(tools map[string]tool.Tool) ([]responses.ToolUnionParam, error) {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]responses.ToolUnionParam, 0, len(tools))
	for _, name := range names {
		decl := tools[name].Declaration()
		params, err := decl.InputSchema.Map()
		if err != nil {
			return nil, fmt.Errorf("failed to convert schema of tool %s: %w", decl.Name, err)
		}
		fn := &responses.FunctionToolParam{
			Name:       decl.Name,
			Parameters: params,
			Strict:     openai.Bool(true),
		}
		if decl.Description != "" {
			fn.Description = openai.String(decl.Description)
		}
		result = append(result, responses.ToolUnionParam{OfFunction: fn})
	}
	return result, nil
}

func convertResponse(out *responses.Response) *model.Response {
	rsp := &model.Response{
		ID:        out.ID,
		Object:    model.ObjectTypeResponse,
		Created:   int64(out.CreatedAt),
		Model:     string(out.Model),
		Timestamp: time.Now(),
		Done:      true,
	}
	if out.Error.Message != "" || out.Error.Code != "" {
		rsp.Object = model.ObjectTypeError
		rsp.Error = &model.ResponseError{
			Message: out.Error.Message,
			Type:    model.ErrorTypeAPIError,
		}
		if out.Error.Code != "" {
			code := string(out.Error.Code)
			rsp.Error.Code = &code
		}
		return rsp
	}

	msg := model.Message{Role: model.RoleAssistant, Content: out.OutputText()}
	for _, item := range out.Output {
		msg.ProviderOutput = append(msg.ProviderOutput, json.RawMessage(item.RawJSON()))
		if item.Type != functionCallType {
			continue
		}
		call := item.AsFunctionCall()
		// A call without an ID is passed through as is; the caller
		// decides what to do with it.
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
			Type: functionToolType,
			ID:   call.CallID,
			Function: model.FunctionDefinitionParam{
				Name:      call.Name,
				Arguments: []byte(call.Arguments),
			},
		})
	}
	choice := model.Choice{Message: msg}
	if out.Status != "" {
		status := string(out.Status)
		choice.FinishReason = &status
	}
	rsp.Choices = []model.Choice{choice}
	if u := out.Usage; u.TotalTokens > 0 || u.InputTokens > 0 || u.OutputTokens > 0 {
		rsp.Usage = &model.Usage{
			PromptTokens:     int(u.InputTokens),
			CompletionTokens: int(u.OutputTokens),
			TotalTokens:      int(u.TotalTokens),
		}
	}
	return rsp
}

// classifyError turns a transport or API failure into a ResponseError
// whose Type tells rate limits, timeouts and connection failures apart
// from everything else.
func classifyError(err error) *model.ResponseError {
	rspErr := &model.ResponseError{Message: err.Error(), Type: model.ErrorTypeAPIError}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		rspErr.StatusCode = apiErr.StatusCode
		if apiErr.Message != "" {
			rspErr.Message = apiErr.Message
		}
		if apiErr.Code != "" {
			code := apiErr.Code
			rspErr.Code = &code
		}
		if apiErr.Param != "" {
			param := apiErr.Param
			rspErr.Param = &param
		}
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			rspErr.Type = model.ErrorTypeRateLimit
		case apiErr.StatusCode == http.StatusRequestTimeout:
			rspErr.Type = model.ErrorTypeTimeout
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			rspErr.Type = model.ErrorTypeAuthentication
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
			rspErr.Type = model.ErrorTypeInvalidRequest
		}
		return rspErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		rspErr.Type = model.ErrorTypeTimeout
		return rspErr
	}
	if errors.Is(err, context.Canceled) {
		return rspErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			rspErr.Type = model.ErrorTypeTimeout
		} else {
			rspErr.Type = model.ErrorTypeConnection
		}
	}
	return rspErr
}
