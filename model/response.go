//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"fmt"
	"slices"
	"time"
)

// Error type constants for ResponseError.Type field.
const (
	ErrorTypeAPIError       = "api_error"
	ErrorTypeRateLimit      = "rate_limit_error"
	ErrorTypeTimeout        = "timeout_error"
	ErrorTypeConnection     = "connection_error"
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAuthentication = "authentication_error"
)

// Object type constants for Response.Object field.
const (
	ObjectTypeError    = "error"
	ObjectTypeResponse = "response"
)

// Choice represents a single completion choice.
type Choice struct {
	// Index is the index of the choice.
	Index int `json:"index"`

	// Message is the message content.
	Message Message `json:"message,omitempty"`

	// FinishReason is the reason the choice was finished.
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Usage represents token usage information.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens in the response.
	TotalTokens int `json:"total_tokens"`
}

// Response is one answer from the model.
//
// The Error field carries provider-level failures that happened after
// the request was handed to the provider. Function-level errors returned
// by GenerateContent mean nothing was sent.
type Response struct {
	// ID is the unique identifier for this response.
	ID string `json:"id"`

	// Object describes the type of object returned.
	Object string `json:"object"`

	// Created is the Unix timestamp when the response was created.
	Created int64 `json:"created"`

	// Model is the model used to generate the response.
	Model string `json:"model"`

	// Choices contains the completion choices.
	Choices []Choice `json:"choices"`

	// Usage contains token usage information.
	Usage *Usage `json:"usage,omitempty"`

	// Error contains API-level error information if the request failed.
	// This is nil for successful responses.
	Error *ResponseError `json:"error,omitempty"`

	// Timestamp when this response was received.
	Timestamp time.Time `json:"timestamp"`

	// Done indicates the provider finished this turn.
	Done bool `json:"done"`
}

// Clone creates a deep copy of the response.
func (rsp *Response) Clone() *Response {
	if rsp == nil {
		return nil
	}
	clone := *rsp
	clone.Choices = make([]Choice, len(rsp.Choices))
	for i, c := range rsp.Choices {
		clone.Choices[i] = c
		if len(c.Message.ToolCalls) > 0 {
			calls := make([]ToolCall, len(c.Message.ToolCalls))
			copy(calls, c.Message.ToolCalls)
			clone.Choices[i].Message.ToolCalls = calls
		}
		if len(c.Message.ProviderOutput) > 0 {
			clone.Choices[i].Message.ProviderOutput = slices.Clone(c.Message.ProviderOutput)
		}
	}
	if rsp.Usage != nil {
		u := *rsp.Usage
		clone.Usage = &u
	}
	if rsp.Error != nil {
		e := *rsp.Error
		clone.Error = &e
	}
	return &clone
}

// IsToolCallResponse checks if the response is related to tool calls.
func (rsp *Response) IsToolCallResponse() bool {
	return rsp != nil && len(rsp.Choices) > 0 && len(rsp.Choices[0].Message.ToolCalls) > 0
}

// Text returns the content of the first choice, or "" when there is none.
func (rsp *Response) Text() string {
	if rsp == nil || len(rsp.Choices) == 0 {
		return ""
	}
	return rsp.Choices[0].Message.Content
}

// ResponseError represents an error response from the API.
type ResponseError struct {
	// Message is the error message.
	Message string `json:"message"`

	// Type is the type of error.
	Type string `json:"type"`

	// Param is the parameter that caused the error.
	Param *string `json:"param,omitempty"`

	// Code is the error code.
	Code *string `json:"code,omitempty"`

	// StatusCode is the HTTP status returned by the provider, if any.
	StatusCode int `json:"status_code,omitempty"`
}

// Error implements error.
func (e *ResponseError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("model %s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("model %s: %s", e.Type, e.Message)
}

// Transient reports whether the failure is a rate limit, timeout or
// connection failure.
func (e *ResponseError) Transient() bool {
	if e == nil {
		return false
	}
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}
