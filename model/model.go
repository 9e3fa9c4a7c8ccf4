//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package model provides the provider-agnostic boundary between the
// itinerary agent and a language model.
package model

import "context"

// Model is the interface for all language models.
//
// Errors are reported on two layers:
//
//  1. Function-level errors (returned as `error`) mean the request never
//     reached the provider, e.g. a nil request or an unconvertible tool.
//  2. Response-level errors (Response.Error) mean the provider answered
//     with a failure: rate limits, timeouts, connection resets, bad
//     requests. Response.Error.Type tells the caller whether the
//     failure is worth retrying.
//
// Usage pattern:
//
//	responseChan, err := m.GenerateContent(ctx, request)
//	if err != nil {
//	    return fmt.Errorf("failed to generate content: %w", err)
//	}
//	for response := range responseChan {
//	    if response.Error != nil {
//	        return response.Error
//	    }
//	    // Process the turn...
//	}
type Model interface {
	// GenerateContent submits one turn of the conversation. The returned
	// channel yields the provider's answer and is then closed.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a Model.
type Info struct {
	Name string
}
