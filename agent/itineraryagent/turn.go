//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package itineraryagent

import (
	"fmt"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/model"
)

// Turn is one decoded model answer: a *ToolCallRequest or a *FinalResult.
type Turn interface {
	isTurn()
}

// ToolCallRequest asks for tools to run before the model continues.
type ToolCallRequest struct {
	// Message is the assistant message to append to the transcript.
	Message model.Message
	// Calls are the calls to dispatch, in the order the model issued them.
	Calls []model.ToolCall
	// Raw is any text the model produced alongside the calls.
	Raw string
}

// FinalResult is a schema-valid itinerary.
type FinalResult struct {
	Itinerary *itinerary.Itinerary
	Raw       string
}

func (*ToolCallRequest) isTurn() {}
func (*FinalResult) isTurn()     {}

// decodeTurn classifies rsp. Calls without an ID are dropped from both
// the dispatch list and the transcript message; the provider replay skips
// them too. An invalid final answer carries the clipped raw text, like
// exhaustion does.
func decodeTurn(rsp *model.Response) (Turn, error) {
	msg := rsp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		calls := make([]model.ToolCall, 0, len(msg.ToolCalls))
		for _, c := range msg.ToolCalls {
			if c.ID != "" {
				calls = append(calls, c)
			}
		}
		out := model.Message{
			Role:           model.RoleAssistant,
			Content:        msg.Content,
			ToolCalls:      calls,
			ProviderOutput: msg.ProviderOutput,
		}
		return &ToolCallRequest{Message: out, Calls: calls, Raw: msg.Content}, nil
	}
	plan, err := itinerary.Parse([]byte(msg.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w; raw output: %q",
			ErrInvalidOutput, err, clipRunes(msg.Content, rawExcerptLimit))
	}
	return &FinalResult{Itinerary: plan, Raw: msg.Content}, nil
}
