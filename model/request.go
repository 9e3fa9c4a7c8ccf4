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
	"encoding/json"

	"trpc.group/trpc-go/trpc-itinerary-go/tool"
)

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// Message represents a single message in a conversation.
type Message struct {
	Role      Role       `json:"role"`                 // The role of the message author
	Content   string     `json:"content"`              // The message content
	ToolID    string     `json:"tool_id,omitempty"`    // Call ID a tool result answers
	ToolName  string     `json:"tool_name,omitempty"`  // Name of the tool that produced a tool result
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // Tool calls requested by the assistant

	// ProviderOutput holds the provider's raw output items for an
	// assistant turn. Providers that understand them replay them as is
	// when the message is sent back.
	ProviderOutput []json.RawMessage `json:"provider_output,omitempty"`
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{
		Role:    RoleSystem,
		Content: content,
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{
		Role:    RoleAssistant,
		Content: content,
	}
}

// NewToolMessage creates the result message for the tool call with the given ID.
func NewToolMessage(toolID, toolName, content string) Message {
	return Message{
		Role:     RoleTool,
		Content:  content,
		ToolID:   toolID,
		ToolName: toolName,
	}
}

// HostedTool names a capability executed by the provider itself. Hosted
// tools never reach the local dispatcher.
type HostedTool string

// Hosted tool constants.
const (
	HostedToolWebSearch HostedTool = "web_search"
)

// StructuredOutput asks the provider to constrain the final answer to a
// JSON Schema.
type StructuredOutput struct {
	// Name identifies the schema to the provider.
	Name string `json:"name"`
	// Schema is the decoded JSON Schema document.
	Schema map[string]any `json:"schema"`
	// Strict requests exact schema adherence.
	Strict bool `json:"strict"`
}

// GenerationConfig contains configuration for text generation.
type GenerationConfig struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxToolCalls caps the number of tool calls the provider may issue
	// while answering one submission. Zero means no cap is sent.
	MaxToolCalls int `json:"max_tool_calls,omitempty"`
}

// Request is the request to the model.
type Request struct {
	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// GenerationConfig contains the generation parameters.
	GenerationConfig `json:",inline"`

	// StructuredOutput, when set, constrains the final answer.
	StructuredOutput *StructuredOutput `json:"structured_output,omitempty"`

	// HostedTools lists provider-executed capabilities.
	HostedTools []HostedTool `json:"hosted_tools,omitempty"`

	Tools map[string]tool.Tool `json:"-"` // Tools are not serialized, handled separately
}

// ToolCall represents a call to a tool (function) in the model response.
type ToolCall struct {
	// Type of the tool. Currently, only `function` is supported.
	Type string `json:"type"`
	// Function carries the called tool name and its JSON arguments.
	Function FunctionDefinitionParam `json:"function,omitempty"`
	// The ID of the tool call returned by the model.
	ID string `json:"id,omitempty"`
}

// FunctionDefinitionParam is the function part of a tool call.
type FunctionDefinitionParam struct {
	// The name of the function to be called.
	Name string `json:"name"`

	// Optional arguments to pass to the function, json-encoded.
	Arguments []byte `json:"arguments,omitempty"`
}
