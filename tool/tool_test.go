//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Map(t *testing.T) {
	s := &Schema{
		Type:     "object",
		Required: []string{"url", "max_chars"},
		Properties: map[string]*Schema{
			"url":       {Type: "string"},
			"max_chars": {Type: "integer"},
		},
		AdditionalProperties: false,
	}
	m, err := s.Map()
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
	assert.Equal(t, false, m["additionalProperties"])
	assert.Equal(t, []any{"url", "max_chars"}, m["required"])
	props, ok := m["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "url")
}

func TestSchema_MapNil(t *testing.T) {
	var s *Schema
	m, err := s.Map()
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
}
