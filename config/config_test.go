//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
)

// isolate runs the test from an empty directory with every known key
// cleared from the environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for key := range defaults {
		name := strings.ToUpper(key)
		if old, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { _ = os.Setenv(name, old) })
		}
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", s.OpenAIModel)
	assert.Equal(t, 7, s.DefaultDays)
	assert.Equal(t, 2, s.MaxLinksPerDay)
	assert.Equal(t, 10, s.MaxTotalLinks)
	assert.Equal(t, 8, s.MaxToolCalls)
	assert.Equal(t, 8, s.MaxRounds)
	assert.Equal(t, 120*time.Second, s.ModelTimeout)
	assert.Equal(t, 15*time.Second, s.FetchTimeout)
	assert.True(t, s.EnableFetchTool)
	assert.Equal(t, SearchHosted, s.SearchBackend)
	assert.Equal(t, ":8000", s.ListenAddr)
	assert.Equal(t, []string{"*"}, s.Origins())
	labels, err := s.AllowedFree()
	require.NoError(t, err)
	assert.Equal(t, []itinerary.FreeLabel{itinerary.FreeFull, itinerary.FreeAudit}, labels)
	assert.Error(t, s.RequireAPIKey())
}

func TestLoad_Environment(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DEFAULT_DAYS", "3")
	t.Setenv("ENABLE_FETCH_TOOL", "false")
	t.Setenv("MODEL_TIMEOUT", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.dev, https://b.dev")
	t.Setenv("FREE_ONLY_LABELS", "FREE_FULL,FREEMIUM")
	t.Setenv("SEARCH_BACKEND", "duckduckgo")

	s, err := Load("")
	require.NoError(t, err)
	assert.NoError(t, s.RequireAPIKey())
	assert.Equal(t, 3, s.DefaultDays)
	assert.False(t, s.EnableFetchTool)
	assert.Equal(t, 30*time.Second, s.ModelTimeout)
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, s.Origins())
	labels, err := s.AllowedFree()
	require.NoError(t, err)
	assert.Equal(t, []itinerary.FreeLabel{itinerary.FreeFull, itinerary.Freemium}, labels)
	assert.Equal(t, SearchDuckDuckGo, s.SearchBackend)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("OPENAI_MODEL=gpt-from-dotenv\nMAX_ROUNDS=4\n"), 0o600))
	t.Setenv("MAX_ROUNDS", "2")
	t.Cleanup(func() { _ = os.Unsetenv("OPENAI_MODEL") })

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-from-dotenv", s.OpenAIModel)
	assert.Equal(t, 2, s.MaxRounds)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "itinerary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_total_links: 4\nlog_format: json\n"), 0o600))
	t.Setenv("MAX_LINKS_PER_DAY", "1")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.MaxTotalLinks)
	assert.Equal(t, 1, s.MaxLinksPerDay)
	assert.Equal(t, "json", s.LogFormat)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("DEFAULT_DAYS", "30")
	t.Setenv("SEARCH_BACKEND", "bing")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_DAYS")
	assert.Contains(t, err.Error(), "SEARCH_BACKEND")
}

func TestLoad_ZeroMaxToolCalls(t *testing.T) {
	isolate(t)
	t.Setenv("MAX_TOOL_CALLS", "0")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_TOOL_CALLS must be at least 1, got 0")
}

func TestValidate(t *testing.T) {
	valid := Settings{
		OpenAIModel:     "gpt-4o-mini",
		DefaultDays:     7,
		MaxLinksPerDay:  2,
		MaxTotalLinks:   10,
		FreeOnlyLabels:  "FREE_FULL",
		MaxToolCalls:    8,
		MaxRounds:       8,
		ModelTimeout:    time.Minute,
		FetchTimeout:    time.Second,
		SearchBackend:   SearchNone,
		ToolParallelism: 1,
		LogLevel:        "debug",
		LogFormat:       "console",
		OTelProtocol:    ProtocolHTTP,
	}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Settings){
		"days":        func(s *Settings) { s.DefaultDays = 0 },
		"per day":     func(s *Settings) { s.MaxLinksPerDay = -1 },
		"labels":      func(s *Settings) { s.FreeOnlyLabels = "GRATIS" },
		"timeout":     func(s *Settings) { s.ModelTimeout = 0 },
		"parallelism": func(s *Settings) { s.ToolParallelism = 0 },
		"tool calls":  func(s *Settings) { s.MaxToolCalls = 0 },
		"log level":   func(s *Settings) { s.LogLevel = "verbose" },
		"log format":  func(s *Settings) { s.LogFormat = "xml" },
		"protocol":    func(s *Settings) { s.OTelProtocol = "udp" },
		"model":       func(s *Settings) { s.OpenAIModel = " " },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
