//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package config loads service settings from the environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary/constraint"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
)

// Search backends.
const (
	SearchHosted     = "hosted"
	SearchDuckDuckGo = "duckduckgo"
	SearchNone       = "none"
)

// Trace export protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// Settings holds every tunable of the service. Keys match the
// environment variable names, lowercased.
type Settings struct {
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`

	AllowedOrigins string `mapstructure:"allowed_origins"`
	ListenAddr     string `mapstructure:"listen_addr"`

	DefaultDays    int    `mapstructure:"default_days"`
	MaxLinksPerDay int    `mapstructure:"max_links_per_day"`
	MaxTotalLinks  int    `mapstructure:"max_total_links"`
	FreeOnlyLabels string `mapstructure:"free_only_labels"`

	MaxToolCalls    int           `mapstructure:"max_tool_calls"`
	MaxRounds       int           `mapstructure:"max_rounds"`
	ModelTimeout    time.Duration `mapstructure:"model_timeout"`
	EnableFetchTool bool          `mapstructure:"enable_fetch_tool"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout"`
	SearchBackend   string        `mapstructure:"search_backend"`
	ToolParallelism int           `mapstructure:"tool_parallelism"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	OTelEnabled  bool   `mapstructure:"otel_enabled"`
	OTelEndpoint string `mapstructure:"otel_endpoint"`
	OTelProtocol string `mapstructure:"otel_protocol"`
}

var defaults = map[string]any{
	"openai_api_key":    "",
	"openai_model":      "gpt-4o-mini",
	"openai_base_url":   "",
	"allowed_origins":   "*",
	"listen_addr":       ":8000",
	"default_days":      7,
	"max_links_per_day": 2,
	"max_total_links":   10,
	"free_only_labels":  "FREE_FULL,FREE_AUDIT",
	"max_tool_calls":    8,
	"max_rounds":        8,
	"model_timeout":     "120s",
	"enable_fetch_tool": true,
	"fetch_timeout":     "15s",
	"search_backend":    SearchHosted,
	"tool_parallelism":  1,
	"log_level":         log.LevelInfo,
	"log_format":        log.FormatConsole,
	"otel_enabled":      false,
	"otel_endpoint":     "",
	"otel_protocol":     ProtocolGRPC,
}

// Load reads .env from the working directory when present, then the
// config file at path when path is not empty, then the environment.
// Environment values win over the file, which wins over defaults.
func Load(path string) (Settings, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Settings{}, err
	}
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// loadDotEnv loads name into the process environment without
// overriding variables that are already set.
func loadDotEnv(name string) error {
	if _, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}

// Validate reports every out-of-range value.
func (s Settings) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	check(strings.TrimSpace(s.OpenAIModel) != "", "OPENAI_MODEL must not be empty")
	check(s.DefaultDays >= itinerary.MinDays && s.DefaultDays <= itinerary.MaxDays,
		"DEFAULT_DAYS must be between %d and %d, got %d", itinerary.MinDays, itinerary.MaxDays, s.DefaultDays)
	check(s.MaxLinksPerDay >= 0, "MAX_LINKS_PER_DAY must not be negative, got %d", s.MaxLinksPerDay)
	check(s.MaxTotalLinks >= 0, "MAX_TOTAL_LINKS must not be negative, got %d", s.MaxTotalLinks)
	check(s.MaxToolCalls >= 1, "MAX_TOOL_CALLS must be at least 1, got %d", s.MaxToolCalls)
	check(s.MaxRounds >= 0, "MAX_ROUNDS must not be negative, got %d", s.MaxRounds)
	check(s.ModelTimeout > 0, "MODEL_TIMEOUT must be positive, got %s", s.ModelTimeout)
	check(s.FetchTimeout > 0, "FETCH_TIMEOUT must be positive, got %s", s.FetchTimeout)
	check(s.ToolParallelism >= 1, "TOOL_PARALLELISM must be at least 1, got %d", s.ToolParallelism)
	switch s.SearchBackend {
	case SearchHosted, SearchDuckDuckGo, SearchNone:
	default:
		check(false, "SEARCH_BACKEND must be one of hosted, duckduckgo, none; got %q", s.SearchBackend)
	}
	switch s.LogLevel {
	case log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError, log.LevelFatal:
	default:
		check(false, "LOG_LEVEL %q is not a known level", s.LogLevel)
	}
	check(s.LogFormat == log.FormatConsole || s.LogFormat == log.FormatJSON,
		"LOG_FORMAT must be console or json, got %q", s.LogFormat)
	check(s.OTelProtocol == ProtocolGRPC || s.OTelProtocol == ProtocolHTTP,
		"OTEL_PROTOCOL must be grpc or http, got %q", s.OTelProtocol)
	if _, err := s.AllowedFree(); err != nil {
		errs = append(errs, fmt.Errorf("FREE_ONLY_LABELS: %w", err))
	}
	return errors.Join(errs...)
}

// RequireAPIKey fails when no OpenAI API key is configured.
func (s Settings) RequireAPIKey() error {
	if strings.TrimSpace(s.OpenAIAPIKey) == "" {
		return errors.New("OPENAI_API_KEY is not set")
	}
	return nil
}

// Origins returns the CORS origins. "*" allows every origin.
func (s Settings) Origins() []string {
	raw := strings.TrimSpace(s.AllowedOrigins)
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AllowedFree returns the labels kept under free-only.
func (s Settings) AllowedFree() ([]itinerary.FreeLabel, error) {
	return constraint.ParseLabels(s.FreeOnlyLabels)
}
