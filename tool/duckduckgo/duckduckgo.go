//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package duckduckgo provides a web search tool backed by the DuckDuckGo
// Instant Answer API. It serves OpenAI-compatible endpoints that have no
// hosted search of their own. Instant answers favour encyclopedic topics,
// so results for narrow tutorials can be sparse.
package duckduckgo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-itinerary-go/tool"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/duckduckgo/internal/client"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/function"
)

const (
	// ToolName is the default name the tool is declared under.
	ToolName = "web_search"
	// maxResults is the maximum number of search results to return.
	maxResults = 8
	// maxTitleLength is the maximum length for extracted titles, in characters.
	maxTitleLength = 80
	// defaultBaseURL is the default base URL for DuckDuckGo Instant Answer API.
	defaultBaseURL = "https://api.duckduckgo.com"
	// defaultUserAgent is the default user agent for HTTP requests.
	defaultUserAgent = "Mozilla/5.0 (compatible; LearningItineraryBot/1.0)"
	// defaultTimeout is the default timeout for HTTP requests.
	defaultTimeout = 15 * time.Second
)

// Option is a functional option for configuring the DuckDuckGo tool.
type Option func(*config)

type config struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// WithName overrides the declared tool name.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithBaseURL sets the base URL for the DuckDuckGo API.
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithUserAgent sets the user agent for HTTP requests.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}

// WithHTTPClient sets the HTTP client to use.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// searchRequest represents the input for the search tool.
type searchRequest struct {
	Query string `json:"query" jsonschema_description:"What to search for, e.g. 'free interactive Go tutorial'"`
}

// searchResponse represents the output from the search tool.
type searchResponse struct {
	Query   string       `json:"query"`
	Results []resultItem `json:"results"`
	Summary string       `json:"summary"`
}

// resultItem is one candidate source.
type resultItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type ddgTool struct {
	client *client.Client
}

// NewTool creates a new DuckDuckGo search tool with the provided options.
func NewTool(opts ...Option) tool.CallableTool {
	cfg := &config{
		name:      ToolName,
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	searchTool := &ddgTool{
		client: client.New(cfg.baseURL, cfg.userAgent, cfg.httpClient),
	}
	return function.NewFunctionTool(
		searchTool.search,
		function.WithName(cfg.name),
		function.WithDescription("Search the web for candidate learning resources "+
			"(official docs, tutorials, courses, repositories, videos). "+
			"Returns titles, URLs and short descriptions. "+
			"Use focused queries naming the concept and the kind of material wanted."),
	)
}

// search performs the actual search operation.
func (t *ddgTool) search(ctx context.Context, req searchRequest) (searchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return searchResponse{}, fmt.Errorf("empty search query")
	}

	response, err := t.client.Search(ctx, query)
	if err != nil {
		return searchResponse{}, fmt.Errorf("search failed: %w", err)
	}

	var (
		results      []resultItem
		summaryParts []string
		seen         = map[string]bool{}
	)
	add := func(item resultItem) {
		if len(results) >= maxResults || item.URL == "" || seen[item.URL] {
			return
		}
		seen[item.URL] = true
		results = append(results, item)
	}

	if response.Answer != "" {
		summaryParts = append(summaryParts, fmt.Sprintf("Answer: %s", response.Answer))
	}
	if response.AbstractText != "" {
		summaryParts = append(summaryParts, fmt.Sprintf("Abstract: %s", response.AbstractText))
		if response.AbstractSource != "" {
			summaryParts = append(summaryParts, fmt.Sprintf("Source: %s", response.AbstractSource))
		}
		add(resultItem{
			Title:       titleOr(response.Heading, response.AbstractSource),
			URL:         response.AbstractURL,
			Description: response.AbstractText,
		})
	}
	if response.Definition != "" {
		summaryParts = append(summaryParts, fmt.Sprintf("Definition: %s", response.Definition))
		if response.DefinitionSource != "" {
			summaryParts = append(summaryParts, fmt.Sprintf("Definition Source: %s", response.DefinitionSource))
		}
	}

	// Official results first, then related topics.
	for _, topic := range append(client.Flatten(response.Results), client.Flatten(response.RelatedTopics)...) {
		if topic.Text == "" {
			continue
		}
		add(resultItem{
			Title:       extractTitleFromTopic(topic.Text),
			URL:         topic.FirstURL,
			Description: topic.Text,
		})
	}

	if len(results) == 0 && len(summaryParts) > 0 {
		add(resultItem{
			Title:       fmt.Sprintf("DuckDuckGo search: %s", query),
			URL:         "https://duckduckgo.com/?q=" + url.QueryEscape(query),
			Description: strings.Join(summaryParts, " | "),
		})
	}
	if results == nil {
		results = []resultItem{}
	}

	summary := fmt.Sprintf("Found %d results for query '%s'", len(results), query)
	if len(summaryParts) > 0 {
		summary = strings.Join(summaryParts, " | ")
	}
	return searchResponse{
		Query:   query,
		Results: results,
		Summary: summary,
	}, nil
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

// extractTitleFromTopic extracts a title from a topic text.
func extractTitleFromTopic(text string) string {
	title, _, _ := strings.Cut(text, " - ")
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(text)
	}
	if r := []rune(title); len(r) > maxTitleLength {
		return string(r[:maxTitleLength-3]) + "..."
	}
	return title
}
