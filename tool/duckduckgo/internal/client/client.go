//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package client provides an HTTP client for DuckDuckGo Instant Answer API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxBodyBytes bounds the size of an API response.
const maxBodyBytes = 2 << 20

// Client provides methods to interact with DuckDuckGo Instant Answer API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// New creates a new DuckDuckGo client with the provided configuration.
func New(baseURL, userAgent string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// FlexibleString is a type that can unmarshal both strings and numbers.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler for FlexibleString.
func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexibleString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*fs = FlexibleString(n.String())
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*fs = FlexibleString(fmt.Sprintf("%v", v))
	return nil
}

// String returns the string representation.
func (fs FlexibleString) String() string {
	return string(fs)
}

// Response represents the response from DuckDuckGo Instant Answer API.
type Response struct {
	Heading          string         `json:"Heading"`
	Abstract         string         `json:"Abstract"`
	AbstractText     string         `json:"AbstractText"`
	AbstractSource   string         `json:"AbstractSource"`
	AbstractURL      string         `json:"AbstractURL"`
	Answer           string         `json:"Answer"`
	Definition       string         `json:"Definition"`
	DefinitionSource string         `json:"DefinitionSource"`
	DefinitionURL    string         `json:"DefinitionURL"`
	Image            string         `json:"Image"`
	ImageWidth       FlexibleString `json:"ImageWidth"`
	ImageHeight      FlexibleString `json:"ImageHeight"`
	RelatedTopics    []RelatedTopic `json:"RelatedTopics"`
	Results          []RelatedTopic `json:"Results"`
}

// RelatedTopic is either a single topic or, when Name is set, a named
// group of topics.
type RelatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Icon     Icon           `json:"Icon"`
	Name     string         `json:"Name"`
	Topics   []RelatedTopic `json:"Topics"`
}

// Icon represents an icon from DuckDuckGo.
type Icon struct {
	URL    string         `json:"URL"`
	Height FlexibleString `json:"Height"`
	Width  FlexibleString `json:"Width"`
}

// Flatten returns topics with groups expanded in place.
func Flatten(topics []RelatedTopic) []RelatedTopic {
	var out []RelatedTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			out = append(out, Flatten(t.Topics)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

// Search performs a search query using DuckDuckGo Instant Answer API.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	reqURL := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}
