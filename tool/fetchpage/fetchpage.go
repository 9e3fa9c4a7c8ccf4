//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package fetchpage fetches a web page and reduces it to a short plain
// text excerpt plus the paywall hints found in it. The agent uses it to
// confirm that a resource is free before recommending it.
package fetchpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultMaxChars is the excerpt length used when none is requested.
	DefaultMaxChars = 4000
	// DefaultUserAgent identifies the fetcher to remote sites.
	DefaultUserAgent = "Mozilla/5.0 (compatible; LearningItineraryBot/1.0)"
	// DefaultTimeout bounds one fetch including redirects.
	DefaultTimeout = 15 * time.Second
	// DefaultMaxBodyBytes bounds how much of a body is read.
	DefaultMaxBodyBytes int64 = 5 << 20
	// maxSignals caps the reported paywall hints.
	maxSignals = 10
)

// paywallHints are matched against the lowercased page text in this order.
var paywallHints = []string{
	"subscribe", "subscription", "sign in to continue", "members-only", "paywall",
	"start your free trial", "trial", "upgrade to", "billing", "purchase",
	"join to read", "premium", "subscribe to read",
}

// Excerpt is the result of one fetch.
type Excerpt struct {
	URL            string   `json:"url"`
	StatusCode     int      `json:"status_code"`
	ContentType    string   `json:"content_type"`
	Title          *string  `json:"title"`
	Excerpt        string   `json:"excerpt"`
	PaywallSignals []string `json:"paywall_signals"`
}

// Option configures a Fetcher.
type Option func(*options)

type options struct {
	httpClient   *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
}

// WithHTTPClient sets the HTTP client used for fetches. Its own timeout
// is left untouched.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithMaxBodyBytes sets how many body bytes are read at most.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

// Fetcher retrieves pages. It is safe for concurrent use.
type Fetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	o := &options{
		timeout:      DefaultTimeout,
		userAgent:    DefaultUserAgent,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(o)
	}
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: o.timeout}
	}
	return &Fetcher{
		client:       client,
		userAgent:    o.userAgent,
		maxBodyBytes: o.maxBodyBytes,
	}
}

// Fetch retrieves rawURL and returns an excerpt of at most maxChars
// characters. HTTP error statuses and non-HTML bodies are not errors;
// they yield an empty excerpt. Transport failures are returned.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxChars int) (*Excerpt, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: must be an absolute http(s) URL", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	out := &Excerpt{
		URL:            rawURL,
		StatusCode:     resp.StatusCode,
		ContentType:    contentType,
		PaywallSignals: []string{},
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return out, nil
	}
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return out, nil
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.maxBodyBytes), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", rawURL, err)
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		out.Title = &title
	}
	text := visibleText(doc)
	out.PaywallSignals = paywallSignals(text)
	out.Excerpt = truncate(text, maxChars)
	return out, nil
}

// visibleText returns the document text without scripts and styles,
// with all whitespace runs collapsed to single spaces.
func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript").Remove()
	var parts []string
	for _, n := range doc.Nodes {
		collectText(n, &parts)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func paywallSignals(text string) []string {
	lower := strings.ToLower(text)
	signals := make([]string, 0, maxSignals)
	for _, hint := range paywallHints {
		if len(signals) == maxSignals {
			break
		}
		if strings.Contains(lower, hint) {
			signals = append(signals, hint)
		}
	}
	return signals
}

func truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	i := 0
	for pos := range s {
		if i == maxChars {
			return s[:pos]
		}
		i++
	}
	return s
}
