//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package fetchpage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Intro to Go  </title>
  <style>body { color: red; }</style>
  <script>var subscribe = "hidden";</script>
</head>
<body>
  <h1>Learn   Go</h1>
  <p>Start your free trial
     today, or keep reading for free.</p>
  <noscript>Enable JavaScript to subscribe</noscript>
  <!-- paywall comment -->
  <p>Upgrade to premium for more.</p>
</body>
</html>`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_HTML(t *testing.T) {
	var gotUA string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	})

	ex, err := New().Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, http.StatusOK, ex.StatusCode)
	assert.Equal(t, srv.URL, ex.URL)
	assert.Equal(t, "text/html; charset=utf-8", ex.ContentType)
	require.NotNil(t, ex.Title)
	assert.Equal(t, "Intro to Go", *ex.Title)
	assert.Equal(t, "Intro to Go Learn Go Start your free trial today, or keep reading for free. Upgrade to premium for more.", ex.Excerpt)
	assert.NotContains(t, ex.Excerpt, "color")
	assert.NotContains(t, ex.Excerpt, "hidden")
	assert.Equal(t, []string{"start your free trial", "trial", "upgrade to", "premium"}, ex.PaywallSignals)
}

func TestFetch_Truncates(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>héllo wörld and more</p></body></html>"))
	})
	ex, err := New().Fetch(context.Background(), srv.URL, 7)
	require.NoError(t, err)
	assert.Equal(t, "héllo w", ex.Excerpt)
	assert.Nil(t, ex.Title)
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><title>Not found</title><body>subscribe</body></html>"))
	})
	ex, err := New().Fetch(context.Background(), srv.URL, 100)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, ex.StatusCode)
	assert.Nil(t, ex.Title)
	assert.Equal(t, "", ex.Excerpt)
	assert.NotNil(t, ex.PaywallSignals)
	assert.Empty(t, ex.PaywallSignals)
}

func TestFetch_NonHTML(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 subscribe"))
	})
	ex, err := New().Fetch(context.Background(), srv.URL, 100)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, ex.StatusCode)
	assert.Equal(t, "application/pdf", ex.ContentType)
	assert.Equal(t, "", ex.Excerpt)
	assert.Empty(t, ex.PaywallSignals)
}

func TestFetch_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>New</title></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex, err := New().Fetch(context.Background(), srv.URL+"/old", 100)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, ex.StatusCode)
	require.NotNil(t, ex.Title)
	assert.Equal(t, "New", *ex.Title)
}

func TestFetch_BodyLimit(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>abcdef" + strings.Repeat("z", 1000) + "</p></body></html>"))
	})
	ex, err := New(WithMaxBodyBytes(21)).Fetch(context.Background(), srv.URL, 100)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", ex.Excerpt)
}

func TestFetch_InvalidURL(t *testing.T) {
	f := New()
	for _, u := range []string{"not a url", "ftp://example.com/file", "http://", "://bad"} {
		_, err := f.Fetch(context.Background(), u, 10)
		assert.Error(t, err, u)
	}
}

func TestFetch_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := New(WithTimeout(time.Second)).Fetch(context.Background(), addr, 10)
	assert.Error(t, err)
}

func TestPaywallSignalsOrderAndCap(t *testing.T) {
	all := strings.Join(paywallHints, " ")
	signals := paywallSignals(strings.ToUpper(all))
	require.Len(t, signals, maxSignals)
	assert.Equal(t, paywallHints[:maxSignals], signals)

	assert.Equal(t, []string{"subscribe", "subscribe to read"}, paywallSignals("Subscribe to read this"))
}
