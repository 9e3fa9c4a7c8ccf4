//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-itinerary-go/config"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/model"
)

const plan = `{
  "concept": "Rust ownership",
  "level": "beginner",
  "days": 1,
  "project": "Write a borrow-checked linked list",
  "itinerary": [
    {
      "day": 1,
      "objective": "Learn move semantics",
      "items": [
        {"title": "The Book ch. 4", "url": "https://doc.rust-lang.org/book/ch04-00-understanding-ownership.html",
         "content_type": "docs", "minutes": 40, "why": "Canonical source",
         "free_label": "FREE_FULL", "free_evidence": "Open documentation"},
        {"title": "Paid course", "url": "https://example.com/course",
         "content_type": "course", "minutes": 60, "why": "Deep dive",
         "free_label": "PAID", "free_evidence": "Checkout page"},
        {"title": "Ownership video", "url": "https://example.com/video",
         "content_type": "video", "minutes": 20, "why": "Visual recap",
         "free_label": "FREE_AUDIT", "free_evidence": "Audit track"},
        {"title": "Blog post", "url": "https://example.com/blog",
         "content_type": "blog", "minutes": 15, "why": "Worked examples",
         "free_label": "FREE_FULL", "free_evidence": "Public blog"}
      ]
    }
  ]
}`

type fakeModel struct {
	mu       sync.Mutex
	requests []*model.Request
}

func (m *fakeModel) GenerateContent(_ context.Context, req *model.Request) (<-chan *model.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	ch := make(chan *model.Response, 1)
	ch <- &model.Response{
		Object:  model.ObjectTypeResponse,
		Choices: []model.Choice{{Message: model.NewAssistantMessage(plan)}},
		Done:    true,
	}
	close(ch)
	return ch, nil
}

func (m *fakeModel) Info() model.Info {
	return model.Info{Name: "fake"}
}

func settings() config.Settings {
	return config.Settings{
		OpenAIModel:     "gpt-4o-mini",
		AllowedOrigins:  "*",
		ListenAddr:      ":8000",
		DefaultDays:     7,
		MaxLinksPerDay:  2,
		MaxTotalLinks:   10,
		FreeOnlyLabels:  "FREE_FULL,FREE_AUDIT",
		MaxToolCalls:    8,
		MaxRounds:       8,
		ModelTimeout:    time.Minute,
		EnableFetchTool: true,
		FetchTimeout:    time.Second,
		SearchBackend:   config.SearchHosted,
		ToolParallelism: 1,
		OTelProtocol:    config.ProtocolGRPC,
	}
}

func TestNew_ToolSelection(t *testing.T) {
	tests := []struct {
		name       string
		backend    string
		fetch      bool
		wantTools  []string
		wantHosted bool
	}{
		{name: "hosted", backend: config.SearchHosted, fetch: true, wantTools: []string{"fetch_page"}, wantHosted: true},
		{name: "duckduckgo", backend: config.SearchDuckDuckGo, fetch: true, wantTools: []string{"fetch_page", "web_search"}},
		{name: "none", backend: config.SearchNone, fetch: true, wantTools: []string{"fetch_page"}},
		{name: "nothing", backend: config.SearchNone, fetch: false, wantTools: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings()
			s.SearchBackend = tt.backend
			s.EnableFetchTool = tt.fetch
			m := &fakeModel{}

			a, err := New(s, WithModel(m))
			require.NoError(t, err)
			names := a.Dispatcher.Names()
			if len(tt.wantTools) == 0 {
				assert.Empty(t, names)
			} else {
				assert.Equal(t, tt.wantTools, names)
			}

			_, err = a.Runner.Run(context.Background(), itinerary.Request{
				Concept: "Rust ownership", Level: itinerary.LevelBeginner, Days: 1,
				HoursPerDay: 1, PreferFormat: itinerary.FormatMix,
			})
			require.NoError(t, err)
			require.Len(t, m.requests, 1)
			hosted := m.requests[0].HostedTools
			if tt.wantHosted {
				assert.Equal(t, []model.HostedTool{model.HostedToolWebSearch}, hosted)
			} else {
				assert.Empty(t, hosted)
			}
			assert.Equal(t, 8, m.requests[0].MaxToolCalls)
		})
	}
}

func TestNew_RunEnforcesSettings(t *testing.T) {
	s := settings()
	s.MaxLinksPerDay = 1
	a, err := New(s, WithModel(&fakeModel{}))
	require.NoError(t, err)

	got, err := a.Runner.Run(context.Background(), itinerary.Request{
		Concept: "Rust ownership", Level: itinerary.LevelBeginner, Days: 1,
		HoursPerDay: 1, PreferFormat: itinerary.FormatMix, FreeOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, got.Itinerary, 1)
	require.Len(t, got.Itinerary[0].Items, 1)
	assert.Equal(t, "The Book ch. 4", got.Itinerary[0].Items[0].Title)
}

func TestNew_CustomFreeLabels(t *testing.T) {
	s := settings()
	s.FreeOnlyLabels = "FREE_AUDIT"
	a, err := New(s, WithModel(&fakeModel{}))
	require.NoError(t, err)

	got, err := a.Runner.Run(context.Background(), itinerary.Request{
		Concept: "Rust ownership", Level: itinerary.LevelBeginner, Days: 1,
		HoursPerDay: 1, PreferFormat: itinerary.FormatMix, FreeOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, got.Itinerary[0].Items, 1)
	assert.Equal(t, itinerary.FreeAudit, got.Itinerary[0].Items[0].FreeLabel)
}

func TestNew_Errors(t *testing.T) {
	s := settings()
	_, err := New(s)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	s.FreeOnlyLabels = "GRATIS"
	_, err = New(s, WithModel(&fakeModel{}))
	assert.ErrorContains(t, err, "GRATIS")
}

func TestNew_OpenAIModel(t *testing.T) {
	s := settings()
	s.OpenAIAPIKey = "sk-test"
	a, err := New(s)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", a.Model.Info().Name)
}

func TestStartTelemetry_MetricsOnly(t *testing.T) {
	clean, err := StartTelemetry(context.Background(), settings())
	require.NoError(t, err)
	require.NotNil(t, clean)
	assert.NoError(t, clean())
}
