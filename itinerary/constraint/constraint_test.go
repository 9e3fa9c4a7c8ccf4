//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package constraint

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
)

func item(url string, label itinerary.FreeLabel) itinerary.Item {
	return itinerary.Item{
		Title:        "Resource " + url,
		URL:          url,
		ContentType:  itinerary.ContentDocs,
		Minutes:      30,
		Why:          "Covers the day's objective",
		FreeLabel:    label,
		FreeEvidence: "Public page",
	}
}

func plan(days ...[]itinerary.Item) *itinerary.Itinerary {
	it := &itinerary.Itinerary{
		Concept: "Go generics",
		Level:   itinerary.LevelBeginner,
		Days:    len(days),
		Project: "Build a generic cache",
	}
	for i, items := range days {
		it.Itinerary = append(it.Itinerary, itinerary.Day{
			Day:       i + 1,
			Objective: fmt.Sprintf("Objective for day %d", i+1),
			Items:     items,
		})
	}
	return it
}

func urls(day itinerary.Day) []string {
	out := make([]string, 0, len(day.Items))
	for _, it := range day.Items {
		out = append(out, it.URL)
	}
	return out
}

func TestEnforce_DuplicateAndPaid(t *testing.T) {
	in := plan(
		[]itinerary.Item{
			item("https://a.example", itinerary.FreeFull),
			item("https://a.example", itinerary.FreeFull),
			item("https://b.example", itinerary.Paid),
		},
		[]itinerary.Item{item("https://c.example", itinerary.FreeAudit)},
		[]itinerary.Item{},
	)
	out := Enforce(in, Policy{MaxLinksPerDay: 2, MaxTotalLinks: 5, FreeOnly: true})

	require.Len(t, out.Itinerary, 3)
	assert.Equal(t, []string{"https://a.example"}, urls(out.Itinerary[0]))
	assert.Equal(t, []string{"https://c.example"}, urls(out.Itinerary[1]))
	assert.Empty(t, out.Itinerary[2].Items)
}

func TestEnforce_TotalCapStopsLaterDays(t *testing.T) {
	in := plan(
		[]itinerary.Item{
			item("https://a.example", itinerary.FreeFull),
			item("https://b.example", itinerary.FreeFull),
		},
		[]itinerary.Item{item("https://c.example", itinerary.FreeFull)},
	)
	out := Enforce(in, Policy{MaxLinksPerDay: 2, MaxTotalLinks: 1, FreeOnly: true})

	require.Len(t, out.Itinerary, 2)
	assert.Equal(t, []string{"https://a.example"}, urls(out.Itinerary[0]))
	assert.Equal(t, 2, out.Itinerary[1].Day)
	assert.Empty(t, out.Itinerary[1].Items)
	assert.NotNil(t, out.Itinerary[1].Items)
}

func TestEnforce_PerDayCap(t *testing.T) {
	in := plan([]itinerary.Item{
		item("https://a.example", itinerary.FreeFull),
		item("https://b.example", itinerary.FreeFull),
		item("https://c.example", itinerary.FreeFull),
	})
	out := Enforce(in, Policy{MaxLinksPerDay: 2, MaxTotalLinks: 10})
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, urls(out.Itinerary[0]))
}

func TestEnforce_FreeOnlyDisabledKeepsPaid(t *testing.T) {
	in := plan([]itinerary.Item{
		item("https://a.example", itinerary.Paid),
		item("https://b.example", itinerary.FreeUnknown),
	})
	out := Enforce(in, Policy{MaxLinksPerDay: 2, MaxTotalLinks: 10, FreeOnly: false})
	assert.Len(t, out.Itinerary[0].Items, 2)
}

func TestEnforce_CustomAllowedFree(t *testing.T) {
	in := plan([]itinerary.Item{
		item("https://a.example", itinerary.Freemium),
		item("https://b.example", itinerary.FreeAudit),
	})
	out := Enforce(in, Policy{
		MaxLinksPerDay: 2,
		MaxTotalLinks:  10,
		FreeOnly:       true,
		AllowedFree:    []itinerary.FreeLabel{itinerary.FreeFull, itinerary.Freemium},
	})
	assert.Equal(t, []string{"https://a.example"}, urls(out.Itinerary[0]))
}

func TestEnforce_NonPositiveCapsKeepNothing(t *testing.T) {
	in := plan([]itinerary.Item{item("https://a.example", itinerary.FreeFull)})
	for _, p := range []Policy{
		{MaxLinksPerDay: 0, MaxTotalLinks: 10},
		{MaxLinksPerDay: 2, MaxTotalLinks: 0},
		{MaxLinksPerDay: -1, MaxTotalLinks: -1},
	} {
		out := Enforce(in, p)
		require.Len(t, out.Itinerary, 1)
		assert.Empty(t, out.Itinerary[0].Items)
	}
}

func TestEnforce_DoesNotMutateInput(t *testing.T) {
	in := plan([]itinerary.Item{
		item("https://a.example", itinerary.Paid),
		item("https://b.example", itinerary.FreeFull),
	})
	_ = Enforce(in, Policy{MaxLinksPerDay: 2, MaxTotalLinks: 10, FreeOnly: true})
	assert.Len(t, in.Itinerary[0].Items, 2)
	assert.Nil(t, Enforce(nil, Policy{}))
}

func TestEnforce_Properties(t *testing.T) {
	labels := []itinerary.FreeLabel{itinerary.FreeFull, itinerary.FreeAudit, itinerary.Freemium, itinerary.Paid, itinerary.FreeUnknown}
	// A plan with shared URLs, mixed labels and uneven day sizes.
	var days [][]itinerary.Item
	for d := 0; d < 5; d++ {
		var items []itinerary.Item
		for i := 0; i < d+2; i++ {
			n := (d*7 + i*3) % 9
			items = append(items, item(fmt.Sprintf("https://site%d.example", n), labels[(d+i)%len(labels)]))
		}
		days = append(days, items)
	}
	in := plan(days...)

	for _, p := range []Policy{
		{MaxLinksPerDay: 1, MaxTotalLinks: 3, FreeOnly: true},
		{MaxLinksPerDay: 2, MaxTotalLinks: 10, FreeOnly: true},
		{MaxLinksPerDay: 3, MaxTotalLinks: 4, FreeOnly: false},
	} {
		out := Enforce(in, p)

		// Day preservation.
		require.Len(t, out.Itinerary, len(in.Itinerary))
		for i := range in.Itinerary {
			assert.Equal(t, in.Itinerary[i].Day, out.Itinerary[i].Day)
			assert.Equal(t, in.Itinerary[i].Objective, out.Itinerary[i].Objective)
		}

		seen := map[string]bool{}
		for _, day := range out.Itinerary {
			assert.LessOrEqual(t, len(day.Items), p.MaxLinksPerDay)
			for _, it := range day.Items {
				assert.False(t, seen[it.URL], "duplicate url %s", it.URL)
				seen[it.URL] = true
				if p.FreeOnly {
					assert.Contains(t, DefaultAllowedFree, it.FreeLabel)
				}
			}
		}
		assert.LessOrEqual(t, out.ItemCount(), p.MaxTotalLinks)

		// Idempotence.
		assert.Equal(t, out, Enforce(out, p))
	}
}

func TestParseLabels(t *testing.T) {
	labels, err := ParseLabels(" FREE_FULL, FREE_AUDIT ,FREEMIUM,")
	require.NoError(t, err)
	assert.Equal(t, []itinerary.FreeLabel{itinerary.FreeFull, itinerary.FreeAudit, itinerary.Freemium}, labels)

	_, err = ParseLabels("FREE_FULL,GRATIS")
	assert.Error(t, err)
	_, err = ParseLabels(" , ")
	assert.Error(t, err)
}
