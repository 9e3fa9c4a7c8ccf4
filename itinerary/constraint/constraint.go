//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package constraint applies the hard limits of a plan after the model
// has produced it: free-only filtering, per-day and total link caps, and
// URL de-duplication.
package constraint

import (
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
)

// DefaultAllowedFree is the label set kept under free-only.
var DefaultAllowedFree = []itinerary.FreeLabel{itinerary.FreeFull, itinerary.FreeAudit}

// Policy holds the limits applied to a plan.
type Policy struct {
	// MaxLinksPerDay caps the items kept in a single day.
	MaxLinksPerDay int
	// MaxTotalLinks caps the items kept across the whole plan.
	MaxTotalLinks int
	// FreeOnly drops items whose label is not in AllowedFree.
	FreeOnly bool
	// AllowedFree is the free label set; nil means DefaultAllowedFree.
	AllowedFree []itinerary.FreeLabel
}

// ParseLabels parses a comma separated label list such as
// "FREE_FULL,FREE_AUDIT". Blank entries are ignored.
func ParseLabels(s string) ([]itinerary.FreeLabel, error) {
	var labels []itinerary.FreeLabel
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		l, ok := itinerary.ParseFreeLabel(part)
		if !ok {
			return nil, fmt.Errorf("unknown free label %q", part)
		}
		labels = append(labels, l)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("free label list %q is empty", s)
	}
	return labels, nil
}

func (p Policy) allowed() map[itinerary.FreeLabel]struct{} {
	labels := p.AllowedFree
	if labels == nil {
		labels = DefaultAllowedFree
	}
	set := make(map[itinerary.FreeLabel]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}

// Enforce returns a copy of plan with the policy applied. Days are never
// dropped; a day whose items are all filtered is kept with no items.
// Items are taken first-come in day order then item order. Non-positive
// caps keep nothing. The input is not modified.
func Enforce(plan *itinerary.Itinerary, policy Policy) *itinerary.Itinerary {
	if plan == nil {
		return nil
	}
	allowed := policy.allowed()
	seen := make(map[string]struct{})
	total := 0

	out := &itinerary.Itinerary{
		Concept:   plan.Concept,
		Level:     plan.Level,
		Days:      plan.Days,
		Project:   plan.Project,
		Itinerary: make([]itinerary.Day, 0, len(plan.Itinerary)),
	}
	for _, day := range plan.Itinerary {
		kept := make([]itinerary.Item, 0, len(day.Items))
		for _, item := range day.Items {
			if total >= policy.MaxTotalLinks {
				break
			}
			if len(kept) >= policy.MaxLinksPerDay {
				break
			}
			if _, dup := seen[item.URL]; dup {
				continue
			}
			if policy.FreeOnly {
				if _, ok := allowed[item.FreeLabel]; !ok {
					continue
				}
			}
			kept = append(kept, item)
			seen[item.URL] = struct{}{}
			total++
		}
		out.Itinerary = append(out.Itinerary, itinerary.Day{
			Day:       day.Day,
			Objective: day.Objective,
			Items:     kept,
		})
	}
	return out
}
