//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package itinerary defines the learning itinerary domain: the request a
// learner submits, the plan the agent returns, and the schema both the
// model and the local validator agree on.
package itinerary

// Level is the learner's starting level.
type Level string

// Level constants.
const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Format is the preferred kind of material.
type Format string

// Format constants.
const (
	FormatVideos Format = "videos"
	FormatBlogs  Format = "blogs"
	FormatMix    Format = "mix"
)

// ContentType classifies a single resource.
type ContentType string

// ContentType constants.
const (
	ContentBlog   ContentType = "blog"
	ContentVideo  ContentType = "video"
	ContentDocs   ContentType = "docs"
	ContentCourse ContentType = "course"
	ContentRepo   ContentType = "repo"
	ContentOther  ContentType = "other"
)

// FreeLabel is the model's claim about how freely a resource can be used.
type FreeLabel string

// FreeLabel constants.
const (
	FreeFull    FreeLabel = "FREE_FULL"
	FreeAudit   FreeLabel = "FREE_AUDIT"
	Freemium    FreeLabel = "FREEMIUM"
	Paid        FreeLabel = "PAID"
	FreeUnknown FreeLabel = "UNKNOWN"
)

// ParseFreeLabel returns the label named by s and whether it is known.
func ParseFreeLabel(s string) (FreeLabel, bool) {
	switch l := FreeLabel(s); l {
	case FreeFull, FreeAudit, Freemium, Paid, FreeUnknown:
		return l, true
	default:
		return "", false
	}
}

// Item is one link in a day of the plan.
type Item struct {
	Title        string      `json:"title"`
	URL          string      `json:"url"`
	ContentType  ContentType `json:"content_type"`
	Minutes      int         `json:"minutes"`
	Why          string      `json:"why"`
	FreeLabel    FreeLabel   `json:"free_label"`
	FreeEvidence string      `json:"free_evidence"`
}

// Day is one day of the plan.
type Day struct {
	Day       int    `json:"day"`
	Objective string `json:"objective"`
	Items     []Item `json:"items"`
}

// Itinerary is the full plan returned to the learner.
type Itinerary struct {
	Concept   string `json:"concept"`
	Level     Level  `json:"level"`
	Days      int    `json:"days"`
	Project   string `json:"project"`
	Itinerary []Day  `json:"itinerary"`
}

// ItemCount returns the number of items across all days.
func (it *Itinerary) ItemCount() int {
	if it == nil {
		return 0
	}
	n := 0
	for _, d := range it.Itinerary {
		n += len(d.Items)
	}
	return n
}
