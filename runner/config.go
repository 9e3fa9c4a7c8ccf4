//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"slices"
	"time"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary/constraint"
)

// Config defines the post-processing policy and limits of a runner.
type Config struct {
	// MaxLinksPerDay caps the items kept on each day.
	MaxLinksPerDay int `json:"max_links_per_day"`

	// MaxTotalLinks caps the items kept across the whole itinerary.
	MaxTotalLinks int `json:"max_total_links"`

	// AllowedFree lists the labels kept when a request is free-only.
	AllowedFree []itinerary.FreeLabel `json:"allowed_free"`

	// Timeout bounds one whole run. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns a default runner configuration.
func DefaultConfig() Config {
	return Config{
		MaxLinksPerDay: 2,
		MaxTotalLinks:  10,
		AllowedFree:    slices.Clone(constraint.DefaultAllowedFree),
	}
}

// WithLinkCaps sets the per-day and total caps.
func (c Config) WithLinkCaps(perDay, total int) Config {
	c.MaxLinksPerDay = perDay
	c.MaxTotalLinks = total
	return c
}

// WithAllowedFree sets the labels kept under free-only.
func (c Config) WithAllowedFree(labels []itinerary.FreeLabel) Config {
	c.AllowedFree = labels
	return c
}

// WithTimeout sets the run timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// policy builds the enforcement policy for one request.
func (c Config) policy(freeOnly bool) constraint.Policy {
	return constraint.Policy{
		MaxLinksPerDay: c.MaxLinksPerDay,
		MaxTotalLinks:  c.MaxTotalLinks,
		FreeOnly:       freeOnly,
		AllowedFree:    c.AllowedFree,
	}
}
