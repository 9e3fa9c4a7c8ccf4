//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package itinerary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Request bounds.
const (
	MinConceptLen = 3
	MaxConceptLen = 120
	MinDays       = 1
	MaxDays       = 14
	MinHours      = 1
	MaxHours      = 6
)

// Request is what a learner asks for.
type Request struct {
	Concept      string `json:"concept"`
	Level        Level  `json:"level"`
	Days         int    `json:"days"`
	HoursPerDay  int    `json:"hours_per_day"`
	PreferFormat Format `json:"prefer_format"`
	FreeOnly     bool   `json:"free_only"`
}

// NewRequest returns a request holding every default, with days taken
// from the caller's configuration.
func NewRequest(defaultDays int) Request {
	return Request{
		Level:        LevelBeginner,
		Days:         defaultDays,
		HoursPerDay:  2,
		PreferFormat: FormatMix,
		FreeOnly:     true,
	}
}

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// DecodeRequest reads a JSON request body, fills unspecified fields with
// defaults and validates the result. Unknown fields are rejected.
func DecodeRequest(r io.Reader, defaultDays int) (Request, error) {
	req := NewRequest(defaultDays)
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, &ValidationError{Reason: "request body is empty"}
		}
		return Request{}, &ValidationError{Reason: fmt.Sprintf("invalid request body: %v", err)}
	}
	if dec.More() {
		return Request{}, &ValidationError{Reason: "request body must hold a single JSON object"}
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// DecodeRequestBytes is DecodeRequest over a byte slice.
func DecodeRequestBytes(data []byte, defaultDays int) (Request, error) {
	return DecodeRequest(bytes.NewReader(data), defaultDays)
}

// Validate checks every field against its allowed range.
func (r Request) Validate() error {
	if n := utf8.RuneCountInString(r.Concept); n < MinConceptLen || n > MaxConceptLen {
		return &ValidationError{Field: "concept", Reason: fmt.Sprintf("length must be between %d and %d characters", MinConceptLen, MaxConceptLen)}
	}
	switch r.Level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		return &ValidationError{Field: "level", Reason: fmt.Sprintf("must be one of beginner, intermediate, advanced; got %q", r.Level)}
	}
	if r.Days < MinDays || r.Days > MaxDays {
		return &ValidationError{Field: "days", Reason: fmt.Sprintf("must be between %d and %d", MinDays, MaxDays)}
	}
	if r.HoursPerDay < MinHours || r.HoursPerDay > MaxHours {
		return &ValidationError{Field: "hours_per_day", Reason: fmt.Sprintf("must be between %d and %d", MinHours, MaxHours)}
	}
	switch r.PreferFormat {
	case FormatVideos, FormatBlogs, FormatMix:
	default:
		return &ValidationError{Field: "prefer_format", Reason: fmt.Sprintf("must be one of videos, blogs, mix; got %q", r.PreferFormat)}
	}
	return nil
}
