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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-itinerary-go/tool"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/function"
)

// ToolName is the name the fetcher is declared under.
const ToolName = "fetch_page"

const toolDescription = "Fetch a web page URL and return a short excerpt plus paywall signals. " +
	"Use ONLY to verify free-ness/relevance when needed. Keep calls minimal."

// FlexibleInt decodes from a JSON number or a numeric string. Null and
// empty strings decode to zero.
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler for FlexibleInt.
func (fi *FlexibleInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*fi = 0
		return nil
	}
	// Try to unmarshal as a string first.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*fi = 0
			return nil
		}
		return fi.setNumber(s)
	}
	return fi.setNumber(string(data))
}

func (fi *FlexibleInt) setNumber(s string) error {
	if n, err := strconv.Atoi(s); err == nil {
		*fi = FlexibleInt(n)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	// Values past the int32 range would wrap on conversion.
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("max_chars must be an integer, got %s", s)
	}
	*fi = FlexibleInt(int(f))
	return nil
}

// fetchArgs are the arguments of the fetch_page tool.
type fetchArgs struct {
	URL      string      `json:"url" jsonschema_description:"The URL to fetch"`
	MaxChars FlexibleInt `json:"max_chars" jsonschema_description:"Max characters of excerpt to return"`
}

// NewTool exposes f as the fetch_page tool. The declared argument schema
// is strict: url and max_chars are both required and nothing else is
// accepted. At call time max_chars may be omitted.
func NewTool(f *Fetcher) tool.CallableTool {
	return function.NewFunctionTool(
		func(ctx context.Context, args fetchArgs) (*Excerpt, error) {
			if strings.TrimSpace(args.URL) == "" {
				return nil, errors.New("missing required argument: url")
			}
			return f.Fetch(ctx, args.URL, int(args.MaxChars))
		},
		function.WithName(ToolName),
		function.WithDescription(toolDescription),
	)
}
