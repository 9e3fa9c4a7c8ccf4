//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package itineraryagent

import (
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/prompt"
)

var systemPrompt = &prompt.Template{
	ID:          "itinerary-system",
	Description: "Task, sourcing policy and agentic process for the itinerary agent.",
	Version:     "1",
	Content: `You are a learning itinerary agent.

Goal:
Create a day-wise itinerary to learn ONE concept step-by-step with minimal, high-signal links.

Hard rules:
- Free sources only. If unsure, mark UNKNOWN and do not include it when free_only=true.
- 1–2 links per day maximum.
- Keep total links minimal.
- Provide a short free_evidence snippet for each link.
- Prefer practical, hands-on material (docs, tutorials, code, videos).
- Do not include ML basics unless the user explicitly asks.

Agentic process:
1) Create a micro-syllabus (subtopics) for the concept.
2) Use web_search to find candidate sources.
3) Use fetch_page only when necessary to confirm free-ness or reduce uncertainty.
4) Select the minimum set that covers the micro-syllabus and fits the link limits.
Return ONLY JSON that matches the schema.`,
}

var userPrompt = &prompt.Template{
	ID:          "itinerary-user",
	Description: "One learner request with the link caps.",
	Version:     "1",
	Content: `Concept: {{.Concept}}
Level: {{.Level}}
Days: {{.Days}}
Hours per day: {{.HoursPerDay}}
Preferred format: {{.PreferFormat}} (videos | blogs | mix)
Free only: {{.FreeOnly}}

Output requirements:
- Day 1..Day {{.Days}}
- Each day: objective + 1–{{.MaxLinksPerDay}} links (NO MORE)
- Total links: keep <= {{.MaxTotalLinks}}
- Each link must include:
  title, url, content_type (blog/video/docs/course/repo/other),
  minutes, why,
  free_label (FREE_FULL/FREE_AUDIT/FREEMIUM/PAID/UNKNOWN),
  free_evidence (short snippet).
- Include a single short project for the week.
Return ONLY JSON that matches the schema.`,
}

type userPromptData struct {
	itinerary.Request
	MaxLinksPerDay int
	MaxTotalLinks  int
}
