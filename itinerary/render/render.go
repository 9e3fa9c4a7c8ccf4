//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package render exports an itinerary as Markdown or HTML.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// Markdown renders it as a day-by-day Markdown document.
func Markdown(it *itinerary.Itinerary) string {
	if it == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Learning itinerary: %s\n\n", escape(it.Concept))
	fmt.Fprintf(&b, "**Level:** %s | **Days:** %d | **Links:** %d\n\n", it.Level, it.Days, it.ItemCount())
	fmt.Fprintf(&b, "**Project:** %s\n", escape(it.Project))
	for _, day := range it.Itinerary {
		fmt.Fprintf(&b, "\n## Day %d: %s\n\n", day.Day, escape(day.Objective))
		if len(day.Items) == 0 {
			b.WriteString("_No links for this day._\n")
			continue
		}
		for _, item := range day.Items {
			fmt.Fprintf(&b, "- [%s](%s) (%s, %d min, %s)\n",
				escape(item.Title), escapeURL(item.URL), item.ContentType, item.Minutes, item.FreeLabel)
			fmt.Fprintf(&b, "  - Why: %s\n", escape(item.Why))
			fmt.Fprintf(&b, "  - Evidence: %s\n", escape(item.FreeEvidence))
		}
	}
	return b.String()
}

// HTML renders it as a standalone HTML page.
func HTML(it *itinerary.Itinerary) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(it)), &body); err != nil {
		return nil, fmt.Errorf("failed to convert itinerary to html: %w", err)
	}
	title := "Learning itinerary"
	if it != nil {
		title += ": " + it.Concept
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"\n", " ",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}

var urlEscaper = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E")

func escapeURL(s string) string {
	return urlEscaper.Replace(s)
}
