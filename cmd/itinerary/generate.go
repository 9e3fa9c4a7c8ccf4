//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-itinerary-go/config"
	"trpc.group/trpc-go/trpc-itinerary-go/internal/app"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary/render"
)

func generateCMD(settings *config.Settings) *cobra.Command {
	var (
		level, prefer, format string
		days, hours           int
		freeOnly              bool
	)
	generate := &cobra.Command{
		Use:   "generate CONCEPT",
		Short: "Generate one itinerary and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *settings
			req := itinerary.NewRequest(s.DefaultDays)
			req.Concept = args[0]
			req.Level = itinerary.Level(level)
			req.HoursPerDay = hours
			req.PreferFormat = itinerary.Format(prefer)
			req.FreeOnly = freeOnly
			if cmd.Flags().Changed("days") {
				req.Days = days
			}
			if err := req.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			a, err := app.New(s)
			if err != nil {
				return err
			}
			plan, err := a.Runner.Run(ctx, req)
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), plan, format)
		},
	}
	flags := generate.Flags()
	flags.StringVar(&level, "level", string(itinerary.LevelBeginner), "beginner, intermediate or advanced")
	flags.IntVar(&days, "days", 0, "number of days (default DEFAULT_DAYS)")
	flags.IntVar(&hours, "hours", 2, "study hours per day")
	flags.StringVar(&prefer, "prefer-format", string(itinerary.FormatMix), "videos, blogs or mix")
	flags.BoolVar(&freeOnly, "free-only", true, "keep only free resources")
	flags.StringVarP(&format, "format", "f", render.FormatJSON, "output format: json, markdown or html")
	return generate
}

func writePlan(w io.Writer, plan *itinerary.Itinerary, format string) error {
	switch format {
	case render.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(plan)
	case render.FormatMarkdown:
		_, err := io.WriteString(w, render.Markdown(plan))
		return err
	case render.FormatHTML:
		page, err := render.HTML(plan)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
