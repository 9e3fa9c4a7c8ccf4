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

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-itinerary-go/config"
	"trpc.group/trpc-go/trpc-itinerary-go/tool/fetchpage"
)

func fetchCMD(settings *config.Settings) *cobra.Command {
	var maxChars int
	fetch := &cobra.Command{
		Use:   "fetch URL",
		Short: "Fetch a page the way the agent's fetch tool does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := fetchpage.New(fetchpage.WithTimeout(settings.FetchTimeout))
			excerpt, err := f.Fetch(cmd.Context(), args[0], maxChars)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(excerpt)
		},
	}
	fetch.Flags().IntVar(&maxChars, "max-chars", fetchpage.DefaultMaxChars, "excerpt length in characters")
	return fetch
}
