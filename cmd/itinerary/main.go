//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Command itinerary serves and generates learning itineraries.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-itinerary-go/config"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
)

func main() {
	if err := rootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCMD builds the command tree. Subcommands read the loaded settings
// through the returned pointer once PersistentPreRunE has run.
func rootCMD() *cobra.Command {
	var cfgPath string
	settings := &config.Settings{}
	root := &cobra.Command{
		Use:           "itinerary",
		Short:         "Agentic learning itinerary generator",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			log.SetFormat(s.LogFormat)
			log.SetLevel(s.LogLevel)
			*settings = s
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (yaml, json or toml)")

	root.AddCommand(serveCMD(settings), generateCMD(settings), fetchCMD(settings))
	return root
}
