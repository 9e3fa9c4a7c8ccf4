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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-itinerary-go/config"
	"trpc.group/trpc-go/trpc-itinerary-go/internal/app"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/server/api"
)

func serveCMD(settings *config.Settings) *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *settings
			if addr != "" {
				s.ListenAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clean, err := app.StartTelemetry(ctx, s)
			if err != nil {
				return err
			}
			defer func() {
				if err := clean(); err != nil {
					log.Warnf("telemetry shutdown: %v", err)
				}
			}()

			a, err := app.New(s)
			if err != nil {
				return err
			}
			srv := api.New(a.Runner,
				api.WithAllowedOrigins(s.Origins()),
				api.WithDefaultDays(s.DefaultDays),
			)
			return srv.ListenAndServe(ctx, s.ListenAddr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	return serve
}
