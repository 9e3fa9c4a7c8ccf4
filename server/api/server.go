//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package api exposes the itinerary runner over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-itinerary-go/itinerary"
	"trpc.group/trpc-go/trpc-itinerary-go/itinerary/render"
	"trpc.group/trpc-go/trpc-itinerary-go/log"
	"trpc.group/trpc-go/trpc-itinerary-go/runner"
	"trpc.group/trpc-go/trpc-itinerary-go/telemetry/metric"
)

// Service name reported by the root route.
const ServiceName = "Agentic Learning Itinerary API"

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the itinerary API.
type Server struct {
	runner      runner.Runner
	router      *mux.Router
	handler     http.Handler
	origins     []string
	defaultDays int
	metrics     http.Handler
}

// Option configures the Server instance.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins. "*" allows every origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithDefaultDays sets the days used when a request omits them.
func WithDefaultDays(days int) Option {
	return func(s *Server) { s.defaultDays = days }
}

// WithMetricsHandler replaces the /metrics handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New creates a Server around r.
func New(r runner.Runner, opts ...Option) *Server {
	s := &Server{
		runner:      r,
		router:      mux.NewRouter(),
		origins:     []string{"*"},
		defaultDays: 7,
		metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metric.Handler().ServeHTTP(w, r)
		}),
	}
	for _, opt := range opts {
		opt(s)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
	})
	s.registerRoutes()
	s.handler = requestID(accessLog(c.Handler(s.router)))
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/v1/itinerary", s.handleItinerary).Methods(http.MethodPost)
	s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("itinerary api listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Infof("shutting down itinerary api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ---- Handlers -----------------------------------------------------------

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":      ServiceName,
		"health":    "/v1/health",
		"metrics":   "/metrics",
		"itinerary": "POST /v1/itinerary",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleItinerary(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", render.FormatJSON, render.FormatMarkdown, render.FormatHTML:
	default:
		writeDetail(w, http.StatusUnprocessableEntity, "format must be json, markdown or html")
		return
	}

	req, err := itinerary.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes), s.defaultDays)
	if err != nil {
		var verr *itinerary.ValidationError
		if errors.As(err, &verr) {
			writeDetail(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch format {
	case render.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(render.Markdown(plan)))
	case render.FormatHTML:
		page, err := render.HTML(plan)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(page)
	default:
		writeJSON(w, http.StatusOK, plan)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to write response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
