// Copyright 2026 The Phaser Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/phaser-svc/phaser/pkg/observability"
	"github.com/phaser-svc/phaser/pkg/perf"
	"github.com/phaser-svc/phaser/pkg/pipeline"
)

const (
	defaultServeWorkers = 2

	// seenCacheSize bounds how many delivery ids are remembered for
	// duplicate suppression.
	seenCacheSize = 1024
	seenCacheTTL  = time.Hour

	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 30 * time.Second
)

// RunFunc starts a pipeline run for an accepted delivery. It runs on a
// worker goroutine, not on the request path.
type RunFunc func(ctx context.Context, ev *Event) error

// Server accepts GitHub push deliveries and schedules pipeline runs
// for the ones that match the trigger filters.
type Server struct {
	addr    string
	secret  []byte
	trig    pipeline.Triggers
	run     RunFunc
	logger  observability.Logger
	metrics *observability.MetricsCollector
	workers int
	pool    *perf.WorkerPool
	seen    *perf.Cache[string, time.Time]
	httpSrv *http.Server
	started time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(l observability.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.MetricsCollector) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSecret enables signature verification with the shared secret.
func WithSecret(secret []byte) ServerOption {
	return func(s *Server) { s.secret = secret }
}

// WithWorkers sets how many runs may execute concurrently.
func WithWorkers(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewServer creates a webhook server listening on addr once started.
func NewServer(addr string, trig pipeline.Triggers, run RunFunc, opts ...ServerOption) (*Server, error) {
	if run == nil {
		return nil, fmt.Errorf("webhook server needs a run function")
	}

	s := &Server{
		addr:    addr,
		trig:    trig,
		run:     run,
		logger:  observability.NewNop(),
		metrics: observability.NewMetricsCollector(observability.MetricConfig{}),
		workers: defaultServeWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := perf.NewWorkerPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	s.pool = pool
	s.pool.Start()
	s.seen = perf.NewCache[string, time.Time](seenCacheSize, seenCacheTTL)
	s.started = time.Now()
	return s, nil
}

// Handler returns the HTTP handler serving the webhook routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	s.logger.Info("webhook server listening", observability.String("addr", s.addr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting deliveries and waits for scheduled runs.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	s.pool.Stop()
	s.seen.Close()
	return err
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "POST only"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadSize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload too large"})
		return
	}

	if len(s.secret) > 0 {
		if err := VerifySignature(s.secret, body, r.Header.Get(SignatureHeader)); err != nil {
			s.logger.Warn("rejected delivery", observability.Err(err))
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
			return
		}
	}

	eventType := r.Header.Get("X-GitHub-Event")
	delivery := r.Header.Get("X-GitHub-Delivery")

	ev, err := ParseGitHubEvent(body, eventType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if ev == nil {
		s.logger.Debug("ignored delivery", observability.String("event", eventType))
		s.metrics.RecordWebhook(false)
		writeJSON(w, http.StatusOK, map[string]any{"ignored": true})
		return
	}
	ev.Delivery = delivery

	if delivery != "" && s.seen.Contains(delivery) {
		s.logger.Debug("duplicate delivery", observability.String("delivery", delivery))
		s.metrics.RecordWebhook(false)
		writeJSON(w, http.StatusOK, map[string]any{"duplicate": true})
		return
	}

	if !s.trig.Matches(ev.PushEvent()) {
		s.logger.Info("push does not match triggers",
			observability.String("branch", ev.Branch),
			observability.Bool("deleted", ev.Deleted),
		)
		s.metrics.RecordWebhook(false)
		writeJSON(w, http.StatusOK, map[string]any{"triggered": false})
		return
	}

	scheduled := s.pool.Submit(func() {
		if err := s.run(context.Background(), ev); err != nil {
			s.logger.Error("run failed",
				observability.String("delivery", ev.Delivery),
				observability.String("branch", ev.Branch),
				observability.Err(err),
			)
		}
	})
	if !scheduled {
		// Leave the delivery unmarked so a redelivery can succeed.
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "runner is saturated"})
		return
	}
	if delivery != "" {
		s.seen.Set(delivery, time.Now())
	}

	s.metrics.RecordWebhook(true)
	s.logger.Info("scheduled run",
		observability.String("delivery", ev.Delivery),
		observability.String("branch", ev.Branch),
		observability.String("commit", shortSHA(ev.Commit)),
	)
	writeJSON(w, http.StatusAccepted, map[string]any{"triggered": true, "delivery": ev.Delivery})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "GET only"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.started).Round(time.Second).String(),
		"active_jobs": s.pool.ActiveJobs(),
		"queue_size":  s.pool.QueueSize(),
		"metrics":     s.metrics.GetSnapshot(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
