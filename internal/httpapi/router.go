// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eetuna/cwru-data-marshal/internal/blobindex"
	"github.com/eetuna/cwru-data-marshal/internal/clock"
	"github.com/eetuna/cwru-data-marshal/internal/metrics"
	"github.com/eetuna/cwru-data-marshal/internal/pose"
	"github.com/eetuna/cwru-data-marshal/internal/wshub"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

// Config is the immutable snapshot shared by reference with handlers,
// per spec.md §3's "Configuration snapshot".
type Config struct {
	DataDir    string
	HTTPBind   string
	WSBind     string
	MaxEntries int
}

// deps bundles the components every handler closes over.
type deps struct {
	cfg       Config
	poses     *pose.Store
	blobs     *blobindex.BlobIndex
	hub       *wshub.Hub
	metrics   *metrics.Metrics
	clk       clock.Clock
	log       *slog.Logger
	startedAt time.Time
}

// NewAPIRouter builds the REST handler for the HTTP bind address:
// chi routing, request-id/recoverer/logging/timeout middleware, gzip
// response compression, and the /metrics Prometheus endpoint, wrapping
// every route spec.md §4.5 names.
func NewAPIRouter(cfg Config, poses *pose.Store, blobs *blobindex.BlobIndex, hub *wshub.Hub, m *metrics.Metrics, clk clock.Clock, log *slog.Logger, startedAt time.Time) http.Handler {
	d := &deps{cfg: cfg, poses: poses, blobs: blobs, hub: hub, metrics: m, clk: clk, log: log, startedAt: startedAt}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", d.handleHealth)
	r.Get("/v1/config", d.handleConfig)
	r.Get("/v1/pose/current", d.handlePoseCurrent)
	r.Post("/v1/pose/update", d.handlePoseUpdate)
	r.Post("/v1/mrd/ingest", d.handleMrdIngest)
	r.Get("/v1/mrd/latest", d.handleMrdLatest)
	r.Get("/v1/mrd/since", d.handleMrdSince)
	r.Handle("/metrics", metricsHandler(m))
	r.NotFound(d.handleNotFound)

	return gzhttp.GzipHandler(r)
}

// NewWSRouter builds the handler for the WebSocket bind address: a
// single /ws route, per spec.md §6 ("binds by default 0.0.0.0:8090,
// path /ws").
func NewWSRouter(hub *wshub.Hub, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Get("/ws", hub.ServeHTTP)
	return r
}
