// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command marshal is the CWRU Data Marshal server: it accepts pose
// updates and MRD blob ingests over HTTP and fans out real-time
// notifications to WebSocket subscribers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/eetuna/cwru-data-marshal/internal/blobindex"
	"github.com/eetuna/cwru-data-marshal/internal/clock"
	"github.com/eetuna/cwru-data-marshal/internal/httpapi"
	"github.com/eetuna/cwru-data-marshal/internal/metrics"
	"github.com/eetuna/cwru-data-marshal/internal/pose"
	"github.com/eetuna/cwru-data-marshal/internal/wshub"
)

const defaultMaxEntries = 100000

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		httpBind string
		wsBind   string
		dataDir  string
	)
	flag.StringVar(&httpBind, "http", "0.0.0.0:8080", "HTTP bind address")
	flag.StringVar(&wsBind, "ws", "0.0.0.0:8090", "WebSocket bind address")
	flag.StringVar(&dataDir, "data", "", "data directory (required)")
	flag.Parse()

	if dataDir == "" {
		return fmt.Errorf("--data is required")
	}

	logger := newLogger()
	clk := clock.Real()

	blobs, err := blobindex.NewBlobIndex(dataDir, clk, logger)
	if err != nil {
		return fmt.Errorf("initializing blob index: %w", err)
	}

	poses := pose.NewStore()
	m := metrics.New()
	hub := wshub.New(clk, m, logger)

	cfg := httpapi.Config{
		DataDir:    dataDir,
		HTTPBind:   httpBind,
		WSBind:     wsBind,
		MaxEntries: defaultMaxEntries,
	}

	startedAt := clk.Now()
	apiServer := httpapi.NewServer(httpapi.ServerConfig{
		Address: httpBind,
		Handler: httpapi.NewAPIRouter(cfg, poses, blobs, hub, m, clk, logger, startedAt),
		Logger:  logger,
	})
	wsServer := httpapi.NewServer(httpapi.ServerConfig{
		Address: wsBind,
		Handler: httpapi.NewWSRouter(hub, logger),
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiDone := make(chan error, 1)
	go func() { apiDone <- apiServer.Serve(ctx) }()

	wsDone := make(chan error, 1)
	go func() { wsDone <- wsServer.Serve(ctx) }()

	logger.Info("marshal running", "http", httpBind, "ws", wsBind, "data_dir", dataDir)

	<-ctx.Done()
	logger.Info("shutting down")

	var shutdownErr error
	if err := <-apiDone; err != nil {
		logger.Error("http server exited with error", "error", err)
		shutdownErr = err
	}
	if err := <-wsDone; err != nil {
		logger.Error("ws server exited with error", "error", err)
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}

func newLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}
