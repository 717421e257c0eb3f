// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package httpapi implements the marshal's HTTP/1.1 surface: the REST
// routes registered in NewAPIRouter, and the lifecycle wrapper used
// to run both the REST listener and the WebSocket listener side by
// side with graceful shutdown.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server binds one TCP listener and serves it until its context is
// cancelled, then drains in-flight requests within ShutdownTimeout.
// Both the REST API (port 8080 by default) and the WebSocket upgrade
// endpoint (port 8090 by default) are plain net/http servers, so one
// Server type runs either.
type Server struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	shutdownTimeout time.Duration
	ready           chan struct{}
	addr            net.Addr
}

// ServerConfig configures a Server.
type ServerConfig struct {
	Address         string
	Handler         http.Handler
	Logger          *slog.Logger
	ShutdownTimeout time.Duration
}

// NewServer builds a Server bound to Address once Serve is called.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Address == "" {
		panic("httpapi: Address is required")
	}
	if cfg.Handler == nil {
		panic("httpapi: Handler is required")
	}
	if cfg.Logger == nil {
		panic("httpapi: Logger is required")
	}

	timeout := cfg.ShutdownTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Server{
		address:         cfg.Address,
		handler:         cfg.Handler,
		logger:          cfg.Logger,
		shutdownTimeout: timeout,
		ready:           make(chan struct{}),
	}
}

// Ready returns a channel closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the resolved listen address. Only valid after Ready.
func (s *Server) Addr() net.Addr { return s.addr }

// Serve binds the listener, signals readiness, and blocks until ctx
// is cancelled, then shuts the server down gracefully. WebSocket
// connections served by this handler are hijacked net/http
// connections, which http.Server.Shutdown neither closes nor waits
// for: they stay open after Serve returns and end only when the peer
// disconnects or the process exits.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("httpapi: listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("http server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
			return
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down", "address", s.addr.String())
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err, "address", s.addr.String())
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}

	s.logger.Info("http server stopped", "address", s.addr.String())
	return nil
}
