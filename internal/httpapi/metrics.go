// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"net/http"

	"github.com/eetuna/cwru-data-marshal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler exposes m's collectors in Prometheus text exposition
// format. Uses HandlerFor against m's private registry rather than
// promhttp.Handler's process-global default, since each Metrics
// instance (one per process, several per test) registers its own.
func metricsHandler(m *metrics.Metrics) http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
