// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics registers the marshal's Prometheus collectors
// against a private registry; httpapi serves that registry at
// /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and gauges the marshal updates from
// its HTTP handlers and WebSocket hub. Registered against a private
// Registry rather than the global default so tests can construct
// independent instances without colliding on registration.
type Metrics struct {
	Registry *prometheus.Registry

	WsClientsConnected   prometheus.Gauge
	WsClientsDroppedSlow prometheus.Counter
	WsMessagesBroadcast  prometheus.Counter
	IngestTotal          prometheus.Counter
	IngestErrorsTotal    prometheus.Counter
	PoseUpdatesTotal     prometheus.Counter
}

const namespace = "marshal"

// New constructs and registers the marshal's collectors against a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		WsClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients_connected",
			Help:      "Number of WebSocket clients currently connected to the hub.",
		}),
		WsClientsDroppedSlow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "clients_dropped_slow_total",
			Help:      "Number of WebSocket clients disconnected for falling behind on broadcast.",
		}),
		WsMessagesBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "messages_broadcast_total",
			Help:      "Number of messages fanned out to connected WebSocket clients.",
		}),
		IngestTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mrd",
			Name:      "ingest_total",
			Help:      "Number of successful blob ingests.",
		}),
		IngestErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mrd",
			Name:      "ingest_errors_total",
			Help:      "Number of blob ingest requests that failed.",
		}),
		PoseUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pose",
			Name:      "updates_total",
			Help:      "Number of accepted pose update requests.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.WsClientsConnected,
		m.WsClientsDroppedSlow,
		m.WsMessagesBroadcast,
		m.IngestTotal,
		m.IngestErrorsTotal,
		m.PoseUpdatesTotal,
	} {
		if err := reg.Register(c); err != nil {
			// Collectors are all constructed fresh above with distinct
			// names; a registration failure here means a programming
			// mistake, not a runtime condition to recover from.
			panic(err)
		}
	}

	return m
}
