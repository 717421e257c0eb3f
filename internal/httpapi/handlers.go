// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/eetuna/cwru-data-marshal/internal/apierr"
	"github.com/eetuna/cwru-data-marshal/internal/pose"
)

func (d *deps) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := d.clk.Now().Sub(d.startedAt).Seconds()
	writeJSON(w, d.log, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": uptime,
	})
}

func (d *deps) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, d.log, http.StatusOK, map[string]any{
		"data_dir":    d.cfg.DataDir,
		"ws_port":     wsPort(d.cfg.WSBind),
		"max_entries": d.cfg.MaxEntries,
	})
}

// wsPort extracts the numeric port from a "host:port" bind address,
// for the /v1/config response's "ws_port" field, which spec.md gives
// as a bare number (8090) rather than the full bind address.
func wsPort(bind string) int {
	_, portStr, err := net.SplitHostPort(bind)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

func (d *deps) handlePoseCurrent(w http.ResponseWriter, r *http.Request) {
	p := d.poses.Get()
	ts := pose.NowISO8601Seconds(d.clk.Now())
	writeJSON(w, d.log, http.StatusOK, map[string]any{
		"pose":   p.ToJSONWithTS(ts),
		"source": p.Source,
	})
}

func (d *deps) handlePoseUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, d.log, apierr.New(apierr.BadRequest, "bad json", err))
		return
	}

	p, err := pose.ParseUpdate(body, d.clk.Now())
	if err != nil {
		writeError(w, d.log, err)
		return
	}

	d.poses.Set(p)
	d.metrics.PoseUpdatesTotal.Inc()

	ts := pose.NowISO8601Seconds(d.clk.Now())
	writeJSON(w, d.log, http.StatusOK, map[string]any{
		"status": "ok",
		"pose":   p.ToJSONWithTS(ts),
	})
}

func (d *deps) handleMrdIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, d.log, apierr.New(apierr.Internal, "ingest failed", err))
		return
	}

	entry, err := d.blobs.Ingest(body)
	if err != nil {
		d.metrics.IngestErrorsTotal.Inc()
		writeError(w, d.log, err)
		return
	}
	d.metrics.IngestTotal.Inc()

	writeJSON(w, d.log, http.StatusCreated, entry)

	if msg, err := marshalNotification("mrd.acq", entry); err == nil {
		d.hub.Broadcast(msg)
	} else {
		d.log.Warn("building ws notification", "err", err)
	}
}

func (d *deps) handleMrdLatest(w http.ResponseWriter, r *http.Request) {
	data, err := d.blobs.Latest()
	if err != nil {
		writeError(w, d.log, err)
		return
	}
	writeRaw(w, d.log, http.StatusOK, data)
}

func (d *deps) handleMrdSince(w http.ResponseWriter, r *http.Request) {
	ts := r.URL.Query().Get("ts")
	if ts == "" {
		writeError(w, d.log, apierr.New(apierr.BadRequest, "missing ts param", nil))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, d.log, apierr.New(apierr.BadRequest, "invalid limit param", err))
			return
		}
		limit = n
	}

	entries, err := d.blobs.Since(ts, limit)
	if err != nil {
		writeError(w, d.log, err)
		return
	}
	writeJSON(w, d.log, http.StatusOK, entries)
}

func (d *deps) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, d.log, http.StatusNotFound, map[string]any{"error": "not found"})
}

