// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eetuna/cwru-data-marshal/internal/blobindex"
	"github.com/eetuna/cwru-data-marshal/internal/clock"
	"github.com/eetuna/cwru-data-marshal/internal/metrics"
	"github.com/eetuna/cwru-data-marshal/internal/pose"
	"github.com/eetuna/cwru-data-marshal/internal/wshub"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) (http.Handler, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(time.Date(2025, 9, 12, 14, 59, 1, 0, time.UTC))
	log := testLogger()
	m := metrics.New()

	poses := pose.NewStore()
	blobs, err := blobindex.NewBlobIndex(t.TempDir(), clk, log)
	if err != nil {
		t.Fatalf("NewBlobIndex failed: %v", err)
	}
	hub := wshub.New(clk, m, log)

	cfg := Config{DataDir: "/data", HTTPBind: "0.0.0.0:8080", WSBind: "0.0.0.0:8090", MaxEntries: 100000}
	return NewAPIRouter(cfg, poses, blobs, hub, m, clk, log, clk.Now()), clk
}

func doRequest(t *testing.T, h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthReturnsOK(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want %q", body["status"], "ok")
	}
	if _, ok := body["uptime_s"]; !ok {
		t.Errorf("missing uptime_s field")
	}
}

func TestConfigReturnsSnapshot(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/config", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["data_dir"] != "/data" {
		t.Errorf("data_dir = %v, want /data", body["data_dir"])
	}
}

func TestPoseCurrentBeforeUpdateIsZeroPose(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/pose/current", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Source != "fk" {
		t.Errorf("source = %q, want %q", body.Source, "fk")
	}
}

func TestPoseUpdateThenCurrentRoundtrips(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/v1/pose/update", `{"p":[1,2,3],"R":[1,0,0,0,1,0,0,0,1]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/v1/pose/current", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("current status = %d, want 200", rec.Code)
	}

	var body struct {
		Pose struct {
			P []float64 `json:"p"`
		} `json:"pose"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(body.Pose.P) != 3 || body.Pose.P[0] != 1 || body.Pose.P[1] != 2 || body.Pose.P[2] != 3 {
		t.Errorf("pose.p = %v, want [1,2,3]", body.Pose.P)
	}
}

func TestPoseUpdateMissingFieldsReturnsBadRequest(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/pose/update", `{"R":[1,0,0,0,1,0,0,0,1]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["error"] != "missing fields" {
		t.Errorf("error = %v, want %q", body["error"], "missing fields")
	}
}

func TestMrdIngestReturnsCreatedEntry(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/mrd/ingest", "HELLO")

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}
	var entry blobindex.IndexEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if entry.SizeBytes != 5 {
		t.Errorf("size_bytes = %d, want 5", entry.SizeBytes)
	}
	if entry.Seq != 1 {
		t.Errorf("seq = %d, want 1", entry.Seq)
	}
	if !strings.HasSuffix(entry.Path, "_000001.mrd") {
		t.Errorf("path = %q, want suffix _000001.mrd", entry.Path)
	}
}

func TestMrdIngestEmptyBodyReturnsBadRequest(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodPost, "/v1/mrd/ingest", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["error"] != "empty body" {
		t.Errorf("error = %v, want %q", body["error"], "empty body")
	}
}

func TestMrdLatestBeforeAnyIngestIsNoContent(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/mrd/latest", "")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestMrdSinceWithoutTsReturnsBadRequest(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/v1/mrd/since", "")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["error"] != "missing ts param" {
		t.Errorf("error = %v, want %q", body["error"], "missing ts param")
	}
}

func TestMrdSinceWithLimitReturnsFirstNEntries(t *testing.T) {
	h, clk := newTestRouter(t)

	for i := 0; i < 5; i++ {
		rec := doRequest(t, h, http.MethodPost, "/v1/mrd/ingest", "x")
		if rec.Code != http.StatusCreated {
			t.Fatalf("ingest %d failed: status=%d body=%s", i, rec.Code, rec.Body.String())
		}
		clk.Advance(time.Millisecond)
	}

	rec := doRequest(t, h, http.MethodGet, "/v1/mrd/since?ts=1970-01-01T00:00:00.000Z&limit=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var entries []blobindex.IndexEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := doRequest(t, h, http.MethodGet, "/nope", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["error"] != "not found" {
		t.Errorf("error = %v, want %q", body["error"], "not found")
	}
}
