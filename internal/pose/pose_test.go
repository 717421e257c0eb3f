// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pose

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/eetuna/cwru-data-marshal/internal/apierr"
)

func TestParseUpdateValid(t *testing.T) {
	now := time.Date(2025, 9, 12, 14, 59, 1, 234_000_000, time.UTC)
	body := []byte(`{"p":[1.0,2.0,3.0],"R":[1,0,0,0,1,0,0,0,1]}`)

	got, err := ParseUpdate(body, now)
	if err != nil {
		t.Fatalf("ParseUpdate returned error: %v", err)
	}
	if got.P != [3]float64{1, 2, 3} {
		t.Errorf("P = %v, want {1,2,3}", got.P)
	}
	if got.R != IdentityRotation {
		t.Errorf("R = %v, want identity", got.R)
	}
	if got.Frame != DefaultFrame {
		t.Errorf("Frame = %q, want %q", got.Frame, DefaultFrame)
	}
	if got.Source != "api" {
		t.Errorf("Source = %q, want %q", got.Source, "api")
	}
}

func TestParseUpdateMissingFields(t *testing.T) {
	_, err := ParseUpdate([]byte(`{"R":[1,0,0,0,1,0,0,0,1]}`), time.Now())
	apiErr, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected *apierr.Error, got %v", err)
	}
	if apiErr.Kind != apierr.BadRequest {
		t.Errorf("Kind = %v, want BadRequest", apiErr.Kind)
	}
	if apiErr.Tag != "missing fields" {
		t.Errorf("Tag = %q, want %q", apiErr.Tag, "missing fields")
	}
}

func TestParseUpdateInvalidShapes(t *testing.T) {
	_, err := ParseUpdate([]byte(`{"p":[1,2],"R":[1,0,0,0,1,0,0,0,1]}`), time.Now())
	apiErr, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected *apierr.Error, got %v", err)
	}
	if apiErr.Tag != "invalid shapes" {
		t.Errorf("Tag = %q, want %q", apiErr.Tag, "invalid shapes")
	}
	if apiErr.Detail["p_len"] != 2 {
		t.Errorf("p_len = %v, want 2", apiErr.Detail["p_len"])
	}
}

func TestParseUpdateBadJSON(t *testing.T) {
	_, err := ParseUpdate([]byte(`not json`), time.Now())
	apiErr, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected *apierr.Error, got %v", err)
	}
	if apiErr.Tag != "bad json" {
		t.Errorf("Tag = %q, want %q", apiErr.Tag, "bad json")
	}
}

func TestParseUpdateOptionalFrameAndSource(t *testing.T) {
	body := []byte(`{"p":[0,0,0],"R":[1,0,0,0,1,0,0,0,1],"frame":"world","source":"fk"}`)
	got, err := ParseUpdate(body, time.Now())
	if err != nil {
		t.Fatalf("ParseUpdate returned error: %v", err)
	}
	if got.Frame != "world" {
		t.Errorf("Frame = %q, want %q", got.Frame, "world")
	}
	if got.Source != "fk" {
		t.Errorf("Source = %q, want %q", got.Source, "fk")
	}
}

func TestPoseJSONRoundtrip(t *testing.T) {
	p := Pose{
		T:      time.Now(),
		P:      [3]float64{1.5, -2.25, 3.0},
		R:      [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Frame:  "scanner",
		Source: "fk",
	}

	var decoded struct {
		Frame  string    `json:"frame"`
		P      []float64 `json:"p"`
		R      []float64 `json:"R"`
		Source string    `json:"source"`
	}
	if err := json.Unmarshal(p.ToJSON(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Frame != p.Frame || decoded.Source != p.Source {
		t.Errorf("frame/source mismatch: got %+v", decoded)
	}
	for i := range p.P {
		if decoded.P[i] != p.P[i] {
			t.Errorf("P[%d] = %v, want %v", i, decoded.P[i], p.P[i])
		}
	}
	for i := range p.R {
		if decoded.R[i] != p.R[i] {
			t.Errorf("R[%d] = %v, want %v", i, decoded.R[i], p.R[i])
		}
	}
}

func TestPoseJSONTMsLosslessWithinMillisecond(t *testing.T) {
	p := Pose{T: time.Date(2025, 9, 12, 14, 59, 1, 234_000_000, time.UTC)}

	var decoded struct {
		TMs int64 `json:"t_ms"`
	}
	if err := json.Unmarshal(p.ToJSON(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.TMs != p.T.UnixMilli() {
		t.Errorf("t_ms = %d, want %d", decoded.TMs, p.T.UnixMilli())
	}
}
