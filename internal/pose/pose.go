// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pose holds the rigid-body transform record the marshal
// tracks and the single-slot store that serves it to concurrent
// readers and writers.
package pose

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eetuna/cwru-data-marshal/internal/apierr"
)

// Pose is a 3D rigid-body transform: a timestamp, a position vector,
// a 3x3 rotation matrix (row-major, not validated for orthonormality),
// and two short text tags identifying the coordinate frame and the
// producer.
type Pose struct {
	T      time.Time
	P      [3]float64
	R      [9]float64
	Frame  string
	Source string
}

// DefaultFrame is used when a pose update omits "frame".
const DefaultFrame = "scanner"

// IdentityRotation is the 3x3 identity matrix, row-major.
var IdentityRotation = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Zero returns the zero pose returned by Store.Get before any Set:
// position at the origin, identity rotation, the Unix epoch, frame
// "scanner", source "fk" — matching the original's zero-initialized
// struct sentinel.
func Zero() Pose {
	return Pose{
		T:      time.Unix(0, 0).UTC(),
		P:      [3]float64{0, 0, 0},
		R:      IdentityRotation,
		Frame:  DefaultFrame,
		Source: "fk",
	}
}

// wireDoc is the JSON representation produced by ToJSON and
// ToJSONWithTS (ParseUpdate decodes the separate updateRequest shape).
// t_ms is milliseconds since the Unix epoch, matching
// pose_to_json() in the original C++ implementation.
type wireDoc struct {
	TMs    int64     `json:"t_ms"`
	TS     string    `json:"ts,omitempty"`
	Frame  string    `json:"frame"`
	P      []float64 `json:"p"`
	R      []float64 `json:"R"`
	Source string    `json:"source"`
}

// ToJSON renders p as the wire document used in API responses. The
// caller may overlay a different "ts" afterward (GET /v1/pose/current
// does, deliberately, per the documented timestamp quirk).
func (p Pose) ToJSON() json.RawMessage {
	doc := wireDoc{
		TMs:    p.T.UnixMilli(),
		Frame:  p.Frame,
		P:      p.P[:],
		R:      p.R[:],
		Source: p.Source,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		// wireDoc contains only primitives and slices of float64;
		// Marshal cannot fail.
		panic(fmt.Sprintf("pose: marshaling wire document: %v", err))
	}
	return data
}

// ToJSONWithTS renders p exactly as ToJSON, but with "ts" set to the
// given RFC 3339 seconds-precision string instead of omitted. GET
// /v1/pose/current uses this with the current wall time rather than
// p.T — a quirk preserved from the original implementation, which
// stamps every pose response with "now" instead of the pose's own
// timestamp.
func (p Pose) ToJSONWithTS(ts string) json.RawMessage {
	doc := wireDoc{
		TMs:    p.T.UnixMilli(),
		TS:     ts,
		Frame:  p.Frame,
		P:      p.P[:],
		R:      p.R[:],
		Source: p.Source,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("pose: marshaling wire document: %v", err))
	}
	return data
}

// NowISO8601Seconds formats t as RFC 3339 UTC at seconds precision
// (YYYY-MM-DDTHH:MM:SSZ), the format used for the "ts" field embedded
// in pose responses (index timestamps use millisecond precision
// instead; see blobindex).
func NowISO8601Seconds(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// updateRequest is the body accepted by POST /v1/pose/update.
type updateRequest struct {
	P      []float64 `json:"p"`
	R      []float64 `json:"R"`
	Frame  *string   `json:"frame"`
	Source *string   `json:"source"`
}

// ParseUpdate decodes and validates a pose-update request body,
// returning a *apierr.Error with the exact shapes spec.md §8
// requires on every rejection path: bad JSON, missing fields, or
// wrong-length arrays.
func ParseUpdate(body []byte, now time.Time) (Pose, error) {
	var req updateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return Pose{}, apierr.New(apierr.BadRequest, "bad json", err).
			WithDetail(map[string]any{"what": err.Error()})
	}

	if req.P == nil || req.R == nil {
		missing := []string{}
		if req.P == nil {
			missing = append(missing, "p")
		}
		if req.R == nil {
			missing = append(missing, "R")
		}
		return Pose{}, apierr.New(apierr.BadRequest, "missing fields", nil).
			WithDetail(map[string]any{"required": []string{"p", "R"}, "missing": missing})
	}

	if len(req.P) != 3 || len(req.R) != 9 {
		return Pose{}, apierr.New(apierr.BadRequest, "invalid shapes", nil).
			WithDetail(map[string]any{"p_len": len(req.P), "R_len": len(req.R)})
	}

	out := Pose{
		T:      now,
		Frame:  DefaultFrame,
		Source: "api",
	}
	copy(out.P[:], req.P)
	copy(out.R[:], req.R)
	if req.Frame != nil {
		out.Frame = *req.Frame
	}
	if req.Source != nil {
		out.Source = *req.Source
	}
	return out, nil
}
