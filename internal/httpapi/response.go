// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eetuna/cwru-data-marshal/internal/apierr"
)

// serverHeader identifies the marshal on every response, per
// spec.md §4.5 ("Responses carry a Server header").
const serverHeader = "cwru-data-marshal"

// writeJSON encodes value as a JSON response body with the given
// status. Encoding failure can only mean the client disconnected
// mid-write; there is no corrective response to send, so it is
// logged and swallowed.
func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Server", serverHeader)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Warn("writing JSON response", "err", err)
	}
}

// writeRaw writes pre-encoded JSON bytes (e.g. an IndexEntry read
// back off disk) without a second marshal round trip.
func writeRaw(w http.ResponseWriter, log *slog.Logger, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Server", serverHeader)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Warn("writing raw response", "err", err)
	}
}

// writeError classifies err via apierr and writes the matching status
// and structured body. Unclassified errors are treated as Internal
// and logged with detail the response body does not carry.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	apiErr, ok := apierr.As(err)
	if !ok {
		log.Error("unclassified error reached handler", "err", err)
		writeJSON(w, log, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	status := statusFor(apiErr.Kind)
	if apiErr.Kind == apierr.NoContent {
		w.Header().Set("Server", serverHeader)
		w.WriteHeader(status)
		return
	}

	body := map[string]any{"error": apiErr.Tag}
	for k, v := range apiErr.Detail {
		body[k] = v
	}

	if apiErr.Kind == apierr.Internal {
		log.Error("request failed", "tag", apiErr.Tag, "err", apiErr.Err)
	}

	writeJSON(w, log, status, body)
}

func statusFor(kind apierr.Kind) int {
	switch kind {
	case apierr.BadRequest:
		return http.StatusBadRequest
	case apierr.NotFound:
		return http.StatusNotFound
	case apierr.NoContent:
		return http.StatusNoContent
	default:
		return http.StatusInternalServerError
	}
}
