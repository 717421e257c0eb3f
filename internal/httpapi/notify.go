// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import "encoding/json"

// marshalNotification builds a WebSocket broadcast frame: a JSON
// object with at least a "topic" field, per spec.md §6. payload is
// merged under "entry" alongside the topic.
func marshalNotification(topic string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{
		"topic": topic,
		"entry": payload,
	})
}
