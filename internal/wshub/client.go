// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wshub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBufferSize is the per-client outbound mailbox capacity. A
// client that falls this far behind on broadcast is disconnected
// rather than allowed to block the hub.
const sendBufferSize = 64

// writeWait bounds how long a single frame write may take before the
// connection is considered dead.
const writeWait = 10 * time.Second

// Client is the hub's handle to one connected WebSocket peer: an
// outbound mailbox and the connection it is bound to. Hub holds the
// authoritative registry entry; Client's own goroutines use done only
// to know when to stop.
type Client struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// enqueue attempts a non-blocking send to the client's mailbox.
// Reports false if the mailbox is full, which Broadcast answers by
// dropping the client.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}
