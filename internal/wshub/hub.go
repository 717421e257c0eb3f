// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wshub multiplexes real-time events to connected WebSocket
// peers. Registry mutation and broadcast fan-out are decoupled: the
// registry lock is held only long enough to snapshot or mutate the
// client set, never across a socket write, so one slow or wedged
// client cannot stall delivery to the rest.
package wshub

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eetuna/cwru-data-marshal/internal/clock"
	"github.com/eetuna/cwru-data-marshal/internal/metrics"
	"github.com/gorilla/websocket"
)

// pingInterval is how often the hub pings each client to detect dead
// connections; pongWait must be comfortably larger.
const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
)

// Hub owns the set of currently connected clients and fans out
// messages — both broadcasts originated by the HTTP ingest path and
// re-broadcasts of inbound client frames — to all of them.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	upgrader websocket.Upgrader
	clk      clock.Clock
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New constructs a Hub. clk drives the ping keepalive so tests can
// advance time deterministically instead of sleeping.
func New(clk clock.Clock, m *metrics.Metrics, log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clk:     clk,
		metrics: m,
		log:     log,
	}
}

// ServeHTTP upgrades the request to a WebSocket connection, registers
// the resulting Client, and blocks until the connection closes,
// running the client's read and write pumps. Intended to be wired
// directly as the handler for the /ws route.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("ws upgrade failed", "err", err)
		return
	}

	client := newClient(conn)
	h.register(client)
	h.metrics.WsClientsConnected.Inc()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.writePump(client)
	}()
	go func() {
		defer wg.Done()
		h.readPump(client)
		// A read error means the peer is gone; unregistering closes
		// done so writePump stops as well.
		h.unregister(client)
	}()
	wg.Wait()

	h.unregister(client)
	h.metrics.WsClientsConnected.Dec()
	conn.Close()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if present {
		close(c.done)
	}
}

// Broadcast fans msg out to every connected client via a non-blocking
// mailbox send. A client whose mailbox is full is dropped: its
// connection is torn down rather than allowed to back-pressure the
// broadcaster.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(msg) {
			h.metrics.WsClientsDroppedSlow.Inc()
			h.dropSlow(c)
			continue
		}
		h.metrics.WsMessagesBroadcast.Inc()
	}
}

// dropSlow unregisters a client that fell behind on its mailbox and
// closes its connection; its read/write pumps observe the closed
// connection and exit on their own.
func (h *Hub) dropSlow(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if present {
		close(c.done)
	}
	c.conn.Close()
}

// ClientCount reports the number of currently registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump drains the client's mailbox to its socket and pings on an
// interval to detect a dead peer. Mirrors the select-loop shape of a
// subscriber goroutine reading from an events channel with a
// heartbeat ticker alongside it.
func (h *Hub) writePump(c *Client) {
	ticker := h.clk.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump reads inbound frames from the client and re-broadcasts
// each one to every connected client, matching the naive echo fan-out
// of the original WsServer::Session::on_msg.
func (h *Hub) readPump(c *Client) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.Broadcast(data)
	}
}
