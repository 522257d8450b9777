// Package gateway streams engine events to websocket clients.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"scalper/internal/metrics"
	"scalper/internal/model"
)

// ChannelPrefix prefixes every channel name; the event type follows it.
const ChannelPrefix = "scalper:"

// Hub fans engine events out to connected websocket clients. It keeps the
// latest envelope per channel for late joiners and a ring of recent
// envelopes for clients reconnecting with a known sequence number.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  map[string]latestEntry
	seq     int64
	ring    *EventRing

	metrics *metrics.Metrics
	now     func() time.Time
}

type latestEntry struct {
	Data json.RawMessage
	TS   time.Time
	Seq  int64
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  make(map[string]latestEntry),
		ring:    NewEventRing(512),
		metrics: m,
		now:     time.Now,
	}
}

// Publish implements model.EventSink.
func (h *Hub) Publish(_ context.Context, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	h.Broadcast(ChannelPrefix+string(ev.Type), data)
	return nil
}

// Broadcast wraps data in an envelope and queues it to every client.
// Slow clients whose queue is full miss the message.
func (h *Hub) Broadcast(channel string, data []byte) {
	now := h.now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	seq := h.seq
	h.latest[channel] = latestEntry{Data: data, TS: now, Seq: seq}

	buf := buildEnvelope(channel, data, now, seq, false)
	h.ring.Push(seq, buf)

	for client := range h.clients {
		select {
		case client.send <- buf:
		default:
		}
	}
}

// buildEnvelope hand-crafts {"channel":..,"data":..,"ts":..,"seq":..}.
func buildEnvelope(channel string, data []byte, ts time.Time, seq int64, initial bool) []byte {
	buf := make([]byte, 0, len(channel)+len(data)+96)
	buf = append(buf, `{"channel":"`...)
	buf = append(buf, channel...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = ts.AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	if initial {
		buf = append(buf, `,"initial":true`...)
	}
	buf = append(buf, '}')
	return buf
}

// register adds c and queues its initial state. With lastSeq > 0 the client
// gets every buffered envelope after lastSeq; otherwise it gets the latest
// envelope of each channel.
func (h *Hub) register(c *Client, lastSeq int64) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)

	if lastSeq > 0 {
		for _, e := range h.ring.Range(lastSeq+1, h.seq) {
			c.queue(e.Data)
		}
	} else {
		for channel, e := range h.latest {
			c.queue(buildEnvelope(channel, e.Data, e.TS, e.Seq, true))
		}
	}
	h.mu.Unlock()

	h.metrics.SetWSClients(count)
	log.Printf("[gateway] ws client connected (%d total)", count)
}

// RemoveClient unregisters c and closes its queue.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()

	h.metrics.SetWSClients(count)
	log.Printf("[gateway] ws client disconnected (%d total)", count)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Seq returns the last sequence number assigned.
func (h *Hub) Seq() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

// Latest returns the most recent payload per channel.
func (h *Hub) Latest() map[string]json.RawMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		cp[k] = v.Data
	}
	return cp
}

// Missed returns buffered envelopes with seq in [from, to].
func (h *Hub) Missed(from, to int64) [][]byte {
	entries := h.ring.Range(from, to)
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Data
	}
	return out
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.RemoveClient(c)
	}
}
