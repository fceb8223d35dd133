// Package sse pushes graph rebuild notifications to HTTP clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types emitted by the broker.
const (
	EventRebuildCompleted = "rebuild.completed"
	EventRebuildFailed    = "rebuild.failed"
	EventGraphUpdated     = "graph.updated"
)

const clientBuffer = 64

// Event is one SSE message. Data is encoded as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (e Event) frame() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", e.Type, payload), nil
}

// Broker fans events out to connected clients. The most recent rebuild
// outcome is replayed to every new subscriber, so a client that connects
// between rebuilds still learns the state of the export.
type Broker struct {
	graphMin time.Duration

	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	last      []byte
	lastGraph time.Time
	closed    bool
}

// NewBroker creates a broker that emits graph.updated at most once per
// graphThrottle.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}
	return &Broker{
		graphMin: graphThrottle,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a client. The channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	if b.last != nil {
		ch <- b.last
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client. Later calls are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
	}
	clear(b.clients)
}

// Publish sends an event to all connected clients. Clients with a full
// buffer miss the event.
func (b *Broker) Publish(event Event) {
	raw, err := event.frame()
	if err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast(raw)
}

// PublishRebuild reports the outcome of a graph rebuild. A successful
// rebuild is followed by a throttled graph.updated event.
func (b *Broker) PublishRebuild(summary any, err error) {
	event := Event{Type: EventRebuildCompleted, Data: summary}
	if err != nil {
		event = Event{Type: EventRebuildFailed, Data: map[string]string{"error": err.Error()}}
	}
	raw, ferr := event.frame()
	if ferr != nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last = raw
	b.broadcast(raw)
	if err != nil {
		return
	}

	if now := time.Now(); now.Sub(b.lastGraph) >= b.graphMin {
		b.lastGraph = now
		if graph, err := (Event{Type: EventGraphUpdated, Data: map[string]string{}}).frame(); err == nil {
			b.broadcast(graph)
		}
	}
}

// broadcast must be called with mu held.
func (b *Broker) broadcast(raw []byte) {
	for ch := range b.clients {
		select {
		case ch <- raw:
		default:
		}
	}
}

// ServeHTTP streams events to one client until it disconnects (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
