// Package sse implements a Server-Sent Events broker that tells rendering
// hosts about node, pipeline and option changes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/nodeforge/internal/models"
)

// Event types.
const (
	EventNodeCreated     = "node.created"
	EventNodeUpdated     = "node.updated"
	EventNodeDeleted     = "node.deleted"
	EventEdgeCreated     = "edge.created"
	EventEditorOpen      = "editor.open"
	EventOptionsUpdated  = "options.updated"
	EventPipelineUpdated = "pipeline.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// pipelineEventReq is a change to the pipeline document. Each one is
// broadcast as is and followed by a throttled pipeline.updated.
type pipelineEventReq struct {
	kind string
	data any
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + pipeline throttle timestamp). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	pipelineMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	pipelineCh    chan pipelineEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given pipeline.updated
// throttle interval.
func NewBroker(pipelineThrottle time.Duration) *Broker {
	if pipelineThrottle <= 0 {
		pipelineThrottle = 2 * time.Second
	}

	b := &Broker{
		pipelineMin:   pipelineThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		pipelineCh:    make(chan pipelineEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastPipeline time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.pipelineCh:
			broadcast(Event{Type: req.kind, Data: req.data})

			now := time.Now()
			if now.Sub(lastPipeline) >= b.pipelineMin {
				lastPipeline = now
				broadcast(Event{Type: EventPipelineUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

func (b *Broker) publishPipeline(kind string, data any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.pipelineCh <- pipelineEventReq{kind: kind, data: data}:
	case <-b.stopped:
	}
}

// NodeCreated announces a placed node.
func (b *Broker) NodeCreated(n models.Node) {
	b.publishPipeline(EventNodeCreated, n)
}

// NodeUpdated announces a committed parameter change.
func (b *Broker) NodeUpdated(n models.Node) {
	b.publishPipeline(EventNodeUpdated, n)
}

// NodeDeleted announces a removed node.
func (b *Broker) NodeDeleted(id string) {
	b.publishPipeline(EventNodeDeleted, map[string]string{"id": id})
}

// EdgeCreated announces a new connection.
func (b *Broker) EdgeCreated(e models.Edge) {
	b.publishPipeline(EventEdgeCreated, e)
}

// LaunchEditor asks connected hosts to open the detailed editor for n.
// It does not wait for anyone to act on the request.
func (b *Broker) LaunchEditor(n models.Node) {
	b.Publish(Event{Type: EventEditorOpen, Data: n})
}

// OptionsUpdated announces a new option snapshot.
func (b *Broker) OptionsUpdated(checksum string) {
	b.Publish(Event{Type: EventOptionsUpdated, Data: map[string]string{"checksum": checksum}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
