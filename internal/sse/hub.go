// Package sse fans resolved price queries out to admin dashboards as a live
// feed. Each dashboard subscribes with a Filter and only receives the
// queries it asked for.
package sse

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType is the kind of query activity on the feed.
type EventType string

const (
	EventQueryResolved  EventType = "query.resolved"
	EventQueryConfirmed EventType = "query.confirmed"
)

// QueryEvent is one logged query as shown on the feed.
type QueryEvent struct {
	Event           EventType `json:"event"`
	Query           string    `json:"query"`
	Classification  string    `json:"classification,omitempty"`
	ProductCode     string    `json:"productCode,omitempty"`
	Success         bool      `json:"success"`
	Confidence      *float64  `json:"confidence,omitempty"`
	ExecutionTimeMS int64     `json:"executionTimeMs"`
	Timestamp       time.Time `json:"timestamp"`
}

// Outcome restricts the feed to answered or failed queries.
type Outcome string

const (
	OutcomeAny     Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Filter selects the queries a feed client receives. The zero value
// passes everything.
type Filter struct {
	Outcome        Outcome
	Event          EventType
	Classification string
}

// ParseFilter builds a Filter from the stream's query parameters.
// Empty values leave that dimension unfiltered.
func ParseFilter(status, event, classification string) (Filter, error) {
	var f Filter
	switch Outcome(strings.ToLower(strings.TrimSpace(status))) {
	case OutcomeAny, "all":
	case OutcomeSuccess:
		f.Outcome = OutcomeSuccess
	case OutcomeError, "failure":
		f.Outcome = OutcomeError
	default:
		return Filter{}, fmt.Errorf("unknown status filter %q", status)
	}

	switch e := EventType(strings.TrimSpace(event)); e {
	case "", "all":
	case EventQueryResolved, EventQueryConfirmed:
		f.Event = e
	case "resolved":
		f.Event = EventQueryResolved
	case "confirmed":
		f.Event = EventQueryConfirmed
	default:
		return Filter{}, fmt.Errorf("unknown event filter %q", event)
	}

	f.Classification = strings.ToLower(strings.TrimSpace(classification))
	return f, nil
}

// Match reports whether e passes the filter.
func (f Filter) Match(e *QueryEvent) bool {
	switch f.Outcome {
	case OutcomeSuccess:
		if !e.Success {
			return false
		}
	case OutcomeError:
		if e.Success {
			return false
		}
	}
	if f.Event != "" && f.Event != e.Event {
		return false
	}
	if f.Classification != "" && !strings.EqualFold(f.Classification, e.Classification) {
		return false
	}
	return true
}

// Client is one subscribed dashboard.
type Client struct {
	ID     string
	Filter Filter
	Events chan []byte
}

// Hub tracks feed subscribers and delivers each query event to the ones
// whose filter it matches.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register subscribes a dashboard with the given filter.
func (h *Hub) Register(clientID string, filter Filter) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		Filter: filter,
		Events: make(chan []byte, 64),
	}
	h.clients[clientID] = c
	log.Info().
		Str("client_id", clientID).
		Str("status_filter", string(filter.Outcome)).
		Str("event_filter", string(filter.Event)).
		Int("total_clients", len(h.clients)).
		Msg("Query feed client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Info().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("Query feed client disconnected")
	}
}

// Broadcast delivers event to every matching client and returns how many
// received it. A client with a full buffer misses the event.
func (h *Hub) Broadcast(event *QueryEvent) int {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal query event")
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.clients {
		if !c.Filter.Match(event) {
			continue
		}
		select {
		case c.Events <- data:
			delivered++
		default:
			log.Warn().Str("client_id", c.ID).Str("query", event.Query).Msg("Query feed client buffer full, dropping event")
		}
	}
	return delivered
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
