package sse

import (
	"time"

	"github.com/GTDGit/costchecker/internal/models"
)

// QueryNotifier is the interface services use to emit query events.
type QueryNotifier interface {
	NotifyQuery(l *models.QueryLog)
}

// HubNotifier implements QueryNotifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyQuery(l *models.QueryLog) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Broadcast(queryToEvent(l))
}

func queryToEvent(l *models.QueryLog) *QueryEvent {
	evt := &QueryEvent{
		Event:           EventQueryResolved,
		Query:           l.QueryText,
		Success:         l.Success,
		Confidence:      l.ConfidenceScore,
		ExecutionTimeMS: l.ExecutionTimeMS,
		Timestamp:       l.Timestamp,
	}
	if l.UserConfirmed {
		evt.Event = EventQueryConfirmed
	}
	if l.Classification != nil {
		evt.Classification = *l.Classification
	}
	if l.SelectedProduct != nil {
		evt.ProductCode = *l.SelectedProduct
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	return evt
}
