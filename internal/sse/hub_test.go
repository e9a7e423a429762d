package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/costchecker/internal/models"
)

func TestHubBroadcastsQueryEvents(t *testing.T) {
	hub := NewHub()
	n := NewHubNotifier(hub)

	// No listeners: nothing to do.
	n.NotifyQuery(&models.QueryLog{QueryText: "GT10S"})

	client := hub.Register("admin-1", Filter{})
	code := "GT10S"
	n.NotifyQuery(&models.QueryLog{QueryText: "gt10s", SelectedProduct: &code, Success: true, UserConfirmed: true})

	data := <-client.Events
	var evt QueryEvent
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, EventQueryConfirmed, evt.Event)
	assert.Equal(t, "GT10S", evt.ProductCode)
	assert.False(t, evt.Timestamp.IsZero())

	hub.Unregister("admin-1")
	assert.Zero(t, hub.ClientCount())
	_, open := <-client.Events
	assert.False(t, open)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	client := hub.Register("slow", Filter{})
	for i := 0; i < cap(client.Events)+5; i++ {
		hub.Broadcast(&QueryEvent{Event: EventQueryResolved})
	}
	assert.Len(t, client.Events, cap(client.Events))
}

func TestHubDeliversByFilter(t *testing.T) {
	hub := NewHub()
	all := hub.Register("all", Filter{})
	failures := hub.Register("failures", Filter{Outcome: OutcomeError})
	confirms := hub.Register("confirms", Filter{Event: EventQueryConfirmed})

	assert.Equal(t, 2, hub.Broadcast(&QueryEvent{Event: EventQueryResolved, Query: "XYZ999", Classification: "product_not_found"}))
	assert.Equal(t, 2, hub.Broadcast(&QueryEvent{Event: EventQueryConfirmed, Query: "GT10", Success: true}))
	assert.Equal(t, 1, hub.Broadcast(&QueryEvent{Event: EventQueryResolved, Query: "GT10S", Success: true}))

	assert.Len(t, all.Events, 3)
	require.Len(t, failures.Events, 1)
	require.Len(t, confirms.Events, 1)

	var evt QueryEvent
	require.NoError(t, json.Unmarshal(<-failures.Events, &evt))
	assert.Equal(t, "XYZ999", evt.Query)
	require.NoError(t, json.Unmarshal(<-confirms.Events, &evt))
	assert.Equal(t, "GT10", evt.Query)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name                          string
		status, event, classification string
		want                          Filter
		wantErr                       bool
	}{
		{name: "empty passes everything", want: Filter{}},
		{name: "all keyword", status: "all", event: "all", want: Filter{}},
		{name: "success", status: "Success", want: Filter{Outcome: OutcomeSuccess}},
		{name: "failure alias", status: "failure", want: Filter{Outcome: OutcomeError}},
		{name: "short event name", event: "confirmed", want: Filter{Event: EventQueryConfirmed}},
		{name: "full event name", event: "query.resolved", want: Filter{Event: EventQueryResolved}},
		{name: "classification", classification: " Wide_Compare_LT ", want: Filter{Classification: "wide_compare_lt"}},
		{name: "unknown status", status: "pending", wantErr: true},
		{name: "unknown event", event: "query.deleted", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.status, tt.event, tt.classification)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterMatchesClassificationCaseInsensitively(t *testing.T) {
	f := Filter{Outcome: OutcomeSuccess, Classification: "wide_compare_lt"}
	assert.True(t, f.Match(&QueryEvent{Success: true, Classification: "WIDE_COMPARE_LT"}))
	assert.False(t, f.Match(&QueryEvent{Success: false, Classification: "wide_compare_lt"}))
	assert.False(t, f.Match(&QueryEvent{Success: true, Classification: "product_lookup"}))
}

func TestNotifierSkipsUnmatchedClients(t *testing.T) {
	hub := NewHub()
	n := NewHubNotifier(hub)
	failures := hub.Register("failures", Filter{Outcome: OutcomeError})

	n.NotifyQuery(&models.QueryLog{QueryText: "GT10S", Success: true})
	assert.Empty(t, failures.Events)

	class := "product_not_found"
	n.NotifyQuery(&models.QueryLog{QueryText: "XYZ999", Classification: &class})
	require.Len(t, failures.Events, 1)
}
