package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is one first-occurrence event: the earliest successful request for
// a distinct endpoint or a distinct bot.
type Event struct {
	Type      string    `json:"type"` // "endpoint" or "bot"
	LogID     uuid.UUID `json:"log_id"`
	Path      string    `json:"path"`
	BotID     *int64    `json:"bot_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventsResult is one page of the event feed.
type EventsResult struct {
	Total  int64   `json:"total"`
	Events []Event `json:"events"`
}

var validEventFilters = map[string]bool{"endpoints": true, "bots": true, "both": true, "": true}

// Events returns the first-occurrence feed oldest-first. typeFilter is
// "endpoints", "bots", "both" or empty (same as both).
func (e *Engine) Events(ctx context.Context, projectID uuid.UUID, typeFilter string, offset, limit int) (*EventsResult, error) {
	if !validEventFilters[typeFilter] {
		return nil, fmt.Errorf("invalid type filter %q", typeFilter)
	}
	if limit < 1 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	total, err := e.store.CountEvents(ctx, projectID, typeFilter)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.Events(ctx, projectID, typeFilter, offset, limit)
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, Event{
			Type:      r.EventType,
			LogID:     r.LogID,
			Path:      r.Path,
			BotID:     r.BotID,
			CreatedAt: r.CreatedAt,
		})
	}
	return &EventsResult{Total: total, Events: events}, nil
}
