// Package analytics answers the dashboard's aggregation queries over the
// log store: paginated listings, gap-filled time buckets, categorical
// counts, the bot leaderboard and the first-occurrence event feed.
package analytics

import (
	"context"

	"github.com/google/uuid"

	"github.com/whowhywhen/whowhywhen/internal/model"
	"github.com/whowhywhen/whowhywhen/internal/repository"
)

// LogStore is the slice of the log repository the engine reads from.
type LogStore interface {
	List(ctx context.Context, f repository.Filters, opts repository.ListOptions) ([]model.APILog, int64, error)
	TimeBuckets(ctx context.Context, f repository.Filters, unit string) ([]repository.BucketRow, error)
	FacetCounts(ctx context.Context, f repository.Filters, column string, botsOnly bool) ([]repository.CountRow, error)
	DeviceTypeCounts(ctx context.Context, f repository.Filters) ([]repository.CountRow, error)
	ResponseCodeCounts(ctx context.Context, f repository.Filters) ([]repository.ResponseCodeRow, error)
	UserAgentCounts(ctx context.Context, f repository.Filters) ([]repository.CountRow, error)
	BotTraffic(ctx context.Context, f repository.Filters, limit int) ([]repository.BotTrafficRow, error)
	BotCodeCounts(ctx context.Context, f repository.Filters, botID int64, limit int) ([]repository.ResponseCodeRow, error)
	BotPathCounts(ctx context.Context, f repository.Filters, botID int64, limit int) ([]repository.CountRow, error)
	Events(ctx context.Context, projectID uuid.UUID, typeFilter string, offset, limit int) ([]repository.EventRow, error)
	CountEvents(ctx context.Context, projectID uuid.UUID, typeFilter string) (int64, error)
}

// Engine computes aggregates. It holds no state beyond the store.
type Engine struct {
	store LogStore
}

// NewEngine returns an Engine over store.
func NewEngine(store LogStore) *Engine {
	return &Engine{store: store}
}

// ListResult is one page of records plus the total matching count.
type ListResult struct {
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Logs  []model.APILog `json:"logs"`
}

// List returns a paginated, sorted record listing.
func (e *Engine) List(ctx context.Context, f repository.Filters, opts repository.ListOptions) (*ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 50
	}
	logs, total, err := e.store.List(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.APILog{}
	}
	return &ListResult{Total: total, Page: opts.Page, Limit: opts.Limit, Logs: logs}, nil
}
