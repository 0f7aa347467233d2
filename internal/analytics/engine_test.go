package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/whowhywhen/whowhywhen/internal/model"
	"github.com/whowhywhen/whowhywhen/internal/repository"
)

// fakeStore serves canned rows and records what the engine asked for.
type fakeStore struct {
	logs       []model.APILog
	buckets    []repository.BucketRow
	bucketUnit string
	bucketFilt repository.Filters

	facets      map[string][]repository.CountRow // keyed column + "/bots" for the bots-only view
	deviceTypes []repository.CountRow
	codes       []repository.ResponseCodeRow
	userAgents  []repository.CountRow

	botTraffic []repository.BotTrafficRow
	botCodes   map[int64][]repository.ResponseCodeRow
	botPaths   map[int64][]repository.CountRow

	events      []repository.EventRow
	eventsTotal int64
}

func (s *fakeStore) List(_ context.Context, _ repository.Filters, _ repository.ListOptions) ([]model.APILog, int64, error) {
	return s.logs, int64(len(s.logs)), nil
}

func (s *fakeStore) TimeBuckets(_ context.Context, f repository.Filters, unit string) ([]repository.BucketRow, error) {
	s.bucketUnit = unit
	s.bucketFilt = f
	return s.buckets, nil
}

func (s *fakeStore) FacetCounts(_ context.Context, _ repository.Filters, column string, botsOnly bool) ([]repository.CountRow, error) {
	key := column
	if botsOnly {
		key += "/bots"
	}
	return s.facets[key], nil
}

func (s *fakeStore) DeviceTypeCounts(_ context.Context, _ repository.Filters) ([]repository.CountRow, error) {
	return s.deviceTypes, nil
}

func (s *fakeStore) ResponseCodeCounts(_ context.Context, _ repository.Filters) ([]repository.ResponseCodeRow, error) {
	return s.codes, nil
}

func (s *fakeStore) UserAgentCounts(_ context.Context, _ repository.Filters) ([]repository.CountRow, error) {
	return s.userAgents, nil
}

func (s *fakeStore) BotTraffic(_ context.Context, _ repository.Filters, _ int) ([]repository.BotTrafficRow, error) {
	return s.botTraffic, nil
}

func (s *fakeStore) BotCodeCounts(_ context.Context, _ repository.Filters, botID int64, _ int) ([]repository.ResponseCodeRow, error) {
	return s.botCodes[botID], nil
}

func (s *fakeStore) BotPathCounts(_ context.Context, _ repository.Filters, botID int64, _ int) ([]repository.CountRow, error) {
	return s.botPaths[botID], nil
}

func (s *fakeStore) Events(_ context.Context, _ uuid.UUID, _ string, offset, limit int) ([]repository.EventRow, error) {
	if offset >= len(s.events) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.events) {
		end = len(s.events)
	}
	return s.events[offset:end], nil
}

func (s *fakeStore) CountEvents(_ context.Context, _ uuid.UUID, _ string) (int64, error) {
	return s.eventsTotal, nil
}

func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
