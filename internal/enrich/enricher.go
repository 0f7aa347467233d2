// Package enrich turns raw log submissions into fully populated, stored
// records: URL decomposition, user-agent classification, bot matching,
// status text and (best-effort) geolocation.
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/whowhywhen/whowhywhen/internal/httpstatus"
	"github.com/whowhywhen/whowhywhen/internal/metrics"
	"github.com/whowhywhen/whowhywhen/internal/model"
	"github.com/whowhywhen/whowhywhen/internal/uaparse"
	"github.com/whowhywhen/whowhywhen/internal/urlparse"
)

// Submission is one raw log entry as clients send it.
type Submission struct {
	URL          string     `json:"url"`
	IPAddress    string     `json:"ip_address"`
	UserAgent    string     `json:"user_agent"`
	Location     *string    `json:"location,omitempty"`
	ResponseCode *int       `json:"response_code,omitempty"`
	ResponseTime *float64   `json:"response_time,omitempty" validate:"omitempty,gte=0"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
}

// Store is the slice of the log repository the enricher writes through.
type Store interface {
	Insert(ctx context.Context, log *model.APILog, params map[string]string) error
	UpdateLocation(ctx context.Context, id uuid.UUID, location string) error
}

// BotMatcher matches a user agent to a known signature.
type BotMatcher interface {
	Match(ctx context.Context, ua string) (id int64, ok bool, err error)
}

// GeoResolver resolves an IP to a coarse location string.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (string, error)
}

// Mode places geolocation resolution on or off the ingest path.
type Mode string

const (
	// ModeSync resolves location inline when the caller asks for it.
	ModeSync Mode = "sync"
	// ModeBackground persists first and fills the location in afterwards.
	ModeBackground Mode = "background"
)

// Enricher orchestrates the enrichment pipeline. Every step except the
// final store is best-effort: a failing step logs, counts and leaves its
// fields at defaults.
type Enricher struct {
	store      Store
	matcher    BotMatcher
	resolver   GeoResolver
	mode       Mode
	geoTimeout time.Duration
	logger     zerolog.Logger

	background sync.WaitGroup
}

// New returns an Enricher. resolver may be nil, in which case location
// resolution is skipped entirely.
func New(store Store, matcher BotMatcher, resolver GeoResolver, mode Mode, geoTimeout time.Duration, logger zerolog.Logger) *Enricher {
	if mode != ModeSync {
		mode = ModeBackground
	}
	if geoTimeout <= 0 {
		geoTimeout = 5 * time.Second
	}
	return &Enricher{
		store:      store,
		matcher:    matcher,
		resolver:   resolver,
		mode:       mode,
		geoTimeout: geoTimeout,
		logger:     logger,
	}
}

// Ingest enriches and stores one submission for a project. resolveLocation
// requests geolocation; depending on the configured mode it happens inline
// or after the record is persisted. Only the store step can fail the call.
func (e *Enricher) Ingest(ctx context.Context, projectID uuid.UUID, sub Submission, resolveLocation bool) (*model.APILog, error) {
	if sub.ResponseTime != nil && *sub.ResponseTime < 0 {
		return nil, fmt.Errorf("negative response_time %f", *sub.ResponseTime)
	}

	record := &model.APILog{
		ID:        uuid.New(),
		ProjectID: projectID,
		URL:       sub.URL,
		IPAddress: sub.IPAddress,
		UserAgent: sub.UserAgent,
		Location:  sub.Location,
		CreatedAt: time.Now().UTC(),
	}
	if sub.CreatedAt != nil {
		record.CreatedAt = *sub.CreatedAt
	}

	resolveInline := resolveLocation && e.resolver != nil && record.Location == nil && sub.IPAddress != "" && e.mode == ModeSync
	if resolveInline {
		geoCtx, cancel := context.WithTimeout(ctx, e.geoTimeout)
		location, err := e.resolver.Resolve(geoCtx, sub.IPAddress)
		cancel()
		if err != nil {
			metrics.EnrichmentFailures.WithLabelValues("geolocation").Inc()
			e.logger.Warn().Err(err).Str("ip", sub.IPAddress).Msg("geolocation failed, storing without location")
		} else {
			record.Location = &location
		}
	}

	if sub.ResponseCode != nil {
		record.ResponseCode = sub.ResponseCode
		text := httpstatus.Text(*sub.ResponseCode)
		record.ResponseText = &text
	}
	record.ResponseTime = sub.ResponseTime

	var params map[string]string
	if sub.URL != "" {
		_, path, decomposed := urlparse.Decompose(sub.URL)
		record.Path = path
		params = decomposed
	}

	if sub.UserAgent != "" {
		facets := uaparse.Classify(sub.UserAgent)
		record.BrowserFamily = facets.BrowserFamily
		record.BrowserVersion = facets.BrowserVersion
		record.OSFamily = facets.OSFamily
		record.OSVersion = facets.OSVersion
		record.DeviceFamily = facets.DeviceFamily
		record.DeviceBrand = facets.DeviceBrand
		record.DeviceModel = facets.DeviceModel
		record.IsMobile = facets.IsMobile
		record.IsTablet = facets.IsTablet
		record.IsPC = facets.IsPC
		record.IsTouchCapable = facets.IsTouchCapable
		record.IsBot = facets.IsBot

		if e.matcher != nil {
			botID, matched, err := e.matcher.Match(ctx, sub.UserAgent)
			if err != nil {
				metrics.EnrichmentFailures.WithLabelValues("bot_match").Inc()
				e.logger.Warn().Err(err).Msg("bot matching failed, storing without bot id")
			} else if matched {
				record.BotID = &botID
				record.IsBot = true
			}
		}
	}

	if err := e.store.Insert(ctx, record, params); err != nil {
		return nil, fmt.Errorf("store log record: %w", err)
	}
	metrics.RecordsIngested.WithLabelValues(projectID.String()).Inc()

	if resolveLocation && e.resolver != nil && record.Location == nil && sub.IPAddress != "" && e.mode == ModeBackground {
		e.background.Add(1)
		go func(id uuid.UUID, ip string) {
			defer e.background.Done()
			e.ResolveAndStoreLocation(context.Background(), id, ip)
		}(record.ID, sub.IPAddress)
	}

	return record, nil
}

// ResolveAndStoreLocation resolves ip and writes the location onto the
// stored record. Failures are logged and counted only; the record stands
// without a location.
func (e *Enricher) ResolveAndStoreLocation(ctx context.Context, id uuid.UUID, ip string) {
	geoCtx, cancel := context.WithTimeout(ctx, e.geoTimeout)
	defer cancel()
	location, err := e.resolver.Resolve(geoCtx, ip)
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("geolocation").Inc()
		e.logger.Warn().Err(err).Str("ip", ip).Msg("background geolocation failed")
		return
	}
	if err := e.store.UpdateLocation(ctx, id, location); err != nil {
		e.logger.Warn().Err(err).Stringer("log_id", id).Msg("could not store resolved location")
	}
}

// IngestBatch applies the single-record path to each submission in order
// and returns the records that stored successfully. A failing entry is
// logged and skipped; it never aborts the rest of the batch.
func (e *Enricher) IngestBatch(ctx context.Context, projectID uuid.UUID, subs []Submission, resolveLocation bool) []model.APILog {
	stored := make([]model.APILog, 0, len(subs))
	for i, sub := range subs {
		record, err := e.Ingest(ctx, projectID, sub, resolveLocation)
		if err != nil {
			e.logger.Warn().Err(err).Int("index", i).Msg("skipping failed batch entry")
			continue
		}
		stored = append(stored, *record)
	}
	return stored
}

// Wait blocks until in-flight background enrichment finishes. Called on
// shutdown so resolved locations are not lost.
func (e *Enricher) Wait() {
	e.background.Wait()
}
