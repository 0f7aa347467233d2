// Package alert watches each project's recent traffic against configured
// thresholds and emits notifications on breaches.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/whowhywhen/whowhywhen/internal/metrics"
	"github.com/whowhywhen/whowhywhen/internal/model"
)

// ConfigStore is the slice of the alert repository the evaluator needs.
type ConfigStore interface {
	ListConfigs(ctx context.Context) ([]model.AlertConfig, error)
	UpdateLastChecked(ctx context.Context, configID int64, t time.Time) error
	InsertNotification(ctx context.Context, n *model.AlertNotification) error
}

// TrafficCounter counts records in the lookback window; implemented by
// repository.LogRepository.
type TrafficCounter interface {
	CountByCodeRange(ctx context.Context, projectID uuid.UUID, lo, hi int, since time.Time) (int, error)
	CountSlow(ctx context.Context, projectID uuid.UUID, thresholdSeconds float64, since time.Time) (int, error)
}

// Sink delivers one notification. Delivery is best-effort on top of the
// stored notification row.
type Sink interface {
	Send(ctx context.Context, n *model.AlertNotification) error
}

// Evaluator runs the periodic threshold checks. One evaluation pass walks
// every config, skips those whose interval has not elapsed, checks the
// three dimensions independently and stamps last_checked unconditionally —
// the stamp is what prevents duplicate alerts within an interval, no
// locking involved.
type Evaluator struct {
	configs         ConfigStore
	traffic         TrafficCounter
	sink            Sink
	deliveryTimeout time.Duration
	logger          zerolog.Logger
}

// NewEvaluator returns an Evaluator. sink may be nil when no delivery
// channel is configured; notifications are still stored.
func NewEvaluator(configs ConfigStore, traffic TrafficCounter, sink Sink, deliveryTimeout time.Duration, logger zerolog.Logger) *Evaluator {
	if deliveryTimeout <= 0 {
		deliveryTimeout = 10 * time.Second
	}
	return &Evaluator{
		configs:         configs,
		traffic:         traffic,
		sink:            sink,
		deliveryTimeout: deliveryTimeout,
		logger:          logger,
	}
}

// Run wakes every interval and executes one pass until ctx is cancelled.
func (e *Evaluator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.logger.Info().Dur("interval", interval).Msg("alert evaluator started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("alert evaluator stopped")
			return
		case <-ticker.C:
			if err := e.Pass(ctx); err != nil {
				e.logger.Error().Err(err).Msg("alert evaluation pass failed")
			}
		}
	}
}

// Pass evaluates every due config once. Per-config failures are logged and
// do not stop the pass; only listing the configs can fail it.
func (e *Evaluator) Pass(ctx context.Context) error {
	configs, err := e.configs.ListConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list alert configs: %w", err)
	}
	now := time.Now()
	for i := range configs {
		cfg := &configs[i]
		if !cfg.Due(now) {
			continue
		}
		if err := e.Evaluate(ctx, cfg, now); err != nil {
			e.logger.Error().Err(err).Stringer("project_id", cfg.ProjectID).Msg("evaluate project")
		}
	}
	return nil
}

// Evaluate runs the three dimension checks for one config at time now and
// stamps last_checked. Any subset of dimensions may breach; each breach
// stores one notification and attempts one delivery.
func (e *Evaluator) Evaluate(ctx context.Context, cfg *model.AlertConfig, now time.Time) error {
	since := now.Add(-cfg.CheckInterval())

	if cfg.ServerErrorThreshold != nil {
		count, err := e.traffic.CountByCodeRange(ctx, cfg.ProjectID, 500, 599, since)
		if err != nil {
			return fmt.Errorf("count server errors: %w", err)
		}
		if count > *cfg.ServerErrorThreshold {
			n := &model.AlertNotification{
				ProjectID: cfg.ProjectID,
				Description: fmt.Sprintf("Server errors detected: %d errors in the last %d minutes",
					count, cfg.CheckIntervalMinutes),
				ServerErrorThreshold: cfg.ServerErrorThreshold,
				ServerErrorActual:    &count,
				CheckIntervalMinutes: cfg.CheckIntervalMinutes,
			}
			e.emit(ctx, n, "server_error")
		}
	}

	if cfg.ClientErrorThreshold != nil {
		count, err := e.traffic.CountByCodeRange(ctx, cfg.ProjectID, 400, 499, since)
		if err != nil {
			return fmt.Errorf("count client errors: %w", err)
		}
		if count > *cfg.ClientErrorThreshold {
			n := &model.AlertNotification{
				ProjectID: cfg.ProjectID,
				Description: fmt.Sprintf("Client errors detected: %d errors in the last %d minutes",
					count, cfg.CheckIntervalMinutes),
				ClientErrorThreshold: cfg.ClientErrorThreshold,
				ClientErrorActual:    &count,
				CheckIntervalMinutes: cfg.CheckIntervalMinutes,
			}
			e.emit(ctx, n, "client_error")
		}
	}

	if cfg.SlowThresholdMS != nil && cfg.SlowCountThreshold != nil {
		count, err := e.traffic.CountSlow(ctx, cfg.ProjectID, *cfg.SlowThresholdMS/1000, since)
		if err != nil {
			return fmt.Errorf("count slow responses: %w", err)
		}
		if count > *cfg.SlowCountThreshold {
			n := &model.AlertNotification{
				ProjectID: cfg.ProjectID,
				Description: fmt.Sprintf("Slowness detected: %d requests over %.0f ms in the last %d minutes",
					count, *cfg.SlowThresholdMS, cfg.CheckIntervalMinutes),
				SlowThresholdMS:      cfg.SlowThresholdMS,
				SlowCountThreshold:   cfg.SlowCountThreshold,
				SlowCountActual:      &count,
				CheckIntervalMinutes: cfg.CheckIntervalMinutes,
			}
			e.emit(ctx, n, "slow_response")
		}
	}

	if err := e.configs.UpdateLastChecked(ctx, cfg.ID, now); err != nil {
		return fmt.Errorf("update last_checked: %w", err)
	}
	cfg.LastChecked = &now
	return nil
}

// emit stores the notification and attempts delivery. A failed store is
// logged and delivery skipped; a failed delivery is logged and counted but
// the stored notification stands.
func (e *Evaluator) emit(ctx context.Context, n *model.AlertNotification, dimension string) {
	if err := e.configs.InsertNotification(ctx, n); err != nil {
		e.logger.Error().Err(err).Stringer("project_id", n.ProjectID).Msg("store alert notification")
		return
	}
	metrics.AlertsEmitted.WithLabelValues(dimension).Inc()
	e.logger.Info().Stringer("project_id", n.ProjectID).Str("dimension", dimension).Msg(n.Description)

	if e.sink == nil {
		return
	}
	deliveryCtx, cancel := context.WithTimeout(ctx, e.deliveryTimeout)
	defer cancel()
	if err := e.sink.Send(deliveryCtx, n); err != nil {
		metrics.DeliveryFailures.Inc()
		e.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("notification delivery failed")
	}
}
