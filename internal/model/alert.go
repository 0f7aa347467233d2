package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertConfig holds per-project alerting thresholds. At most one config
// exists per project. Thresholds are independently optional; a nil threshold
// means that dimension is never evaluated.
type AlertConfig struct {
	ID                   int64      `db:"id" json:"id"`
	ProjectID            uuid.UUID  `db:"project_id" json:"project_id"`
	ServerErrorThreshold *int       `db:"server_error_threshold" json:"server_error_threshold,omitempty"`
	ClientErrorThreshold *int       `db:"client_error_threshold" json:"client_error_threshold,omitempty"`
	SlowThresholdMS      *float64   `db:"slow_threshold_ms" json:"slow_threshold_ms,omitempty"`
	SlowCountThreshold   *int       `db:"slow_count_threshold" json:"slow_count_threshold,omitempty"`
	CheckIntervalMinutes int        `db:"check_interval_minutes" json:"check_interval_minutes"`
	LastChecked          *time.Time `db:"last_checked" json:"last_checked,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
}

// CheckInterval returns the evaluation interval as a duration.
func (c *AlertConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// Due reports whether the config should be evaluated at now: the interval
// has elapsed since the last evaluation, or it has never been evaluated.
func (c *AlertConfig) Due(now time.Time) bool {
	if c.LastChecked == nil {
		return true
	}
	return now.Sub(*c.LastChecked) > c.CheckInterval()
}

// AlertNotification records one threshold breach. Exactly one dimension's
// threshold/actual pair is populated per notification.
type AlertNotification struct {
	ID                   int64      `db:"id" json:"id"`
	ProjectID            uuid.UUID  `db:"project_id" json:"project_id"`
	Description          string     `db:"description" json:"description"`
	ServerErrorThreshold *int       `db:"server_error_threshold" json:"server_error_threshold,omitempty"`
	ServerErrorActual    *int       `db:"server_error_actual" json:"server_error_actual,omitempty"`
	ClientErrorThreshold *int       `db:"client_error_threshold" json:"client_error_threshold,omitempty"`
	ClientErrorActual    *int       `db:"client_error_actual" json:"client_error_actual,omitempty"`
	SlowThresholdMS      *float64   `db:"slow_threshold_ms" json:"slow_threshold_ms,omitempty"`
	SlowCountThreshold   *int       `db:"slow_count_threshold" json:"slow_count_threshold,omitempty"`
	SlowCountActual      *int       `db:"slow_count_actual" json:"slow_count_actual,omitempty"`
	CheckIntervalMinutes int        `db:"check_interval_minutes" json:"check_interval_minutes"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	ReadAt               *time.Time `db:"read_at" json:"read_at,omitempty"`
}
