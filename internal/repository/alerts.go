package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whowhywhen/whowhywhen/internal/model"
)

// AlertRepository persists alert configs and notifications.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository returns an AlertRepository using the given pool.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const alertConfigColumns = `id, project_id, server_error_threshold, client_error_threshold,
	slow_threshold_ms, slow_count_threshold, check_interval_minutes, last_checked, created_at`

func scanAlertConfig(row pgx.Row, c *model.AlertConfig) error {
	return row.Scan(&c.ID, &c.ProjectID, &c.ServerErrorThreshold, &c.ClientErrorThreshold,
		&c.SlowThresholdMS, &c.SlowCountThreshold, &c.CheckIntervalMinutes, &c.LastChecked, &c.CreatedAt)
}

// GetConfig returns the project's alert config, or nil if none exists.
func (r *AlertRepository) GetConfig(ctx context.Context, projectID uuid.UUID) (*model.AlertConfig, error) {
	var c model.AlertConfig
	err := scanAlertConfig(r.pool.QueryRow(ctx,
		"SELECT "+alertConfigColumns+" FROM alert_configs WHERE project_id = $1", projectID), &c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// UpsertConfig creates or replaces the project's alert config. The unique
// constraint on project_id keeps it one config per project; an update
// preserves last_checked so a threshold change does not trigger an
// immediate re-evaluation storm.
func (r *AlertRepository) UpsertConfig(ctx context.Context, c *model.AlertConfig) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO alert_configs (project_id, server_error_threshold, client_error_threshold,
			slow_threshold_ms, slow_count_threshold, check_interval_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (project_id) DO UPDATE SET
			server_error_threshold = EXCLUDED.server_error_threshold,
			client_error_threshold = EXCLUDED.client_error_threshold,
			slow_threshold_ms = EXCLUDED.slow_threshold_ms,
			slow_count_threshold = EXCLUDED.slow_count_threshold,
			check_interval_minutes = EXCLUDED.check_interval_minutes
		RETURNING id, last_checked, created_at`,
		c.ProjectID, c.ServerErrorThreshold, c.ClientErrorThreshold,
		c.SlowThresholdMS, c.SlowCountThreshold, c.CheckIntervalMinutes,
	).Scan(&c.ID, &c.LastChecked, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert alert config: %w", err)
	}
	return nil
}

// ListConfigs returns every alert config. The evaluator walks this set
// each pass and gates on Due itself.
func (r *AlertRepository) ListConfigs(ctx context.Context) ([]model.AlertConfig, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+alertConfigColumns+" FROM alert_configs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list alert configs: %w", err)
	}
	defer rows.Close()

	var list []model.AlertConfig
	for rows.Next() {
		var c model.AlertConfig
		if err := scanAlertConfig(rows, &c); err != nil {
			return nil, fmt.Errorf("scan alert config: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// UpdateLastChecked stamps the config's last evaluation time. Called
// unconditionally after a pass, breached or not.
func (r *AlertRepository) UpdateLastChecked(ctx context.Context, configID int64, t time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE alert_configs SET last_checked = $2 WHERE id = $1`, configID, t)
	if err != nil {
		return fmt.Errorf("update last_checked: %w", err)
	}
	return nil
}

// InsertNotification stores one breach notification and fills in ID and
// CreatedAt.
func (r *AlertRepository) InsertNotification(ctx context.Context, n *model.AlertNotification) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO alert_notifications (project_id, description,
			server_error_threshold, server_error_actual,
			client_error_threshold, client_error_actual,
			slow_threshold_ms, slow_count_threshold, slow_count_actual,
			check_interval_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		n.ProjectID, n.Description,
		n.ServerErrorThreshold, n.ServerErrorActual,
		n.ClientErrorThreshold, n.ClientErrorActual,
		n.SlowThresholdMS, n.SlowCountThreshold, n.SlowCountActual,
		n.CheckIntervalMinutes,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert notification: %w", err)
	}
	return nil
}

// ListNotificationsForUser returns one page of the user's notifications
// across all owned projects, newest first, with the total count. Returned
// rows are marked read in the same transaction; the read timestamp the
// caller sees is the one that was written.
func (r *AlertRepository) ListNotificationsForUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.AlertNotification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM alert_notifications n
		JOIN projects p ON p.id = n.project_id
		WHERE p.user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT n.id, n.project_id, n.description,
			n.server_error_threshold, n.server_error_actual,
			n.client_error_threshold, n.client_error_actual,
			n.slow_threshold_ms, n.slow_count_threshold, n.slow_count_actual,
			n.check_interval_minutes, n.created_at, n.read_at
		FROM alert_notifications n
		JOIN projects p ON p.id = n.project_id
		WHERE p.user_id = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2 OFFSET $3`, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	var list []model.AlertNotification
	var unreadIDs []int64
	for rows.Next() {
		var n model.AlertNotification
		if err := rows.Scan(&n.ID, &n.ProjectID, &n.Description,
			&n.ServerErrorThreshold, &n.ServerErrorActual,
			&n.ClientErrorThreshold, &n.ClientErrorActual,
			&n.SlowThresholdMS, &n.SlowCountThreshold, &n.SlowCountActual,
			&n.CheckIntervalMinutes, &n.CreatedAt, &n.ReadAt); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if n.ReadAt == nil {
			unreadIDs = append(unreadIDs, n.ID)
		}
		list = append(list, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(unreadIDs) > 0 {
		now := time.Now()
		if _, err := tx.Exec(ctx, `
			UPDATE alert_notifications SET read_at = $2
			WHERE id = ANY($1) AND read_at IS NULL`, unreadIDs, now); err != nil {
			return nil, 0, fmt.Errorf("mark notifications read: %w", err)
		}
		for i := range list {
			if list[i].ReadAt == nil {
				t := now
				list[i].ReadAt = &t
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
