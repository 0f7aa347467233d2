package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whowhywhen/whowhywhen/internal/model"
)

// LogRepository persists and reads enriched log records.
type LogRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository returns a LogRepository using the given pool.
func NewLogRepository(pool *pgxpool.Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

const logColumns = `id, project_id, url, path, ip_address, user_agent,
	browser_family, browser_version, os_family, os_version,
	device_family, device_brand, device_model,
	is_mobile, is_tablet, is_pc, is_touch_capable, is_bot,
	bot_id, location, response_code, response_code_text, response_time, created_at`

func scanLog(row pgx.Row, l *model.APILog) error {
	return row.Scan(
		&l.ID, &l.ProjectID, &l.URL, &l.Path, &l.IPAddress, &l.UserAgent,
		&l.BrowserFamily, &l.BrowserVersion, &l.OSFamily, &l.OSVersion,
		&l.DeviceFamily, &l.DeviceBrand, &l.DeviceModel,
		&l.IsMobile, &l.IsTablet, &l.IsPC, &l.IsTouchCapable, &l.IsBot,
		&l.BotID, &l.Location, &l.ResponseCode, &l.ResponseText, &l.ResponseTime, &l.CreatedAt,
	)
}

// Insert stores a record and its query parameters in one transaction.
func (r *LogRepository) Insert(ctx context.Context, log *model.APILog, params map[string]string) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO api_logs (id, project_id, url, path, ip_address, user_agent,
			browser_family, browser_version, os_family, os_version,
			device_family, device_brand, device_model,
			is_mobile, is_tablet, is_pc, is_touch_capable, is_bot,
			bot_id, location, response_code, response_code_text, response_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		log.ID, log.ProjectID, log.URL, log.Path, log.IPAddress, log.UserAgent,
		log.BrowserFamily, log.BrowserVersion, log.OSFamily, log.OSVersion,
		log.DeviceFamily, log.DeviceBrand, log.DeviceModel,
		log.IsMobile, log.IsTablet, log.IsPC, log.IsTouchCapable, log.IsBot,
		log.BotID, log.Location, log.ResponseCode, log.ResponseText, log.ResponseTime, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	for key, value := range params {
		if key == "" || value == "" {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO api_log_query_params (api_log_id, key, value)
			VALUES ($1, $2, $3)`, log.ID, key, value); err != nil {
			return fmt.Errorf("insert query param %q: %w", key, err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateLocation fills in the resolved location after the record exists.
// This is the only post-insert write on api_logs; the background
// geolocation pass uses it.
func (r *LogRepository) UpdateLocation(ctx context.Context, id uuid.UUID, location string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE api_logs SET location = $2 WHERE id = $1`, id, location)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// sortColumns is the allow-list of listing sort keys. Unknown keys fall
// back to created_at descending.
var sortColumns = map[string]string{
	"path":          "l.path",
	"user_agent":    "l.user_agent",
	"ip_address":    "l.ip_address",
	"response_code": "l.response_code",
	"response_time": "l.response_time",
	"created_at":    "l.created_at",
}

// ListOptions control pagination and ordering of List.
type ListOptions struct {
	Page     int
	Limit    int
	SortBy   string
	SortDesc bool
}

// List returns one page of matching records with query params attached and
// the bot signature joined for bot traffic, plus the total matching count.
func (r *LogRepository) List(ctx context.Context, f Filters, opts ListOptions) ([]model.APILog, int64, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = 50
	}
	orderBy, ok := sortColumns[opts.SortBy]
	dir := "ASC"
	if !ok {
		orderBy, dir = "l.created_at", "DESC"
	} else if opts.SortDesc {
		dir = "DESC"
	}

	var args []any
	where := f.WhereClause(&args, "l.")

	var total int64
	countQuery := "SELECT COUNT(*) FROM api_logs l WHERE " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	limitArg := fmt.Sprintf("$%d", len(args)+1)
	offsetArg := fmt.Sprintf("$%d", len(args)+2)
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	query := fmt.Sprintf(`
		SELECT %s,
			b.id, b.name, b.website, b.pattern, b.created_at
		FROM api_logs l
		LEFT JOIN bot_signatures b ON b.id = l.bot_id
		WHERE %s
		ORDER BY %s %s, l.id
		LIMIT %s OFFSET %s`,
		prefixColumns("l.", logColumns), where, orderBy, dir, limitArg, offsetArg)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var list []model.APILog
	for rows.Next() {
		var l model.APILog
		var botID *int64
		var botName, botWebsite, botPattern *string
		var botCreated *time.Time
		if err := rows.Scan(
			&l.ID, &l.ProjectID, &l.URL, &l.Path, &l.IPAddress, &l.UserAgent,
			&l.BrowserFamily, &l.BrowserVersion, &l.OSFamily, &l.OSVersion,
			&l.DeviceFamily, &l.DeviceBrand, &l.DeviceModel,
			&l.IsMobile, &l.IsTablet, &l.IsPC, &l.IsTouchCapable, &l.IsBot,
			&l.BotID, &l.Location, &l.ResponseCode, &l.ResponseText, &l.ResponseTime, &l.CreatedAt,
			&botID, &botName, &botWebsite, &botPattern, &botCreated,
		); err != nil {
			return nil, 0, fmt.Errorf("scan log: %w", err)
		}
		if botID != nil {
			l.Bot = &model.BotSignature{ID: *botID, Name: deref(botName), Website: deref(botWebsite), Pattern: deref(botPattern)}
			if botCreated != nil {
				l.Bot.CreatedAt = *botCreated
			}
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachQueryParams(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *LogRepository) attachQueryParams(ctx context.Context, list []model.APILog) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(list))
	index := make(map[uuid.UUID]int, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = i
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, api_log_id, key, value
		FROM api_log_query_params
		WHERE api_log_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("list query params: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p model.QueryParam
		if err := rows.Scan(&p.ID, &p.APILogID, &p.Key, &p.Value); err != nil {
			return fmt.Errorf("scan query param: %w", err)
		}
		if i, ok := index[p.APILogID]; ok {
			list[i].QueryParams = append(list[i].QueryParams, p)
		}
	}
	return rows.Err()
}

// GetByID returns one record with query params, or nil if not found.
func (r *LogRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.APILog, error) {
	var l model.APILog
	err := scanLog(r.pool.QueryRow(ctx,
		"SELECT "+logColumns+" FROM api_logs WHERE id = $1", id), &l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	list := []model.APILog{l}
	if err := r.attachQueryParams(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
