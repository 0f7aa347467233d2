package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BucketRow is one non-empty time bucket as returned by the database. The
// analytics engine gap-fills the window around these.
type BucketRow struct {
	Bucket          time.Time
	Count2xx        int
	Count3xx        int
	Count4xx        int
	Count5xx        int
	AvgResponseTime float64
}

var truncUnits = map[string]bool{"minute": true, "hour": true, "day": true}

// TimeBuckets groups matching records by created_at truncated to unit
// (minute, hour or day) and returns per-bucket status-class counts and the
// average response time. Only buckets with at least one record appear.
func (r *LogRepository) TimeBuckets(ctx context.Context, f Filters, unit string) ([]BucketRow, error) {
	if !truncUnits[unit] {
		return nil, fmt.Errorf("unsupported bucket unit %q", unit)
	}
	var args []any
	where := f.WhereClause(&args, "")
	args = append(args, unit)
	query := fmt.Sprintf(`
		SELECT date_trunc($%d, created_at AT TIME ZONE 'UTC') AS bucket,
			COUNT(*) FILTER (WHERE response_code BETWEEN 200 AND 299),
			COUNT(*) FILTER (WHERE response_code BETWEEN 300 AND 399),
			COUNT(*) FILTER (WHERE response_code BETWEEN 400 AND 499),
			COUNT(*) FILTER (WHERE response_code BETWEEN 500 AND 599),
			COALESCE(AVG(response_time), 0)
		FROM api_logs
		WHERE %s
		GROUP BY bucket
		ORDER BY bucket`, len(args), where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("time buckets: %w", err)
	}
	defer rows.Close()

	var out []BucketRow
	for rows.Next() {
		var b BucketRow
		if err := rows.Scan(&b.Bucket, &b.Count2xx, &b.Count3xx, &b.Count4xx, &b.Count5xx, &b.AvgResponseTime); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.Bucket = b.Bucket.UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountRow is one histogram entry.
type CountRow struct {
	Key   string
	Count int64
}

var facetColumns = map[string]bool{"browser_family": true, "os_family": true}

// FacetCounts returns the histogram of a facet column, largest first. Bot
// traffic is excluded unless botsOnly flips the histogram to bots only;
// records with an empty facet value are skipped either way.
func (r *LogRepository) FacetCounts(ctx context.Context, f Filters, column string, botsOnly bool) ([]CountRow, error) {
	if !facetColumns[column] {
		return nil, fmt.Errorf("unsupported facet column %q", column)
	}
	botCond := "NOT is_bot"
	if botsOnly {
		botCond = "is_bot"
	}
	var args []any
	where := f.WhereClause(&args, "")
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM api_logs
		WHERE %s AND %s AND %s <> ''
		GROUP BY %s
		ORDER BY COUNT(*) DESC, MIN(created_at)`, column, where, botCond, column, column)
	return r.countRows(ctx, query, args)
}

// deviceTypeCase classifies a record into exactly one device bucket. The
// WHEN order is the priority: a bot record stays Bot whatever its device
// flags say, and a record with no flag set at all lands in Other.
const deviceTypeCase = `CASE
		WHEN is_bot THEN 'Bot'
		WHEN is_mobile THEN 'Phone'
		WHEN is_tablet THEN 'Tablet'
		WHEN is_pc THEN 'PC'
		ELSE 'Other'
	END`

// DeviceTypeCounts partitions matching records into Phone, Tablet, PC, Bot
// and Other. The CASE priority makes the five buckets a partition: every
// record lands in exactly one.
func (r *LogRepository) DeviceTypeCounts(ctx context.Context, f Filters) ([]CountRow, error) {
	var args []any
	where := f.WhereClause(&args, "")
	query := fmt.Sprintf(`
		SELECT %s AS device_type, COUNT(*)
		FROM api_logs
		WHERE %s
		GROUP BY device_type
		ORDER BY COUNT(*) DESC`, deviceTypeCase, where)
	return r.countRows(ctx, query, args)
}

// ResponseCodeRow is one response-code histogram entry.
type ResponseCodeRow struct {
	Code  int
	Count int64
}

// ResponseCodeCounts returns per-code counts for records that carry a
// response code, largest first.
func (r *LogRepository) ResponseCodeCounts(ctx context.Context, f Filters) ([]ResponseCodeRow, error) {
	var args []any
	where := f.WhereClause(&args, "")
	query := fmt.Sprintf(`
		SELECT response_code, COUNT(*)
		FROM api_logs
		WHERE %s AND response_code IS NOT NULL
		GROUP BY response_code
		ORDER BY COUNT(*) DESC, response_code`, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("response code counts: %w", err)
	}
	defer rows.Close()
	var out []ResponseCodeRow
	for rows.Next() {
		var row ResponseCodeRow
		if err := rows.Scan(&row.Code, &row.Count); err != nil {
			return nil, fmt.Errorf("scan response code count: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UserAgentCounts returns per-user-agent counts, largest first; ties keep
// first-encountered order (earliest created_at wins).
func (r *LogRepository) UserAgentCounts(ctx context.Context, f Filters) ([]CountRow, error) {
	var args []any
	where := f.WhereClause(&args, "")
	query := fmt.Sprintf(`
		SELECT user_agent, COUNT(*)
		FROM api_logs
		WHERE %s AND user_agent <> ''
		GROUP BY user_agent
		ORDER BY COUNT(*) DESC, MIN(created_at)`, where)
	return r.countRows(ctx, query, args)
}

// TopPaths returns the most-hit paths within the filter set.
func (r *LogRepository) TopPaths(ctx context.Context, f Filters, limit int) ([]CountRow, error) {
	var args []any
	where := f.WhereClause(&args, "")
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT path, COUNT(*)
		FROM api_logs
		WHERE %s AND path <> ''
		GROUP BY path
		ORDER BY COUNT(*) DESC, MIN(created_at)
		LIMIT $%d`, where, len(args))
	return r.countRows(ctx, query, args)
}

func (r *LogRepository) countRows(ctx context.Context, query string, args []any) ([]CountRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	defer rows.Close()
	var out []CountRow
	for rows.Next() {
		var row CountRow
		if err := rows.Scan(&row.Key, &row.Count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountByCodeRange counts records for project with a response code in
// [lo, hi] created at or after since. The alert evaluator's error
// dimensions use it.
func (r *LogRepository) CountByCodeRange(ctx context.Context, projectID uuid.UUID, lo, hi int, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM api_logs
		WHERE project_id = $1 AND response_code BETWEEN $2 AND $3 AND created_at >= $4`,
		projectID, lo, hi, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by code range: %w", err)
	}
	return n, nil
}

// CountSlow counts records for project slower than threshold (seconds)
// created at or after since.
func (r *LogRepository) CountSlow(ctx context.Context, projectID uuid.UUID, thresholdSeconds float64, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM api_logs
		WHERE project_id = $1 AND response_time > $2 AND created_at >= $3`,
		projectID, thresholdSeconds, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count slow: %w", err)
	}
	return n, nil
}

// BotTrafficRow is one leaderboard entry straight from the database.
type BotTrafficRow struct {
	BotID       int64
	Name        string
	Website     string
	Count       int64
	LastSeen    time.Time
	MobileCount int64
	TabletCount int64
	PCCount     int64
}

// BotTraffic returns the top bots by matching traffic volume with their
// device-class breakdown and most recent sighting.
func (r *LogRepository) BotTraffic(ctx context.Context, f Filters, limit int) ([]BotTrafficRow, error) {
	var args []any
	where := f.WhereClause(&args, "l.")
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT l.bot_id, b.name, b.website, COUNT(*), MAX(l.created_at),
			COUNT(*) FILTER (WHERE l.is_mobile),
			COUNT(*) FILTER (WHERE l.is_tablet),
			COUNT(*) FILTER (WHERE l.is_pc)
		FROM api_logs l
		JOIN bot_signatures b ON b.id = l.bot_id
		WHERE %s AND l.bot_id IS NOT NULL
		GROUP BY l.bot_id, b.name, b.website
		ORDER BY COUNT(*) DESC, MAX(l.created_at) DESC
		LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bot traffic: %w", err)
	}
	defer rows.Close()
	var out []BotTrafficRow
	for rows.Next() {
		var row BotTrafficRow
		if err := rows.Scan(&row.BotID, &row.Name, &row.Website, &row.Count, &row.LastSeen,
			&row.MobileCount, &row.TabletCount, &row.PCCount); err != nil {
			return nil, fmt.Errorf("scan bot traffic: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BotCodeCounts returns the response-code distribution for one bot's
// matching traffic, largest first.
func (r *LogRepository) BotCodeCounts(ctx context.Context, f Filters, botID int64, limit int) ([]ResponseCodeRow, error) {
	var args []any
	where := f.WhereClause(&args, "")
	botArg := fmt.Sprintf("$%d", len(args)+1)
	limitArg := fmt.Sprintf("$%d", len(args)+2)
	args = append(args, botID, limit)
	query := fmt.Sprintf(`
		SELECT response_code, COUNT(*)
		FROM api_logs
		WHERE %s AND bot_id = %s AND response_code IS NOT NULL
		GROUP BY response_code
		ORDER BY COUNT(*) DESC, response_code
		LIMIT %s`, where, botArg, limitArg)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bot code counts: %w", err)
	}
	defer rows.Close()
	var out []ResponseCodeRow
	for rows.Next() {
		var row ResponseCodeRow
		if err := rows.Scan(&row.Code, &row.Count); err != nil {
			return nil, fmt.Errorf("scan bot code count: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BotPathCounts returns the most-hit paths for one bot's matching traffic.
func (r *LogRepository) BotPathCounts(ctx context.Context, f Filters, botID int64, limit int) ([]CountRow, error) {
	var args []any
	where := f.WhereClause(&args, "")
	botArg := fmt.Sprintf("$%d", len(args)+1)
	limitArg := fmt.Sprintf("$%d", len(args)+2)
	args = append(args, botID, limit)
	query := fmt.Sprintf(`
		SELECT path, COUNT(*)
		FROM api_logs
		WHERE %s AND bot_id = %s AND path <> ''
		GROUP BY path
		ORDER BY COUNT(*) DESC, MIN(created_at)
		LIMIT %s`, where, botArg, limitArg)
	return r.countRows(ctx, query, args)
}

// EventRow is one first-occurrence event: the earliest successful request
// for a distinct path or a distinct bot.
type EventRow struct {
	EventType string // "endpoint" or "bot"
	LogID     uuid.UUID
	Path      string
	BotID     *int64
	CreatedAt time.Time
}

const endpointEventsSQL = `
	SELECT DISTINCT ON (path) 'endpoint' AS event_type, id, path, NULL::bigint AS bot_id, created_at
	FROM api_logs
	WHERE project_id = $1 AND response_code BETWEEN 200 AND 299 AND path <> ''
	ORDER BY path, created_at`

const botEventsSQL = `
	SELECT DISTINCT ON (bot_id) 'bot' AS event_type, id, path, bot_id, created_at
	FROM api_logs
	WHERE project_id = $1 AND response_code BETWEEN 200 AND 299 AND bot_id IS NOT NULL
	ORDER BY bot_id, created_at`

func eventBranches(typeFilter string) []string {
	switch typeFilter {
	case "endpoints":
		return []string{endpointEventsSQL}
	case "bots":
		return []string{botEventsSQL}
	default:
		return []string{endpointEventsSQL, botEventsSQL}
	}
}

// Events returns first-occurrence events oldest-first. typeFilter is
// "endpoints", "bots" or "both"; anything else behaves as "both".
func (r *LogRepository) Events(ctx context.Context, projectID uuid.UUID, typeFilter string, offset, limit int) ([]EventRow, error) {
	branches := eventBranches(typeFilter)
	wrapped := make([]string, len(branches))
	for i, b := range branches {
		wrapped[i] = "SELECT * FROM (" + b + ") AS branch" + fmt.Sprint(i)
	}
	query := strings.Join(wrapped, " UNION ALL ") + " ORDER BY created_at, id LIMIT $2 OFFSET $3"

	rows, err := r.pool.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	defer rows.Close()
	var out []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(&e.EventType, &e.LogID, &e.Path, &e.BotID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEvents returns the total number of first-occurrence events for the
// given type filter.
func (r *LogRepository) CountEvents(ctx context.Context, projectID uuid.UUID, typeFilter string) (int64, error) {
	parts := make([]string, 0, 2)
	if typeFilter == "endpoints" || typeFilter != "bots" {
		parts = append(parts, `
			COALESCE((SELECT COUNT(DISTINCT path) FROM api_logs
				WHERE project_id = $1 AND response_code BETWEEN 200 AND 299 AND path <> ''), 0)`)
	}
	if typeFilter == "bots" || typeFilter != "endpoints" {
		parts = append(parts, `
			COALESCE((SELECT COUNT(DISTINCT bot_id) FROM api_logs
				WHERE project_id = $1 AND response_code BETWEEN 200 AND 299 AND bot_id IS NOT NULL), 0)`)
	}
	var total int64
	err := r.pool.QueryRow(ctx, "SELECT "+strings.Join(parts, " + "), projectID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}
