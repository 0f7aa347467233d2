package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Filters is the common filter set shared by every query family: listing,
// time buckets, categorical counts, the bot leaderboard. One builder renders
// the WHERE clause everywhere so the predicates cannot drift apart between
// endpoints.
type Filters struct {
	ProjectID         uuid.UUID
	PathPrefix        string
	IPPrefix          string
	UserAgentContains string
	LocationPrefix    string
	ResponseCode      *int
	Search            string
	Start             *time.Time
	End               *time.Time
	BotsOnly          bool
}

// WhereClause renders the filter predicates joined with AND. Column names
// are prefixed with prefix (e.g. "l.") for queries that join. Arguments are
// appended to args so callers can keep adding their own placeholders after.
func (f Filters) WhereClause(args *[]any, prefix string) string {
	arg := func(v any) string {
		*args = append(*args, v)
		return fmt.Sprintf("$%d", len(*args))
	}
	col := func(name string) string { return prefix + name }

	conds := make([]string, 0, 10)
	conds = append(conds, col("project_id")+" = "+arg(f.ProjectID))
	if f.PathPrefix != "" {
		conds = append(conds, col("path")+" LIKE "+arg(escapeLike(f.PathPrefix)+"%"))
	}
	if f.IPPrefix != "" {
		conds = append(conds, col("ip_address")+" LIKE "+arg(escapeLike(f.IPPrefix)+"%"))
	}
	if f.UserAgentContains != "" {
		conds = append(conds, col("user_agent")+" ILIKE "+arg("%"+escapeLike(f.UserAgentContains)+"%"))
	}
	if f.LocationPrefix != "" {
		conds = append(conds, col("location")+" ILIKE "+arg(escapeLike(f.LocationPrefix)+"%"))
	}
	if f.ResponseCode != nil {
		conds = append(conds, col("response_code")+" = "+arg(*f.ResponseCode))
	}
	if f.Search != "" {
		p := arg("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf("(%s ILIKE %s OR %s ILIKE %s OR %s ILIKE %s)",
			col("path"), p, col("user_agent"), p, col("ip_address"), p))
	}
	if f.Start != nil {
		conds = append(conds, col("created_at")+" >= "+arg(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, col("created_at")+" <= "+arg(*f.End))
	}
	if f.BotsOnly {
		conds = append(conds, col("is_bot"))
	}
	return strings.Join(conds, " AND ")
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
