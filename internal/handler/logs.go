package handler

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/whowhywhen/whowhywhen/internal/analytics"
	"github.com/whowhywhen/whowhywhen/internal/cache"
	"github.com/whowhywhen/whowhywhen/internal/enrich"
	"github.com/whowhywhen/whowhywhen/internal/repository"
	"github.com/whowhywhen/whowhywhen/internal/response"
)

// LogHandler serves the ingestion and query API under
// /api/projects/:project_id.
type LogHandler struct {
	Enricher *enrich.Enricher
	Engine   *analytics.Engine
	Projects *repository.ProjectRepository
	Cache    *cache.Cache // may be nil
	Logger   zerolog.Logger
}

type submitRequest struct {
	enrich.Submission
	ResolveLocation bool `json:"resolve_location"`
}

type bulkSubmitRequest struct {
	Logs            []enrich.Submission `json:"logs" validate:"required,min=1"`
	ResolveLocation bool                `json:"resolve_location"`
}

// projectID parses and checks the :project_id path param against the
// project store. Returns uuid.Nil after writing the error response.
func (h *LogHandler) projectID(c echo.Context) uuid.UUID {
	id, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		_ = response.BadRequest(c, "invalid project id", err.Error())
		return uuid.Nil
	}
	project, err := h.Projects.GetByID(c.Request().Context(), id)
	if err != nil {
		_ = response.InternalError(c, "load project", err.Error())
		return uuid.Nil
	}
	if project == nil {
		_ = response.NotFound(c, "project not found", "no project with id "+id.String())
		return uuid.Nil
	}
	return id
}

// Submit stores one enriched record (POST /api/projects/:project_id/logs).
func (h *LogHandler) Submit(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "invalid submission", err.Error())
	}
	record, err := h.Enricher.Ingest(c.Request().Context(), projectID, req.Submission, req.ResolveLocation)
	if err != nil {
		return response.InternalError(c, "store log", err.Error())
	}
	return response.Created(c, record, "")
}

// SubmitBulk stores an ordered batch, returning whatever stored
// successfully (POST /api/projects/:project_id/logs/bulk). Partial success
// is the contract, not an error.
func (h *LogHandler) SubmitBulk(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	var req bulkSubmitRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "invalid batch", err.Error())
	}
	stored := h.Enricher.IngestBatch(c.Request().Context(), projectID, req.Logs, req.ResolveLocation)
	return response.Created(c, map[string]any{
		"submitted": len(req.Logs),
		"stored":    len(stored),
		"logs":      stored,
	}, "")
}

// List returns the paginated record listing
// (GET /api/projects/:project_id/logs).
func (h *LogHandler) List(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	f := parseFilters(c, projectID)
	opts := repository.ListOptions{
		Page:     intQuery(c, "page", 1),
		Limit:    intQuery(c, "limit", 50),
		SortBy:   c.QueryParam("sort_by"),
		SortDesc: c.QueryParam("sort_dir") == "desc",
	}
	result, err := h.Engine.List(c.Request().Context(), f, opts)
	if err != nil {
		return response.InternalError(c, "list logs", err.Error())
	}
	return response.OK(c, result, "")
}

// Stats returns the gap-filled time-bucket series
// (GET /api/projects/:project_id/stats).
func (h *LogHandler) Stats(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	f := parseFilters(c, projectID)
	freq := analytics.ParseFrequency(c.QueryParam("frequency"))
	result, err := h.Engine.Stats(c.Request().Context(), f, freq)
	if err != nil {
		return response.InternalError(c, "compute stats", err.Error())
	}
	return response.OK(c, result, "")
}

// Summary returns the categorical counts, read through the cache when one
// is configured (GET /api/projects/:project_id/summary).
func (h *LogHandler) Summary(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	ctx := c.Request().Context()
	f := parseFilters(c, projectID)

	cacheKey := "summary:" + projectID.String() + ":" + c.QueryString()
	var cached analytics.SummaryResult
	if hit, err := h.Cache.Get(ctx, cacheKey, &cached); err != nil {
		h.Logger.Warn().Err(err).Msg("summary cache read failed")
	} else if hit {
		return response.OK(c, &cached, "")
	}

	result, err := h.Engine.Summary(ctx, f)
	if err != nil {
		return response.InternalError(c, "compute summary", err.Error())
	}
	if err := h.Cache.Set(ctx, cacheKey, result); err != nil {
		h.Logger.Warn().Err(err).Msg("summary cache write failed")
	}
	return response.OK(c, result, "")
}

// Bots returns the bot leaderboard (GET /api/projects/:project_id/bots).
func (h *LogHandler) Bots(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	f := parseFilters(c, projectID)
	limit := intQuery(c, "limit", 10)
	result, err := h.Engine.BotLeaderboard(c.Request().Context(), f, limit)
	if err != nil {
		return response.InternalError(c, "compute bot leaderboard", err.Error())
	}
	return response.OK(c, map[string]any{"bots": result}, "")
}

// Events returns the first-occurrence feed
// (GET /api/projects/:project_id/events).
func (h *LogHandler) Events(c echo.Context) error {
	projectID := h.projectID(c)
	if projectID == uuid.Nil {
		return nil
	}
	typeFilter := c.QueryParam("type")
	result, err := h.Engine.Events(c.Request().Context(), projectID, typeFilter,
		intQuery(c, "offset", 0), intQuery(c, "limit", 10))
	if err != nil {
		return response.BadRequest(c, "invalid events query", err.Error())
	}
	return response.OK(c, result, "")
}

// parseFilters reads the common filter set from query params.
func parseFilters(c echo.Context, projectID uuid.UUID) repository.Filters {
	f := repository.Filters{
		ProjectID:         projectID,
		PathPrefix:        c.QueryParam("path"),
		IPPrefix:          c.QueryParam("ip"),
		UserAgentContains: c.QueryParam("user_agent"),
		LocationPrefix:    c.QueryParam("location"),
		Search:            c.QueryParam("search"),
		BotsOnly:          c.QueryParam("bots_only") == "true",
	}
	if raw := c.QueryParam("response_code"); raw != "" {
		if code, err := strconv.Atoi(raw); err == nil {
			f.ResponseCode = &code
		}
	}
	if raw := c.QueryParam("start"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.Start = &t
		}
	}
	if raw := c.QueryParam("end"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.End = &t
		}
	}
	return f
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
