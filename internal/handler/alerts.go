package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/whowhywhen/whowhywhen/internal/model"
	"github.com/whowhywhen/whowhywhen/internal/repository"
	"github.com/whowhywhen/whowhywhen/internal/response"
)

// AlertHandler serves alert configuration and the notification feed.
type AlertHandler struct {
	Alerts   *repository.AlertRepository
	Projects *repository.ProjectRepository
}

type alertConfigRequest struct {
	ServerErrorThreshold *int     `json:"server_error_threshold" validate:"omitempty,gte=0"`
	ClientErrorThreshold *int     `json:"client_error_threshold" validate:"omitempty,gte=0"`
	SlowThresholdMS      *float64 `json:"slow_threshold_ms" validate:"omitempty,gt=0"`
	SlowCountThreshold   *int     `json:"slow_count_threshold" validate:"omitempty,gte=0"`
	CheckIntervalMinutes int      `json:"check_interval_minutes" validate:"required,gte=1"`
}

// UpsertConfig creates or replaces the project's alert config
// (PUT /api/projects/:project_id/alerts/config).
func (h *AlertHandler) UpsertConfig(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return response.BadRequest(c, "invalid project id", err.Error())
	}
	project, err := h.Projects.GetByID(c.Request().Context(), projectID)
	if err != nil {
		return response.InternalError(c, "load project", err.Error())
	}
	if project == nil {
		return response.NotFound(c, "project not found", "no project with id "+projectID.String())
	}

	var req alertConfigRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "invalid alert config", err.Error())
	}

	cfg := &model.AlertConfig{
		ProjectID:            projectID,
		ServerErrorThreshold: req.ServerErrorThreshold,
		ClientErrorThreshold: req.ClientErrorThreshold,
		SlowThresholdMS:      req.SlowThresholdMS,
		SlowCountThreshold:   req.SlowCountThreshold,
		CheckIntervalMinutes: req.CheckIntervalMinutes,
	}
	if err := h.Alerts.UpsertConfig(c.Request().Context(), cfg); err != nil {
		return response.InternalError(c, "save alert config", err.Error())
	}
	return response.OK(c, cfg, "")
}

// GetConfig returns the project's alert config, or 404 when none exists
// (GET /api/projects/:project_id/alerts/config).
func (h *AlertHandler) GetConfig(c echo.Context) error {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return response.BadRequest(c, "invalid project id", err.Error())
	}
	cfg, err := h.Alerts.GetConfig(c.Request().Context(), projectID)
	if err != nil {
		return response.InternalError(c, "load alert config", err.Error())
	}
	if cfg == nil {
		return response.NotFound(c, "no alert config", "project has no alert config")
	}
	return response.OK(c, cfg, "")
}

// ListNotifications returns the user's notifications across all owned
// projects, newest first, marking the returned page as read
// (GET /api/users/:user_id/alerts).
func (h *AlertHandler) ListNotifications(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		return response.BadRequest(c, "invalid user id", err.Error())
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)
	list, total, err := h.Alerts.ListNotificationsForUser(c.Request().Context(), userID, page, limit)
	if err != nil {
		return response.InternalError(c, "list notifications", err.Error())
	}
	if list == nil {
		list = []model.AlertNotification{}
	}
	return response.OK(c, map[string]any{
		"total":   total,
		"page":    page,
		"limit":   limit,
		"results": list,
	}, "")
}
