package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/whowhywhen/whowhywhen/internal/model"
	"github.com/whowhywhen/whowhywhen/internal/repository"
	"github.com/whowhywhen/whowhywhen/internal/response"
)

// ProjectHandler registers the project identities the external account
// system hands over.
type ProjectHandler struct {
	Projects *repository.ProjectRepository
}

type createProjectRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Name   string    `json:"name" validate:"required"`
}

// Create registers a project (POST /api/projects).
func (h *ProjectHandler) Create(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "invalid project", err.Error())
	}
	project := &model.Project{UserID: req.UserID, Name: req.Name}
	if err := h.Projects.Create(c.Request().Context(), project); err != nil {
		return response.InternalError(c, "create project", err.Error())
	}
	return response.Created(c, project, "")
}

// Get returns one project (GET /api/projects/:project_id).
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		return response.BadRequest(c, "invalid project id", err.Error())
	}
	project, err := h.Projects.GetByID(c.Request().Context(), id)
	if err != nil {
		return response.InternalError(c, "load project", err.Error())
	}
	if project == nil {
		return response.NotFound(c, "project not found", "no project with id "+id.String())
	}
	return response.OK(c, project, "")
}
