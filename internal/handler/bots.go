package handler

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/whowhywhen/whowhywhen/internal/model"
	"github.com/whowhywhen/whowhywhen/internal/repository"
	"github.com/whowhywhen/whowhywhen/internal/response"
)

// MatcherRefresher invalidates the in-process signature cache after an
// import. Implemented by bots.Matcher.
type MatcherRefresher interface {
	Refresh(ctx context.Context) error
}

// BotHandler serves the administrative signature import.
type BotHandler struct {
	Bots    *repository.BotRepository
	Matcher MatcherRefresher
}

type createSignatureRequest struct {
	Name    string `json:"name" validate:"required"`
	Website string `json:"website"`
	Pattern string `json:"pattern" validate:"required"`
}

// CreateSignature imports one signature and refreshes the matcher cache so
// new traffic matches it immediately (POST /api/bots).
func (h *BotHandler) CreateSignature(c echo.Context) error {
	var req createSignatureRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid JSON body", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "invalid bot signature", err.Error())
	}
	sig := &model.BotSignature{Name: req.Name, Website: req.Website, Pattern: req.Pattern}
	if err := h.Bots.CreateSignature(c.Request().Context(), sig); err != nil {
		if errors.Is(err, repository.ErrDuplicateSignature) {
			return response.BadRequest(c, "duplicate bot signature", err.Error())
		}
		return response.InternalError(c, "create bot signature", err.Error())
	}
	if h.Matcher != nil {
		if err := h.Matcher.Refresh(c.Request().Context()); err != nil {
			return response.InternalError(c, "refresh bot matcher", err.Error())
		}
	}
	return response.Created(c, sig, "")
}

// ListSignatures returns all known signatures (GET /api/bots).
func (h *BotHandler) ListSignatures(c echo.Context) error {
	list, err := h.Bots.ListSignatures(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "list bot signatures", err.Error())
	}
	if list == nil {
		list = []model.BotSignature{}
	}
	return response.OK(c, map[string]any{"bots": list}, "")
}
