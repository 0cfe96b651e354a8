package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/config"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

// Page sizes of the admin listings.
const (
	exhibitsPerPage = 10
	commentsPerPage = 20
	usersPerPage    = 20
	statsTopN       = 10
)

// AdminHandler groups the /v1/admin endpoints. Every route is behind
// JWTAuth and RequireRole(ADMIN).
type AdminHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Visitors  *repository.VisitorRepo
	Exhibits  *repository.ExhibitRepo
	Contents  *repository.ContentRepo
	Comments  *repository.CommentRepo
	Museum    *repository.MuseumRepo
	Stats     *repository.StatsRepo
	Store     storage.Store
	MaxUpload int64 // bytes
	Log       *zap.Logger
}

// Dashboard returns the headline counters.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Stats.Totals(ctx)
	if err != nil {
		return serverError(c, h.Log, "load totals failed", err)
	}
	return c.JSON(http.StatusOK, t)
}

// Statistics returns the totals plus the visitor and exhibit leaderboards.
func (h *AdminHandler) Statistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Stats.Totals(ctx)
	if err != nil {
		return serverError(c, h.Log, "load totals failed", err)
	}
	top, err := h.Stats.TopVisitors(ctx, statsTopN)
	if err != nil {
		return serverError(c, h.Log, "load top visitors failed", err)
	}
	popular, err := h.Stats.PopularExhibits(ctx, statsTopN)
	if err != nil {
		return serverError(c, h.Log, "load popular exhibits failed", err)
	}
	if top == nil {
		top = []repository.TopVisitor{}
	}
	if popular == nil {
		popular = []repository.PopularExhibit{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"totals":           t,
		"top_visitors":     top,
		"popular_exhibits": popular,
	})
}
