package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/progress"
	"github.com/qrmuseum/museum-api/internal/queue"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

// PublicHandler serves the museum pages that guests can open and the QR
// scan endpoint. Routes behind OptionalJWT also see the caller's identity
// when a bearer token is sent.
type PublicHandler struct {
	Museum    *repository.MuseumRepo
	Exhibits  *repository.ExhibitRepo
	Contents  *repository.ContentRepo
	Comments  *repository.CommentRepo
	Visitors  *repository.VisitorRepo
	Visits    *repository.VisitRepo
	Tracker   *progress.Tracker
	Store     storage.Store
	Publisher ActivityPublisher
	Log       *zap.Logger
}

// GetMuseum returns the museum settings.
func (h *PublicHandler) GetMuseum(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Museum.Current(ctx)
	if err != nil {
		return serverError(c, h.Log, "load museum failed", err)
	}
	return c.JSON(http.StatusOK, toMuseum(h.Store, m))
}

// Home returns the landing data. Authenticated callers also get their
// profile and how far through the collection they are.
func (h *PublicHandler) Home(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Museum.Current(ctx)
	if err != nil {
		return serverError(c, h.Log, "load museum failed", err)
	}
	total, err := h.Exhibits.CountActive(ctx)
	if err != nil {
		return serverError(c, h.Log, "count exhibits failed", err)
	}
	resp := echo.Map{
		"museum":         toMuseum(h.Store, m),
		"total_exhibits": total,
		"authenticated":  false,
	}

	uid, ok := getUserIDOptional(c)
	if !ok {
		return c.JSON(http.StatusOK, resp)
	}
	profile, err := h.Visitors.Ensure(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	visited, err := h.Visits.CountByUser(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "count visits failed", err)
	}
	pct, err := h.Tracker.CompletionPercentage(ctx, uid, total)
	if err != nil {
		return serverError(c, h.Log, "progress failed", err)
	}
	resp["authenticated"] = true
	resp["profile"] = toVisitor(h.Store, profile)
	resp["visited_count"] = visited
	resp["percentage"] = pct
	return c.JSON(http.StatusOK, resp)
}

// ScanExhibit is the target of a QR code. It resolves the exhibit by its
// UUID, records the visit for authenticated callers and returns the
// unlocked content with approved comments.
func (h *PublicHandler) ScanExhibit(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ex, err := h.Exhibits.GetActiveByUUID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrExhibitNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibit not found"})
		}
		return serverError(c, h.Log, "load exhibit failed", err)
	}

	content, err := h.Contents.GetByExhibit(ctx, ex.ID)
	if err != nil && !errors.Is(err, repository.ErrContentNotFound) {
		return serverError(c, h.Log, "load content failed", err)
	}
	pub := toPublicContent(h.Store, content)

	comments := []commentResp{}
	if pub != nil {
		list, err := h.Comments.ListApprovedByContent(ctx, content.ID)
		if err != nil {
			return serverError(c, h.Log, "load comments failed", err)
		}
		comments = toComments(list)
	}

	resp := echo.Map{
		"exhibit":  toExhibit(ex),
		"content":  pub,
		"comments": comments,
	}

	uid, ok := getUserIDOptional(c)
	if !ok {
		return c.JSON(http.StatusOK, resp)
	}
	if _, err := h.Visitors.Ensure(ctx, uid); err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	rec, created, err := h.Tracker.RecordVisit(ctx, uid, ex.ID)
	if err != nil {
		return serverError(c, h.Log, "record visit failed", err)
	}
	awarded := 0
	if created {
		awarded = progress.VisitReward
	}
	publish(c, h.Publisher, queue.ActivityEvent{
		Type:         queue.EventVisitRecorded,
		UserID:       uid,
		ExhibitID:    ex.ID,
		ExhibitUUID:  ex.UUID,
		ExhibitTitle: ex.Title,
		FirstVisit:   created,
		Points:       awarded,
	})
	resp["first_visit"] = created
	resp["points_awarded"] = awarded
	resp["visited_at"] = rec.VisitedAt
	return c.JSON(http.StatusOK, resp)
}

// Media streams a stored blob by key.
func (h *PublicHandler) Media(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	data, contentType, err := h.Store.Get(ctx, c.Param("*"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return serverError(c, h.Log, "read media failed", err)
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=3600")
	return c.Blob(http.StatusOK, contentType, data)
}

// getUserIDOptional is getUserID for routes that also serve guests.
func getUserIDOptional(c echo.Context) (uint64, bool) {
	id, err := getUserID(c)
	return id, err == nil
}
