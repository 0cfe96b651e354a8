package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/progress"
	"github.com/qrmuseum/museum-api/internal/queue"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

// VisitorHandler serves the endpoints of a logged-in visitor: comments,
// progress and profile.
type VisitorHandler struct {
	Exhibits  *repository.ExhibitRepo
	Contents  *repository.ContentRepo
	Comments  *repository.CommentRepo
	Visitors  *repository.VisitorRepo
	Visits    *repository.VisitRepo
	Tracker   *progress.Tracker
	Store     storage.Store
	Publisher ActivityPublisher
	MaxUpload int64 // bytes
	Log       *zap.Logger
}

type commentReq struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,max=5000"`
}

type profileReq struct {
	Nickname string `json:"nickname" validate:"max=100"`
}

// CreateComment stores an unapproved comment on the exhibit's content.
func (h *VisitorHandler) CreateComment(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req commentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": echo.Map{"text": "is required"}})
	}

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
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibit has no content"})
		}
		return serverError(c, h.Log, "load content failed", err)
	}
	if !content.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibit has no content"})
	}

	cm, counted, err := h.Comments.Create(ctx, uid, content.ID, req.Rating, text)
	if err != nil {
		return serverError(c, h.Log, "create comment failed", err)
	}
	if !counted {
		h.Log.Warn("comment stored without visitor profile", zap.Uint64("user_id", uid), zap.Uint64("comment_id", cm.ID))
	}

	publish(c, h.Publisher, queue.ActivityEvent{
		Type:         queue.EventCommentSubmitted,
		UserID:       uid,
		ExhibitID:    ex.ID,
		ExhibitUUID:  ex.UUID,
		ExhibitTitle: ex.Title,
		CommentID:    cm.ID,
		Rating:       cm.Rating,
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"comment": toComment(cm),
		"message": "comment submitted and awaiting approval",
	})
}

// Progress summarises what the caller has visited and written.
func (h *VisitorHandler) Progress(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	profile, err := h.Visitors.Ensure(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	visited, err := h.Visits.ListByUser(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load visits failed", err)
	}
	comments, err := h.Comments.ListByUser(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load comments failed", err)
	}
	total, err := h.Exhibits.CountActive(ctx)
	if err != nil {
		return serverError(c, h.Log, "count exhibits failed", err)
	}
	pct, err := h.Tracker.CompletionPercentage(ctx, uid, total)
	if err != nil {
		return serverError(c, h.Log, "progress failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"profile":        toVisitor(h.Store, profile),
		"visited":        toVisited(visited),
		"comments":       toComments(comments),
		"visited_count":  len(visited),
		"total_exhibits": total,
		"percentage":     pct,
	})
}

// UpdateProfile changes the caller's nickname.
func (h *VisitorHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Visitors.Ensure(ctx, uid); err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	if err := h.Visitors.UpdateNickname(ctx, uid, strings.TrimSpace(req.Nickname)); err != nil {
		return serverError(c, h.Log, "update profile failed", err)
	}
	profile, err := h.Visitors.GetByUser(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, toVisitor(h.Store, profile))
}

// UploadAvatar replaces the caller's avatar with the posted image.
func (h *VisitorHandler) UploadAvatar(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	data, name, err := readUpload(c, h.MaxUpload)
	if err != nil {
		return uploadError(c, err)
	}
	contentType, ext, err := storage.Sniff(data, storage.CategoryImage)
	if err != nil {
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "avatar must be an image"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Visitors.Ensure(ctx, uid); err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	key := storage.NewKey("avatars", name, ext)
	if err := h.Store.Put(ctx, key, contentType, data); err != nil {
		return serverError(c, h.Log, "store avatar failed", err)
	}
	if err := h.Visitors.SetAvatar(ctx, uid, key); err != nil {
		return serverError(c, h.Log, "update profile failed", err)
	}
	profile, err := h.Visitors.GetByUser(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, toVisitor(h.Store, profile))
}

// uploadError maps readUpload failures to client errors.
func uploadError(c echo.Context, err error) error {
	if errors.Is(err, errTooLarge) {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart field \"file\" required"})
}
