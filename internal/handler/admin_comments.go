package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/repository"
)

type moderateReq struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// ListComments pages through comments; ?filter=all|pending|approved.
func (h *AdminHandler) ListComments(c echo.Context) error {
	filter := c.QueryParam("filter")
	switch filter {
	case "":
		filter = repository.CommentFilterAll
	case repository.CommentFilterAll, repository.CommentFilterPending, repository.CommentFilterApproved:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filter must be one of all, pending, approved"})
	}
	p := pageParam(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	total, err := h.Comments.Count(ctx, filter)
	if err != nil {
		return serverError(c, h.Log, "count comments failed", err)
	}
	list, err := h.Comments.ListFiltered(ctx, filter, commentsPerPage, (p-1)*commentsPerPage)
	if err != nil {
		return serverError(c, h.Log, "list comments failed", err)
	}
	pending, err := h.Comments.Count(ctx, repository.CommentFilterPending)
	if err != nil {
		return serverError(c, h.Log, "count comments failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"filter":   filter,
		"pending":  pending,
		"comments": newPage(toComments(list), p, commentsPerPage, total),
	})
}

// ModerateComment approves a comment or rejects (deletes) it.
func (h *AdminHandler) ModerateComment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	var req moderateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if req.Action == "reject" {
		if err := h.Comments.Delete(ctx, id); err != nil {
			return h.commentError(c, err)
		}
		h.Log.Info("comment rejected", zap.Uint64("comment_id", id))
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.Comments.Approve(ctx, id); err != nil {
		return h.commentError(c, err)
	}
	cm, err := h.Comments.GetByID(ctx, id)
	if err != nil {
		return h.commentError(c, err)
	}
	return c.JSON(http.StatusOK, toComment(cm))
}

func (h *AdminHandler) commentError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrCommentNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
	}
	return serverError(c, h.Log, "comment query failed", err)
}
