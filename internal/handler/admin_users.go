package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/repository"
)

type levelReq struct {
	Level int `json:"level" validate:"required,min=1,max=1000"`
}

// ListUsers pages through accounts with their visitor profiles.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	p := pageParam(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	total, err := h.Users.Count(ctx)
	if err != nil {
		return serverError(c, h.Log, "count users failed", err)
	}
	list, err := h.Users.ListPaged(ctx, usersPerPage, (p-1)*usersPerPage)
	if err != nil {
		return serverError(c, h.Log, "list users failed", err)
	}
	items := make([]userResp, 0, len(list))
	for _, u := range list {
		items = append(items, toUser(h.Store, u))
	}
	return c.JSON(http.StatusOK, newPage(items, p, usersPerPage, total))
}

// SetUserLevel adjusts a visitor's level.
func (h *AdminHandler) SetUserLevel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req levelReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		return h.userError(c, err)
	}
	if _, err := h.Visitors.Ensure(ctx, id); err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	if err := h.Visitors.SetLevel(ctx, id, req.Level); err != nil {
		return serverError(c, h.Log, "update level failed", err)
	}
	v, err := h.Visitors.GetByUser(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "load profile failed", err)
	}
	return c.JSON(http.StatusOK, toVisitor(h.Store, v))
}

// DeleteUser removes an account and everything it owns. Admins cannot
// delete themselves.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	if self, err := getUserID(c); err == nil && self == id {
		return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete own account"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return h.userError(c, err)
	}
	h.Log.Info("user deleted", zap.Uint64("user_id", id))
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) userError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return serverError(c, h.Log, "user query failed", err)
}
