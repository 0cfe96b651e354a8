package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/qrcode"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

type exhibitReq struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description"`
	Location       string `json:"location" validate:"max=200"`
	SequenceNumber int    `json:"sequence_number" validate:"min=0"`
	IsActive       *bool  `json:"is_active"`
}

func (r exhibitReq) fields(active bool) repository.ExhibitFields {
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return repository.ExhibitFields{
		Title:          strings.TrimSpace(r.Title),
		Description:    r.Description,
		Location:       strings.TrimSpace(r.Location),
		SequenceNumber: r.SequenceNumber,
		IsActive:       active,
	}
}

func (h *AdminHandler) exhibitOut(e *model.Exhibit) adminExhibitResp {
	return adminExhibitResp{
		exhibitResp: toExhibit(e),
		Locator:     e.Locator,
		QRURL:       mediaURL(h.Store, e.QRImageKey),
		ScanText:    qrcode.ScanContent(h.Cfg.PublicBaseURL, e.UUID),
	}
}

// renderQR draws the exhibit's QR code, stores it and records its key.
func (h *AdminHandler) renderQR(ctx context.Context, e *model.Exhibit) ([]byte, error) {
	png, err := qrcode.Render(qrcode.ScanContent(h.Cfg.PublicBaseURL, e.UUID))
	if err != nil {
		return nil, err
	}
	key := qrcode.ImageKey(e.UUID)
	if err := h.Store.Put(ctx, key, "image/png", png); err != nil {
		return nil, err
	}
	if err := h.Exhibits.SetQRImageKey(ctx, e.ID, key); err != nil {
		return nil, err
	}
	e.QRImageKey = &key
	return png, nil
}

// ListExhibits pages through all exhibits in sequence order.
func (h *AdminHandler) ListExhibits(c echo.Context) error {
	p := pageParam(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	total, err := h.Exhibits.Count(ctx)
	if err != nil {
		return serverError(c, h.Log, "count exhibits failed", err)
	}
	list, err := h.Exhibits.ListPaged(ctx, exhibitsPerPage, (p-1)*exhibitsPerPage)
	if err != nil {
		return serverError(c, h.Log, "list exhibits failed", err)
	}
	items := make([]adminExhibitResp, 0, len(list))
	for _, e := range list {
		items = append(items, h.exhibitOut(e))
	}
	return c.JSON(http.StatusOK, newPage(items, p, exhibitsPerPage, total))
}

// CreateExhibit assigns a UUID and locator, stores the exhibit and renders
// its QR image. A QR failure is logged and healed on the next GET /qr.
func (h *AdminHandler) CreateExhibit(c echo.Context) error {
	var req exhibitReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id := uuid.NewString()
	e, err := h.Exhibits.Create(ctx, id, qrcode.Locator(id), req.fields(true))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "exhibit already exists"})
		}
		return serverError(c, h.Log, "create exhibit failed", err)
	}
	if _, err := h.renderQR(ctx, e); err != nil {
		h.Log.Warn("qr render failed", zap.Uint64("exhibit_id", e.ID), zap.Error(err))
	}
	return c.JSON(http.StatusCreated, h.exhibitOut(e))
}

// GetExhibit returns one exhibit with its content, if any.
func (h *AdminHandler) GetExhibit(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibit id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	e, err := h.Exhibits.GetByID(ctx, id)
	if err != nil {
		return h.exhibitError(c, err)
	}
	resp := echo.Map{"exhibit": h.exhibitOut(e), "content": nil}
	ct, err := h.Contents.GetByExhibit(ctx, id)
	switch {
	case err == nil:
		resp["content"] = toAdminContent(h.Store, ct)
	case !errors.Is(err, repository.ErrContentNotFound):
		return serverError(c, h.Log, "load content failed", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateExhibit rewrites the editable fields. UUID and locator never change.
func (h *AdminHandler) UpdateExhibit(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibit id"})
	}
	var req exhibitReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	cur, err := h.Exhibits.GetByID(ctx, id)
	if err != nil {
		return h.exhibitError(c, err)
	}
	e, err := h.Exhibits.Update(ctx, id, req.fields(cur.IsActive))
	if err != nil {
		return h.exhibitError(c, err)
	}
	return c.JSON(http.StatusOK, h.exhibitOut(e))
}

// DeleteExhibit removes the exhibit with its content, comments and visits.
func (h *AdminHandler) DeleteExhibit(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibit id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Exhibits.Delete(ctx, id); err != nil {
		return h.exhibitError(c, err)
	}
	h.Log.Info("exhibit deleted", zap.Uint64("exhibit_id", id))
	return c.NoContent(http.StatusNoContent)
}

// ExhibitQR returns the PNG QR code, rendering it again when the stored
// image is missing.
func (h *AdminHandler) ExhibitQR(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibit id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	e, err := h.Exhibits.GetByID(ctx, id)
	if err != nil {
		return h.exhibitError(c, err)
	}
	var png []byte
	if e.QRImageKey != nil {
		png, _, err = h.Store.Get(ctx, *e.QRImageKey)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return serverError(c, h.Log, "read qr failed", err)
		}
	}
	if png == nil {
		if png, err = h.renderQR(ctx, e); err != nil {
			return serverError(c, h.Log, "render qr failed", err)
		}
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="qr_`+e.UUID+`.png"`)
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *AdminHandler) exhibitError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrExhibitNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibit not found"})
	}
	return serverError(c, h.Log, "exhibit query failed", err)
}
