package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

type museumReq struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description"`
	Location    string `json:"location" validate:"max=255"`
}

// GetMuseum returns the editable settings.
func (h *AdminHandler) GetMuseum(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Museum.Current(ctx)
	if err != nil {
		return serverError(c, h.Log, "load museum failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"museum": toMuseum(h.Store, m), "updated_at": m.UpdatedAt})
}

// UpdateMuseum rewrites name, description and location.
func (h *AdminHandler) UpdateMuseum(c echo.Context) error {
	var req museumReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.Museum.Update(ctx, repository.MuseumFields{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Location:    strings.TrimSpace(req.Location),
	})
	if err != nil {
		return serverError(c, h.Log, "update museum failed", err)
	}
	return c.JSON(http.StatusOK, toMuseum(h.Store, m))
}

// UploadMuseumImage replaces the logo or background image.
func (h *AdminHandler) UploadMuseumImage(c echo.Context) error {
	kind := c.Param("kind")
	if kind != repository.MuseumLogo && kind != repository.MuseumBackground {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be logo or background"})
	}
	data, name, err := readUpload(c, h.MaxUpload)
	if err != nil {
		return uploadError(c, err)
	}
	contentType, ext, err := storage.Sniff(data, storage.CategoryImage)
	if err != nil {
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "file must be an image"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	key := storage.NewKey("museum/"+kind, name, ext)
	if err := h.Store.Put(ctx, key, contentType, data); err != nil {
		return serverError(c, h.Log, "store image failed", err)
	}
	m, err := h.Museum.SetImage(ctx, kind, key)
	if err != nil {
		return serverError(c, h.Log, "update museum failed", err)
	}
	return c.JSON(http.StatusOK, toMuseum(h.Store, m))
}
