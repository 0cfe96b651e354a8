package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qrmuseum/museum-api/internal/model"
	"github.com/qrmuseum/museum-api/internal/repository"
	"github.com/qrmuseum/museum-api/internal/storage"
)

// contentReq is a partial update: omitted toggles keep their stored value,
// or default to true for new content.
type contentReq struct {
	ContentType string  `json:"content_type" validate:"required,oneof=text image video audio multiple"`
	Title       string  `json:"title" validate:"required,max=200"`
	Body        string  `json:"body"`
	VideoURL    *string `json:"video_url" validate:"omitempty,max=500"`
	History     string  `json:"history"`
	Science     string  `json:"science"`
	Trivia      string  `json:"trivia"`
	IsActive    *bool   `json:"is_active"`
	ShowImage   *bool   `json:"show_image"`
	ShowVideo   *bool   `json:"show_video"`
	ShowAudio   *bool   `json:"show_audio"`
	ShowFile    *bool   `json:"show_file"`
	ShowHistory *bool   `json:"show_history"`
	ShowScience *bool   `json:"show_science"`
	ShowTrivia  *bool   `json:"show_trivia"`
}

func (r contentReq) fields(cur *model.ExhibitContent) repository.ContentFields {
	f := repository.ContentFields{
		IsActive: true, ShowImage: true, ShowVideo: true, ShowAudio: true, ShowFile: true,
		ShowHistory: true, ShowScience: true, ShowTrivia: true,
	}
	if cur != nil {
		f.IsActive, f.ShowImage, f.ShowVideo, f.ShowAudio = cur.IsActive, cur.ShowImage, cur.ShowVideo, cur.ShowAudio
		f.ShowFile, f.ShowHistory, f.ShowScience, f.ShowTrivia = cur.ShowFile, cur.ShowHistory, cur.ShowScience, cur.ShowTrivia
	}
	overlay := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	overlay(&f.IsActive, r.IsActive)
	overlay(&f.ShowImage, r.ShowImage)
	overlay(&f.ShowVideo, r.ShowVideo)
	overlay(&f.ShowAudio, r.ShowAudio)
	overlay(&f.ShowFile, r.ShowFile)
	overlay(&f.ShowHistory, r.ShowHistory)
	overlay(&f.ShowScience, r.ShowScience)
	overlay(&f.ShowTrivia, r.ShowTrivia)

	f.ContentType = r.ContentType
	f.Title = strings.TrimSpace(r.Title)
	f.Body = r.Body
	f.History, f.Science, f.Trivia = r.History, r.Science, r.Trivia
	if r.VideoURL != nil {
		if v := strings.TrimSpace(*r.VideoURL); v != "" {
			f.VideoURL = &v
		}
	}
	return f
}

// UpsertContent creates or replaces the exhibit's content. It answers 201
// when the row was created and 200 otherwise.
func (h *AdminHandler) UpsertContent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibit id"})
	}
	var req contentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Exhibits.GetByID(ctx, id); err != nil {
		return h.exhibitError(c, err)
	}
	cur, err := h.Contents.GetByExhibit(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrContentNotFound) {
		return serverError(c, h.Log, "load content failed", err)
	}
	ct, created, err := h.Contents.Upsert(ctx, id, req.fields(cur))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "content changed concurrently, retry"})
		}
		return serverError(c, h.Log, "save content failed", err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toAdminContent(h.Store, ct))
}

// UploadContentMedia stores a media file in one of the content's slots.
// The upload must sniff as the slot's kind, except for "file".
func (h *AdminHandler) UploadContentMedia(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exhibit id"})
	}
	kind := c.Param("kind")
	switch kind {
	case repository.MediaImage, repository.MediaVideo, repository.MediaAudio, repository.MediaFile:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be one of image, video, audio, file"})
	}
	data, name, err := readUpload(c, h.MaxUpload)
	if err != nil {
		return uploadError(c, err)
	}
	contentType, ext, err := storage.Sniff(data, kind)
	if err != nil {
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": "file is not of kind " + kind})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if _, err := h.Contents.GetByExhibit(ctx, id); err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibit has no content"})
		}
		return serverError(c, h.Log, "load content failed", err)
	}
	key := storage.NewKey("exhibit_contents/"+kind, name, ext)
	if err := h.Store.Put(ctx, key, contentType, data); err != nil {
		return serverError(c, h.Log, "store media failed", err)
	}
	if err := h.Contents.SetMedia(ctx, id, kind, key); err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "exhibit has no content"})
		}
		return serverError(c, h.Log, "save media failed", err)
	}
	ct, err := h.Contents.GetByExhibit(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "load content failed", err)
	}
	return c.JSON(http.StatusOK, toAdminContent(h.Store, ct))
}
