package handler // handler defines http handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qrmuseum/museum-api/internal/middleware"
	"github.com/qrmuseum/museum-api/internal/queue"
)

// requestTimeout bounds the database work of a single request.
const requestTimeout = 5 * time.Second

// ActivityPublisher forwards visitor activity to the message broker.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// getUserID extracts the authenticated user id placed in the context by
// the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

// pageParam reads ?page=, defaulting to 1 for missing or bad values.
func pageParam(c echo.Context) int {
	p, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

type page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPage[T any](items []T, p, size, total int) page[T] {
	if items == nil {
		items = []T{}
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return page[T]{Items: items, Page: p, PageSize: size, Total: total, TotalPages: pages}
}

// serverError logs err and answers with a generic 500.
func serverError(c echo.Context, log *zap.Logger, msg string, err error) error {
	log.Error(msg, zap.Error(err), zap.String("route", c.Path()))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// publish sends ev without letting broker trouble fail the request.
func publish(c echo.Context, p ActivityPublisher, ev queue.ActivityEvent) {
	if p == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()
	_ = p.Publish(ctx, ev)
}

var errTooLarge = errors.New("upload too large")

// readUpload loads the multipart field "file" into memory, refusing
// anything above maxBytes.
func readUpload(c echo.Context, maxBytes int64) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, "", errTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", errTooLarge
	}
	return data, fh.Filename, nil
}
