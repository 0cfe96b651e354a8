// Package storage keeps uploaded media and generated QR images in a blob
// store addressed by slash-separated keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/qrmuseum/museum-api/internal/config"
)

var (
	// ErrNotFound is returned by Get for unknown keys.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that escape the store root.
	ErrInvalidKey = errors.New("invalid object key")
)

// Store is the blob storage collaborator.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	// URL is the public path clients use to fetch key.
	URL(key string) string
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.MediaURLBase)
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// cleanKey normalises key and rejects absolute paths and parent
// references.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", ErrInvalidKey
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidKey
	}
	return c, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
