package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/SMCodesP/imgtransform/internal/config"
)

// ErrNotFound reports a key that does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Object is a stored blob with its declared content type.
type Object struct {
	Data        []byte
	ContentType string
}

// ObjectStore reads and writes whole objects by key.
type ObjectStore interface {
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.Store) (ObjectStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "s3":
		return NewS3(ctx, cfg)
	case "gcs":
		return NewGCS(ctx, cfg)
	case "sftp":
		return NewSFTP(ctx, cfg)
	case "local":
		return NewLocal(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// objectKey joins a configured prefix and a key with exactly one slash.
func objectKey(prefix, key string) string {
	key = strings.TrimPrefix(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(strings.Trim(prefix, "/"), key)
}

// cleanKey rejects keys that would escape a directory root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("key %q escapes the store root", key)
	}
	return clean, nil
}
