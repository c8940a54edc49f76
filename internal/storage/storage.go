// Package storage mirrors exported post pages to an object store.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/rs/zerolog"
)

var storageLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	storageLogger = l
}

var ErrNotFound = errors.New("object not found")

type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// PostPageKey is where the exported page of slug lives: <prefix>/<slug>/index.html.
func PostPageKey(prefix, slug string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(slug, "index.html")
	}
	return path.Join(prefix, slug, "index.html")
}
