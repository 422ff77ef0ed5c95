package storage

import (
	"context"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// Storage opens stored artifacts by key.
type Storage interface {
	// Open returns a reader for the key. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, Info, error)
	// Exists reports whether the key resolves to a readable file.
	Exists(ctx context.Context, key string) (bool, error)
}

// Info describes an opened artifact.
type Info struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// CleanKey normalizes a key and rejects keys that are empty, absolute
// or point outside the storage root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") || strings.ContainsRune(key, 0) {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrInvalidPath
		}
	}
	cleaned := path.Clean(key)
	if cleaned == "." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// ContentTypeOf guesses the media type from the key extension.
func ContentTypeOf(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
