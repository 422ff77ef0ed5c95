package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
)

var _ Storage = (*LocalStorage)(nil)

// LocalStorage serves artifacts from a directory on disk.
type LocalStorage struct {
	root *os.Root
	dir  string
}

// NewLocalStorage opens dir as the storage root. Lookups cannot leave it,
// including through symlinks.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, ErrInvalidConfig
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &LocalStorage{root: root, dir: dir}, nil
}

// Dir returns the directory the storage was opened on.
func (s *LocalStorage) Dir() string { return s.dir }

// Open implements Storage.
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, Info{}, classifyContextError(err, "open")
	}
	name, err := CleanKey(key)
	if err != nil {
		return nil, Info{}, fmt.Errorf("%w: %q", err, key)
	}
	key = name

	f, err := s.root.Open(key)
	if err != nil {
		return nil, Info{}, classifyFSError(err, key)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, classifyFSError(err, key)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, Info{}, fmt.Errorf("%w: %s", ErrIsDirectory, key)
	}

	return f, Info{
		Name:        path.Base(key),
		Size:        st.Size(),
		ContentType: ContentTypeOf(key),
		ModTime:     st.ModTime(),
	}, nil
}

// Exists implements Storage.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, classifyContextError(err, "exists")
	}
	key, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	st, err := s.root.Stat(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, classifyFSError(err, key)
	}
	return !st.IsDir(), nil
}

// Close releases the root directory handle.
func (s *LocalStorage) Close() error {
	return s.root.Close()
}

func classifyFSError(err error, key string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, key)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrAccessDenied, key)
	default:
		return fmt.Errorf("open %s: %w", key, err)
	}
}

func classifyContextError(err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s operation", ErrOperationTimeout, operation)
	}
	return fmt.Errorf("%w: %s operation", ErrOperationCanceled, operation)
}
