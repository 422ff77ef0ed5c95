package static

import (
	"fmt"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/testportal/core/handler"
)

type fsConfig struct {
	subPath     string
	stripPrefix string
	maxAge      time.Duration
}

// FSOption configures FS.
type FSOption func(*fsConfig)

// WithSubFS serves the given subdirectory of the filesystem.
func WithSubFS(path string) FSOption {
	return func(c *fsConfig) {
		c.subPath = path
	}
}

// WithStripPrefix removes the route prefix from the URL path before lookup.
func WithStripPrefix(prefix string) FSOption {
	return func(c *fsConfig) {
		c.stripPrefix = prefix
	}
}

// WithMaxAge sets the Cache-Control max-age of served files. Zero disables
// caching.
func WithMaxAge(d time.Duration) FSOption {
	return func(c *fsConfig) {
		c.maxAge = d
	}
}

// FS serves files from fsys. It panics when the configured sub-path is not
// a readable directory, so misconfiguration fails at startup.
func FS[C handler.Context](fsys fs.FS, opts ...FSOption) handler.HandlerFunc[C] {
	cfg := &fsConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.subPath != "" {
		sub, err := fs.Sub(fsys, cfg.subPath)
		if err != nil {
			panic(fmt.Sprintf("static: invalid sub-path %q: %v", cfg.subPath, err))
		}
		fsys = sub
	}
	if _, err := fs.Stat(fsys, "."); err != nil {
		panic(fmt.Sprintf("static: filesystem is not readable: %v", err))
	}

	var srv http.Handler = http.FileServer(noListing{http.FS(fsys)})
	if cfg.stripPrefix != "" {
		srv = http.StripPrefix(cfg.stripPrefix, srv)
	}

	cacheControl := "no-cache"
	if cfg.maxAge > 0 {
		cacheControl = "public, max-age=" + strconv.Itoa(int(cfg.maxAge.Seconds()))
	}

	return func(C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Cache-Control", cacheControl)
			srv.ServeHTTP(w, r)
			return nil
		}
	}
}

// noListing hides directories from http.FileServer.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/") {
		return nil, fs.ErrNotExist
	}
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
