package response

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrymomot/testportal/core/handler"
)

// Disposition selects how the browser handles a streamed file.
type Disposition string

const (
	Inline     Disposition = "inline"
	Attachment Disposition = "attachment"
)

// File streams reader to the client and closes it when done. A negative size
// omits Content-Length. An empty contentType is derived from the filename.
func File(reader io.ReadCloser, filename, contentType string, size int64, disposition Disposition) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		defer reader.Close()

		name := sanitizeFilename(filename)
		if disposition == "" {
			disposition = Attachment
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, name))

		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(name))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if size >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}

		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return nil
		}
		_, err := io.Copy(w, reader)
		return err
	}
}

func sanitizeFilename(name string) string {
	return strings.NewReplacer("\n", "", "\r", "", `"`, "'").Replace(name)
}
