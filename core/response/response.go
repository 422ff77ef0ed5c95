package response

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Render runs resp outside the router, for error handlers. A failing resp
// turns into a bare 500.
func Render(ctx handler.Context, resp handler.Response) {
	if resp == nil {
		return
	}
	w := ctx.ResponseWriter()
	if err := resp(w, ctx.Request()); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Error passes err to the router's error handler.
func Error(err error) handler.Response {
	return func(http.ResponseWriter, *http.Request) error { return err }
}

// write sends status and body. A zero status is 200.
func write(w http.ResponseWriter, status int, contentType string, body []byte) error {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

func String(content string, status int) handler.Response {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return write(w, status, contentTypeText, []byte(content))
	}
}

// JSON encodes v. With a zero status a nil v answers 204, anything else 200.
func JSON(v any, status int) handler.Response {
	return func(w http.ResponseWriter, _ *http.Request) error {
		if v == nil && (status == 0 || status == http.StatusNoContent) {
			return write(w, http.StatusNoContent, "", nil)
		}
		body, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return write(w, status, contentTypeJSON, append(body, '\n'))
	}
}

func NoContent() handler.Response {
	return func(w http.ResponseWriter, _ *http.Request) error {
		return write(w, http.StatusNoContent, "", nil)
	}
}

// Redirect answers with a 3xx. Other statuses become 302 Found.
func Redirect(url string, status int) handler.Response {
	if status < http.StatusMultipleChoices || status >= http.StatusBadRequest {
		status = http.StatusFound
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		http.Redirect(w, r, url, status)
		return nil
	}
}

// RedirectSeeOther ends a POST with a redirect the browser follows as GET.
func RedirectSeeOther(url string) handler.Response {
	return Redirect(url, http.StatusSeeOther)
}
