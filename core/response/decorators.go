package response

import (
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
)

// WithHeaders sets headers before rendering response.
func WithHeaders(response handler.Response, headers map[string]string) handler.Response {
	if response == nil || len(headers) == 0 {
		return response
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		return response(w, r)
	}
}

// NoStore marks the response as uncacheable. Pages that show session data use
// it so the back button never reveals a record after logout.
func NoStore(response handler.Response) handler.Response {
	return WithHeaders(response, map[string]string{
		"Cache-Control": "no-cache, no-store, must-revalidate",
		"Pragma":        "no-cache",
		"Expires":       "0",
	})
}
