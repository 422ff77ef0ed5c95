package response

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/router"
)

// ToHTTPError maps err onto an HTTPError. The status comes from
// router.StatusOf. Client errors keep err as the "cause" detail; server
// errors never expose it.
func ToHTTPError(err error) HTTPError {
	var he HTTPError
	if errors.As(err, &he) {
		return he
	}

	code := router.StatusOf(err)
	he, known := httpErrorsByStatus[code]
	switch {
	case known:
	case http.StatusText(code) != "":
		he = newHTTPError(code, "error")
	default:
		he = ErrInternalServerError
	}

	if he.Status >= http.StatusInternalServerError {
		return he
	}
	return he.WithError(err)
}

// ErrorHandler is a router error handler that answers in plain text.
func ErrorHandler[C handler.Context](ctx C, err error) {
	he := ToHTTPError(err)
	Render(ctx, String(he.Message, he.Status))
}

// JSONErrorHandler answers with the HTTPError as a JSON object.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	he := ToHTTPError(err)
	Render(ctx, JSON(he, he.Status))
}
