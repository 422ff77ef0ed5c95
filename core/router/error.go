package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/testportal/core/handler"
)

var (
	ErrNotFound         = errors.New("router: no route")
	ErrMethodNotAllowed = errors.New("router: method not allowed")
	ErrNilResponse      = errors.New("router: handler returned no response")
	ErrNilHandler       = errors.New("router: nil handler")
	ErrNoContextFactory = errors.New("router: context factory required for custom context type")
)

// StatusOf picks the response status for err. Errors with a StatusCode
// method decide for themselves; anything unknown is a 500.
func StatusOf(err error) int {
	var sc interface{ StatusCode() int }
	switch {
	case errors.As(err, &sc):
		return sc.StatusCode()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func defaultErrorHandler[C handler.Context](ctx C, err error) {
	code := StatusOf(err)
	http.Error(ctx.ResponseWriter(), http.StatusText(code), code)
}

// PanicError carries a value recovered from a handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("router: panic: %v", e.Value) }

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}
