package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/testportal/core/cookie"
	"github.com/dmitrymomot/testportal/core/handler"
	"github.com/dmitrymomot/testportal/core/idle"
	"github.com/dmitrymomot/testportal/core/logger"
	"github.com/dmitrymomot/testportal/core/login"
	"github.com/dmitrymomot/testportal/core/record"
	"github.com/dmitrymomot/testportal/core/response"
	"github.com/dmitrymomot/testportal/core/router"
	"github.com/dmitrymomot/testportal/core/storage"
	"github.com/dmitrymomot/testportal/internal/portal"
	"github.com/dmitrymomot/testportal/middleware"
)

// Portal is the session service the handlers drive.
type Portal interface {
	LoginWithCredentials(ctx context.Context, client, identity, secret string) (record.Record, error)
	GetCurrentSession(ctx context.Context, client string) (record.Record, bool)
	Logout(ctx context.Context, client string) error
	Activity(ctx context.Context, client string, sig idle.Signal) bool
	Watch(ctx context.Context, client string) <-chan portal.SessionState
	DemoFallback(ctx context.Context) (record.Record, bool)
}

const (
	flashLogin = "login"

	msgInvalidCredentials = "Invalid email or password!"
	msgMissingFields      = "Please enter your email and password."
	msgLoginFailed        = "Login failed, please try again"
)

type flash struct {
	Message  string `json:"message"`
	Identity string `json:"identity,omitempty"`
}

// handlers holds the page and API handlers.
type handlers struct {
	cfg       Config
	portal    Portal
	cookies   *cookie.Manager
	artifacts storage.Storage
	views     *views
	log       *slog.Logger
	shutdown  <-chan struct{}
}

func clientOf(ctx *router.Context) string {
	id, _ := middleware.GetClient(ctx)
	return id
}

func (h *handlers) loginPage(ctx *router.Context) handler.Response {
	if _, ok := h.portal.GetCurrentSession(ctx, clientOf(ctx)); ok {
		return response.RedirectSeeOther("/home")
	}

	data := pageData{Title: "Login"}
	var f flash
	if err := h.cookies.GetFlash(ctx.ResponseWriter(), ctx.Request(), flashLogin, &f); err == nil {
		data.Flash = f.Message
		data.Identity = f.Identity
	} else if !errors.Is(err, cookie.ErrCookieNotFound) {
		h.log.DebugContext(ctx, "discarding unreadable flash", logger.Error(err))
	}

	return h.views.render(pageLogin, data, http.StatusOK)
}

func (h *handlers) login(ctx *router.Context) handler.Response {
	r := ctx.Request()
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return response.Error(response.ErrPayloadTooLarge)
		}
		return response.Error(response.ErrBadRequest.WithError(err))
	}
	identity := r.PostFormValue("email")
	secret := r.PostFormValue("password")

	_, err := h.portal.LoginWithCredentials(ctx, clientOf(ctx), identity, secret)
	if err == nil {
		return response.RedirectSeeOther("/home")
	}

	f := flash{Message: msgLoginFailed, Identity: identity}
	switch {
	case errors.Is(err, login.ErrInvalidCredentials):
		f.Message = msgInvalidCredentials
	case errors.Is(err, login.ErrMissingIdentity), errors.Is(err, login.ErrMissingSecret):
		f.Message = msgMissingFields
	case errors.Is(err, context.Canceled):
		return response.Error(err)
	}

	return h.withFlash(f, response.RedirectSeeOther("/"))
}

func (h *handlers) withFlash(f flash, next handler.Response) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		if err := h.cookies.SetFlash(w, flashLogin, f); err != nil {
			return err
		}
		return next(w, r)
	}
}

func (h *handlers) dashboard(ctx *router.Context) handler.Response {
	if rec, ok := h.portal.GetCurrentSession(ctx, clientOf(ctx)); ok {
		return h.views.render(pageDashboard, pageData{
			Title:   "Dashboard",
			Session: true,
			Student: newStudentView(rec),
		}, http.StatusOK)
	}

	if rec, ok := h.portal.DemoFallback(ctx); ok {
		return h.views.render(pageDashboard, pageData{
			Title:   "Dashboard",
			Demo:    true,
			Student: newStudentView(rec),
		}, http.StatusOK)
	}

	return response.RedirectSeeOther("/")
}

func (h *handlers) results(ctx *router.Context) handler.Response {
	rec, ok := h.portal.GetCurrentSession(ctx, clientOf(ctx))
	if !ok {
		return response.RedirectSeeOther("/")
	}
	return h.views.render(pageResults, pageData{
		Title:   "My tests and results",
		Session: true,
		Student: newStudentView(rec),
	}, http.StatusOK)
}

func (h *handlers) logout(ctx *router.Context) handler.Response {
	if err := h.portal.Logout(ctx, clientOf(ctx)); err != nil {
		return response.Error(err)
	}
	return response.RedirectSeeOther("/")
}

// artifact streams the result document of the current session. Only the
// session's own document is served; any other name is reported as missing.
func (h *handlers) artifact(ctx *router.Context) handler.Response {
	rec, ok := h.portal.GetCurrentSession(ctx, clientOf(ctx))
	if !ok {
		return response.RedirectSeeOther("/")
	}

	ref := ctx.Param("ref")
	if h.artifacts == nil || !rec.HasArtifact() || ref != rec.ArtifactRef {
		return response.Error(response.ErrNotFound)
	}

	rc, info, err := h.artifacts.Open(ctx, ref)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileNotFound), errors.Is(err, storage.ErrInvalidPath), errors.Is(err, storage.ErrIsDirectory):
			h.log.WarnContext(ctx, "result document missing",
				logger.Component("artifacts"),
				logger.Identity(rec.Identity),
				logger.Key("ref", ref),
				logger.Error(err),
			)
			return response.Error(response.ErrNotFound)
		case errors.Is(err, storage.ErrServiceUnavailable), errors.Is(err, storage.ErrOperationTimeout):
			return response.Error(response.ErrServiceUnavailable.WithError(err))
		}
		return response.Error(err)
	}

	return response.NoStore(response.File(rc, ref, info.ContentType, info.Size, response.Attachment))
}

// activity renews the idle deadline for clients without a sync socket.
func (h *handlers) activity(ctx *router.Context) handler.Response {
	sig, err := idle.ParseSignal(ctx.Request().FormValue("signal"))
	if err != nil {
		return response.Error(response.ErrBadRequest.WithError(err))
	}
	if !h.portal.Activity(ctx, clientOf(ctx), sig) {
		return response.Error(response.ErrUnauthorized)
	}
	return response.NoContent()
}

// errorPage renders failures as HTML and logs server errors.
func (h *handlers) errorPage(ctx *router.Context, err error) {
	status := router.StatusOf(err)

	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(ctx, "request failed",
			logger.Path(ctx.Request().URL.Path),
			logger.StatusCode(status),
			logger.Error(err),
		)
	}

	response.Render(ctx, h.views.render(pageError, errorData(status), status))
}
