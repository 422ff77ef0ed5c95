// Package handler defines the handler contract shared by the router, the
// middleware and the portal's web layer.
//
// A handler receives a typed Context and returns a Response closure instead
// of writing to the http.ResponseWriter directly:
//
//	func dashboard(ctx *router.Context) handler.Response {
//		rec, ok := svc.GetCurrentSession(ctx, middleware.GetClientID(ctx))
//		if !ok {
//			return response.Redirect("/")
//		}
//		return response.TemplateName(views, "dashboard.html", rec)
//	}
//
// Errors returned from a Response are passed to the router's ErrorHandler,
// which decides the status code and body.
package handler
