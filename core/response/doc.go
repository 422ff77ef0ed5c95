// Package response builds handler.Response values: text, JSON, templates,
// redirects, streamed files and WebSocket upgrades.
//
// Handlers return a response instead of writing to the ResponseWriter:
//
//	func dashboard(ctx *router.Context) handler.Response {
//		return response.NoStore(response.Template(pages, "home", data))
//	}
//
// Returning response.Error(err) hands the error to the router's error
// handler. HTTPError values carry their own status; ToHTTPError converts any
// other error, honouring a StatusCode() method when present.
//
// Templates are rendered into a buffer before the status line is written, so
// a template failure still reaches the error handler with a clean writer.
package response
