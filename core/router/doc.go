// Package router adapts the chi router to the typed handler contract from
// package handler.
//
// Route patterns, URL parameters, sub-routers and 404/405 detection come from
// github.com/go-chi/chi/v5. On top of it the router adds a typed request
// context, a middleware chain over handler.HandlerFunc, panic recovery and a
// single error handler for every failure path:
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.ErrorHandler[*router.Context]),
//		router.WithLogger[*router.Context](log),
//	)
//	r.Use(middleware.RequestID[*router.Context]())
//	r.Get("/file/{ref}", downloadArtifact)
//
// Middlewares registered with Use apply to routes registered after the call.
// With and Group return a router that shares the routing tree but carries
// additional middlewares for the routes registered through it.
package router
