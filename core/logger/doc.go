// Package logger builds log/slog loggers for the portal and provides
// attribute helpers with consistent key names.
//
//	log := logger.New(
//		logger.WithProduction("testportal"),
//		logger.WithContextExtractors(middleware.RequestIDExtractor),
//	)
//	log.InfoContext(ctx, "session saved",
//		logger.Component("session"),
//		logger.Client(clientID),
//		logger.Identity(rec.Identity),
//	)
//
// Attribute helpers return an empty slog.Attr for nil errors and empty
// strings. slog drops empty attributes, so helpers can be used without
// guarding.
package logger
