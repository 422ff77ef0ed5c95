// Package app assembles the portal from configuration and runs it.
//
// New opens the record directory, the session slot with its change bus, the
// artifact store and the login limiter, then wires them into the portal
// service and the HTTP handler. Run serves until the context is cancelled and
// releases everything on the way out:
//
//	cfg, err := app.LoadConfig()
//	if err != nil {
//		return err
//	}
//	log, err := app.NewLogger(cfg, os.Stdout)
//	if err != nil {
//		return err
//	}
//	a, err := app.New(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	return a.Run(ctx)
//
// Backends are chosen by RECORDS_SOURCE (seed, yaml, sqlite, postgres),
// SESSION_SLOT (memory, redis) and ARTIFACTS_BACKEND (none, local, s3).
package app
