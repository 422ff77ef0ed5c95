// Package server runs an HTTP handler with graceful shutdown.
//
// Run returns a function suited to errgroup: it listens on the configured
// address, serves until the context is cancelled, then drains in-flight
// requests within the shutdown timeout.
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	return g.Wait()
//
// Handlers holding long-lived connections register WithOnShutdown callbacks
// so they are released before the drain deadline.
package server
