package server

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/testportal/core/logger"
)

// Server runs an http.Server with graceful shutdown tied to a context.
type Server struct {
	addr            string
	log             *slog.Logger
	tlsConfig       *tls.Config
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
	maxHeaderBytes  int
	onShutdown      []func()

	mu      sync.Mutex
	running bool
	bound   net.Addr
	ready   chan struct{}
}

// New returns a Server for addr.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		log:             logger.Nop(),
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		idleTimeout:     defaultIdleTimeout,
		shutdownTimeout: defaultShutdownTimeout,
		maxHeaderBytes:  defaultMaxHeaderBytes,
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the bound listener address once the server is listening.
// It blocks until then or until ctx is done.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.bound, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run returns an errgroup-compatible function that serves h until ctx is
// cancelled and then shuts down gracefully. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context, h http.Handler) func() error {
	return func() error {
		if h == nil {
			return ErrMissingHandler
		}

		s.mu.Lock()
		if s.running {
			s.mu.Unlock()
			return ErrServerAlreadyRunning
		}
		s.running = true
		s.mu.Unlock()

		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return err
		}
		if s.tlsConfig != nil {
			ln = tls.NewListener(ln, s.tlsConfig)
		}

		srv := &http.Server{
			Handler:           h,
			ReadTimeout:       s.readTimeout,
			ReadHeaderTimeout: s.readTimeout,
			WriteTimeout:      s.writeTimeout,
			IdleTimeout:       s.idleTimeout,
			MaxHeaderBytes:    s.maxHeaderBytes,
			ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
			BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
		}
		for _, fn := range s.onShutdown {
			srv.RegisterOnShutdown(fn)
		}

		s.mu.Lock()
		s.bound = ln.Addr()
		close(s.ready)
		s.mu.Unlock()

		errCh := make(chan error, 1)
		go func() {
			s.log.InfoContext(ctx, "http server listening",
				logger.Component("server"),
				logger.Key("addr", ln.Addr().String()),
				logger.Key("tls", s.tlsConfig != nil),
			)
			errCh <- srv.Serve(ln)
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		s.log.Info("http server shutting down", logger.Component("server"), logger.Duration(s.shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("http server shutdown failed", logger.Component("server"), logger.Error(err))
			_ = srv.Close()
			return err
		}
		<-errCh
		s.log.Info("http server stopped", logger.Component("server"))
		return nil
	}
}
