package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrMissingHandler       = errors.New("server handler is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrIncompleteTLS        = errors.New("both TLS certificate and key files are required")
)
