package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListen               = errors.New("server listen failed")
	ErrShutdown             = errors.New("server shutdown failed")
	ErrLoadCertificate      = errors.New("failed to load certificate")
)
