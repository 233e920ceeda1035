// Package httpserver constructs the service's http.Server. Decision and
// reconciliation requests do real work downstream (register gateway calls,
// per-item transactions), so the write timeout stays generous while the
// header timeout guards against slow-loris connections.
package httpserver

import (
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 2 * time.Minute
)

// New returns the configured server; the caller owns its lifecycle.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
