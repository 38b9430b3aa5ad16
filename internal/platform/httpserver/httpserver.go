package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server. Write timeout stays above the gateway client timeout
// so payment requests can report upstream timeouts themselves.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
}
