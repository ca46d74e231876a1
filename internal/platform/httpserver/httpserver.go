package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// New builds the API server. Timeouts bound slow clients; the write timeout
// leaves room for bcrypt on login and registration. Server-level errors such
// as TLS handshake failures go to logger.
func New(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
