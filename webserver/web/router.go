package web

import (
	"net/http"
	"strings"

	"github.com/mordilloSan/go-logger/logger"
)

// Config holds router configuration.
type Config struct {
	Verbose        bool
	RegisterRoutes func(mux *http.ServeMux) // called to register API routes
}

// BuildRouter constructs the main HTTP handler: API routes wrapped in the
// logging and recovery middleware.
func BuildRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	if cfg.RegisterRoutes != nil {
		cfg.RegisterRoutes(mux)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})

	var handler http.Handler = mux
	handler = LoggerMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

// HTTPErrorLogAdapter adapts logger.Warnf to the log.Logger interface for
// http.Server.ErrorLog.
type HTTPErrorLogAdapter struct{}

func (HTTPErrorLogAdapter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	// Scanners hammering the port make this line pure noise
	if strings.Contains(msg, "TLS handshake error") {
		return len(p), nil
	}
	logger.Warnf("[http.Server] %s", msg)
	return len(p), nil
}
