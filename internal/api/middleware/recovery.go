package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/bingopot/internal/api/apierr"
	"github.com/mcoot/bingopot/internal/middleware"
)

// Logging tags API requests with an X-Request-ID and logs each one
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}

// Recovery turns a handler panic into a 500 INTERNAL_ERROR body. It must be
// inside Logging so the response writer records what was already sent.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	// An event stream that already sent data cannot switch to a JSON error
	if rw, ok := w.(*middleware.ResponseWriter); ok && rw.Size() > 0 {
		return
	}
	apierr.WriteError(w, apierr.NewInternalError())
}
