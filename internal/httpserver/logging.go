package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger replaces chi's stdlib-backed middleware.Logger with a
// slog-based equivalent: one structured Info line per completed request
// (spec.md §7, "Info for request completion summaries"), carrying the
// request ID middleware.RequestID already attaches to the context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// logInternalFault emits the Error-level line spec.md §7 requires for
// internal faults (orchestrator/tokenizer/generator errors that are never
// client-input mistakes and never injected failures).
func logInternalFault(r *http.Request, model string, err error) {
	slog.Error("internal fault",
		"path", r.URL.Path,
		"model", model,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
	)
}
