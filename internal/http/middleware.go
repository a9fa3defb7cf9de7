package http

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/redmonkez12/places-api/internal/httputil"
	"github.com/redmonkez12/places-api/internal/logging"
)

// SecurityHeaders adds security-related headers to all responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		switch {
		case strings.HasPrefix(r.URL.Path, "/swagger/"):
			// Swagger UI needs scripts, styles, and images to render
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		case strings.HasPrefix(r.URL.Path, "/uploads/"):
			// Images are embedded by other origins
			w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
			w.Header().Set("Content-Security-Policy", "default-src 'none'")
		default:
			w.Header().Set("Content-Security-Policy", "default-src 'none'")
		}

		next.ServeHTTP(w, r)
	})
}

// Recoverer turns a panic into a 500 JSON response and logs the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				// client went away; let net/http handle it
				panic(rvr)
			}

			logger := logging.GetLoggerFromContext(r.Context())
			logger.Error("panic recovered", "panic", fmt.Sprint(rvr), "stack", string(debug.Stack()))

			httputil.RespondError(w, r, fmt.Errorf("panic: %v", rvr))
		}()

		next.ServeHTTP(w, r)
	})
}
