package httputil

import (
	"net/http"

	"github.com/redmonkez12/places-api/internal/logging"
)

// HandlerFunc is an HTTP handler that reports failure by returning an error
// instead of writing it.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts h to http.HandlerFunc. A returned error is rendered through
// RespondError unless the handler already sent a response, in which case the
// error goes to the fallback stage and nothing is written twice.
func Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := logging.WrapResponseWriter(w)

		err := h(rw, r)
		if err == nil {
			return
		}

		if rw.Written() {
			responseAlreadySent(r, rw.Status(), err)
			return
		}

		RespondError(rw, r, err)
	}
}

// responseAlreadySent is the last error stage: the client already has its
// response, so the failure can only be recorded.
func responseAlreadySent(r *http.Request, status int, err error) {
	logger := logging.GetLoggerFromContext(r.Context())
	logger.WithFields(map[string]any{"sent_status": status}).
		LogError("request failed after response was sent", err)
}
