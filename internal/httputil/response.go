package httputil

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"github.com/redmonkez12/places-api/internal/apperror"
	"github.com/redmonkez12/places-api/internal/logging"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// MessageResponse is a body carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// RespondJSON sends a JSON response with the given status code.
// A value that cannot be encoded is replaced by a 500 error body.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Message: apperror.UnknownMessage})
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("ERROR: failed to write JSON response: %v", err)
	}
}

// RespondMessage sends {"message": message}.
func RespondMessage(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, MessageResponse{Message: message}, statusCode)
}

// RespondError maps err onto the error taxonomy and sends it as JSON.
// Server-side failures are logged with their internal cause; the body only
// carries the public message.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.Status(err)
	code := apperror.Code(err)

	logger := logging.GetLoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.LogError("request failed", err)
	} else {
		logger.Debug("request rejected", "code", code, "error", err.Error())
	}

	resp := ErrorResponse{
		Message: apperror.Message(err),
		Fields:  apperror.Fields(err),
	}
	if code != apperror.CodeUnknown {
		resp.Code = code
	}

	RespondJSON(w, resp, status)
}
