// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// body is the JSON error envelope.
type body struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Status maps an error to its HTTP status and envelope kind.
func Status(err error) (int, string) {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest, "validation"
	case apperr.ErrInvalidTransition:
		return http.StatusConflict, "invalid_transition"
	case apperr.ErrConflict:
		return http.StatusConflict, "conflict"
	case apperr.ErrNotFound:
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "storage"
	}
}

// Write renders err as JSON. Server-side failures are logged with the
// request path. The client sees the failed operation but not the driver
// detail.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	code, kind := Status(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		msg = "internal error"
		if op := apperr.Op(err); op != "" {
			msg = op + " failed"
		}
	}
	JSON(w, code, body{Error: kind, Message: msg})
}

// BadRequest reports an undecodable body or parameter.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, body{Error: "validation", Message: msg})
}

// NotFound is the router's fallback.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, body{Error: "not_found", Message: "no route for " + r.URL.Path})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
