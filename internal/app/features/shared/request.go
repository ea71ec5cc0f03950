// internal/app/features/shared/request.go
package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OperatorHeader names the acting operator. There is no login; the value
// is recorded as given.
const OperatorHeader = "X-Operator"

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

// ObjectIDParam parses a chi URL parameter as an ObjectID.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("%s %q not found", name, raw)
	}
	return oid, nil
}

// OptionalObjectID parses a query parameter; empty means no filter.
func OptionalObjectID(r *http.Request, name string) (*primitive.ObjectID, error) {
	raw := query.Get(r, name)
	if raw == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be an id", name)
	}
	return &oid, nil
}

// IntQuery parses a non-negative integer query parameter, 0 when absent.
func IntQuery(r *http.Request, name string) (int64, error) {
	raw := query.Get(r, name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, apperr.Validation("%s must be a non-negative integer", name)
	}
	return n, nil
}

// DecodeJSON reads the request body into v. An empty body leaves v alone.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// Operator prefers the body field and falls back to the header.
func Operator(r *http.Request, fromBody string) string {
	if op := strings.TrimSpace(fromBody); op != "" {
		return op
	}
	return strings.TrimSpace(r.Header.Get(OperatorHeader))
}
