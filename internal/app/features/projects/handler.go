// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"net/http"
	"time"

	apierrors "github.com/dalemusser/govhub/internal/app/features/errors"
	"github.com/dalemusser/govhub/internal/app/features/shared"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for projects.
type Handler struct {
	Svc *projectsvc.Service
	Log *zap.Logger
}

func NewHandler(svc *projectsvc.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// actorBody is embedded in every mutating request.
type actorBody struct {
	Operator string `json:"operator"`
	Admin    bool   `json:"admin"`
}

func (a actorBody) actor(r *http.Request) projectsvc.Actor {
	return projectsvc.Actor{Operator: shared.Operator(r, a.Operator), Admin: a.Admin}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	apierrors.Write(w, r, h.Log, err)
}

// withProject parses {id}, decodes the body into req (may be nil), and runs
// fn under the medium timeout. fn's result is written as 200 JSON.
func (h *Handler) withProject(w http.ResponseWriter, r *http.Request, req any, fn func(ctx context.Context, id primitive.ObjectID) (any, error)) {
	h.withProjectTimeout(w, r, req, timeouts.Medium(), fn)
}

func (h *Handler) withProjectTimeout(w http.ResponseWriter, r *http.Request, req any, d time.Duration, fn func(ctx context.Context, id primitive.ObjectID) (any, error)) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req != nil {
		if err := shared.DecodeJSON(r, req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), d)
	defer cancel()

	out, err := fn(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, out)
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errBadTime
}
