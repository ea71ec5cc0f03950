// internal/app/features/statistics/handler.go
package statistics

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/govhub/internal/app/features/errors"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Stats *projectsvc.Stats
	Log   *zap.Logger
}

func NewHandler(stats *projectsvc.Stats, logger *zap.Logger) *Handler {
	return &Handler{Stats: stats, Log: logger}
}

// Serve handles GET /statistics.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	st, err := h.Stats.Get(ctx)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, st)
}

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
