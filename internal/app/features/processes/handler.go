// internal/app/features/processes/handler.go
package processes

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/govhub/internal/app/features/errors"
	"github.com/dalemusser/govhub/internal/app/features/shared"
	processsvc "github.com/dalemusser/govhub/internal/app/services/processes"
	"github.com/dalemusser/govhub/internal/app/system/processflow"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves one process kind. The same handler type is mounted once
// per kind.
type Handler struct {
	Svc  *processsvc.Service
	Kind models.ProcessKind
	Log  *zap.Logger
}

func NewHandler(svc *processsvc.Service, kind models.ProcessKind, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Kind: kind, Log: logger}
}

// run decodes the body into req (may be nil) and writes fn's result.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, code int, req any, fn func(ctx context.Context) (any, error)) {
	if req != nil {
		if err := shared.DecodeJSON(r, req); err != nil {
			apierrors.Write(w, r, h.Log, err)
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := fn(ctx)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.JSON(w, code, out)
}

/* -------------------------------- template -------------------------------- */

type stageRequest struct {
	Name    string `json:"name"`
	Version *int64 `json:"version"`
}

type moveRequest struct {
	Order   int    `json:"order"`
	Version *int64 `json:"version"`
}

type nodeRequest struct {
	processflow.NodeInput
	Version *int64 `json:"version"`
}

type versionRequest struct {
	Version *int64 `json:"version"`
}

// ServeTemplate handles GET /template.
func (h *Handler) ServeTemplate(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, nil, func(ctx context.Context) (any, error) {
		return h.Svc.Template(ctx, h.Kind)
	})
}

// HandleAddStage handles POST /template/stages.
func (h *Handler) HandleAddStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	h.run(w, r, http.StatusCreated, &req, func(ctx context.Context) (any, error) {
		t, _, err := h.Svc.AddStage(ctx, h.Kind, req.Name, req.Version)
		return t, err
	})
}

// HandleRenameStage handles PATCH /template/stages/{sid}.
func (h *Handler) HandleRenameStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	h.run(w, r, http.StatusOK, &req, func(ctx context.Context) (any, error) {
		return h.Svc.RenameStage(ctx, h.Kind, chi.URLParam(r, "sid"), req.Name, req.Version)
	})
}

// HandleRemoveStage handles DELETE /template/stages/{sid}.
func (h *Handler) HandleRemoveStage(w http.ResponseWriter, r *http.Request) {
	var req versionRequest
	h.run(w, r, http.StatusOK, &req, func(ctx context.Context) (any, error) {
		return h.Svc.RemoveStage(ctx, h.Kind, chi.URLParam(r, "sid"), req.Version)
	})
}

// HandleMoveStage handles POST /template/stages/{sid}/move.
func (h *Handler) HandleMoveStage(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	h.run(w, r, http.StatusOK, &req, func(ctx context.Context) (any, error) {
		return h.Svc.MoveStage(ctx, h.Kind, chi.URLParam(r, "sid"), req.Order, req.Version)
	})
}

// HandleAddNode handles POST /template/stages/{sid}/nodes.
func (h *Handler) HandleAddNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	h.run(w, r, http.StatusCreated, &req, func(ctx context.Context) (any, error) {
		t, _, err := h.Svc.AddNode(ctx, h.Kind, chi.URLParam(r, "sid"), req.NodeInput, req.Version)
		return t, err
	})
}

// HandleEditNode handles PATCH /template/stages/{sid}/nodes/{nid}.
func (h *Handler) HandleEditNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	h.run(w, r, http.StatusOK, &req, func(ctx context.Context) (any, error) {
		return h.Svc.EditNode(ctx, h.Kind, chi.URLParam(r, "sid"), chi.URLParam(r, "nid"), req.NodeInput, req.Version)
	})
}

// HandleDeleteNode handles DELETE /template/stages/{sid}/nodes/{nid}.
func (h *Handler) HandleDeleteNode(w http.ResponseWriter, r *http.Request) {
	var req versionRequest
	h.run(w, r, http.StatusOK, &req, func(ctx context.Context) (any, error) {
		return h.Svc.DeleteNode(ctx, h.Kind, chi.URLParam(r, "sid"), chi.URLParam(r, "nid"), req.Version)
	})
}

/* -------------------------------- instances ------------------------------- */

// ServeList handles GET / (?q= filters by subject name).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, nil, func(ctx context.Context) (any, error) {
		return h.Svc.List(ctx, h.Kind, query.Get(r, "q"))
	})
}

// HandleStart handles POST /.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req models.Subject
	h.run(w, r, http.StatusCreated, &req, func(ctx context.Context) (any, error) {
		return h.Svc.Start(ctx, h.Kind, req)
	})
}

// ServeGet handles GET /{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, nil, func(ctx context.Context) (any, error) {
		id, err := shared.ObjectIDParam(r, "id")
		if err != nil {
			return nil, err
		}
		return h.Svc.Get(ctx, h.Kind, id)
	})
}

// HandleToggle handles POST /{id}/stages/{sid}/nodes/{nid}/toggle.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, http.StatusOK, nil, func(ctx context.Context) (any, error) {
		id, err := shared.ObjectIDParam(r, "id")
		if err != nil {
			return nil, err
		}
		return h.Svc.Toggle(ctx, h.Kind, id, chi.URLParam(r, "sid"), chi.URLParam(r, "nid"))
	})
}

// HandleAttachFile handles PUT /{id}/stages/{sid}/nodes/{nid}/file. The body
// is a file reference; the bytes live in external storage.
func (h *Handler) HandleAttachFile(w http.ResponseWriter, r *http.Request) {
	var req models.FileRef
	h.run(w, r, http.StatusOK, &req, func(ctx context.Context) (any, error) {
		id, err := shared.ObjectIDParam(r, "id")
		if err != nil {
			return nil, err
		}
		return h.Svc.AttachFile(ctx, h.Kind, id, chi.URLParam(r, "sid"), chi.URLParam(r, "nid"), req)
	})
}
