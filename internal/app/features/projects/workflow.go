// internal/app/features/projects/workflow.go
package projects

import (
	"context"
	"net/http"

	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

/* -------------------------------- reports -------------------------------- */

type reportResponse struct {
	Project models.Project        `json:"project"`
	Report  models.ProgressReport `json:"report"`
}

// HandleAddReport handles POST /projects/{id}/reports.
func (h *Handler) HandleAddReport(w http.ResponseWriter, r *http.Request) {
	var req projectsvc.ReportInput
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		p, rep, err := h.Svc.AddReport(ctx, id, req)
		if err != nil {
			return nil, err
		}
		return reportResponse{Project: p, Report: rep}, nil
	})
}

// HandleEditReport handles PATCH /projects/{id}/reports/{rid}.
func (h *Handler) HandleEditReport(w http.ResponseWriter, r *http.Request) {
	var req projectsvc.ReportInput
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.EditReport(ctx, id, chi.URLParam(r, "rid"), req)
	})
}

// HandleSubmitReport handles POST /projects/{id}/reports/{rid}/submit.
func (h *Handler) HandleSubmitReport(w http.ResponseWriter, r *http.Request) {
	h.withProject(w, r, nil, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.SubmitReport(ctx, id, chi.URLParam(r, "rid"))
	})
}

type commentRequest struct {
	actorBody
	Comment string `json:"comment"`
}

// HandleReturnReport handles POST /projects/{id}/reports/{rid}/return.
func (h *Handler) HandleReturnReport(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.ReturnReport(ctx, id, chi.URLParam(r, "rid"), req.Comment)
	})
}

/* ------------------------------- conclusion ------------------------------- */

type conclusionRequest struct {
	projectsvc.ConclusionInput
	actorBody
}

// HandleFileConclusion handles PUT /projects/{id}/conclusion.
func (h *Handler) HandleFileConclusion(w http.ResponseWriter, r *http.Request) {
	var req conclusionRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.FileConclusion(ctx, id, req.ConclusionInput, req.actor(r))
	})
}

// HandleApproveConclusion handles POST /projects/{id}/conclusion/approve.
func (h *Handler) HandleApproveConclusion(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.ApproveConclusion(ctx, id, req.Comment, req.actor(r))
	})
}

// HandleRejectConclusion handles POST /projects/{id}/conclusion/reject.
func (h *Handler) HandleRejectConclusion(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.RejectConclusion(ctx, id, req.Comment, req.actor(r))
	})
}

/* -------------------------------- selection ------------------------------- */

type resultRequest struct {
	actorBody
	Result string `json:"result"`
}

type publishRequest struct {
	actorBody
	As string `json:"as"`
}

// HandleStartCitySelection handles POST /projects/{id}/selection/city/start.
func (h *Handler) HandleStartCitySelection(w http.ResponseWriter, r *http.Request) {
	var req actorBody
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.StartCitySelection(ctx, id, req.actor(r))
	})
}

// HandleCityResult handles PUT /projects/{id}/selection/city.
func (h *Handler) HandleCityResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.RecordCityResult(ctx, id, req.Result, req.actor(r))
	})
}

// HandleRecommend handles POST /projects/{id}/selection/recommend.
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req actorBody
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.RecommendToProvince(ctx, id, req.actor(r))
	})
}

// HandleProvinceResult handles PUT /projects/{id}/selection/province.
func (h *Handler) HandleProvinceResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.RecordProvinceResult(ctx, id, req.Result, req.actor(r))
	})
}

// HandlePublish handles POST /projects/{id}/selection/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.Publish(ctx, id, req.As, req.actor(r))
	})
}
