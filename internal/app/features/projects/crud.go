// internal/app/features/projects/crud.go
package projects

import (
	"context"
	"net/http"
	"strconv"

	apierrors "github.com/dalemusser/govhub/internal/app/features/errors"
	"github.com/dalemusser/govhub/internal/app/features/shared"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBadTime = apperr.Validation("times must be RFC 3339 or YYYY-MM-DD")

// ServeList handles GET /projects.
//
//	?status=<exact>|active|all|category:<cat>  &org=<id>  &batch=<id>  &q=<title>  &year=<yyyy>  &limit=<n>
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	org, err := shared.OptionalObjectID(r, "org")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := shared.IntQuery(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	year, err := shared.IntQuery(r, "year")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Svc.List(ctx, projectsvc.ListQuery{
		Status:         query.Get(r, "status"),
		OrganizationID: org,
		BatchID:        query.Get(r, "batch"),
		Search:         query.Get(r, "q"),
		Year:           year,
		Limit:          limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, list)
}

type createRequest struct {
	projectsvc.Draft
	actorBody
	Submit bool `json:"submit"`
}

// HandleCreate handles POST /projects. With "submit": true the new project
// is submitted for review in the same call.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	p, err := h.Svc.Create(ctx, req.Draft, req.Submit, req.actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/projects/"+p.ID.Hex())
	apierrors.JSON(w, http.StatusCreated, p)
}

// ServeGet handles GET /projects/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	h.withProject(w, r, nil, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.Get(ctx, id)
	})
}

type updateRequest struct {
	projectsvc.Patch
	actorBody
}

// HandleUpdate handles PATCH /projects/{id}. With "submit": true the edits
// and the submission are written together.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	h.withProjectTimeout(w, r, &req, timeouts.Long(), func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.Update(ctx, id, req.Patch, req.actor(r))
	})
}

// HandleDelete handles DELETE /projects/{id}?version=<n>.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var version *int64
	if raw := query.Get(r, "version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(w, r, apperr.Validation("version must be an integer"))
			return
		}
		version = &v
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Svc.Delete(ctx, id, version); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionRequest struct {
	actorBody
	Action  models.ReviewAction `json:"action"`
	Comment string              `json:"comment"`
}

type transitionResponse struct {
	Project models.Project     `json:"project"`
	Entry   models.LedgerEntry `json:"ledger_entry"`
}

// HandleTransition handles POST /projects/{id}/transitions.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	h.withProjectTimeout(w, r, &req, timeouts.Long(), func(ctx context.Context, id primitive.ObjectID) (any, error) {
		p, e, err := h.Svc.Transition(ctx, id, projectsvc.TransitionRequest{Action: req.Action, Comment: req.Comment}, req.actor(r))
		if err != nil {
			return nil, err
		}
		return transitionResponse{Project: p, Entry: e}, nil
	})
}

// ServeProjectLedger handles GET /projects/{id}/ledger.
func (h *Handler) ServeProjectLedger(w http.ResponseWriter, r *http.Request) {
	h.withProject(w, r, nil, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.Ledger(ctx, id)
	})
}

// ServeLedger handles GET /projects/ledger, a cross-project history search.
//
//	?project=<id> &action=<a> &operator=<name> &since=<t> &until=<t> &limit=<n> &offset=<n>
func (h *Handler) ServeLedger(w http.ResponseWriter, r *http.Request) {
	var f ledgerstore.QueryFilter
	var err error
	if f.ProjectID, err = shared.OptionalObjectID(r, "project"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.StartTime, err = parseTime(query.Get(r, "since")); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.EndTime, err = parseTime(query.Get(r, "until")); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Limit, err = shared.IntQuery(r, "limit"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Offset, err = shared.IntQuery(r, "offset"); err != nil {
		h.fail(w, r, err)
		return
	}
	f.Action = models.ReviewAction(query.Get(r, "action"))
	f.Operator = query.Get(r, "operator")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Svc.QueryLedger(ctx, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, rows)
}

// HandleStart handles POST /projects/{id}/start.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req actorBody
	h.withProject(w, r, &req, func(ctx context.Context, id primitive.ObjectID) (any, error) {
		return h.Svc.Start(ctx, id, req.actor(r))
	})
}
