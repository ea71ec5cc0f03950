// internal/app/features/organizations/handler.go
package organizations

import (
	"context"
	"net/http"

	apierrors "github.com/dalemusser/govhub/internal/app/features/errors"
	"github.com/dalemusser/govhub/internal/app/features/shared"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Directory is the read side of the organization tree.
type Directory interface {
	List(ctx context.Context) ([]models.Organization, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	Children(ctx context.Context, parentID *primitive.ObjectID) ([]models.Organization, error)
}

// Handler serves the read-only organization directory.
type Handler struct {
	Orgs Directory
	Log  *zap.Logger
}

func NewHandler(orgs Directory, logger *zap.Logger) *Handler {
	return &Handler{Orgs: orgs, Log: logger}
}

// ServeList handles GET /organizations. ?parent=<id> lists direct children;
// ?roots=1 lists top-level organizations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	parent, err := shared.OptionalObjectID(r, "parent")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	var orgs []models.Organization
	switch {
	case parent != nil:
		orgs, err = h.Orgs.Children(ctx, parent)
	case r.URL.Query().Get("roots") == "1":
		orgs, err = h.Orgs.Children(ctx, nil)
	default:
		orgs, err = h.Orgs.List(ctx)
	}
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, orgs)
}

// ServeGet handles GET /organizations/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.Get(ctx, id)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, org)
}

// ServeChildren handles GET /organizations/{id}/children.
func (h *Handler) ServeChildren(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectIDParam(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Orgs.Get(ctx, id); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	children, err := h.Orgs.Children(ctx, &id)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	apierrors.JSON(w, http.StatusOK, children)
}
