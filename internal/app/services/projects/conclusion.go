package projectsvc

import (
	"context"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConclusionInput is the content of the closing report.
type ConclusionInput struct {
	Summary      string `json:"summary"`
	Achievements string `json:"achievements"`
	Innovations  string `json:"innovations"`
	Applications string `json:"applications"`
}

// FileConclusion creates or replaces the conclusion report and puts the
// project into pending_conclusion.
func (s *Service) FileConclusion(ctx context.Context, id primitive.ObjectID, in ConclusionInput, actor Actor) (models.Project, error) {
	summary := htmlsanitize.RichText(in.Summary)
	if htmlsanitize.PlainText(summary) == "" {
		return models.Project{}, apperr.Validation("missing required fields: summary")
	}
	return s.advance(ctx, id, lifecycle.EventFileConclusion, actor, func(p *models.Project, now time.Time) error {
		c := models.ConclusionReport{ID: s.newID()}
		if p.ConclusionReport != nil {
			c.ID = p.ConclusionReport.ID
		}
		c.Summary = summary
		c.Achievements = htmlsanitize.RichText(in.Achievements)
		c.Innovations = htmlsanitize.RichText(in.Innovations)
		c.Applications = htmlsanitize.RichText(in.Applications)
		c.Status = models.ConclusionPending
		c.SubmittedAt = now
		p.ConclusionReport = &c
		return nil
	})
}

func (s *Service) reviewConclusion(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event, result models.ConclusionStatus, comment string, actor Actor) (models.Project, error) {
	comment = htmlsanitize.PlainText(comment)
	return s.advance(ctx, id, ev, actor, func(p *models.Project, now time.Time) error {
		c := p.ConclusionReport
		if c == nil || c.Status != models.ConclusionPending {
			return apperr.InvalidTransition("project %s has no pending conclusion report", p.ID.Hex())
		}
		c.Status = result
		c.AuditComment = comment
		c.ReviewedAt = &now
		return nil
	})
}

// ApproveConclusion is the only way a project becomes concluded.
func (s *Service) ApproveConclusion(ctx context.Context, id primitive.ObjectID, comment string, actor Actor) (models.Project, error) {
	return s.reviewConclusion(ctx, id, lifecycle.EventApproveConclusion, models.ConclusionApproved, comment, actor)
}

// RejectConclusion returns the project to in_progress.
func (s *Service) RejectConclusion(ctx context.Context, id primitive.ObjectID, comment string, actor Actor) (models.Project, error) {
	return s.reviewConclusion(ctx, id, lifecycle.EventRejectConclusion, models.ConclusionRejected, comment, actor)
}
