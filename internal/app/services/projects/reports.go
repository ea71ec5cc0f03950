package projectsvc

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportInput is the editable content of a progress report.
type ReportInput struct {
	Stage         string `json:"stage"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Achievements  string `json:"achievements"`
	Issues        string `json:"issues"`
	NextPlan      string `json:"next_plan"`
	SubmitterName string `json:"submitter_name"`
}

func (in ReportInput) apply(r *models.ProgressReport) error {
	r.Stage = htmlsanitize.PlainText(in.Stage)
	r.Title = htmlsanitize.PlainText(in.Title)
	r.Content = htmlsanitize.RichText(in.Content)
	r.Achievements = htmlsanitize.RichText(in.Achievements)
	r.Issues = htmlsanitize.RichText(in.Issues)
	r.NextPlan = htmlsanitize.RichText(in.NextPlan)
	if name := htmlsanitize.PlainText(in.SubmitterName); name != "" {
		r.SubmitterName = name
	}
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Content) == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

func requireInProgress(p models.Project, what string) error {
	if p.Status != models.StatusInProgress {
		return apperr.InvalidTransition("cannot %s while project is %s", what, p.Status)
	}
	return nil
}

// mutateReport loads a project, runs fn against the report rid, and saves.
// Report operations never touch the project status.
func (s *Service) mutateReport(ctx context.Context, id primitive.ObjectID, rid string, fn func(p *models.Project, r *models.ProgressReport, now time.Time) error) (models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	i := p.FindReport(rid)
	if i < 0 {
		return models.Project{}, apperr.NotFound("progress report %s not found", rid)
	}
	now := s.now()
	if err := fn(&p, &p.ProgressReports[i], now); err != nil {
		return models.Project{}, err
	}
	p.ProgressReports[i].UpdatedAt = now
	saved, err := s.projects.Replace(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	s.publish(saved.ID)
	return saved, nil
}

// AddReport appends a draft progress report to a running project.
func (s *Service) AddReport(ctx context.Context, id primitive.ObjectID, in ReportInput) (models.Project, models.ProgressReport, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, models.ProgressReport{}, err
	}
	if err := requireInProgress(p, "add a progress report"); err != nil {
		return models.Project{}, models.ProgressReport{}, err
	}
	now := s.now()
	r := models.ProgressReport{
		ID:        s.newID(),
		Status:    models.ReportDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := in.apply(&r); err != nil {
		return models.Project{}, models.ProgressReport{}, err
	}
	p.ProgressReports = append(p.ProgressReports, r)
	saved, err := s.projects.Replace(ctx, p)
	if err != nil {
		return models.Project{}, models.ProgressReport{}, err
	}
	s.publish(saved.ID)
	return saved, r, nil
}

// EditReport rewrites a draft or returned report.
func (s *Service) EditReport(ctx context.Context, id primitive.ObjectID, rid string, in ReportInput) (models.Project, error) {
	return s.mutateReport(ctx, id, rid, func(_ *models.Project, r *models.ProgressReport, _ time.Time) error {
		if r.Status == models.ReportSubmitted {
			return apperr.InvalidTransition("progress report %s is already submitted", rid)
		}
		return in.apply(r)
	})
}

// SubmitReport submits a draft or returned report.
func (s *Service) SubmitReport(ctx context.Context, id primitive.ObjectID, rid string) (models.Project, error) {
	return s.mutateReport(ctx, id, rid, func(p *models.Project, r *models.ProgressReport, now time.Time) error {
		if err := requireInProgress(*p, "submit a progress report"); err != nil {
			return err
		}
		if r.Status == models.ReportSubmitted {
			return apperr.InvalidTransition("progress report %s is already submitted", rid)
		}
		r.Status = models.ReportSubmitted
		r.ReturnComment = ""
		r.SubmittedAt = &now
		return nil
	})
}

// ReturnReport sends a submitted report back with a comment.
func (s *Service) ReturnReport(ctx context.Context, id primitive.ObjectID, rid, comment string) (models.Project, error) {
	comment = htmlsanitize.PlainText(comment)
	if comment == "" {
		return models.Project{}, apperr.Validation("a return comment is required")
	}
	return s.mutateReport(ctx, id, rid, func(_ *models.Project, r *models.ProgressReport, _ time.Time) error {
		if r.Status != models.ReportSubmitted {
			return apperr.InvalidTransition("progress report %s is %s, not submitted", rid, r.Status)
		}
		r.Status = models.ReportReturned
		r.ReturnComment = comment
		return nil
	})
}
