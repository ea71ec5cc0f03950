// Package projectsvc applies the project lifecycle: drafting, reviewer
// transitions with their ledger rows, execution, conclusion and selection.
// Every mutation is a read, a pure table lookup, then one version-checked
// write; a ProjectChanged event follows each successful write.
package projectsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	projectstore "github.com/dalemusser/govhub/internal/app/store/projects"
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/auditlog"
	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Deps wires a Service. Audit and Bus may be nil.
type Deps struct {
	Projects ProjectRepo
	Ledger   LedgerRepo
	Orgs     OrgDirectory
	Policy   lifecycle.Policy
	Audit    *auditlog.Logger
	Bus      *events.Bus
	Log      *zap.Logger
	Now      func() time.Time
}

type Service struct {
	projects ProjectRepo
	ledger   LedgerRepo
	orgs     OrgDirectory
	policy   lifecycle.Policy
	audit    *auditlog.Logger
	bus      *events.Bus
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func New(d Deps) *Service {
	s := &Service{
		projects: d.Projects,
		ledger:   d.Ledger,
		orgs:     d.Orgs,
		policy:   d.Policy,
		audit:    d.Audit,
		bus:      d.Bus,
		log:      d.Log,
		now:      d.Now,
		newID:    uuid.NewString,
	}
	if s.policy.TopTier == "" {
		s.policy = lifecycle.DefaultPolicy()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Actor is whoever performs a mutation. There is no authentication model;
// the name is recorded as given.
type Actor struct {
	Operator string
	Admin    bool
}

// Draft carries the editable project fields.
type Draft struct {
	Title          string   `json:"title"`
	BatchID        string   `json:"batch_id"`
	BatchName      string   `json:"batch_name"`
	Category       string   `json:"category"`
	Summary        string   `json:"summary"`
	OrganizationID string   `json:"organization_id"`
	Leader         string   `json:"leader"`
	Members        []string `json:"members"`
	Phone          string   `json:"phone"`
}

// Patch is a partial Draft. Nil fields are left alone. Version, when set,
// must match the stored version.
type Patch struct {
	Title          *string   `json:"title"`
	BatchID        *string   `json:"batch_id"`
	BatchName      *string   `json:"batch_name"`
	Category       *string   `json:"category"`
	Summary        *string   `json:"summary"`
	OrganizationID *string   `json:"organization_id"`
	Leader         *string   `json:"leader"`
	Members        *[]string `json:"members"`
	Phone          *string   `json:"phone"`
	Version        *int64    `json:"version"`
	// Submit sends the edited project for review in the same write.
	Submit bool `json:"submit"`
}

func (s *Service) publish(id primitive.ObjectID) {
	s.bus.Publish(events.Event{Kind: events.ProjectChanged, ID: id.Hex()})
}

// setOrganization resolves rawID and copies the display fields onto p.
// An empty id clears the organization.
func (s *Service) setOrganization(ctx context.Context, p *models.Project, rawID string) error {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		p.OrganizationID = nil
		p.OrganizationName = ""
		p.OrgLevel = ""
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(rawID)
	if err != nil {
		return apperr.Validation("invalid organization id %q", rawID)
	}
	org, err := s.orgs.Get(ctx, oid)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation("unknown organization %s", rawID)
	}
	if err != nil {
		return err
	}
	p.OrganizationID = &org.ID
	p.OrganizationName = org.Name
	p.OrgLevel = org.Level
	return nil
}

// entryTier picks the first review tier for a submission: county when the
// organization is a county or a branch under one, otherwise city.
func (s *Service) entryTier(ctx context.Context, p models.Project) (models.OrgLevel, error) {
	if p.OrganizationID == nil {
		return models.OrgLevelCity, nil
	}
	org, err := s.orgs.Get(ctx, *p.OrganizationID)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", apperr.Validation("unknown organization %s", p.OrganizationID.Hex())
	}
	if err != nil {
		return "", err
	}
	switch {
	case org.Level == models.OrgLevelCounty:
		return models.OrgLevelCounty, nil
	case org.Level == models.OrgLevelBranch && org.ParentID != nil:
		parent, err := s.orgs.Get(ctx, *org.ParentID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return "", err
		}
		if err == nil && parent.Level == models.OrgLevelCounty {
			return models.OrgLevelCounty, nil
		}
	}
	return models.OrgLevelCity, nil
}

// Create stores a draft. With submit it is immediately submitted for review;
// submission requirements are checked before anything is written.
func (s *Service) Create(ctx context.Context, in Draft, submit bool, actor Actor) (models.Project, error) {
	p := models.Project{
		Title:           htmlsanitize.PlainText(in.Title),
		BatchID:         strings.TrimSpace(in.BatchID),
		BatchName:       htmlsanitize.PlainText(in.BatchName),
		Category:        htmlsanitize.PlainText(in.Category),
		Summary:         htmlsanitize.RichText(in.Summary),
		Leader:          htmlsanitize.PlainText(in.Leader),
		Members:         htmlsanitize.PlainList(in.Members),
		Phone:           strings.TrimSpace(in.Phone),
		Status:          models.StatusDraft,
		ProgressReports: []models.ProgressReport{},
	}
	if err := s.setOrganization(ctx, &p, in.OrganizationID); err != nil {
		return models.Project{}, err
	}
	if err := lifecycle.RequiredForDraft(p); err != nil {
		return models.Project{}, err
	}
	if submit {
		if err := lifecycle.RequiredForSubmit(p); err != nil {
			return models.Project{}, err
		}
		if strings.TrimSpace(actor.Operator) == "" {
			return models.Project{}, apperr.Validation("operator is required")
		}
	}

	created, err := s.projects.Create(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	s.log.Info("project created", zap.String("project_id", created.ID.Hex()), zap.String("title", created.Title))
	s.publish(created.ID)

	if !submit {
		return created, nil
	}
	moved, _, err := s.Transition(ctx, created.ID, TransitionRequest{Action: models.ActionSubmit}, actor)
	return moved, err
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	return s.projects.Get(ctx, id)
}

// ListQuery selects projects. Status accepts an exact status, "active"
// (anything but concluded), "concluded", or "category:<name>".
type ListQuery struct {
	Status         string
	OrganizationID *primitive.ObjectID
	BatchID        string
	Search         string
	// Year keeps projects created in that calendar year (UTC). Zero is any year.
	Year  int64
	Limit int64
}

// ParseStatusFilter turns the status shorthand into a store filter.
func ParseStatusFilter(raw string) (projectstore.Filter, error) {
	raw = strings.TrimSpace(raw)
	var f projectstore.Filter
	switch {
	case raw == "" || raw == "all":
	case raw == "active":
		f.ExcludeStatus = models.StatusConcluded
	case strings.HasPrefix(raw, "category:"):
		c, err := lifecycle.ParseCategory(strings.TrimPrefix(raw, "category:"))
		if err != nil {
			return f, err
		}
		f.Statuses = lifecycle.StatusesIn(c)
	default:
		st, err := lifecycle.ParseStatus(raw)
		if err != nil {
			return f, err
		}
		f.Statuses = []models.ProjectStatus{st}
	}
	return f, nil
}

// List returns matching projects, newest first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Project, error) {
	f, err := ParseStatusFilter(q.Status)
	if err != nil {
		return nil, err
	}
	f.OrganizationID = q.OrganizationID
	f.BatchID = strings.TrimSpace(q.BatchID)
	f.Search = strings.TrimSpace(q.Search)
	if q.Year != 0 {
		if q.Year < 1970 || q.Year > 9999 {
			return nil, apperr.Validation("year %d is out of range", q.Year)
		}
		f.CreatedFrom = time.Date(int(q.Year), time.January, 1, 0, 0, 0, 0, time.UTC)
		f.CreatedBefore = f.CreatedFrom.AddDate(1, 0, 0)
	}
	f.Limit = q.Limit
	return s.projects.List(ctx, f)
}

func checkVersion(p models.Project, want *int64) error {
	if want != nil && *want != p.Version {
		return apperr.Conflict("project %s is at version %d, not %d", p.ID.Hex(), p.Version, *want)
	}
	return nil
}

// Update edits fields of a draft or rejected project. With in.Submit the
// edits and the submission are written together with their ledger row;
// submission requirements are checked against the edited record first.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, in Patch, actor Actor) (models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if err := checkVersion(p, in.Version); err != nil {
		return models.Project{}, err
	}
	if !lifecycle.Editable(p.Status) {
		return models.Project{}, apperr.InvalidTransition("project in status %s cannot be edited", p.Status)
	}

	if in.Title != nil {
		p.Title = htmlsanitize.PlainText(*in.Title)
	}
	if in.BatchID != nil {
		p.BatchID = strings.TrimSpace(*in.BatchID)
	}
	if in.BatchName != nil {
		p.BatchName = htmlsanitize.PlainText(*in.BatchName)
	}
	if in.Category != nil {
		p.Category = htmlsanitize.PlainText(*in.Category)
	}
	if in.Summary != nil {
		p.Summary = htmlsanitize.RichText(*in.Summary)
	}
	if in.Leader != nil {
		p.Leader = htmlsanitize.PlainText(*in.Leader)
	}
	if in.Members != nil {
		p.Members = htmlsanitize.PlainList(*in.Members)
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.OrganizationID != nil {
		if err := s.setOrganization(ctx, &p, *in.OrganizationID); err != nil {
			return models.Project{}, err
		}
	}
	if err := lifecycle.RequiredForDraft(p); err != nil {
		return models.Project{}, err
	}

	if in.Submit {
		moved, _, err := s.review(ctx, p, TransitionRequest{Action: models.ActionSubmit}, actor)
		return moved, err
	}
	saved, err := s.projects.Replace(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	s.publish(saved.ID)
	return saved, nil
}

// Delete removes a draft. A project with any ledger history is kept.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID, version *int64) error {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkVersion(p, version); err != nil {
		return err
	}
	if p.Status != models.StatusDraft {
		return apperr.InvalidTransition("project in status %s cannot be deleted", p.Status)
	}
	history, err := s.ledger.ListByProject(ctx, id)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		return apperr.InvalidTransition("project %s has %d ledger entries and cannot be deleted", id.Hex(), len(history))
	}
	if err := s.projects.Delete(ctx, id, p.Version); err != nil {
		return err
	}
	s.log.Info("project deleted", zap.String("project_id", id.Hex()))
	s.publish(id)
	return nil
}

// TransitionRequest is one reviewer action.
type TransitionRequest struct {
	Action  models.ReviewAction
	Comment string
}

// Transition applies a reviewer action: the status change and its ledger
// row are written together or not at all.
func (s *Service) Transition(ctx context.Context, id primitive.ObjectID, req TransitionRequest, actor Actor) (models.Project, models.LedgerEntry, error) {
	if _, err := lifecycle.ParseAction(string(req.Action)); err != nil {
		return models.Project{}, models.LedgerEntry{}, err
	}
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, models.LedgerEntry{}, err
	}
	return s.review(ctx, p, req, actor)
}

// review validates req against p as given and writes p with its new status
// and one ledger row. Every check happens before the write.
func (s *Service) review(ctx context.Context, p models.Project, req TransitionRequest, actor Actor) (models.Project, models.LedgerEntry, error) {
	operator := strings.TrimSpace(actor.Operator)
	if operator == "" {
		return models.Project{}, models.LedgerEntry{}, apperr.Validation("operator is required")
	}

	review := lifecycle.Review{Action: req.Action, Admin: actor.Admin}
	if req.Action == models.ActionSubmit {
		if err := lifecycle.RequiredForSubmit(p); err != nil {
			return models.Project{}, models.LedgerEntry{}, err
		}
		var err error
		if review.EntryTier, err = s.entryTier(ctx, p); err != nil {
			return models.Project{}, models.LedgerEntry{}, err
		}
	}
	to, err := s.policy.Next(p.Status, review)
	if err != nil {
		return models.Project{}, models.LedgerEntry{}, err
	}

	// Reviews record the tier that acted; submissions the tier that receives.
	tier := lifecycle.ReviewTier(p.Status)
	if req.Action == models.ActionSubmit {
		tier = lifecycle.ReviewTier(to)
	}
	entry := models.LedgerEntry{
		Action:   req.Action,
		Operator: operator,
		OrgTier:  tier,
		Comment:  htmlsanitize.PlainText(req.Comment),
	}
	moved, written, err := s.projects.ApplyTransition(ctx, p, to, entry)
	if err != nil {
		return models.Project{}, models.LedgerEntry{}, err
	}
	s.audit.Transition(ctx, written)
	s.publish(moved.ID)
	return moved, written, nil
}

// advance runs a non-reviewer lifecycle event. mutate may reject the event
// or adjust sub-records before the single version-checked write.
func (s *Service) advance(ctx context.Context, id primitive.ObjectID, ev lifecycle.Event, actor Actor, mutate func(p *models.Project, now time.Time) error) (models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	to, err := lifecycle.Advance(p.Status, ev)
	if err != nil {
		return models.Project{}, err
	}
	from := p.Status
	now := s.now()
	if mutate != nil {
		if err := mutate(&p, now); err != nil {
			return models.Project{}, err
		}
	}
	p.Status = to
	saved, err := s.projects.Replace(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	s.audit.LifecycleEvent(ctx, saved.ID.Hex(), string(ev), from, to, strings.TrimSpace(actor.Operator))
	s.publish(saved.ID)
	return saved, nil
}

// Start moves an approved project into execution.
func (s *Service) Start(ctx context.Context, id primitive.ObjectID, actor Actor) (models.Project, error) {
	return s.advance(ctx, id, lifecycle.EventStart, actor, nil)
}

// Ledger returns a project's transition history, oldest first.
func (s *Service) Ledger(ctx context.Context, id primitive.ObjectID) ([]models.LedgerEntry, error) {
	if _, err := s.projects.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.ledger.ListByProject(ctx, id)
}

// QueryLedger searches history across projects, newest first.
func (s *Service) QueryLedger(ctx context.Context, f ledgerstore.QueryFilter) ([]models.LedgerEntry, error) {
	if f.Action != "" {
		if _, err := lifecycle.ParseAction(string(f.Action)); err != nil {
			return nil, err
		}
	}
	return s.ledger.Query(ctx, f)
}
