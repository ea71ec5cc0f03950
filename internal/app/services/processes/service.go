// Package processsvc runs the stage/node process engine against storage for
// both process kinds: template editing, instantiation, node toggling and
// file references. Derived progress is computed on read and never stored.
package processsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/auditlog"
	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/processflow"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TemplateRepo is satisfied by templatestore.Store and memstore.Templates.
type TemplateRepo interface {
	GetByKind(ctx context.Context, kind models.ProcessKind) (models.ProcessTemplate, error)
	Insert(ctx context.Context, t models.ProcessTemplate) (models.ProcessTemplate, error)
	Update(ctx context.Context, t models.ProcessTemplate) (models.ProcessTemplate, error)
}

// InstanceRepo is satisfied by instancestore.Store and memstore.Instances.
type InstanceRepo interface {
	Create(ctx context.Context, inst models.ProcessInstance) (models.ProcessInstance, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.ProcessInstance, error)
	List(ctx context.Context, kind models.ProcessKind) ([]models.ProcessInstance, error)
	Replace(ctx context.Context, inst models.ProcessInstance) (models.ProcessInstance, error)
}

type Deps struct {
	Templates TemplateRepo
	Instances InstanceRepo
	Policy    processflow.TogglePolicy
	Audit     *auditlog.Logger
	Bus       *events.Bus
	Log       *zap.Logger
	Now       func() time.Time
}

type Service struct {
	templates TemplateRepo
	instances InstanceRepo
	policy    processflow.TogglePolicy
	audit     *auditlog.Logger
	bus       *events.Bus
	log       *zap.Logger
	now       func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		templates: d.Templates,
		instances: d.Instances,
		policy:    d.Policy,
		audit:     d.Audit,
		bus:       d.Bus,
		log:       d.Log,
		now:       d.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// View is an instance plus its derived progress.
type View struct {
	models.ProcessInstance
	Summary processflow.Summary `json:"summary"`
}

func view(inst models.ProcessInstance) View {
	return View{ProcessInstance: inst, Summary: processflow.Summarize(inst)}
}

func checkKind(kind models.ProcessKind) error {
	if !kind.Valid() {
		return apperr.Validation("unknown process kind %q", kind)
	}
	return nil
}

/* -------------------------------- templates ------------------------------- */

// Template returns the current template of a kind.
func (s *Service) Template(ctx context.Context, kind models.ProcessKind) (models.ProcessTemplate, error) {
	if err := checkKind(kind); err != nil {
		return models.ProcessTemplate{}, err
	}
	return s.templates.GetByKind(ctx, kind)
}

// EnsureDefaults inserts the built-in template for every kind that has none.
// It returns the kinds it seeded.
func (s *Service) EnsureDefaults(ctx context.Context) ([]models.ProcessKind, error) {
	var seeded []models.ProcessKind
	for _, kind := range []models.ProcessKind{models.ProcessElection, models.ProcessAdmission} {
		_, err := s.templates.GetByKind(ctx, kind)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return seeded, err
		}
		t, err := processflow.DefaultTemplate(kind, s.now())
		if err != nil {
			return seeded, err
		}
		if _, err := s.templates.Insert(ctx, t); err != nil {
			// Another process seeded it first.
			if errors.Is(err, apperr.ErrConflict) {
				continue
			}
			return seeded, err
		}
		s.log.Info("seeded default process template", zap.String("kind", string(kind)), zap.Int("stages", len(t.Stages)))
		seeded = append(seeded, kind)
	}
	return seeded, nil
}

// editTemplate loads, edits and saves a template under a version check.
// version may be nil to edit whatever is current.
func (s *Service) editTemplate(ctx context.Context, kind models.ProcessKind, version *int64, fn func(t *models.ProcessTemplate) error) (models.ProcessTemplate, error) {
	t, err := s.Template(ctx, kind)
	if err != nil {
		return models.ProcessTemplate{}, err
	}
	if version != nil && *version != t.Version {
		return models.ProcessTemplate{}, apperr.Conflict("%s template is at version %d, not %d", kind, t.Version, *version)
	}
	if err := fn(&t); err != nil {
		return models.ProcessTemplate{}, err
	}
	if err := processflow.CheckOrders(t.Stages); err != nil {
		return models.ProcessTemplate{}, err
	}
	saved, err := s.templates.Update(ctx, t)
	if err != nil {
		return models.ProcessTemplate{}, err
	}
	s.bus.Publish(events.Event{Kind: events.TemplateChanged, ID: string(kind)})
	return saved, nil
}

func (s *Service) AddStage(ctx context.Context, kind models.ProcessKind, name string, version *int64) (models.ProcessTemplate, models.Stage, error) {
	var added models.Stage
	t, err := s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		st, err := processflow.AddStage(t, name)
		added = st
		return err
	})
	return t, added, err
}

func (s *Service) RenameStage(ctx context.Context, kind models.ProcessKind, stageID, name string, version *int64) (models.ProcessTemplate, error) {
	return s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		return processflow.RenameStage(t, stageID, name)
	})
}

func (s *Service) RemoveStage(ctx context.Context, kind models.ProcessKind, stageID string, version *int64) (models.ProcessTemplate, error) {
	return s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		return processflow.RemoveStage(t, stageID)
	})
}

// MoveStage places a stage at newOrder and renumbers the rest.
func (s *Service) MoveStage(ctx context.Context, kind models.ProcessKind, stageID string, newOrder int, version *int64) (models.ProcessTemplate, error) {
	return s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		return processflow.MoveStage(t, stageID, newOrder)
	})
}

func (s *Service) AddNode(ctx context.Context, kind models.ProcessKind, stageID string, in processflow.NodeInput, version *int64) (models.ProcessTemplate, models.Node, error) {
	var added models.Node
	t, err := s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		n, err := processflow.AddNode(t, stageID, in)
		added = n
		return err
	})
	return t, added, err
}

func (s *Service) EditNode(ctx context.Context, kind models.ProcessKind, stageID, nodeID string, in processflow.NodeInput, version *int64) (models.ProcessTemplate, error) {
	return s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		return processflow.EditNode(t, stageID, nodeID, in)
	})
}

func (s *Service) DeleteNode(ctx context.Context, kind models.ProcessKind, stageID, nodeID string, version *int64) (models.ProcessTemplate, error) {
	return s.editTemplate(ctx, kind, version, func(t *models.ProcessTemplate) error {
		return processflow.DeleteNode(t, stageID, nodeID)
	})
}

/* -------------------------------- instances ------------------------------- */

// Start instantiates the current template of kind for subject.
func (s *Service) Start(ctx context.Context, kind models.ProcessKind, subject models.Subject) (View, error) {
	t, err := s.Template(ctx, kind)
	if err != nil {
		return View{}, err
	}
	inst, err := processflow.Instantiate(t, subject, s.now())
	if err != nil {
		return View{}, err
	}
	created, err := s.instances.Create(ctx, inst)
	if err != nil {
		return View{}, err
	}
	s.log.Info("process instance started",
		zap.String("kind", string(kind)),
		zap.String("instance_id", created.ID.Hex()),
		zap.String("subject", created.Subject.Name))
	s.bus.Publish(events.Event{Kind: events.InstanceChanged, ID: created.ID.Hex()})
	return view(created), nil
}

// load fetches an instance and hides instances of the other kind.
func (s *Service) load(ctx context.Context, kind models.ProcessKind, id primitive.ObjectID) (models.ProcessInstance, error) {
	if err := checkKind(kind); err != nil {
		return models.ProcessInstance{}, err
	}
	inst, err := s.instances.Get(ctx, id)
	if err != nil {
		return models.ProcessInstance{}, err
	}
	if inst.Kind != kind {
		return models.ProcessInstance{}, apperr.NotFound("%s instance %s not found", kind, id.Hex())
	}
	return inst, nil
}

func (s *Service) Get(ctx context.Context, kind models.ProcessKind, id primitive.ObjectID) (View, error) {
	inst, err := s.load(ctx, kind, id)
	if err != nil {
		return View{}, err
	}
	return view(inst), nil
}

// List returns every instance of a kind with summaries, newest first.
// search, when set, keeps subjects whose name contains it.
func (s *Service) List(ctx context.Context, kind models.ProcessKind, search string) ([]View, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	list, err := s.instances.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	search = strings.TrimSpace(search)
	out := make([]View, 0, len(list))
	for _, inst := range list {
		if search != "" && !strings.Contains(inst.Subject.Name, search) {
			continue
		}
		out = append(out, view(inst))
	}
	return out, nil
}

// mutate applies fn to an instance and saves it under a version check.
func (s *Service) mutate(ctx context.Context, kind models.ProcessKind, id primitive.ObjectID, fn func(inst *models.ProcessInstance, now time.Time) error) (models.ProcessInstance, error) {
	inst, err := s.load(ctx, kind, id)
	if err != nil {
		return models.ProcessInstance{}, err
	}
	if err := fn(&inst, s.now()); err != nil {
		return models.ProcessInstance{}, err
	}
	saved, err := s.instances.Replace(ctx, inst)
	if err != nil {
		return models.ProcessInstance{}, err
	}
	s.bus.Publish(events.Event{Kind: events.InstanceChanged, ID: saved.ID.Hex()})
	return saved, nil
}

// Toggle flips one node and returns the updated view.
func (s *Service) Toggle(ctx context.Context, kind models.ProcessKind, id primitive.ObjectID, stageID, nodeID string) (View, error) {
	var completed bool
	saved, err := s.mutate(ctx, kind, id, func(inst *models.ProcessInstance, now time.Time) error {
		c, err := processflow.Toggle(inst, stageID, nodeID, now, s.policy)
		completed = c
		return err
	})
	if err != nil {
		return View{}, err
	}
	s.audit.NodeToggled(ctx, kind, saved.ID.Hex(), stageID, nodeID, completed)
	return view(saved), nil
}

// AttachFile records an uploaded file against a node. The bytes themselves
// are stored elsewhere.
func (s *Service) AttachFile(ctx context.Context, kind models.ProcessKind, id primitive.ObjectID, stageID, nodeID string, f models.FileRef) (View, error) {
	saved, err := s.mutate(ctx, kind, id, func(inst *models.ProcessInstance, now time.Time) error {
		return processflow.AttachFile(inst, stageID, nodeID, f, now)
	})
	if err != nil {
		return View{}, err
	}
	return view(saved), nil
}
