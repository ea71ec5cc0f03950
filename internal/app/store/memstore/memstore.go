// Package memstore keeps every govhub collection in process memory. It backs
// demo mode (no MongoDB configured) and the service tests, and mirrors the
// Mongo stores' semantics: version-checked writes, the same error kinds, the
// same list ordering. Records are cloned on the way in and out so callers
// never share memory with the store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	organizationstore "github.com/dalemusser/govhub/internal/app/store/organizations"
	projectstore "github.com/dalemusser/govhub/internal/app/store/projects"
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type state struct {
	mu        sync.RWMutex
	orgs      map[primitive.ObjectID]models.Organization
	projects  map[primitive.ObjectID]models.Project
	ledger    []models.LedgerEntry
	templates map[models.ProcessKind]models.ProcessTemplate
	instances map[primitive.ObjectID]models.ProcessInstance
	now       func() time.Time
}

// Store is the root of the in-memory dataset. Its views share one lock.
type Store struct {
	s *state
}

// New returns an empty store.
func New() *Store {
	return &Store{s: &state{
		orgs:      map[primitive.ObjectID]models.Organization{},
		projects:  map[primitive.ObjectID]models.Project{},
		templates: map[models.ProcessKind]models.ProcessTemplate{},
		instances: map[primitive.ObjectID]models.ProcessInstance{},
		now:       func() time.Time { return time.Now().UTC() },
	}}
}

// SetClock replaces the timestamp source used for created/updated times.
func (st *Store) SetClock(now func() time.Time) {
	st.s.mu.Lock()
	st.s.now = now
	st.s.mu.Unlock()
}

func (st *Store) Organizations() *Organizations { return &Organizations{s: st.s} }
func (st *Store) Projects() *Projects           { return &Projects{s: st.s} }
func (st *Store) Ledger() *Ledger               { return &Ledger{s: st.s} }
func (st *Store) Templates() *Templates         { return &Templates{s: st.s} }
func (st *Store) Instances() *Instances         { return &Instances{s: st.s} }

// idLess orders ObjectIDs by their bytes, which tracks creation order.
func idLess(a, b primitive.ObjectID) bool {
	return strings.Compare(a.Hex(), b.Hex()) < 0
}

/* ------------------------------ organizations ----------------------------- */

type Organizations struct {
	s *state
}

func (o *Organizations) Create(_ context.Context, org models.Organization) (models.Organization, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	for _, existing := range o.s.orgs {
		if existing.Code == org.Code {
			return models.Organization{}, organizationstore.ErrDuplicateOrganization
		}
	}
	now := o.s.now()
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	o.s.orgs[org.ID] = cloneOrg(org)
	return cloneOrg(org), nil
}

func (o *Organizations) Get(_ context.Context, id primitive.ObjectID) (models.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	org, ok := o.s.orgs[id]
	if !ok {
		return models.Organization{}, apperr.NotFound("organization %s not found", id.Hex())
	}
	return cloneOrg(org), nil
}

func (o *Organizations) find(match func(models.Organization) bool) []models.Organization {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	out := []models.Organization{}
	for _, org := range o.s.orgs {
		if match(org) {
			out = append(out, cloneOrg(org))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return idLess(out[i].ID, out[j].ID)
	})
	return out
}

// List returns every organization ordered by code.
func (o *Organizations) List(_ context.Context) ([]models.Organization, error) {
	return o.find(func(models.Organization) bool { return true }), nil
}

// Children lists direct children of parentID; nil lists the roots.
func (o *Organizations) Children(_ context.Context, parentID *primitive.ObjectID) ([]models.Organization, error) {
	return o.find(func(org models.Organization) bool {
		if parentID == nil {
			return org.ParentID == nil
		}
		return org.ParentID != nil && *org.ParentID == *parentID
	}), nil
}

func (o *Organizations) Count(_ context.Context) (int64, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	return int64(len(o.s.orgs)), nil
}

/* -------------------------------- projects -------------------------------- */

type Projects struct {
	s *state
}

func (p *Projects) Create(_ context.Context, proj models.Project) (models.Project, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	now := p.s.now()
	if proj.ID.IsZero() {
		proj.ID = primitive.NewObjectID()
	}
	proj.TitleCI = text.Fold(proj.Title)
	proj.Version = 1
	if proj.CreatedAt.IsZero() {
		proj.CreatedAt = now
	}
	proj.UpdatedAt = now
	p.s.projects[proj.ID] = cloneProject(proj)
	return cloneProject(proj), nil
}

func (p *Projects) Get(_ context.Context, id primitive.ObjectID) (models.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	proj, ok := p.s.projects[id]
	if !ok {
		return models.Project{}, apperr.NotFound("project %s not found", id.Hex())
	}
	return cloneProject(proj), nil
}

func matches(f projectstore.Filter, proj models.Project) bool {
	switch {
	case len(f.Statuses) > 0:
		found := false
		for _, s := range f.Statuses {
			if s == proj.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	case f.ExcludeStatus != "":
		if proj.Status == f.ExcludeStatus {
			return false
		}
	}
	if f.OrganizationID != nil && (proj.OrganizationID == nil || *proj.OrganizationID != *f.OrganizationID) {
		return false
	}
	if f.BatchID != "" && proj.BatchID != f.BatchID {
		return false
	}
	if f.Search != "" && !strings.HasPrefix(proj.TitleCI, text.Fold(f.Search)) {
		return false
	}
	if !f.CreatedFrom.IsZero() && proj.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !proj.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	return true
}

// List returns matching projects, newest first.
func (p *Projects) List(_ context.Context, f projectstore.Filter) ([]models.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := []models.Project{}
	for _, proj := range p.s.projects {
		if matches(f, proj) {
			out = append(out, cloneProject(proj))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (p *Projects) CountByStatus(_ context.Context) (map[models.ProjectStatus]int64, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	out := map[models.ProjectStatus]int64{}
	for _, proj := range p.s.projects {
		out[proj.Status]++
	}
	return out, nil
}

// checkVersion must be called with the lock held.
func (p *Projects) checkVersion(id primitive.ObjectID, version int64) (models.Project, error) {
	cur, ok := p.s.projects[id]
	if !ok {
		return models.Project{}, apperr.NotFound("project %s not found", id.Hex())
	}
	if cur.Version != version {
		return models.Project{}, apperr.Conflict("project %s was modified concurrently", id.Hex())
	}
	return cur, nil
}

func (p *Projects) Replace(_ context.Context, proj models.Project) (models.Project, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, err := p.checkVersion(proj.ID, proj.Version); err != nil {
		return models.Project{}, err
	}
	proj.TitleCI = text.Fold(proj.Title)
	proj.Version++
	proj.UpdatedAt = p.s.now()
	p.s.projects[proj.ID] = cloneProject(proj)
	return cloneProject(proj), nil
}

func (p *Projects) Delete(_ context.Context, id primitive.ObjectID, version int64) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, err := p.checkVersion(id, version); err != nil {
		return err
	}
	delete(p.s.projects, id)
	return nil
}

// ApplyTransition writes proj at status `to` and the ledger row under one
// lock. Field edits carried on proj are saved with the status change.
func (p *Projects) ApplyTransition(_ context.Context, proj models.Project, to models.ProjectStatus, entry models.LedgerEntry) (models.Project, models.LedgerEntry, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cur, err := p.checkVersion(proj.ID, proj.Version)
	if err != nil {
		return models.Project{}, models.LedgerEntry{}, err
	}
	if cur.Status != proj.Status {
		return models.Project{}, models.LedgerEntry{}, apperr.Conflict("project %s was modified concurrently", proj.ID.Hex())
	}
	now := p.s.now()
	next := cloneProject(proj)
	next.Status = to
	next.TitleCI = text.Fold(next.Title)
	next.Version = cur.Version + 1
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = now
	p.s.projects[next.ID] = next

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.ProjectID = proj.ID
	entry.FromStatus = proj.Status
	entry.ToStatus = to
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	p.s.ledger = append(p.s.ledger, entry)
	return cloneProject(next), entry, nil
}

/* --------------------------------- ledger --------------------------------- */

type Ledger struct {
	s *state
}

// Append adds a row directly; used by seeding.
func (l *Ledger) Append(_ context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.s.now()
	}
	l.s.ledger = append(l.s.ledger, e)
	return e, nil
}

// ListByProject returns a project's history, oldest first.
func (l *Ledger) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.LedgerEntry, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	out := []models.LedgerEntry{}
	for _, e := range l.s.ledger {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Query filters rows newest first, defaulting to 100 rows.
func (l *Ledger) Query(_ context.Context, f ledgerstore.QueryFilter) ([]models.LedgerEntry, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	out := []models.LedgerEntry{}
	for _, e := range l.s.ledger {
		switch {
		case f.ProjectID != nil && e.ProjectID != *f.ProjectID:
			continue
		case f.Action != "" && e.Action != f.Action:
			continue
		case f.Operator != "" && e.Operator != f.Operator:
			continue
		case f.StartTime != nil && e.CreatedAt.Before(*f.StartTime):
			continue
		case f.EndTime != nil && e.CreatedAt.After(*f.EndTime):
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return idLess(out[j].ID, out[i].ID)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if f.Offset >= int64(len(out)) {
		return []models.LedgerEntry{}, nil
	}
	out = out[f.Offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

/* -------------------------------- templates ------------------------------- */

type Templates struct {
	s *state
}

func (t *Templates) GetByKind(_ context.Context, kind models.ProcessKind) (models.ProcessTemplate, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	tpl, ok := t.s.templates[kind]
	if !ok {
		return models.ProcessTemplate{}, apperr.NotFound("no %s template", kind)
	}
	return cloneTemplate(tpl), nil
}

func (t *Templates) Insert(_ context.Context, tpl models.ProcessTemplate) (models.ProcessTemplate, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, exists := t.s.templates[tpl.Kind]; exists {
		return models.ProcessTemplate{}, apperr.Conflict("a %s template already exists", tpl.Kind)
	}
	now := t.s.now()
	if tpl.ID.IsZero() {
		tpl.ID = primitive.NewObjectID()
	}
	tpl.Version = 1
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	t.s.templates[tpl.Kind] = cloneTemplate(tpl)
	return cloneTemplate(tpl), nil
}

func (t *Templates) Update(_ context.Context, tpl models.ProcessTemplate) (models.ProcessTemplate, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.templates[tpl.Kind]
	if !ok || cur.ID != tpl.ID {
		return models.ProcessTemplate{}, apperr.NotFound("template %s not found", tpl.ID.Hex())
	}
	if cur.Version != tpl.Version {
		return models.ProcessTemplate{}, apperr.Conflict("%s template was modified concurrently", tpl.Kind)
	}
	cur.Name = tpl.Name
	cur.Stages = tpl.Stages
	cur.Version++
	cur.UpdatedAt = t.s.now()
	t.s.templates[cur.Kind] = cloneTemplate(cur)
	return cloneTemplate(cur), nil
}

/* -------------------------------- instances ------------------------------- */

type Instances struct {
	s *state
}

func (in *Instances) Create(_ context.Context, inst models.ProcessInstance) (models.ProcessInstance, error) {
	in.s.mu.Lock()
	defer in.s.mu.Unlock()
	if inst.ID.IsZero() {
		inst.ID = primitive.NewObjectID()
	}
	inst.Version = 1
	in.s.instances[inst.ID] = cloneInstance(inst)
	return cloneInstance(inst), nil
}

func (in *Instances) Get(_ context.Context, id primitive.ObjectID) (models.ProcessInstance, error) {
	in.s.mu.RLock()
	defer in.s.mu.RUnlock()
	inst, ok := in.s.instances[id]
	if !ok {
		return models.ProcessInstance{}, apperr.NotFound("instance %s not found", id.Hex())
	}
	return cloneInstance(inst), nil
}

// List returns instances of a kind (all kinds when empty), newest first.
func (in *Instances) List(_ context.Context, kind models.ProcessKind) ([]models.ProcessInstance, error) {
	in.s.mu.RLock()
	defer in.s.mu.RUnlock()
	out := []models.ProcessInstance{}
	for _, inst := range in.s.instances {
		if kind == "" || inst.Kind == kind {
			out = append(out, cloneInstance(inst))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return idLess(out[j].ID, out[i].ID)
	})
	return out, nil
}

func (in *Instances) Replace(_ context.Context, inst models.ProcessInstance) (models.ProcessInstance, error) {
	in.s.mu.Lock()
	defer in.s.mu.Unlock()
	cur, ok := in.s.instances[inst.ID]
	if !ok {
		return models.ProcessInstance{}, apperr.NotFound("instance %s not found", inst.ID.Hex())
	}
	if cur.Version != inst.Version {
		return models.ProcessInstance{}, apperr.Conflict("instance %s was modified concurrently", inst.ID.Hex())
	}
	inst.Version++
	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = in.s.now()
	}
	in.s.instances[inst.ID] = cloneInstance(inst)
	return cloneInstance(inst), nil
}
