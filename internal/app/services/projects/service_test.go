package projectsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/app/store/memstore"
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	svc    *projectsvc.Service
	store  *memstore.Store
	bus    *events.Bus
	city   models.Organization
	county models.Organization
	// branch under the county
	countyBranch models.Organization
	// branch directly under the city
	cityBranch models.Organization
}

func newFixture(t *testing.T, policy lifecycle.Policy) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	orgs := st.Organizations()

	mk := func(name, code string, level models.OrgLevel, parent *primitive.ObjectID) models.Organization {
		o, err := orgs.Create(ctx, models.Organization{Name: name, Code: code, Level: level, ParentID: parent})
		if err != nil {
			t.Fatalf("create org: %v", err)
		}
		return o
	}
	f := &fixture{store: st, bus: events.NewBus()}
	f.city = mk("市局", "100", models.OrgLevelCity, nil)
	f.county = mk("县局", "110", models.OrgLevelCounty, &f.city.ID)
	f.countyBranch = mk("县支部", "111", models.OrgLevelBranch, &f.county.ID)
	f.cityBranch = mk("市支部", "101", models.OrgLevelBranch, &f.city.ID)

	f.svc = projectsvc.New(projectsvc.Deps{
		Projects: st.Projects(),
		Ledger:   st.Ledger(),
		Orgs:     orgs,
		Policy:   policy,
		Bus:      f.bus,
	})
	return f
}

func draft(org models.Organization) projectsvc.Draft {
	return projectsvc.Draft{
		Title:          "党建引领基层治理",
		Category:       "组织建设类",
		Summary:        "summary",
		OrganizationID: org.ID.Hex(),
		Leader:         "张三",
	}
}

var reviewer = projectsvc.Actor{Operator: "reviewer"}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want %v", err, kind)
	}
}

func transition(t *testing.T, f *fixture, id primitive.ObjectID, action models.ReviewAction, actor projectsvc.Actor) models.Project {
	t.Helper()
	p, _, err := f.svc.Transition(context.Background(), id, projectsvc.TransitionRequest{Action: action}, actor)
	if err != nil {
		t.Fatalf("%s: %v", action, err)
	}
	return p
}

func TestCreate_DraftAndSubmitValidation(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	p, err := f.svc.Create(ctx, projectsvc.Draft{Title: "  <b>Only a title</b> "}, false, projectsvc.Actor{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != models.StatusDraft || p.Title != "Only a title" {
		t.Errorf("got status %s title %q", p.Status, p.Title)
	}

	_, err = f.svc.Create(ctx, projectsvc.Draft{Title: "Incomplete"}, true, reviewer)
	wantKind(t, err, apperr.ErrValidation)
	all, _ := f.svc.List(ctx, projectsvc.ListQuery{})
	if len(all) != 1 {
		t.Errorf("failed submit must not store a draft, have %d projects", len(all))
	}

	_, err = f.svc.Create(ctx, projectsvc.Draft{}, false, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrValidation)

	bad := draft(f.city)
	bad.OrganizationID = primitive.NewObjectID().Hex()
	_, err = f.svc.Create(ctx, bad, false, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrValidation)
}

func TestTransition_EntryTier(t *testing.T) {
	tests := []struct {
		name string
		org  func(f *fixture) models.Organization
		want models.ProjectStatus
	}{
		{"city org", func(f *fixture) models.Organization { return f.city }, models.StatusPendingCity},
		{"branch under city", func(f *fixture) models.Organization { return f.cityBranch }, models.StatusPendingCity},
		{"county org", func(f *fixture) models.Organization { return f.county }, models.StatusPendingCounty},
		{"branch under county", func(f *fixture) models.Organization { return f.countyBranch }, models.StatusPendingCounty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, lifecycle.DefaultPolicy())
			p, err := f.svc.Create(context.Background(), draft(tt.org(f)), true, reviewer)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if p.Status != tt.want {
				t.Errorf("status = %s, want %s", p.Status, tt.want)
			}
		})
	}
}

func TestTransition_ReviewChainWritesLedger(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	p, err := f.svc.Create(ctx, draft(f.countyBranch), true, projectsvc.Actor{Operator: "author"})
	if err != nil {
		t.Fatal(err)
	}
	p = transition(t, f, p.ID, models.ActionApprove, reviewer)
	if p.Status != models.StatusPendingCity {
		t.Fatalf("after county approval: %s", p.Status)
	}
	p = transition(t, f, p.ID, models.ActionReject, reviewer)
	if p.Status != models.StatusCityRejected {
		t.Fatalf("after city rejection: %s", p.Status)
	}
	p = transition(t, f, p.ID, models.ActionSubmit, projectsvc.Actor{Operator: "author"})
	if p.Status != models.StatusPendingCity {
		t.Fatalf("resubmission goes back to the rejecting tier, got %s", p.Status)
	}
	p = transition(t, f, p.ID, models.ActionApprove, reviewer)
	p = transition(t, f, p.ID, models.ActionApprove, reviewer)
	if p.Status != models.StatusApproved {
		t.Fatalf("after province approval: %s", p.Status)
	}

	rows, err := f.svc.Ledger(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		action   models.ReviewAction
		from, to models.ProjectStatus
	}{
		{models.ActionSubmit, models.StatusDraft, models.StatusPendingCounty},
		{models.ActionApprove, models.StatusPendingCounty, models.StatusPendingCity},
		{models.ActionReject, models.StatusPendingCity, models.StatusCityRejected},
		{models.ActionSubmit, models.StatusCityRejected, models.StatusPendingCity},
		{models.ActionApprove, models.StatusPendingCity, models.StatusPendingProvince},
		{models.ActionApprove, models.StatusPendingProvince, models.StatusApproved},
	}
	if len(rows) != len(want) {
		t.Fatalf("ledger has %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		r := rows[i]
		if r.Action != w.action || r.FromStatus != w.from || r.ToStatus != w.to {
			t.Errorf("row %d = %s %s->%s, want %s %s->%s", i, r.Action, r.FromStatus, r.ToStatus, w.action, w.from, w.to)
		}
	}
	wantTiers := []models.OrgLevel{
		models.OrgLevelCounty, // submit lands at county, not the author's branch level
		models.OrgLevelCounty,
		models.OrgLevelCity,
		models.OrgLevelCity,
		models.OrgLevelCity,
		models.OrgLevelProvince,
	}
	for i, tier := range wantTiers {
		if rows[i].OrgTier != tier {
			t.Errorf("row %d org tier = %q, want %q", i, rows[i].OrgTier, tier)
		}
	}
}

func TestTransition_InvalidWritesNothing(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	p, _ := f.svc.Create(ctx, draft(f.city), false, projectsvc.Actor{})
	_, _, err := f.svc.Transition(ctx, p.ID, projectsvc.TransitionRequest{Action: models.ActionApprove}, reviewer)
	wantKind(t, err, apperr.ErrInvalidTransition)

	_, _, err = f.svc.Transition(ctx, p.ID, projectsvc.TransitionRequest{Action: "archive"}, reviewer)
	wantKind(t, err, apperr.ErrValidation)

	_, _, err = f.svc.Transition(ctx, p.ID, projectsvc.TransitionRequest{Action: models.ActionSubmit}, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrValidation)

	_, _, err = f.svc.Transition(ctx, primitive.NewObjectID(), projectsvc.TransitionRequest{Action: models.ActionSubmit}, reviewer)
	wantKind(t, err, apperr.ErrNotFound)

	got, _ := f.svc.Get(ctx, p.ID)
	if got.Status != models.StatusDraft || got.Version != p.Version {
		t.Errorf("project changed: %s v%d", got.Status, got.Version)
	}
	rows, _ := f.svc.Ledger(ctx, p.ID)
	if len(rows) != 0 {
		t.Errorf("ledger rows = %d, want 0", len(rows))
	}
}

func TestTransition_AdminOverrideAndCityTopTier(t *testing.T) {
	f := newFixture(t, lifecycle.Policy{TopTier: models.OrgLevelCity})
	ctx := context.Background()

	p, _ := f.svc.Create(ctx, draft(f.city), true, reviewer)
	p = transition(t, f, p.ID, models.ActionReturn, projectsvc.Actor{Operator: "admin", Admin: true})
	if p.Status != models.StatusRejectedByAdmin {
		t.Fatalf("admin return: %s", p.Status)
	}
	p = transition(t, f, p.ID, models.ActionSubmit, reviewer)
	if p.Status != models.StatusPendingCity {
		t.Fatalf("resubmit after admin rejection: %s", p.Status)
	}
	p = transition(t, f, p.ID, models.ActionApprove, reviewer)
	if p.Status != models.StatusApproved {
		t.Errorf("city top tier approval: %s", p.Status)
	}
}

func TestUpdate_OnlyWhileEditable(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	p, _ := f.svc.Create(ctx, draft(f.city), false, projectsvc.Actor{})
	title := "Renamed"
	stale := p.Version + 5
	_, err := f.svc.Update(ctx, p.ID, projectsvc.Patch{Title: &title, Version: &stale}, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrConflict)

	p, err = f.svc.Update(ctx, p.ID, projectsvc.Patch{Title: &title}, projectsvc.Actor{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Title != "Renamed" || p.Version != 2 {
		t.Errorf("got %q v%d", p.Title, p.Version)
	}
	empty := " "
	_, err = f.svc.Update(ctx, p.ID, projectsvc.Patch{Title: &empty}, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrValidation)

	p = transition(t, f, p.ID, models.ActionSubmit, reviewer)
	_, err = f.svc.Update(ctx, p.ID, projectsvc.Patch{Title: &title}, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrInvalidTransition)

	p = transition(t, f, p.ID, models.ActionReject, reviewer)
	other := "Fixed after rejection"
	p, err = f.svc.Update(ctx, p.ID, projectsvc.Patch{Title: &other, Version: &p.Version}, projectsvc.Actor{})
	if err != nil {
		t.Fatalf("Update rejected project: %v", err)
	}
	if p.Status != models.StatusCityRejected || p.Title != other {
		t.Errorf("after edit: %s %q", p.Status, p.Title)
	}
}

func TestDelete_OnlyDraftsWithoutHistory(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	fresh, _ := f.svc.Create(ctx, draft(f.city), false, projectsvc.Actor{})
	stale := fresh.Version + 1
	wantKind(t, f.svc.Delete(ctx, fresh.ID, &stale), apperr.ErrConflict)
	if err := f.svc.Delete(ctx, fresh.ID, &fresh.Version); err != nil {
		t.Fatalf("Delete draft: %v", err)
	}
	_, err := f.svc.Get(ctx, fresh.ID)
	wantKind(t, err, apperr.ErrNotFound)

	p, err := f.svc.Create(ctx, draft(f.city), true, reviewer)
	if err != nil {
		t.Fatal(err)
	}
	wantKind(t, f.svc.Delete(ctx, p.ID, nil), apperr.ErrInvalidTransition)

	p = transition(t, f, p.ID, models.ActionReject, reviewer)
	if p.Status != models.StatusCityRejected {
		t.Fatalf("status = %s", p.Status)
	}
	wantKind(t, f.svc.Delete(ctx, p.ID, &p.Version), apperr.ErrInvalidTransition)

	admin := projectsvc.Actor{Operator: "admin", Admin: true}
	q, _ := f.svc.Create(ctx, draft(f.city), true, reviewer)
	q = transition(t, f, q.ID, models.ActionReject, admin)
	if q.Status != models.StatusRejectedByAdmin {
		t.Fatalf("status = %s", q.Status)
	}
	wantKind(t, f.svc.Delete(ctx, q.ID, nil), apperr.ErrInvalidTransition)

	for _, id := range []primitive.ObjectID{p.ID, q.ID} {
		if _, err := f.svc.Get(ctx, id); err != nil {
			t.Errorf("project %s gone: %v", id.Hex(), err)
		}
		rows, _ := f.svc.Ledger(ctx, id)
		if len(rows) != 2 {
			t.Errorf("project %s ledger rows = %d, want 2", id.Hex(), len(rows))
		}
	}
}

func TestUpdate_SubmitWithEdits(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()
	author := projectsvc.Actor{Operator: "author"}

	p, _ := f.svc.Create(ctx, projectsvc.Draft{Title: "Half done", OrganizationID: f.city.ID.Hex()}, false, author)

	// Missing fields are caught on the edited record before any write.
	_, err := f.svc.Update(ctx, p.ID, projectsvc.Patch{Submit: true}, author)
	wantKind(t, err, apperr.ErrValidation)
	same, _ := f.svc.Get(ctx, p.ID)
	if same.Version != p.Version || same.Status != models.StatusDraft {
		t.Fatalf("failed submit wrote: %s v%d", same.Status, same.Version)
	}

	category, summary, leader := "组织建设类", "summary", "李四"
	patch := projectsvc.Patch{Category: &category, Summary: &summary, Leader: &leader, Version: &p.Version, Submit: true}
	_, err = f.svc.Update(ctx, p.ID, patch, projectsvc.Actor{})
	wantKind(t, err, apperr.ErrValidation)

	p, err = f.svc.Update(ctx, p.ID, patch, author)
	if err != nil {
		t.Fatalf("Update with submit: %v", err)
	}
	if p.Status != models.StatusPendingCity || p.Leader != leader || p.Version != 2 {
		t.Errorf("got %s leader %q v%d", p.Status, p.Leader, p.Version)
	}
	rows, _ := f.svc.Ledger(ctx, p.ID)
	if len(rows) != 1 || rows[0].Action != models.ActionSubmit || rows[0].Operator != "author" {
		t.Fatalf("ledger = %+v", rows)
	}

	// Resubmitting an edited rejection returns to the rejecting tier.
	p = transition(t, f, p.ID, models.ActionReject, reviewer)
	fixed := "Revised summary"
	p, err = f.svc.Update(ctx, p.ID, projectsvc.Patch{Summary: &fixed, Submit: true}, author)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if p.Status != models.StatusPendingCity || p.Summary != fixed {
		t.Errorf("resubmitted: %s %q", p.Status, p.Summary)
	}
	stored, _ := f.svc.Get(ctx, p.ID)
	if stored.Summary != fixed {
		t.Errorf("stored summary = %q", stored.Summary)
	}
	rows, _ = f.svc.Ledger(ctx, p.ID)
	if len(rows) != 3 {
		t.Errorf("ledger rows = %d, want 3", len(rows))
	}
}

// approvedProject walks a fresh project to in_progress.
func approvedProject(t *testing.T, f *fixture) models.Project {
	t.Helper()
	ctx := context.Background()
	p, err := f.svc.Create(ctx, draft(f.city), true, reviewer)
	if err != nil {
		t.Fatal(err)
	}
	transition(t, f, p.ID, models.ActionApprove, reviewer)
	transition(t, f, p.ID, models.ActionApprove, reviewer)
	p, err = f.svc.Start(ctx, p.ID, reviewer)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.Status != models.StatusInProgress {
		t.Fatalf("after start: %s", p.Status)
	}
	return p
}

func TestStart_RequiresApproved(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	p, _ := f.svc.Create(context.Background(), draft(f.city), false, projectsvc.Actor{})
	_, err := f.svc.Start(context.Background(), p.ID, reviewer)
	wantKind(t, err, apperr.ErrInvalidTransition)
}

func TestList_StatusShorthands(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	f.svc.Create(ctx, draft(f.city), false, projectsvc.Actor{})
	f.svc.Create(ctx, draft(f.city), true, reviewer)
	running := approvedProject(t, f)
	if _, err := f.svc.FileConclusion(ctx, running.ID, projectsvc.ConclusionInput{Summary: "done"}, reviewer); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.ApproveConclusion(ctx, running.ID, "", reviewer); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		status string
		want   int
	}{
		{"", 3},
		{"active", 2},
		{"concluded", 1},
		{"draft", 1},
		{"category:pending", 1},
		{"category:approved", 1},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got, err := f.svc.List(ctx, projectsvc.ListQuery{Status: tt.status})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d, want %d", len(got), tt.want)
			}
		})
	}

	_, err := f.svc.List(ctx, projectsvc.ListQuery{Status: "archived"})
	wantKind(t, err, apperr.ErrValidation)
	_, err = f.svc.List(ctx, projectsvc.ListQuery{Status: "category:nope"})
	wantKind(t, err, apperr.ErrValidation)
}

func TestList_ByYear(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	ctx := context.Background()

	for _, year := range []int{2023, 2024, 2024} {
		at := time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
		f.store.SetClock(func() time.Time { return at })
		if _, err := f.svc.Create(ctx, draft(f.city), false, projectsvc.Actor{}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		year int64
		want int
	}{
		{0, 3},
		{2023, 1},
		{2024, 2},
		{2025, 0},
	}
	for _, tt := range tests {
		got, err := f.svc.List(ctx, projectsvc.ListQuery{Year: tt.year, Status: "draft"})
		if err != nil {
			t.Fatalf("year %d: %v", tt.year, err)
		}
		if len(got) != tt.want {
			t.Errorf("year %d: got %d, want %d", tt.year, len(got), tt.want)
		}
	}

	_, err := f.svc.List(ctx, projectsvc.ListQuery{Year: 12})
	wantKind(t, err, apperr.ErrValidation)
}

func TestEvents_PublishedOnMutation(t *testing.T) {
	f := newFixture(t, lifecycle.DefaultPolicy())
	var got []events.Event
	f.bus.Subscribe(func(e events.Event) { got = append(got, e) })

	p, _ := f.svc.Create(context.Background(), draft(f.city), true, reviewer)
	// create + submit
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	for _, e := range got {
		if e.Kind != events.ProjectChanged || e.ID != p.ID.Hex() {
			t.Errorf("event = %+v", e)
		}
	}

	// failures publish nothing
	f.svc.Start(context.Background(), p.ID, reviewer)
	if len(got) != 2 {
		t.Errorf("failed mutation published an event")
	}
}

func TestService_Clock(t *testing.T) {
	st := memstore.New()
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	org, _ := st.Organizations().Create(context.Background(), models.Organization{Name: "C", Code: "1", Level: models.OrgLevelCity})
	svc := projectsvc.New(projectsvc.Deps{
		Projects: st.Projects(), Ledger: st.Ledger(), Orgs: st.Organizations(),
		Now: func() time.Time { return fixed },
	})
	p, _ := svc.Create(context.Background(), draft(org), true, reviewer)
	svc.Transition(context.Background(), p.ID, projectsvc.TransitionRequest{Action: models.ActionApprove}, reviewer)
	svc.Transition(context.Background(), p.ID, projectsvc.TransitionRequest{Action: models.ActionApprove}, reviewer)
	svc.Start(context.Background(), p.ID, reviewer)
	p, err := svc.FileConclusion(context.Background(), p.ID, projectsvc.ConclusionInput{Summary: "s"}, reviewer)
	if err != nil {
		t.Fatal(err)
	}
	if !p.ConclusionReport.SubmittedAt.Equal(fixed) {
		t.Errorf("submitted_at = %v, want %v", p.ConclusionReport.SubmittedAt, fixed)
	}
}
