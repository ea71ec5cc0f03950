package processsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	processsvc "github.com/dalemusser/govhub/internal/app/services/processes"
	"github.com/dalemusser/govhub/internal/app/store/memstore"
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/processflow"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newService(t *testing.T, policy processflow.TogglePolicy) (*processsvc.Service, *events.Bus) {
	t.Helper()
	st := memstore.New()
	bus := events.NewBus()
	svc := processsvc.New(processsvc.Deps{
		Templates: st.Templates(),
		Instances: st.Instances(),
		Policy:    policy,
		Bus:       bus,
	})
	seeded, err := svc.EnsureDefaults(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	if len(seeded) != 2 {
		t.Fatalf("seeded %v, want both kinds", seeded)
	}
	return svc, bus
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("err = %v, want %v", err, kind)
	}
}

func TestEnsureDefaults_Idempotent(t *testing.T) {
	svc, _ := newService(t, processflow.TogglePolicy{})
	ctx := context.Background()

	seeded, err := svc.EnsureDefaults(ctx)
	if err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	if len(seeded) != 0 {
		t.Errorf("second run seeded %v", seeded)
	}
	tpl, err := svc.Template(ctx, models.ProcessElection)
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tpl.Version != 1 || len(tpl.Stages) == 0 {
		t.Errorf("template = v%d with %d stages", tpl.Version, len(tpl.Stages))
	}
}

func TestTemplate_UnknownKind(t *testing.T) {
	svc, _ := newService(t, processflow.TogglePolicy{})
	_, err := svc.Template(context.Background(), "budget")
	wantKind(t, err, apperr.ErrValidation)
}

func TestTemplateEditing(t *testing.T) {
	svc, bus := newService(t, processflow.TogglePolicy{})
	ctx := context.Background()
	var changed []events.Event
	bus.Subscribe(func(e events.Event) { changed = append(changed, e) })

	before, _ := svc.Template(ctx, models.ProcessAdmission)
	n := len(before.Stages)

	tpl, st, err := svc.AddStage(ctx, models.ProcessAdmission, "  总结  ", nil)
	if err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if st.Name != "总结" || st.Order != n+1 || len(tpl.Stages) != n+1 {
		t.Fatalf("added %+v, stages=%d", st, len(tpl.Stages))
	}
	if tpl.Version != before.Version+1 {
		t.Errorf("version = %d, want %d", tpl.Version, before.Version+1)
	}

	tpl, node, err := svc.AddNode(ctx, models.ProcessAdmission, st.ID, processflow.NodeInput{Name: "归档"}, &tpl.Version)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if node.ID == "" || len(tpl.Stages[n].Nodes) != 1 {
		t.Fatalf("node = %+v", node)
	}

	tpl, err = svc.EditNode(ctx, models.ProcessAdmission, st.ID, node.ID, processflow.NodeInput{Name: "材料归档", Description: "d"}, nil)
	if err != nil {
		t.Fatalf("EditNode: %v", err)
	}
	if got := tpl.Stages[n].Nodes[0]; got.Name != "材料归档" || got.Description != "d" {
		t.Errorf("edited node = %+v", got)
	}

	tpl, err = svc.MoveStage(ctx, models.ProcessAdmission, st.ID, 1, nil)
	if err != nil {
		t.Fatalf("MoveStage: %v", err)
	}
	if tpl.Stages[0].ID != st.ID {
		t.Fatalf("first stage = %s, want %s", tpl.Stages[0].ID, st.ID)
	}
	for i, s := range tpl.Stages {
		if s.Order != i+1 {
			t.Errorf("stage %d order = %d", i, s.Order)
		}
	}

	tpl, err = svc.RenameStage(ctx, models.ProcessAdmission, st.ID, "收尾", nil)
	if err != nil {
		t.Fatalf("RenameStage: %v", err)
	}
	if tpl.Stages[0].Name != "收尾" {
		t.Errorf("renamed = %q", tpl.Stages[0].Name)
	}

	tpl, err = svc.DeleteNode(ctx, models.ProcessAdmission, st.ID, node.ID, nil)
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if len(tpl.Stages[0].Nodes) != 0 {
		t.Errorf("nodes left = %d", len(tpl.Stages[0].Nodes))
	}

	tpl, err = svc.RemoveStage(ctx, models.ProcessAdmission, st.ID, nil)
	if err != nil {
		t.Fatalf("RemoveStage: %v", err)
	}
	if len(tpl.Stages) != n {
		t.Errorf("stages = %d, want %d", len(tpl.Stages), n)
	}

	if len(changed) != 7 {
		t.Errorf("published %d events, want 7", len(changed))
	}
	for _, e := range changed {
		if e.Kind != events.TemplateChanged || e.ID != string(models.ProcessAdmission) {
			t.Errorf("event = %+v", e)
		}
	}
}

func TestTemplateEditing_Errors(t *testing.T) {
	svc, _ := newService(t, processflow.TogglePolicy{})
	ctx := context.Background()
	stale := int64(99)

	_, _, err := svc.AddStage(ctx, models.ProcessElection, "x", &stale)
	wantKind(t, err, apperr.ErrConflict)

	_, _, err = svc.AddStage(ctx, models.ProcessElection, "   ", nil)
	wantKind(t, err, apperr.ErrValidation)

	_, err = svc.RenameStage(ctx, models.ProcessElection, "missing", "x", nil)
	wantKind(t, err, apperr.ErrNotFound)

	_, _, err = svc.AddNode(ctx, models.ProcessElection, "election-1", processflow.NodeInput{}, nil)
	wantKind(t, err, apperr.ErrValidation)

	// Failed edits leave the template untouched.
	tpl, _ := svc.Template(ctx, models.ProcessElection)
	if tpl.Version != 1 {
		t.Errorf("version = %d after failed edits", tpl.Version)
	}
}

func TestInstances_StartToggleAttach(t *testing.T) {
	svc, bus := newService(t, processflow.TogglePolicy{})
	ctx := context.Background()
	var instanceEvents int
	bus.Subscribe(func(e events.Event) {
		if e.Kind == events.InstanceChanged {
			instanceEvents++
		}
	})

	v, err := svc.Start(ctx, models.ProcessElection, models.Subject{Ref: "b-1", Name: " 第一支部 "})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if v.Subject.Name != "第一支部" || v.Summary.Progress != 0 || v.Summary.Finished {
		t.Fatalf("view = %+v", v.Summary)
	}
	if v.Summary.Current == nil || v.Summary.Current.NodeID != "election-1-1" {
		t.Fatalf("current = %+v", v.Summary.Current)
	}

	v, err = svc.Toggle(ctx, models.ProcessElection, v.ID, "election-1", "election-1-1")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if v.Summary.CompletedNodes != 1 || v.Summary.Current.NodeID != "election-1-2" {
		t.Errorf("after toggle: %+v", v.Summary)
	}
	if !v.Stages[0].Nodes[0].Completed || v.Stages[0].Nodes[0].CompletedAt == nil {
		t.Errorf("node not completed: %+v", v.Stages[0].Nodes[0])
	}

	v, err = svc.AttachFile(ctx, models.ProcessElection, v.ID, "election-1", "election-1-1",
		models.FileRef{Name: "方案.docx", Location: "/uploads/1"})
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if f := v.Stages[0].Nodes[0].UploadedFile; f == nil || f.UploadedAt.IsZero() {
		t.Fatalf("file = %+v", f)
	}

	// Un-completing keeps the upload under the default policy.
	v, err = svc.Toggle(ctx, models.ProcessElection, v.ID, "election-1", "election-1-1")
	if err != nil {
		t.Fatalf("Toggle back: %v", err)
	}
	n := v.Stages[0].Nodes[0]
	if n.Completed || n.CompletedAt != nil || n.UploadedFile == nil {
		t.Errorf("after un-complete: %+v", n)
	}

	if instanceEvents != 4 {
		t.Errorf("instance events = %d, want 4", instanceEvents)
	}
}

func TestToggle_ClearUploadPolicy(t *testing.T) {
	svc, _ := newService(t, processflow.TogglePolicy{ClearUploadOnUncomplete: true})
	ctx := context.Background()
	v, _ := svc.Start(ctx, models.ProcessAdmission, models.Subject{Name: "李四"})
	sid, nid := v.Stages[0].ID, v.Stages[0].Nodes[0].ID

	if _, err := svc.Toggle(ctx, models.ProcessAdmission, v.ID, sid, nid); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AttachFile(ctx, models.ProcessAdmission, v.ID, sid, nid, models.FileRef{Name: "a", Location: "b"}); err != nil {
		t.Fatal(err)
	}
	v, err := svc.Toggle(ctx, models.ProcessAdmission, v.ID, sid, nid)
	if err != nil {
		t.Fatal(err)
	}
	if v.Stages[0].Nodes[0].UploadedFile != nil {
		t.Error("upload kept despite ClearUploadOnUncomplete")
	}
}

func TestInstances_TemplateEditsDoNotLeak(t *testing.T) {
	svc, _ := newService(t, processflow.TogglePolicy{})
	ctx := context.Background()
	v, _ := svc.Start(ctx, models.ProcessElection, models.Subject{Name: "支部"})
	before := v.Summary.TotalNodes

	if _, _, err := svc.AddNode(ctx, models.ProcessElection, "election-1", processflow.NodeInput{Name: "新增"}, nil); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Get(ctx, models.ProcessElection, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.TotalNodes != before {
		t.Errorf("instance picked up template edit: %d nodes, want %d", got.Summary.TotalNodes, before)
	}
}

func TestInstances_KindIsolationAndErrors(t *testing.T) {
	svc, _ := newService(t, processflow.TogglePolicy{})
	ctx := context.Background()
	v, _ := svc.Start(ctx, models.ProcessElection, models.Subject{Name: "支部"})

	_, err := svc.Get(ctx, models.ProcessAdmission, v.ID)
	wantKind(t, err, apperr.ErrNotFound)

	_, err = svc.Get(ctx, models.ProcessElection, primitive.NewObjectID())
	wantKind(t, err, apperr.ErrNotFound)

	_, err = svc.Toggle(ctx, models.ProcessElection, v.ID, "election-1", "nope")
	wantKind(t, err, apperr.ErrNotFound)

	_, err = svc.AttachFile(ctx, models.ProcessElection, v.ID, "election-1", "election-1-1", models.FileRef{Name: "x"})
	wantKind(t, err, apperr.ErrValidation)

	_, err = svc.Start(ctx, models.ProcessElection, models.Subject{Name: "  "})
	wantKind(t, err, apperr.ErrValidation)
}

func TestList_NewestFirstWithSearch(t *testing.T) {
	st := memstore.New()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := func() time.Time { clock = clock.Add(time.Minute); return clock }
	svc := processsvc.New(processsvc.Deps{Templates: st.Templates(), Instances: st.Instances(), Now: now})
	ctx := context.Background()
	if _, err := svc.EnsureDefaults(ctx); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"第一支部", "第二支部", "机关支部"} {
		if _, err := svc.Start(ctx, models.ProcessElection, models.Subject{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Start(ctx, models.ProcessAdmission, models.Subject{Name: "王五"}); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx, models.ProcessElection, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Subject.Name != "机关支部" {
		t.Fatalf("list = %d, first %q", len(all), all[0].Subject.Name)
	}
	some, _ := svc.List(ctx, models.ProcessElection, "第")
	if len(some) != 2 {
		t.Errorf("search hits = %d, want 2", len(some))
	}
}
