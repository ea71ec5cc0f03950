package auditlog

import (
	"context"
	"testing"

	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTransition_Mirrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := New(zap.New(core), Config{Ledger: "all"})

	l.Transition(context.Background(), models.LedgerEntry{
		ProjectID:  primitive.NewObjectID(),
		Action:     models.ActionApprove,
		FromStatus: models.StatusPendingCity,
		ToStatus:   models.StatusPendingProvince,
		Operator:   "市局审核员",
		OrgTier:    models.OrgLevelCity,
	})

	entries := logs.FilterMessage("project transition").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["audit"] != true || fields["from_status"] != "pending_city" || fields["org_tier"] != "city" {
		t.Errorf("fields = %v", fields)
	}
}

func TestLogger_OffAndNil(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	off := New(zap.New(core), Config{Ledger: "off"})
	off.Transition(context.Background(), models.LedgerEntry{})
	off.LifecycleEvent(context.Background(), "p", "start", models.StatusApproved, models.StatusInProgress, "x")
	if logs.Len() != 0 {
		t.Errorf("expected no logs when off, got %d", logs.Len())
	}

	var nilLogger *Logger
	nilLogger.NodeToggled(context.Background(), models.ProcessElection, "i", "s", "n", true)
}
