package ledgerstore_test

import (
	"testing"
	"time"

	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/govhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AppendAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ledgerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	project := primitive.NewObjectID()
	other := primitive.NewObjectID()
	base := time.Now().UTC().Truncate(time.Millisecond)

	rows := []models.LedgerEntry{
		{ProjectID: project, Action: models.ActionSubmit, FromStatus: models.StatusDraft, ToStatus: models.StatusPendingCity, Operator: "author", CreatedAt: base},
		{ProjectID: project, Action: models.ActionApprove, FromStatus: models.StatusPendingCity, ToStatus: models.StatusPendingProvince, Operator: "city", CreatedAt: base.Add(time.Minute)},
		{ProjectID: other, Action: models.ActionSubmit, FromStatus: models.StatusDraft, ToStatus: models.StatusPendingCounty, Operator: "author", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range rows {
		if _, err := store.Append(ctx, r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	history, err := store.ListByProject(ctx, project)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(history) != 2 || history[0].Action != models.ActionSubmit || history[1].Action != models.ActionApprove {
		t.Fatalf("history = %+v", history)
	}

	tests := []struct {
		name   string
		filter ledgerstore.QueryFilter
		want   int
	}{
		{"all", ledgerstore.QueryFilter{}, 3},
		{"by operator", ledgerstore.QueryFilter{Operator: "author"}, 2},
		{"by action", ledgerstore.QueryFilter{Action: models.ActionApprove}, 1},
		{"by project", ledgerstore.QueryFilter{ProjectID: &other}, 1},
		{"limit", ledgerstore.QueryFilter{Limit: 2}, 2},
		{"no match", ledgerstore.QueryFilter{Operator: "nobody"}, 0},
		{"offset past end", ledgerstore.QueryFilter{Offset: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if got == nil {
				t.Fatal("Query returned nil slice, want empty")
			}
			if len(got) != tt.want {
				t.Errorf("got %d rows, want %d", len(got), tt.want)
			}
		})
	}
}

func TestStore_QueryPagesStablyOnEqualTimes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := ledgerstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	at := time.Now().UTC().Truncate(time.Millisecond)
	project := primitive.NewObjectID()
	for i := 0; i < 4; i++ {
		if _, err := store.Append(ctx, models.LedgerEntry{ProjectID: project, Action: models.ActionApprove, Operator: "city", CreatedAt: at}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	seen := map[primitive.ObjectID]bool{}
	for offset := int64(0); offset < 4; offset++ {
		page, err := store.Query(ctx, ledgerstore.QueryFilter{ProjectID: &project, Limit: 1, Offset: offset})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(page) != 1 {
			t.Fatalf("offset %d: got %d rows", offset, len(page))
		}
		if seen[page[0].ID] {
			t.Fatalf("offset %d repeated row %s", offset, page[0].ID.Hex())
		}
		seen[page[0].ID] = true
	}
}
