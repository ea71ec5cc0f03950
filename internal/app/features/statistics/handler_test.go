package statistics_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dalemusser/govhub/internal/app/features/statistics"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/app/store/memstore"
	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/govhub/internal/testutil"
	"go.uber.org/zap"
)

func TestServe(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	bus := events.NewBus()
	for _, s := range []models.ProjectStatus{models.StatusDraft, models.StatusApproved, models.StatusCityRejected} {
		if _, err := st.Projects().Create(ctx, models.Project{Title: "p", Status: s}); err != nil {
			t.Fatal(err)
		}
	}
	h := statistics.NewHandler(projectsvc.NewStats(st.Projects(), st.Instances(), bus), zap.NewNop())

	rec := testutil.NewRecorder()
	statistics.Routes(h).ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)

	var got projectsvc.Statistics
	rec.DecodeJSON(t, &got)
	if got.Total != 3 || got.PassRate != 0.5 {
		t.Errorf("stats = %+v", got)
	}
	if got.ByCategory[lifecycle.CategoryDraft] != 1 {
		t.Errorf("by category = %+v", got.ByCategory)
	}
	if f, ok := got.Processes[models.ProcessElection]; !ok || f.Instances != 0 {
		t.Errorf("processes = %+v", got.Processes)
	}
}
