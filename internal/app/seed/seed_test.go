package seed_test

import (
	"context"
	"testing"

	"github.com/dalemusser/govhub/internal/app/seed"
	processsvc "github.com/dalemusser/govhub/internal/app/services/processes"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	"github.com/dalemusser/govhub/internal/app/store/memstore"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
)

func deps(st *memstore.Store, policy lifecycle.Policy) seed.Deps {
	return seed.Deps{
		Orgs: st.Organizations(),
		Projects: projectsvc.New(projectsvc.Deps{
			Projects: st.Projects(),
			Ledger:   st.Ledger(),
			Orgs:     st.Organizations(),
			Policy:   policy,
		}),
		Processes: processsvc.New(processsvc.Deps{Templates: st.Templates(), Instances: st.Instances()}),
	}
}

func TestDemo(t *testing.T) {
	for _, top := range []models.OrgLevel{models.OrgLevelProvince, models.OrgLevelCity} {
		t.Run(string(top), func(t *testing.T) {
			ctx := context.Background()
			st := memstore.New()
			sum, err := seed.Demo(ctx, deps(st, lifecycle.Policy{TopTier: top}))
			if err != nil {
				t.Fatalf("Demo: %v", err)
			}
			if sum.Organizations != 8 || sum.Projects != 6 || sum.Templates != 2 || sum.Instances != 5 {
				t.Errorf("summary = %+v", sum)
			}

			counts, _ := st.Projects().CountByStatus(ctx)
			want := map[models.ProjectStatus]int64{
				models.StatusDraft:         1,
				models.StatusPendingCounty: 1,
				models.StatusPendingCity:   1,
				models.StatusCityRejected:  1,
				models.StatusInProgress:    1,
				models.StatusTypicalCase:   1,
			}
			for s, n := range want {
				if counts[s] != n {
					t.Errorf("%s = %d, want %d", s, counts[s], n)
				}
			}

			again, err := seed.Demo(ctx, deps(st, lifecycle.Policy{TopTier: top}))
			if err != nil || !again.Skipped {
				t.Errorf("second run = %+v, %v", again, err)
			}
		})
	}
}
