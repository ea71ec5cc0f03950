package projectsvc

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/app/system/processflow"
	"github.com/dalemusser/govhub/internal/domain/models"
)

// ProcessFigures summarizes the instances of one process kind.
type ProcessFigures struct {
	Instances       int `json:"instances"`
	Finished        int `json:"finished"`
	AverageProgress int `json:"average_progress"`
}

// Statistics is the dashboard read model.
type Statistics struct {
	Total       int64                                 `json:"total"`
	ByCategory  map[lifecycle.Category]int64          `json:"by_category"`
	ByStatus    map[models.ProjectStatus]int64        `json:"by_status"`
	PassRate    float64                               `json:"pass_rate"`
	Processes   map[models.ProcessKind]ProcessFigures `json:"processes,omitempty"`
	GeneratedAt time.Time                             `json:"generated_at"`
}

// Aggregate classifies raw status counts. Every category appears in the
// result, zero or not. PassRate is approved / (approved + rejected), 0 when
// neither has any projects.
func Aggregate(byStatus map[models.ProjectStatus]int64) Statistics {
	st := Statistics{
		ByCategory: make(map[lifecycle.Category]int64, len(lifecycle.Categories)),
		ByStatus:   make(map[models.ProjectStatus]int64, len(byStatus)),
	}
	for _, c := range lifecycle.Categories {
		st.ByCategory[c] = 0
	}
	for s, n := range byStatus {
		st.ByStatus[s] = n
		st.Total += n
		if c := lifecycle.Classify(s); c != "" {
			st.ByCategory[c] += n
		}
	}
	approved := st.ByCategory[lifecycle.CategoryApproved]
	rejected := st.ByCategory[lifecycle.CategoryRejected]
	if approved+rejected > 0 {
		st.PassRate = float64(approved) / float64(approved+rejected)
	}
	return st
}

// Figures summarizes a set of instances of one kind.
func Figures(list []models.ProcessInstance) ProcessFigures {
	f := ProcessFigures{Instances: len(list)}
	if len(list) == 0 {
		return f
	}
	sum := 0
	for _, inst := range list {
		p := processflow.Progress(inst)
		if p == 100 {
			f.Finished++
		}
		sum += p
	}
	f.AverageProgress = sum / len(list)
	return f
}

// Stats caches Statistics until a project or instance changes.
type Stats struct {
	projects  ProjectRepo
	instances InstanceLister
	now       func() time.Time

	mu     sync.Mutex
	gen    uint64
	cached *Statistics
}

// NewStats subscribes to bus so the cache drops on every change. instances
// may be nil, in which case process figures are omitted.
func NewStats(projects ProjectRepo, instances InstanceLister, bus *events.Bus) *Stats {
	s := &Stats{
		projects:  projects,
		instances: instances,
		now:       func() time.Time { return time.Now().UTC() },
	}
	bus.Subscribe(func(e events.Event) {
		if e.Kind == events.ProjectChanged || e.Kind == events.InstanceChanged {
			s.Invalidate()
		}
	})
	return s
}

// Invalidate drops the cached value.
func (s *Stats) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cached = nil
	s.mu.Unlock()
}

// Get returns cached statistics, computing them on a miss. A result computed
// while an invalidation raced it is returned but not cached.
func (s *Stats) Get(ctx context.Context) (Statistics, error) {
	s.mu.Lock()
	if s.cached != nil {
		st := *s.cached
		s.mu.Unlock()
		return st, nil
	}
	gen := s.gen
	s.mu.Unlock()

	counts, err := s.projects.CountByStatus(ctx)
	if err != nil {
		return Statistics{}, err
	}
	st := Aggregate(counts)
	if s.instances != nil {
		st.Processes = map[models.ProcessKind]ProcessFigures{}
		for _, kind := range []models.ProcessKind{models.ProcessElection, models.ProcessAdmission} {
			list, err := s.instances.List(ctx, kind)
			if err != nil {
				return Statistics{}, err
			}
			st.Processes[kind] = Figures(list)
		}
	}
	st.GeneratedAt = s.now()

	s.mu.Lock()
	if s.gen == gen {
		cp := st
		s.cached = &cp
	}
	s.mu.Unlock()
	return st, nil
}
