package processflow

import (
	"time"

	"github.com/dalemusser/govhub/internal/domain/models"
)

// StageStatus is the derived state of one stage.
type StageStatus string

const (
	StageCompleted  StageStatus = "completed"
	StageInProgress StageStatus = "in-progress"
	StagePending    StageStatus = "pending"
)

// Totals returns the node count and completed count of an instance.
func Totals(inst models.ProcessInstance) (total, completed int) {
	for _, s := range inst.Stages {
		for _, n := range s.Nodes {
			total++
			if n.Completed {
				completed++
			}
		}
	}
	return total, completed
}

// Percent rounds completed/total to a whole percentage, half away from zero.
// It is 0 for an empty total and reaches 100 only when every node is done.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := (completed*200 + total) / (2 * total)
	if p >= 100 && completed < total {
		return 99
	}
	return p
}

// Progress is the completion percentage of an instance.
func Progress(inst models.ProcessInstance) int {
	total, completed := Totals(inst)
	return Percent(completed, total)
}

// StatusOf derives a stage's status from its nodes. A stage with no nodes
// is trivially completed.
func StatusOf(s models.StageState) StageStatus {
	done := 0
	for _, n := range s.Nodes {
		if n.Completed {
			done++
		}
	}
	switch {
	case done == len(s.Nodes):
		return StageCompleted
	case done > 0:
		return StageInProgress
	default:
		return StagePending
	}
}

// Pointer locates the current stage and node of an instance.
type Pointer struct {
	StageIndex int    `json:"stage_index"`
	StageID    string `json:"stage_id"`
	StageName  string `json:"stage_name"`
	NodeID     string `json:"node_id"`
	NodeName   string `json:"node_name"`
}

// CurrentPointer scans stages in order and returns the first incomplete node.
// ok is false when nothing is left to do.
func CurrentPointer(inst models.ProcessInstance) (p Pointer, ok bool) {
	for i, s := range inst.Stages {
		for _, n := range s.Nodes {
			if !n.Completed {
				return Pointer{
					StageIndex: i,
					StageID:    s.ID,
					StageName:  s.Name,
					NodeID:     n.ID,
					NodeName:   n.Name,
				}, true
			}
		}
	}
	return Pointer{}, false
}

// StageProgress is the per-stage row of a Summary.
type StageProgress struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Order     int         `json:"order"`
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	Status    StageStatus `json:"status"`
}

// Summary is the derived read model of an instance for list and detail views.
type Summary struct {
	TotalNodes     int             `json:"total_nodes"`
	CompletedNodes int             `json:"completed_nodes"`
	Progress       int             `json:"progress"`
	Finished       bool            `json:"finished"`
	Current        *Pointer        `json:"current,omitempty"`
	Stages         []StageProgress `json:"stages"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// Summarize computes every derived field of an instance in one pass.
func Summarize(inst models.ProcessInstance) Summary {
	total, completed := Totals(inst)
	sum := Summary{
		TotalNodes:     total,
		CompletedNodes: completed,
		Progress:       Percent(completed, total),
		Stages:         make([]StageProgress, 0, len(inst.Stages)),
		LastUpdated:    inst.UpdatedAt,
	}
	for _, s := range inst.Stages {
		done := 0
		for _, n := range s.Nodes {
			if n.Completed {
				done++
			}
		}
		sum.Stages = append(sum.Stages, StageProgress{
			ID:        s.ID,
			Name:      s.Name,
			Order:     s.Order,
			Total:     len(s.Nodes),
			Completed: done,
			Status:    StatusOf(s),
		})
	}
	if p, ok := CurrentPointer(inst); ok {
		sum.Current = &p
	} else {
		sum.Finished = true
	}
	return sum
}
