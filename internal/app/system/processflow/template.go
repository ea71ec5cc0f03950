// Package processflow is the stage/node process engine shared by committee
// elections and membership admission: template tree editing, instantiation,
// node toggling, and the progress derivations read by list and detail views.
// Functions here mutate values in place and never touch storage.
package processflow

import (
	"sort"
	"strings"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/google/uuid"
)

// newID generates stage and node ids.
var newID = func() string { return uuid.NewString() }

// NodeInput is the editable part of a node.
type NodeInput struct {
	Name        string              `json:"name" yaml:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty"`
	Document    *models.DocumentRef `json:"document,omitempty" yaml:"document,omitempty"`
}

func (in NodeInput) normalize() (NodeInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, apperr.Validation("node name is required")
	}
	if in.Document != nil && strings.TrimSpace(in.Document.Name) == "" && strings.TrimSpace(in.Document.Location) == "" {
		in.Document = nil
	}
	return in, nil
}

func stageIndex(t *models.ProcessTemplate, stageID string) (int, error) {
	for i := range t.Stages {
		if t.Stages[i].ID == stageID {
			return i, nil
		}
	}
	return -1, apperr.NotFound("stage %s not found", stageID)
}

func nodeIndex(s *models.Stage, nodeID string) (int, error) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == nodeID {
			return i, nil
		}
	}
	return -1, apperr.NotFound("node %s not found", nodeID)
}

// Renumber sorts stages by their current order and rewrites order as 1..N.
func Renumber(stages []models.Stage) {
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].Order < stages[j].Order })
	for i := range stages {
		stages[i].Order = i + 1
	}
}

// CheckOrders verifies stage orders run 1..N in slice order.
func CheckOrders(stages []models.Stage) error {
	for i, s := range stages {
		if s.Order != i+1 {
			return apperr.Validation("stage %q has order %d, want %d", s.Name, s.Order, i+1)
		}
	}
	return nil
}

// AddStage appends an empty stage at the end of the template.
func AddStage(t *models.ProcessTemplate, name string) (models.Stage, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Stage{}, apperr.Validation("stage name is required")
	}
	s := models.Stage{
		ID:    newID(),
		Name:  name,
		Order: len(t.Stages) + 1,
		Nodes: []models.Node{},
	}
	t.Stages = append(t.Stages, s)
	return s, nil
}

// RenameStage changes a stage's name.
func RenameStage(t *models.ProcessTemplate, stageID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("stage name is required")
	}
	i, err := stageIndex(t, stageID)
	if err != nil {
		return err
	}
	t.Stages[i].Name = name
	return nil
}

// RemoveStage deletes a stage and closes the gap in ordering.
func RemoveStage(t *models.ProcessTemplate, stageID string) error {
	i, err := stageIndex(t, stageID)
	if err != nil {
		return err
	}
	t.Stages = append(t.Stages[:i], t.Stages[i+1:]...)
	for k := range t.Stages {
		t.Stages[k].Order = k + 1
	}
	return nil
}

// MoveStage moves a stage to position newOrder (1-based) and renumbers every
// stage. Out-of-range positions are clamped.
func MoveStage(t *models.ProcessTemplate, stageID string, newOrder int) error {
	i, err := stageIndex(t, stageID)
	if err != nil {
		return err
	}
	if newOrder < 1 {
		newOrder = 1
	}
	if newOrder > len(t.Stages) {
		newOrder = len(t.Stages)
	}
	moved := t.Stages[i]
	rest := append(append([]models.Stage{}, t.Stages[:i]...), t.Stages[i+1:]...)
	out := make([]models.Stage, 0, len(t.Stages))
	out = append(out, rest[:newOrder-1]...)
	out = append(out, moved)
	out = append(out, rest[newOrder-1:]...)
	for k := range out {
		out[k].Order = k + 1
	}
	t.Stages = out
	return nil
}

// AddNode appends a node to a stage.
func AddNode(t *models.ProcessTemplate, stageID string, in NodeInput) (models.Node, error) {
	in, err := in.normalize()
	if err != nil {
		return models.Node{}, err
	}
	i, err := stageIndex(t, stageID)
	if err != nil {
		return models.Node{}, err
	}
	n := models.Node{
		ID:          newID(),
		Name:        in.Name,
		Description: in.Description,
		Document:    in.Document,
	}
	t.Stages[i].Nodes = append(t.Stages[i].Nodes, n)
	return n, nil
}

// EditNode replaces a node's name, description and document reference.
func EditNode(t *models.ProcessTemplate, stageID, nodeID string, in NodeInput) error {
	in, err := in.normalize()
	if err != nil {
		return err
	}
	i, err := stageIndex(t, stageID)
	if err != nil {
		return err
	}
	j, err := nodeIndex(&t.Stages[i], nodeID)
	if err != nil {
		return err
	}
	n := &t.Stages[i].Nodes[j]
	n.Name = in.Name
	n.Description = in.Description
	n.Document = in.Document
	return nil
}

// DeleteNode removes a node from a stage. Stages may end up empty.
func DeleteNode(t *models.ProcessTemplate, stageID, nodeID string) error {
	i, err := stageIndex(t, stageID)
	if err != nil {
		return err
	}
	j, err := nodeIndex(&t.Stages[i], nodeID)
	if err != nil {
		return err
	}
	nodes := t.Stages[i].Nodes
	t.Stages[i].Nodes = append(nodes[:j], nodes[j+1:]...)
	return nil
}

// Instantiable reports whether a template can start an instance.
func Instantiable(t models.ProcessTemplate) error {
	if len(t.Stages) == 0 {
		return apperr.Validation("template %q has no stages", t.Name)
	}
	return nil
}
