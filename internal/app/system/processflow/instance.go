package processflow

import (
	"strings"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TogglePolicy controls what un-completing a node does to its upload.
type TogglePolicy struct {
	// ClearUploadOnUncomplete drops the uploaded file reference when a node
	// goes from completed back to incomplete. The default keeps it.
	ClearUploadOnUncomplete bool
}

// Instantiate deep-copies the template's current stages into a new instance
// with every node incomplete. The instance never follows later template edits.
func Instantiate(t models.ProcessTemplate, subject models.Subject, now time.Time) (models.ProcessInstance, error) {
	if err := Instantiable(t); err != nil {
		return models.ProcessInstance{}, err
	}
	subject.Ref = strings.TrimSpace(subject.Ref)
	subject.Name = strings.TrimSpace(subject.Name)
	if subject.Name == "" {
		return models.ProcessInstance{}, apperr.Validation("subject name is required")
	}

	stages := make([]models.StageState, 0, len(t.Stages))
	for _, s := range t.Stages {
		nodes := make([]models.NodeState, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			ns := models.NodeState{
				ID:          n.ID,
				Name:        n.Name,
				Description: n.Description,
			}
			if n.Document != nil {
				doc := *n.Document
				ns.Document = &doc
			}
			nodes = append(nodes, ns)
		}
		stages = append(stages, models.StageState{
			ID:    s.ID,
			Name:  s.Name,
			Order: s.Order,
			Nodes: nodes,
		})
	}

	var meta map[string]string
	if len(subject.Metadata) > 0 {
		meta = make(map[string]string, len(subject.Metadata))
		for k, v := range subject.Metadata {
			meta[k] = v
		}
	}
	subject.Metadata = meta

	return models.ProcessInstance{
		ID:              primitive.NewObjectID(),
		Kind:            t.Kind,
		TemplateID:      t.ID,
		TemplateVersion: t.Version,
		Subject:         subject,
		Stages:          stages,
		StartedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func locateNode(inst *models.ProcessInstance, stageID, nodeID string) (*models.NodeState, error) {
	for i := range inst.Stages {
		if inst.Stages[i].ID != stageID {
			continue
		}
		for j := range inst.Stages[i].Nodes {
			if inst.Stages[i].Nodes[j].ID == nodeID {
				return &inst.Stages[i].Nodes[j], nil
			}
		}
		return nil, apperr.NotFound("node %s not found in stage %s", nodeID, stageID)
	}
	return nil, apperr.NotFound("stage %s not found", stageID)
}

// Toggle flips a node's completion and returns the new value. Completing
// stamps CompletedAt; un-completing clears it.
func Toggle(inst *models.ProcessInstance, stageID, nodeID string, now time.Time, policy TogglePolicy) (bool, error) {
	n, err := locateNode(inst, stageID, nodeID)
	if err != nil {
		return false, err
	}
	if n.Completed {
		n.Completed = false
		n.CompletedAt = nil
		if policy.ClearUploadOnUncomplete {
			n.UploadedFile = nil
		}
	} else {
		n.Completed = true
		at := now
		n.CompletedAt = &at
	}
	inst.UpdatedAt = now
	return n.Completed, nil
}

// AttachFile records an uploaded file reference on a node.
func AttachFile(inst *models.ProcessInstance, stageID, nodeID string, f models.FileRef, now time.Time) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Location = strings.TrimSpace(f.Location)
	if f.Name == "" || f.Location == "" {
		return apperr.Validation("file name and location are required")
	}
	n, err := locateNode(inst, stageID, nodeID)
	if err != nil {
		return err
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = now
	}
	n.UploadedFile = &f
	inst.UpdatedAt = now
	return nil
}
