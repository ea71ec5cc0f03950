package processflow

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// templateDoc is the YAML shape of one template.
type templateDoc struct {
	Name   string     `yaml:"name"`
	Stages []stageDoc `yaml:"stages"`
}

type stageDoc struct {
	ID    string    `yaml:"id,omitempty"`
	Name  string    `yaml:"name"`
	Nodes []nodeDoc `yaml:"nodes"`
}

type nodeDoc struct {
	ID        string `yaml:"id,omitempty"`
	NodeInput `yaml:",inline"`
}

// ParseTemplates decodes a kind-keyed YAML document into templates.
// Missing ids are generated; stage order follows document order.
func ParseTemplates(data []byte, now time.Time) (map[models.ProcessKind]models.ProcessTemplate, error) {
	var docs map[models.ProcessKind]templateDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	out := make(map[models.ProcessKind]models.ProcessTemplate, len(docs))
	for kind, doc := range docs {
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown process kind %q", kind)
		}
		t := models.ProcessTemplate{
			ID:        primitive.NewObjectID(),
			Kind:      kind,
			Name:      doc.Name,
			Stages:    make([]models.Stage, 0, len(doc.Stages)),
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		for i, sd := range doc.Stages {
			s := models.Stage{ID: sd.ID, Name: sd.Name, Order: i + 1, Nodes: make([]models.Node, 0, len(sd.Nodes))}
			if s.ID == "" {
				s.ID = newID()
			}
			for _, nd := range sd.Nodes {
				in, err := nd.NodeInput.normalize()
				if err != nil {
					return nil, fmt.Errorf("%s stage %q: %w", kind, sd.Name, err)
				}
				n := models.Node{ID: nd.ID, Name: in.Name, Description: in.Description, Document: in.Document}
				if n.ID == "" {
					n.ID = newID()
				}
				s.Nodes = append(s.Nodes, n)
			}
			t.Stages = append(t.Stages, s)
		}
		out[kind] = t
	}
	return out, nil
}

// DefaultTemplate returns the built-in template for a kind.
func DefaultTemplate(kind models.ProcessKind, now time.Time) (models.ProcessTemplate, error) {
	all, err := ParseTemplates(defaultsYAML, now)
	if err != nil {
		return models.ProcessTemplate{}, err
	}
	t, ok := all[kind]
	if !ok {
		return models.ProcessTemplate{}, fmt.Errorf("no default template for %q", kind)
	}
	return t, nil
}

// ExportTemplates encodes templates in the same YAML shape ParseTemplates reads.
func ExportTemplates(templates ...models.ProcessTemplate) ([]byte, error) {
	docs := make(map[models.ProcessKind]templateDoc, len(templates))
	for _, t := range templates {
		doc := templateDoc{Name: t.Name}
		for _, s := range t.Stages {
			sd := stageDoc{ID: s.ID, Name: s.Name}
			for _, n := range s.Nodes {
				sd.Nodes = append(sd.Nodes, nodeDoc{
					ID:        n.ID,
					NodeInput: NodeInput{Name: n.Name, Description: n.Description, Document: n.Document},
				})
			}
			doc.Stages = append(doc.Stages, sd)
		}
		docs[t.Kind] = doc
	}
	return yaml.Marshal(docs)
}
