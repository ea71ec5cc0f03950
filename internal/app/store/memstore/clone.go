package memstore

import (
	"time"

	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func cloneIDPtr(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneOrg(o models.Organization) models.Organization {
	o.ParentID = cloneIDPtr(o.ParentID)
	return o
}

func cloneProject(p models.Project) models.Project {
	p.OrganizationID = cloneIDPtr(p.OrganizationID)
	p.RecommendedAt = cloneTimePtr(p.RecommendedAt)
	if p.Members != nil {
		p.Members = append([]string(nil), p.Members...)
	}
	if p.ProgressReports != nil {
		reports := make([]models.ProgressReport, len(p.ProgressReports))
		for i, r := range p.ProgressReports {
			r.SubmittedAt = cloneTimePtr(r.SubmittedAt)
			reports[i] = r
		}
		p.ProgressReports = reports
	}
	if p.ConclusionReport != nil {
		c := *p.ConclusionReport
		c.ReviewedAt = cloneTimePtr(c.ReviewedAt)
		p.ConclusionReport = &c
	}
	if p.CitySelection != nil {
		s := *p.CitySelection
		p.CitySelection = &s
	}
	if p.ProvinceSelection != nil {
		s := *p.ProvinceSelection
		p.ProvinceSelection = &s
	}
	return p
}

func cloneDoc(d *models.DocumentRef) *models.DocumentRef {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTemplate(t models.ProcessTemplate) models.ProcessTemplate {
	if t.Stages == nil {
		return t
	}
	stages := make([]models.Stage, len(t.Stages))
	for i, s := range t.Stages {
		nodes := make([]models.Node, len(s.Nodes))
		for j, n := range s.Nodes {
			n.Document = cloneDoc(n.Document)
			nodes[j] = n
		}
		s.Nodes = nodes
		stages[i] = s
	}
	t.Stages = stages
	return t
}

func cloneInstance(inst models.ProcessInstance) models.ProcessInstance {
	if inst.Subject.Metadata != nil {
		md := make(map[string]string, len(inst.Subject.Metadata))
		for k, v := range inst.Subject.Metadata {
			md[k] = v
		}
		inst.Subject.Metadata = md
	}
	if inst.Stages == nil {
		return inst
	}
	stages := make([]models.StageState, len(inst.Stages))
	for i, s := range inst.Stages {
		nodes := make([]models.NodeState, len(s.Nodes))
		for j, n := range s.Nodes {
			n.Document = cloneDoc(n.Document)
			n.CompletedAt = cloneTimePtr(n.CompletedAt)
			if n.UploadedFile != nil {
				f := *n.UploadedFile
				n.UploadedFile = &f
			}
			nodes[j] = n
		}
		s.Nodes = nodes
		stages[i] = s
	}
	inst.Stages = stages
	return inst
}
