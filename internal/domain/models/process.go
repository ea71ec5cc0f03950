// internal/domain/models/process.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessKind distinguishes the tracked process families. Both kinds share
// one engine; only their templates and subjects differ.
type ProcessKind string

const (
	ProcessElection  ProcessKind = "election"  // branch committee elections
	ProcessAdmission ProcessKind = "admission" // membership admission
)

// Valid reports whether k is a known process kind.
func (k ProcessKind) Valid() bool {
	return k == ProcessElection || k == ProcessAdmission
}

// DocumentRef points at an external document template. The engine never
// opens it; name and location are carried through as-is.
type DocumentRef struct {
	Name     string `bson:"name" json:"name"`
	Location string `bson:"location" json:"location"`
}

// Node is the smallest trackable unit of work within a stage.
type Node struct {
	ID          string       `bson:"id" json:"id"`
	Name        string       `bson:"name" json:"name"`
	Description string       `bson:"description,omitempty" json:"description,omitempty"`
	Document    *DocumentRef `bson:"document,omitempty" json:"document,omitempty"`
}

// Stage is an ordered phase of a template. Order runs 1..N without gaps.
type Stage struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Order int    `bson:"order" json:"order"`
	Nodes []Node `bson:"nodes" json:"nodes"`
}

// ProcessTemplate is the editable stage/node tree for one process kind.
type ProcessTemplate struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Kind      ProcessKind        `bson:"kind" json:"kind"`
	Name      string             `bson:"name" json:"name"`
	Stages    []Stage            `bson:"stages" json:"stages"`
	Version   int64              `bson:"version" json:"version"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// TotalNodes counts nodes across all stages.
func (t ProcessTemplate) TotalNodes() int {
	n := 0
	for _, s := range t.Stages {
		n += len(s.Nodes)
	}
	return n
}

// FileRef records an uploaded file against a node. File bytes live in
// external storage.
type FileRef struct {
	Name       string    `bson:"name" json:"name"`
	Location   string    `bson:"location" json:"location"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// NodeState is a node snapshot plus its completion state.
type NodeState struct {
	ID           string       `bson:"id" json:"id"`
	Name         string       `bson:"name" json:"name"`
	Description  string       `bson:"description,omitempty" json:"description,omitempty"`
	Document     *DocumentRef `bson:"document,omitempty" json:"document,omitempty"`
	Completed    bool         `bson:"completed" json:"completed"`
	CompletedAt  *time.Time   `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	UploadedFile *FileRef     `bson:"uploaded_file,omitempty" json:"uploaded_file,omitempty"`
}

// StageState is a stage snapshot inside an instance.
type StageState struct {
	ID    string      `bson:"id" json:"id"`
	Name  string      `bson:"name" json:"name"`
	Order int         `bson:"order" json:"order"`
	Nodes []NodeState `bson:"nodes" json:"nodes"`
}

// Subject identifies what an instance tracks: a branch for elections,
// a candidate for admission.
type Subject struct {
	Ref      string            `bson:"ref" json:"ref"`
	Name     string            `bson:"name" json:"name"`
	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// ProcessInstance is a concrete run of a template for one subject. Stages
// are a snapshot taken at creation; later template edits do not reach it.
type ProcessInstance struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Kind            ProcessKind        `bson:"kind" json:"kind"`
	TemplateID      primitive.ObjectID `bson:"template_id" json:"template_id"`
	TemplateVersion int64              `bson:"template_version" json:"template_version"`
	Subject         Subject            `bson:"subject" json:"subject"`
	Stages          []StageState       `bson:"stages" json:"stages"`
	Version         int64              `bson:"version" json:"version"`
	StartedAt       time.Time          `bson:"started_at" json:"started_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
