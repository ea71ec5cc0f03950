// internal/domain/models/ledger.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewAction is a reviewer action that moves a project between statuses
// and leaves a ledger row behind.
type ReviewAction string

const (
	ActionSubmit  ReviewAction = "submit"
	ActionApprove ReviewAction = "approve"
	ActionReject  ReviewAction = "reject"
	ActionReturn  ReviewAction = "return"
)

// LedgerEntry is one append-only row of project transition history.
// Entries are never updated or deleted.
type LedgerEntry struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ProjectID  primitive.ObjectID `bson:"project_id" json:"project_id"`
	Action     ReviewAction       `bson:"action" json:"action"`
	FromStatus ProjectStatus      `bson:"from_status" json:"from_status"`
	ToStatus   ProjectStatus      `bson:"to_status" json:"to_status"`
	Operator   string             `bson:"operator" json:"operator"`
	OrgTier    OrgLevel           `bson:"org_tier,omitempty" json:"org_tier,omitempty"`
	Comment    string             `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
