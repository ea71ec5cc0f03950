// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrgLevel is the tier an organization sits at in the directory tree.
type OrgLevel string

const (
	OrgLevelProvince OrgLevel = "province"
	OrgLevelCity     OrgLevel = "city"
	OrgLevelCounty   OrgLevel = "county"
	OrgLevelBranch   OrgLevel = "branch"
)

// Valid reports whether l is one of the known levels.
func (l OrgLevel) Valid() bool {
	switch l {
	case OrgLevelProvince, OrgLevelCity, OrgLevelCounty, OrgLevelBranch:
		return true
	}
	return false
}

// Organization is a node in the parent-pointer directory tree.
// A nil ParentID marks a root.
type Organization struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	Name      string              `bson:"name" json:"name"`
	NameCI    string              `bson:"name_ci" json:"-"` // ← always stored
	Level     OrgLevel            `bson:"level" json:"level"`
	ParentID  *primitive.ObjectID `bson:"parent_id" json:"parent_id"`
	Code      string              `bson:"code" json:"code"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// IsRoot reports whether the organization has no parent.
func (o Organization) IsRoot() bool {
	return o.ParentID == nil
}
