// internal/domain/models/project.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStatus is the raw lifecycle status of a project.
type ProjectStatus string

const (
	StatusDraft             ProjectStatus = "draft"
	StatusPendingCounty     ProjectStatus = "pending_county"
	StatusPendingCity       ProjectStatus = "pending_city"
	StatusPendingProvince   ProjectStatus = "pending_province"
	StatusCountyRejected    ProjectStatus = "county_rejected"
	StatusCityRejected      ProjectStatus = "city_rejected"
	StatusProvinceRejected  ProjectStatus = "province_rejected"
	StatusRejectedByAdmin   ProjectStatus = "rejected_by_admin"
	StatusApproved          ProjectStatus = "approved"
	StatusInProgress        ProjectStatus = "in_progress"
	StatusPendingConclusion ProjectStatus = "pending_conclusion"
	StatusConcluded         ProjectStatus = "concluded"
	StatusPublished         ProjectStatus = "published"
	StatusCitySelection     ProjectStatus = "city_selection"
	StatusCitySelected      ProjectStatus = "city_selected"
	StatusProvinceSelection ProjectStatus = "province_selection"
	StatusProvinceSelected  ProjectStatus = "province_selected"
	StatusTypicalCase       ProjectStatus = "典型案例"
)

// AllProjectStatuses lists every status in lifecycle order.
var AllProjectStatuses = []ProjectStatus{
	StatusDraft,
	StatusPendingCounty,
	StatusPendingCity,
	StatusPendingProvince,
	StatusCountyRejected,
	StatusCityRejected,
	StatusProvinceRejected,
	StatusRejectedByAdmin,
	StatusApproved,
	StatusInProgress,
	StatusPendingConclusion,
	StatusConcluded,
	StatusPublished,
	StatusCitySelection,
	StatusCitySelected,
	StatusProvinceSelection,
	StatusProvinceSelected,
	StatusTypicalCase,
}

// ReportStatus is the sub-status of a progress report.
type ReportStatus string

const (
	ReportDraft     ReportStatus = "draft"
	ReportSubmitted ReportStatus = "submitted"
	ReportReturned  ReportStatus = "returned"
)

// ProgressReport is an informational checkpoint filed while a project runs.
type ProgressReport struct {
	ID            string       `bson:"id" json:"id"`
	Stage         string       `bson:"stage" json:"stage"`
	Title         string       `bson:"title" json:"title"`
	Content       string       `bson:"content" json:"content"`
	Achievements  string       `bson:"achievements,omitempty" json:"achievements,omitempty"`
	Issues        string       `bson:"issues,omitempty" json:"issues,omitempty"`
	NextPlan      string       `bson:"next_plan,omitempty" json:"next_plan,omitempty"`
	Status        ReportStatus `bson:"status" json:"status"`
	ReturnComment string       `bson:"return_comment,omitempty" json:"return_comment,omitempty"`
	SubmitterName string       `bson:"submitter_name,omitempty" json:"submitter_name,omitempty"`
	SubmittedAt   *time.Time   `bson:"submitted_at,omitempty" json:"submitted_at,omitempty"`
	CreatedAt     time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `bson:"updated_at" json:"updated_at"`
}

// ConclusionStatus is the sub-status of a conclusion report.
type ConclusionStatus string

const (
	ConclusionPending  ConclusionStatus = "pending"
	ConclusionApproved ConclusionStatus = "approved"
	ConclusionRejected ConclusionStatus = "rejected"
)

// ConclusionReport is the single closing report of a project.
type ConclusionReport struct {
	ID           string           `bson:"id" json:"id"`
	Summary      string           `bson:"summary" json:"summary"`
	Achievements string           `bson:"achievements,omitempty" json:"achievements,omitempty"`
	Innovations  string           `bson:"innovations,omitempty" json:"innovations,omitempty"`
	Applications string           `bson:"applications,omitempty" json:"applications,omitempty"`
	Status       ConclusionStatus `bson:"status" json:"status"`
	AuditComment string           `bson:"audit_comment,omitempty" json:"audit_comment,omitempty"`
	SubmittedAt  time.Time        `bson:"submitted_at" json:"submitted_at"`
	ReviewedAt   *time.Time       `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
}

// SelectionResult is the outcome recorded at one selection level.
type SelectionResult string

const (
	CitySelecting  SelectionResult = "selecting"
	CityFirst      SelectionResult = "1st"
	CitySecond     SelectionResult = "2nd"
	CityThird      SelectionResult = "3rd"
	CityNotAwarded SelectionResult = "not-awarded"

	ProvinceNotRecommended SelectionResult = "not-recommended"
	ProvinceSelecting      SelectionResult = "selecting"
	ProvinceIncluded       SelectionResult = "included"
	ProvinceNotIncluded    SelectionResult = "not-included"
)

// Selection records the award selection at one level ("city" or "province").
type Selection struct {
	Level  string          `bson:"level" json:"level"`
	Result SelectionResult `bson:"result" json:"result"`
}

// Project is a governance project proposal moving through review,
// execution, conclusion and selection.
type Project struct {
	ID                primitive.ObjectID  `bson:"_id" json:"id"`
	Title             string              `bson:"title" json:"title"`
	TitleCI           string              `bson:"title_ci" json:"-"`
	BatchID           string              `bson:"batch_id,omitempty" json:"batch_id,omitempty"`
	BatchName         string              `bson:"batch_name,omitempty" json:"batch_name,omitempty"`
	Category          string              `bson:"category,omitempty" json:"category,omitempty"`
	Summary           string              `bson:"summary,omitempty" json:"summary,omitempty"`
	OrganizationID    *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`
	OrganizationName  string              `bson:"organization_name,omitempty" json:"organization_name,omitempty"`
	OrgLevel          OrgLevel            `bson:"org_level,omitempty" json:"org_level,omitempty"`
	Leader            string              `bson:"leader,omitempty" json:"leader,omitempty"`
	Members           []string            `bson:"members,omitempty" json:"members,omitempty"`
	Phone             string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Status            ProjectStatus       `bson:"status" json:"status"`
	ProgressReports   []ProgressReport    `bson:"progress_reports,omitempty" json:"progress_reports"`
	ConclusionReport  *ConclusionReport   `bson:"conclusion_report,omitempty" json:"conclusion_report,omitempty"`
	CitySelection     *Selection          `bson:"city_selection,omitempty" json:"city_selection,omitempty"`
	ProvinceSelection *Selection          `bson:"province_selection,omitempty" json:"province_selection,omitempty"`
	RecommendedAt     *time.Time          `bson:"recommended_at,omitempty" json:"recommended_at,omitempty"`
	Version           int64               `bson:"version" json:"version"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updated_at"`
}

// FindReport returns the index of the progress report with the given id, or -1.
func (p *Project) FindReport(id string) int {
	for i := range p.ProgressReports {
		if p.ProgressReports[i].ID == id {
			return i
		}
	}
	return -1
}
