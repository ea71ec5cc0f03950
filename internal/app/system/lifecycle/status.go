// Package lifecycle holds the project status tables: the category
// classifier, the reviewer transition table, the execution/closure event
// table, and the selection rules. Everything here is pure.
package lifecycle

import (
	"strings"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
)

// Category is the coarse grouping used for filters, badges and statistics.
type Category string

const (
	CategoryDraft             Category = "draft"
	CategoryPending           Category = "pending"
	CategoryRejected          Category = "rejected"
	CategoryApproved          Category = "approved"
	CategoryPendingConclusion Category = "pending_conclusion"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryDraft,
	CategoryPending,
	CategoryRejected,
	CategoryApproved,
	CategoryPendingConclusion,
}

var categoryOf = map[models.ProjectStatus]Category{
	models.StatusDraft: CategoryDraft,

	models.StatusPendingCounty:   CategoryPending,
	models.StatusPendingCity:     CategoryPending,
	models.StatusPendingProvince: CategoryPending,

	models.StatusCountyRejected:   CategoryRejected,
	models.StatusCityRejected:     CategoryRejected,
	models.StatusProvinceRejected: CategoryRejected,
	models.StatusRejectedByAdmin:  CategoryRejected,

	models.StatusApproved:          CategoryApproved,
	models.StatusInProgress:        CategoryApproved,
	models.StatusConcluded:         CategoryApproved,
	models.StatusPublished:         CategoryApproved,
	models.StatusCitySelection:     CategoryApproved,
	models.StatusCitySelected:      CategoryApproved,
	models.StatusProvinceSelection: CategoryApproved,
	models.StatusProvinceSelected:  CategoryApproved,
	models.StatusTypicalCase:       CategoryApproved,

	models.StatusPendingConclusion: CategoryPendingConclusion,
}

// Classify maps a status to its category. Every status in
// models.AllProjectStatuses has exactly one category; anything else yields "".
func Classify(s models.ProjectStatus) Category {
	return categoryOf[s]
}

// Known reports whether s is one of the enumerated statuses.
func Known(s models.ProjectStatus) bool {
	_, ok := categoryOf[s]
	return ok
}

// Editable reports whether direct field edits (and deletion) are allowed:
// draft plus the rejected category.
func Editable(s models.ProjectStatus) bool {
	c := Classify(s)
	return c == CategoryDraft || c == CategoryRejected
}

// ParseStatus validates raw input at the boundary.
func ParseStatus(raw string) (models.ProjectStatus, error) {
	s := models.ProjectStatus(strings.TrimSpace(raw))
	if !Known(s) {
		return "", apperr.Validation("unknown project status %q", raw)
	}
	return s, nil
}

// ParseCategory validates a category name.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.TrimSpace(raw))
	for _, k := range Categories {
		if k == c {
			return c, nil
		}
	}
	return "", apperr.Validation("unknown status category %q", raw)
}

// StatusesIn returns the statuses that classify to c, in lifecycle order.
func StatusesIn(c Category) []models.ProjectStatus {
	var out []models.ProjectStatus
	for _, s := range models.AllProjectStatuses {
		if categoryOf[s] == c {
			out = append(out, s)
		}
	}
	return out
}
