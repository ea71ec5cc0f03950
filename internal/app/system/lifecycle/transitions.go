package lifecycle

import (
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
)

// Policy carries the deployment-dependent choices of the review chain.
type Policy struct {
	// TopTier is the last review tier. When it is city, approval at
	// pending_city finalizes the project; otherwise it goes on to province.
	TopTier models.OrgLevel
}

// DefaultPolicy reviews through province.
func DefaultPolicy() Policy {
	return Policy{TopTier: models.OrgLevelProvince}
}

// Review describes one reviewer action against a project.
type Review struct {
	Action models.ReviewAction
	// EntryTier is the first review tier for a fresh submission (county or
	// city). Ignored for every other action.
	EntryTier models.OrgLevel
	// Admin marks an administrative override: reject/return from any
	// pending tier lands in rejected_by_admin.
	Admin bool
}

var pendingOf = map[models.OrgLevel]models.ProjectStatus{
	models.OrgLevelCounty:   models.StatusPendingCounty,
	models.OrgLevelCity:     models.StatusPendingCity,
	models.OrgLevelProvince: models.StatusPendingProvince,
}

var rejectedOf = map[models.ProjectStatus]models.ProjectStatus{
	models.StatusPendingCounty:   models.StatusCountyRejected,
	models.StatusPendingCity:     models.StatusCityRejected,
	models.StatusPendingProvince: models.StatusProvinceRejected,
}

// resubmitOf sends a rejected project back to the tier that rejected it.
var resubmitOf = map[models.ProjectStatus]models.ProjectStatus{
	models.StatusCountyRejected:   models.StatusPendingCounty,
	models.StatusCityRejected:     models.StatusPendingCity,
	models.StatusProvinceRejected: models.StatusPendingProvince,
}

// EntryStatus is the pending status a fresh submission enters at.
func EntryStatus(entry models.OrgLevel) models.ProjectStatus {
	if entry == models.OrgLevelCounty {
		return models.StatusPendingCounty
	}
	return models.StatusPendingCity
}

// ReviewTier returns the tier reviewing a project in status s, or "" when s
// is not a pending status.
func ReviewTier(s models.ProjectStatus) models.OrgLevel {
	for tier, st := range pendingOf {
		if st == s {
			return tier
		}
	}
	return ""
}

// Next validates a reviewer action against the current status and returns
// the resulting status. Illegal sources, including re-applying an action
// whose effect already holds, yield an InvalidTransition error.
func (p Policy) Next(from models.ProjectStatus, r Review) (models.ProjectStatus, error) {
	if !Known(from) {
		return "", apperr.Validation("unknown project status %q", from)
	}
	switch r.Action {
	case models.ActionSubmit:
		switch from {
		case models.StatusDraft, models.StatusRejectedByAdmin:
			return EntryStatus(r.EntryTier), nil
		}
		if to, ok := resubmitOf[from]; ok {
			return to, nil
		}

	case models.ActionApprove:
		switch from {
		case models.StatusPendingCounty:
			return models.StatusPendingCity, nil
		case models.StatusPendingCity:
			if p.TopTier == models.OrgLevelCity {
				return models.StatusApproved, nil
			}
			return models.StatusPendingProvince, nil
		case models.StatusPendingProvince:
			return models.StatusApproved, nil
		}

	case models.ActionReject, models.ActionReturn:
		if to, ok := rejectedOf[from]; ok {
			if r.Admin {
				return models.StatusRejectedByAdmin, nil
			}
			return to, nil
		}

	default:
		return "", apperr.Validation("unknown review action %q", r.Action)
	}
	return "", apperr.InvalidTransition("cannot %s a project in status %s", r.Action, from)
}

// ParseAction validates a reviewer action name.
func ParseAction(raw string) (models.ReviewAction, error) {
	switch a := models.ReviewAction(raw); a {
	case models.ActionSubmit, models.ActionApprove, models.ActionReject, models.ActionReturn:
		return a, nil
	}
	return "", apperr.Validation("unknown review action %q", raw)
}

// Event is a non-reviewer domain event on the execution and closure path.
// Events change status without writing a ledger row.
type Event string

const (
	EventStart              Event = "start"
	EventFileConclusion     Event = "file_conclusion"
	EventApproveConclusion  Event = "approve_conclusion"
	EventRejectConclusion   Event = "reject_conclusion"
	EventStartCitySelection Event = "start_city_selection"
	EventCityResult         Event = "city_result"
	EventRecommend          Event = "recommend_to_province"
	EventProvinceResult     Event = "province_result"
	EventPublishCase        Event = "publish_case"
	EventPublish            Event = "publish"
)

var eventTable = map[Event]map[models.ProjectStatus]models.ProjectStatus{
	EventStart: {
		models.StatusApproved: models.StatusInProgress,
	},
	EventFileConclusion: {
		models.StatusInProgress:        models.StatusPendingConclusion,
		models.StatusPendingConclusion: models.StatusPendingConclusion,
	},
	EventApproveConclusion: {
		models.StatusPendingConclusion: models.StatusConcluded,
	},
	EventRejectConclusion: {
		models.StatusPendingConclusion: models.StatusInProgress,
	},
	EventStartCitySelection: {
		models.StatusConcluded: models.StatusCitySelection,
	},
	EventCityResult: {
		models.StatusCitySelection: models.StatusCitySelected,
		models.StatusCitySelected:  models.StatusCitySelected,
	},
	EventRecommend: {
		models.StatusCitySelected: models.StatusProvinceSelection,
	},
	EventProvinceResult: {
		models.StatusProvinceSelection: models.StatusProvinceSelected,
	},
	EventPublishCase: {
		models.StatusProvinceSelected: models.StatusTypicalCase,
	},
	EventPublish: {
		models.StatusCitySelected:     models.StatusPublished,
		models.StatusProvinceSelected: models.StatusPublished,
	},
}

// Advance applies an execution/closure event to a status.
func Advance(from models.ProjectStatus, ev Event) (models.ProjectStatus, error) {
	row, ok := eventTable[ev]
	if !ok {
		return "", apperr.Validation("unknown lifecycle event %q", ev)
	}
	to, ok := row[from]
	if !ok {
		return "", apperr.InvalidTransition("cannot %s a project in status %s", ev, from)
	}
	return to, nil
}
