package lifecycle

import (
	"strings"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
)

const (
	LevelCity     = "city"
	LevelProvince = "province"
)

// ParseCityResult validates a city selection result.
func ParseCityResult(raw string) (models.SelectionResult, error) {
	switch r := models.SelectionResult(raw); r {
	case models.CitySelecting, models.CityFirst, models.CitySecond, models.CityThird, models.CityNotAwarded:
		return r, nil
	}
	return "", apperr.Validation("unknown city selection result %q", raw)
}

// ParseProvinceResult validates a province selection result.
func ParseProvinceResult(raw string) (models.SelectionResult, error) {
	switch r := models.SelectionResult(raw); r {
	case models.ProvinceNotRecommended, models.ProvinceSelecting, models.ProvinceIncluded, models.ProvinceNotIncluded:
		return r, nil
	}
	return "", apperr.Validation("unknown province selection result %q", raw)
}

// Awarded reports whether a city result is one of the three prize grades.
func Awarded(r models.SelectionResult) bool {
	return r == models.CityFirst || r == models.CitySecond || r == models.CityThird
}

// CityFinal reports whether a city result closes city selection.
func CityFinal(r models.SelectionResult) bool {
	return Awarded(r) || r == models.CityNotAwarded
}

// ProvinceFinal reports whether a province result closes province selection.
func ProvinceFinal(r models.SelectionResult) bool {
	return r == models.ProvinceIncluded || r == models.ProvinceNotIncluded
}

// CanRecommend enforces the province nomination rule: the city result must be
// a prize grade and the project must not already be recommended. A missing
// province selection counts as not-recommended.
func CanRecommend(p models.Project) error {
	city := models.SelectionResult("")
	if p.CitySelection != nil {
		city = p.CitySelection.Result
	}
	if !Awarded(city) {
		return apperr.Validation("recommendation requires a 1st, 2nd or 3rd city result (have %q)", city)
	}
	province := models.ProvinceNotRecommended
	if p.ProvinceSelection != nil {
		province = p.ProvinceSelection.Result
	}
	if province != models.ProvinceNotRecommended {
		return apperr.Validation("project already nominated for province selection (result %q)", province)
	}
	return nil
}

// RequiredForSubmit checks the fields a submission needs.
func RequiredForSubmit(p models.Project) error {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Category) == "" {
		missing = append(missing, "category")
	}
	if p.OrganizationID == nil || p.OrganizationID.IsZero() {
		missing = append(missing, "organization")
	}
	if strings.TrimSpace(p.Summary) == "" {
		missing = append(missing, "summary")
	}
	if strings.TrimSpace(p.Leader) == "" {
		missing = append(missing, "leader")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequiredForDraft checks the fields a saved draft needs.
func RequiredForDraft(p models.Project) error {
	if strings.TrimSpace(p.Title) == "" {
		return apperr.Validation("missing required fields: title")
	}
	return nil
}
