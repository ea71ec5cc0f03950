package lifecycle

import (
	"errors"
	"testing"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sel(level string, r models.SelectionResult) *models.Selection {
	return &models.Selection{Level: level, Result: r}
}

func TestCanRecommend(t *testing.T) {
	tests := []struct {
		name     string
		city     *models.Selection
		province *models.Selection
		ok       bool
	}{
		{"first prize, not recommended", sel(LevelCity, models.CityFirst), sel(LevelProvince, models.ProvinceNotRecommended), true},
		{"second prize, no province record", sel(LevelCity, models.CitySecond), nil, true},
		{"third prize", sel(LevelCity, models.CityThird), sel(LevelProvince, models.ProvinceNotRecommended), true},
		{"city still selecting", sel(LevelCity, models.CitySelecting), sel(LevelProvince, models.ProvinceNotRecommended), false},
		{"not awarded", sel(LevelCity, models.CityNotAwarded), nil, false},
		{"no city record", nil, nil, false},
		{"already selecting at province", sel(LevelCity, models.CityFirst), sel(LevelProvince, models.ProvinceSelecting), false},
		{"already included", sel(LevelCity, models.CityFirst), sel(LevelProvince, models.ProvinceIncluded), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanRecommend(models.Project{CitySelection: tt.city, ProvinceSelection: tt.province})
			if tt.ok && err != nil {
				t.Errorf("expected ok, got %v", err)
			}
			if !tt.ok && !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseResults(t *testing.T) {
	if _, err := ParseCityResult("2nd"); err != nil {
		t.Errorf("ParseCityResult: %v", err)
	}
	if _, err := ParseCityResult("included"); err == nil {
		t.Error("expected province result to be rejected at city level")
	}
	if _, err := ParseProvinceResult("not-included"); err != nil {
		t.Errorf("ParseProvinceResult: %v", err)
	}
	if _, err := ParseProvinceResult("1st"); err == nil {
		t.Error("expected city result to be rejected at province level")
	}
}

func TestRequiredForSubmit(t *testing.T) {
	org := primitive.NewObjectID()
	full := models.Project{
		Title:          "Station upgrade",
		Category:       "融合发展类",
		OrganizationID: &org,
		Summary:        "summary",
		Leader:         "Li",
	}
	if err := RequiredForSubmit(full); err != nil {
		t.Fatalf("expected complete project to pass, got %v", err)
	}

	missing := full
	missing.Leader = "  "
	missing.OrganizationID = nil
	err := RequiredForSubmit(missing)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := err.Error(); got != "missing required fields: organization, leader" {
		t.Errorf("message = %q", got)
	}
}

func TestRequiredForDraft(t *testing.T) {
	if err := RequiredForDraft(models.Project{Title: "x"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := RequiredForDraft(models.Project{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
