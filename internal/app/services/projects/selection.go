package projectsvc

import (
	"context"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StartCitySelection opens city selection for a concluded project.
func (s *Service) StartCitySelection(ctx context.Context, id primitive.ObjectID, actor Actor) (models.Project, error) {
	return s.advance(ctx, id, lifecycle.EventStartCitySelection, actor, func(p *models.Project, _ time.Time) error {
		p.CitySelection = &models.Selection{Level: lifecycle.LevelCity, Result: models.CitySelecting}
		p.ProvinceSelection = &models.Selection{Level: lifecycle.LevelProvince, Result: models.ProvinceNotRecommended}
		p.RecommendedAt = nil
		return nil
	})
}

// RecordCityResult sets the city result. A final result (a prize grade or
// not-awarded) closes city selection; "selecting" keeps it open.
func (s *Service) RecordCityResult(ctx context.Context, id primitive.ObjectID, raw string, actor Actor) (models.Project, error) {
	result, err := lifecycle.ParseCityResult(raw)
	if err != nil {
		return models.Project{}, err
	}
	set := func(p *models.Project) {
		p.CitySelection = &models.Selection{Level: lifecycle.LevelCity, Result: result}
		if p.ProvinceSelection == nil {
			p.ProvinceSelection = &models.Selection{Level: lifecycle.LevelProvince, Result: models.ProvinceNotRecommended}
		}
	}
	if lifecycle.CityFinal(result) {
		return s.advance(ctx, id, lifecycle.EventCityResult, actor, func(p *models.Project, _ time.Time) error {
			set(p)
			return nil
		})
	}

	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if p.Status != models.StatusCitySelection {
		return models.Project{}, apperr.InvalidTransition("cannot reopen city selection for a project in status %s", p.Status)
	}
	set(&p)
	saved, err := s.projects.Replace(ctx, p)
	if err != nil {
		return models.Project{}, err
	}
	s.publish(saved.ID)
	return saved, nil
}

// RecommendToProvince nominates a city prize winner for province selection.
// The nomination rule is checked before anything else.
func (s *Service) RecommendToProvince(ctx context.Context, id primitive.ObjectID, actor Actor) (models.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if err := lifecycle.CanRecommend(p); err != nil {
		return models.Project{}, err
	}
	return s.advance(ctx, id, lifecycle.EventRecommend, actor, func(p *models.Project, now time.Time) error {
		if err := lifecycle.CanRecommend(*p); err != nil {
			return err
		}
		p.ProvinceSelection = &models.Selection{Level: lifecycle.LevelProvince, Result: models.ProvinceSelecting}
		p.RecommendedAt = &now
		return nil
	})
}

// RecordProvinceResult closes province selection with included or not-included.
func (s *Service) RecordProvinceResult(ctx context.Context, id primitive.ObjectID, raw string, actor Actor) (models.Project, error) {
	result, err := lifecycle.ParseProvinceResult(raw)
	if err != nil {
		return models.Project{}, err
	}
	if !lifecycle.ProvinceFinal(result) {
		return models.Project{}, apperr.Validation("province result must be %q or %q", models.ProvinceIncluded, models.ProvinceNotIncluded)
	}
	return s.advance(ctx, id, lifecycle.EventProvinceResult, actor, func(p *models.Project, _ time.Time) error {
		p.ProvinceSelection = &models.Selection{Level: lifecycle.LevelProvince, Result: result}
		return nil
	})
}

// Publish targets.
const (
	PublishAsCase      = "case"
	PublishAsPublished = "published"
)

// Publish closes the selection path. "case" marks a province-included
// project as a typical case; "published" publishes after either level.
func (s *Service) Publish(ctx context.Context, id primitive.ObjectID, as string, actor Actor) (models.Project, error) {
	switch as {
	case PublishAsCase:
		return s.advance(ctx, id, lifecycle.EventPublishCase, actor, func(p *models.Project, _ time.Time) error {
			if p.ProvinceSelection == nil || p.ProvinceSelection.Result != models.ProvinceIncluded {
				return apperr.Validation("only projects included at province level can become typical cases")
			}
			return nil
		})
	case PublishAsPublished:
		return s.advance(ctx, id, lifecycle.EventPublish, actor, nil)
	}
	return models.Project{}, apperr.Validation("unknown publish target %q", as)
}
