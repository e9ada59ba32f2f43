package repository

import (
	"context"

	"hazard-service/internal/models"
	"hazard-service/internal/store"
)

// HazardRepositoryInterface defines the hazard collection operations
type HazardRepositoryInterface interface {
	List(ctx context.Context) ([]models.Hazard, error)
	GetByID(ctx context.Context, id string) (*models.Hazard, error)
	Create(ctx context.Context, hazard *models.Hazard) error
	Update(ctx context.Context, hazard *models.Hazard) error
	Delete(ctx context.Context, id string) error
}

// HazardRepository stores hazards in the hazards blob, newest first
type HazardRepository struct {
	coll *collection[models.Hazard]
}

// NewHazardRepository creates a new HazardRepository
func NewHazardRepository(s store.Store) *HazardRepository {
	return &HazardRepository{coll: newCollection[models.Hazard](s, store.KeyHazards)}
}

func (r *HazardRepository) List(ctx context.Context) ([]models.Hazard, error) {
	return r.coll.load(ctx)
}

func (r *HazardRepository) GetByID(ctx context.Context, id string) (*models.Hazard, error) {
	hazards, err := r.coll.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range hazards {
		if hazards[i].ID == id {
			return &hazards[i], nil
		}
	}
	return nil, ErrNotFound
}

// Create prepends the hazard
func (r *HazardRepository) Create(ctx context.Context, hazard *models.Hazard) error {
	return r.coll.update(ctx, func(hazards []models.Hazard) ([]models.Hazard, error) {
		for _, h := range hazards {
			if h.ID == hazard.ID {
				return nil, ErrDuplicateKey
			}
		}
		return append([]models.Hazard{*hazard}, hazards...), nil
	})
}

// Update replaces the stored record with the same ID
func (r *HazardRepository) Update(ctx context.Context, hazard *models.Hazard) error {
	return r.coll.update(ctx, func(hazards []models.Hazard) ([]models.Hazard, error) {
		for i := range hazards {
			if hazards[i].ID == hazard.ID {
				hazards[i] = *hazard
				return hazards, nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *HazardRepository) Delete(ctx context.Context, id string) error {
	return r.coll.update(ctx, func(hazards []models.Hazard) ([]models.Hazard, error) {
		for i := range hazards {
			if hazards[i].ID == id {
				return append(hazards[:i], hazards[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}
