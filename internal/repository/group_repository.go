package repository

import (
	"context"

	"hazard-service/internal/models"
	"hazard-service/internal/store"
)

// GroupRepositoryInterface defines the group collection operations.
// Permission records come back already normalized to CRUD form.
type GroupRepositoryInterface interface {
	List(ctx context.Context) ([]models.Group, error)
	GetByID(ctx context.Context, id string) (*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
}

// GroupRepository stores groups in the groups blob
type GroupRepository struct {
	coll *collection[models.Group]
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(s store.Store) *GroupRepository {
	return &GroupRepository{coll: newCollection[models.Group](s, store.KeyGroups)}
}

func (r *GroupRepository) List(ctx context.Context) ([]models.Group, error) {
	return r.coll.load(ctx)
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	groups, err := r.coll.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].ID == id {
			return &groups[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	return r.coll.update(ctx, func(groups []models.Group) ([]models.Group, error) {
		for _, g := range groups {
			if g.ID == group.ID {
				return nil, ErrDuplicateKey
			}
		}
		return append(groups, *group), nil
	})
}

func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	return r.coll.update(ctx, func(groups []models.Group) ([]models.Group, error) {
		for i := range groups {
			if groups[i].ID == group.ID {
				groups[i] = *group
				return groups, nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	return r.coll.update(ctx, func(groups []models.Group) ([]models.Group, error) {
		for i := range groups {
			if groups[i].ID == id {
				return append(groups[:i], groups[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}
