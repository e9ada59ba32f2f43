package repository

import (
	"context"
	"strings"

	"hazard-service/internal/models"
	"hazard-service/internal/store"
)

// UserRepositoryInterface defines the user collection operations
type UserRepositoryInterface interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserRepository stores users in the users blob
type UserRepository struct {
	coll *collection[models.User]
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{coll: newCollection[models.User](s, store.KeyUsers)}
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.coll.load(ctx)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.coll.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// GetByEmail matches case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.coll.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// Create rejects duplicate IDs and emails
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.coll.update(ctx, func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.ID == user.ID || strings.EqualFold(u.Email, user.Email) {
				return nil, ErrDuplicateKey
			}
		}
		return append(users, *user), nil
	})
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.coll.update(ctx, func(users []models.User) ([]models.User, error) {
		idx := -1
		for i := range users {
			if users[i].ID == user.ID {
				idx = i
			} else if strings.EqualFold(users[i].Email, user.Email) {
				return nil, ErrDuplicateKey
			}
		}
		if idx < 0 {
			return nil, ErrNotFound
		}
		users[idx] = *user
		return users, nil
	})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.coll.update(ctx, func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == id {
				return append(users[:i], users[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}
