package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"hazard-service/internal/events"
	"hazard-service/internal/models"
	"hazard-service/internal/repository"
)

// CapabilityCache stores resolved capability sets per user
type CapabilityCache interface {
	Get(ctx context.Context, userID string) (*models.Capabilities, error)
	Set(ctx context.Context, userID string, caps *models.Capabilities) error
	InvalidateAll(ctx context.Context) error
}

// Subscriber is the subscribe side of the event bus
type Subscriber interface {
	Subscribe(handler events.Handler, signals ...events.Signal) func()
}

// PermissionService resolves capabilities against the current groups,
// with an optional cache in front
type PermissionService struct {
	groups repository.GroupRepositoryInterface
	cache  CapabilityCache
	logger *logrus.Entry
}

// NewPermissionService creates a new PermissionService. cache may be nil.
func NewPermissionService(groups repository.GroupRepositoryInterface, cache CapabilityCache, logger *logrus.Logger) *PermissionService {
	if logger == nil {
		logger = logrus.New()
	}
	return &PermissionService{
		groups: groups,
		cache:  cache,
		logger: logger.WithField("component", "permission-service"),
	}
}

// Watch drops cached capabilities whenever groups change
func (s *PermissionService) Watch(bus Subscriber) func() {
	return bus.Subscribe(func(e events.Event) {
		if s.cache == nil {
			return
		}
		if err := s.cache.InvalidateAll(context.Background()); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate capability cache")
		}
	}, events.GroupsUpdated)
}

// Capabilities returns the effective capability set of userID
func (s *PermissionService) Capabilities(ctx context.Context, userID string) (models.Capabilities, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.WithField("userId", userID).WithError(err).Warn("Capability cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	groups, err := s.groups.List(ctx)
	if err != nil {
		return models.Capabilities{}, err
	}
	caps := Resolve(userID, groups)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, &caps); err != nil {
			s.logger.WithField("userId", userID).WithError(err).Warn("Capability cache write failed")
		}
	}
	return caps, nil
}

// Sections returns the merged CRUD matrix of userID
func (s *PermissionService) Sections(ctx context.Context, userID string) (map[string]models.CRUD, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveSections(userID, groups), nil
}
