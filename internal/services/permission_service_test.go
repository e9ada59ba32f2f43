package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/models"
)

func TestPermissionService_CacheHit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mockCache := new(MockCapabilityCache)
	service := NewPermissionService(env.groupRepo, mockCache, nil)

	cached := &models.Capabilities{Users: true, Notifications: true}
	mockCache.On("Get", ctx, "u1").Return(cached, nil)

	caps, err := service.Capabilities(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, *cached, caps)
	mockCache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	mockCache.AssertExpectations(t)
}

func TestPermissionService_CacheMissResolvesAndStores(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.groupRepo.Create(ctx, &models.Group{
		ID:          "g1",
		Name:        "Inspectors",
		Members:     []string{"u1"},
		Permissions: models.NewCRUDPermissions(map[string]models.CRUD{models.SectionReports: {Read: true}}),
	}))

	mockCache := new(MockCapabilityCache)
	service := NewPermissionService(env.groupRepo, mockCache, nil)
	mockCache.On("Get", ctx, "u1").Return(nil, nil)
	mockCache.On("Set", ctx, "u1", mock.MatchedBy(func(c *models.Capabilities) bool {
		return c.Reports && c.Notifications && !c.Users
	})).Return(nil)

	caps, err := service.Capabilities(ctx, "u1")

	require.NoError(t, err)
	assert.True(t, caps.Reports)
	mockCache.AssertExpectations(t)
}

func TestPermissionService_CacheErrorsFallThrough(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mockCache := new(MockCapabilityCache)
	service := NewPermissionService(env.groupRepo, mockCache, nil)

	mockCache.On("Get", ctx, "u1").Return(nil, errors.New("connection refused"))
	mockCache.On("Set", ctx, "u1", mock.Anything).Return(errors.New("connection refused"))

	caps, err := service.Capabilities(ctx, "u1")

	require.NoError(t, err)
	assert.Equal(t, models.Capabilities{Notifications: true}, caps)
}

func TestPermissionService_WatchInvalidatesOnGroupChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mockCache := new(MockCapabilityCache)
	service := NewPermissionService(env.groupRepo, mockCache, nil)
	mockCache.On("InvalidateAll", mock.Anything).Return(nil)

	stop := service.Watch(env.bus)
	defer stop()

	// Hazard changes leave the cache alone
	_, err := env.hazards.Report(ctx, employeeActor, validReport())
	require.NoError(t, err)
	mockCache.AssertNotCalled(t, "InvalidateAll", mock.Anything)

	_, err = env.groups.Create(ctx, adminActor, CreateGroupInput{Name: "Ops"})
	require.NoError(t, err)
	mockCache.AssertNumberOfCalls(t, "InvalidateAll", 1)

	stop()
	_, err = env.groups.Create(ctx, adminActor, CreateGroupInput{Name: "Ops 2"})
	require.NoError(t, err)
	mockCache.AssertNumberOfCalls(t, "InvalidateAll", 1)
}

func TestPermissionService_NoCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	service := NewPermissionService(env.groupRepo, nil, nil)

	user := env.addUser(t, "ann", models.RoleEmployee)
	group, err := env.groups.Create(ctx, adminActor, CreateGroupInput{
		Name:        "Trainers",
		Members:     []string{user.ID},
		Permissions: models.NewCRUDPermissions(map[string]models.CRUD{models.SectionTraining: {Create: true}}),
	})
	require.NoError(t, err)

	caps, err := service.Capabilities(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, caps.Training)

	_, err = env.groups.RemoveMember(ctx, adminActor, group.ID, user.ID)
	require.NoError(t, err)

	caps, err = service.Capabilities(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, caps.Training)

	sections, err := service.Sections(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, sections)
}
