package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/events"
	"hazard-service/internal/models"
	"hazard-service/internal/repository"
	"hazard-service/internal/store"
)

// MockHazardRepository is a mock implementation of HazardRepositoryInterface
type MockHazardRepository struct {
	mock.Mock
}

var _ repository.HazardRepositoryInterface = (*MockHazardRepository)(nil)

func (m *MockHazardRepository) List(ctx context.Context) ([]models.Hazard, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Hazard), args.Error(1)
}

func (m *MockHazardRepository) GetByID(ctx context.Context, id string) (*models.Hazard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hazard), args.Error(1)
}

func (m *MockHazardRepository) Create(ctx context.Context, hazard *models.Hazard) error {
	args := m.Called(ctx, hazard)
	return args.Error(0)
}

func (m *MockHazardRepository) Update(ctx context.Context, hazard *models.Hazard) error {
	args := m.Called(ctx, hazard)
	return args.Error(0)
}

func (m *MockHazardRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, event NotificationEvent) ([]models.Notification, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

// MockCapabilityCache is a mock implementation of CapabilityCache
type MockCapabilityCache struct {
	mock.Mock
}

func (m *MockCapabilityCache) Get(ctx context.Context, userID string) (*models.Capabilities, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Capabilities), args.Error(1)
}

func (m *MockCapabilityCache) Set(ctx context.Context, userID string, caps *models.Capabilities) error {
	args := m.Called(ctx, userID, caps)
	return args.Error(0)
}

func (m *MockCapabilityCache) InvalidateAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// testEnv wires every service against one store
type testEnv struct {
	store         store.Store
	bus           *events.Bus
	hazardRepo    *repository.HazardRepository
	userRepo      *repository.UserRepository
	groupRepo     *repository.GroupRepository
	notifRepo     *repository.NotificationRepository
	dispatcher    *NotificationDispatcher
	hazards       *HazardService
	users         *UserService
	groups        *GroupService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, store.NewMemoryStore())
}

func newTestEnvOn(t *testing.T, s store.Store) *testEnv {
	t.Helper()
	bus := events.NewBus(nil)
	env := &testEnv{
		store:      s,
		bus:        bus,
		hazardRepo: repository.NewHazardRepository(s),
		userRepo:   repository.NewUserRepository(s),
		groupRepo:  repository.NewGroupRepository(s),
		notifRepo:  repository.NewNotificationRepository(s),
	}
	env.dispatcher = NewNotificationDispatcher(env.notifRepo, bus, nil)
	env.hazards = NewHazardService(env.hazardRepo, env.userRepo, env.dispatcher, bus, nil)
	env.users = NewUserService(env.userRepo, env.dispatcher, bus, nil)
	env.groups = NewGroupService(env.groupRepo, env.userRepo, env.dispatcher, bus, nil)
	env.notifications = NewNotificationService(env.notifRepo, bus, nil)
	return env
}

func (e *testEnv) feed(t *testing.T) []models.Notification {
	t.Helper()
	feed, err := e.notifRepo.List(context.Background())
	require.NoError(t, err)
	return feed
}

func (e *testEnv) addUser(t *testing.T, name, role string) models.User {
	t.Helper()
	u := models.User{ID: newID(), Name: name, Email: name + "@example.com", Password: "secret", Role: role, Approved: true}
	require.NoError(t, e.userRepo.Create(context.Background(), &u))
	return u
}

var (
	adminActor      = Actor{ID: "admin-1", Name: "Ada", Role: models.RoleAdmin}
	managerActor    = Actor{ID: "manager-1", Name: "Mo", Role: models.RoleSafetyManager}
	supervisorActor = Actor{ID: "supervisor-1", Name: "Sam", Role: models.RoleSupervisor}
	employeeActor   = Actor{ID: "employee-1", Name: "Eve", Role: models.RoleEmployee}
)

var fullPayload = DecisionPayload{Priority: models.LevelHigh, Timeline: "2025-01-01", AssignedTeam: "Safety Team"}

func validReport() ReportInput {
	return ReportInput{Type: "Slip", Location: "Warehouse B", Severity: models.LevelMedium, Description: "Oil on floor"}
}
