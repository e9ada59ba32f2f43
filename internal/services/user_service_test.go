package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.Register(ctx, CreateUserInput{Name: "Ann", Email: "ann@example.com", Password: "pw", Role: models.RoleSupervisor, Approved: true})
	require.NoError(t, err)
	assert.False(t, user.Approved)
	assert.Equal(t, models.RoleSupervisor, user.Role)

	_, err = env.users.Authenticate(ctx, "ann@example.com", "pw")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.users.Approve(ctx, employeeActor, user.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := env.users.Approve(ctx, adminActor, user.ID)
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	got, err := env.users.Authenticate(ctx, "ANN@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.users.Authenticate(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Authenticate(ctx, "nobody@example.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	feed := env.feed(t)
	require.Len(t, feed, 2)
	assert.Equal(t, ActionApprove, feed[0].Action)
	assert.Equal(t, ActionCreate, feed[1].Action)

	// Approving twice changes nothing
	_, err = env.users.Approve(ctx, adminActor, user.ID)
	require.NoError(t, err)
	assert.Len(t, env.feed(t), 2)
}

func TestRegister_DefaultsToEmployee(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.users.Register(context.Background(), CreateUserInput{Name: "Bo", Email: "bo@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, user.Role)
}

func TestCreateUser_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.users.Create(ctx, managerActor, CreateUserInput{Name: "X", Email: "x@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.users.Create(ctx, adminActor, CreateUserInput{Name: "X"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []string{"email", "password"}, err.(*Error).Fields)

	_, err = env.users.Create(ctx, adminActor, CreateUserInput{Name: "X", Email: "not-an-email", Password: "pw"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.Create(ctx, adminActor, CreateUserInput{Name: "X", Email: "x@example.com", Password: "pw", Role: "owner"})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := env.users.Create(ctx, adminActor, CreateUserInput{Name: "X", Email: "x@example.com", Password: "pw", Approved: true})
	require.NoError(t, err)
	assert.True(t, created.Approved)

	_, err = env.users.Create(ctx, adminActor, CreateUserInput{Name: "Y", Email: "X@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", models.RoleEmployee)
	bob := env.addUser(t, "bob", models.RoleEmployee)
	self := Actor{ID: ann.ID, Name: ann.Name, Role: ann.Role}

	name := "Ann Lee"
	updated, err := env.users.Update(ctx, self, ann.ID, UpdateUserInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	role := models.RoleAdmin
	_, err = env.users.Update(ctx, self, ann.ID, UpdateUserInput{Role: &role})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.users.Update(ctx, self, bob.ID, UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)

	taken := bob.Email
	_, err = env.users.Update(ctx, self, ann.ID, UpdateUserInput{Email: &taken})
	assert.ErrorIs(t, err, ErrValidation)

	role = models.RoleSupervisor
	promoted, err := env.users.Update(ctx, adminActor, ann.ID, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSupervisor, promoted.Role)

	_, err = env.users.Update(ctx, adminActor, "ghost", UpdateUserInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.addUser(t, "root", models.RoleAdmin)
	ann := env.addUser(t, "ann", models.RoleEmployee)
	actor := Actor{ID: admin.ID, Role: models.RoleAdmin}

	assert.ErrorIs(t, env.users.Delete(ctx, actor, admin.ID), ErrState)
	assert.ErrorIs(t, env.users.Delete(ctx, employeeActor, ann.ID), ErrForbidden)

	require.NoError(t, env.users.Delete(ctx, actor, ann.ID))
	_, err := env.users.Get(ctx, ann.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	feed := env.feed(t)
	require.Len(t, feed, 1)
	assert.Equal(t, EntityUser, feed[0].Entity)
	assert.Equal(t, ActionDelete, feed[0].Action)

	users, err := env.users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
