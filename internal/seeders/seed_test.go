package seeders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/models"
	"hazard-service/internal/repository"
	"hazard-service/internal/store"
)

const testSeed = `
users:
  - id: admin-1
    name: Admin
    email: admin@test.local
    password: ${SEED_TEST_PASSWORD}
    role: admin
    approved: true
  - name: Worker
    email: worker@test.local
    password: pw
groups:
  - id: grp-crud
    name: Inspectors
    members: [worker@test.local]
    permissions:
      reports: {read: true}
      hazards: {create: true}
  - name: Legacy
    permissions:
      canManageChecklists: true
      canViewReports: false
`

func TestParse(t *testing.T) {
	t.Setenv("SEED_TEST_PASSWORD", "s3cret")

	seed, err := Parse([]byte(testSeed))
	require.NoError(t, err)

	require.Len(t, seed.Users, 2)
	assert.Equal(t, "s3cret", seed.Users[0].Password)
	assert.Empty(t, seed.Users[1].Role)

	require.Len(t, seed.Groups, 2)
	crud := seed.Groups[0].Permissions
	assert.Equal(t, models.ShapeCRUD, crud.Shape)
	assert.Equal(t, models.CRUD{Read: true}, crud.Section(models.SectionReports))
	assert.Equal(t, models.CRUD{Create: true}, crud.Section(models.SectionHazards))

	legacy := seed.Groups[1].Permissions
	assert.Equal(t, models.ShapeLegacy, legacy.Shape)
	assert.Equal(t, models.CRUD{Create: true, Read: true, Update: true, Delete: true}, legacy.Section(models.SectionChecklists))
	assert.False(t, legacy.Section(models.SectionReports).Granted())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("users:\n  - name: NoEmail\n    password: x\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("users:\n  - name: A\n    email: a@b.c\n    password: x\n    role: owner\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("groups:\n  - name: G\n    permissions: [1, 2]\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - name: A\n    email: a@test.local\n    password: pw\n"), 0o600))

	seed, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, seed.Users, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeed_IsIdempotent(t *testing.T) {
	t.Setenv("SEED_TEST_PASSWORD", "s3cret")
	ctx := context.Background()
	s := store.NewMemoryStore()
	users := repository.NewUserRepository(s)
	groups := repository.NewGroupRepository(s)

	seed, err := Parse([]byte(testSeed))
	require.NoError(t, err)

	res, err := Seed(ctx, seed, users, groups, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Groups: 2}, res)

	worker, err := users.GetByEmail(ctx, "worker@test.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, worker.Role)
	assert.Equal(t, "grp-crud", worker.GroupID)

	group, err := groups.GetByID(ctx, "grp-crud")
	require.NoError(t, err)
	assert.Equal(t, []string{worker.ID}, group.Members)

	again, err := Seed(ctx, seed, users, groups, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDefaultSeed(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	users := repository.NewUserRepository(s)

	res, err := Seed(ctx, DefaultSeed(""), users, repository.NewGroupRepository(s), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Users)

	admin, err := users.GetByEmail(ctx, "admin@hazard.local")
	require.NoError(t, err)
	assert.True(t, admin.Approved)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "admin", admin.Password)
}

func TestDefaultSeed_UsesGivenPassword(t *testing.T) {
	seed := DefaultSeed("from-env")
	require.Len(t, seed.Users, 1)
	assert.Equal(t, "from-env", seed.Users[0].Password)
}
