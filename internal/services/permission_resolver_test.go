package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/models"
)

func crudGroup(id string, members []string, sections map[string]models.CRUD) models.Group {
	return models.Group{ID: id, Name: id, Members: members, Permissions: models.NewCRUDPermissions(sections)}
}

func TestResolve_NoGroups(t *testing.T) {
	caps := Resolve("u1", nil)
	assert.Equal(t, models.Capabilities{Notifications: true}, caps)

	// Groups the user is not in do not count
	caps = Resolve("u1", []models.Group{
		crudGroup("g1", []string{"u2"}, map[string]models.CRUD{models.SectionUsers: {Read: true}}),
	})
	assert.Equal(t, models.Capabilities{Notifications: true}, caps)
}

func TestResolve_ORAcrossGroups(t *testing.T) {
	groups := []models.Group{
		crudGroup("g1", []string{"u1"}, map[string]models.CRUD{models.SectionHazards: {Read: true}}),
		crudGroup("g2", []string{"u1"}, map[string]models.CRUD{models.SectionUsers: {Create: true}}),
	}

	caps := Resolve("u1", groups)

	assert.True(t, caps.Hazards)
	assert.True(t, caps.Users)
	assert.False(t, caps.Reports)
	assert.False(t, caps.Checklists)
	assert.False(t, caps.Training)
	assert.True(t, caps.Notifications)
}

func TestResolve_UpdateOrDeleteAloneDoesNotGrant(t *testing.T) {
	groups := []models.Group{
		crudGroup("g1", []string{"u1"}, map[string]models.CRUD{models.SectionTraining: {Update: true, Delete: true}}),
	}

	caps := Resolve("u1", groups)
	assert.False(t, caps.Training)

	sections := ResolveSections("u1", groups)
	assert.Equal(t, models.CRUD{Update: true, Delete: true}, sections[models.SectionTraining])
}

func TestResolve_LegacyMatchesCRUD(t *testing.T) {
	var legacy models.Permissions
	require.NoError(t, json.Unmarshal([]byte(`{"canViewReports": true, "canCreateHazards": true, "canManageUsers": false}`), &legacy))
	assert.Equal(t, models.ShapeLegacy, legacy.Shape)

	crud := models.NewCRUDPermissions(map[string]models.CRUD{
		models.SectionReports: {Read: true},
		models.SectionHazards: {Create: true, Read: true},
	})

	fromLegacy := Resolve("u1", []models.Group{{ID: "g1", Members: []string{"u1"}, Permissions: legacy}})
	fromCRUD := Resolve("u1", []models.Group{{ID: "g1", Members: []string{"u1"}, Permissions: crud}})

	assert.Equal(t, fromCRUD, fromLegacy)
	assert.True(t, fromLegacy.Reports)
	assert.True(t, fromLegacy.Hazards)
	assert.False(t, fromLegacy.Users)
}

func TestResolve_Monotonic(t *testing.T) {
	pool := []models.Group{
		crudGroup("g1", []string{"u1"}, map[string]models.CRUD{models.SectionHazards: {Read: true}}),
		crudGroup("g2", []string{"u1"}, map[string]models.CRUD{models.SectionUsers: {Create: true}, models.SectionHazards: {}}),
		crudGroup("g3", []string{"u1"}, map[string]models.CRUD{models.SectionTraining: {Delete: true}}),
		crudGroup("g4", []string{"u1"}, map[string]models.CRUD{models.SectionChecklists: {Read: true}, models.SectionReports: {Create: true}}),
	}

	// Every subset S of the pool and every superset S+g must satisfy caps(S) <= caps(S+g)
	for mask := 0; mask < 1<<len(pool); mask++ {
		var subset []models.Group
		for i := range pool {
			if mask&(1<<i) != 0 {
				subset = append(subset, pool[i])
			}
		}
		base := Resolve("u1", subset)
		for i := range pool {
			if mask&(1<<i) != 0 {
				continue
			}
			grown := Resolve("u1", append(append([]models.Group(nil), subset...), pool[i]))
			assert.True(t, base.SubsetOf(grown), "mask %b + group %d", mask, i)
		}
	}
}
