package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/models"
	"hazard-service/internal/store"
)

func TestHazardRepository_CreatePrependsAndUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewHazardRepository(store.NewMemoryStore())

	hazards, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, hazards)

	require.NoError(t, repo.Create(ctx, &models.Hazard{ID: "h1", Status: models.HazardStatusOpen}))
	require.NoError(t, repo.Create(ctx, &models.Hazard{ID: "h2", Status: models.HazardStatusOpen}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Hazard{ID: "h1"}), ErrDuplicateKey)

	hazards, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, hazards, 2)
	assert.Equal(t, "h2", hazards[0].ID)

	h, err := repo.GetByID(ctx, "h1")
	require.NoError(t, err)
	h.Status = models.HazardStatusPending
	require.NoError(t, repo.Update(ctx, h))

	h, err = repo.GetByID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, models.HazardStatusPending, h.Status)

	assert.ErrorIs(t, repo.Update(ctx, &models.Hazard{ID: "missing"}), ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "h1"))
	_, err = repo.GetByID(ctx, "h1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "h1"), ErrNotFound)
}

func TestGroupRepository_NormalizesLegacyPermissionsOnRead(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	legacy := `[{"id":"g1","name":"Legacy","members":["u1"],
		"permissions":{"canViewReports":true,"canCreateHazards":true,"canManageUsers":false},
		"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z"}]`
	require.NoError(t, s.Set(ctx, store.KeyGroups, []byte(legacy)))

	repo := NewGroupRepository(s)
	g, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.ShapeLegacy, g.Permissions.Shape)
	assert.True(t, g.Permissions.Section(models.SectionReports).Read)
	assert.True(t, g.Permissions.Section(models.SectionHazards).Create)
	assert.False(t, g.Permissions.Section(models.SectionUsers).Granted())

	// Writing back stores the CRUD envelope
	g.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, g))
	raw, err := s.Get(ctx, store.KeyGroups)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"shape":"crud"`)

	g, err = repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, models.ShapeCRUD, g.Permissions.Shape)
	assert.True(t, g.Permissions.Section(models.SectionReports).Read)
}

func TestUserRepository_RejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(store.NewMemoryStore())

	require.NoError(t, repo.Create(ctx, &models.User{ID: "u1", Email: "a@example.com"}))
	require.NoError(t, repo.Create(ctx, &models.User{ID: "u2", Email: "b@example.com"}))
	assert.ErrorIs(t, repo.Create(ctx, &models.User{ID: "u3", Email: "A@example.com"}), ErrDuplicateKey)

	u, err := repo.GetByEmail(ctx, "B@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)

	u.Email = "a@example.com"
	assert.ErrorIs(t, repo.Update(ctx, u), ErrDuplicateKey)
}

func TestNotificationRepository_Feed(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(store.NewMemoryStore())
	now := time.Now()

	require.NoError(t, repo.Prepend(ctx, []models.Notification{{ID: "n1", Time: now}}))
	require.NoError(t, repo.Prepend(ctx, []models.Notification{{ID: "n2", Time: now}, {ID: "n3", Time: now}}))

	feed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, []string{"n2", "n3", "n1"}, []string{feed[0].ID, feed[1].ID, feed[2].ID})

	require.NoError(t, repo.MarkRead(ctx, "n3", nil))
	assert.ErrorIs(t, repo.MarkRead(ctx, "nope", nil), ErrNotFound)

	changed, err := repo.MarkAllRead(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	changed, err = repo.MarkAllRead(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestNotificationRepository_MarkReadRespectsVisibility(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(store.NewMemoryStore())
	require.NoError(t, repo.Replace(ctx, []models.Notification{
		{ID: "mine", MemberID: "u1"},
		{ID: "theirs", MemberID: "u2"},
		{ID: "broadcast"},
	}))
	onlyMine := func(n models.Notification) bool { return n.MemberID == "" || n.MemberID == "u1" }

	assert.ErrorIs(t, repo.MarkRead(ctx, "theirs", onlyMine), ErrNotFound)

	changed, err := repo.MarkAllRead(ctx, onlyMine)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	feed, err := repo.List(ctx)
	require.NoError(t, err)
	read := map[string]bool{}
	for _, n := range feed {
		read[n.ID] = n.Read
	}
	assert.Equal(t, map[string]bool{"mine": true, "theirs": false, "broadcast": true}, read)
}

func TestNotificationRepository_Retain(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(store.NewMemoryStore())
	require.NoError(t, repo.Replace(ctx, []models.Notification{{ID: "n1"}, {ID: "n2"}, {ID: "n3"}}))

	removed, err := repo.Retain(ctx, func(_ models.Notification, kept int) bool { return kept < 2 })
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = repo.Retain(ctx, func(models.Notification, int) bool { return true })
	require.NoError(t, err)
	assert.Zero(t, removed)

	feed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "n1", feed[0].ID)
}

func TestRepositories_ConcurrentWritesOnFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	hazards := NewHazardRepository(s)
	notifications := NewNotificationRepository(s)

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers*2)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- hazards.Create(ctx, &models.Hazard{ID: fmt.Sprintf("h%d", i), Status: models.HazardStatusOpen})
			errs <- notifications.Prepend(ctx, []models.Notification{{ID: fmt.Sprintf("n%d", i)}})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	storedHazards, err := hazards.List(ctx)
	require.NoError(t, err)
	assert.Len(t, storedHazards, writers)

	feed, err := notifications.List(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, writers)
}
