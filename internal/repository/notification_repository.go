package repository

import (
	"context"

	"hazard-service/internal/models"
	"hazard-service/internal/store"
)

// NotificationRepositoryInterface defines the notification feed operations.
// A nil visible func matches every record.
type NotificationRepositoryInterface interface {
	List(ctx context.Context) ([]models.Notification, error)
	Prepend(ctx context.Context, records []models.Notification) error
	MarkRead(ctx context.Context, id string, visible func(models.Notification) bool) error
	MarkAllRead(ctx context.Context, visible func(models.Notification) bool) (int, error)
	Retain(ctx context.Context, keep func(n models.Notification, kept int) bool) (int, error)
	Replace(ctx context.Context, records []models.Notification) error
}

// NotificationRepository stores the feed in the notifications blob, newest first
type NotificationRepository struct {
	coll *collection[models.Notification]
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(s store.Store) *NotificationRepository {
	return &NotificationRepository{coll: newCollection[models.Notification](s, store.KeyNotifications)}
}

func (r *NotificationRepository) List(ctx context.Context) ([]models.Notification, error) {
	return r.coll.load(ctx)
}

// Prepend puts records at the head of the feed, keeping their relative order
func (r *NotificationRepository) Prepend(ctx context.Context, records []models.Notification) error {
	if len(records) == 0 {
		return nil
	}
	return r.coll.update(ctx, func(existing []models.Notification) ([]models.Notification, error) {
		feed := make([]models.Notification, 0, len(records)+len(existing))
		feed = append(feed, records...)
		return append(feed, existing...), nil
	})
}

// MarkRead reports ErrNotFound for a record visible rejects
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, visible func(models.Notification) bool) error {
	return r.coll.update(ctx, func(feed []models.Notification) ([]models.Notification, error) {
		for i := range feed {
			if feed[i].ID != id {
				continue
			}
			if visible != nil && !visible(feed[i]) {
				return nil, ErrNotFound
			}
			if feed[i].Read {
				return nil, nil
			}
			feed[i].Read = true
			return feed, nil
		}
		return nil, ErrNotFound
	})
}

// MarkAllRead returns how many records changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, visible func(models.Notification) bool) (int, error) {
	changed := 0
	err := r.coll.update(ctx, func(feed []models.Notification) ([]models.Notification, error) {
		for i := range feed {
			if feed[i].Read || (visible != nil && !visible(feed[i])) {
				continue
			}
			feed[i].Read = true
			changed++
		}
		if changed == 0 {
			return nil, nil
		}
		return feed, nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// Retain keeps the records keep accepts, walking newest first. kept is the
// number already retained. Returns how many were removed.
func (r *NotificationRepository) Retain(ctx context.Context, keep func(n models.Notification, kept int) bool) (int, error) {
	removed := 0
	err := r.coll.update(ctx, func(feed []models.Notification) ([]models.Notification, error) {
		out := make([]models.Notification, 0, len(feed))
		for _, n := range feed {
			if keep(n, len(out)) {
				out = append(out, n)
			}
		}
		removed = len(feed) - len(out)
		if removed == 0 {
			return nil, nil
		}
		return out, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *NotificationRepository) Replace(ctx context.Context, records []models.Notification) error {
	return r.coll.replace(ctx, records)
}
