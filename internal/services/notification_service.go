package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"hazard-service/internal/events"
	"hazard-service/internal/models"
	"hazard-service/internal/repository"
)

// NotificationService serves the notification feed
type NotificationService struct {
	repo   repository.NotificationRepositoryInterface
	bus    events.Publisher
	logger *logrus.Entry
	now    func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repo repository.NotificationRepositoryInterface, bus events.Publisher, logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationService{
		repo:   repo,
		bus:    bus,
		logger: logger.WithField("component", "notification-service"),
		now:    time.Now,
	}
}

// NotificationFilter narrows the feed. A zero Viewer sees every record.
type NotificationFilter struct {
	Viewer     *Actor
	UnreadOnly bool
	Limit      int
}

// visibleTo reports whether n is addressed to the viewer: broadcasts reach
// everyone, member records reach their member, audience records their role.
func visibleTo(n models.Notification, viewer *Actor) bool {
	if viewer == nil {
		return true
	}
	if n.MemberID != "" {
		return n.MemberID == viewer.ID
	}
	if n.Audience != "" {
		return n.Audience == viewer.Role || viewer.IsAdmin()
	}
	return true
}

func visibleFunc(viewer *Actor) func(models.Notification) bool {
	if viewer == nil {
		return nil
	}
	return func(n models.Notification) bool { return visibleTo(n, viewer) }
}

// List returns the feed newest first
func (s *NotificationService) List(ctx context.Context, filter NotificationFilter) ([]models.Notification, error) {
	feed, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(feed))
	for _, n := range feed {
		if filter.UnreadOnly && n.Read {
			continue
		}
		if !visibleTo(n, filter.Viewer) {
			continue
		}
		out = append(out, n)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// UnreadCount counts unread records visible to viewer
func (s *NotificationService) UnreadCount(ctx context.Context, viewer *Actor) (int, error) {
	unread, err := s.List(ctx, NotificationFilter{Viewer: viewer, UnreadOnly: true})
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// MarkRead flags one record as read. A record the viewer cannot see is
// reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id string, viewer *Actor) error {
	if err := s.repo.MarkRead(ctx, id, visibleFunc(viewer)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("mark read", fmt.Sprintf("notification %s not found", id))
		}
		return err
	}
	s.publish(ctx, "read")
	return nil
}

// MarkAllRead flags every record visible to viewer as read
func (s *NotificationService) MarkAllRead(ctx context.Context, viewer *Actor) (int, error) {
	changed, err := s.repo.MarkAllRead(ctx, visibleFunc(viewer))
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		s.publish(ctx, "read_all")
	}
	return changed, nil
}

// Clear empties the feed
func (s *NotificationService) Clear(ctx context.Context) error {
	if err := s.repo.Replace(ctx, nil); err != nil {
		return err
	}
	s.publish(ctx, "clear")
	return nil
}

// Prune drops records older than maxAge and keeps at most maxCount of the
// newest. Zero disables either limit. Returns how many were removed.
func (s *NotificationService) Prune(ctx context.Context, maxAge time.Duration, maxCount int) (int, error) {
	cutoff := time.Time{}
	if maxAge > 0 {
		cutoff = s.now().Add(-maxAge)
	}
	removed, err := s.repo.Retain(ctx, func(n models.Notification, kept int) bool {
		if !cutoff.IsZero() && n.Time.Before(cutoff) {
			return false
		}
		return maxCount <= 0 || kept < maxCount
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.publish(ctx, "prune")
	}
	return removed, nil
}

func (s *NotificationService) publish(ctx context.Context, action string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.Event{Signal: events.NotificationsUpdated, Entity: "notification", Action: action})
}
