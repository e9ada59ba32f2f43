package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"hazard-service/internal/events"
	"hazard-service/internal/models"
	"hazard-service/internal/repository"
)

// Entities with notification rules
const (
	EntityHazard    = "hazard"
	EntityChecklist = "checklist"
	EntityTraining  = "training"
	EntityAlert     = "alert"
	EntityUser      = "user"
	EntityGroup     = "group"
)

// Actions with notification rules
const (
	ActionCreate            = "create"
	ActionUpdate            = "update"
	ActionDelete            = "delete"
	ActionResolve           = "resolve"
	ActionApprove           = "approve"
	ActionComplete          = "complete"
	ActionRequestApproval   = "request_approval"
	ActionAddMember         = "add_member"
	ActionRemoveMember      = "remove_member"
	ActionChangePermissions = "change_permissions"
)

// FanOut says how many records one event produces
type FanOut string

const (
	FanOutBroadcast FanOut = "broadcast"
	FanOutMembers   FanOut = "members"
	FanOutAudiences FanOut = "audiences"
)

type notificationRule struct {
	Type    string
	Title   string
	Message string
	FanOut  FanOut
}

func broadcast(typ, title, message string) notificationRule {
	return notificationRule{Type: typ, Title: title, Message: message, FanOut: FanOutBroadcast}
}

func perMember(typ, title, message string) notificationRule {
	return notificationRule{Type: typ, Title: title, Message: message, FanOut: FanOutMembers}
}

// notificationTable is keyed by entity then action. %s in a message is the event subject.
var notificationTable = map[string]map[string]notificationRule{
	EntityHazard: {
		ActionCreate:          broadcast(models.NotificationInfo, "New Hazard Reported", "A new hazard has been reported: %s"),
		ActionUpdate:          broadcast(models.NotificationInfo, "Hazard Updated", "Hazard details were updated: %s"),
		ActionDelete:          broadcast(models.NotificationAlert, "Hazard Deleted", "A hazard report was removed: %s"),
		ActionResolve:         broadcast(models.NotificationSuccess, "Hazard Resolved", "Hazard has been resolved: %s"),
		ActionApprove:         broadcast(models.NotificationSuccess, "Hazard Approved", "Hazard received all approvals: %s"),
		ActionRequestApproval: {Type: models.NotificationWarning, Title: "Approval Required", Message: "A hazard is awaiting your approval: %s", FanOut: FanOutAudiences},
	},
	EntityChecklist: {
		ActionCreate:   broadcast(models.NotificationInfo, "New Checklist", "A new checklist was created: %s"),
		ActionUpdate:   broadcast(models.NotificationInfo, "Checklist Updated", "Checklist was updated: %s"),
		ActionComplete: broadcast(models.NotificationSuccess, "Checklist Completed", "Checklist was completed: %s"),
		ActionDelete:   broadcast(models.NotificationAlert, "Checklist Deleted", "Checklist was deleted: %s"),
	},
	EntityTraining: {
		ActionCreate:   broadcast(models.NotificationInfo, "New Training", "A new training module is available: %s"),
		ActionUpdate:   broadcast(models.NotificationInfo, "Training Updated", "Training module was updated: %s"),
		ActionDelete:   broadcast(models.NotificationAlert, "Training Removed", "Training module was removed: %s"),
		ActionComplete: broadcast(models.NotificationSuccess, "Training Completed", "Training was completed: %s"),
	},
	EntityAlert: {
		ActionCreate:  broadcast(models.NotificationAlert, "New Safety Alert", "Safety alert issued: %s"),
		ActionUpdate:  broadcast(models.NotificationWarning, "Safety Alert Updated", "Safety alert was updated: %s"),
		ActionResolve: broadcast(models.NotificationSuccess, "Safety Alert Resolved", "Safety alert was resolved: %s"),
	},
	EntityUser: {
		ActionCreate:  broadcast(models.NotificationInfo, "New User", "A new user account was created: %s"),
		ActionUpdate:  broadcast(models.NotificationInfo, "User Updated", "User details were updated: %s"),
		ActionApprove: broadcast(models.NotificationSuccess, "User Approved", "User account was approved: %s"),
		ActionDelete:  broadcast(models.NotificationAlert, "User Deleted", "User account was deleted: %s"),
	},
	EntityGroup: {
		ActionCreate:            perMember(models.NotificationInfo, "Group Created", "You are a member of the new group %s"),
		ActionUpdate:            perMember(models.NotificationInfo, "Group Updated", "Your group %s was updated"),
		ActionAddMember:         perMember(models.NotificationInfo, "Member Added", "A member was added to group %s"),
		ActionRemoveMember:      perMember(models.NotificationInfo, "Member Removed", "A member was removed from group %s"),
		ActionChangePermissions: broadcast(models.NotificationWarning, "Group Permissions Changed", "Permissions changed for group %s"),
	},
}

// NotificationEvent is a domain event to translate into notifications
type NotificationEvent struct {
	Entity    string   `json:"entity"`
	Action    string   `json:"action"`
	Subject   string   `json:"subject"`
	EntityID  string   `json:"entityId,omitempty"`
	GroupID   string   `json:"groupId,omitempty"`
	MemberIDs []string `json:"memberIds,omitempty"`
	Audiences []string `json:"audiences,omitempty"`
}

// TableEntry is one row of the event table as exposed to callers
type TableEntry struct {
	Entity  string `json:"entity"`
	Action  string `json:"action"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	FanOut  FanOut `json:"fanOut"`
}

// Table returns every (entity, action) rule sorted by entity then action
func Table() []TableEntry {
	var rows []TableEntry
	for entity, actions := range notificationTable {
		for action, r := range actions {
			rows = append(rows, TableEntry{
				Entity:  entity,
				Action:  action,
				Type:    r.Type,
				Title:   r.Title,
				Message: r.Message,
				FanOut:  r.FanOut,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Entity != rows[j].Entity {
			return rows[i].Entity < rows[j].Entity
		}
		return rows[i].Action < rows[j].Action
	})
	return rows
}

// Dispatcher turns domain events into stored notifications
type Dispatcher interface {
	Dispatch(ctx context.Context, event NotificationEvent) ([]models.Notification, error)
}

// NotificationDispatcher prepends notifications to the feed and signals the bus
type NotificationDispatcher struct {
	repo   repository.NotificationRepositoryInterface
	bus    events.Publisher
	logger *logrus.Entry
	now    func() time.Time
	newID  func() string
}

// NewNotificationDispatcher creates a new NotificationDispatcher
func NewNotificationDispatcher(repo repository.NotificationRepositoryInterface, bus events.Publisher, logger *logrus.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationDispatcher{
		repo:   repo,
		bus:    bus,
		logger: logger.WithField("component", "notification-dispatcher"),
		now:    time.Now,
		newID:  newID,
	}
}

// Build translates an event into records without touching the store.
// Unknown (entity, action) pairs yield nil.
func (d *NotificationDispatcher) Build(event NotificationEvent) []models.Notification {
	rule, ok := notificationTable[event.Entity][event.Action]
	if !ok {
		return nil
	}

	base := models.Notification{
		Type:     rule.Type,
		Title:    rule.Title,
		Message:  fmt.Sprintf(rule.Message, event.Subject),
		Time:     d.now().UTC(),
		Entity:   event.Entity,
		Action:   event.Action,
		EntityID: event.EntityID,
	}

	switch rule.FanOut {
	case FanOutMembers:
		members := uniqueSorted(event.MemberIDs)
		records := make([]models.Notification, 0, len(members))
		for _, memberID := range members {
			n := base
			n.ID = d.newID()
			n.GroupID = event.GroupID
			n.MemberID = memberID
			records = append(records, n)
		}
		return records
	case FanOutAudiences:
		audiences := uniqueSorted(event.Audiences)
		records := make([]models.Notification, 0, len(audiences))
		for _, audience := range audiences {
			n := base
			n.ID = d.newID()
			n.Audience = audience
			records = append(records, n)
		}
		return records
	default:
		base.ID = d.newID()
		base.GroupID = event.GroupID
		return []models.Notification{base}
	}
}

// Dispatch builds, stores and announces the records for event.
// Events without a rule are a no-op.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, event NotificationEvent) ([]models.Notification, error) {
	records := d.Build(event)
	if len(records) == 0 {
		d.logger.WithFields(logrus.Fields{
			"entity": event.Entity,
			"action": event.Action,
		}).Debug("No notification rule for event")
		return nil, nil
	}

	if err := d.repo.Prepend(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store notifications: %w", err)
	}

	if d.bus != nil {
		d.bus.Publish(ctx, events.Event{
			Signal:   events.NotificationsUpdated,
			Entity:   event.Entity,
			Action:   event.Action,
			EntityID: event.EntityID,
		})
	}

	d.logger.WithFields(logrus.Fields{
		"entity": event.Entity,
		"action": event.Action,
		"count":  len(records),
	}).Info("Notifications dispatched")

	return records, nil
}
