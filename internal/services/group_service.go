package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hazard-service/internal/events"
	"hazard-service/internal/models"
	"hazard-service/internal/repository"
)

// GroupService manages groups, their members and their permissions
type GroupService struct {
	repo       repository.GroupRepositoryInterface
	users      repository.UserRepositoryInterface
	dispatcher Dispatcher
	bus        events.Publisher
	logger     *logrus.Entry
	now        func() time.Time
}

// NewGroupService creates a new GroupService
func NewGroupService(repo repository.GroupRepositoryInterface, users repository.UserRepositoryInterface, dispatcher Dispatcher, bus events.Publisher, logger *logrus.Logger) *GroupService {
	if logger == nil {
		logger = logrus.New()
	}
	return &GroupService{
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithField("component", "group-service"),
		now:        time.Now,
	}
}

// CreateGroupInput holds the fields of a new group
type CreateGroupInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Members     []string           `json:"members,omitempty"`
	Permissions models.Permissions `json:"permissions"`
}

// UpdateGroupInput holds optional group edits
type UpdateGroupInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Create adds a group; every initial member is notified
func (s *GroupService) Create(ctx context.Context, actor Actor, input CreateGroupInput) (*models.Group, error) {
	const op = "create group"

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, validationError(op, "missing required fields", "name")
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can manage groups")
	}
	members := uniqueSorted(input.Members)
	if err := s.checkUsers(ctx, op, members); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	perms := input.Permissions.Clone()
	perms.Shape = models.ShapeCRUD
	group := &models.Group{
		ID:          newID(),
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		Members:     members,
		Permissions: perms,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	for _, m := range members {
		s.linkUser(ctx, m, group.ID)
	}

	s.afterWrite(ctx, group, ActionCreate, members)
	return group, nil
}

// Update edits the name or description
func (s *GroupService) Update(ctx context.Context, actor Actor, groupID string, input UpdateGroupInput) (*models.Group, error) {
	const op = "update group"

	current, err := s.load(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	updated := *current
	if input.Name != nil {
		if updated.Name = strings.TrimSpace(*input.Name); updated.Name == "" {
			return nil, validationError(op, "field cannot be empty", "name")
		}
	}
	if input.Description != nil {
		updated.Description = strings.TrimSpace(*input.Description)
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can manage groups")
	}

	updated.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, op, &updated); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, &updated, ActionUpdate, updated.Members)
	return &updated, nil
}

// Delete removes a group. There is no notification rule for it; only the
// groups signal fires.
func (s *GroupService) Delete(ctx context.Context, actor Actor, groupID string) error {
	const op = "delete group"

	current, err := s.load(ctx, op, groupID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return forbiddenError(op, "only an admin can manage groups")
	}
	if err := s.repo.Delete(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(op, "group no longer exists")
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	for _, m := range current.Members {
		s.unlinkUser(ctx, m, groupID)
	}

	s.afterWrite(ctx, current, ActionDelete, nil)
	return nil
}

// AddMember adds userID to the group. Adding an existing member is a no-op.
func (s *GroupService) AddMember(ctx context.Context, actor Actor, groupID, userID string) (*models.Group, error) {
	const op = "add member"

	current, err := s.load(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, validationError(op, "missing required fields", "userId")
	}
	if err := s.checkUsers(ctx, op, []string{userID}); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can manage groups")
	}
	if current.HasMember(userID) {
		return current, nil
	}

	updated := *current
	updated.Members = uniqueSorted(append(append([]string(nil), current.Members...), userID))
	updated.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, op, &updated); err != nil {
		return nil, err
	}
	s.linkUser(ctx, userID, groupID)

	s.afterWrite(ctx, &updated, ActionAddMember, updated.Members)
	return &updated, nil
}

// RemoveMember drops userID from the group. Removing a non-member is a no-op.
// The removed member is notified together with the remaining members.
func (s *GroupService) RemoveMember(ctx context.Context, actor Actor, groupID, userID string) (*models.Group, error) {
	const op = "remove member"

	current, err := s.load(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can manage groups")
	}
	if !current.HasMember(userID) {
		return current, nil
	}

	updated := *current
	updated.Members = make([]string, 0, len(current.Members))
	for _, m := range current.Members {
		if m != userID {
			updated.Members = append(updated.Members, m)
		}
	}
	updated.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, op, &updated); err != nil {
		return nil, err
	}
	s.unlinkUser(ctx, userID, groupID)

	s.afterWrite(ctx, &updated, ActionRemoveMember, current.Members)
	return &updated, nil
}

// ChangePermissions replaces the group's permission record
func (s *GroupService) ChangePermissions(ctx context.Context, actor Actor, groupID string, perms models.Permissions) (*models.Group, error) {
	const op = "change permissions"

	current, err := s.load(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can manage groups")
	}

	updated := *current
	updated.Permissions = perms.Clone()
	updated.Permissions.Shape = models.ShapeCRUD
	updated.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, op, &updated); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, &updated, ActionChangePermissions, nil)
	return &updated, nil
}

// Get returns one group
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	return s.load(ctx, "get group", groupID)
}

// List returns every group
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.repo.List(ctx)
}

func (s *GroupService) load(ctx context.Context, op, groupID string) (*models.Group, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError(op, fmt.Sprintf("group %s not found", groupID))
		}
		return nil, err
	}
	return g, nil
}

func (s *GroupService) save(ctx context.Context, op string, g *models.Group) error {
	if err := s.repo.Update(ctx, g); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(op, "group no longer exists")
		}
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

func (s *GroupService) checkUsers(ctx context.Context, op string, ids []string) error {
	if s.users == nil {
		return nil
	}
	for _, id := range ids {
		if _, err := s.users.GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundError(op, fmt.Sprintf("user %s not found", id))
			}
			return err
		}
	}
	return nil
}

// linkUser records groupID on the user when the user has no group yet
func (s *GroupService) linkUser(ctx context.Context, userID, groupID string) {
	if s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.GroupID != "" {
		return
	}
	u.GroupID = groupID
	if err := s.users.Update(ctx, u); err != nil {
		s.logger.WithField("userId", userID).WithError(err).Warn("Failed to link user to group")
		return
	}
	s.publish(ctx, events.UsersUpdated, EntityUser, ActionUpdate, userID)
}

// unlinkUser clears groupID from the user when it points at this group
func (s *GroupService) unlinkUser(ctx context.Context, userID, groupID string) {
	if s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.GroupID != groupID {
		return
	}
	u.GroupID = ""
	if err := s.users.Update(ctx, u); err != nil {
		s.logger.WithField("userId", userID).WithError(err).Warn("Failed to unlink user from group")
		return
	}
	s.publish(ctx, events.UsersUpdated, EntityUser, ActionUpdate, userID)
}

func (s *GroupService) publish(ctx context.Context, sig events.Signal, entity, action, id string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.Event{Signal: sig, Entity: entity, Action: action, EntityID: id})
}

func (s *GroupService) afterWrite(ctx context.Context, g *models.Group, action string, memberIDs []string) {
	s.publish(ctx, events.GroupsUpdated, EntityGroup, action, g.ID)

	if s.dispatcher == nil {
		return
	}
	_, err := s.dispatcher.Dispatch(ctx, NotificationEvent{
		Entity:    EntityGroup,
		Action:    action,
		Subject:   g.Name,
		EntityID:  g.ID,
		GroupID:   g.ID,
		MemberIDs: memberIDs,
	})
	if err != nil {
		s.logger.WithField("groupId", g.ID).WithError(err).Error("Failed to dispatch group notification")
	}
}
