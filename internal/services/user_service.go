package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hazard-service/internal/events"
	"hazard-service/internal/models"
	"hazard-service/internal/repository"
)

// UserService manages accounts. Every change is announced through the dispatcher.
type UserService struct {
	repo       repository.UserRepositoryInterface
	dispatcher Dispatcher
	bus        events.Publisher
	logger     *logrus.Entry
	now        func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(repo repository.UserRepositoryInterface, dispatcher Dispatcher, bus events.Publisher, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = logrus.New()
	}
	return &UserService{
		repo:       repo,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithField("component", "user-service"),
		now:        time.Now,
	}
}

// CreateUserInput holds the fields of a new account
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Approved bool   `json:"approved"`
}

// UpdateUserInput holds optional account edits
type UpdateUserInput struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Register creates an unapproved account for self sign-up
func (s *UserService) Register(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if input.Role == "" {
		input.Role = models.RoleEmployee
	}
	input.Approved = false
	return s.create(ctx, "register", input)
}

// Create adds an account on behalf of an admin
func (s *UserService) Create(ctx context.Context, actor Actor, input CreateUserInput) (*models.User, error) {
	const op = "create user"
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can create users")
	}
	return s.create(ctx, op, input)
}

func (s *UserService) create(ctx context.Context, op string, input CreateUserInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)

	var missing []string
	if input.Name == "" {
		missing = append(missing, "name")
	}
	if input.Email == "" {
		missing = append(missing, "email")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, validationError(op, "missing required fields", missing...)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, validationError(op, "invalid email", "email")
	}
	if input.Role == "" {
		input.Role = models.RoleEmployee
	}
	if !models.ValidRole(input.Role) {
		return nil, validationError(op, "invalid role", "role")
	}

	user := &models.User{
		ID:        newID(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		Role:      input.Role,
		Approved:  input.Approved,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, validationError(op, "email already registered", "email")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.afterWrite(ctx, user, ActionCreate)
	return user, nil
}

// Update edits an account. Admins may edit anyone; users may edit themselves
// but not their own role.
func (s *UserService) Update(ctx context.Context, actor Actor, userID string, input UpdateUserInput) (*models.User, error) {
	const op = "update user"

	current, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.Name != nil {
		if updated.Name = strings.TrimSpace(*input.Name); updated.Name == "" {
			return nil, validationError(op, "field cannot be empty", "name")
		}
	}
	if input.Email != nil {
		updated.Email = strings.TrimSpace(*input.Email)
		if _, err := mail.ParseAddress(updated.Email); err != nil {
			return nil, validationError(op, "invalid email", "email")
		}
	}
	if input.Password != nil {
		if *input.Password == "" {
			return nil, validationError(op, "field cannot be empty", "password")
		}
		updated.Password = *input.Password
	}
	if input.Role != nil {
		if !models.ValidRole(*input.Role) {
			return nil, validationError(op, "invalid role", "role")
		}
		updated.Role = *input.Role
	}

	if !actor.IsAdmin() {
		if actor.ID != userID {
			return nil, forbiddenError(op, "only an admin can edit other users")
		}
		if updated.Role != current.Role {
			return nil, forbiddenError(op, "only an admin can change roles")
		}
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, validationError(op, "email already registered", "email")
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFoundError(op, "user no longer exists")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.afterWrite(ctx, &updated, ActionUpdate)
	return &updated, nil
}

// Approve activates an account. Approving an approved account is a no-op.
func (s *UserService) Approve(ctx context.Context, actor Actor, userID string) (*models.User, error) {
	const op = "approve user"

	current, err := s.load(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can approve users")
	}
	if current.Approved {
		return current, nil
	}

	current.Approved = true
	if err := s.repo.Update(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	s.afterWrite(ctx, current, ActionApprove)
	return current, nil
}

// Delete removes an account
func (s *UserService) Delete(ctx context.Context, actor Actor, userID string) error {
	const op = "delete user"

	current, err := s.load(ctx, op, userID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return forbiddenError(op, "only an admin can delete users")
	}
	if actor.ID == userID {
		return stateError(op, "admins cannot delete their own account")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError(op, "user no longer exists")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.afterWrite(ctx, current, ActionDelete)
	return nil
}

// Authenticate checks the password by plain comparison. Unapproved accounts
// cannot sign in.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return nil, ErrInvalidCredentials
	}
	if !user.Approved {
		return nil, forbiddenError("login", "account is awaiting approval")
	}
	return user, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.load(ctx, "get user", userID)
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) load(ctx context.Context, op, userID string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError(op, fmt.Sprintf("user %s not found", userID))
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) afterWrite(ctx context.Context, u *models.User, action string) {
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{
			Signal:   events.UsersUpdated,
			Entity:   EntityUser,
			Action:   action,
			EntityID: u.ID,
		})
	}
	if s.dispatcher == nil {
		return
	}
	_, err := s.dispatcher.Dispatch(ctx, NotificationEvent{
		Entity:   EntityUser,
		Action:   action,
		Subject:  u.Name,
		EntityID: u.ID,
	})
	if err != nil {
		s.logger.WithField("userId", u.ID).WithError(err).Error("Failed to dispatch user notification")
	}
}
