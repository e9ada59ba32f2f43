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

// Decision actions
const (
	DecisionApprove = "approve"
	DecisionDefer   = "defer"
)

// HazardService is the hazard approval state machine.
// Open -> Pending -> Approved -> InProgress -> Resolved; nothing moves back.
type HazardService struct {
	repo       repository.HazardRepositoryInterface
	users      repository.UserRepositoryInterface
	dispatcher Dispatcher
	bus        events.Publisher
	logger     *logrus.Entry
	now        func() time.Time
}

// NewHazardService creates a new HazardService. users may be nil, in which
// case assigned employee ids are not checked against the users collection.
func NewHazardService(repo repository.HazardRepositoryInterface, users repository.UserRepositoryInterface, dispatcher Dispatcher, bus events.Publisher, logger *logrus.Logger) *HazardService {
	if logger == nil {
		logger = logrus.New()
	}
	return &HazardService{
		repo:       repo,
		users:      users,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger.WithField("component", "hazard-service"),
		now:        time.Now,
	}
}

// ReportInput holds the fields of a new hazard report
type ReportInput struct {
	Type        string `json:"type"`
	Location    string `json:"location"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// EditInput holds optional field edits; nil fields are left alone
type EditInput struct {
	Type        *string `json:"type,omitempty"`
	Location    *string `json:"location,omitempty"`
	Severity    *string `json:"severity,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DecisionPayload carries the approve details. Defer ignores it.
type DecisionPayload struct {
	Priority     string `json:"priority"`
	Timeline     string `json:"timeline"`
	AssignedTeam string `json:"assignedTeam"`
	Remarks      string `json:"remarks,omitempty"`
}

// HazardFilter narrows List
type HazardFilter struct {
	Status     string
	ReportedBy string
}

var approverSlots = map[string]func(h *models.Hazard) *string{
	models.RoleAdmin:         func(h *models.Hazard) *string { return &h.AdminApproval },
	models.RoleSafetyManager: func(h *models.Hazard) *string { return &h.ManagerApproval },
	models.RoleSupervisor:    func(h *models.Hazard) *string { return &h.SupervisorApproval },
}

// Report creates an Open hazard with every approval slot unset
func (s *HazardService) Report(ctx context.Context, actor Actor, input ReportInput) (*models.Hazard, error) {
	const op = "report"

	input.Type = strings.TrimSpace(input.Type)
	input.Location = strings.TrimSpace(input.Location)
	input.Severity = strings.TrimSpace(input.Severity)
	input.Description = strings.TrimSpace(input.Description)

	var missing []string
	if input.Type == "" {
		missing = append(missing, "type")
	}
	if input.Location == "" {
		missing = append(missing, "location")
	}
	if input.Severity == "" {
		missing = append(missing, "severity")
	}
	if input.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, validationError(op, "missing required fields", missing...)
	}
	if !models.ValidLevel(input.Severity) {
		return nil, validationError(op, "invalid severity", "severity")
	}

	now := s.now().UTC()
	hazard := &models.Hazard{
		ID:           newID(),
		Type:         input.Type,
		Location:     input.Location,
		Description:  input.Description,
		Severity:     input.Severity,
		Status:       models.HazardStatusOpen,
		ReportedBy:   actor.ID,
		ReporterName: actor.Name,
		ReporterRole: actor.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, hazard); err != nil {
		return nil, fmt.Errorf("failed to create hazard: %w", err)
	}

	s.afterWrite(ctx, hazard, ActionCreate, NotificationEvent{Entity: EntityHazard, Action: ActionCreate})
	return hazard, nil
}

// SendToApproval records the admin's approval and opens the other two slots
func (s *HazardService) SendToApproval(ctx context.Context, actor Actor, hazardID string) (*models.Hazard, error) {
	const op = "send to approval"

	current, err := s.load(ctx, op, hazardID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, forbiddenError(op, "only an admin can send a hazard to approval")
	}
	if current.Status != models.HazardStatusOpen {
		return nil, stateError(op, fmt.Sprintf("hazard is %s, expected %s", current.Status, models.HazardStatusOpen))
	}

	updated := current.Clone()
	updated.AdminApproval = models.SlotApproved
	updated.ManagerApproval = models.SlotPending
	updated.SupervisorApproval = models.SlotPending
	updated.Status = models.HazardStatusPending
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.writeError(op, err)
	}

	s.afterWrite(ctx, updated, ActionRequestApproval, NotificationEvent{
		Entity:    EntityHazard,
		Action:    ActionRequestApproval,
		Audiences: []string{models.RoleSafetyManager, models.RoleSupervisor},
	})
	return updated, nil
}

// Decide applies one approver's decision. The approver slot is picked by
// the actor's role. Aggregation is computed from the updated record.
func (s *HazardService) Decide(ctx context.Context, actor Actor, hazardID string, action string, payload DecisionPayload) (*models.Hazard, error) {
	const op = "decide"

	current, err := s.load(ctx, op, hazardID)
	if err != nil {
		return nil, err
	}

	if action != DecisionApprove && action != DecisionDefer {
		return nil, validationError(op, "action must be approve or defer", "action")
	}
	if action == DecisionApprove {
		if err := validatePayload(op, &payload); err != nil {
			return nil, err
		}
	}

	slotOf, ok := approverSlots[actor.Role]
	if !ok {
		return nil, forbiddenError(op, fmt.Sprintf("role %q has no approval slot", actor.Role))
	}

	switch current.Status {
	case models.HazardStatusPending:
	case models.HazardStatusApproved:
		if action == DecisionDefer {
			return nil, stateError(op, "cannot defer a hazard that is already approved")
		}
		// Re-approving an approved hazard changes nothing
		return current, nil
	default:
		return nil, stateError(op, fmt.Sprintf("hazard is %s, expected %s", current.Status, models.HazardStatusPending))
	}
	if action == DecisionDefer && actor.Role == models.RoleAdmin {
		return nil, stateError(op, "the admin approval is fixed once a hazard is sent to approval")
	}

	updated := current.Clone()
	slot := slotOf(updated)
	if action == DecisionApprove {
		*slot = models.SlotApproved
		updated.Priority = payload.Priority
		updated.Timeline = payload.Timeline
		updated.AssignedTeam = payload.AssignedTeam
		updated.ApprovalRemarks = payload.Remarks
	} else {
		*slot = models.SlotPending
	}
	aggregate(updated)
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.writeError(op, err)
	}

	s.logger.WithFields(logrus.Fields{
		"hazardId": updated.ID,
		"role":     actor.Role,
		"action":   action,
		"status":   updated.Status,
	}).Info("Approval decision recorded")

	var event NotificationEvent
	if updated.Status == models.HazardStatusApproved {
		event = NotificationEvent{Entity: EntityHazard, Action: ActionApprove}
	}
	s.afterWrite(ctx, updated, action, event)
	return updated, nil
}

// aggregate derives status from the three slots of h
func aggregate(h *models.Hazard) {
	if h.FullyApproved() {
		h.Status = models.HazardStatusApproved
	} else {
		h.Status = models.HazardStatusPending
	}
}

func validatePayload(op string, p *DecisionPayload) error {
	p.Priority = strings.TrimSpace(p.Priority)
	p.Timeline = strings.TrimSpace(p.Timeline)
	p.AssignedTeam = strings.TrimSpace(p.AssignedTeam)
	p.Remarks = strings.TrimSpace(p.Remarks)

	var missing []string
	if p.Priority == "" {
		missing = append(missing, "priority")
	}
	if p.Timeline == "" {
		missing = append(missing, "timeline")
	}
	if p.AssignedTeam == "" {
		missing = append(missing, "assignedTeam")
	}
	if len(missing) > 0 {
		return validationError(op, "missing required fields", missing...)
	}
	if !models.ValidLevel(p.Priority) {
		return validationError(op, "invalid priority", "priority")
	}
	if !validDate(p.Timeline) {
		return validationError(op, "timeline must be a date (YYYY-MM-DD)", "timeline")
	}
	return nil
}

func validDate(v string) bool {
	if _, err := time.Parse("2006-01-02", v); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, v)
	return err == nil
}

// Assign sets the employees working on an approved hazard
func (s *HazardService) Assign(ctx context.Context, actor Actor, hazardID string, employeeIDs []string) (*models.Hazard, error) {
	const op = "assign"

	current, err := s.load(ctx, op, hazardID)
	if err != nil {
		return nil, err
	}
	ids := uniqueSorted(employeeIDs)
	if len(ids) == 0 {
		return nil, validationError(op, "at least one employee is required", "employeeIds")
	}
	if actor.IsEmployee() {
		return nil, forbiddenError(op, "employees cannot assign hazards")
	}
	if current.Status != models.HazardStatusApproved {
		return nil, stateError(op, fmt.Sprintf("hazard is %s, employees can only be assigned once it is %s", current.Status, models.HazardStatusApproved))
	}
	if s.users != nil {
		for _, id := range ids {
			if _, err := s.users.GetByID(ctx, id); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, notFoundError(op, fmt.Sprintf("user %s not found", id))
				}
				return nil, err
			}
		}
	}

	updated := current.Clone()
	updated.AssignedEmployees = ids
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.writeError(op, err)
	}

	s.afterWrite(ctx, updated, "assign", NotificationEvent{Entity: EntityHazard, Action: ActionUpdate})
	return updated, nil
}

// TransitionStatus manually advances an approved hazard to InProgress or Resolved
func (s *HazardService) TransitionStatus(ctx context.Context, actor Actor, hazardID string, newStatus string) (*models.Hazard, error) {
	const op = "transition status"

	current, err := s.load(ctx, op, hazardID)
	if err != nil {
		return nil, err
	}
	if newStatus != models.HazardStatusInProgress && newStatus != models.HazardStatusResolved {
		return nil, validationError(op, "status must be InProgress or Resolved", "status")
	}
	if actor.IsEmployee() {
		return nil, forbiddenError(op, "employees cannot change hazard status")
	}
	if !ValidStatusTransition(current.Status, newStatus) {
		return nil, stateError(op, fmt.Sprintf("cannot move hazard from %s to %s", current.Status, newStatus))
	}

	now := s.now().UTC()
	updated := current.Clone()
	updated.Status = newStatus
	updated.UpdatedAt = now
	action := ActionUpdate
	if newStatus == models.HazardStatusResolved {
		updated.ResolvedAt = &now
		action = ActionResolve
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.writeError(op, err)
	}

	s.afterWrite(ctx, updated, action, NotificationEvent{Entity: EntityHazard, Action: action})
	return updated, nil
}

var manualTransitions = map[string][]string{
	models.HazardStatusInProgress: {models.HazardStatusApproved},
	models.HazardStatusResolved:   {models.HazardStatusApproved, models.HazardStatusInProgress},
}

// ValidStatusTransition reports whether a manual move from -> to is allowed
func ValidStatusTransition(from, to string) bool {
	for _, s := range manualTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// Edit changes descriptive fields. The reporter may edit while the hazard is
// Open; any non-employee role may edit at any time.
func (s *HazardService) Edit(ctx context.Context, actor Actor, hazardID string, input EditInput) (*models.Hazard, error) {
	const op = "edit"

	current, err := s.load(ctx, op, hazardID)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	changed := false
	apply := func(field string, src *string, dst *string) error {
		if src == nil {
			return nil
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			return validationError(op, "field cannot be empty", field)
		}
		if *dst != v {
			*dst = v
			changed = true
		}
		return nil
	}
	if err := apply("type", input.Type, &updated.Type); err != nil {
		return nil, err
	}
	if err := apply("location", input.Location, &updated.Location); err != nil {
		return nil, err
	}
	if err := apply("severity", input.Severity, &updated.Severity); err != nil {
		return nil, err
	}
	if err := apply("description", input.Description, &updated.Description); err != nil {
		return nil, err
	}
	if !models.ValidLevel(updated.Severity) {
		return nil, validationError(op, "invalid severity", "severity")
	}

	if err := canModify(op, actor, current); err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}

	updated.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, s.writeError(op, err)
	}

	s.afterWrite(ctx, updated, ActionUpdate, NotificationEvent{Entity: EntityHazard, Action: ActionUpdate})
	return updated, nil
}

// Delete removes the hazard and announces it
func (s *HazardService) Delete(ctx context.Context, actor Actor, hazardID string) error {
	const op = "delete"

	current, err := s.load(ctx, op, hazardID)
	if err != nil {
		return err
	}
	if err := canModify(op, actor, current); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, hazardID); err != nil {
		return s.writeError(op, err)
	}

	s.afterWrite(ctx, current, ActionDelete, NotificationEvent{Entity: EntityHazard, Action: ActionDelete})
	return nil
}

func canModify(op string, actor Actor, h *models.Hazard) error {
	if !actor.IsEmployee() {
		return nil
	}
	if actor.ID != "" && actor.ID == h.ReportedBy {
		if h.Status != models.HazardStatusOpen {
			return stateError(op, "reporters can only change a hazard while it is Open")
		}
		return nil
	}
	return forbiddenError(op, "only the reporter or a non-employee role can change this hazard")
}

// Get returns one hazard
func (s *HazardService) Get(ctx context.Context, hazardID string) (*models.Hazard, error) {
	return s.load(ctx, "get", hazardID)
}

// List returns hazards newest first
func (s *HazardService) List(ctx context.Context, filter HazardFilter) ([]models.Hazard, error) {
	hazards, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Hazard, 0, len(hazards))
	for _, h := range hazards {
		if filter.Status != "" && h.Status != filter.Status {
			continue
		}
		if filter.ReportedBy != "" && h.ReportedBy != filter.ReportedBy {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *HazardService) load(ctx context.Context, op, hazardID string) (*models.Hazard, error) {
	h, err := s.repo.GetByID(ctx, hazardID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError(op, fmt.Sprintf("hazard %s not found", hazardID))
		}
		return nil, err
	}
	return h, nil
}

// writeError maps a repository failure on write; the record can vanish
// between read and write when another writer deletes it.
func (s *HazardService) writeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundError(op, "hazard no longer exists")
	}
	return fmt.Errorf("failed to save hazard: %w", err)
}

// afterWrite signals the bus and dispatches the notification for a committed
// change. Dispatch failures are logged; the hazard write already succeeded.
func (s *HazardService) afterWrite(ctx context.Context, h *models.Hazard, action string, event NotificationEvent) {
	if s.bus != nil {
		s.bus.Publish(ctx, events.Event{
			Signal:   events.HazardsUpdated,
			Entity:   EntityHazard,
			Action:   action,
			EntityID: h.ID,
		})
	}

	if event.Entity == "" || s.dispatcher == nil {
		return
	}
	event.EntityID = h.ID
	if event.Subject == "" {
		event.Subject = hazardSubject(h)
	}
	if _, err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.WithFields(logrus.Fields{
			"hazardId": h.ID,
			"action":   event.Action,
		}).WithError(err).Error("Failed to dispatch hazard notification")
	}
}

func hazardSubject(h *models.Hazard) string {
	return fmt.Sprintf("%s at %s (%s)", h.Type, h.Location, h.Severity)
}
