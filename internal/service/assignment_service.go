package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/events"
	"github.com/spec-kit/jobcard-service/internal/repository"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// AssignmentService handles job card assignment operations.
type AssignmentService struct {
	cards      repository.JobCardRepository
	employees  repository.EmployeeRepository
	history    repository.JobCardHistoryRepository
	dispatcher events.Dispatcher
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	JobCardRepo  repository.JobCardRepository
	EmployeeRepo repository.EmployeeRepository
	HistoryRepo  repository.JobCardHistoryRepository
	Dispatcher   events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	return &AssignmentService{
		cards:      deps.JobCardRepo,
		employees:  deps.EmployeeRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// SelfAssign lets an employee pick up an unassigned card from their own
// department. It never steals a card already assigned to someone else.
func (s *AssignmentService) SelfAssign(ctx context.Context, actor *domain.Employee, idOrReference string) (*domain.JobCard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	card, err := s.getJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !assignableStatus(card.Status) {
		return nil, apperrors.NewConflict("job card not assignable", map[string]any{"status": card.Status})
	}
	if actor.Role != domain.EmployeeRoleAdmin {
		if actor.DepartmentID == nil || *actor.DepartmentID != card.DepartmentID {
			return nil, apperrors.NewForbidden("job card outside your department")
		}
	}
	if card.AssigneeID != nil {
		if *card.AssigneeID == actor.ID {
			return card, nil
		}
		return nil, apperrors.NewConflict("job card already assigned", map[string]any{"assignee_id": *card.AssigneeID})
	}

	oldAssignee := card.AssigneeID
	card.AssigneeID = &actor.ID
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, actor.ID, card.ID, oldAssignee, card.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, events.JobCardAssignedPayload{
		AssigneeID:         card.AssigneeID,
		PreviousAssigneeID: oldAssignee,
	}, card.ID)
	return card, nil
}

// Assign hands the card to the named employee (SUPERVISOR/ADMIN).
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.Employee, idOrReference, assigneeID string) (*domain.JobCard, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	assignee, err := s.employees.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"employee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"employee_id": assigneeID})
	}

	card, err := s.getJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !assignableStatus(card.Status) {
		return nil, apperrors.NewConflict("job card not assignable", map[string]any{"status": card.Status})
	}
	if !assigneeInDepartment(assignee, card) && actor.Role != domain.EmployeeRoleAdmin {
		return nil, apperrors.NewForbidden("assignee outside job card department")
	}

	oldAssignee := card.AssigneeID
	card.AssigneeID = &assignee.ID
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, actor.ID, card.ID, oldAssignee, card.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, events.JobCardAssignedPayload{
		AssigneeID:         card.AssigneeID,
		PreviousAssigneeID: oldAssignee,
	}, card.ID)
	return card, nil
}

// AutoAssign picks the least-loaded active technician in the card's
// department; ties go to the longest-tenured employee.
func (s *AssignmentService) AutoAssign(ctx context.Context, actor *domain.Employee, idOrReference string) (*domain.JobCard, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	card, err := s.getJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !assignableStatus(card.Status) {
		return nil, apperrors.NewConflict("job card not assignable", map[string]any{"status": card.Status})
	}

	role := domain.EmployeeRoleTechnician
	filter := repository.EmployeeFilter{
		Role:         &role,
		DepartmentID: &card.DepartmentID,
		Active:       ptrBool(true),
		Limit:        1000,
	}
	candidates, err := s.employees.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(candidates) == 0 {
		return nil, apperrors.NewConflict("no eligible technicians in department", map[string]any{"department_id": card.DepartmentID})
	}

	counts, err := s.cards.CountOpenByAssignee(ctx, card.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ci, cj := counts[candidates[i].ID], counts[candidates[j].ID]
		if ci != cj {
			return ci < cj
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	assignee := candidates[0]

	oldAssignee := card.AssigneeID
	card.AssigneeID = &assignee.ID
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, actor.ID, card.ID, oldAssignee, card.AssigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, events.JobCardAssignedPayload{
		AssigneeID:         card.AssigneeID,
		PreviousAssigneeID: oldAssignee,
	}, card.ID)
	return card, nil
}

// Unassign clears the assignee (SUPERVISOR/ADMIN).
func (s *AssignmentService) Unassign(ctx context.Context, actor *domain.Employee, idOrReference string) (*domain.JobCard, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	card, err := s.getJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if card.AssigneeID == nil {
		return card, nil
	}

	oldAssignee := card.AssigneeID
	card.AssigneeID = nil
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, actor.ID, card.ID, oldAssignee, nil); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, actor.ID, events.JobCardAssignedPayload{
		AssigneeID:         nil,
		PreviousAssigneeID: oldAssignee,
	}, card.ID)
	return card, nil
}

func (s *AssignmentService) getJobCard(ctx context.Context, idOrReference string) (*domain.JobCard, error) {
	var (
		card *domain.JobCard
		err  error
	)
	if isJobCardReference(idOrReference) {
		card, err = s.cards.GetByReference(ctx, idOrReference)
	} else {
		card, err = s.cards.GetByID(ctx, idOrReference)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("job card", map[string]any{"job_card": idOrReference})
		}
		return nil, apperrors.MapError(err)
	}
	return card, nil
}

func assignableStatus(status domain.JobCardStatus) bool {
	switch status {
	case domain.JobCardStatusOpen, domain.JobCardStatusInProgress, domain.JobCardStatusOnHold:
		return true
	default:
		return false
	}
}

func assigneeInDepartment(assignee *domain.Employee, card *domain.JobCard) bool {
	if assignee == nil {
		return false
	}
	return assignee.DepartmentID != nil && *assignee.DepartmentID == card.DepartmentID
}

func ptrBool(v bool) *bool {
	return &v
}

func requireAssignPriv(actor *domain.Employee) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role != domain.EmployeeRoleSupervisor && actor.Role != domain.EmployeeRoleAdmin {
		return apperrors.NewForbidden("insufficient role for assignment")
	}
	return nil
}

func (s *AssignmentService) recordAssigneeChange(ctx context.Context, actorID string, jobCardID string, oldAssignee, newAssignee *string) error {
	return s.history.Create(ctx, &domain.JobCardHistory{
		JobCardID:   jobCardID,
		ChangedByID: &actorID,
		ChangeType:  domain.ChangeTypeAssignee,
		OldValue: map[string]any{
			"assignee_id": oldAssignee,
		},
		NewValue: map[string]any{
			"assignee_id": newAssignee,
		},
	})
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actorID string, payload events.JobCardAssignedPayload, jobCardID string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventJobCardAssigned,
		JobCardID: jobCardID,
		ActorID:   &actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	_ = s.dispatcher.Publish(ctx, event)
}
