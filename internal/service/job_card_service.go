package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/events"
	"github.com/spec-kit/jobcard-service/internal/repository"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// JobCardService coordinates job card workflows.
type JobCardService struct {
	cards       repository.JobCardRepository
	notes       repository.JobCardNoteRepository
	attachments repository.AttachmentRepository
	departments repository.DepartmentRepository
	sites       repository.SiteRepository
	employees   repository.EmployeeRepository
	history     repository.JobCardHistoryRepository
	dispatcher  events.Dispatcher
}

// JobCardDependencies bundles repositories for the job card service.
type JobCardDependencies struct {
	JobCardRepo    repository.JobCardRepository
	NoteRepo       repository.JobCardNoteRepository
	AttachmentRepo repository.AttachmentRepository
	DepartmentRepo repository.DepartmentRepository
	SiteRepo       repository.SiteRepository
	EmployeeRepo   repository.EmployeeRepository
	HistoryRepo    repository.JobCardHistoryRepository
	Dispatcher     events.Dispatcher
}

// JobCardCreateInput describes job card creation payload.
type JobCardCreateInput struct {
	DepartmentID string
	SiteID       *string
	Title        string
	Details      string
	Priority     domain.JobCardPriority
	Tags         []string
	DueAt        *time.Time
}

// JobCardListFilter describes listing filters before role scoping.
type JobCardListFilter struct {
	DepartmentID *string
	SiteID       *string
	AssigneeID   *string
	Statuses     []domain.JobCardStatus
	Priorities   []domain.JobCardPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	DueFrom      *time.Time
	DueTo        *time.Time
	Limit        int
	Offset       int
}

// NoteAttachmentInput defines attachment metadata supplied with a note.
type NoteAttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// NewJobCardService constructs the service.
func NewJobCardService(deps JobCardDependencies) *JobCardService {
	return &JobCardService{
		cards:       deps.JobCardRepo,
		notes:       deps.NoteRepo,
		attachments: deps.AttachmentRepo,
		departments: deps.DepartmentRepo,
		sites:       deps.SiteRepo,
		employees:   deps.EmployeeRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// Create opens a new job card. Supervisors create within their own department,
// admins anywhere.
func (s *JobCardService) Create(ctx context.Context, actor *domain.Employee, input JobCardCreateInput) (*domain.JobCard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	switch actor.Role {
	case domain.EmployeeRoleAdmin:
	case domain.EmployeeRoleSupervisor:
		if actor.DepartmentID == nil || *actor.DepartmentID != input.DepartmentID {
			return nil, apperrors.NewForbidden("job card outside your department")
		}
	default:
		return nil, apperrors.NewForbidden("supervisor role required")
	}

	dept, err := s.departments.GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, err
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": input.DepartmentID})
	}
	if input.SiteID != nil {
		site, err := s.sites.GetByID(ctx, *input.SiteID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("site", map[string]any{"site_id": *input.SiteID})
			}
			return nil, err
		}
		if !site.IsActive {
			return nil, apperrors.NewConflict("site inactive", map[string]any{"site_id": *input.SiteID})
		}
	}

	card := &domain.JobCard{
		Reference:    generateJobCardReference(),
		CreatedByID:  actor.ID,
		DepartmentID: input.DepartmentID,
		SiteID:       input.SiteID,
		Title:        strings.TrimSpace(input.Title),
		Details:      strings.TrimSpace(input.Details),
		Status:       domain.JobCardStatusOpen,
		Priority:     input.Priority,
		Tags:         input.Tags,
		DueAt:        input.DueAt,
	}
	if card.Priority == "" {
		card.Priority = domain.JobCardPriorityMedium
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventJobCardCreated,
		JobCardID: card.ID,
		ActorID:   &actor.ID,
		Payload: events.JobCardCreatedPayload{
			Reference:    card.Reference,
			DepartmentID: card.DepartmentID,
			SiteID:       card.SiteID,
			Priority:     card.Priority,
			Title:        card.Title,
		},
	})
	return card, nil
}

// List returns job cards visible to the actor. Role scoping narrows the
// filter before it reaches the repository.
func (s *JobCardService) List(ctx context.Context, actor *domain.Employee, filter JobCardListFilter) ([]domain.JobCard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.JobCardFilter{
		DepartmentID: filter.DepartmentID,
		SiteID:       filter.SiteID,
		AssigneeID:   filter.AssigneeID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		DueFrom:      filter.DueFrom,
		DueTo:        filter.DueTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	s.applyRoleScope(&repoFilter, actor)
	return s.cards.ListWithFilter(ctx, repoFilter)
}

// Get fetches a job card by id or "JC-" reference, with its notes.
func (s *JobCardService) Get(ctx context.Context, actor *domain.Employee, idOrReference string) (*domain.JobCard, []domain.JobCardNote, error) {
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	notes, err := s.notesWithAttachments(ctx, card.ID)
	if err != nil {
		return nil, nil, err
	}
	return card, notes, nil
}

// UpdateStatus moves a job card through the status machine.
func (s *JobCardService) UpdateStatus(ctx context.Context, actor *domain.Employee, idOrReference string, newStatus domain.JobCardStatus, comment string) (*domain.JobCard, error) {
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !isValidTransition(card.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": card.Status,
			"to":   newStatus,
		})
	}

	oldStatus := card.Status
	if newStatus == domain.JobCardStatusCompleted {
		now := time.Now()
		card.CompletedAt = &now
	} else if card.CompletedAt != nil {
		card.CompletedAt = nil
	}
	card.Status = newStatus
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}
	if err := s.recordStatusChange(ctx, &actor.ID, card.ID, oldStatus, newStatus, comment); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventJobCardStatusChanged,
		JobCardID: card.ID,
		ActorID:   &actor.ID,
		Payload: events.JobCardStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return card, nil
}

// UpdatePriority changes scheduling urgency. Technicians cannot reprioritise.
func (s *JobCardService) UpdatePriority(ctx context.Context, actor *domain.Employee, idOrReference string, newPriority domain.JobCardPriority) (*domain.JobCard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.EmployeeRoleTechnician {
		return nil, apperrors.NewForbidden("supervisor role required")
	}
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}

	oldPriority := card.Priority
	card.Priority = newPriority
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}
	if err := s.recordPriorityChange(ctx, &actor.ID, card.ID, oldPriority, newPriority); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventJobCardPriorityChanged,
		JobCardID: card.ID,
		ActorID:   &actor.ID,
		Payload: events.JobCardPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return card, nil
}

// Reschedule sets or clears the due date.
func (s *JobCardService) Reschedule(ctx context.Context, actor *domain.Employee, idOrReference string, dueAt *time.Time) (*domain.JobCard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.EmployeeRoleTechnician {
		return nil, apperrors.NewForbidden("supervisor role required")
	}
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}

	oldDue := card.DueAt
	card.DueAt = dueAt
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}
	entry := &domain.JobCardHistory{
		JobCardID:   card.ID,
		ChangedByID: &actor.ID,
		ChangeType:  domain.ChangeTypeDueDate,
		OldValue:    map[string]any{"due_at": oldDue},
		NewValue:    map[string]any{"due_at": dueAt},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}
	return card, nil
}

// UpdateSite moves the job card to another site, or clears it.
func (s *JobCardService) UpdateSite(ctx context.Context, actor *domain.Employee, idOrReference string, siteID *string) (*domain.JobCard, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.EmployeeRoleTechnician {
		return nil, apperrors.NewForbidden("supervisor role required")
	}
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if siteID != nil {
		site, err := s.sites.GetByID(ctx, *siteID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("site", map[string]any{"site_id": *siteID})
			}
			return nil, err
		}
		if !site.IsActive {
			return nil, apperrors.NewConflict("site inactive", map[string]any{"site_id": *siteID})
		}
	}

	oldSite := card.SiteID
	card.SiteID = siteID
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}
	entry := &domain.JobCardHistory{
		JobCardID:   card.ID,
		ChangedByID: &actor.ID,
		ChangeType:  domain.ChangeTypeSite,
		OldValue:    map[string]any{"site_id": oldSite},
		NewValue:    map[string]any{"site_id": siteID},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}
	return card, nil
}

// TransferDepartment reassigns the card to another department. Admin only;
// the assignment does not carry across departments.
func (s *JobCardService) TransferDepartment(ctx context.Context, actor *domain.Employee, idOrReference, departmentID string) (*domain.JobCard, error) {
	if actor == nil || actor.Role != domain.EmployeeRoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, err
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": departmentID})
	}
	if card.DepartmentID == departmentID {
		return card, nil
	}

	oldDept := card.DepartmentID
	oldAssignee := card.AssigneeID
	card.DepartmentID = departmentID
	card.AssigneeID = nil
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, err
	}
	entry := &domain.JobCardHistory{
		JobCardID:   card.ID,
		ChangedByID: &actor.ID,
		ChangeType:  domain.ChangeTypeDepartment,
		OldValue:    map[string]any{"department_id": oldDept, "assignee_id": oldAssignee},
		NewValue:    map[string]any{"department_id": departmentID, "assignee_id": nil},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return nil, err
	}
	return card, nil
}

// AddNote appends a note to a job card. System-event notes are reserved for
// background processes.
func (s *JobCardService) AddNote(ctx context.Context, actor *domain.Employee, idOrReference string, noteType domain.JobCardNoteType, body string, attachments []NoteAttachmentInput) (*domain.JobCardNote, error) {
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if noteType != domain.NoteTypeWorkLog && noteType != domain.NoteTypeStatusComment {
		return nil, apperrors.NewValidationError("invalid note type", map[string]any{"note_type": noteType})
	}

	note := &domain.JobCardNote{
		JobCardID: card.ID,
		AuthorID:  &actor.ID,
		NoteType:  noteType,
		Body:      strings.TrimSpace(body),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	for _, att := range attachments {
		record := &domain.AttachmentReference{
			JobCardNoteID: note.ID,
			StorageKey:    att.StorageKey,
			FileName:      att.FileName,
			MimeType:      att.MimeType,
			SizeBytes:     att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, err
		}
		note.Attachments = append(note.Attachments, *record)
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventJobCardNoteAdded,
		JobCardID: card.ID,
		ActorID:   &actor.ID,
		Payload: events.JobCardNoteAddedPayload{
			NoteID:      note.ID,
			NoteType:    note.NoteType,
			AuthorID:    actor.ID,
			BodyPreview: stringPreview(note.Body, 120),
		},
	})
	return note, nil
}

// ListNotes returns the notes on a job card with attachment metadata.
func (s *JobCardService) ListNotes(ctx context.Context, actor *domain.Employee, idOrReference string) ([]domain.JobCardNote, error) {
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.notesWithAttachments(ctx, card.ID)
}

// ListHistory returns the audit trail for a job card.
func (s *JobCardService) ListHistory(ctx context.Context, actor *domain.Employee, idOrReference string) ([]domain.JobCardHistory, error) {
	if s.history == nil {
		return []domain.JobCardHistory{}, nil
	}
	card, err := s.resolveJobCard(ctx, idOrReference)
	if err != nil {
		return nil, err
	}
	if !canAccessJobCard(actor, card) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return s.history.ListByJobCard(ctx, card.ID)
}

func (s *JobCardService) applyRoleScope(filter *repository.JobCardFilter, actor *domain.Employee) {
	switch actor.Role {
	case domain.EmployeeRoleAdmin:
	case domain.EmployeeRoleSupervisor:
		filter.DepartmentID = actor.DepartmentID
	default:
		id := actor.ID
		filter.AssigneeID = &id
	}
}

func canAccessJobCard(actor *domain.Employee, card *domain.JobCard) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.EmployeeRoleAdmin:
		return true
	case domain.EmployeeRoleSupervisor:
		return actor.DepartmentID != nil && *actor.DepartmentID == card.DepartmentID
	default:
		return card.AssigneeID != nil && *card.AssigneeID == actor.ID
	}
}

func (s *JobCardService) resolveJobCard(ctx context.Context, idOrReference string) (*domain.JobCard, error) {
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
		return nil, err
	}
	return card, nil
}

func (s *JobCardService) notesWithAttachments(ctx context.Context, jobCardID string) ([]domain.JobCardNote, error) {
	notes, err := s.notes.ListByJobCard(ctx, jobCardID)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return notes, nil
	}
	noteIDs := make([]string, len(notes))
	for i := range notes {
		noteIDs[i] = notes[i].ID
	}
	attachments, err := s.attachments.ListByNotes(ctx, noteIDs)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i].Attachments = attachments[notes[i].ID]
	}
	return notes, nil
}

func generateJobCardReference() string {
	return "JC-" + ulid.Make().String()
}

func isJobCardReference(value string) bool {
	return strings.HasPrefix(value, "JC-")
}

func (s *JobCardService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

var allowedTransitions = map[domain.JobCardStatus][]domain.JobCardStatus{
	domain.JobCardStatusOpen:       {domain.JobCardStatusInProgress, domain.JobCardStatusCancelled},
	domain.JobCardStatusInProgress: {domain.JobCardStatusOnHold, domain.JobCardStatusCompleted, domain.JobCardStatusCancelled},
	domain.JobCardStatusOnHold:     {domain.JobCardStatusInProgress, domain.JobCardStatusCancelled},
	domain.JobCardStatusCompleted:  {domain.JobCardStatusInProgress},
	domain.JobCardStatusCancelled:  {},
}

func isValidTransition(current, next domain.JobCardStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *JobCardService) recordStatusChange(ctx context.Context, actorID *string, jobCardID string, oldStatus, newStatus domain.JobCardStatus, comment string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.JobCardHistory{
		JobCardID:   jobCardID,
		ChangedByID: actorID,
		ChangeType:  domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *JobCardService) recordPriorityChange(ctx context.Context, actorID *string, jobCardID string, oldPriority, newPriority domain.JobCardPriority) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.JobCardHistory{
		JobCardID:   jobCardID,
		ChangedByID: actorID,
		ChangeType:  domain.ChangeTypePriority,
		OldValue: map[string]any{
			"priority": oldPriority,
		},
		NewValue: map[string]any{
			"priority": newPriority,
		},
	}
	return s.history.Create(ctx, entry)
}
