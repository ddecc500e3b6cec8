package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jobcard-service/internal/api/dto"
	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/service"
	"github.com/spec-kit/jobcard-service/internal/validation"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

// JobCardsHandler exposes job card lifecycle, note and assignment endpoints.
// Route params accept either the card ID or its human-facing reference.
type JobCardsHandler struct {
	cards       *service.JobCardService
	assignments *service.AssignmentService
	validate    *validation.Validator
}

// NewJobCardsHandler constructs handler.
func NewJobCardsHandler(cardService *service.JobCardService, assignmentService *service.AssignmentService, validate *validation.Validator) *JobCardsHandler {
	return &JobCardsHandler{cards: cardService, assignments: assignmentService, validate: validate}
}

// Create handles POST /job-cards.
func (h *JobCardsHandler) Create(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateJobCardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	card, err := h.cards.Create(c.UserContext(), actor, service.JobCardCreateInput{
		DepartmentID: req.DepartmentID,
		SiteID:       req.SiteID,
		Title:        req.Title,
		Details:      req.Details,
		Priority:     req.Priority,
		Tags:         req.Tags,
		DueAt:        req.DueAt,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": jobCardSummary(card)})
}

// List handles GET /job-cards.
func (h *JobCardsHandler) List(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	cards, err := h.cards.List(c.UserContext(), actor, parseJobCardListFilter(c))
	if err != nil {
		return err
	}
	resp := make([]dto.JobCardSummary, 0, len(cards))
	for i := range cards {
		resp = append(resp, jobCardSummary(&cards[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /job-cards/:id.
func (h *JobCardsHandler) Get(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	card, notes, err := h.cards.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardDetail(card, notes)})
}

// UpdateStatus handles PATCH /job-cards/:id/status.
func (h *JobCardsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	card, err := h.cards.UpdateStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// UpdatePriority handles PATCH /job-cards/:id/priority.
func (h *JobCardsHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	card, err := h.cards.UpdatePriority(c.UserContext(), actor, c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// Reschedule handles PATCH /job-cards/:id/schedule. A null due_at clears the
// deadline.
func (h *JobCardsHandler) Reschedule(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	card, err := h.cards.Reschedule(c.UserContext(), actor, c.Params("id"), req.DueAt)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// ChangeSite handles PATCH /job-cards/:id/site.
func (h *JobCardsHandler) ChangeSite(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ChangeSiteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	card, err := h.cards.UpdateSite(c.UserContext(), actor, c.Params("id"), req.SiteID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// TransferDepartment handles PATCH /job-cards/:id/department.
func (h *JobCardsHandler) TransferDepartment(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.TransferDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	card, err := h.cards.TransferDepartment(c.UserContext(), actor, c.Params("id"), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// AddNote handles POST /job-cards/:id/notes.
func (h *JobCardsHandler) AddNote(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	attachments := make([]service.NoteAttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.NoteAttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	note, err := h.cards.AddNote(c.UserContext(), actor, c.Params("id"), req.NoteType, req.Body, attachments)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// ListNotes handles GET /job-cards/:id/notes.
func (h *JobCardsHandler) ListNotes(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	notes, err := h.cards.ListNotes(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		resp = append(resp, noteResponse(&notes[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListHistory handles GET /job-cards/:id/history.
func (h *JobCardsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	entries, err := h.cards.ListHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Assign handles POST /job-cards/:id/assign.
func (h *JobCardsHandler) Assign(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Check(&req); err != nil {
		return err
	}
	card, err := h.assignments.Assign(c.UserContext(), actor, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// SelfAssign handles POST /job-cards/:id/self-assign.
func (h *JobCardsHandler) SelfAssign(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	card, err := h.assignments.SelfAssign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// AutoAssign handles POST /job-cards/:id/auto-assign.
func (h *JobCardsHandler) AutoAssign(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	card, err := h.assignments.AutoAssign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

// Unassign handles POST /job-cards/:id/unassign.
func (h *JobCardsHandler) Unassign(c *fiber.Ctx) error {
	actor, err := requireEmployee(c)
	if err != nil {
		return err
	}
	card, err := h.assignments.Unassign(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": jobCardSummary(card)})
}

func parseJobCardListFilter(c *fiber.Ctx) service.JobCardListFilter {
	filter := service.JobCardListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.JobCardStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.JobCardPriority(strings.TrimSpace(part)))
		}
	}
	if deptID := c.Query("department_id"); deptID != "" {
		filter.DepartmentID = &deptID
	}
	if siteID := c.Query("site_id"); siteID != "" {
		filter.SiteID = &siteID
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.DueFrom = parseTime(c.Query("due_from"))
	filter.DueTo = parseTime(c.Query("due_to"))
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func jobCardSummary(card *domain.JobCard) dto.JobCardSummary {
	return dto.JobCardSummary{
		ID:           card.ID,
		Reference:    card.Reference,
		DepartmentID: card.DepartmentID,
		SiteID:       card.SiteID,
		AssigneeID:   card.AssigneeID,
		Title:        card.Title,
		Status:       card.Status,
		Priority:     card.Priority,
		Tags:         card.Tags,
		DueAt:        card.DueAt,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
	}
}

func jobCardDetail(card *domain.JobCard, notes []domain.JobCardNote) dto.JobCardDetailResponse {
	noteResponses := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		noteResponses = append(noteResponses, noteResponse(&notes[i]))
	}
	return dto.JobCardDetailResponse{
		ID:           card.ID,
		Reference:    card.Reference,
		CreatedByID:  card.CreatedByID,
		DepartmentID: card.DepartmentID,
		SiteID:       card.SiteID,
		AssigneeID:   card.AssigneeID,
		Title:        card.Title,
		Details:      card.Details,
		Status:       card.Status,
		Priority:     card.Priority,
		Tags:         card.Tags,
		DueAt:        card.DueAt,
		CompletedAt:  card.CompletedAt,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
		Notes:        noteResponses,
	}
}

func noteResponse(note *domain.JobCardNote) dto.NoteResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(note.Attachments))
	for _, att := range note.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:         att.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	return dto.NoteResponse{
		ID:          note.ID,
		NoteType:    note.NoteType,
		AuthorID:    note.AuthorID,
		Body:        note.Body,
		Attachments: attachments,
		CreatedAt:   note.CreatedAt,
	}
}

func historyResponse(entry *domain.JobCardHistory) dto.HistoryResponse {
	return dto.HistoryResponse{
		ID:          entry.ID,
		ChangeType:  entry.ChangeType,
		ChangedByID: entry.ChangedByID,
		OldValue:    entry.OldValue,
		NewValue:    entry.NewValue,
		CreatedAt:   entry.CreatedAt,
	}
}
