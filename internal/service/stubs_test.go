package service

// In-memory repository stubs shared by the service tests. Each embeds the
// repository interface so only the methods a test path touches need bodies;
// calling anything else panics loudly instead of passing silently.

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/events"
	"github.com/spec-kit/jobcard-service/internal/repository"
	apperrors "github.com/spec-kit/jobcard-service/pkg/util/errorutil"
)

func assertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("error is nil, want DomainError with code %q", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("error = %v (%T), want *DomainError", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("error code = %q (message %q), want %q", domainErr.Code, domainErr.Message, code)
	}
}

type stubEmployeeRepo struct {
	repository.EmployeeRepository
	employees  map[string]domain.Employee // keyed by id
	lastFilter repository.EmployeeFilter
	listResult []domain.Employee
}

func newStubEmployeeRepo(employees ...domain.Employee) *stubEmployeeRepo {
	repo := &stubEmployeeRepo{employees: make(map[string]domain.Employee)}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (s *stubEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	for _, e := range s.employees {
		if e.Email == email {
			found := e
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	e, ok := s.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := e
	return &found, nil
}

func (s *stubEmployeeRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, e := range s.employees {
		if e.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubEmployeeRepo) Update(_ context.Context, employee *domain.Employee) error {
	if _, ok := s.employees[employee.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.employees[employee.ID] = *employee
	return nil
}

func (s *stubEmployeeRepo) Create(_ context.Context, employee *domain.Employee) error {
	if employee.ID == "" {
		employee.ID = "emp-" + employee.Email
	}
	employee.CreatedAt = time.Now()
	employee.UpdatedAt = employee.CreatedAt
	s.employees[employee.ID] = *employee
	return nil
}

func (s *stubEmployeeRepo) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	s.lastFilter = filter
	return s.listResult, nil
}

type stubResetRepo struct {
	repository.PasswordResetRepository
	tokens map[string]*repository.PasswordResetToken
	used   []string
}

func newStubResetRepo() *stubResetRepo {
	return &stubResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (s *stubResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	token.ID = "reset-" + token.Token[:8]
	token.CreatedAt = time.Now()
	stored := *token
	s.tokens[token.Token] = &stored
	return nil
}

func (s *stubResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := s.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := *token
	return &found, nil
}

func (s *stubResetRepo) Consume(_ context.Context, id string) error {
	for _, token := range s.tokens {
		if token.ID == id {
			if token.UsedAt != nil {
				return pgx.ErrNoRows
			}
			now := time.Now()
			token.UsedAt = &now
			s.used = append(s.used, id)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memJobCardRepo struct {
	repository.JobCardRepository
	cards      map[string]*domain.JobCard
	lastFilter repository.JobCardFilter
	listResult []domain.JobCard
	openCounts map[string]int
	seq        int
}

func newMemJobCardRepo(cards ...*domain.JobCard) *memJobCardRepo {
	repo := &memJobCardRepo{cards: make(map[string]*domain.JobCard)}
	for _, card := range cards {
		copied := *card
		repo.cards[card.ID] = &copied
	}
	return repo
}

func (m *memJobCardRepo) Create(_ context.Context, card *domain.JobCard) error {
	m.seq++
	card.ID = fmt.Sprintf("card-%d", m.seq)
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	copied := *card
	m.cards[card.ID] = &copied
	return nil
}

func (m *memJobCardRepo) Update(_ context.Context, card *domain.JobCard) error {
	if _, ok := m.cards[card.ID]; !ok {
		return pgx.ErrNoRows
	}
	card.UpdatedAt = time.Now()
	copied := *card
	m.cards[card.ID] = &copied
	return nil
}

func (m *memJobCardRepo) GetByID(_ context.Context, id string) (*domain.JobCard, error) {
	card, ok := m.cards[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *card
	return &copied, nil
}

func (m *memJobCardRepo) GetByReference(_ context.Context, reference string) (*domain.JobCard, error) {
	for _, card := range m.cards {
		if card.Reference == reference {
			copied := *card
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memJobCardRepo) ListWithFilter(_ context.Context, filter repository.JobCardFilter) ([]domain.JobCard, error) {
	m.lastFilter = filter
	return m.listResult, nil
}

func (m *memJobCardRepo) CountOpenByAssignee(_ context.Context, _ string) (map[string]int, error) {
	return m.openCounts, nil
}

func (m *memJobCardRepo) stored(t *testing.T, id string) domain.JobCard {
	t.Helper()
	card, ok := m.cards[id]
	if !ok {
		t.Fatalf("job card %q not in repository", id)
	}
	return *card
}

type memNoteRepo struct {
	repository.JobCardNoteRepository
	notes []domain.JobCardNote
}

func (m *memNoteRepo) Create(_ context.Context, note *domain.JobCardNote) error {
	note.ID = fmt.Sprintf("note-%d", len(m.notes)+1)
	note.CreatedAt = time.Now()
	m.notes = append(m.notes, *note)
	return nil
}

func (m *memNoteRepo) ListByJobCard(_ context.Context, jobCardID string) ([]domain.JobCardNote, error) {
	var out []domain.JobCardNote
	for _, note := range m.notes {
		if note.JobCardID == jobCardID {
			out = append(out, note)
		}
	}
	return out, nil
}

type memAttachmentRepo struct {
	repository.AttachmentRepository
	attachments []domain.AttachmentReference
}

func (m *memAttachmentRepo) Create(_ context.Context, attachment *domain.AttachmentReference) error {
	attachment.ID = fmt.Sprintf("att-%d", len(m.attachments)+1)
	attachment.CreatedAt = time.Now()
	m.attachments = append(m.attachments, *attachment)
	return nil
}

func (m *memAttachmentRepo) ListByNotes(_ context.Context, noteIDs []string) (map[string][]domain.AttachmentReference, error) {
	wanted := make(map[string]bool, len(noteIDs))
	for _, id := range noteIDs {
		wanted[id] = true
	}
	out := make(map[string][]domain.AttachmentReference)
	for _, attachment := range m.attachments {
		if wanted[attachment.JobCardNoteID] {
			out[attachment.JobCardNoteID] = append(out[attachment.JobCardNoteID], attachment)
		}
	}
	return out, nil
}

type memHistoryRepo struct {
	repository.JobCardHistoryRepository
	entries []domain.JobCardHistory
}

func (m *memHistoryRepo) Create(_ context.Context, entry *domain.JobCardHistory) error {
	entry.ID = fmt.Sprintf("hist-%d", len(m.entries)+1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memHistoryRepo) ListByJobCard(_ context.Context, jobCardID string) ([]domain.JobCardHistory, error) {
	var out []domain.JobCardHistory
	for _, entry := range m.entries {
		if entry.JobCardID == jobCardID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *memHistoryRepo) lastEntry(t *testing.T) domain.JobCardHistory {
	t.Helper()
	if len(m.entries) == 0 {
		t.Fatal("no history entries recorded")
	}
	return m.entries[len(m.entries)-1]
}

type stubDepartmentRepo struct {
	repository.DepartmentRepository
	departments map[string]domain.Department
	seq         int
}

func newStubDepartmentRepo(departments ...domain.Department) *stubDepartmentRepo {
	repo := &stubDepartmentRepo{departments: make(map[string]domain.Department)}
	for _, dept := range departments {
		repo.departments[dept.ID] = dept
	}
	return repo
}

func (s *stubDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	s.seq++
	dept.ID = fmt.Sprintf("dept-new-%d", s.seq)
	dept.CreatedAt = time.Now()
	dept.UpdatedAt = dept.CreatedAt
	s.departments[dept.ID] = *dept
	return nil
}

func (s *stubDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	if _, ok := s.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.departments[dept.ID] = *dept
	return nil
}

func (s *stubDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := dept
	return &found, nil
}

func (s *stubDepartmentRepo) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	var out []domain.Department
	for _, dept := range s.departments {
		if !includeInactive && !dept.IsActive {
			continue
		}
		out = append(out, dept)
	}
	return out, nil
}

type stubSiteRepo struct {
	repository.SiteRepository
	sites map[string]domain.Site
	seq   int
}

func newStubSiteRepo(sites ...domain.Site) *stubSiteRepo {
	repo := &stubSiteRepo{sites: make(map[string]domain.Site)}
	for _, site := range sites {
		repo.sites[site.ID] = site
	}
	return repo
}

func (s *stubSiteRepo) Create(_ context.Context, site *domain.Site) error {
	s.seq++
	site.ID = fmt.Sprintf("site-new-%d", s.seq)
	site.CreatedAt = time.Now()
	site.UpdatedAt = site.CreatedAt
	s.sites[site.ID] = *site
	return nil
}

func (s *stubSiteRepo) Update(_ context.Context, site *domain.Site) error {
	if _, ok := s.sites[site.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.sites[site.ID] = *site
	return nil
}

func (s *stubSiteRepo) GetByID(_ context.Context, id string) (*domain.Site, error) {
	site, ok := s.sites[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := site
	return &found, nil
}

func (s *stubSiteRepo) List(_ context.Context, includeInactive bool) ([]domain.Site, error) {
	var out []domain.Site
	for _, site := range s.sites {
		if !includeInactive && !site.IsActive {
			continue
		}
		out = append(out, site)
	}
	return out, nil
}

// captureDispatcher records published events for assertions. Dispatch in the
// services is synchronous, so no locking is needed.
type captureDispatcher struct {
	published []events.Event
}

func (c *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	c.published = append(c.published, event)
	return nil
}

func (c *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (c *captureDispatcher) lastEvent(t *testing.T) events.Event {
	t.Helper()
	if len(c.published) == 0 {
		t.Fatal("no events published")
	}
	return c.published[len(c.published)-1]
}

func adminActor() *domain.Employee {
	return &domain.Employee{
		ID:     "admin-1",
		Name:   "Ada Admin",
		Email:  "admin@example.com",
		Role:   domain.EmployeeRoleAdmin,
		Active: true,
	}
}

func supervisorActor(departmentID string) *domain.Employee {
	return &domain.Employee{
		ID:           "sup-" + departmentID,
		Name:         "Sam Supervisor",
		Email:        "supervisor@example.com",
		Role:         domain.EmployeeRoleSupervisor,
		DepartmentID: &departmentID,
		Active:       true,
	}
}

func technicianActor(id, departmentID string) *domain.Employee {
	return &domain.Employee{
		ID:           id,
		Name:         "Tess Technician",
		Email:        id + "@example.com",
		Role:         domain.EmployeeRoleTechnician,
		DepartmentID: &departmentID,
		Active:       true,
	}
}

func openCard(id, departmentID string) *domain.JobCard {
	return &domain.JobCard{
		ID:           id,
		Reference:    "JC-" + id,
		CreatedByID:  "sup-" + departmentID,
		DepartmentID: departmentID,
		Title:        "Pump inspection",
		Details:      "Quarterly inspection of feed pump",
		Status:       domain.JobCardStatusOpen,
		Priority:     domain.JobCardPriorityMedium,
	}
}
