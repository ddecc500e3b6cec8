package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/spec-kit/jobcard-service/internal/api/http"
	"github.com/spec-kit/jobcard-service/internal/api/http/handlers"
	"github.com/spec-kit/jobcard-service/internal/auth"
	"github.com/spec-kit/jobcard-service/internal/config"
	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/observability"
	"github.com/spec-kit/jobcard-service/internal/repository"
	"github.com/spec-kit/jobcard-service/internal/service"
	"github.com/spec-kit/jobcard-service/internal/validation"
)

// End-to-end app wiring against in-memory repositories. The embedded
// interfaces are nil, so any repository call a test path was not expected to
// make panics instead of passing silently.

const wirePassword = "correct-password"

type wireEmployeeRepo struct {
	repository.EmployeeRepository
	byEmail map[string]*domain.Employee
}

func (r *wireEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	if employee, ok := r.byEmail[email]; ok {
		return employee, nil
	}
	return nil, pgx.ErrNoRows
}

type wireJobCardRepo struct {
	repository.JobCardRepository
	cards map[string]*domain.JobCard
	seq   int
}

func (r *wireJobCardRepo) Create(_ context.Context, card *domain.JobCard) error {
	r.seq++
	card.ID = fmt.Sprintf("card-%d", r.seq)
	now := time.Now()
	card.CreatedAt = now
	card.UpdatedAt = now
	stored := *card
	r.cards[card.ID] = &stored
	return nil
}

func (r *wireJobCardRepo) Update(_ context.Context, card *domain.JobCard) error {
	if _, ok := r.cards[card.ID]; !ok {
		return pgx.ErrNoRows
	}
	card.UpdatedAt = time.Now()
	stored := *card
	r.cards[card.ID] = &stored
	return nil
}

func (r *wireJobCardRepo) GetByID(_ context.Context, id string) (*domain.JobCard, error) {
	card, ok := r.cards[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	found := *card
	return &found, nil
}

func (r *wireJobCardRepo) GetByReference(_ context.Context, reference string) (*domain.JobCard, error) {
	for _, card := range r.cards {
		if card.Reference == reference {
			found := *card
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *wireJobCardRepo) ListWithFilter(_ context.Context, _ repository.JobCardFilter) ([]domain.JobCard, error) {
	out := make([]domain.JobCard, 0, len(r.cards))
	for _, card := range r.cards {
		out = append(out, *card)
	}
	return out, nil
}

type wireNoteRepo struct {
	repository.JobCardNoteRepository
}

func (r *wireNoteRepo) ListByJobCard(_ context.Context, _ string) ([]domain.JobCardNote, error) {
	return nil, nil
}

type wireHistoryRepo struct {
	repository.JobCardHistoryRepository
}

func (r *wireHistoryRepo) Create(_ context.Context, _ *domain.JobCardHistory) error {
	return nil
}

type wireDepartmentRepo struct {
	repository.DepartmentRepository
	byID map[string]*domain.Department
}

func (r *wireDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	if dept, ok := r.byID[id]; ok {
		return dept, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *wireDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	dept.ID = fmt.Sprintf("dept-%d", len(r.byID)+1)
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	stored := *dept
	r.byID[dept.ID] = &stored
	return nil
}

func (r *wireDepartmentRepo) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(r.byID))
	for _, dept := range r.byID {
		if !includeInactive && !dept.IsActive {
			continue
		}
		out = append(out, *dept)
	}
	return out, nil
}

type testEnv struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func buildTestApp(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(wirePassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	deptID := "dept-1"
	employees := &wireEmployeeRepo{byEmail: map[string]*domain.Employee{
		"supervisor@example.com": {
			ID:           "emp-sup",
			Name:         "Sam Supervisor",
			Email:        "supervisor@example.com",
			PasswordHash: string(hash),
			Role:         domain.EmployeeRoleSupervisor,
			DepartmentID: &deptID,
			Active:       true,
			CreatedAt:    time.Now(),
		},
		"tech@example.com": {
			ID:           "emp-tech",
			Name:         "Tina Technician",
			Email:        "tech@example.com",
			PasswordHash: string(hash),
			Role:         domain.EmployeeRoleTechnician,
			DepartmentID: &deptID,
			Active:       true,
			CreatedAt:    time.Now(),
		},
		"admin@example.com": {
			ID:           "emp-admin",
			Name:         "Ada Admin",
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			Role:         domain.EmployeeRoleAdmin,
			Active:       true,
			CreatedAt:    time.Now(),
		},
	}}
	departments := &wireDepartmentRepo{byID: map[string]*domain.Department{
		deptID: {ID: deptID, Name: "Maintenance", IsActive: true},
	}}
	cards := &wireJobCardRepo{cards: map[string]*domain.JobCard{}}

	cfg := config.Config{Auth: config.AuthConfig{
		TokenSecret:           "transport-test-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
		BcryptCost:            bcrypt.MinCost,
	}}

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		EmployeeRepo: employees,
		Logger:       zap.NewNop(),
	})
	jobCardService := service.NewJobCardService(service.JobCardDependencies{
		JobCardRepo:    cards,
		NoteRepo:       &wireNoteRepo{},
		DepartmentRepo: departments,
		EmployeeRepo:   employees,
		HistoryRepo:    &wireHistoryRepo{},
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		JobCardRepo:  cards,
		EmployeeRepo: employees,
		HistoryRepo:  &wireHistoryRepo{},
	})
	orgService := service.NewOrgService(cfg, service.OrgDependencies{
		DepartmentRepo: departments,
		EmployeeRepo:   employees,
	})

	validate := validation.New()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("jobcard-service", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Org:            handlers.NewOrgHandler(orgService, validate),
		JobCards:       handlers.NewJobCardsHandler(jobCardService, assignmentService, validate),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager(), employees),
	})

	return &testEnv{app: app, tokens: authService.TokenManager()}
}

func (env *testEnv) request(t *testing.T, method, target, bearer string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshaling payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func (env *testEnv) accessToken(t *testing.T, email string) string {
	t.Helper()
	token, _, err := env.tokens.IssueAccessToken(email)
	if err != nil {
		t.Fatalf("issuing access token: %v", err)
	}
	return token
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &body)
	return body.Error.Code
}
