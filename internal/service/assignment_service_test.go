package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/jobcard-service/internal/domain"
	"github.com/spec-kit/jobcard-service/internal/events"
)

type assignmentFixture struct {
	cards      *memJobCardRepo
	employees  *stubEmployeeRepo
	history    *memHistoryRepo
	dispatcher *captureDispatcher
	svc        *AssignmentService
}

func newAssignmentFixture(cards ...*domain.JobCard) *assignmentFixture {
	f := &assignmentFixture{
		cards:      newMemJobCardRepo(cards...),
		employees:  newStubEmployeeRepo(),
		history:    &memHistoryRepo{},
		dispatcher: &captureDispatcher{},
	}
	f.svc = NewAssignmentService(AssignmentDependencies{
		JobCardRepo:  f.cards,
		EmployeeRepo: f.employees,
		HistoryRepo:  f.history,
		Dispatcher:   f.dispatcher,
	})
	return f
}

func TestSelfAssign(t *testing.T) {
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	ctx := context.Background()
	tech := technicianActor("tech-1", "dept-1")

	card, err := f.svc.SelfAssign(ctx, tech, "jc1")
	if err != nil {
		t.Fatalf("SelfAssign: %v", err)
	}
	if card.AssigneeID == nil || *card.AssigneeID != "tech-1" {
		t.Fatalf("assignee = %v", card.AssigneeID)
	}

	entry := f.history.lastEntry(t)
	if entry.ChangeType != domain.ChangeTypeAssignee {
		t.Errorf("history change type = %q", entry.ChangeType)
	}

	ev := f.dispatcher.lastEvent(t)
	if ev.Type != events.EventJobCardAssigned {
		t.Errorf("event type = %q", ev.Type)
	}
	payload, ok := ev.Payload.(events.JobCardAssignedPayload)
	if !ok {
		t.Fatalf("payload type = %T", ev.Payload)
	}
	if payload.AssigneeID == nil || *payload.AssigneeID != "tech-1" {
		t.Errorf("payload assignee = %v", payload.AssigneeID)
	}
	if payload.PreviousAssigneeID != nil {
		t.Errorf("payload previous assignee = %v, want nil", payload.PreviousAssigneeID)
	}
}

func TestSelfAssignIdempotentForCurrentAssignee(t *testing.T) {
	card := openCard("jc1", "dept-1")
	assignee := "tech-1"
	card.AssigneeID = &assignee
	f := newAssignmentFixture(card)

	got, err := f.svc.SelfAssign(context.Background(), technicianActor("tech-1", "dept-1"), "jc1")
	if err != nil {
		t.Fatalf("repeat SelfAssign: %v", err)
	}
	if got.AssigneeID == nil || *got.AssigneeID != "tech-1" {
		t.Errorf("assignee = %v", got.AssigneeID)
	}
	if len(f.history.entries) != 0 {
		t.Errorf("idempotent self-assign wrote %d history entries", len(f.history.entries))
	}
	if len(f.dispatcher.published) != 0 {
		t.Errorf("idempotent self-assign published %d events", len(f.dispatcher.published))
	}
}

func TestSelfAssignNeverStealsCards(t *testing.T) {
	card := openCard("jc1", "dept-1")
	assignee := "tech-1"
	card.AssigneeID = &assignee
	f := newAssignmentFixture(card)

	_, err := f.svc.SelfAssign(context.Background(), technicianActor("tech-2", "dept-1"), "jc1")
	assertDomainCode(t, err, "CONFLICT")
}

func TestSelfAssignDepartmentBoundary(t *testing.T) {
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	ctx := context.Background()

	_, err := f.svc.SelfAssign(ctx, technicianActor("tech-1", "dept-2"), "jc1")
	assertDomainCode(t, err, "FORBIDDEN")

	// admins may pick up cards in any department
	if _, err := f.svc.SelfAssign(ctx, adminActor(), "jc1"); err != nil {
		t.Fatalf("admin self-assign across departments: %v", err)
	}
}

func TestSelfAssignRequiresWorkableStatus(t *testing.T) {
	card := openCard("jc1", "dept-1")
	card.Status = domain.JobCardStatusCompleted
	f := newAssignmentFixture(card)

	_, err := f.svc.SelfAssign(context.Background(), technicianActor("tech-1", "dept-1"), "jc1")
	assertDomainCode(t, err, "CONFLICT")
}

func TestAssignRequiresPrivilege(t *testing.T) {
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	ctx := context.Background()

	_, err := f.svc.Assign(ctx, nil, "jc1", "tech-1")
	assertDomainCode(t, err, "UNAUTHORIZED")

	_, err = f.svc.Assign(ctx, technicianActor("tech-2", "dept-1"), "jc1", "tech-1")
	assertDomainCode(t, err, "FORBIDDEN")
}

func TestAssignValidatesAssignee(t *testing.T) {
	dept1 := "dept-1"
	dept2 := "dept-2"
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	f.employees.employees["tech-1"] = domain.Employee{ID: "tech-1", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept1, Active: true}
	f.employees.employees["tech-gone"] = domain.Employee{ID: "tech-gone", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept1, Active: false}
	f.employees.employees["tech-elsewhere"] = domain.Employee{ID: "tech-elsewhere", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept2, Active: true}
	ctx := context.Background()
	sup := supervisorActor("dept-1")

	_, err := f.svc.Assign(ctx, sup, "jc1", "tech-missing")
	assertDomainCode(t, err, "NOT_FOUND")

	_, err = f.svc.Assign(ctx, sup, "jc1", "tech-gone")
	assertDomainCode(t, err, "CONFLICT")

	_, err = f.svc.Assign(ctx, sup, "jc1", "tech-elsewhere")
	assertDomainCode(t, err, "FORBIDDEN")

	card, err := f.svc.Assign(ctx, sup, "jc1", "tech-1")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if card.AssigneeID == nil || *card.AssigneeID != "tech-1" {
		t.Errorf("assignee = %v", card.AssigneeID)
	}

	// admins may place cross-department assignments
	_, err = f.svc.Assign(ctx, adminActor(), "jc1", "tech-elsewhere")
	if err != nil {
		t.Fatalf("admin cross-department assign: %v", err)
	}
}

func TestAssignRecordsPreviousAssignee(t *testing.T) {
	dept1 := "dept-1"
	card := openCard("jc1", "dept-1")
	previous := "tech-old"
	card.AssigneeID = &previous
	f := newAssignmentFixture(card)
	f.employees.employees["tech-new"] = domain.Employee{ID: "tech-new", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept1, Active: true}

	if _, err := f.svc.Assign(context.Background(), supervisorActor("dept-1"), "jc1", "tech-new"); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	payload := f.dispatcher.lastEvent(t).Payload.(events.JobCardAssignedPayload)
	if payload.PreviousAssigneeID == nil || *payload.PreviousAssigneeID != "tech-old" {
		t.Errorf("previous assignee = %v, want tech-old", payload.PreviousAssigneeID)
	}
}

func TestAutoAssignPicksLeastLoaded(t *testing.T) {
	dept := "dept-1"
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	f.employees.listResult = []domain.Employee{
		{ID: "tech-busy", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept, Active: true, CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "tech-idle", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept, Active: true, CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	f.cards.openCounts = map[string]int{"tech-busy": 4, "tech-idle": 1}

	card, err := f.svc.AutoAssign(context.Background(), supervisorActor("dept-1"), "jc1")
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if card.AssigneeID == nil || *card.AssigneeID != "tech-idle" {
		t.Errorf("assignee = %v, want tech-idle", card.AssigneeID)
	}

	// candidate pool was restricted to active technicians of the department
	filter := f.employees.lastFilter
	if filter.Role == nil || *filter.Role != domain.EmployeeRoleTechnician {
		t.Errorf("filter role = %v", filter.Role)
	}
	if filter.DepartmentID == nil || *filter.DepartmentID != "dept-1" {
		t.Errorf("filter department = %v", filter.DepartmentID)
	}
	if filter.Active == nil || !*filter.Active {
		t.Errorf("filter active = %v", filter.Active)
	}
}

func TestAutoAssignTieBreaksByTenure(t *testing.T) {
	dept := "dept-1"
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	f.employees.listResult = []domain.Employee{
		{ID: "tech-junior", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept, Active: true, CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "tech-senior", Role: domain.EmployeeRoleTechnician, DepartmentID: &dept, Active: true, CreatedAt: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	f.cards.openCounts = map[string]int{"tech-junior": 2, "tech-senior": 2}

	card, err := f.svc.AutoAssign(context.Background(), supervisorActor("dept-1"), "jc1")
	if err != nil {
		t.Fatalf("AutoAssign: %v", err)
	}
	if card.AssigneeID == nil || *card.AssigneeID != "tech-senior" {
		t.Errorf("assignee = %v, want tech-senior (earliest CreatedAt)", card.AssigneeID)
	}
}

func TestAutoAssignNoCandidates(t *testing.T) {
	f := newAssignmentFixture(openCard("jc1", "dept-1"))
	f.employees.listResult = nil

	_, err := f.svc.AutoAssign(context.Background(), supervisorActor("dept-1"), "jc1")
	assertDomainCode(t, err, "CONFLICT")
}

func TestUnassign(t *testing.T) {
	card := openCard("jc1", "dept-1")
	assignee := "tech-1"
	card.AssigneeID = &assignee
	f := newAssignmentFixture(card)
	ctx := context.Background()
	sup := supervisorActor("dept-1")

	cleared, err := f.svc.Unassign(ctx, sup, "jc1")
	if err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if cleared.AssigneeID != nil {
		t.Errorf("assignee = %v, want nil", cleared.AssigneeID)
	}
	payload := f.dispatcher.lastEvent(t).Payload.(events.JobCardAssignedPayload)
	if payload.AssigneeID != nil {
		t.Errorf("payload assignee = %v, want nil", payload.AssigneeID)
	}
	if payload.PreviousAssigneeID == nil || *payload.PreviousAssigneeID != "tech-1" {
		t.Errorf("payload previous = %v, want tech-1", payload.PreviousAssigneeID)
	}

	// unassigning an unassigned card is a no-op
	publishedBefore := len(f.dispatcher.published)
	if _, err := f.svc.Unassign(ctx, sup, "jc1"); err != nil {
		t.Fatalf("repeat Unassign: %v", err)
	}
	if len(f.dispatcher.published) != publishedBefore {
		t.Error("repeat unassign published another event")
	}
}
