package handlers_test

import (
	"net/http"
	"strings"
	"testing"
)

type jobCardEnvelope struct {
	Data struct {
		ID         string  `json:"id"`
		Reference  string  `json:"reference"`
		Status     string  `json:"status"`
		Priority   string  `json:"priority"`
		AssigneeID *string `json:"assignee_id"`
		Title      string  `json:"title"`
	} `json:"data"`
}

func TestJobCardLifecycleOverHTTP(t *testing.T) {
	env := buildTestApp(t)
	supervisor := env.accessToken(t, "supervisor@example.com")
	tech := env.accessToken(t, "tech@example.com")

	resp := env.request(t, http.MethodPost, "/job-cards", supervisor, map[string]any{
		"department_id": "dept-1",
		"title":         "Pump overhaul",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created jobCardEnvelope
	decodeBody(t, resp, &created)
	if !strings.HasPrefix(created.Data.Reference, "JC-") {
		t.Errorf("reference = %q, want JC- prefix", created.Data.Reference)
	}
	if created.Data.Status != "OPEN" {
		t.Errorf("status = %q, want OPEN", created.Data.Status)
	}
	if created.Data.Priority != "MEDIUM" {
		t.Errorf("priority = %q, want default MEDIUM", created.Data.Priority)
	}

	// The human-facing reference resolves the same card as the id.
	resp = env.request(t, http.MethodGet, "/job-cards/"+created.Data.Reference, supervisor, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var fetched jobCardEnvelope
	decodeBody(t, resp, &fetched)
	if fetched.Data.ID != created.Data.ID {
		t.Errorf("fetched id = %q, want %q", fetched.Data.ID, created.Data.ID)
	}

	resp = env.request(t, http.MethodPost, "/job-cards/"+created.Data.ID+"/self-assign", tech, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("self-assign status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var assigned jobCardEnvelope
	decodeBody(t, resp, &assigned)
	if assigned.Data.AssigneeID == nil || *assigned.Data.AssigneeID != "emp-tech" {
		t.Fatalf("assignee = %v, want emp-tech", assigned.Data.AssigneeID)
	}

	resp = env.request(t, http.MethodPatch, "/job-cards/"+created.Data.ID+"/status", tech, map[string]string{
		"status": "IN_PROGRESS",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var moved jobCardEnvelope
	decodeBody(t, resp, &moved)
	if moved.Data.Status != "IN_PROGRESS" {
		t.Errorf("status = %q, want IN_PROGRESS", moved.Data.Status)
	}

	// IN_PROGRESS cannot go back to OPEN.
	resp = env.request(t, http.MethodPatch, "/job-cards/"+created.Data.ID+"/status", tech, map[string]string{
		"status": "OPEN",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("invalid transition status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if code := errorCode(t, resp); code != "CONFLICT" {
		t.Errorf("error code = %q, want CONFLICT", code)
	}
}

func TestJobCardCreateGates(t *testing.T) {
	env := buildTestApp(t)

	resp := env.request(t, http.MethodPost, "/job-cards", "", map[string]any{
		"department_id": "dept-1",
		"title":         "No credentials",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous create = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp.Body.Close()

	tech := env.accessToken(t, "tech@example.com")
	resp = env.request(t, http.MethodPost, "/job-cards", tech, map[string]any{
		"department_id": "dept-1",
		"title":         "Technician attempt",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician create = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if code := errorCode(t, resp); code != "FORBIDDEN" {
		t.Errorf("error code = %q, want FORBIDDEN", code)
	}

	supervisor := env.accessToken(t, "supervisor@example.com")
	resp = env.request(t, http.MethodPost, "/job-cards", supervisor, map[string]any{
		"department_id": "dept-1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing title create = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if code := errorCode(t, resp); code != "VALIDATION_FAILED" {
		t.Errorf("error code = %q, want VALIDATION_FAILED", code)
	}
}

func TestJobCardListOverHTTP(t *testing.T) {
	env := buildTestApp(t)
	supervisor := env.accessToken(t, "supervisor@example.com")

	resp := env.request(t, http.MethodPost, "/job-cards", supervisor, map[string]any{
		"department_id": "dept-1",
		"title":         "Inspect compressor",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/job-cards", supervisor, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var list struct {
		Data []struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	decodeBody(t, resp, &list)
	if len(list.Data) != 1 {
		t.Fatalf("list length = %d, want 1", len(list.Data))
	}
}
