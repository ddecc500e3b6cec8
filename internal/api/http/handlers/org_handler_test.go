package handlers_test

import (
	"net/http"
	"testing"
)

func TestOrgRoutesRequireAuthentication(t *testing.T) {
	env := buildTestApp(t)

	resp := env.request(t, http.MethodGet, "/org/departments", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestDepartmentManagementRequiresAdmin(t *testing.T) {
	env := buildTestApp(t)
	tech := env.accessToken(t, "tech@example.com")

	resp := env.request(t, http.MethodPost, "/org/departments", tech, map[string]any{
		"name": "Electrical",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "FORBIDDEN" {
		t.Fatalf("code = %q, want FORBIDDEN", code)
	}
}

func TestDepartmentLifecycleOverHTTP(t *testing.T) {
	env := buildTestApp(t)
	admin := env.accessToken(t, "admin@example.com")

	resp := env.request(t, http.MethodPost, "/org/departments", admin, map[string]any{
		"name":        "Electrical",
		"description": "HV and LV work",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		Data struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			IsActive bool   `json:"is_active"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	if created.Data.ID == "" || created.Data.Name != "Electrical" || !created.Data.IsActive {
		t.Fatalf("created = %+v", created.Data)
	}

	resp = env.request(t, http.MethodGet, "/org/departments", admin, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var listed struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	decodeBody(t, resp, &listed)
	if len(listed.Data) != 2 {
		t.Fatalf("departments listed = %d, want seeded + created", len(listed.Data))
	}
}

func TestCreateEmployeeRejectsBadPayload(t *testing.T) {
	env := buildTestApp(t)
	admin := env.accessToken(t, "admin@example.com")

	resp := env.request(t, http.MethodPost, "/org/employees", admin, map[string]any{
		"name":     "No Email",
		"email":    "not-an-email",
		"password": "short",
		"role":     "TECHNICIAN",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", code)
	}
}
