package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jobport/backend/internal/models"
)

func createTestJob(t *testing.T, env *testEnv, postedBy *models.User, title, city string, active bool) *models.Job {
	t.Helper()

	job := &models.Job{
		Title:      title,
		Company:    "Acme Corp",
		City:       city,
		IsActive:   active,
		PostedByID: postedBy.ID,
	}
	if err := env.db.Create(job).Error; err != nil {
		t.Fatalf("failed creating test job: %v", err)
	}
	return job
}

func TestJobEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env, "jobs-admin@test.com", "password123", models.UserRoleAdmin)
	_, memberToken := createTestUser(t, env, "jobs-member@test.com", "password123", models.UserRoleUser)

	active := createTestJob(t, env, admin, "Backend Engineer", "Bengaluru", true)
	createTestJob(t, env, admin, "Data Analyst", "Pune", true)
	createTestJob(t, env, admin, "Closed Role", "Pune", false)

	t.Run("GET /api/jobs lists only active jobs without auth", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/jobs/", nil, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := body["data"].([]any); len(data) != 2 {
			t.Fatalf("expected 2 active jobs, got %d", len(data))
		}
	})

	t.Run("GET /api/jobs filters by city", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/jobs/?city=Pune", nil, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := body["data"].([]any); len(data) != 1 {
			t.Fatalf("expected 1 Pune job, got %d", len(data))
		}
	})

	t.Run("GET /api/jobs/:id returns detail", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/jobs/%s", active.ID), nil, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		if data["title"] != "Backend Engineer" {
			t.Fatalf("expected job title, got %v", data["title"])
		}
	})

	t.Run("POST /api/admin/jobs non-admin is forbidden", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/admin/jobs", map[string]any{
			"title":   "Sneaky Posting",
			"company": "Acme Corp",
		}, authHeaders(memberToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("POST /api/admin/jobs creates a listing", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/admin/jobs", map[string]any{
			"title":     "Platform Engineer",
			"company":   "Acme Corp",
			"city":      "Mumbai",
			"salaryMin": 2000000,
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)

		data := body["data"].(map[string]any)
		if data["isActive"] != true {
			t.Fatalf("expected new job to default active")
		}
	})

	t.Run("PUT /api/admin/jobs/:id deactivates a listing", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, fmt.Sprintf("/api/admin/jobs/%s", active.ID), map[string]any{
			"isActive": false,
		}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		var reloaded models.Job
		if err := env.db.First(&reloaded, "id = ?", active.ID).Error; err != nil {
			t.Fatalf("failed reloading job: %v", err)
		}
		if reloaded.IsActive {
			t.Fatalf("expected job deactivated")
		}
	})

	t.Run("DELETE /api/admin/jobs/:id removes the listing", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, fmt.Sprintf("/api/admin/jobs/%s", active.ID), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		resp = performRequest(t, env.app, http.MethodGet, fmt.Sprintf("/api/jobs/%s", active.ID), nil, nil)
		assertStatus(t, resp, http.StatusNotFound)
	})
}

func TestApplicationEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	admin, _ := createTestUser(t, env, "apps-admin@test.com", "password123", models.UserRoleAdmin)
	_, memberToken := createTestUser(t, env, "apps-member@test.com", "password123", models.UserRoleUser)

	job := createTestJob(t, env, admin, "Backend Engineer", "Bengaluru", true)
	closed := createTestJob(t, env, admin, "Closed Role", "Pune", false)

	applyPath := fmt.Sprintf("/api/jobs/%s/apply", job.ID)

	t.Run("POST /api/jobs/:id/apply requires auth", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodPost, applyPath, nil, nil)
		assertStatus(t, resp, http.StatusUnauthorized)
	})

	t.Run("POST /api/jobs/:id/apply creates an application", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, applyPath, map[string]any{
			"notes": "Very interested.",
		}, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusCreated)

		data := body["data"].(map[string]any)
		if data["status"] != "applied" {
			t.Fatalf("expected initial status applied, got %v", data["status"])
		}
	})

	t.Run("a second application to the same job conflicts", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodPost, applyPath, nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "already applied to this job")
	})

	t.Run("an inactive job cannot be applied to", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodPost,
			fmt.Sprintf("/api/jobs/%s/apply", closed.ID), nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusNotFound)
		assertEnvelopeError(t, body, "job not found")
	})

	t.Run("GET /api/applications lists the caller's applications", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/applications", nil, authHeaders(memberToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].([]any)
		if len(data) != 1 {
			t.Fatalf("expected 1 application, got %d", len(data))
		}
		app := data[0].(map[string]any)
		nested := app["job"].(map[string]any)
		if nested["title"] != "Backend Engineer" {
			t.Fatalf("expected preloaded job in application, got %v", nested)
		}
	})
}
