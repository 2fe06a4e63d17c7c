package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jobport/backend/internal/models"
)

func TestRefreshRotation(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env, "refresh-user@test.com", "password123", models.UserRoleUser)
	_, refreshToken := loginTestUser(t, env, "refresh-user@test.com", "password123")

	var rotated string

	t.Run("POST /api/auth/refresh-token rotates the pair", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": refreshToken,
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].(map[string]any)
		rotated = data["refreshToken"].(string)
		if rotated == "" || rotated == refreshToken {
			t.Fatalf("expected a fresh refresh token")
		}
		if data["accessToken"] == "" {
			t.Fatalf("expected a fresh access token")
		}
	})

	t.Run("the superseded token is dead", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": refreshToken,
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid refresh token")
	})

	t.Run("the rotated token still works", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": rotated,
		}, nil)
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": "jp_not_a_real_token",
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid refresh token")
	})
}

func TestLogout(t *testing.T) {
	env := setupTestEnv(t)
	createTestUser(t, env, "logout-user@test.com", "password123", models.UserRoleUser)
	accessToken, refreshToken := loginTestUser(t, env, "logout-user@test.com", "password123")

	t.Run("POST /api/auth/logout revokes the backing session", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/logout", map[string]any{
			"refreshToken": refreshToken,
		}, nil)
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("the refresh token stops rotating", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/refresh-token", map[string]any{
			"refreshToken": refreshToken,
		}, nil)
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "session has been revoked")
	})

	t.Run("the paired access token is refused within the staleness bound", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(accessToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "session has been revoked")
	})

	t.Run("logout is idempotent at the session level", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/logout", map[string]any{
			"refreshToken": refreshToken,
		}, nil)
		assertStatus(t, resp, http.StatusOK)
	})
}

func TestSessionListAndLogoutAll(t *testing.T) {
	env := setupTestEnv(t)
	user, _ := createTestUser(t, env, "sessions-user@test.com", "password123", models.UserRoleUser)
	other, otherToken := createTestUser(t, env, "sessions-other@test.com", "password123", models.UserRoleUser)
	_, adminToken := createTestUser(t, env, "sessions-admin@test.com", "password123", models.UserRoleAdmin)

	// Two more logins so the user has three live sessions.
	accessToken, _ := loginTestUser(t, env, "sessions-user@test.com", "password123")
	loginTestUser(t, env, "sessions-user@test.com", "password123")

	sessionsPath := fmt.Sprintf("/api/auth/sessions/%s", user.ID)
	logoutAllPath := fmt.Sprintf("/api/auth/logout-all/%s", user.ID)

	t.Run("GET /api/auth/sessions/:userId lists own sessions", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, sessionsPath, nil, authHeaders(accessToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)

		data := body["data"].([]any)
		if len(data) != 3 {
			t.Fatalf("expected 3 active sessions, got %d", len(data))
		}
		first := data[0].(map[string]any)
		if first["tokenPreview"] != "test-agent" {
			t.Fatalf("expected client fingerprint in session list, got %v", first["tokenPreview"])
		}
	})

	t.Run("another user cannot list them", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, sessionsPath, nil, authHeaders(otherToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "admin access required")
	})

	t.Run("an admin can list them", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, sessionsPath, nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)
	})

	t.Run("another user cannot force logout", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodPost, logoutAllPath, nil, authHeaders(otherToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusForbidden)
		assertEnvelopeError(t, body, "admin access required")
	})

	t.Run("admin force logout revokes every session", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodPost, logoutAllPath, nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		resp = performRequest(t, env.app, http.MethodGet, sessionsPath, nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if data := body["data"].([]any); len(data) != 0 {
			t.Fatalf("expected no active sessions after force logout, got %d", len(data))
		}

		// Revoked sessions hit the denylist immediately.
		resp = performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, authHeaders(accessToken))
		body = decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "session has been revoked")
	})

	t.Run("self logout-all works for the other user", func(t *testing.T) {
		path := fmt.Sprintf("/api/auth/logout-all/%s", other.ID)
		resp := performRequest(t, env.app, http.MethodPost, path, nil, authHeaders(otherToken))
		assertStatus(t, resp, http.StatusOK)
	})
}
