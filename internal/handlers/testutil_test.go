package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jobport/backend/internal/config"
	"github.com/jobport/backend/internal/database"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	cfg      *config.Config
	sender   *stubSender
	otp      *services.OTPService
	sessions *services.SessionService
	tokens   *services.TokenService
	auth     *services.AuthService
}

// stubSender records dispatched codes and can be told to fail.
type stubSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (s *stubSender) Send(_ context.Context, destination, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	s.sent = append(s.sent, destination)
	return nil
}

func (s *stubSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 15*time.Minute)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:          "test-secret",
			AccessLifetime:  15 * time.Minute,
			SessionLifetime: 30 * 24 * time.Hour,
		},
		OTP: config.OTPConfig{
			CodeLength:      6,
			Lifetime:        5 * time.Minute,
			ResendCooldown:  60 * time.Second,
			MaxAttempts:     3,
			DeliveryTimeout: time.Second,
		},
		Server: config.ServerConfig{
			FrontendURL: "http://localhost:3000",
		},
	}

	sender := &stubSender{}

	auditService := services.NewAuditService(db, 10)
	otpService := services.NewOTPService(db, sender, cfg.OTP)
	sessionService := services.NewSessionService(db, cfg.JWT.SessionLifetime, cfg.JWT.AccessLifetime)
	tokenService := services.NewTokenService(db, sessionService)
	credentialService := services.NewCredentialService(db, otpService)
	oauthService := services.NewOAuthService(db, cfg.OAuth)
	authService := services.NewAuthService(credentialService, sessionService, tokenService, oauthService)

	authHandler := NewAuthHandler(db, authService, auditService)
	otpHandler := NewOTPHandler(otpService, authService, auditService)
	sessionHandler := NewSessionHandler(authService, sessionService, auditService)
	ssoHandler := NewSSOHandler(cfg, oauthService, authService, auditService)
	profileHandler := NewProfileHandler(otpService, credentialService, auditService)
	jobHandler := NewJobHandler(db, auditService)
	applicationHandler := NewApplicationHandler(db, auditService)
	adminHandler := NewAdminHandler(db, sessionService, auditService)

	authMiddleware := middleware.NewAuthMiddleware(db, tokenService)

	app := fiber.New(fiber.Config{BodyLimit: 1 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh-token", sessionHandler.Refresh)
	authRoutes.Post("/logout", sessionHandler.Logout)
	authRoutes.Post("/logout-all/:userId", authMiddleware.RequireAuth, sessionHandler.LogoutAll)
	authRoutes.Get("/sessions/:userId", authMiddleware.RequireAuth, sessionHandler.ListSessions)
	authRoutes.Post("/phone/send-otp", otpHandler.SendPhoneOTP)
	authRoutes.Post("/phone/verify-otp", otpHandler.VerifyPhoneOTP)
	authRoutes.Get("/oauth/google", ssoHandler.GoogleRedirect)
	authRoutes.Get("/oauth/google/callback", ssoHandler.GoogleCallback)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)

	profileRoutes := api.Group("/profile", authMiddleware.RequireAuth)
	profileRoutes.Post("/email/send-otp", profileHandler.SendEmailOTP)
	profileRoutes.Post("/email/verify-otp", profileHandler.VerifyEmailOTP)

	jobRoutes := api.Group("/jobs")
	jobRoutes.Get("/", jobHandler.List)
	jobRoutes.Get("/:id", jobHandler.Get)
	jobRoutes.Post("/:id/apply", authMiddleware.RequireAuth, applicationHandler.Apply)

	api.Get("/applications", authMiddleware.RequireAuth, applicationHandler.ListMine)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Get("/users/:id", adminHandler.GetUser)
	adminRoutes.Get("/users/:id/sessions", adminHandler.GetUserSessions)
	adminRoutes.Delete("/users/:id/sessions", adminHandler.RevokeUserSessions)
	adminRoutes.Delete("/users/:id/sessions/:sid", adminHandler.RevokeUserSession)
	adminRoutes.Post("/jobs", jobHandler.Create)
	adminRoutes.Put("/jobs/:id", jobHandler.Update)
	adminRoutes.Delete("/jobs/:id", jobHandler.Delete)

	return &testEnv{
		app:      app,
		db:       db,
		cfg:      cfg,
		sender:   sender,
		otp:      otpService,
		sessions: sessionService,
		tokens:   tokenService,
		auth:     authService,
	}
}

func createTestUser(t *testing.T, env *testEnv, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        &email,
		PasswordHash: &hash,
		Name:         "Test User",
		Role:         role,
		AuthProvider: models.AuthProviderLocal,
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	_, pair, err := env.auth.StartSession(context.Background(), user, "test-agent")
	if err != nil {
		t.Fatalf("failed starting session: %v", err)
	}

	return user, pair.AccessToken
}

// loginTestUser runs a real password login and returns the full pair.
func loginTestUser(t *testing.T, env *testEnv, email, password string) (string, string) {
	t.Helper()

	result, err := env.auth.LoginWithPassword(context.Background(), email, password, "test-agent")
	if err != nil {
		t.Fatalf("failed logging in test user: %v", err)
	}
	return result.Pair.AccessToken, result.Pair.RefreshToken
}

func currentOTPCode(t *testing.T, env *testEnv, destination string, purpose models.OtpPurpose) string {
	t.Helper()

	var challenge models.OtpChallenge
	if err := env.db.First(&challenge, "destination = ? AND purpose = ?", destination, purpose).Error; err != nil {
		t.Fatalf("failed loading otp challenge: %v", err)
	}
	return challenge.Code
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
