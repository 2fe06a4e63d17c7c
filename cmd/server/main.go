package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/jobport/backend/internal/config"
	"github.com/jobport/backend/internal/database"
	"github.com/jobport/backend/internal/handlers"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.AccessLifetime)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	auditService := services.NewAuditService(db, cfg.Audit.QueueSize)
	otpService := services.NewOTPService(db, services.LogSender{}, cfg.OTP)
	sessionService := services.NewSessionService(db, cfg.JWT.SessionLifetime, cfg.JWT.AccessLifetime)
	tokenService := services.NewTokenService(db, sessionService)
	credentialService := services.NewCredentialService(db, otpService)
	oauthService := services.NewOAuthService(db, cfg.OAuth)
	authService := services.NewAuthService(credentialService, sessionService, tokenService, oauthService)

	sessionService.StartSweep(time.Hour)

	authHandler := handlers.NewAuthHandler(db, authService, auditService)
	otpHandler := handlers.NewOTPHandler(otpService, authService, auditService)
	sessionHandler := handlers.NewSessionHandler(authService, sessionService, auditService)
	ssoHandler := handlers.NewSSOHandler(cfg, oauthService, authService, auditService)
	profileHandler := handlers.NewProfileHandler(otpService, credentialService, auditService)
	jobHandler := handlers.NewJobHandler(db, auditService)
	applicationHandler := handlers.NewApplicationHandler(db, auditService)
	adminHandler := handlers.NewAdminHandler(db, sessionService, auditService)

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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
