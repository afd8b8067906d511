package routes

import (
	"github.com/ahmetcoskunkizilkaya/account-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/store"
	"github.com/gofiber/fiber/v2"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	users store.UserStore,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	api.Get("/health", healthHandler.Check)

	// Account lifecycle (public)
	api.Post("/register", authHandler.Register)
	api.Post("/activation", authHandler.Activate)
	api.Post("/login", authHandler.Login)
	api.Put("/password/forget", authHandler.ForgotPassword)
	api.Put("/password/reset", authHandler.ResetPassword)
	api.Post("/googlelogin", authHandler.GoogleLogin)
	api.Post("/facebooklogin", authHandler.FacebookLogin)

	// Session required. Middleware is attached per route so the public
	// routes above never see it.
	protected := middleware.JWTProtected(cfg.SessionSecret)
	api.Get("/user/:id", protected, userHandler.Read)
	api.Put("/user/update", protected, userHandler.Update)

	admin := api.Group("/admin", protected, middleware.AdminRequired(users))
	admin.Put("/update", userHandler.Update)
}
