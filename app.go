package main

import (
	"time"

	"joints/internal/handlers"
	"joints/internal/middleware"
	"joints/internal/repositories"
	"joints/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Users     repositories.UserRepository
	Posts     repositories.PostRepository
	Publisher services.EventPublisher // nil disables event publishing
	JWTSecret string
	PageSize  int
	// AccessLog enables the per-request access log.
	AccessLog bool
}

// NewApp wires services and handlers into a Fiber app. It also returns the
// AuthService so callers can mint tokens without going through /login.
func NewApp(deps Dependencies) (*fiber.App, *services.AuthService) {
	authService := services.NewAuthService(deps.Users, deps.JWTSecret)
	postService := services.NewPostService(deps.Posts, deps.Publisher, deps.PageSize)

	authHandler := handlers.NewAuthHandler(authService)
	postHandler := handlers.NewPostHandler(postService)
	userHandler := handlers.NewUserHandler(deps.Users, postService)
	adminHandler := handlers.NewAdminHandler(deps.Users, postService)

	app := fiber.New(fiber.Config{
		AppName: "joints",
	})

	app.Use(recover.New())
	for _, h := range middleware.RequestID() {
		app.Use(h)
	}
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${method} ${path} ${latency}\n",
		}))
	}

	auth := middleware.AuthRequired(authService)

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	postHandler.RegisterRoutes(apiV1, auth)
	userHandler.RegisterRoutes(apiV1, auth)
	adminHandler.RegisterRoutes(apiV1, auth, middleware.AdminRequired())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app, authService
}
