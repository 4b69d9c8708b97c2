package middleware

import (
	"errors"
	"strings"

	"joints/internal/models"
	"joints/internal/observability"
	"joints/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	LocalUsername = "username"
	LocalUser     = "user"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token and
// resolve it into the current user.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		user, err := authService.ResolveSession(c.UserContext(), parts[1])
		if err != nil {
			observability.Log.WithError(err).Debug("session rejected")
			if errors.Is(err, models.ErrBanned) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"message": "Account is banned",
				})
			}
			if errors.Is(err, models.ErrStorage) {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Could not resolve session",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(LocalUsername, user.Username)
		c.Locals(LocalUser, user)
		return c.Next()
	}
}

// AdminRequired rejects requests whose resolved user is not an administrator.
// It must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(LocalUser).(*models.User)
		if !ok || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Administrator access required",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}
