package middleware

import (
	"joints/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// RequestID tags every request with an id and carries it into the request's
// user context so repository logs can be correlated with access logs.
func RequestID() []fiber.Handler {
	return []fiber.Handler{
		requestid.New(requestid.Config{
			Generator: uuid.NewString,
		}),
		func(c *fiber.Ctx) error {
			if id, ok := c.Locals("requestid").(string); ok {
				c.SetUserContext(observability.WithRequestID(c.UserContext(), id))
			}
			return c.Next()
		},
	}
}
