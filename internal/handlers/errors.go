package handlers

import (
	"errors"
	"strconv"

	"joints/internal/models"
	"joints/internal/observability"

	"github.com/gofiber/fiber/v2"
)

var statusByCode = map[string]int{
	models.CodeNotFound:          fiber.StatusNotFound,
	models.CodeForbidden:         fiber.StatusForbidden,
	models.CodeDuplicateUsername: fiber.StatusConflict,
	models.CodeInvalidCredential: fiber.StatusUnauthorized,
	models.CodeBanned:            fiber.StatusForbidden,
	models.CodeValidation:        fiber.StatusBadRequest,
	models.CodeStorage:           fiber.StatusInternalServerError,
}

// respondError maps an application error onto a status code and a JSON body.
func respondError(c *fiber.Ctx, err error) error {
	code := models.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		observability.Log.WithError(err).WithField("path", c.Path()).Error("request failed")
		message = "Internal server error"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"code":    code,
	})
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, models.NewValidationError("invalid " + name)
	}
	return id, nil
}

func isValidation(err error) bool {
	return errors.Is(err, models.ErrValidation)
}
