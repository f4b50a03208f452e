package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/models"
	"taskflow/services"
	"taskflow/utils"
)

// respondError maps service errors to HTTP status codes. Anything that
// is not a known service error is logged and reported as a 500.
func respondError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Code {
		case services.CodeValidation:
			return utils.ErrorResponse(c, fiber.StatusBadRequest, svcErr.Message)
		case services.CodeNotFound:
			return utils.ErrorResponse(c, fiber.StatusNotFound, svcErr.Message)
		case services.CodeConflict:
			return utils.ErrorResponse(c, fiber.StatusConflict, svcErr.Message)
		case services.CodeUnauthorized:
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, svcErr.Message)
		}
	}

	utils.LogError("internal_error", err, map[string]interface{}{
		"path":   c.Path(),
		"method": c.Method(),
	})
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}

// currentUser returns the authenticated user placed in locals by the
// JWT middleware.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// parseIDParam reads a positive numeric route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id := utils.ParseUint(c.Params(name))
	if id == 0 {
		return 0, services.NewValidationError("Invalid " + name + " parameter")
	}
	return id, nil
}
