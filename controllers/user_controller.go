package controllers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/services"
	"taskflow/utils"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) List(c *fiber.Ctx) error {
	users, err := uc.users.List()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(users))
}

func (uc *UserController) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	user, err := uc.users.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(user))
}

func (uc *UserController) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var patch services.UserPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user, err := uc.users.Update(id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(user))
}

func (uc *UserController) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err := uc.users.Delete(id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessMessageResponse("User deleted successfully", nil))
}
