package controllers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/services"
	"taskflow/utils"
)

type TeamController struct {
	teams *services.TeamService
}

func NewTeamController(teams *services.TeamService) *TeamController {
	return &TeamController{teams: teams}
}

func (tc *TeamController) List(c *fiber.Ctx) error {
	teams, err := tc.teams.List()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(teams))
}

func (tc *TeamController) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	team, err := tc.teams.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) Create(c *fiber.Ctx) error {
	var input services.CreateTeamInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user := currentUser(c)
	team, err := tc.teams.Create(user.ID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var patch services.TeamPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user := currentUser(c)
	team, err := tc.teams.Update(user.ID, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	user := currentUser(c)
	if err := tc.teams.Delete(user.ID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessMessageResponse("Team deleted successfully", nil))
}

func (tc *TeamController) AddMember(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var input services.AddMemberInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user := currentUser(c)
	if err := tc.teams.AddMember(user.ID, id, input); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessMessageResponse("Member added successfully", nil))
}

func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	memberID, err := parseIDParam(c, "userId")
	if err != nil {
		return respondError(c, err)
	}

	user := currentUser(c)
	if err := tc.teams.RemoveMember(user.ID, id, memberID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessMessageResponse("Member removed successfully", nil))
}
