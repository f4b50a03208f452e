package controllers

import (
	"github.com/gofiber/fiber/v2"

	"taskflow/services"
	"taskflow/utils"
)

type TaskController struct {
	tasks *services.TaskService
}

func NewTaskController(tasks *services.TaskService) *TaskController {
	return &TaskController{tasks: tasks}
}

func (tc *TaskController) List(c *fiber.Ctx) error {
	filter := services.TaskFilter{
		Status: c.Query("status"),
	}
	if teamID := utils.ParseUint(c.Query("team_id")); teamID != 0 {
		filter.TeamID = &teamID
	}
	if assigneeID := utils.ParseUint(c.Query("assignee_id")); assigneeID != 0 {
		filter.AssigneeID = &assigneeID
	}

	tasks, err := tc.tasks.List(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(tasks))
}

func (tc *TaskController) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	task, err := tc.tasks.Get(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) Create(c *fiber.Ctx) error {
	var input services.CreateTaskInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user := currentUser(c)
	task, err := tc.tasks.Create(user.ID, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var patch services.TaskPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	user := currentUser(c)
	task, err := tc.tasks.Update(user.ID, id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	user := currentUser(c)
	if err := tc.tasks.Delete(user.ID, id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessMessageResponse("Task deleted successfully", nil))
}

func (tc *TaskController) Stats(c *fiber.Ctx) error {
	stats, err := tc.tasks.StatsOverview()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(stats))
}
