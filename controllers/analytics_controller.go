package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"taskflow/services"
	"taskflow/utils"
)

type AnalyticsController struct {
	analytics *services.AnalyticsService
}

func NewAnalyticsController(analytics *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analytics: analytics}
}

func queryDays(c *fiber.Ctx, fallback int) int {
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}

func (ac *AnalyticsController) Dashboard(c *fiber.Ctx) error {
	dashboard, err := ac.analytics.Dashboard()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(dashboard))
}

func (ac *AnalyticsController) TaskTrends(c *fiber.Ctx) error {
	trends, err := ac.analytics.TaskTrends(queryDays(c, 30))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(trends))
}

func (ac *AnalyticsController) TeamPerformance(c *fiber.Ctx) error {
	perf, err := ac.analytics.TeamPerformance()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(perf))
}

func (ac *AnalyticsController) UserProductivity(c *fiber.Ctx) error {
	prod, err := ac.analytics.UserProductivity()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(prod))
}

func (ac *AnalyticsController) PriorityDistribution(c *fiber.Ctx) error {
	dist, err := ac.analytics.PriorityDistribution()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(dist))
}

func (ac *AnalyticsController) OverdueTasks(c *fiber.Ctx) error {
	tasks, err := ac.analytics.OverdueTasks()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(tasks))
}

func (ac *AnalyticsController) ActivitySummary(c *fiber.Ctx) error {
	summary, err := ac.analytics.ActivitySummary(queryDays(c, 7))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(utils.SuccessResponse(summary))
}
