package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
)

// RegisterRoutes mounts the health endpoints and the authenticated team and workflow API.
func (h *APIHandlers) RegisterRoutes(app *fiber.App) {
	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", h.HealthCheck)

	app.Get("/notifications", h.Authenticate, h.GetNotifications)

	t := app.Group("/teams", h.Authenticate)
	t.Post("/", h.CreateTeam)
	t.Get("/", h.GetTeams)
	t.Get("/:id", h.GetTeam)
	t.Patch("/:id", h.UpdateTeam)
	t.Delete("/:id", h.DeleteTeam)
	t.Post("/:id/members", h.InviteToTeam)
	t.Delete("/:id/members/:memberId", h.RemoveFromTeam)
	t.Get("/:id/workflows", h.GetTeamWorkflows)

	w := app.Group("/workflows", h.Authenticate)
	w.Post("/", h.CreateWorkflow)
	w.Post("/generate", h.GenerateWorkflow)
	w.Get("/", h.GetWorkflows)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/share", h.ShareWorkflow)
	w.Post("/:id/clone", h.CloneWorkflow)
	w.Post("/:id/publish", h.PublishWorkflow)
	w.Put("/:id/templates/:service", h.SaveNodeTemplate)
}
