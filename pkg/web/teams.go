package web

import (
	"github.com/dukex/fuzzie/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) CreateTeam(c fiber.Ctx) error {
	var req CreateTeamRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	team, err := h.teamService.CreateTeam(c.Context(), callerID(c), services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(team)
}

func (h *APIHandlers) GetTeams(c fiber.Ctx) error {
	teams, err := h.teamService.GetUserTeams(c.Context(), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(teams)
}

func (h *APIHandlers) GetTeam(c fiber.Ctx) error {
	details, err := h.teamService.GetTeamDetails(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(details)
}

func (h *APIHandlers) UpdateTeam(c fiber.Ctx) error {
	var req UpdateTeamRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	team, err := h.teamService.UpdateTeam(c.Context(), c.Params("id"), callerID(c), services.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(team)
}

func (h *APIHandlers) DeleteTeam(c fiber.Ctx) error {
	err := h.teamService.DeleteTeam(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) InviteToTeam(c fiber.Ctx) error {
	var req InviteRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	member, err := h.teamService.InviteToTeam(c.Context(), c.Params("id"), callerID(c), req.Email, req.Role)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(member)
}

func (h *APIHandlers) RemoveFromTeam(c fiber.Ctx) error {
	err := h.teamService.RemoveFromTeam(c.Context(), c.Params("id"), callerID(c), c.Params("memberId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetTeamWorkflows(c fiber.Ctx) error {
	workflows, err := h.teamService.GetTeamWorkflows(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}
