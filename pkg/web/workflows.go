package web

import (
	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	input := services.CreateWorkflowInput{
		Name:        req.Name,
		Description: req.Description,
		TeamID:      req.TeamID,
		Visibility:  req.Visibility,
	}

	if req.Nodes != nil || req.Edges != nil {
		input.Graph = graphOf(req.Nodes, req.Edges)
	}

	workflow, err := h.workflowService.Create(c.Context(), callerID(c), input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GenerateWorkflow(c fiber.Ctx) error {
	var req GenerateWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	workflow, err := h.workflowService.CreateFromPrompt(c.Context(), callerID(c), req.Prompt, req.TeamID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context(), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflowService.Get(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	var req UpdateWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	input := services.UpdateWorkflowInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
		Templates:   req.Templates,
	}

	if req.Nodes != nil || req.Edges != nil {
		input.Graph = graphOf(req.Nodes, req.Edges)
	}

	workflow, err := h.workflowService.Update(c.Context(), c.Params("id"), callerID(c), input)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("id"), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ShareWorkflow(c fiber.Ctx) error {
	var req ShareWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	workflow, err := h.workflowService.ShareWithTeam(c.Context(), c.Params("id"), callerID(c), req.TeamID, req.Visibility)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CloneWorkflow(c fiber.Ctx) error {
	var req CloneWorkflowRequest

	// The body is optional.
	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return err
		}
	}

	workflow, err := h.workflowService.Clone(c.Context(), c.Params("id"), callerID(c), req.TeamID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) PublishWorkflow(c fiber.Ctx) error {
	var req PublishRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	workflow, err := h.workflowService.SetPublished(c.Context(), c.Params("id"), callerID(c), *req.Published)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) SaveNodeTemplate(c fiber.Ctx) error {
	service, ok := parseService(c.Params("service"))
	if !ok {
		return badRequest(c, "Unknown service "+c.Params("service"))
	}

	var req SaveTemplateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	workflow, err := h.workflowService.SaveNodeTemplate(c.Context(), c.Params("id"), callerID(c), services.SaveTemplateInput{
		Service:     service,
		Content:     req.Content,
		Channels:    req.Channels,
		NotionDBID:  req.NotionDBID,
		Config:      req.Config,
		Execute:     req.Execute,
		Action:      req.Action,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func graphOf(nodes []*models.Node, edges []*models.Edge) *models.Graph {
	graph := models.Graph{Nodes: nodes, Edges: edges}

	if graph.Nodes == nil {
		graph.Nodes = []*models.Node{}
	}

	if graph.Edges == nil {
		graph.Edges = []*models.Edge{}
	}

	return &graph
}
