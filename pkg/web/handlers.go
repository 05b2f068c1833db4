// Package web provides HTTP handlers and REST API endpoints for teams and workflows.
package web

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/fuzzie/pkg/identity"
	"github.com/dukex/fuzzie/pkg/models"
	"github.com/dukex/fuzzie/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type callerKey struct{}

type APIHandlers struct {
	teamService     *services.Team
	workflowService *services.Workflow
	userService     *services.User
	verifier        *identity.Verifier
	validator       *validator.Validate
	logger          *slog.Logger
}

func NewAPIHandlers(
	teamService *services.Team,
	workflowService *services.Workflow,
	userService *services.User,
	verifier *identity.Verifier,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		teamService:     teamService,
		workflowService: workflowService,
		userService:     userService,
		verifier:        verifier,
		validator:       validator,
		logger:          logger,
	}
}

// Authenticate verifies the bearer token, records the caller's profile on first sight and
// stores the caller id for the handlers.
func (h *APIHandlers) Authenticate(c fiber.Ctx) error {
	caller, err := h.verifier.FromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		h.logger.DebugContext(c.Context(), "rejected token", "path", c.Path(), "error", err)

		return unauthorized(c)
	}

	_, err = h.userService.EnsureProfile(c.Context(), services.Profile{
		ID:           caller.ID,
		Email:        caller.Email,
		Name:         caller.Name,
		ProfileImage: caller.Picture,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Locals(callerKey{}, caller.ID)

	return c.Next()
}

func callerID(c fiber.Ctx) string {
	id, _ := c.Locals(callerKey{}).(string)

	return id
}

// bind decodes and validates the JSON body into req.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return nil
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	persistenceCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Fuzzie API is unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if ok {
		status = "healthy"
		message = "Fuzzie API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence": persistenceCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetNotifications(c fiber.Ctx) error {
	notifications, err := h.userService.Notifications(c.Context(), callerID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(notifications)
}

// parseService resolves a service path segment case-insensitively.
func parseService(value string) (models.ServiceType, bool) {
	for _, service := range models.ServiceTypes() {
		if strings.EqualFold(string(service), value) {
			return service, true
		}
	}

	return "", false
}
