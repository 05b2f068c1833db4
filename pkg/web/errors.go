package web

import (
	"errors"

	"github.com/dukex/fuzzie/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func unauthorized(c fiber.Ctx) error {
	return problem(c, fiber.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
}

// handleServiceError maps the service error taxonomy to problem responses. Internal causes
// never reach the response body.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsUnauthorized(err):
		return unauthorized(c)
	case services.IsOwnerProtected(err):
		return problem(c, fiber.StatusConflict, "owner_protected", "the team owner cannot be removed")
	case services.IsForbidden(err):
		return problem(c, fiber.StatusForbidden, "forbidden", "forbidden")
	case services.IsNotFound(err):
		return problem(c, fiber.StatusNotFound, "not_found", detail(err))
	case services.IsValidationError(err):
		return badRequest(c, detail(err))
	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", detail(err))
	case services.IsGenerationFailed(err):
		return problem(c, fiber.StatusUnprocessableEntity, "generation_failed", detail(err))
	default:
		return problem(c, fiber.StatusInternalServerError, "internal_error", "operation failed")
	}
}

func detail(err error) string {
	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		return serviceErr.Message
	}

	return err.Error()
}
